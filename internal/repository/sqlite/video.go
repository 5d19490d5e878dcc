package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/wetube/internal/model"
	"github.com/sakif/wetube/internal/repository"
)

var _ repository.VideoRepository = (*DB)(nil)

func (db *DB) CreateVideo(ctx context.Context, video *model.Video) error {
	video.ID = xid.New().String()
	if video.CreatedAt.IsZero() {
		video.CreatedAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO videos (id, file_url, title, description, views, creator_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		video.ID,
		video.FileURL,
		video.Title,
		video.Description,
		video.Views,
		video.CreatorID,
		video.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting video (creator=%s): %w", video.CreatorID, err)
	}
	return nil
}

// ListVideosByCreator returns a user's videos, newest first.
func (db *DB) ListVideosByCreator(ctx context.Context, creatorID string) ([]model.Video, error) {
	return db.queryVideos(ctx,
		`SELECT id, file_url, title, description, views, creator_id, created_at
		 FROM videos WHERE creator_id = ? ORDER BY created_at DESC`,
		creatorID,
	)
}

// ListRecentVideos returns at most limit videos across all users, newest first.
func (db *DB) ListRecentVideos(ctx context.Context, limit int) ([]model.Video, error) {
	return db.queryVideos(ctx,
		`SELECT id, file_url, title, description, views, creator_id, created_at
		 FROM videos ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
}

func (db *DB) queryVideos(ctx context.Context, query string, args ...any) ([]model.Video, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing videos: %w", err)
	}
	defer rows.Close()

	// Non-nil so templates and JSON see an empty list, not null.
	videos := []model.Video{}
	for rows.Next() {
		var v model.Video
		if err := rows.Scan(
			&v.ID,
			&v.FileURL,
			&v.Title,
			&v.Description,
			&v.Views,
			&v.CreatorID,
			&v.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning video row: %w", err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating video rows: %w", err)
	}

	return videos, nil
}
