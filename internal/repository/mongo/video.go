package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/sakif/wetube/internal/model"
	"github.com/sakif/wetube/internal/repository"
)

var _ repository.VideoRepository = (*Store)(nil)

func (s *Store) CreateVideo(ctx context.Context, video *model.Video) error {
	video.ID = xid.New().String()
	if video.CreatedAt.IsZero() {
		video.CreatedAt = time.Now().UTC()
	}
	if _, err := s.videos.InsertOne(ctx, video); err != nil {
		return fmt.Errorf("mongo: inserting video (creator=%s): %w", video.CreatorID, err)
	}
	return nil
}

func (s *Store) ListVideosByCreator(ctx context.Context, creatorID string) ([]model.Video, error) {
	return s.findVideos(ctx,
		bson.D{{Key: "creator_id", Value: creatorID}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
}

func (s *Store) ListRecentVideos(ctx context.Context, limit int) ([]model.Video, error) {
	return s.findVideos(ctx,
		bson.D{},
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetLimit(int64(limit)),
	)
}

func (s *Store) findVideos(ctx context.Context, filter bson.D, opts *options.FindOptionsBuilder) ([]model.Video, error) {
	cursor, err := s.videos.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: listing videos: %w", err)
	}

	videos := []model.Video{}
	if err := cursor.All(ctx, &videos); err != nil {
		return nil, fmt.Errorf("mongo: decoding videos: %w", err)
	}
	return videos, nil
}
