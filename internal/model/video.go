package model

import "time"

// Video is an uploaded video. This component only reads videos to show
// them on a user's detail page and on the home page.
type Video struct {
	ID          string    `json:"id"          bson:"_id"`
	FileURL     string    `json:"fileUrl"     bson:"file_url"`
	Title       string    `json:"title"       bson:"title"`
	Description string    `json:"description" bson:"description"`
	Views       int       `json:"views"       bson:"views"`
	CreatorID   string    `json:"creatorId"   bson:"creator_id"`
	CreatedAt   time.Time `json:"createdAt"   bson:"created_at"`
}
