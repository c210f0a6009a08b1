package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// File is a building document uploaded by an admin. The content lives
// in S3 under ObjectKey; this record only carries metadata.
type File struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID       primitive.ObjectID `bson:"userId" json:"userId"` // uploader
	BuildingID   primitive.ObjectID `bson:"buildingId" json:"buildingId"`
	Name         string             `bson:"name" json:"name"`
	OriginalName string             `bson:"originalname" json:"originalname"`
	ObjectKey    string             `bson:"objectKey" json:"objectKey"`
	Active       bool               `bson:"active" json:"active"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// FileListing is a File decorated with display fields for list views.
type FileListing struct {
	File         `bson:",inline"`
	UserEmail    string `json:"userEmail"`
	BuildingName string `json:"buildingName"`
}
