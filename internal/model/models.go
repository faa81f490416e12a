package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// Token roles
	RoleAdmin = "ADMIN" // Can manage tokens as well as use the app
	RoleUser  = "USER"
)

// ImageStatus tracks the AI image attached to a note
type ImageStatus string

const (
	ImagePending ImageStatus = "pending"
	ImageReady   ImageStatus = "ready"
	ImageFailed  ImageStatus = "failed"
)

// Note is a user's text note with its generated image
type Note struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Data        string             `bson:"data" json:"data"`
	ImageURL    string             `bson:"img_src,omitempty" json:"imgSrc,omitempty"`
	ImageStatus ImageStatus        `bson:"image_status" json:"imageStatus"`
	ImageError  string             `bson:"image_error,omitempty" json:"imageError,omitempty"`
	UserID      primitive.ObjectID `bson:"user_id" json:"userId"`
	UserName    string             `bson:"user_name" json:"userName"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}

// APIToken authenticates a user; Name doubles as the user's display name
type APIToken struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	TokenHash string             `bson:"token_hash" json:"-" unique:"true"` // Hashed token value stored in DB
	Name      string             `bson:"name" json:"name" unique:"true"`
	Role      string             `bson:"role" json:"role"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	ExpiresAt time.Time          `bson:"expires_at,omitempty" json:"expires_at,omitempty"` // Optional expiration
	LastUsed  time.Time          `bson:"last_used,omitempty" json:"last_used,omitempty"`
	Revoked   bool               `bson:"revoked" json:"revoked"`
}

type PaginationOptions struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

// ImageJob is the queue message asking for a note's image to be generated
type ImageJob struct {
	NoteID string `json:"note_id"`
	Prompt string `json:"prompt"`
}
