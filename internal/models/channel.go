package models

import (
	"time"

	"github.com/google/uuid"
)

// Channel represents a virtual broadcast channel backed by one library subfolder
type Channel struct {
	ID          uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	Name        string    `json:"name" gorm:"type:text;not null;uniqueIndex;column:name" validate:"required,min=1,max=255"`
	Description string    `json:"description" gorm:"type:text;not null;default:'';column:description"`
	CreatedAt   time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// NewChannel creates a new Channel with generated UUID and timestamps
func NewChannel(name, description string) *Channel {
	now := time.Now().UTC()
	return &Channel{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
