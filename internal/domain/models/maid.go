// internal/domain/models/maid.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Maid is a household service provider listing.
type Maid struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name        string             `bson:"name" json:"name"`
	Phone       string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Location    string             `bson:"location,omitempty" json:"location,omitempty"`
	Experience  int                `bson:"experience" json:"experience"` // years
	Skills      []string           `bson:"skills,omitempty" json:"skills,omitempty"`
	Salary      float64            `bson:"salary" json:"salary"` // expected monthly rate
	Available   bool               `bson:"available" json:"available"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Image       string             `bson:"image,omitempty" json:"image,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
