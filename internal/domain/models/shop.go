// internal/domain/models/shop.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Shop is a local business listing. Category is stored lowercase.
type Shop struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name        string             `bson:"name" json:"name"`
	Category    string             `bson:"category" json:"category"`
	Location    string             `bson:"location,omitempty" json:"location,omitempty"`
	Phone       string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Hours       string             `bson:"hours,omitempty" json:"hours,omitempty"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Image       string             `bson:"image,omitempty" json:"image,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
