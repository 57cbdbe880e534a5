// internal/domain/models/property.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Property is a rental listing (seat, room, or flat).
type Property struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Type        string             `bson:"type,omitempty" json:"type,omitempty"`
	Location    string             `bson:"location" json:"location"`
	Price       float64            `bson:"price" json:"price"`
	Rooms       int                `bson:"rooms,omitempty" json:"rooms,omitempty"`
	Amenities   []string           `bson:"amenities,omitempty" json:"amenities,omitempty"`
	Images      []string           `bson:"images,omitempty" json:"images,omitempty"`
	Contact     string             `bson:"contact,omitempty" json:"contact,omitempty"`
	Available   bool               `bson:"available" json:"available"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
