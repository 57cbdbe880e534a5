// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a registered account. Email is stored normalized (trimmed,
// lowercase) and is unique; EmailCI is the folded form used for lookups.
type User struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name    string             `bson:"name" json:"name"`
	Email   string             `bson:"email" json:"email"`
	EmailCI string             `bson:"email_ci" json:"-"`
	Phone   string             `bson:"phone,omitempty" json:"phone,omitempty"`

	PasswordHash string `bson:"password" json:"-"` // bcrypt hash (never in JSON)

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// PublicUser is the subset of User returned by the auth endpoints.
type PublicUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Public returns the client-facing view of u.
func (u User) Public() PublicUser {
	return PublicUser{Name: u.Name, Email: u.Email, Phone: u.Phone}
}
