// internal/app/store/storeutil/storeutil.go
package storeutil

import (
	"context"
	"errors"
	"net"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrUnavailable means there is no live database session.
	ErrUnavailable = errors.New("store unavailable")
	// ErrInvalidID means a path id is not a valid ObjectID.
	ErrInvalidID = errors.New("invalid id")
	// ErrNotFound means no document matched.
	ErrNotFound = errors.New("not found")
)

// Provider hands out the current database session. It returns nil when the
// store is not connected.
type Provider interface {
	Database() *mongo.Database
}

// Database returns p's current session or ErrUnavailable.
func Database(p Provider) (*mongo.Database, error) {
	if p == nil {
		return nil, ErrUnavailable
	}
	db := p.Database()
	if db == nil {
		return nil, ErrUnavailable
	}
	return db, nil
}

// ParseID converts a hex path parameter to an ObjectID.
func ParseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return id, nil
}

// IsUnavailable reports whether err means the store could not be reached
// in time: no session, a deadline, or a network failure.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, mongo.ErrClientDisconnected) {
		return true
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}
	var se mongo.ServerError
	if errors.As(err, &se) && se.HasErrorCode(50) { // MaxTimeMSExpired
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}

// Paginate returns *options.FindOptions with skip/limit given a 1-based page.
func Paginate(limit, page int64) *options.FindOptions {
	if limit <= 0 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}
	sk := (page - 1) * limit
	return options.Find().SetLimit(limit).SetSkip(sk)
}
