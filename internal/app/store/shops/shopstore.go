// internal/app/store/shops/shopstore.go
package shopstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/stratagate/internal/app/store/storeutil"
	"github.com/dalemusser/stratagate/internal/app/system/normalize"
	"github.com/dalemusser/stratagate/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("shops")}
}

// List returns shops, optionally restricted to one category, sorted by
// category then name.
func (s *Store) List(ctx context.Context, category string) ([]models.Shop, error) {
	q := bson.M{}
	if c := normalize.Category(category); c != "" {
		q["category"] = c
	}
	cur, err := s.c.Find(ctx, q, options.Find().SetSort(bson.D{
		{Key: "category", Value: 1},
		{Key: "name", Value: 1},
	}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Shop{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts sh and returns it with ID and timestamps set.
func (s *Store) Create(ctx context.Context, sh models.Shop) (models.Shop, error) {
	sh.ID = primitive.NewObjectID()
	sh.Category = normalize.Category(sh.Category)
	now := time.Now().UTC()
	sh.CreatedAt = now
	sh.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, sh); err != nil {
		return models.Shop{}, err
	}
	return sh, nil
}

// Get loads a shop by id.
func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (*models.Shop, error) {
	var sh models.Shop
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sh)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storeutil.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sh, nil
}

// Update holds the fields a partial update may change. Nil fields are left
// alone.
type Update struct {
	Name        *string
	Category    *string
	Location    *string
	Phone       *string
	Hours       *string
	Description *string
	Image       *string
}

func (upd Update) set() bson.M {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Category != nil {
		set["category"] = normalize.Category(*upd.Category)
	}
	if upd.Location != nil {
		set["location"] = *upd.Location
	}
	if upd.Phone != nil {
		set["phone"] = *upd.Phone
	}
	if upd.Hours != nil {
		set["hours"] = *upd.Hours
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Image != nil {
		set["image"] = *upd.Image
	}
	return set
}

// Update applies upd and returns the updated shop.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (*models.Shop, error) {
	var sh models.Shop
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": upd.set()},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&sh)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storeutil.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sh, nil
}

// Delete removes a shop by id.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return storeutil.ErrNotFound
	}
	return nil
}
