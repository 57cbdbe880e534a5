// internal/app/store/properties/propertystore.go
package propertystore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/stratagate/internal/app/store/storeutil"
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
	return &Store{c: db.Collection("properties")}
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Location string
	Type     string
	MinPrice float64
	MaxPrice float64

	// Limit > 0 returns one page of at most Limit results. Page is 1-based.
	Limit int64
	Page  int64
}

func (f Filter) query() bson.M {
	q := bson.M{}
	if f.Location != "" {
		q["location"] = f.Location
	}
	if f.Type != "" {
		q["type"] = f.Type
	}
	price := bson.M{}
	if f.MinPrice > 0 {
		price["$gte"] = f.MinPrice
	}
	if f.MaxPrice > 0 {
		price["$lte"] = f.MaxPrice
	}
	if len(price) > 0 {
		q["price"] = price
	}
	return q
}

// List returns properties matching f, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]models.Property, error) {
	opts := []*options.FindOptions{options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})}
	if f.Limit > 0 {
		opts = append(opts, storeutil.Paginate(f.Limit, f.Page))
	}
	cur, err := s.c.Find(ctx, f.query(), opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Property{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts p and returns it with ID and timestamps set.
func (s *Store) Create(ctx context.Context, p models.Property) (models.Property, error) {
	p.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Property{}, err
	}
	return p, nil
}

// Get loads a property by id.
func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (*models.Property, error) {
	var p models.Property
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storeutil.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Update holds the fields a partial update may change. Nil fields are left
// alone.
type Update struct {
	Title       *string
	Description *string
	Type        *string
	Location    *string
	Price       *float64
	Rooms       *int
	Amenities   *[]string
	Images      *[]string
	Contact     *string
	Available   *bool
}

func (upd Update) set() bson.M {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Type != nil {
		set["type"] = *upd.Type
	}
	if upd.Location != nil {
		set["location"] = *upd.Location
	}
	if upd.Price != nil {
		set["price"] = *upd.Price
	}
	if upd.Rooms != nil {
		set["rooms"] = *upd.Rooms
	}
	if upd.Amenities != nil {
		set["amenities"] = *upd.Amenities
	}
	if upd.Images != nil {
		set["images"] = *upd.Images
	}
	if upd.Contact != nil {
		set["contact"] = *upd.Contact
	}
	if upd.Available != nil {
		set["available"] = *upd.Available
	}
	return set
}

// Update applies upd and returns the updated property.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (*models.Property, error) {
	var p models.Property
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": upd.set()},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storeutil.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes a property by id.
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
