// Package indexes reconciles the collection indexes the resource stores
// depend on. It runs as a supervisor hook after every successful connect,
// so it must be idempotent and cheap when nothing changed.
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// want describes one desired index.
type want struct {
	name   string
	keys   bson.D
	unique bool
}

func asc(field string) bson.E  { return bson.E{Key: field, Value: 1} }
func desc(field string) bson.E { return bson.E{Key: field, Value: -1} }

// wanted lists the indexes per collection.
var wanted = []struct {
	coll    string
	indexes []want
}{
	{"users", []want{
		{name: "uniq_users_email", keys: bson.D{asc("email")}, unique: true},
	}},
	{"maids", []want{
		{name: "idx_maids_created", keys: bson.D{desc("created_at")}},
	}},
	{"properties", []want{
		{name: "idx_properties_created", keys: bson.D{desc("created_at")}},
		{name: "idx_properties_location_price", keys: bson.D{asc("location"), asc("price")}},
	}},
	{"shops", []want{
		{name: "idx_shops_category_name", keys: bson.D{asc("category"), asc("name")}},
		{name: "idx_shops_created", keys: bson.D{desc("created_at")}},
	}},
}

// EnsureAll creates missing indexes and rebuilds ones whose uniqueness
// changed. Every collection is attempted; failures are joined.
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	var errs []error
	for _, c := range wanted {
		coll := db.Collection(c.coll)
		have := listExisting(ctx, coll, logger)
		for _, w := range c.indexes {
			if err := reconcile(ctx, coll, have, w, logger); err != nil {
				errs = append(errs, fmt.Errorf("%s(%s): %w", c.coll, w.name, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Hook adapts EnsureAll to the supervisor's post-connect hook signature.
func Hook(logger *zap.Logger) func(ctx context.Context, db *mongo.Database) error {
	return func(ctx context.Context, db *mongo.Database) error {
		return EnsureAll(ctx, db, logger)
	}
}

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

// action is what reconcile must do for one wanted index.
type action int

const (
	actKeep action = iota
	actCreate
	actRebuild
)

// plan compares w with the indexes already on the collection, matched by
// key signature so a renamed index is not duplicated.
func plan(have map[string]existingIndex, w want) (action, existingIndex) {
	ex, ok := have[keySig(w.keys)]
	switch {
	case !ok:
		return actCreate, existingIndex{}
	case sameBoolPtr(&w.unique, ex.Unique):
		return actKeep, ex
	default:
		return actRebuild, ex
	}
}

func reconcile(ctx context.Context, coll *mongo.Collection, have map[string]existingIndex, w want, logger *zap.Logger) error {
	log := logger.With(zap.String("collection", coll.Name()), zap.String("name", w.name), zap.String("keys", keySig(w.keys)))
	start := time.Now()

	act, ex := plan(have, w)
	switch act {
	case actKeep:
		log.Debug("index present")
		return nil
	case actRebuild:
		if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
			return fmt.Errorf("drop %s: %w", ex.Name, err)
		}
	}

	model := mongo.IndexModel{Keys: w.keys, Options: options.Index().SetName(w.name)}
	if w.unique {
		model.Options.SetUnique(true)
	}
	if _, err := coll.Indexes().CreateOne(ctx, model); err != nil {
		switch {
		case w.unique && isDuplicateKeyErr(err):
			return errors.New("duplicates present, cannot build unique index")
		case isOptionsConflictErr(err):
			log.Warn("index options conflict", zap.Error(err))
		}
		return err
	}
	log.Info("index built", zap.Bool("unique", w.unique), zap.Bool("rebuilt", act == actRebuild), zap.Duration("took", time.Since(start)))
	return nil
}

// listExisting loads indexes keyed by key signature. A collection that does
// not exist yet has none.
func listExisting(ctx context.Context, coll *mongo.Collection, logger *zap.Logger) map[string]existingIndex {
	have := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return have
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			logger.Warn("skipping undecodable index", zap.String("collection", coll.Name()), zap.Error(err))
			continue
		}
		have[keySig(idx.Key)] = idx
	}
	return have
}

func keySig(keys bson.D) string {
	parts := make([]string, len(keys))
	for i, kv := range keys {
		parts[i] = fmt.Sprintf("%s:%v", kv.Key, kv.Value)
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	return (a != nil && *a) == (b != nil && *b)
}

func isDuplicateKeyErr(err error) bool {
	return err != nil && (mongo.IsDuplicateKeyError(err) || strings.Contains(err.Error(), "E11000"))
}

// IndexOptionsConflict (85) and IndexKeySpecsConflict (86).
func isOptionsConflictErr(err error) bool {
	if err == nil {
		return false
	}
	var se mongo.ServerError
	if errors.As(err, &se) && (se.HasErrorCode(85) || se.HasErrorCode(86)) {
		return true
	}
	return strings.Contains(err.Error(), "IndexOptionsConflict")
}
