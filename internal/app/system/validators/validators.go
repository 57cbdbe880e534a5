// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// collections lists every collection the API writes, with its JSON-Schema
// validator.
var collections = []struct {
	name   string
	schema func() bson.M
}{
	{"users", usersSchema},
	{"maids", maidsSchema},
	{"properties", propertiesSchema},
	{"shops", shopsSchema},
}

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	var problems []string

	existing, listErr := collectionNames(ctx, db)
	if listErr != nil {
		logger.Warn("listCollectionNames failed; creating blind", zap.Error(listErr))
	}

	for _, c := range collections {
		if _, err := ensureCollection(ctx, db, c.name, existing, logger); err != nil {
			problems = append(problems, c.name+": "+err.Error())
			continue
		}
		if err := setValidator(ctx, db, c.name, c.schema()); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				logger.Info("validator skipped (unsupported)", zap.String("collection", c.name))
				continue
			}
			problems = append(problems, c.name+": "+err.Error())
			continue
		}
		logger.Debug("validator ensured", zap.String("collection", c.name))
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// Hook adapts EnsureAll to the supervisor's OnConnected signature.
func Hook(logger *zap.Logger) func(ctx context.Context, db *mongo.Database) error {
	return func(ctx context.Context, db *mongo.Database) error {
		return EnsureAll(ctx, db, logger)
	}
}

/* ---------------------- collection helpers ---------------------- */

// collectionNames returns the set of existing collections.
func collectionNames(ctx context.Context, db *mongo.Database) (map[string]bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out, nil
}

// ensureCollection idempotently makes sure name exists. existing may be
// nil when listing failed. Returns created==true only if we created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string, existing map[string]bool, logger *zap.Logger) (created bool, err error) {
	if existing[name] {
		return false, nil
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists is fine (race with another instance or a stale list).
		if isNamespaceExistsErr(err) {
			return false, nil
		}
		logger.Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	logger.Info("created collection", zap.String("collection", name))
	return true, nil
}

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	return db.RunCommand(ctx, cmd).Decode(&out)
}

/* ------------------------- error helpers ------------------------- */

func commandMatches(err error, code int32, phrases ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == code {
		return true
	}
	s := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func isNamespaceExistsErr(err error) bool {
	return commandMatches(err, 48, "already exists", "namespace exists")
}

func isNoSuchCommand(err error) bool {
	return commandMatches(err, 59, "no such command")
}

func isNotImplemented(err error) bool {
	return commandMatches(err, 115, "not implemented", "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var (
	nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}
	optText  = bson.M{"bsonType": "string"}
	number   = bson.M{"bsonType": bson.A{"double", "int", "long", "decimal"}, "minimum": 0}
	texts    = bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}}
	stamp    = bson.M{"bsonType": "date"}
)

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "email", "email_ci"},
			"properties": bson.M{
				"name":       nonBlank,
				"email":      nonBlank,
				"email_ci":   nonBlank,
				"phone":      optText,
				"password":   optText,
				"created_at": stamp,
				"updated_at": stamp,
			},
		},
	}
}

func maidsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name"},
			"properties": bson.M{
				"name":       nonBlank,
				"experience": number,
				"salary":     number,
				"skills":     texts,
				"available":  bson.M{"bsonType": "bool"},
				"created_at": stamp,
			},
		},
	}
}

func propertiesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "location", "price"},
			"properties": bson.M{
				"title":      nonBlank,
				"location":   nonBlank,
				"price":      number,
				"rooms":      number,
				"amenities":  texts,
				"images":     texts,
				"available":  bson.M{"bsonType": "bool"},
				"created_at": stamp,
			},
		},
	}
}

func shopsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "category"},
			"properties": bson.M{
				"name":       nonBlank,
				"category":   nonBlank,
				"created_at": stamp,
			},
		},
	}
}
