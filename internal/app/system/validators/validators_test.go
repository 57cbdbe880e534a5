package validators

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/stratagate/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestEnsureAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll() error = %v", err)
	}

	names, err := collectionNames(ctx, db)
	if err != nil {
		t.Fatalf("collectionNames() error = %v", err)
	}
	for _, c := range collections {
		if !names[c.name] {
			t.Errorf("collection %s should exist after EnsureAll", c.name)
		}
	}

	// Running again is a no-op.
	if err := EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("second EnsureAll() error = %v", err)
	}
}

func TestHook_RejectsInvalidDocuments(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := Hook(zap.NewNop())(ctx, db); err != nil {
		t.Fatalf("Hook() error = %v", err)
	}

	now := time.Now().UTC()
	if _, err := db.Collection("shops").InsertOne(ctx, bson.M{"name": "Rahman Store", "category": "grocery", "created_at": now}); err != nil {
		t.Fatalf("valid shop rejected: %v", err)
	}

	bad := []struct {
		coll string
		doc  bson.M
	}{
		{"shops", bson.M{"name": "No Category"}},
		{"shops", bson.M{"name": "   ", "category": "grocery"}},
		{"properties", bson.M{"title": "Seat", "location": "Mirpur", "price": -1.0}},
		{"users", bson.M{"name": "Karim"}},
	}
	for _, b := range bad {
		_, err := db.Collection(b.coll).InsertOne(ctx, b.doc)
		if err == nil {
			t.Errorf("%s: invalid document %v was accepted", b.coll, b.doc)
			continue
		}
		var we mongo.WriteException
		if !errors.As(err, &we) {
			t.Errorf("%s: expected WriteException, got %T: %v", b.coll, err, err)
		}
	}
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name string
		fn   func(error) bool
		err  error
		want bool
	}{
		{"namespace code", isNamespaceExistsErr, mongo.CommandError{Code: 48}, true},
		{"namespace text", isNamespaceExistsErr, errors.New("Collection already exists. NS: x"), true},
		{"namespace other", isNamespaceExistsErr, errors.New("boom"), false},
		{"no such command", isNoSuchCommand, mongo.CommandError{Code: 59, Message: "no such command: 'collMod'"}, true},
		{"not implemented", isNotImplemented, mongo.CommandError{Code: 115}, true},
		{"not supported text", isNotImplemented, errors.New("Feature not supported: validator"), true},
		{"nil", isNotImplemented, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.err); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSchemasRequireCoreFields(t *testing.T) {
	want := map[string][]string{
		"users":      {"name", "email", "email_ci"},
		"maids":      {"name"},
		"properties": {"title", "location", "price"},
		"shops":      {"name", "category"},
	}
	for _, c := range collections {
		js := c.schema()["$jsonSchema"].(bson.M)
		req := js["required"].(bson.A)
		if len(req) != len(want[c.name]) {
			t.Errorf("%s required = %v, want %v", c.name, req, want[c.name])
			continue
		}
		for i, f := range want[c.name] {
			if req[i] != f {
				t.Errorf("%s required[%d] = %v, want %s", c.name, i, req[i], f)
			}
		}
	}
}
