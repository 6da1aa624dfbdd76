// Package store exposes the managed document database as collection-scoped
// CRUD over raw key/value records. Documents are persisted one row each
// (collection + id + JSON payload); the payload keeps every field a legacy
// or current consumer may read, which is what the reconciliation layer
// depends on. Every call goes through the timeout/retry wrapper.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Known collections.
const (
	Users     = "users"
	Etudiants = "etudiants"
	Parents   = "parents"
	Classes   = "classes"
	Factures  = "factures"
	Paiements = "paiements"
	Tarifs    = "tarifs"
	Bourses   = "bourses"
)

// ErrNotFound marks a get-by-id miss.
var ErrNotFound = errors.New("store: document not found")

// Document is a raw stored record. Reads inject the document ID under "id";
// writes strip it back out.
type Document map[string]any

// ID returns the injected document id, if any.
func (d Document) ID() string {
	id, _ := d["id"].(string)
	return id
}

// Clone returns a shallow copy of the document.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// DocumentRow is the storage shape of one document.
type DocumentRow struct {
	Collection string            `gorm:"primaryKey;size:64"`
	ID         string            `gorm:"primaryKey;size:64"`
	Data       datatypes.JSONMap `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (DocumentRow) TableName() string { return "documents" }

// NewDocumentRow builds a row with a fresh id, for seeding and tests.
func NewDocumentRow(collection string, data map[string]any) *DocumentRow {
	return &DocumentRow{Collection: collection, ID: uuid.NewString(), Data: datatypes.JSONMap(data)}
}

// Store wraps the database handle with the resilience tunables.
type Store struct {
	db        *gorm.DB
	opts      RetryOptions
	batchOpts RetryOptions
}

// New builds a Store with production retry defaults.
func New(db *gorm.DB) *Store {
	return &Store{db: db, opts: DefaultRetryOptions(), batchOpts: DefaultBatchRetryOptions()}
}

// NewWithOptions builds a Store with explicit tunables (tests use short ones).
func NewWithOptions(db *gorm.DB, single, batch RetryOptions) *Store {
	return &Store{db: db, opts: single.withDefaults(), batchOpts: batch.withDefaults()}
}

// Collection scopes operations to one named collection.
func (s *Store) Collection(name string) *Collection {
	return &Collection{name: name, store: s}
}

// CheckHealth issues one lightweight read with a short fixed timeout.
// It never retries: a single failure reports unhealthy immediately.
func (s *Store) CheckHealth(ctx context.Context) bool {
	_, err := WithTimeout(ctx, 5*time.Second, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.db.WithContext(ctx).Exec("SELECT 1").Error
	})
	return err == nil
}

// Filter is one predicate of a query. Supported ops: "==", ">=", "<=".
type Filter struct {
	Field string
	Op    string
	Value any
}

func Eq(field string, value any) Filter  { return Filter{Field: field, Op: "==", Value: value} }
func Gte(field string, value any) Filter { return Filter{Field: field, Op: ">=", Value: value} }
func Lte(field string, value any) Filter { return Filter{Field: field, Op: "<=", Value: value} }

// Collection offers get-all, filtered queries, get-by-id, add, partial
// patch, and delete over one collection.
type Collection struct {
	name  string
	store *Store
}

func (c *Collection) Name() string { return c.name }

// GetAll fetches every document in the collection (batch timeout).
func (c *Collection) GetAll(ctx context.Context) ([]Document, error) {
	return WithRetryAndTimeout(ctx, c.store.batchOpts, func() Call[[]Document] {
		return func(ctx context.Context) ([]Document, error) {
			var rows []DocumentRow
			if err := c.store.db.WithContext(ctx).Where("collection = ?", c.name).Order("id").Find(&rows).Error; err != nil {
				return nil, err
			}
			docs := make([]Document, 0, len(rows))
			for _, row := range rows {
				docs = append(docs, rowToDocument(row))
			}
			return docs, nil
		}
	})
}

// Query returns documents matching every filter. Filters evaluate in
// process after a collection scan; collections are school sized and this
// keeps sqlite and postgres behavior identical.
func (c *Collection) Query(ctx context.Context, filters ...Filter) ([]Document, error) {
	all, err := c.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Document, 0, len(all))
	for _, doc := range all {
		if matchesAll(doc, filters) {
			out = append(out, doc)
		}
	}
	return out, nil
}

// Get fetches one document by id. Misses surface ErrNotFound (wrapped in a
// RetryError once the budget is spent, detectable via errors.Is).
func (c *Collection) Get(ctx context.Context, id string) (Document, error) {
	return WithRetryAndTimeout(ctx, c.store.opts, func() Call[Document] {
		return func(ctx context.Context) (Document, error) {
			var row DocumentRow
			err := c.store.db.WithContext(ctx).Where("collection = ? AND id = ?", c.name, id).First(&row).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, c.name, id)
			}
			if err != nil {
				return nil, err
			}
			return rowToDocument(row), nil
		}
	})
}

// Add inserts a new document and returns its assigned id.
func (c *Collection) Add(ctx context.Context, doc Document) (string, error) {
	id := uuid.NewString()
	data := stripID(doc)
	return WithRetryAndTimeout(ctx, c.store.opts, func() Call[string] {
		return func(ctx context.Context) (string, error) {
			row := DocumentRow{Collection: c.name, ID: id, Data: datatypes.JSONMap(data)}
			if err := c.store.db.WithContext(ctx).Create(&row).Error; err != nil {
				return "", err
			}
			return id, nil
		}
	})
}

// Patch merges the given fields into an existing document. Fields absent
// from patch are left untouched; nothing a legacy consumer reads is dropped.
func (c *Collection) Patch(ctx context.Context, id string, patch Document) error {
	data := stripID(patch)
	_, err := WithRetryAndTimeout(ctx, c.store.opts, func() Call[struct{}] {
		return func(ctx context.Context) (struct{}, error) {
			tx := c.store.db.WithContext(ctx)
			var row DocumentRow
			err := tx.Where("collection = ? AND id = ?", c.name, id).First(&row).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return struct{}{}, fmt.Errorf("%w: %s/%s", ErrNotFound, c.name, id)
			}
			if err != nil {
				return struct{}{}, err
			}
			if row.Data == nil {
				row.Data = datatypes.JSONMap{}
			}
			for k, v := range data {
				row.Data[k] = v
			}
			return struct{}{}, tx.Model(&DocumentRow{}).
				Where("collection = ? AND id = ?", c.name, id).
				Updates(map[string]any{"data": row.Data, "updated_at": time.Now()}).Error
		}
	})
	return err
}

// Delete removes one document; deleting a missing id is a no-op.
func (c *Collection) Delete(ctx context.Context, id string) error {
	_, err := WithRetryAndTimeout(ctx, c.store.opts, func() Call[struct{}] {
		return func(ctx context.Context) (struct{}, error) {
			return struct{}{}, c.store.db.WithContext(ctx).
				Where("collection = ? AND id = ?", c.name, id).
				Delete(&DocumentRow{}).Error
		}
	})
	return err
}

func rowToDocument(row DocumentRow) Document {
	doc := make(Document, len(row.Data)+1)
	for k, v := range row.Data {
		doc[k] = v
	}
	doc["id"] = row.ID
	return doc
}

func stripID(doc Document) map[string]any {
	data := make(map[string]any, len(doc))
	for k, v := range doc {
		if k == "id" {
			continue
		}
		data[k] = v
	}
	return data
}

func matchesAll(doc Document, filters []Filter) bool {
	for _, f := range filters {
		if !matches(doc, f) {
			return false
		}
	}
	return true
}

func matches(doc Document, f Filter) bool {
	val, ok := doc[f.Field]
	if !ok {
		return false
	}
	// numbers compare numerically regardless of the concrete Go type
	if a, aok := asNumber(val); aok {
		if b, bok := asNumber(f.Value); bok {
			switch f.Op {
			case "==":
				return a == b
			case ">=":
				return a >= b
			case "<=":
				return a <= b
			}
			return false
		}
	}
	switch f.Op {
	case "==":
		return val == f.Value
	case ">=":
		return fmt.Sprint(val) >= fmt.Sprint(f.Value)
	case "<=":
		return fmt.Sprint(val) <= fmt.Sprint(f.Value)
	}
	return false
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
