package handlers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/chaima229/fraisScolaire-backend-sub001/internal/store"
)

func setupHandlerStore(t *testing.T) *store.Store {
	t.Helper()
	// unique in-memory DB per test name to avoid leakage via shared cache
	dsn := fmt.Sprintf("file:h_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&store.DocumentRow{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	fast := store.RetryOptions{MaxRetries: 2, Timeout: 2 * time.Second, RetryDelay: 5 * time.Millisecond, BackoffMultiplier: 2}
	return store.NewWithOptions(db, fast, fast)
}

func seedDoc(t *testing.T, s *store.Store, collection string, doc store.Document) string {
	t.Helper()
	id, err := s.Collection(collection).Add(context.Background(), doc)
	if err != nil {
		t.Fatalf("seed %s: %v", collection, err)
	}
	return id
}
