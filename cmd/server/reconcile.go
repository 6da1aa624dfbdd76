package main

import (
	"context"
	"log"
	"time"

	"github.com/chaima229/fraisScolaire-backend-sub001/internal/services"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/store"
)

// runReconcile is the one-off CLI path: converge a whole collection and
// exit. Re-runnable: an interrupted run leaves already-patched records
// untouched on the next pass.
func runReconcile(st *store.Store, collection string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	m := services.NewMigrator(st)
	var (
		report services.MigrationReport
		err    error
	)
	switch collection {
	case store.Factures:
		report, err = m.ReconcileFactures(ctx)
	case store.Paiements:
		report, err = m.ReconcilePaiements(ctx)
	default:
		log.Fatalf("reconcile: unknown collection %q (want factures or paiements)", collection)
	}
	if err != nil {
		log.Fatalf("reconcile %s failed: %v", collection, err)
	}
	log.Printf("reconcile %s: total=%d patched=%d flagged=%d unchanged=%d failed=%d",
		collection, report.Total, report.Patched, report.Flagged, report.Unchanged, report.Failed)
	for _, e := range report.Errors {
		log.Printf("reconcile %s: %s", collection, e)
	}
}
