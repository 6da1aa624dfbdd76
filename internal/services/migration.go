package services

import (
	"context"
	"fmt"
	"log"

	"github.com/chaima229/fraisScolaire-backend-sub001/internal/models"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/store"
)

// Migrator walks a full collection and applies reconciliation patches
// record by record. Each patch is an independent write: a run interrupted
// half way leaves every touched record canonical, and re-running is safe
// because reconciliation of a canonical record is a no-op.
type Migrator struct {
	store *store.Store
}

func NewMigrator(s *store.Store) *Migrator {
	return &Migrator{store: s}
}

// MigrationReport summarizes one batch run.
type MigrationReport struct {
	Collection string   `json:"collection"`
	Total      int      `json:"total"`
	Patched    int      `json:"patched"`
	Flagged    int      `json:"flagged"`
	Unchanged  int      `json:"unchanged"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors,omitempty"`
}

// ReconcileFactures reconciles every invoice in the collection.
func (m *Migrator) ReconcileFactures(ctx context.Context) (MigrationReport, error) {
	factures := m.store.Collection(store.Factures)
	docs, err := factures.GetAll(ctx)
	if err != nil {
		return MigrationReport{Collection: store.Factures}, err
	}
	report := MigrationReport{Collection: store.Factures, Total: len(docs)}
	for _, doc := range docs {
		patch, flags := ReconcileInvoice(doc)
		m.apply(ctx, factures, doc.ID(), patch, flags, &report)
	}
	return report, nil
}

// ReconcilePaiements reconciles every payment. The payer rule needs the
// linked invoice's student; when that invoice cannot be observed the rule
// is skipped for this run and the record is picked up by the next one.
func (m *Migrator) ReconcilePaiements(ctx context.Context) (MigrationReport, error) {
	paiements := m.store.Collection(store.Paiements)
	factures := m.store.Collection(store.Factures)
	docs, err := paiements.GetAll(ctx)
	if err != nil {
		return MigrationReport{Collection: store.Paiements}, err
	}
	report := MigrationReport{Collection: store.Paiements, Total: len(docs)}
	for _, doc := range docs {
		invoiceStudent := ""
		if ids := models.PaiementFromDocument(doc).FactureIDs; len(ids) > 0 {
			if fdoc, err := factures.Get(ctx, ids[0]); err == nil {
				invoiceStudent = models.FactureFromDocument(fdoc).EtudiantID
			} else {
				log.Printf("reconcile paiements: facture %s inaccessible: %v", ids[0], err)
			}
		}
		patch, flags := ReconcilePayment(doc, invoiceStudent)
		m.apply(ctx, paiements, doc.ID(), patch, flags, &report)
	}
	return report, nil
}

func (m *Migrator) apply(ctx context.Context, col *store.Collection, id string, patch store.Document, flags map[string]string, report *MigrationReport) {
	if len(flags) > 0 {
		report.Flagged++
		log.Printf("reconcile %s: record %s flagged: %v", col.Name(), id, flags)
	}
	if patch == nil {
		if len(flags) == 0 {
			report.Unchanged++
		}
		return
	}
	if err := col.Patch(ctx, id, patch); err != nil {
		report.Failed++
		report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", id, err))
		return
	}
	report.Patched++
}
