package services

import (
	"context"
	"fmt"

	"github.com/chaima229/fraisScolaire-backend-sub001/internal/models"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/store"
	"github.com/chaima229/fraisScolaire-backend-sub001/validation"
)

// PaiementService applies payments to invoices. No multi-document
// transaction is available: each invoice patch is an independent write and
// the two records converge eventually; reconciliation tolerates observing
// one updated without the other.
type PaiementService struct {
	factures  *store.Collection
	paiements *store.Collection
}

func NewPaiementService(s *store.Store) *PaiementService {
	return &PaiementService{
		factures:  s.Collection(store.Factures),
		paiements: s.Collection(store.Paiements),
	}
}

// Appliquer validates a payment, allocates its amount across the linked
// invoices in order, updates each invoice's paid/remaining/status fields
// and records the payment. A payment may never push an invoice's remaining
// amount below zero; an amount exceeding the combined remaining balance is
// rejected before any write happens.
func (s *PaiementService) Appliquer(ctx context.Context, p models.Paiement) (models.Paiement, validation.Violations, error) {
	v := validation.Violations{}
	validation.Required(models.FieldQuiAPaye, p.QuiAPaye, v)
	validation.PositiveFloat(models.FieldMontant, p.Montant, v)
	validation.NonEmptyList(models.FieldFactureIDs, p.FactureIDs, v)
	if p.Methode != "" && !models.ValidMethode(p.Methode) {
		v[models.FieldMethode] = "invalid_methode"
	}
	if !v.Empty() {
		return models.Paiement{}, v, nil
	}

	// re-fetch every linked invoice; this layer never trusts cached state
	factures := make([]models.Facture, 0, len(p.FactureIDs))
	for _, id := range p.FactureIDs {
		doc, err := s.factures.Get(ctx, id)
		if err != nil {
			return models.Paiement{}, nil, fmt.Errorf("facture %s: %w", id, err)
		}
		factures = append(factures, models.FactureFromDocument(doc))
	}

	var totalRestant float64
	for _, f := range factures {
		_, restant := ComputeInvoiceStatus(f.MontantTotal, f.MontantPaye)
		totalRestant += restant
	}
	if p.Montant > totalRestant+1e-9 {
		v[models.FieldMontant] = "exceeds_remaining"
		return models.Paiement{}, v, nil
	}

	reste := p.Montant
	for _, f := range factures {
		if reste <= 0 {
			break
		}
		_, restant := ComputeInvoiceStatus(f.MontantTotal, f.MontantPaye)
		alloc := restant
		if reste < alloc {
			alloc = reste
		}
		if alloc <= 0 {
			continue
		}
		paye := f.MontantPaye + alloc
		statut, nouveauRestant := ComputeInvoiceStatus(f.MontantTotal, paye)
		patch := store.Document{
			models.FieldMontantPaye:    paye,
			models.FieldMontantRestant: nouveauRestant,
			models.FieldStatut:         statut,
		}
		if err := s.factures.Patch(ctx, f.ID, finishPatch(patch)); err != nil {
			// partial application: already-patched invoices stay consistent
			// on their own; the caller retries with the leftover amount
			return models.Paiement{}, nil, fmt.Errorf("facture %s: %w", f.ID, err)
		}
		reste -= alloc
	}

	id, err := s.paiements.Add(ctx, p.ToDocument())
	if err != nil {
		return models.Paiement{}, nil, fmt.Errorf("enregistrement paiement: %w", err)
	}
	p.ID = id
	return p, nil, nil
}
