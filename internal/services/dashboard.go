package services

import (
	"context"

	"github.com/chaima229/fraisScolaire-backend-sub001/internal/models"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/store"
)

// DashboardService aggregates counts and revenue figures for the admin
// dashboard. Every call re-reads the store; nothing is cached.
type DashboardService struct {
	store *store.Store
}

func NewDashboardService(s *store.Store) *DashboardService {
	return &DashboardService{store: s}
}

type DashboardStats struct {
	Etudiants        int     `json:"etudiants"`
	Factures         int     `json:"factures"`
	Paiements        int     `json:"paiements"`
	MontantFacture   float64 `json:"montant_facture"`
	MontantEncaisse  float64 `json:"montant_encaisse"`
	MontantRestant   float64 `json:"montant_restant"`
	FacturesImpayees int     `json:"factures_impayees"`
}

func (s *DashboardService) Stats(ctx context.Context) (DashboardStats, error) {
	var stats DashboardStats

	etudiants, err := s.store.Collection(store.Etudiants).GetAll(ctx)
	if err != nil {
		return stats, err
	}
	stats.Etudiants = len(etudiants)

	factures, err := s.store.Collection(store.Factures).GetAll(ctx)
	if err != nil {
		return stats, err
	}
	stats.Factures = len(factures)
	for _, doc := range factures {
		f := models.FactureFromDocument(doc)
		stats.MontantFacture += f.MontantTotal
		stats.MontantEncaisse += f.MontantPaye
		_, restant := ComputeInvoiceStatus(f.MontantTotal, f.MontantPaye)
		stats.MontantRestant += restant
		if f.Statut == models.StatutImpayee || f.Statut == "" {
			stats.FacturesImpayees++
		}
	}

	paiements, err := s.store.Collection(store.Paiements).GetAll(ctx)
	if err != nil {
		return stats, err
	}
	stats.Paiements = len(paiements)

	return stats, nil
}
