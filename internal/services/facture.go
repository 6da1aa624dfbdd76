package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chaima229/fraisScolaire-backend-sub001/internal/models"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/store"
)

// FactureService issues invoices.
type FactureService struct {
	factures *store.Collection
	bourses  *store.Collection
	tarifs   *TarifService
}

func NewFactureService(s *store.Store) *FactureService {
	return &FactureService{
		factures: s.Collection(store.Factures),
		bourses:  s.Collection(store.Bourses),
		tarifs:   NewTarifService(s),
	}
}

// CreerInitiale issues the enrollment invoice for a freshly created
// student. The amount defaults to the active Scolarité tariffs for the
// year, reduced by the student's scholarship percentage when one is linked.
func (s *FactureService) CreerInitiale(ctx context.Context, etudiant models.Etudiant, annee string) (models.Facture, error) {
	montant, err := s.tarifs.MontantScolarite(ctx, annee)
	if err != nil {
		return models.Facture{}, err
	}
	if etudiant.BourseID != "" {
		doc, err := s.bourses.Get(ctx, etudiant.BourseID)
		if err != nil {
			return models.Facture{}, fmt.Errorf("bourse %s: %w", etudiant.BourseID, err)
		}
		montant = AppliquerBourse(montant, models.BourseFromDocument(doc).Pourcentage)
	}

	statut, restant := ComputeInvoiceStatus(montant, 0)
	f := models.Facture{
		EtudiantID:     etudiant.ID,
		Numero:         nouveauNumero(),
		DateEmission:   time.Now().UTC(),
		MontantTotal:   montant,
		MontantPaye:    0,
		MontantRestant: restant,
		Statut:         statut,
	}
	id, err := s.factures.Add(ctx, f.ToDocument())
	if err != nil {
		return models.Facture{}, err
	}
	f.ID = id
	return f, nil
}

// nouveauNumero builds a human readable invoice number. The MIG- prefix is
// reserved for numbers synthesized during migration.
func nouveauNumero() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "FAC-" + strings.ToUpper(raw[:8])
}
