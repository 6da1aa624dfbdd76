package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/chaima229/fraisScolaire-backend-sub001/internal/models"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/store"
)

// ErrTarifManquant signals a missing active Scolarité tariff for the year.
var ErrTarifManquant = errors.New("tarif actif manquant")

type TarifService struct {
	tarifs *store.Collection
}

func NewTarifService(s *store.Store) *TarifService {
	return &TarifService{tarifs: s.Collection(store.Tarifs)}
}

// MontantScolarite returns the default amount due on a new student's
// initial invoice: the sum of the active "Frais Inscription" and
// "Frais scolaire" tariffs of type Scolarité for the academic year.
// Exactly one active tariff per name is expected; duplicates keep the
// first and are a data problem for the operator, not a guess to make here.
func (s *TarifService) MontantScolarite(ctx context.Context, annee string) (float64, error) {
	docs, err := s.tarifs.Query(ctx,
		store.Eq(models.FieldTarifType, models.TarifTypeScolarite),
		store.Eq(models.FieldAnneeScolaire, annee),
		store.Eq(models.FieldActif, true),
	)
	if err != nil {
		return 0, err
	}
	byNom := map[string]models.Tarif{}
	for _, doc := range docs {
		t := models.TarifFromDocument(doc)
		if _, seen := byNom[t.Nom]; !seen {
			byNom[t.Nom] = t
		}
	}
	inscription, ok := byNom[models.TarifFraisInscription]
	if !ok {
		return 0, fmt.Errorf("%w: %s (%s)", ErrTarifManquant, models.TarifFraisInscription, annee)
	}
	scolaire, ok := byNom[models.TarifFraisScolaire]
	if !ok {
		return 0, fmt.Errorf("%w: %s (%s)", ErrTarifManquant, models.TarifFraisScolaire, annee)
	}
	return inscription.Montant + scolaire.Montant, nil
}

// AppliquerBourse reduces an amount by a scholarship percentage, clamped
// to the 0..100 range.
func AppliquerBourse(montant, pourcentage float64) float64 {
	if pourcentage <= 0 {
		return montant
	}
	if pourcentage >= 100 {
		return 0
	}
	return montant * (1 - pourcentage/100)
}
