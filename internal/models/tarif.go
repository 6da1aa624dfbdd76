package models

import (
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/store"
)

// Tarif is a named fee definition scoped to an academic year.
type Tarif struct {
	ID            string  `json:"id"`
	Nom           string  `json:"nom"`
	Montant       float64 `json:"montant"`
	Type          string  `json:"type"`
	AnneeScolaire string  `json:"annee_scolaire"`
	Actif         bool    `json:"actif"`
}

func TarifFromDocument(doc store.Document) Tarif {
	actif, _ := doc[FieldActif].(bool)
	return Tarif{
		ID:            doc.ID(),
		Nom:           docString(doc, FieldNom),
		Montant:       docNumber(doc, FieldTarifMontant),
		Type:          docString(doc, FieldTarifType),
		AnneeScolaire: docString(doc, FieldAnneeScolaire),
		Actif:         actif,
	}
}

func (t Tarif) ToDocument() store.Document {
	return store.Document{
		FieldNom:           t.Nom,
		FieldTarifMontant:  t.Montant,
		FieldTarifType:     t.Type,
		FieldAnneeScolaire: t.AnneeScolaire,
		FieldActif:         t.Actif,
	}
}
