package models

import (
	"time"

	"github.com/chaima229/fraisScolaire-backend-sub001/internal/store"
	"github.com/chaima229/fraisScolaire-backend-sub001/validation"
)

// Facture is the strict canonical view of an invoice document. Amount
// fields hold true numbers; the raw document may still carry legacy string
// values until reconciliation converges them.
type Facture struct {
	ID             string    `json:"id"`
	EtudiantID     string    `json:"etudiant_id"`
	Numero         string    `json:"numero"`
	DateEmission   time.Time `json:"date_emission"`
	MontantTotal   float64   `json:"montant_total"`
	MontantPaye    float64   `json:"montant_paye"`
	MontantRestant float64   `json:"montant_restant"`
	Statut         string    `json:"statut"`
}

// FactureFromDocument builds the tolerant typed view of a raw record.
// Legacy aliases fill in for missing canonical fields; unparseable amounts
// read as zero (reconciliation reports them, this view never guesses).
func FactureFromDocument(doc store.Document) Facture {
	f := Facture{
		ID:         doc.ID(),
		EtudiantID: docString(doc, FieldEtudiantID),
		Numero:     docString(doc, FieldNumero),
		Statut:     docString(doc, FieldStatut),
	}
	if f.EtudiantID == "" {
		f.EtudiantID = docString(doc, FieldStudentIDAlias)
	}
	if f.Numero == "" {
		f.Numero = docString(doc, FieldNumeroAlias)
	}
	f.MontantTotal = docNumber(doc, FieldMontantTotal)
	f.MontantPaye = docNumber(doc, FieldMontantPaye)
	f.MontantRestant = docNumber(doc, FieldMontantRestant)
	f.DateEmission = docTime(doc, FieldDateEmission)
	return f
}

// ToDocument renders the canonical document, legacy aliases kept in sync
// so older consumers keep reading consistent values.
func (f Facture) ToDocument() store.Document {
	doc := store.Document{
		FieldEtudiantID:     f.EtudiantID,
		FieldStudentIDAlias: f.EtudiantID,
		FieldNumero:         f.Numero,
		FieldNumeroAlias:    f.Numero,
		FieldMontantTotal:   f.MontantTotal,
		FieldMontantPaye:    f.MontantPaye,
		FieldMontantRestant: f.MontantRestant,
		FieldStatut:         f.Statut,
	}
	if !f.DateEmission.IsZero() {
		doc[FieldDateEmission] = f.DateEmission.Format(time.RFC3339)
	}
	return doc
}

func docString(doc store.Document, field string) string {
	s, _ := doc[field].(string)
	return s
}

func docNumber(doc store.Document, field string) float64 {
	v, ok := doc[field]
	if !ok {
		return 0
	}
	n, _, ok := validation.CoerceNumber(v)
	if !ok {
		return 0
	}
	return n
}

func docBool(doc store.Document, field string) bool {
	b, _ := doc[field].(bool)
	return b
}

func docTime(doc store.Document, field string) time.Time {
	switch v := doc[field].(type) {
	case time.Time:
		return v
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
		if t, err := time.Parse("2006-01-02", v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func docStringList(doc store.Document, field string) []string {
	switch v := doc[field].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
