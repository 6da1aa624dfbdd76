package models

import (
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/store"
)

// Paiement is the strict canonical view of a payment document. A payment
// can cover several invoices; FactureIDs is never empty on a valid record.
type Paiement struct {
	ID                  string   `json:"id"`
	QuiAPaye            string   `json:"qui_a_paye"`
	PayerUserID         string   `json:"payer_user_id,omitempty"`
	FactureIDs          []string `json:"facture_ids"`
	Montant             float64  `json:"montant"`
	Methode             string   `json:"methode"`
	StatutLitige        string   `json:"statut_litige,omitempty"`
	StatutRemboursement string   `json:"statut_remboursement,omitempty"`
}

// PaiementFromDocument builds the tolerant typed view of a raw record,
// legacy aliases filling in for missing canonical fields.
func PaiementFromDocument(doc store.Document) Paiement {
	p := Paiement{
		ID:                  doc.ID(),
		QuiAPaye:            docString(doc, FieldQuiAPaye),
		PayerUserID:         docString(doc, FieldPayerUserID),
		FactureIDs:          docStringList(doc, FieldFactureIDs),
		Methode:             docString(doc, FieldMethode),
		StatutLitige:        docString(doc, FieldStatutLitige),
		StatutRemboursement: docString(doc, FieldStatutRembour),
	}
	if p.Methode == "" {
		p.Methode = docString(doc, FieldModeAlias)
	}
	p.Montant = docNumber(doc, FieldMontant)
	return p
}

// ToDocument renders the canonical document with the legacy mode alias
// kept in sync.
func (p Paiement) ToDocument() store.Document {
	ids := make([]any, 0, len(p.FactureIDs))
	for _, id := range p.FactureIDs {
		ids = append(ids, id)
	}
	doc := store.Document{
		FieldQuiAPaye:   p.QuiAPaye,
		FieldFactureIDs: ids,
		FieldMontant:    p.Montant,
		FieldMethode:    p.Methode,
		FieldModeAlias:  p.Methode,
	}
	if p.PayerUserID != "" {
		doc[FieldPayerUserID] = p.PayerUserID
	}
	if p.StatutLitige != "" {
		doc[FieldStatutLitige] = p.StatutLitige
	}
	if p.StatutRemboursement != "" {
		doc[FieldStatutRembour] = p.StatutRemboursement
	}
	return doc
}

// ValidMethode reports whether m is a recognized payment channel.
func ValidMethode(m string) bool {
	switch m {
	case MethodeEspeces, MethodeCheque, MethodeVirement, MethodeEnLigne:
		return true
	}
	return false
}
