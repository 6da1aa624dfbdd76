package models

import (
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/store"
)

// Etudiant is a student record.
type Etudiant struct {
	ID       string `json:"id"`
	Nom      string `json:"nom"`
	Prenom   string `json:"prenom"`
	ClasseID string `json:"classe_id,omitempty"`
	ParentID string `json:"parent_id,omitempty"`
	BourseID string `json:"bourse_id,omitempty"`
}

func EtudiantFromDocument(doc store.Document) Etudiant {
	return Etudiant{
		ID:       doc.ID(),
		Nom:      docString(doc, "nom"),
		Prenom:   docString(doc, "prenom"),
		ClasseID: docString(doc, "classe_id"),
		ParentID: docString(doc, "parent_id"),
		BourseID: docString(doc, "bourse_id"),
	}
}

func (e Etudiant) ToDocument() store.Document {
	doc := store.Document{
		"nom":    e.Nom,
		"prenom": e.Prenom,
	}
	if e.ClasseID != "" {
		doc["classe_id"] = e.ClasseID
	}
	if e.ParentID != "" {
		doc["parent_id"] = e.ParentID
	}
	if e.BourseID != "" {
		doc["bourse_id"] = e.BourseID
	}
	return doc
}

// Bourse is a scholarship: a percentage discount on the initial invoice.
type Bourse struct {
	ID          string  `json:"id"`
	Nom         string  `json:"nom"`
	Pourcentage float64 `json:"pourcentage"`
}

func BourseFromDocument(doc store.Document) Bourse {
	return Bourse{
		ID:          doc.ID(),
		Nom:         docString(doc, "nom"),
		Pourcentage: docNumber(doc, "pourcentage"),
	}
}
