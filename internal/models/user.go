package models

import (
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/store"
)

// User is an application account. The bcrypt hash never leaves the store
// layer: the JSON view omits it.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Nom          string `json:"nom"`
	Prenom       string `json:"prenom"`
	Role         string `json:"role"`
	Actif        bool   `json:"actif"`
	PasswordHash string `json:"-"`
}

func UserFromDocument(doc store.Document) User {
	return User{
		ID:           doc.ID(),
		Email:        docString(doc, "email"),
		Nom:          docString(doc, "nom"),
		Prenom:       docString(doc, "prenom"),
		Role:         docString(doc, "role"),
		Actif:        docBool(doc, "actif"),
		PasswordHash: docString(doc, "password_hash"),
	}
}

func (u User) ToDocument() store.Document {
	return store.Document{
		"email":         u.Email,
		"nom":           u.Nom,
		"prenom":        u.Prenom,
		"role":          u.Role,
		"actif":         u.Actif,
		"password_hash": u.PasswordHash,
	}
}
