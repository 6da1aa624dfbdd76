// Package models defines the typed views of the stored documents and the
// wire field names, canonical and legacy. Records were written by several
// schema generations; both spellings of an aliased field stay readable
// indefinitely, the reconciliation layer only converges their values.
package models

// Invoice (factures) fields.
const (
	FieldEtudiantID     = "etudiant_id" // canonical student reference
	FieldStudentIDAlias = "student_id"  // legacy spelling, kept readable
	FieldNumero         = "numero"      // canonical invoice number
	FieldNumeroAlias    = "numero_facture"
	FieldDateEmission   = "date_emission"
	FieldMontantTotal   = "montant_total"
	FieldMontantPaye    = "montant_paye"
	FieldMontantRestant = "montant_restant"
	FieldStatut         = "statut"
	FieldUpdatedAt      = "updated_at"
)

// Payment (paiements) fields.
const (
	FieldQuiAPaye      = "qui_a_paye"    // canonical payer (student of record)
	FieldPayerUserID   = "payer_user_id" // preserved original payer, write-once
	FieldFactureIDs    = "facture_ids"
	FieldMontant       = "montant"
	FieldMethode       = "methode" // canonical payment channel
	FieldModeAlias     = "mode"    // legacy spelling
	FieldStatutLitige  = "statut_litige"
	FieldStatutRembour = "statut_remboursement"
)

// Tariff (tarifs) fields.
const (
	FieldNom           = "nom"
	FieldTarifMontant  = "montant"
	FieldTarifType     = "type"
	FieldAnneeScolaire = "annee_scolaire"
	FieldActif         = "actif"
)

// Invoice statuses, derived from the amount fields.
const (
	StatutImpayee       = "impayee"
	StatutPartiellement = "partiellement_payee"
	StatutPayee         = "payee"
)

// Payment channels.
const (
	MethodeEspeces  = "espèces"
	MethodeCheque   = "chèque"
	MethodeVirement = "virement"
	MethodeEnLigne  = "en ligne"
)

// User roles.
const (
	RoleAdmin     = "admin"
	RoleComptable = "comptable"
	RoleParent    = "parent"
)

// Tariff names whose active sum defines a new student's initial invoice.
const (
	TarifTypeScolarite    = "Scolarité"
	TarifFraisInscription = "Frais Inscription"
	TarifFraisScolaire    = "Frais scolaire"
	NumeroMigrationPrefix = "MIG-"
)
