// Package services holds the business logic: field reconciliation across
// schema generations, payment application, tariff resolution, batch
// migration and dashboard aggregation. Functions here are pure over their
// inputs; callers apply the returned patches to the store.
package services

import (
	"math"
	"time"

	"github.com/chaima229/fraisScolaire-backend-sub001/internal/models"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/store"
	"github.com/chaima229/fraisScolaire-backend-sub001/validation"
)

// ReconcileInvoice inspects a raw invoice record written by any schema
// generation and returns the minimal patch converging it to the canonical
// shape, or nil when the record is already canonical. Violations carry
// permanent data errors (unparseable amounts) that must not be patched.
// Running the result through ReconcileInvoice again yields no patch.
func ReconcileInvoice(doc store.Document) (store.Document, validation.Violations) {
	patch := store.Document{}
	flags := validation.Violations{}

	// student reference: canonical absent, legacy alias present
	if stringField(doc, models.FieldEtudiantID) == "" {
		if legacy := stringField(doc, models.FieldStudentIDAlias); legacy != "" {
			patch[models.FieldEtudiantID] = legacy
		} else {
			flags[models.FieldEtudiantID] = "required"
		}
	}

	// invoice number: converge both spellings; synthesize deterministically
	// from the record id when neither generation wrote one
	numero := stringField(doc, models.FieldNumero)
	alias := stringField(doc, models.FieldNumeroAlias)
	switch {
	case numero == "" && alias != "":
		patch[models.FieldNumero] = alias
	case numero == "" && alias == "":
		n := models.NumeroMigrationPrefix + lastChars(doc.ID(), 6)
		patch[models.FieldNumero] = n
		patch[models.FieldNumeroAlias] = n
	case alias == "":
		patch[models.FieldNumeroAlias] = numero
	case alias != numero:
		// both generations wrote a number and they drifted apart; the
		// canonical spelling wins, the alias follows
		patch[models.FieldNumeroAlias] = numero
	}

	coerceAmount(doc, patch, flags, models.FieldMontantTotal)
	coerceAmount(doc, patch, flags, models.FieldMontantPaye)

	// derived fields: once the amounts are trustworthy, montant_restant and
	// statut must match what ComputeInvoiceStatus derives from them
	if flags[models.FieldMontantTotal] == "" && flags[models.FieldMontantPaye] == "" {
		if total, ok := effectiveAmount(doc, patch, models.FieldMontantTotal); ok {
			paye, _ := effectiveAmount(doc, patch, models.FieldMontantPaye)
			statut, restant := ComputeInvoiceStatus(total, paye)
			stored, numeric, parseable := validation.CoerceNumber(doc[models.FieldMontantRestant])
			if !parseable || !numeric || stored != restant {
				patch[models.FieldMontantRestant] = restant
			}
			if stringField(doc, models.FieldStatut) != statut {
				patch[models.FieldStatut] = statut
			}
		}
	}

	return finishPatch(patch), flags
}

// ReconcilePayment is the payment counterpart. invoiceStudent is the
// student reference of the linked invoice (external lookup done by the
// caller); pass "" when the invoice could not be observed — the payer rule
// is then skipped, tolerating eventual consistency between the two records.
func ReconcilePayment(doc store.Document, invoiceStudent string) (store.Document, validation.Violations) {
	patch := store.Document{}
	flags := validation.Violations{}

	// payer normalization: preserve the original payer once, in the same
	// patch that overwrites the canonical field. A second divergence after
	// payer_user_id is set is reported, never guessed.
	quiAPaye := stringField(doc, models.FieldQuiAPaye)
	if invoiceStudent != "" && quiAPaye != invoiceStudent {
		preserved := stringField(doc, models.FieldPayerUserID)
		switch {
		case preserved == "":
			if quiAPaye != "" {
				patch[models.FieldPayerUserID] = quiAPaye
			}
			patch[models.FieldQuiAPaye] = invoiceStudent
		default:
			flags[models.FieldQuiAPaye] = "payer_divergence"
		}
	}

	coerceAmount(doc, patch, flags, models.FieldMontant)

	// method alias: canonical absent, legacy mode present
	if stringField(doc, models.FieldMethode) == "" {
		if mode := stringField(doc, models.FieldModeAlias); mode != "" {
			patch[models.FieldMethode] = mode
		}
	}

	if listLen(doc[models.FieldFactureIDs]) == 0 {
		flags[models.FieldFactureIDs] = "required"
	}

	return finishPatch(patch), flags
}

// ComputeInvoiceStatus derives the status and the remaining amount from the
// two amount fields. The remainder is clamped at zero: an overpayment from
// rounding never produces a negative balance.
func ComputeInvoiceStatus(total, paid float64) (string, float64) {
	restant := total - paid
	if restant < 0 {
		restant = 0
	}
	switch {
	case paid <= 0:
		return models.StatutImpayee, restant
	case paid < total:
		return models.StatutPartiellement, restant
	default:
		return models.StatutPayee, restant
	}
}

// coerceAmount parses a legacy string amount into a true number. A value
// that does not parse (or parses to NaN/Inf) is left untouched and flagged;
// corrupting stored data is worse than leaving it legacy-shaped.
func coerceAmount(doc, patch store.Document, flags validation.Violations, field string) {
	val, ok := doc[field]
	if !ok || val == nil {
		return
	}
	n, numeric, parseable := validation.CoerceNumber(val)
	if !parseable || math.IsNaN(n) || math.IsInf(n, 0) {
		flags[field] = "invalid_number"
		return
	}
	if !numeric {
		patch[field] = n
	}
}

// effectiveAmount reads the post-patch numeric value of an amount field:
// the coerced patch value when one was produced, the stored value
// otherwise. ok is false when the field is absent or unparseable.
func effectiveAmount(doc, patch store.Document, field string) (float64, bool) {
	if v, ok := patch[field]; ok {
		n, _, parseable := validation.CoerceNumber(v)
		return n, parseable
	}
	v, ok := doc[field]
	if !ok || v == nil {
		return 0, false
	}
	n, _, parseable := validation.CoerceNumber(v)
	return n, parseable
}

// finishPatch stamps updated_at on a non-empty patch and collapses an
// empty one to nil so callers can test for "no change needed".
func finishPatch(patch store.Document) store.Document {
	if len(patch) == 0 {
		return nil
	}
	patch[models.FieldUpdatedAt] = time.Now().UTC().Format(time.RFC3339)
	return patch
}

func stringField(doc store.Document, field string) string {
	s, _ := doc[field].(string)
	return s
}

func listLen(v any) int {
	switch list := v.(type) {
	case []any:
		return len(list)
	case []string:
		return len(list)
	}
	return 0
}

func lastChars(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
