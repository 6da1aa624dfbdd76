package services

import (
	"testing"

	"github.com/chaima229/fraisScolaire-backend-sub001/internal/models"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/store"
)

func applyPatch(doc, patch store.Document) store.Document {
	out := doc.Clone()
	for k, v := range patch {
		out[k] = v
	}
	return out
}

func TestReconcileInvoiceLegacyStudentAlias(t *testing.T) {
	doc := store.Document{
		"id":                       "f1",
		models.FieldStudentIDAlias: "S1",
		models.FieldNumero:         "FAC-001",
		models.FieldNumeroAlias:    "FAC-001",
		models.FieldMontantTotal:   1500.0,
	}
	patch, flags := ReconcileInvoice(doc)
	if !flags.Empty() {
		t.Fatalf("unexpected flags: %v", flags)
	}
	if patch == nil {
		t.Fatalf("expected a patch")
	}
	if patch[models.FieldEtudiantID] != "S1" {
		t.Fatalf("expected etudiant_id=S1, got %v", patch[models.FieldEtudiantID])
	}
	if _, ok := patch[models.FieldUpdatedAt]; !ok {
		t.Fatalf("patch must carry updated_at")
	}
	// the legacy alias is copied, never removed
	if _, ok := patch[models.FieldStudentIDAlias]; ok {
		t.Fatalf("legacy alias must not be touched")
	}
}

func TestReconcileInvoiceSynthesizedNumero(t *testing.T) {
	doc := store.Document{
		"id":                     "abcdef123456",
		models.FieldEtudiantID:   "S1",
		models.FieldMontantTotal: 1000.0,
	}
	patch, _ := ReconcileInvoice(doc)
	if patch == nil {
		t.Fatalf("expected a patch")
	}
	if patch[models.FieldNumero] != "MIG-123456" {
		t.Fatalf("expected numero MIG-123456, got %v", patch[models.FieldNumero])
	}
	if patch[models.FieldNumeroAlias] != "MIG-123456" {
		t.Fatalf("expected numero_facture MIG-123456, got %v", patch[models.FieldNumeroAlias])
	}
}

func TestReconcileInvoiceNumericCoercion(t *testing.T) {
	doc := store.Document{
		"id":                     "f2",
		models.FieldEtudiantID:   "S1",
		models.FieldNumero:       "FAC-002",
		models.FieldNumeroAlias:  "FAC-002",
		models.FieldMontantTotal: "1500",
	}
	patch, flags := ReconcileInvoice(doc)
	if !flags.Empty() {
		t.Fatalf("unexpected flags: %v", flags)
	}
	got, ok := patch[models.FieldMontantTotal].(float64)
	if !ok || got != 1500 {
		t.Fatalf("expected montant_total=1500 (number), got %#v", patch[models.FieldMontantTotal])
	}
}

func TestReconcileInvoiceUnparseableAmountFlagged(t *testing.T) {
	doc := store.Document{
		"id":                     "f3",
		models.FieldEtudiantID:   "S1",
		models.FieldNumero:       "FAC-003",
		models.FieldNumeroAlias:  "FAC-003",
		models.FieldMontantTotal: "abc",
	}
	patch, flags := ReconcileInvoice(doc)
	if flags[models.FieldMontantTotal] != "invalid_number" {
		t.Fatalf("expected invalid_number flag, got %v", flags)
	}
	if patch != nil {
		if _, ok := patch[models.FieldMontantTotal]; ok {
			t.Fatalf("unparseable amount must stay untouched")
		}
	}
	// original value preserved on the record
	if doc[models.FieldMontantTotal] != "abc" {
		t.Fatalf("input mutated")
	}
}

func TestReconcileInvoiceIdempotent(t *testing.T) {
	doc := store.Document{
		"id":                       "abcdef123456",
		models.FieldStudentIDAlias: "S1",
		models.FieldMontantTotal:   "1500",
	}
	patch, _ := ReconcileInvoice(doc)
	if patch == nil {
		t.Fatalf("expected first patch")
	}
	again, flags := ReconcileInvoice(applyPatch(doc, patch))
	if again != nil {
		t.Fatalf("second reconciliation must be a no-op, got %v", again)
	}
	if !flags.Empty() {
		t.Fatalf("unexpected flags on canonical record: %v", flags)
	}
}

func TestReconcileInvoiceCanonicalIsNoop(t *testing.T) {
	doc := store.Document{
		"id":                       "f4",
		models.FieldEtudiantID:     "S1",
		models.FieldNumero:         "FAC-004",
		models.FieldNumeroAlias:    "FAC-004",
		models.FieldMontantTotal:   900.0,
		models.FieldMontantPaye:    100.0,
		models.FieldMontantRestant: 800.0,
		models.FieldStatut:         models.StatutPartiellement,
	}
	patch, flags := ReconcileInvoice(doc)
	if patch != nil || !flags.Empty() {
		t.Fatalf("expected no-op, got patch=%v flags=%v", patch, flags)
	}
}

func TestReconcileInvoiceRecomputesDerivedFields(t *testing.T) {
	// stale derived fields from an older write must follow the amounts
	doc := store.Document{
		"id":                       "f5",
		models.FieldEtudiantID:     "S1",
		models.FieldNumero:         "FAC-005",
		models.FieldNumeroAlias:    "FAC-005",
		models.FieldMontantTotal:   "1500",
		models.FieldMontantPaye:    500.0,
		models.FieldMontantRestant: 9999.0,
		models.FieldStatut:         models.StatutPayee,
	}
	patch, flags := ReconcileInvoice(doc)
	if !flags.Empty() {
		t.Fatalf("unexpected flags: %v", flags)
	}
	if got, ok := patch[models.FieldMontantRestant].(float64); !ok || got != 1000 {
		t.Fatalf("expected montant_restant=1000, got %#v", patch[models.FieldMontantRestant])
	}
	if patch[models.FieldStatut] != models.StatutPartiellement {
		t.Fatalf("expected statut partiellement_payee, got %v", patch[models.FieldStatut])
	}

	again, _ := ReconcileInvoice(applyPatch(doc, patch))
	if again != nil {
		t.Fatalf("second reconciliation must be a no-op, got %v", again)
	}
}

func TestReconcileInvoiceDerivedFieldsSkippedOnBadAmount(t *testing.T) {
	doc := store.Document{
		"id":                       "f6",
		models.FieldEtudiantID:     "S1",
		models.FieldNumero:         "FAC-006",
		models.FieldNumeroAlias:    "FAC-006",
		models.FieldMontantTotal:   "abc",
		models.FieldMontantPaye:    100.0,
		models.FieldMontantRestant: 9999.0,
		models.FieldStatut:         models.StatutPayee,
	}
	patch, flags := ReconcileInvoice(doc)
	if flags[models.FieldMontantTotal] != "invalid_number" {
		t.Fatalf("expected invalid_number flag, got %v", flags)
	}
	// an untrustworthy total must not produce guessed derived values
	if patch != nil {
		if _, ok := patch[models.FieldMontantRestant]; ok {
			t.Fatalf("montant_restant must not be derived from a corrupt total")
		}
		if _, ok := patch[models.FieldStatut]; ok {
			t.Fatalf("statut must not be derived from a corrupt total")
		}
	}
}

func TestReconcileInvoiceNumeroDivergenceConverges(t *testing.T) {
	doc := store.Document{
		"id":                       "f7",
		models.FieldEtudiantID:     "S1",
		models.FieldNumero:         "FAC-NEW",
		models.FieldNumeroAlias:    "FAC-OLD",
		models.FieldMontantTotal:   100.0,
		models.FieldMontantRestant: 100.0,
		models.FieldStatut:         models.StatutImpayee,
	}
	patch, flags := ReconcileInvoice(doc)
	if !flags.Empty() {
		t.Fatalf("unexpected flags: %v", flags)
	}
	if patch[models.FieldNumeroAlias] != "FAC-NEW" {
		t.Fatalf("expected alias to follow canonical numero, got %v", patch[models.FieldNumeroAlias])
	}
	if _, ok := patch[models.FieldNumero]; ok {
		t.Fatalf("canonical numero must stay untouched")
	}

	again, _ := ReconcileInvoice(applyPatch(doc, patch))
	if again != nil {
		t.Fatalf("second reconciliation must be a no-op, got %v", again)
	}
}

func TestReconcilePaymentPreservesOriginalPayer(t *testing.T) {
	doc := store.Document{
		"id":                   "p1",
		models.FieldQuiAPaye:   "U1",
		models.FieldFactureIDs: []any{"f1"},
		models.FieldMontant:    200.0,
		models.FieldMethode:    models.MethodeEspeces,
	}
	patch, flags := ReconcilePayment(doc, "S1")
	if !flags.Empty() {
		t.Fatalf("unexpected flags: %v", flags)
	}
	// both moves in one observed patch: original payer is never unrecoverable
	if patch[models.FieldPayerUserID] != "U1" {
		t.Fatalf("expected payer_user_id=U1, got %v", patch[models.FieldPayerUserID])
	}
	if patch[models.FieldQuiAPaye] != "S1" {
		t.Fatalf("expected qui_a_paye=S1, got %v", patch[models.FieldQuiAPaye])
	}
}

func TestReconcilePaymentSecondDivergenceReported(t *testing.T) {
	doc := store.Document{
		"id":                    "p2",
		models.FieldQuiAPaye:    "U2",
		models.FieldPayerUserID: "U1",
		models.FieldFactureIDs:  []any{"f1"},
		models.FieldMontant:     200.0,
		models.FieldMethode:     models.MethodeVirement,
	}
	patch, flags := ReconcilePayment(doc, "S1")
	if flags[models.FieldQuiAPaye] != "payer_divergence" {
		t.Fatalf("expected payer_divergence flag, got %v", flags)
	}
	if patch != nil {
		if _, ok := patch[models.FieldPayerUserID]; ok {
			t.Fatalf("preserved payer must stay immutable")
		}
		if _, ok := patch[models.FieldQuiAPaye]; ok {
			t.Fatalf("divergent payer must not be overwritten again")
		}
	}
}

func TestReconcilePaymentMethodAliasAndAmount(t *testing.T) {
	doc := store.Document{
		"id":                   "p3",
		models.FieldQuiAPaye:   "S1",
		models.FieldFactureIDs: []any{"f1"},
		models.FieldMontant:    "250",
		models.FieldModeAlias:  models.MethodeCheque,
	}
	patch, flags := ReconcilePayment(doc, "S1")
	if !flags.Empty() {
		t.Fatalf("unexpected flags: %v", flags)
	}
	if patch[models.FieldMethode] != models.MethodeCheque {
		t.Fatalf("expected methode copied from mode, got %v", patch[models.FieldMethode])
	}
	if got, ok := patch[models.FieldMontant].(float64); !ok || got != 250 {
		t.Fatalf("expected montant=250 (number), got %#v", patch[models.FieldMontant])
	}

	again, _ := ReconcilePayment(applyPatch(doc, patch), "S1")
	if again != nil {
		t.Fatalf("second reconciliation must be a no-op, got %v", again)
	}
}

func TestReconcilePaymentSkipsPayerRuleWithoutInvoice(t *testing.T) {
	doc := store.Document{
		"id":                   "p4",
		models.FieldQuiAPaye:   "U1",
		models.FieldFactureIDs: []any{"f-gone"},
		models.FieldMontant:    100.0,
		models.FieldMethode:    models.MethodeEnLigne,
	}
	patch, flags := ReconcilePayment(doc, "")
	if patch != nil {
		t.Fatalf("expected no patch when the invoice is unobservable, got %v", patch)
	}
	if !flags.Empty() {
		t.Fatalf("unexpected flags: %v", flags)
	}
}

func TestReconcilePaymentEmptyFactureIDsFlagged(t *testing.T) {
	doc := store.Document{
		"id":                 "p5",
		models.FieldQuiAPaye: "S1",
		models.FieldMontant:  100.0,
		models.FieldMethode:  models.MethodeEspeces,
	}
	_, flags := ReconcilePayment(doc, "S1")
	if flags[models.FieldFactureIDs] != "required" {
		t.Fatalf("expected facture_ids required flag, got %v", flags)
	}
}

func TestComputeInvoiceStatus(t *testing.T) {
	cases := []struct {
		total, paid float64
		statut      string
		restant     float64
	}{
		{1000, 0, models.StatutImpayee, 1000},
		{1000, -5, models.StatutImpayee, 1005},
		{1000, 400, models.StatutPartiellement, 600},
		{1000, 1000, models.StatutPayee, 0},
		{1000, 1000.01, models.StatutPayee, 0}, // rounding overshoot clamps to 0
		{0, 0, models.StatutImpayee, 0},
	}
	for _, c := range cases {
		statut, restant := ComputeInvoiceStatus(c.total, c.paid)
		if statut != c.statut || restant != c.restant {
			t.Fatalf("ComputeInvoiceStatus(%v,%v) = %s,%v; want %s,%v",
				c.total, c.paid, statut, restant, c.statut, c.restant)
		}
	}
}
