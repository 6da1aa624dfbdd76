package policy

import (
	"context"
	"testing"

	"github.com/chaima229/fraisScolaire-backend-sub001/auth"
	"github.com/chaima229/fraisScolaire-backend-sub001/gate"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/models"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/store"
)

func TestRoleMatrix(t *testing.T) {
	g := New()
	ctx := context.Background()
	admin := &auth.Claims{UserID: "u1", Role: models.RoleAdmin}
	comptable := &auth.Claims{UserID: "u2", Role: models.RoleComptable}
	parent := &auth.Claims{UserID: "u3", Role: models.RoleParent}

	cases := []struct {
		name     string
		user     *auth.Claims
		action   gate.Action
		resource string
		want     bool
	}{
		{"admin creates tarif", admin, gate.ActionCreate, store.Tarifs, true},
		{"comptable cannot create tarif", comptable, gate.ActionCreate, store.Tarifs, false},
		{"parent reads tarifs", parent, gate.ActionList, store.Tarifs, true},
		{"comptable updates facture", comptable, gate.ActionUpdate, store.Factures, true},
		{"parent cannot update facture", parent, gate.ActionUpdate, store.Factures, false},
		{"parent views facture", parent, gate.ActionView, store.Factures, true},
		{"parent creates paiement", parent, gate.ActionCreate, store.Paiements, true},
		{"parent cannot delete paiement", parent, gate.ActionDelete, store.Paiements, false},
		{"admin runs migration", admin, gate.ActionUpdate, Migration, true},
		{"comptable cannot run migration", comptable, gate.ActionUpdate, Migration, false},
		{"comptable cannot list users", comptable, gate.ActionList, store.Users, false},
	}
	for _, tc := range cases {
		if got := g.Can(ctx, tc.user, tc.action, tc.resource, nil); got != tc.want {
			t.Errorf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestUnknownResourceDenied(t *testing.T) {
	g := New()
	admin := &auth.Claims{UserID: "u1", Role: models.RoleAdmin}
	if g.Can(context.Background(), admin, gate.ActionView, "inconnu", nil) {
		t.Fatalf("expected deny for unregistered resource")
	}
}
