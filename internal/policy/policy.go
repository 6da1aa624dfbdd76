// Package policy wires the role rules into a gate instance. The subject is
// the authenticated token's claims; rules only look at the role.
package policy

import (
	"context"
	"net/http"

	"github.com/chaima229/fraisScolaire-backend-sub001/auth"
	"github.com/chaima229/fraisScolaire-backend-sub001/gate"
	"github.com/chaima229/fraisScolaire-backend-sub001/httpx"
	"github.com/chaima229/fraisScolaire-backend-sub001/i18n"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/models"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/store"
)

// Migration is the resource type guarding the batch reconciliation runs.
const Migration = "migration"

// New builds the application gate:
//   - admin: everything
//   - comptable: full access to billing collections, read elsewhere,
//     no tariff writes, no migration runs
//   - parent: read access plus payment creation
func New() *gate.Gate[*auth.Claims] {
	g := gate.NewGate[*auth.Claims]()

	adminWrites := gate.PolicyFunc[*auth.Claims](func(_ context.Context, u *auth.Claims, action gate.Action, _ any) bool {
		if u.Role == models.RoleAdmin {
			return true
		}
		return action == gate.ActionView || action == gate.ActionList
	})

	billing := gate.PolicyFunc[*auth.Claims](func(_ context.Context, u *auth.Claims, action gate.Action, _ any) bool {
		switch u.Role {
		case models.RoleAdmin, models.RoleComptable:
			return true
		default:
			return action == gate.ActionView || action == gate.ActionList
		}
	})

	paiements := gate.PolicyFunc[*auth.Claims](func(_ context.Context, u *auth.Claims, action gate.Action, _ any) bool {
		switch u.Role {
		case models.RoleAdmin, models.RoleComptable:
			return true
		default:
			// parents pay their own invoices
			return action == gate.ActionCreate || action == gate.ActionView || action == gate.ActionList
		}
	})

	adminOnly := gate.PolicyFunc[*auth.Claims](func(_ context.Context, u *auth.Claims, _ gate.Action, _ any) bool {
		return u.Role == models.RoleAdmin
	})

	g.Register(store.Factures, billing)
	g.Register(store.Paiements, paiements)
	g.Register(store.Etudiants, billing)
	g.Register(store.Parents, billing)
	g.Register(store.Classes, billing)
	g.Register(store.Bourses, billing)
	g.Register(store.Tarifs, adminWrites)
	g.Register(store.Users, adminOnly)
	g.Register(Migration, adminOnly)

	return g
}

// Require returns middleware rejecting requests whose authenticated role
// is not allowed to perform action on resourceType. It assumes RequireAuth
// already ran.
func Require(g *gate.Gate[*auth.Claims], action gate.Action, resourceType string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := auth.ClaimsFromContext(r.Context())
			if !ok {
				lang := i18n.DetectLanguage(r.Header.Get("Accept-Language"))
				httpx.JSONErrorMsg(w, http.StatusUnauthorized, "unauthorized", i18n.T(lang, "unauthorized"), nil)
				return
			}
			if !g.Can(r.Context(), claims, action, resourceType, nil) {
				lang := i18n.DetectLanguage(r.Header.Get("Accept-Language"))
				httpx.JSONErrorMsg(w, http.StatusForbidden, "forbidden", i18n.T(lang, "forbidden"), nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
