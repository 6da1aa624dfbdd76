package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/chaima229/fraisScolaire-backend-sub001/auth"
	"github.com/chaima229/fraisScolaire-backend-sub001/gate"
	"github.com/chaima229/fraisScolaire-backend-sub001/httpx"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/handlers"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/middleware"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/policy"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/services"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/store"
)

// Options tunes the optional parts of the router.
type Options struct {
	// Monitor, when set, wraps the handler with request/error counting.
	Monitor *middleware.Monitor
}

// New constructs the root http.Handler with all routes and middlewares
// applied.
func New(st *store.Store, opts Options) http.Handler {
	mux := http.NewServeMux()

	// RequireAuth double-checks that the token's user still exists.
	auth.SetUserVerifier(func(ctx context.Context, uid string) bool {
		_, err := st.Collection(store.Users).Get(ctx, uid)
		if err == nil {
			return true
		}
		// store outage must not log everyone out
		return !errors.Is(err, store.ErrNotFound)
	})

	g := policy.New()
	migrator := services.NewMigrator(st)

	health := &handlers.HealthHandler{Store: st}
	mux.HandleFunc("/health", health.Live)
	mux.HandleFunc("/healthz", health.Ready)

	authHandler := &handlers.AuthHandler{Store: st}
	mux.Handle("/auth/signup", post(authHandler.Signup))
	mux.Handle("/auth/login", post(authHandler.Login))
	mux.Handle("/auth/me", secured(get(authHandler.Me)))
	mux.Handle("/users", secured(policy.Require(g, gate.ActionList, store.Users)(get(authHandler.ListUsers))))

	fh := &handlers.FactureHandler{Store: st, Migrator: migrator}
	registerCollection(mux, g, "/factures", store.Factures, crud{
		list: fh.List, get: fh.Get, create: fh.Create, update: fh.Update, del: fh.Delete,
	})
	mux.Handle("/factures/reconcile", secured(policy.Require(g, gate.ActionUpdate, policy.Migration)(post(fh.Reconcile))))

	ph := &handlers.PaiementHandler{Store: st, Paiements: services.NewPaiementService(st), Migrator: migrator}
	registerCollection(mux, g, "/paiements", store.Paiements, crud{
		list: ph.List, get: ph.Get, create: ph.Create,
	})
	mux.Handle("/paiements/reconcile", secured(policy.Require(g, gate.ActionUpdate, policy.Migration)(post(ph.Reconcile))))

	th := &handlers.TarifHandler{Store: st}
	registerCollection(mux, g, "/tarifs", store.Tarifs, crud{
		list: th.List, get: th.Get, create: th.Create, update: th.Update, del: th.Delete,
	})

	eh := &handlers.EtudiantHandler{Store: st, Factures: services.NewFactureService(st)}
	registerCollection(mux, g, "/etudiants", store.Etudiants, crud{
		list: eh.List, get: eh.Get, create: eh.Create, update: eh.Update, del: eh.Delete,
	})

	for path, res := range map[string]*handlers.RessourceHandler{
		"/parents": {Store: st, Collection: store.Parents, Required: []string{"nom"}},
		"/classes": {Store: st, Collection: store.Classes, Required: []string{"nom"}},
		"/bourses": {Store: st, Collection: store.Bourses, Required: []string{"nom", "pourcentage"}, Check: handlers.CheckBourse},
	} {
		registerCollection(mux, g, path, res.Collection, crud{
			list: res.List, get: res.Get, create: res.Create, update: res.Update, del: res.Delete,
		})
	}

	dh := &handlers.DashboardHandler{Dashboard: services.NewDashboardService(st)}
	mux.Handle("/dashboard/stats", secured(get(dh.Stats)))

	var root http.Handler = mux
	if opts.Monitor != nil {
		root = opts.Monitor.Wrap(root)
	}
	return middleware.Recover(middleware.Logging(root))
}

// crud names the handlers a collection exposes; nil entries are skipped.
type crud struct {
	list   http.HandlerFunc
	get    http.HandlerFunc
	create http.HandlerFunc
	update http.HandlerFunc
	del    http.HandlerFunc
}

// registerCollection mounts a collection at base with the shared route
// shape: list/create on the base path, get/update/delete as sub-routes
// with the id in the query string. Every route requires auth; per-action
// role checks go through the gate.
func registerCollection(mux *http.ServeMux, g *gate.Gate[*auth.Claims], base, resource string, h crud) {
	mux.Handle(base, secured(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && h.list != nil:
			policy.Require(g, gate.ActionList, resource)(h.list).ServeHTTP(w, r)
		case r.Method == http.MethodPost && h.create != nil:
			policy.Require(g, gate.ActionCreate, resource)(h.create).ServeHTTP(w, r)
		default:
			w.Header().Set("Allow", "GET,POST")
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		}
	})))
	if h.get != nil {
		mux.Handle(base+"/get", secured(policy.Require(g, gate.ActionView, resource)(get(h.get))))
	}
	if h.update != nil {
		mux.Handle(base+"/update", secured(policy.Require(g, gate.ActionUpdate, resource)(methods(h.update, http.MethodPost, http.MethodPut, http.MethodPatch))))
	}
	if h.del != nil {
		mux.Handle(base+"/delete", secured(policy.Require(g, gate.ActionDelete, resource)(methods(h.del, http.MethodPost, http.MethodDelete))))
	}
}

func secured(next http.Handler) http.Handler {
	return auth.Middleware(auth.RequireAuth(next))
}

func get(h http.HandlerFunc) http.Handler {
	return methods(h, http.MethodGet)
}

func post(h http.HandlerFunc) http.Handler {
	return methods(h, http.MethodPost)
}

func methods(h http.HandlerFunc, allowed ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, m := range allowed {
			if r.Method == m {
				h(w, r)
				return
			}
		}
		allow := ""
		for i, m := range allowed {
			if i > 0 {
				allow += ","
			}
			allow += m
		}
		w.Header().Set("Allow", allow)
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	})
}
