package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/chaima229/fraisScolaire-backend-sub001/auth"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/models"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/store"
)

func setupRouter(t *testing.T) (*store.Store, http.Handler) {
	t.Helper()
	dsn := fmt.Sprintf("file:srv_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&store.DocumentRow{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	fast := store.RetryOptions{MaxRetries: 2, Timeout: 2 * time.Second, RetryDelay: 5 * time.Millisecond, BackoffMultiplier: 2}
	st := store.NewWithOptions(db, fast, fast)
	return st, New(st, Options{})
}

func seedUser(t *testing.T, st *store.Store, email, role string) string {
	t.Helper()
	u := models.User{Email: email, Nom: "Test", Role: role, Actif: true}
	id, err := st.Collection(store.Users).Add(context.Background(), u.ToDocument())
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return id
}

func bearer(t *testing.T, uid, email, role string) string {
	t.Helper()
	token, err := auth.GenerateToken(uid, email, role)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return "Bearer " + token
}

func TestHealthEndpointsOpen(t *testing.T) {
	_, h := setupRouter(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("/health expected 200 got %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("/healthz expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"store":"ok"`) {
		t.Fatalf("expected store ok, got %s", w.Body.String())
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	_, h := setupRouter(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/factures", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", w.Code)
	}
}

func TestUnknownUserTokenRejected(t *testing.T) {
	_, h := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/factures", nil)
	req.Header.Set("Authorization", bearer(t, "disparu", "x@y.fr", models.RoleAdmin))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for deleted user got %d", w.Code)
	}
}

func TestRoleGateOnTarifWrites(t *testing.T) {
	st, h := setupRouter(t)
	parentID := seedUser(t, st, "parent@ex.fr", models.RoleParent)
	adminID := seedUser(t, st, "admin@ex.fr", models.RoleAdmin)

	body := `{"nom":"Frais Inscription","montant":1000,"type":"Scolarité","annee_scolaire":"2025-2026"}`

	req := httptest.NewRequest(http.MethodPost, "/tarifs", strings.NewReader(body))
	req.Header.Set("Authorization", bearer(t, parentID, "parent@ex.fr", models.RoleParent))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("parent tarif create expected 403 got %d body=%s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/tarifs", strings.NewReader(body))
	req.Header.Set("Authorization", bearer(t, adminID, "admin@ex.fr", models.RoleAdmin))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("admin tarif create expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	// reads stay open to authenticated parents
	req = httptest.NewRequest(http.MethodGet, "/tarifs", nil)
	req.Header.Set("Authorization", bearer(t, parentID, "parent@ex.fr", models.RoleParent))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("parent tarif list expected 200 got %d", w.Code)
	}
}

func TestReconcileIsAdminOnly(t *testing.T) {
	st, h := setupRouter(t)
	comptaID := seedUser(t, st, "compta@ex.fr", models.RoleComptable)
	adminID := seedUser(t, st, "admin@ex.fr", models.RoleAdmin)

	req := httptest.NewRequest(http.MethodPost, "/factures/reconcile", nil)
	req.Header.Set("Authorization", bearer(t, comptaID, "compta@ex.fr", models.RoleComptable))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("comptable reconcile expected 403 got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/factures/reconcile", nil)
	req.Header.Set("Authorization", bearer(t, adminID, "admin@ex.fr", models.RoleAdmin))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("admin reconcile expected 200 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestDashboardStats(t *testing.T) {
	st, h := setupRouter(t)
	adminID := seedUser(t, st, "admin@ex.fr", models.RoleAdmin)
	if _, err := st.Collection(store.Factures).Add(context.Background(), models.Facture{
		EtudiantID: "S1", Numero: "F1", MontantTotal: 1000, MontantPaye: 400, MontantRestant: 600, Statut: models.StatutPartiellement,
	}.ToDocument()); err != nil {
		t.Fatalf("seed facture: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/dashboard/stats", nil)
	req.Header.Set("Authorization", bearer(t, adminID, "admin@ex.fr", models.RoleAdmin))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var stats map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats["factures"].(float64) != 1 {
		t.Fatalf("unexpected stats %v", stats)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	st, h := setupRouter(t)
	adminID := seedUser(t, st, "admin@ex.fr", models.RoleAdmin)

	req := httptest.NewRequest(http.MethodPut, "/factures", nil)
	req.Header.Set("Authorization", bearer(t, adminID, "admin@ex.fr", models.RoleAdmin))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", w.Code)
	}
	if w.Header().Get("Allow") == "" {
		t.Fatalf("expected Allow header")
	}
}
