package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chaima229/fraisScolaire-backend-sub001/internal/models"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/store"
)

func TestTarifCreateAndListByYear(t *testing.T) {
	s := setupHandlerStore(t)
	h := &TarifHandler{Store: s}

	body := `{"nom":"Frais Inscription","montant":1000,"type":"Scolarité","annee_scolaire":"2025-2026"}`
	w := httptest.NewRecorder()
	h.Create(w, httptest.NewRequest(http.MethodPost, "/tarifs", strings.NewReader(body)))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	var created models.Tarif
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !created.Actif {
		t.Fatalf("expected actif by default")
	}

	seedDoc(t, s, store.Tarifs, models.Tarif{
		Nom: "Frais scolaire", Montant: 500, Type: "Scolarité", AnneeScolaire: "2024-2025", Actif: true,
	}.ToDocument())

	w = httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/tarifs?annee_scolaire=2025-2026", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	var out struct {
		Tarifs []models.Tarif `json:"tarifs"`
		Total  int            `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Total != 1 || out.Tarifs[0].AnneeScolaire != "2025-2026" {
		t.Fatalf("unexpected list %+v", out)
	}
}

func TestTarifUpdateDeactivates(t *testing.T) {
	s := setupHandlerStore(t)
	h := &TarifHandler{Store: s}
	id := seedDoc(t, s, store.Tarifs, models.Tarif{
		Nom: "Frais Inscription", Montant: 1000, Type: "Scolarité", AnneeScolaire: "2025-2026", Actif: true,
	}.ToDocument())

	w := httptest.NewRecorder()
	h.Update(w, httptest.NewRequest(http.MethodPost, "/tarifs/update?id="+id, strings.NewReader(`{"actif":false}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var tr models.Tarif
	if err := json.Unmarshal(w.Body.Bytes(), &tr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tr.Actif {
		t.Fatalf("expected deactivated tarif")
	}
	if tr.Montant != 1000 {
		t.Fatalf("patch lost montant: %+v", tr)
	}
}

func TestRessourceRequiredFields(t *testing.T) {
	s := setupHandlerStore(t)
	h := &RessourceHandler{Store: s, Collection: store.Bourses, Required: []string{"nom", "pourcentage"}, Check: CheckBourse}

	w := httptest.NewRecorder()
	h.Create(w, httptest.NewRequest(http.MethodPost, "/bourses", strings.NewReader(`{"nom":""}`)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, "nom") || !strings.Contains(body, "pourcentage") {
		t.Fatalf("expected required violations, body=%s", body)
	}

	w = httptest.NewRecorder()
	h.Create(w, httptest.NewRequest(http.MethodPost, "/bourses", strings.NewReader(`{"nom":"Excellence","pourcentage":50}`)))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	var doc map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc["id"] == "" || doc["id"] == nil {
		t.Fatalf("expected generated id, got %v", doc)
	}
}

func TestBoursePourcentageRange(t *testing.T) {
	s := setupHandlerStore(t)
	h := &RessourceHandler{Store: s, Collection: store.Bourses, Required: []string{"nom", "pourcentage"}, Check: CheckBourse}

	for _, body := range []string{
		`{"nom":"Trop","pourcentage":150}`,
		`{"nom":"Négatif","pourcentage":-10}`,
	} {
		w := httptest.NewRecorder()
		h.Create(w, httptest.NewRequest(http.MethodPost, "/bourses", strings.NewReader(body)))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s got %d", body, w.Code)
		}
		if !strings.Contains(w.Body.String(), "out_of_range") {
			t.Fatalf("expected out_of_range, got %s", w.Body.String())
		}
	}

	w := httptest.NewRecorder()
	h.Create(w, httptest.NewRequest(http.MethodPost, "/bourses", strings.NewReader(`{"nom":"Mauvais","pourcentage":"beaucoup"}`)))
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "invalid_number") {
		t.Fatalf("expected invalid_number 400, got %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	h.Create(w, httptest.NewRequest(http.MethodPost, "/bourses", strings.NewReader(`{"nom":"Limite","pourcentage":100}`)))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 for boundary value, got %d %s", w.Code, w.Body.String())
	}
}
