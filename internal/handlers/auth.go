package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/chaima229/fraisScolaire-backend-sub001/auth"
	"github.com/chaima229/fraisScolaire-backend-sub001/httpx"
	"github.com/chaima229/fraisScolaire-backend-sub001/i18n"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/models"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/store"
)

// AuthHandler owns signup and login.
type AuthHandler struct {
	Store *store.Store
}

type signupRequest struct {
	Nom      string `json:"nom" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := checkStruct(&req); v != nil {
		writeViolations(w, r, v)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	role := req.Role
	if role == "" {
		role = models.RoleParent
	}
	if role != models.RoleAdmin && role != models.RoleComptable && role != models.RoleParent {
		writeViolations(w, r, map[string]string{"role": "invalid"})
		return
	}

	users := h.Store.Collection(store.Users)
	existing, err := users.Query(r.Context(), store.Eq("email", req.Email))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if len(existing) > 0 {
		lang := requestLang(r)
		httpx.JSONErrorMsg(w, http.StatusConflict, "email_taken", i18n.T(lang, "email_taken"), nil)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	u := models.User{Nom: req.Nom, Email: req.Email, Role: role, Actif: true, PasswordHash: string(hash)}
	id, err := users.Add(r.Context(), u.ToDocument())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	u.ID = id

	token, err := auth.GenerateToken(u.ID, u.Email, u.Role)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, authResponse{Token: token, User: u})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := checkStruct(&req); v != nil {
		writeViolations(w, r, v)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	users := h.Store.Collection(store.Users)
	docs, err := users.Query(r.Context(), store.Eq("email", req.Email))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		writeStoreError(w, r, err)
		return
	}
	lang := requestLang(r)
	if len(docs) == 0 {
		httpx.JSONErrorMsg(w, http.StatusUnauthorized, "invalid_credentials", i18n.T(lang, "invalid_credentials"), nil)
		return
	}
	u := models.UserFromDocument(docs[0])
	if !u.Actif || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		httpx.JSONErrorMsg(w, http.StatusUnauthorized, "invalid_credentials", i18n.T(lang, "invalid_credentials"), nil)
		return
	}

	token, err := auth.GenerateToken(u.ID, u.Email, u.Role)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, authResponse{Token: token, User: u})
}

// ListUsers returns every account without password material. The router
// restricts it to admins.
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	docs, err := h.Store.Collection(store.Users).GetAll(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	out := make([]models.User, 0, len(docs))
	for _, doc := range docs {
		out = append(out, models.UserFromDocument(doc))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": out, "total": len(out)})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		lang := requestLang(r)
		httpx.JSONErrorMsg(w, http.StatusUnauthorized, "unauthorized", i18n.T(lang, "unauthorized"), nil)
		return
	}
	doc, err := h.Store.Collection(store.Users).Get(r.Context(), claims.UserID)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, models.UserFromDocument(doc))
}
