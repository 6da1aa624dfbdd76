// Package handlers exposes the JSON REST API. Handlers translate store
// failures into generic 5xx responses (internal store error text never
// reaches a client) and validation problems into 4xx responses naming the
// offending fields.
package handlers

import (
	"errors"
	"log"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/chaima229/fraisScolaire-backend-sub001/httpx"
	"github.com/chaima229/fraisScolaire-backend-sub001/i18n"
	"github.com/chaima229/fraisScolaire-backend-sub001/internal/store"
	"github.com/chaima229/fraisScolaire-backend-sub001/validation"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// violations are reported under the wire (json) field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// requestLang resolves the response language from Accept-Language (fr default).
func requestLang(r *http.Request) string {
	return i18n.DetectLanguage(r.Header.Get("Accept-Language"))
}

// writeStoreError maps a store failure: not-found to 404, exhausted retry
// budget or timeout to 503 with a generic message, anything else to 500.
// The underlying cause is logged, never returned to the client.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	lang := requestLang(r)
	switch {
	case errors.Is(err, store.ErrNotFound):
		httpx.JSONErrorMsg(w, http.StatusNotFound, "not_found", i18n.T(lang, "not_found"), nil)
	case isFinalFailure(err):
		log.Printf("store final failure: %v", err)
		httpx.JSONErrorMsg(w, http.StatusServiceUnavailable, "service_unavailable", i18n.T(lang, "service_unavailable"), nil)
	default:
		log.Printf("internal error: %v", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

func isFinalFailure(err error) bool {
	var re *store.RetryError
	return errors.As(err, &re) || errors.Is(err, store.ErrTimeout)
}

// writeViolations returns a 400 naming each offending field.
func writeViolations(w http.ResponseWriter, r *http.Request, v validation.Violations) {
	lang := requestLang(r)
	httpx.JSONErrorMsg(w, http.StatusBadRequest, "validation_failed", i18n.T(lang, "validation_failed"), v)
}

// checkStruct runs validator tags over a request DTO and converts the
// outcome to a violations map keyed by json field name.
func checkStruct(req any) validation.Violations {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	v := validation.Violations{}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			v[fe.Field()] = fe.Tag()
		}
		return v
	}
	v["body"] = "invalid"
	return v
}

// paging reads ?limit= and ?page= the way the rest of the API does:
// limit 1..200 (default 50), page starting at 1.
func paging(r *http.Request) (limit, offset int) {
	limit = 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			offset = (n - 1) * limit
		}
	}
	return limit, offset
}

// pageSlice applies limit/offset to an already-fetched document list.
func pageSlice(docs []store.Document, limit, offset int) []store.Document {
	if offset >= len(docs) {
		return []store.Document{}
	}
	end := offset + limit
	if end > len(docs) {
		end = len(docs)
	}
	return docs[offset:end]
}

// requireID extracts the mandatory ?id= query parameter.
func requireID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"id": "required"})
		return "", false
	}
	return id, true
}
