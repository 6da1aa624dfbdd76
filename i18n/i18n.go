package i18n

import "strings"

// Minimal fr/en catalog for user-facing API messages.
// French is the default: the application serves francophone schools.
var messages = map[string]map[string]string{
	"fr": {
		"required":            "Requis",
		"invalid_json":        "Corps JSON invalide",
		"invalid_number":      "Valeur numérique invalide",
		"not_found":           "Ressource introuvable",
		"unauthorized":        "Authentification requise",
		"forbidden":           "Accès refusé",
		"validation_failed":   "Validation échouée",
		"service_unavailable": "Service temporairement indisponible, réessayez plus tard",
		"invalid_credentials": "Email ou mot de passe incorrect",
		"email_taken":         "Cet email est déjà utilisé",
		"exceeds_remaining":   "Le montant dépasse le solde restant des factures",
		"payer_divergence":    "Payeur divergent déjà préservé, intervention manuelle requise",
		"tarif_missing":       "Tarif actif introuvable pour l'année scolaire",
	},
	"en": {
		"required":            "Required",
		"invalid_json":        "Invalid JSON body",
		"invalid_number":      "Invalid numeric value",
		"not_found":           "Resource not found",
		"unauthorized":        "Authentication required",
		"forbidden":           "Access denied",
		"validation_failed":   "Validation failed",
		"service_unavailable": "Service temporarily unavailable, please retry later",
		"invalid_credentials": "Incorrect email or password",
		"email_taken":         "This email is already in use",
		"exceeds_remaining":   "Amount exceeds the remaining balance of the invoices",
		"payer_divergence":    "Divergent payer already preserved, manual review required",
		"tarif_missing":       "No active tariff found for the academic year",
	},
}

// DetectLanguage picks fr or en from an Accept-Language header value.
// Anything that is not english falls back to french.
func DetectLanguage(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	if strings.HasPrefix(h, "en") {
		return "en"
	}
	return "fr"
}

// T translates a message code. Unknown languages fall back to french;
// unknown codes fall back to the code itself so callers always get text.
func T(lang, code string) string {
	cat, ok := messages[lang]
	if !ok {
		cat = messages["fr"]
	}
	if msg, ok := cat[code]; ok {
		return msg
	}
	if msg, ok := messages["fr"][code]; ok {
		return msg
	}
	return code
}
