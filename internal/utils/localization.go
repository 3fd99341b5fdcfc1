package contextutils

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Locale represents a language locale (e.g., "en", "es", "fr")
type Locale string

const (
	// LocaleEnglish represents English language
	LocaleEnglish Locale = "en"
	// LocaleSpanish represents Spanish language
	LocaleSpanish Locale = "es"
	// LocaleFrench represents French language
	LocaleFrench Locale = "fr"
	// LocaleGerman represents German language
	LocaleGerman Locale = "de"
	// LocaleItalian represents Italian language
	LocaleItalian Locale = "it"
	// LocalePortuguese represents Portuguese language
	LocalePortuguese Locale = "pt"
)

// LocalizedMessages contains localized error messages for different locales
type LocalizedMessages struct {
	messages map[ErrorCode]map[Locale]string
}

// NewLocalizedMessages creates a new instance of localized messages
func NewLocalizedMessages() *LocalizedMessages {
	return &LocalizedMessages{
		messages: make(map[ErrorCode]map[Locale]string),
	}
}

// AddMessage adds a localized message for a specific error code and locale
func (lm *LocalizedMessages) AddMessage(code ErrorCode, locale Locale, message string) {
	if lm.messages[code] == nil {
		lm.messages[code] = make(map[Locale]string)
	}
	lm.messages[code][locale] = message
}

// GetMessage returns the localized message for an error code and locale
func (lm *LocalizedMessages) GetMessage(code ErrorCode, locale Locale) string {
	// Try to get the message for the specific locale
	if localeMessages, exists := lm.messages[code]; exists {
		if message, exists := localeMessages[locale]; exists {
			return message
		}

		// Fallback to English if the specific locale doesn't have a message
		if message, exists := localeMessages[LocaleEnglish]; exists {
			return message
		}
	}

	// Fallback to a default message
	return getDefaultMessage(code)
}

// GetMessageWithDetails returns a localized message with additional details
func (lm *LocalizedMessages) GetMessageWithDetails(code ErrorCode, locale Locale, details string) string {
	message := lm.GetMessage(code, locale)
	if details != "" {
		return fmt.Sprintf("%s: %s", message, details)
	}
	return message
}

// getDefaultMessage returns a default English message for error codes
func getDefaultMessage(code ErrorCode) string {
	switch code {
	case ErrorCodeDatabaseConnection:
		return "Database connection failed"
	case ErrorCodeDatabaseQuery:
		return "Database query failed"
	case ErrorCodeDatabaseTransaction:
		return "Database transaction failed"
	case ErrorCodeRecordNotFound:
		return "Record not found"
	case ErrorCodeRecordExists:
		return "Record already exists"
	case ErrorCodeInvalidInput:
		return "Invalid input"
	case ErrorCodeMissingRequired:
		return "Missing required field"
	case ErrorCodeInvalidFormat:
		return "Invalid format"
	case ErrorCodeValidationFailed:
		return "Validation failed"
	case ErrorCodeUnauthorized:
		return "Unauthorized access"
	case ErrorCodeForbidden:
		return "Access forbidden"
	case ErrorCodeInvalidCredentials:
		return "Invalid credentials"
	case ErrorCodeSessionExpired:
		return "Session expired"
	case ErrorCodeServiceUnavailable:
		return "Service temporarily unavailable"
	case ErrorCodeTimeout:
		return "Request timeout"
	case ErrorCodeInternalError:
		return "Internal server error"
	case ErrorCodeNetworkFailure:
		return "Network request failed"
	case ErrorCodeContentUnavailable:
		return "Puzzle content unavailable"
	case ErrorCodePuzzleNotFound:
		return "Puzzle not found"
	case ErrorCodeAlreadyPlayedToday:
		return "You already played today"
	case ErrorCodeHintRequired:
		return "Reveal the next hint before guessing again"
	case ErrorCodeDailyLimitReached:
		return "Daily play limit reached"
	case ErrorCodeSessionClosed:
		return "Puzzle session already closed"
	default:
		return "An error occurred"
	}
}

// LoadMessagesFromJSON loads localized messages from a JSON structure
func (lm *LocalizedMessages) LoadMessagesFromJSON(jsonData string) error {
	var data map[string]map[string]string
	if err := json.Unmarshal([]byte(jsonData), &data); err != nil {
		return WrapError(err, "failed to parse localization JSON")
	}

	for codeStr, localeMessages := range data {
		code := ErrorCode(codeStr)
		for localeStr, message := range localeMessages {
			locale := Locale(localeStr)
			lm.AddMessage(code, locale, message)
		}
	}

	return nil
}

// GetSupportedLocales returns a list of supported locales
func (lm *LocalizedMessages) GetSupportedLocales() []Locale {
	locales := make(map[Locale]bool)

	for _, localeMessages := range lm.messages {
		for locale := range localeMessages {
			locales[locale] = true
		}
	}

	result := make([]Locale, 0, len(locales))
	for locale := range locales {
		result = append(result, locale)
	}

	return result
}

// ParseLocale parses a locale string (e.g., "en-US", "fr-CA") and returns the language part
func ParseLocale(localeStr string) Locale {
	// Handle locale formats like "en-US", "fr-CA", etc.
	parts := strings.Split(localeStr, "-")
	if len(parts) > 0 && parts[0] != "" {
		return Locale(strings.ToLower(parts[0]))
	}
	return LocaleEnglish // Default fallback
}

// Global instance of localized messages
var globalLocalizedMessages = NewLocalizedMessages()

// init loads default localized messages
func init() {
	// Load some basic localized messages
	globalLocalizedMessages.AddMessage(ErrorCodeInvalidInput, LocaleSpanish, "Entrada inválida")
	globalLocalizedMessages.AddMessage(ErrorCodeInvalidInput, LocaleFrench, "Entrée invalide")
	globalLocalizedMessages.AddMessage(ErrorCodeInvalidInput, LocaleGerman, "Ungültige Eingabe")
	globalLocalizedMessages.AddMessage(ErrorCodeInvalidInput, LocaleItalian, "Input non valido")
	globalLocalizedMessages.AddMessage(ErrorCodeInvalidInput, LocalePortuguese, "Entrada inválida")

	globalLocalizedMessages.AddMessage(ErrorCodeRecordNotFound, LocaleSpanish, "Registro no encontrado")
	globalLocalizedMessages.AddMessage(ErrorCodeRecordNotFound, LocaleFrench, "Enregistrement non trouvé")
	globalLocalizedMessages.AddMessage(ErrorCodeRecordNotFound, LocaleGerman, "Datensatz nicht gefunden")
	globalLocalizedMessages.AddMessage(ErrorCodeRecordNotFound, LocaleItalian, "Record non trovato")
	globalLocalizedMessages.AddMessage(ErrorCodeRecordNotFound, LocalePortuguese, "Registro não encontrado")

	globalLocalizedMessages.AddMessage(ErrorCodeUnauthorized, LocaleSpanish, "Acceso no autorizado")
	globalLocalizedMessages.AddMessage(ErrorCodeUnauthorized, LocaleFrench, "Accès non autorisé")
	globalLocalizedMessages.AddMessage(ErrorCodeUnauthorized, LocaleGerman, "Unbefugter Zugriff")
	globalLocalizedMessages.AddMessage(ErrorCodeUnauthorized, LocaleItalian, "Accesso non autorizzato")
	globalLocalizedMessages.AddMessage(ErrorCodeUnauthorized, LocalePortuguese, "Acesso não autorizado")

	globalLocalizedMessages.AddMessage(ErrorCodeInternalError, LocaleSpanish, "Error interno del servidor")
	globalLocalizedMessages.AddMessage(ErrorCodeInternalError, LocaleFrench, "Erreur interne du serveur")
	globalLocalizedMessages.AddMessage(ErrorCodeInternalError, LocaleGerman, "Interner Serverfehler")
	globalLocalizedMessages.AddMessage(ErrorCodeInternalError, LocaleItalian, "Errore interno del server")
	globalLocalizedMessages.AddMessage(ErrorCodeInternalError, LocalePortuguese, "Erro interno do servidor")

	globalLocalizedMessages.AddMessage(ErrorCodeAlreadyPlayedToday, LocaleSpanish, "Ya jugaste hoy")
	globalLocalizedMessages.AddMessage(ErrorCodeAlreadyPlayedToday, LocaleFrench, "Vous avez déjà joué aujourd'hui")
	globalLocalizedMessages.AddMessage(ErrorCodeAlreadyPlayedToday, LocaleGerman, "Du hast heute schon gespielt")
	globalLocalizedMessages.AddMessage(ErrorCodeAlreadyPlayedToday, LocaleItalian, "Hai già giocato oggi")
	globalLocalizedMessages.AddMessage(ErrorCodeAlreadyPlayedToday, LocalePortuguese, "Você já jogou hoje")

	globalLocalizedMessages.AddMessage(ErrorCodeDailyLimitReached, LocaleSpanish, "Límite diario alcanzado")
	globalLocalizedMessages.AddMessage(ErrorCodeDailyLimitReached, LocaleFrench, "Limite quotidienne atteinte")
	globalLocalizedMessages.AddMessage(ErrorCodeDailyLimitReached, LocaleGerman, "Tägliches Limit erreicht")
	globalLocalizedMessages.AddMessage(ErrorCodeDailyLimitReached, LocaleItalian, "Limite giornaliero raggiunto")
	globalLocalizedMessages.AddMessage(ErrorCodeDailyLimitReached, LocalePortuguese, "Limite diário atingido")
}

// GetLocalizedMessage returns a localized error message using the global instance
func GetLocalizedMessage(code ErrorCode, locale Locale) string {
	return globalLocalizedMessages.GetMessage(code, locale)
}

// GetLocalizedMessageWithDetails returns a localized error message with details
func GetLocalizedMessageWithDetails(code ErrorCode, locale Locale, details string) string {
	return globalLocalizedMessages.GetMessageWithDetails(code, locale, details)
}

// GetErrorLocalizedMessage returns a localized message for any error value
func GetErrorLocalizedMessage(err error, localeStr string) string {
	locale := ParseLocale(localeStr)
	if appErr, ok := err.(*AppError); ok {
		return GetLocalizedMessageWithDetails(appErr.Code, locale, appErr.Details)
	}
	return getDefaultMessage("")
}

// ToJSONWithLocale converts an AppError to a JSON-serializable structure with a localized message
func (e *AppError) ToJSONWithLocale(localeStr string) map[string]interface{} {
	result := e.ToJSON()
	result["message"] = GetErrorLocalizedMessage(e, localeStr)
	return result
}

// SetGlobalLocalizedMessages sets the global localized messages instance
func SetGlobalLocalizedMessages(messages *LocalizedMessages) {
	globalLocalizedMessages = messages
}
