package domain

import (
	"errors"
	"regexp"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// User-facing message keys. Keys are the English text; other locales are
// looked up in the catalog.
const (
	MsgInvalidCredentials  = "Invalid credentials. Please check your username and password."
	MsgSessionExpired      = "Your session has expired or is invalid. Please log in again."
	MsgNoSession           = "There is no active session. Please log in."
	MsgForbidden           = "You do not have permission to perform this action."
	MsgServiceUnavailable  = "The service is not available at the moment."
	MsgServerError         = "Internal server error. Please try again later."
	MsgNetworkError        = "Could not connect to the server. Check that the service is running."
	MsgUnexpected          = "An unexpected error occurred. Please contact support."
	MsgInvalidForm         = "The form data is incorrect. Check the information entered."
	MsgValidationErrors    = "Validation errors: %s"
	MsgListingFailed       = "Error loading transactions."
	MsgNoTransactions      = "There are no transactions registered yet."
	MsgLoadingTransactions = "Loading transactions..."
	MsgTransactionsTitle   = "Transaction list"
	MsgPaymentCreated      = "Payment simulated successfully! ID: %s"
	MsgLoginSucceeded      = "Login successful."
	MsgLoggedOut           = "Session closed."
	MsgPageNotFound        = "Page not found: %s"
	MsgLoginPrompt         = "Administrator access"
	MsgPaymentPrompt       = "Payment simulation"
	MsgUsernamePrompt      = "Username: "
	MsgPasswordPrompt      = "Password: "
	MsgAuthenticated       = "Authenticated"
	MsgNotAuthenticated    = "Not authenticated"
	MsgTransactionCount    = "%s transaction(s)"
	MsgPaymentHint         = "Type 'pay' to simulate a payment."
	MsgLoginHint           = "Type 'login' to sign in."
)

// Table column headers.
const (
	ColID          = "ID"
	ColDate        = "DATE"
	ColHolder      = "HOLDER"
	ColDocument    = "DOCUMENT"
	ColCard        = "CARD"
	ColAmount      = "AMOUNT"
	ColDescription = "DESCRIPTION"
)

// DefaultLocale is used when no locale is configured or it cannot be parsed.
var DefaultLocale = language.MustParse("es-CO")

// SupportedLanguages lists the catalog languages; the first is the fallback.
var SupportedLanguages = []language.Tag{language.Spanish, language.English}

var (
	matcher = language.NewMatcher(SupportedLanguages)
	texts   = newCatalog()
)

var spanish = map[string]string{
	MsgInvalidCredentials:  "Credenciales inválidas. Por favor, revisa tu usuario y contraseña.",
	MsgSessionExpired:      "Tu sesión ha expirado o es inválida. Por favor, vuelve a iniciar sesión.",
	MsgNoSession:           "No hay sesión activa. Por favor, inicia sesión.",
	MsgForbidden:           "No tienes permisos para realizar esta acción.",
	MsgServiceUnavailable:  "El servicio no está disponible en este momento.",
	MsgServerError:         "Error interno del servidor. Por favor, intenta más tarde.",
	MsgNetworkError:        "No se pudo conectar con el servidor. Verifica que el servicio esté activo.",
	MsgUnexpected:          "Ha ocurrido un error inesperado. Por favor, contacta al soporte.",
	MsgInvalidForm:         "Datos del formulario incorrectos. Verifica la información ingresada.",
	MsgValidationErrors:    "Errores de validación: %s",
	MsgListingFailed:       "Error al cargar las transacciones.",
	MsgNoTransactions:      "Aún no hay transacciones registradas.",
	MsgLoadingTransactions: "Cargando transacciones...",
	MsgTransactionsTitle:   "Listado de Transacciones",
	MsgPaymentCreated:      "¡Pago simulado exitosamente! ID: %s",
	MsgLoginSucceeded:      "Inicio de sesión exitoso.",
	MsgLoggedOut:           "Sesión cerrada.",
	MsgPageNotFound:        "Página no encontrada: %s",
	MsgLoginPrompt:         "Acceso de administrador",
	MsgPaymentPrompt:       "Simulación de pago",
	MsgUsernamePrompt:      "Usuario: ",
	MsgPasswordPrompt:      "Contraseña: ",
	MsgAuthenticated:       "Autenticado",
	MsgNotAuthenticated:    "No autenticado",
	MsgTransactionCount:    "%s transacción(es)",
	MsgPaymentHint:         "Escribe 'pay' para simular un pago.",
	MsgLoginHint:           "Escribe 'login' para iniciar sesión.",

	ColDate:        "FECHA",
	ColHolder:      "TITULAR",
	ColDocument:    "DOCUMENTO",
	ColCard:        "TARJETA",
	ColAmount:      "MONTO",
	ColDescription: "DESCRIPCIÓN",
}

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder()
	for key, msg := range spanish {
		if err := b.SetString(language.Spanish, key, msg); err != nil {
			panic(err)
		}
	}
	return b
}

// ParseLocale parses a BCP 47 locale, returning DefaultLocale when s is empty
// or invalid.
func ParseLocale(s string) language.Tag {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultLocale
	}
	tag, err := language.Parse(s)
	if err != nil {
		return DefaultLocale
	}
	return tag
}

// catalogLanguage maps any tag onto one of SupportedLanguages.
func catalogLanguage(tag language.Tag) language.Tag {
	_, idx, _ := matcher.Match(tag)
	return SupportedLanguages[idx]
}

// Printer returns a message printer for the tag backed by the minipay catalog.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(catalogLanguage(tag), message.Catalog(texts))
}

// Text renders a message key in the given locale.
func Text(tag language.Tag, key string, args ...any) string {
	return Printer(tag).Sprintf(key, args...)
}

// ============================================================================
// Backend validation messages
// ============================================================================

// backendMessages maps known validation messages to Spanish. Entries with
// {placeholders} match by pattern and carry the captured values over.
var backendMessages = []struct{ en, es string }{
	{"Ensure that there are no more than {max_digits} digits in total.", "Asegúrate de que no haya más de {max_digits} dígitos en total."},
	{"This field is required.", "Este campo es obligatorio."},
	{"This field may not be blank.", "Este campo no puede estar en blanco."},
	{"This field may not be null.", "Este campo no puede ser nulo."},
	{"A valid number is required.", "Se requiere un número válido."},
	{"Enter a valid email address.", "Ingresa una dirección de email válida."},
	{"Enter a valid URL.", "Ingresa una URL válida."},
	{"Enter a valid date.", "Ingresa una fecha válida."},
	{"Enter a valid time.", "Ingresa una hora válida."},
	{"Enter a valid datetime.", "Ingresa una fecha y hora válidas."},
	{"Enter a valid value.", "Ingresa un valor válido."},
	{"Ensure this value is less than or equal to {max_value}.", "Asegúrate de que este valor sea menor o igual a {max_value}."},
	{"Ensure this value is greater than or equal to {min_value}.", "Asegúrate de que este valor sea mayor o igual a {min_value}."},
	{"Ensure this field has no more than {max_length} characters.", "Asegúrate de que este campo no tenga más de {max_length} caracteres."},
	{"Ensure this field has at least {min_length} characters.", "Asegúrate de que este campo tenga al menos {min_length} caracteres."},
	{"\"{input}\" is not a valid choice.", "\"{input}\" no es una opción válida."},
	{"Invalid card number.", "Número de tarjeta inválido."},
	{"Card has expired.", "La tarjeta ha expirado."},
	{"Invalid security code.", "Código de seguridad inválido."},
	{MsgInvalidAmount, "Por favor ingresa un monto válido mayor a cero."},
	{MsgCardExpired, "La tarjeta está vencida. Verifica la fecha de expiración."},
	{MsgExpiryFormat, "La fecha de expiración debe tener formato MM/YY."},
	{MsgInvalidDocument, "Selecciona un tipo de documento válido."},
}

type messagePattern struct {
	re     *regexp.Regexp
	names  []string
	target string
}

var (
	exactMessages   = map[string]string{}
	patternMessages []messagePattern
	placeholder     = regexp.MustCompile(`\{[a-z_]+\}`)
)

func init() {
	for _, m := range backendMessages {
		if !placeholder.MatchString(m.en) {
			exactMessages[m.en] = m.es
			continue
		}
		var (
			expr  strings.Builder
			names []string
			last  int
		)
		expr.WriteString("^")
		for _, loc := range placeholder.FindAllStringIndex(m.en, -1) {
			expr.WriteString(regexp.QuoteMeta(m.en[last:loc[0]]))
			expr.WriteString("(.*?)")
			names = append(names, m.en[loc[0]:loc[1]])
			last = loc[1]
		}
		expr.WriteString(regexp.QuoteMeta(m.en[last:]))
		expr.WriteString("$")
		patternMessages = append(patternMessages, messagePattern{
			re:     regexp.MustCompile(expr.String()),
			names:  names,
			target: m.es,
		})
	}
}

// TranslateMessage translates one backend or local validation message.
// Unknown messages, and every message in non-Spanish locales, pass through.
func TranslateMessage(msg string, tag language.Tag) string {
	if catalogLanguage(tag) != language.Spanish {
		return msg
	}
	if es, ok := exactMessages[msg]; ok {
		return es
	}
	for _, p := range patternMessages {
		m := p.re.FindStringSubmatch(msg)
		if m == nil {
			continue
		}
		out := p.target
		for i, name := range p.names {
			out = strings.ReplaceAll(out, name, m[i+1])
		}
		return out
	}
	return msg
}

// translatePayload flattens and translates every message of p.
func translatePayload(p Payload, tag language.Tag) []string {
	msgs := p.Flatten()
	for i, m := range msgs {
		msgs[i] = TranslateMessage(m, tag)
	}
	return msgs
}

// Translate maps a taxonomy value to user text. It performs no I/O.
func Translate(kind Kind, code string, p Payload, tag language.Tag) string {
	switch kind {
	case KindValidation:
		msgs := translatePayload(p, tag)
		if len(msgs) == 0 {
			return Text(tag, MsgInvalidForm)
		}
		if code == ErrBackendValidation.Code {
			return Text(tag, MsgValidationErrors, strings.Join(msgs, ", "))
		}
		return strings.Join(msgs, ", ")
	case KindAuthentication:
		switch code {
		case ErrSessionExpired.Code:
			return Text(tag, MsgSessionExpired)
		case ErrForbidden.Code:
			return Text(tag, MsgForbidden)
		default:
			return Text(tag, MsgInvalidCredentials)
		}
	case KindAuthorizationRequired:
		return Text(tag, MsgNoSession)
	case KindNotFound:
		return Text(tag, MsgServiceUnavailable)
	case KindServer:
		return Text(tag, MsgServerError)
	case KindNetwork:
		return Text(tag, MsgNetworkError)
	default:
		if msgs := translatePayload(p, tag); len(msgs) > 0 {
			return strings.Join(msgs, ", ")
		}
		return Text(tag, MsgUnexpected)
	}
}

// TranslateError renders any error as user text. Errors outside the taxonomy
// render as the unexpected-error message.
func TranslateError(err error, tag language.Tag) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return Translate(e.Kind, e.Code, e.Payload, tag)
	}
	return Text(tag, MsgUnexpected)
}

// TranslateListError renders a listing failure. Session problems keep their
// own text; anything else is the generic listing message.
func TranslateListError(err error, tag language.Tag) string {
	switch KindOf(err) {
	case KindAuthentication, KindAuthorizationRequired:
		return TranslateError(err, tag)
	default:
		return Text(tag, MsgListingFailed)
	}
}
