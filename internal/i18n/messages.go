package i18n

// messages maps error codes to their texts in the order of Supported (Spanish, English)
var messages = map[string][2]string{
	"UNKNOWN_ERROR":          {"Ocurrió un error inesperado", "An unexpected error occurred"},
	"STORAGE_QUERY_FAILED":   {"Error al acceder a los datos", "Error while accessing the data store"},
	"REQUIRED_FIELD_MISSING": {"Falta completar un campo obligatorio", "A required field is missing"},
	"ILLEGAL_JSON_REQUEST":   {"La solicitud no contiene JSON válido", "The request does not contain valid JSON"},
	"ILLEGAL_VALUE":          {"Uno de los valores no es válido", "One of the values is not valid"},
	"EVENT_NOT_FOUND":        {"El evento no existe", "The event does not exist"},
	"USER_NOT_FOUND":         {"El usuario no existe", "The user does not exist"},
	"IMAGE_NOT_FOUND":        {"La imagen no existe", "The image does not exist"},
	"LOGIN_FAILED":           {"Email o contraseña incorrectos", "Wrong e-mail address or password"},
	"NOT_LOGGED_IN":          {"Necesitás iniciar sesión", "You need to sign in"},
	"PERMISSION_DENIED":      {"No tenés permiso para esta acción", "You are not allowed to do this"},
	"DUPLICATE_EMAIL":        {"El email ya está registrado", "The e-mail address is already registered"},
	"PASSWORD_MISMATCH":      {"Las contraseñas no coinciden", "The passwords do not match"},
	"PASSWORD_TOO_SHORT":     {"La contraseña es demasiado corta", "The password is too short"},
	"GOOGLE_LOGIN_DISABLED":  {"El inicio de sesión con Google no está disponible", "Google sign-in is not available"},
	"INVALID_ID_TOKEN":       {"El token de Google no es válido", "The Google token is not valid"},
	"ROLE_REQUEST_INVALID":   {"No se puede solicitar ese rol", "This role cannot be requested"},
	"NO_PENDING_REQUEST":     {"No hay una solicitud pendiente", "There is no pending request"},
	"NOT_ATTENDING":          {"El usuario no asiste al evento", "The user does not attend the event"},
	"IMAGE_TOO_LARGE":        {"La imagen es demasiado grande", "The image is too large"},
	"UNSUPPORTED_IMAGE":      {"Formato de imagen no soportado", "Unsupported image format"},
	"ILLEGAL_IMPORT":         {"El archivo de respaldo no es válido", "The backup file is not valid"},
}
