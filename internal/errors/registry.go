package errors

// Registered error codes.
const (
	CodeDefaultsOnFactory = "F001"
	CodeUnknownField      = "F002"
	CodeInvalidMethod     = "F003"
	CodeInvalidPatch      = "F004"

	CodeRequestEncode  = "F010"
	CodeTransport      = "F011"
	CodeResponseDecode = "F012"
	CodeInvalidURL     = "F013"

	CodeInvalidConfig  = "F020"
	CodeConfigNotFound = "F021"
)

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Form Errors (F001-F009)
	// ============================================

	CodeDefaultsOnFactory: {
		Category: CategoryForm,
		Message:  "Defaults cannot change on a factory form",
		Detail:   "The form was built from a function, so its baseline is regenerated on every Reset and cannot be edited in place.",
	},
	CodeUnknownField: {
		Category: CategoryForm,
		Message:  "Unknown form field",
		Detail:   "The field is not part of the shape the form was built with. Fields cannot be added after construction.",
	},
	CodeInvalidMethod: {
		Category: CategoryForm,
		Message:  "Invalid HTTP method",
		Detail:   "Submissions accept GET, HEAD, POST, PUT, PATCH, DELETE and OPTIONS.",
	},
	CodeInvalidPatch: {
		Category: CategoryForm,
		Message:  "Invalid patch",
		Detail:   "The patch is not a valid JSON merge patch, or it adds or removes form fields.",
	},

	// ============================================
	// Transport Errors (F010-F019)
	// ============================================

	CodeRequestEncode: {
		Category: CategoryTransport,
		Message:  "Request body could not be encoded",
		Detail:   "The transformed form payload could not be serialized to JSON.",
	},
	CodeTransport: {
		Category: CategoryTransport,
		Message:  "Request failed",
		Detail:   "The request did not produce a response. Check the network and the base URL.",
	},
	CodeResponseDecode: {
		Category: CategoryTransport,
		Message:  "Response body could not be decoded",
		Detail:   "The server returned a body that is not valid JSON.",
	},
	CodeInvalidURL: {
		Category: CategoryTransport,
		Message:  "Invalid request URL",
		Detail:   "The request URL could not be resolved against the base URL.",
	},

	// ============================================
	// Config Errors (F020-F029)
	// ============================================

	CodeInvalidConfig: {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "A configuration value is out of range or malformed.",
	},
	CodeConfigNotFound: {
		Category: CategoryConfig,
		Message:  "Configuration file could not be read",
		Detail:   "The configuration file does not exist or is not readable.",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
