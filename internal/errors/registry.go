package errors

import "sort"

// Template defines a registered error type.
type Template struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	// ============================================
	// Configuration Errors (W100-W149)
	// ============================================

	"W100": {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "The configuration file given on the command line does not exist.",
	},
	"W101": {
		Category: CategoryConfig,
		Message:  "Config file is invalid",
		Detail:   "The configuration file could not be parsed.",
	},
	"W102": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is out of range.",
	},
	"W103": {
		Category: CategoryConfig,
		Message:  "Unsupported config format",
		Detail:   "Configuration files must end in .json or .toml.",
	},

	// ============================================
	// Command Errors (W150-W199)
	// ============================================

	"W150": {
		Category: CategoryCLI,
		Message:  "Invalid address",
		Detail:   "The address must be a ws:// or wss:// URL.",
	},
	"W151": {
		Category: CategoryCLI,
		Message:  "Log file cannot be opened",
		Detail:   "The log output file could not be created or opened for writing.",
	},

	// ============================================
	// Transport Errors (W200-W249)
	// ============================================

	"W200": {
		Category: CategoryTransport,
		Message:  "Connection failed",
		Detail:   "The WebSocket connection could not be established.",
	},
	"W201": {
		Category: CategoryTransport,
		Message:  "Server failed",
		Detail:   "The HTTP server stopped with an error.",
	},
}

// Codes returns all registered error codes in order.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}
