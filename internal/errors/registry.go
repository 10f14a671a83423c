package errors

import "sort"

// Template is the registered shape of a code.
type Template struct {
	Category Category
	Message  string
	Detail   string
}

var registry = map[string]Template{
	// Configuration (E100-E199)

	"E101": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "eventum looks for eventum.json, then eventum.yaml, in the working directory.",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Configuration file could not be parsed",
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "Invalid API URL",
		Detail:   "api.url must be an absolute http or https URL.",
	},
	"E104": {
		Category: CategoryConfig,
		Message:  "Invalid websocket URL",
		Detail:   "realtime.url must be an absolute ws or wss URL.",
	},
	"E105": {
		Category: CategoryConfig,
		Message:  "Invalid port",
		Detail:   "Ports must be between 1 and 65535.",
	},
	"E106": {
		Category: CategoryConfig,
		Message:  "Invalid reconnect backoff",
		Detail:   "The initial delay must be positive and not above the maximum, with at least one attempt.",
	},
	"E107": {
		Category: CategoryConfig,
		Message:  "Invalid environment override",
	},
	"E109": {
		Category: CategoryConfig,
		Message:  "Invalid setting",
	},
	"E108": {
		Category: CategoryConfig,
		Message:  "Configuration file could not be written",
	},

	// Command line and dev server (E200-E299)

	"E201": {
		Category: CategoryCLI,
		Message:  "Invalid arguments",
	},
	"E202": {
		Category: CategoryServer,
		Message:  "Dev server failed",
	},
	"E203": {
		Category: CategoryServer,
		Message:  "Dev server store could not be opened",
	},
	"E204": {
		Category: CategoryCLI,
		Message:  "Navigation failed",
		Detail:   "The page was rendered with the not-found or error screen.",
	},
	"E205": {
		Category: CategoryCLI,
		Message:  "Timed out waiting for the page to settle",
	},
}

// Codes returns every registered code in order.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Lookup returns the template for code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}
