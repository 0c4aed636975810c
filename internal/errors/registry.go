package errors

// Template defines a registered error type.
type Template struct {
	Category Category
	Message  string
	Detail   string
	Kind     error
}

var registry = map[string]Template{
	// Engine (S100-S199)

	"S101": {
		Category: CategoryEngine,
		Message:  "Template evaluation failed",
		Detail:   "The component's template function returned an error. The previously attached node is left untouched.",
	},
	"S102": {
		Category: CategoryEngine,
		Message:  "Markup parse failed",
		Detail:   "The markup produced by the template could not be parsed into nodes.",
	},
	"S103": {
		Category: CategoryEngine,
		Message:  "Invalid list binding",
		Detail:   "A list container is bound to an attribute that does not hold a []*component.Instance.",
		Kind:     ErrInvalidArgument,
	},
	"S104": {
		Category: CategoryEngine,
		Message:  "Duplicate alias",
		Detail:   "Two child positions in the same template use the same alias.",
		Kind:     ErrInvalidArgument,
	},
	"S105": {
		Category: CategoryEngine,
		Message:  "Instance destroyed",
		Detail:   "The operation requires a live or detached instance.",
	},
	"S106": {
		Category: CategoryEngine,
		Message:  "Invalid sipa-attrs",
		Detail:   "The sipa-attrs attribute of a nested component tag must hold a JSON object.",
		Kind:     ErrInvalidArgument,
	},
	"S107": {
		Category: CategoryEngine,
		Message:  "Engine loop stopped",
		Detail:   "The engine is not running a loop that can execute the task.",
	},

	// Events (S150-S169)

	"S150": {
		Category: CategoryEvent,
		Message:  "Unknown event",
		Detail:   "The event name was never declared with CreateEvents.",
		Kind:     ErrInvalidArgument,
	},
	"S151": {
		Category: CategoryEvent,
		Message:  "Event already declared",
		Detail:   "Event channels are declared once per instance.",
		Kind:     ErrInvalidArgument,
	},

	// Hooks and navigation (S200-S299)

	"S201": {
		Category: CategoryHook,
		Message:  "Invalid hook type",
		Detail:   "Hooks can only be registered for and fired with the known hook types.",
		Kind:     ErrInvalidArgument,
	},
	"S202": {
		Category: CategoryHook,
		Message:  "Hook failed",
		Detail:   "A hook function returned an error; remaining hooks of the same type were skipped.",
	},
	"S210": {
		Category: CategoryNavigate,
		Message:  "Page not found",
		Detail:   "No page is registered under the requested name.",
		Kind:     ErrNotFound,
	},
	"S211": {
		Category: CategoryNavigate,
		Message:  "Layout not found",
		Detail:   "The page refers to a layout that was never registered.",
		Kind:     ErrNotFound,
	},
	"S212": {
		Category: CategoryNavigate,
		Message:  "No history",
		Detail:   "There is no previous page to go back to.",
		Kind:     ErrNotFound,
	},

	// Store (S300-S399)

	"S301": {
		Category: CategoryStore,
		Message:  "Unknown store tier",
		Kind:     ErrInvalidArgument,
	},
	"S302": {
		Category: CategoryStore,
		Message:  "Value encoding failed",
	},
	"S303": {
		Category: CategoryStore,
		Message:  "Backend failure",
		Detail:   "The persistent backend returned an error.",
	},

	// Config and CLI (S400-S499)

	"S401": {
		Category: CategoryConfig,
		Message:  "Config file unreadable",
	},
	"S402": {
		Category: CategoryConfig,
		Message:  "Config file invalid",
		Kind:     ErrInvalidArgument,
	},
	"S403": {
		Category: CategoryConfig,
		Message:  "Config value out of range",
		Kind:     ErrInvalidArgument,
	},
	"S410": {
		Category: CategoryCLI,
		Message:  "Server failed",
	},
}

// Codes returns all registered error codes.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// Lookup returns the template for an error code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds or replaces an error template.
func Register(code string, t Template) {
	registry[code] = t
}
