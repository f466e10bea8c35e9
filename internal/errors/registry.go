package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

func (t ErrorTemplate) instantiate(code string) *BridgeError {
	return &BridgeError{
		Code:     code,
		Category: t.Category,
		Message:  t.Message,
		Detail:   t.Detail,
		DocURL:   t.DocURL,
		Index:    -1,
	}
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Protocol Errors (E060-E079)
	// ============================================

	"E060": {
		Category: CategoryProtocol,
		Message:  "Unknown node ID",
		Detail:   "A change record references a node ID that was never created or has already been deleted.",
		DocURL:   "https://pagebridge.dev/docs/errors/E060",
	},
	"E061": {
		Category: CategoryProtocol,
		Message:  "Duplicate node ID",
		Detail:   "A creation record reuses a node ID that is still live.",
		DocURL:   "https://pagebridge.dev/docs/errors/E061",
	},
	"E062": {
		Category: CategoryProtocol,
		Message:  "Node deleted twice",
		Detail:   "A deleteNode record targets a node that is no longer registered.",
		DocURL:   "https://pagebridge.dev/docs/errors/E062",
	},
	"E063": {
		Category: CategoryProtocol,
		Message:  "Invalid tree operation",
		Detail:   "The live DOM rejected a structural change (the child is not attached to the named parent, or the operation would create a cycle).",
		DocURL:   "https://pagebridge.dev/docs/errors/E063",
	},
	"E064": {
		Category: CategoryProtocol,
		Message:  "Node is not a component",
		Detail:   "setCompoRoot must target a node created with createCompo.",
		DocURL:   "https://pagebridge.dev/docs/errors/E064",
	},
	"E065": {
		Category: CategoryProtocol,
		Message:  "Node is not an element",
		Detail:   "Attributes can only be set on element nodes.",
		DocURL:   "https://pagebridge.dev/docs/errors/E065",
	},
	"E066": {
		Category: CategoryProtocol,
		Message:  "Malformed change record",
		Detail:   "A change record is missing an operand required by its kind.",
		DocURL:   "https://pagebridge.dev/docs/errors/E066",
	},
	"E067": {
		Category: CategoryProtocol,
		Message:  "Session halted",
		Detail:   "An earlier batch violated the change protocol. The runtime accepts no further changes for this session.",
		DocURL:   "https://pagebridge.dev/docs/errors/E067",
	},

	// ============================================
	// Event Errors (E080-E099)
	// ============================================

	"E080": {
		Category: CategoryEvent,
		Message:  "Event payload encoding failed",
		Detail:   "The shaped event payload could not be encoded as JSON.",
		DocURL:   "https://pagebridge.dev/docs/errors/E080",
	},
	"E081": {
		Category: CategoryEvent,
		Message:  "Event payload decoding failed",
		Detail:   "The json-value of an event envelope is not valid JSON.",
		DocURL:   "https://pagebridge.dev/docs/errors/E081",
	},
	"E082": {
		Category: CategoryEvent,
		Message:  "Bridge closed",
		Detail:   "The event could not be forwarded because the host bridge is closed.",
		DocURL:   "https://pagebridge.dev/docs/errors/E082",
	},

	// ============================================
	// Cache Errors (E100-E119)
	// ============================================

	"E100": {
		Category: CategoryCache,
		Message:  "Cache installation failed",
		Detail:   "At least one manifest asset could not be fetched. The previous cache generation stays active.",
		DocURL:   "https://pagebridge.dev/docs/errors/E100",
	},
	"E101": {
		Category: CategoryCache,
		Message:  "Cache activation failed",
		Detail:   "A stale cache generation could not be deleted.",
		DocURL:   "https://pagebridge.dev/docs/errors/E101",
	},
	"E102": {
		Category: CategoryCache,
		Message:  "Asset not found",
		Detail:   "The asset is neither cached nor reachable on the network.",
		DocURL:   "https://pagebridge.dev/docs/errors/E102",
	},

	// ============================================
	// Config Errors (E120-E139)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "pagebridge.json could not be parsed.",
		DocURL:   "https://pagebridge.dev/docs/errors/E120",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Missing fingerprint",
		Detail:   "The offline worker needs a build fingerprint to name its cache.",
		DocURL:   "https://pagebridge.dev/docs/errors/E121",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid storage backend",
		Detail:   "storage.kind must be \"memory\" or \"s3\"; s3 also requires a bucket.",
		DocURL:   "https://pagebridge.dev/docs/errors/E122",
	},
	"E123": {
		Category: CategoryConfig,
		Message:  "Invalid host settings",
		Detail:   "host.addr must be set and timeouts must be positive durations.",
		DocURL:   "https://pagebridge.dev/docs/errors/E123",
	},
	"E124": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "No pagebridge.json was found.",
		DocURL:   "https://pagebridge.dev/docs/errors/E124",
	},

	// ============================================
	// CLI Errors (E140-E159)
	// ============================================

	"E140": {
		Category: CategoryCLI,
		Message:  "Output directory not writable",
		Detail:   "The worker script could not be written to the output directory.",
		DocURL:   "https://pagebridge.dev/docs/errors/E140",
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
