// Package httpstatus maps HTTP status codes to the reason phrases used in
// response envelopes.
//
// The phrases are part of the public response format and differ from the
// ones in net/http (for example 204 is "No content", not "No Content").
package httpstatus

// Unknown is returned for status codes that are not in the table.
const Unknown = "Unknown"

var messages = map[int]string{
	// Informational
	100: "Continue",
	101: "Switch protocols",
	102: "Processing",

	// Success
	200: "Ok",
	201: "Created",
	202: "Accepted",
	203: "Non-authoritive information",
	204: "No content",
	205: "Reset content",
	206: "Partial content",
	207: "Multi-status",
	208: "Already reported",
	226: "Im used",

	// Redirection
	300: "Multiple choices",
	301: "Moved permanently",
	302: "Found",
	303: "See other",
	304: "Not modified",
	305: "Use proxy",
	307: "Temporary redirect",
	308: "Permanent redirect",

	// Client errors
	400: "Bad request",
	401: "Unauthorized",
	402: "Payment required",
	403: "Forbidden",
	404: "Not found",
	405: "Method not allowed",
	406: "Not acceptable",
	407: "Proxy authentication required",
	408: "Request timeout",
	409: "Conflict",
	410: "Gone",
	411: "Length required",
	412: "Precondition failed",
	413: "Payload too large",
	414: "Request-URI too long",
	415: "Unsupported media type",
	416: "Request range not satisfiable",
	417: "Expectation failed",
	418: "Im a teapot",
	421: "Misdirected request",
	422: "Unprocessable entity",
	423: "Locked",
	424: "Failed dependency",
	426: "Upgrade required",
	428: "Precondition required",
	429: "Too many requests",
	431: "Request header fields too large",
	444: "Connection closed without response",
	451: "Unavailable for legal reasons",
	499: "Client closed request",

	// Server errors
	500: "Internal server error",
	501: "Not implemented",
	502: "Bad gateway",
	503: "Service unavailable",
	504: "Gateway timeout",
	505: "HTTP version not supported",
	506: "Variant also negotiates",
	507: "Insufficient storage",
	508: "Loop detected",
	510: "Not extended",
	511: "Network authentication required",
	599: "Network connection timeout error",
}

// Message returns the reason phrase for code, or Unknown.
func Message(code int) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return Unknown
}

// IsSuccess reports whether code is in the 2xx range.
func IsSuccess(code int) bool {
	return code >= 200 && code < 300
}
