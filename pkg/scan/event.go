package scan

import "strings"

// Symbologies reported by the capture surfaces this module has been used with.
const (
	SymbologyCode128 = "code128"
	SymbologyEAN13   = "ean13"
	SymbologyEAN8    = "ean8"
	SymbologyQR      = "qr"
)

// DefaultSymbologies lists the code types the entry screen enables by default.
var DefaultSymbologies = []string{SymbologyCode128, SymbologyEAN13, SymbologyEAN8, SymbologyQR}

// Event is a single decoded payload reported by the capture surface. Only the
// payload is consumed downstream; the symbology is informational and may be
// empty when the surface does not report it.
type Event struct {
	Payload   string
	Symbology string
}

// Empty reports whether the event carries no usable payload.
func (e Event) Empty() bool {
	return strings.TrimSpace(e.Payload) == ""
}
