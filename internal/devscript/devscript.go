// Package devscript holds the live-reload client script appended to pages in
// development mode, and the built-in 404 page served when the site has none.
//
// Both documents carry a {{PORT}} placeholder for the websocket port, which
// is only known once configuration has been loaded.
package devscript

import (
	_ "embed"
	"strconv"
	"strings"
)

// PortPlaceholder is replaced by the websocket port.
const PortPlaceholder = "{{PORT}}"

// separator goes between a document and the appended script.
const separator = "\n\n"

//go:embed client.html
var clientRaw string

//go:embed 404.html
var fallbackRaw string

// Script returns the client script connecting to the websocket hub on port.
func Script(port int) string {
	return withPort(clientRaw, port)
}

// Fallback404 returns the built-in not-found page with the client script.
func Fallback404(port int) string {
	return withPort(fallbackRaw+separator+clientRaw, port)
}

// Append adds the client script to the end of an HTML document.
func Append(doc string, port int) string {
	return doc + separator + Script(port)
}

func withPort(raw string, port int) string {
	return strings.ReplaceAll(raw, PortPlaceholder, strconv.Itoa(port))
}
