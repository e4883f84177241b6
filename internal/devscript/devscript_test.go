package devscript

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestScriptSubstitutesPort(t *testing.T) {
	script := Script(4101)

	assert.Contains(t, script, ":4101/")
	assert.NotContains(t, script, PortPlaceholder)
	assert.Contains(t, script, `"reload"`)
}

func TestFallback404(t *testing.T) {
	page := Fallback404(3001)

	assert.True(t, strings.HasPrefix(page, fallbackRaw))
	assert.Equal(t, withPort(fallbackRaw+"\n\n"+clientRaw, 3001), page)
	assert.NotContains(t, page, PortPlaceholder)
	assert.Contains(t, page, "404")
}

func TestAppendAddsParsableScript(t *testing.T) {
	doc := "<!DOCTYPE html><html><body><p>hello</p></body></html>"
	out := Append(doc, 3001)

	require.True(t, strings.HasPrefix(out, doc))

	root, err := html.Parse(strings.NewReader(out))
	require.NoError(t, err)

	var scripts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "script" && n.FirstChild != nil {
			scripts = append(scripts, n.FirstChild.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	require.Len(t, scripts, 1)
	assert.Contains(t, scripts[0], "new WebSocket")
	assert.Contains(t, scripts[0], ":3001/")
}
