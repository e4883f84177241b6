package build

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gorilla/css/scanner"
)

// StyleConverter turns one style source into the CSS written to
// styles/{name}/style.css.
type StyleConverter interface {
	// Handles reports whether the converter accepts the source file.
	Handles(path string) bool
	Convert(src string) (string, error)
}

// CSSConverter passes .css sources through, optionally minified.
type CSSConverter struct {
	Minify bool
}

// Handles accepts files with a .css extension.
func (c CSSConverter) Handles(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".css")
}

// Convert returns src, minified when c.Minify is set.
func (c CSSConverter) Convert(src string) (string, error) {
	if !c.Minify {
		return src, nil
	}
	return MinifyCSS(src)
}

// MinifyCSS drops comments and collapses whitespace using the gorilla/css
// tokenizer. Whitespace survives only where it separates two tokens that are
// not punctuation, so selectors such as "a :hover" keep their meaning.
func MinifyCSS(src string) (string, error) {
	var b strings.Builder
	s := scanner.New(src)

	pendingSpace := false
	var prev *scanner.Token
	for {
		tok := s.Next()
		switch tok.Type {
		case scanner.TokenEOF:
			return b.String(), nil
		case scanner.TokenError:
			return "", fmt.Errorf("line %d column %d: %s", tok.Line, tok.Column, tok.Value)
		case scanner.TokenComment, scanner.TokenBOM:
			continue
		case scanner.TokenS:
			pendingSpace = true
			continue
		}

		if pendingSpace && prev != nil && !dropsSpaceAfter(prev) && !dropsSpaceBefore(tok) {
			b.WriteByte(' ')
		}
		pendingSpace = false
		b.WriteString(tok.Value)
		prev = tok
	}
}

func dropsSpaceAfter(tok *scanner.Token) bool {
	return tok.Type == scanner.TokenChar && strings.Contains("{};,>:", tok.Value)
}

func dropsSpaceBefore(tok *scanner.Token) bool {
	return tok.Type == scanner.TokenChar && strings.Contains("{};,>", tok.Value)
}
