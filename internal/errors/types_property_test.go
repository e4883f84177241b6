//go:build property

package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestUnreactErrorProperties validates structured error behaviour through wrapping
func TestUnreactErrorProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(2468)
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	codes := gen.OneConstOf(
		CodeWatchDirMissing, CodeWatchFailed, CodeListenFailed,
		CodeRenderTemplate, CodeFileWrite, CodeInvalidConfig,
	)

	// Property: type, code and recoverability survive any depth of wrapping
	properties.Property("classification survives wrapping", prop.ForAll(
		func(code string, depth int) bool {
			base := NewBuildError(code, "rendering", nil)
			var err error = base
			for i := 0; i < depth; i++ {
				err = fmt.Errorf("layer %d: %w", i, err)
			}
			return IsType(err, ErrorTypeBuild) &&
				HasCode(err, code) &&
				IsRecoverable(err) &&
				!IsFatal(err) &&
				errors.Is(err, &UnreactError{Type: ErrorTypeBuild, Code: code})
		},
		codes,
		gen.IntRange(0, 10),
	))

	// Property: the message always carries code, message, path and cause
	properties.Property("error text names every part", prop.ForAll(
		func(code, message, path, cause string) bool {
			err := NewIOError(code, message, fmt.Errorf("%s", cause)).WithPath(path)
			text := err.Error()
			return strings.HasPrefix(text, "["+code+"]") &&
				strings.Contains(text, message) &&
				strings.Contains(text, "'"+path+"'") &&
				strings.HasSuffix(text, ": "+cause)
		},
		codes,
		gen.AlphaString(),
		gen.AlphaString().SuchThat(func(s string) bool { return s != "" }),
		gen.AlphaString(),
	))

	// Property: watch errors are always fatal and name their directory
	properties.Property("watch errors are fatal", prop.ForAll(
		func(dir string) bool {
			err := fmt.Errorf("startup: %w", NewWatchError(CodeWatchDirMissing, dir, nil))
			return IsFatal(err) && strings.Contains(err.Error(), dir)
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
