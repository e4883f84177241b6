package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnreactErrorError(t *testing.T) {
	testCases := []struct {
		name     string
		err      *UnreactError
		expected string
	}{
		{
			name:     "code and message",
			err:      NewConfigError(CodeInvalidConfig, "port out of range"),
			expected: "[INVALID_CONFIG] port out of range",
		},
		{
			name:     "watch error names directory",
			err:      NewWatchError(CodeWatchDirMissing, "templates", fmt.Errorf("not found")),
			expected: "[WATCH_DIR_MISSING] cannot watch directory 'templates': not found",
		},
		{
			name:     "io error with cause",
			err:      NewIOError(CodeFileWrite, "writing file", fmt.Errorf("disk full")).WithPath("build/index.html"),
			expected: "[FILE_WRITE] writing file 'build/index.html': disk full",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.err.Error())
		})
	}
}

func TestUnreactErrorUnwrapAndIs(t *testing.T) {
	cause := fmt.Errorf("address already in use")
	err := NewNetworkError(CodeListenFailed, "listen on 127.0.0.1:3000", cause)
	wrapped := fmt.Errorf("starting dev server: %w", err)

	assert.ErrorIs(t, wrapped, cause)
	assert.True(t, errors.Is(wrapped, &UnreactError{Type: ErrorTypeNetwork, Code: CodeListenFailed}))
	assert.False(t, errors.Is(wrapped, &UnreactError{Type: ErrorTypeNetwork, Code: CodeWatchFailed}))
}

func TestRecoverability(t *testing.T) {
	buildErr := NewBuildError(CodeRenderTemplate, "rendering 'page'", nil)
	watchErr := NewWatchError(CodeWatchDirMissing, "styles", nil)

	assert.True(t, IsRecoverable(buildErr))
	assert.False(t, IsFatal(buildErr))

	assert.False(t, IsRecoverable(watchErr))
	assert.True(t, IsFatal(fmt.Errorf("wrapped: %w", watchErr)))

	plain := fmt.Errorf("plain")
	assert.False(t, IsRecoverable(plain))
	assert.False(t, IsFatal(plain))
}

func TestIsTypeAndHasCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewWatchError(CodeWatchFailed, "public", nil))

	assert.True(t, IsType(err, ErrorTypeWatch))
	assert.False(t, IsType(err, ErrorTypeBuild))
	assert.True(t, HasCode(err, CodeWatchFailed))
	assert.False(t, HasCode(err, CodeWatchDirMissing))
	assert.False(t, HasCode(nil, CodeWatchFailed))
}
