package sentinel

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err  Error
		want string
	}{
		"plain message": {err: Error("spawn failed"), want: "spawn failed"},
		"empty message": {err: Error(""), want: ""},
		"multi word":    {err: Error("deadline exceeded"), want: "deadline exceeded"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if got := tc.err.Error(); got != tc.want {
				t.Errorf("Error() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestError_ErrorsIs(t *testing.T) {
	t.Parallel()

	const sentinel = Error("deadline exceeded")

	t.Run("direct match", func(t *testing.T) {
		t.Parallel()

		if !errors.Is(sentinel, sentinel) {
			t.Error("errors.Is should match a sentinel against itself")
		}
	})

	t.Run("wrapped match", func(t *testing.T) {
		t.Parallel()

		wrapped := fmt.Errorf("running command: %w", sentinel)
		if !errors.Is(wrapped, sentinel) {
			t.Error("errors.Is should match a sentinel through wrapping")
		}
	})

	t.Run("double wrapped match", func(t *testing.T) {
		t.Parallel()

		wrapped := fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", sentinel))
		if !errors.Is(wrapped, sentinel) {
			t.Error("errors.Is should match a sentinel through two layers of wrapping")
		}
	})

	t.Run("different sentinel no match", func(t *testing.T) {
		t.Parallel()

		const other = Error("spawn failed")
		if errors.Is(sentinel, other) {
			t.Error("errors.Is should not match different sentinels")
		}
	})

	t.Run("same text different type no match", func(t *testing.T) {
		t.Parallel()

		if errors.Is(sentinel, errors.New("deadline exceeded")) {
			t.Error("errors.Is should not match an errors.New value with the same text")
		}
	})
}

func TestError_ConstDeclarable(t *testing.T) {
	t.Parallel()

	// Compiles only if Error values are valid constants.
	const errConst = Error("constant error")
	if errConst.Error() != "constant error" {
		t.Error("const Error should return its string value")
	}
}
