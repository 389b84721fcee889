package diagnostic

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want []string // substrings that must appear
	}{
		{
			name: "usage",
			err:  Usagef("expected exactly one class-file argument"),
			want: []string{"usage error", "expected exactly one class-file argument"},
		},
		{
			name: "missing entry",
			err:  MissingEntryf("no main%s method", "([Ljava/lang/String;)V"),
			want: []string{"missing entry method"},
		},
		{
			name: "fatal with location",
			err:  FatalAtf(42, 0x64, "operand stack underflow"),
			want: []string{"fatal VM error", "pc=42", "opcode=0x64", "underflow"},
		},
		{
			name: "io wraps cause",
			err:  IOf(errors.New("permission denied"), "failed to open %s", "a.class"),
			want: []string{"I/O error", "failed to open a.class", "permission denied"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msg := tc.err.Error()
			for _, substr := range tc.want {
				if !strings.Contains(msg, substr) {
					t.Errorf("Error() = %q, want it to contain %q", msg, substr)
				}
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := IOf(cause, "reading class file")
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
}

func TestExitCodeIsAlwaysOne(t *testing.T) {
	for _, k := range []Kind{UsageError, IOError, MissingEntry, FatalVMError} {
		if k.ExitCode() != 1 {
			t.Errorf("%s: ExitCode() = %d, want 1", k, k.ExitCode())
		}
	}
}
