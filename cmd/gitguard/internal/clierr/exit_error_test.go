package clierr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCodeOf(t *testing.T) {
	cause := errors.New("boom")

	tests := map[string]struct {
		err  error
		want int
	}{
		"nil":              {err: nil, want: 0},
		"plain error":      {err: cause, want: CodeFailure},
		"exit error":       {err: New(CodeRiskThreshold, "too risky"), want: CodeRiskThreshold},
		"zero normalized":  {err: New(0, "odd"), want: CodeFailure},
		"wrapped twice":    {err: fmt.Errorf("outer: %w", Wrap(CodeInvalidConfig, "bad", cause)), want: CodeInvalidConfig},
		"formatted":        {err: Newf(7, "code %d", 7), want: 7},
		"wrap without err": {err: Wrap(4, "no cause", nil), want: 4},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExitCodeOf(tc.err))
		})
	}
}

func TestExitErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(CodeFailure, "check failed", cause)

	assert.Equal(t, "check failed: boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "plain", New(2, "plain").Error())
}
