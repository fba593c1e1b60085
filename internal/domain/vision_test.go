package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestStatusForVerdict exercises the full verdict→status mapping: each of the
// four verdicts yields exactly its mapped status, and anything unrecognized
// falls back to INCOMPLETE.
func TestStatusForVerdict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		verdict CompareVerdict
		want    SessionStatus
	}{
		{VerdictEaten, SessionVerified},
		{VerdictPartial, SessionPartial},
		{VerdictUnchanged, SessionFailed},
		{VerdictUnverifiable, SessionIncomplete},
		{CompareVerdict("SOMETHING_NEW"), SessionIncomplete},
		{CompareVerdict(""), SessionIncomplete},
	}

	for _, tt := range tests {
		t.Run(string(tt.verdict), func(t *testing.T) {
			got := StatusForVerdict(tt.verdict)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.IsTerminal(), "verdict mapping must always yield a terminal status")
		})
	}
}

func TestSessionStatusHelpers(t *testing.T) {
	t.Parallel()

	assert.True(t, SessionActive.IsValid())
	assert.False(t, SessionActive.IsTerminal())
	assert.True(t, SessionVerified.IsTerminal())
	assert.False(t, SessionStatus("DONE").IsValid())
	assert.False(t, SessionStatus("DONE").IsTerminal())
}
