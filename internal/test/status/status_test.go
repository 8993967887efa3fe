package status_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"taskbridge-backend/internal/status"
)

// happyPath is the canonical forward lifecycle, oldest first.
var happyPath = []string{
	"submitted", "analyzing", "quoted", "paid", "assigned", "in_progress",
	"submitted_for_qc", "qc_in_progress", "qc_approved", "delivered", "completed",
}

func TestLoad(t *testing.T) {
	tax, err := status.Load()
	require.NoError(t, err)
	assert.Equal(t, 9, tax.TotalSteps())
}

func TestStepIndexMonotonicAlongHappyPath(t *testing.T) {
	tax := status.Default()

	for i := 1; i < len(happyPath); i++ {
		prev := tax.Resolve(happyPath[i-1])
		curr := tax.Resolve(happyPath[i])
		assert.GreaterOrEqual(t, curr.Index, prev.Index,
			"%s must not step backwards from %s", happyPath[i], happyPath[i-1])
	}
}

func TestEveryHappyPathTransitionAllowed(t *testing.T) {
	tax := status.Default()

	for i := 1; i < len(happyPath); i++ {
		assert.True(t, tax.CanTransition(happyPath[i-1], happyPath[i]),
			"%s -> %s must be allowed", happyPath[i-1], happyPath[i])
	}
}

func TestQCSubStatesCollapseToOneStep(t *testing.T) {
	tax := status.Default()

	qc := tax.Resolve("qc_in_progress")
	assert.Equal(t, qc, tax.Resolve("qc_approved"))
	assert.Equal(t, qc, tax.Resolve("submitted_for_qc"))
	assert.Equal(t, qc, tax.Resolve("qc_rejected"))

	assert.True(t, tax.IsVisuallyEquivalent("submitted_for_qc", "qc_approved"))
	assert.False(t, tax.IsVisuallyEquivalent("qc_approved", "delivered"))
}

func TestAutoApprovedSharesCompletedStep(t *testing.T) {
	tax := status.Default()
	assert.True(t, tax.IsVisuallyEquivalent("completed", "auto_approved"))
}

func TestUnknownStatusFallsBack(t *testing.T) {
	tax := status.Default()

	s, err := tax.StatusFor("totally_bogus_code")
	assert.ErrorIs(t, err, status.ErrUnknownStatus)
	assert.Equal(t, "totally_bogus_code", s.Code)
	assert.Equal(t, "Totally Bogus Code", s.DisplayLabel)
	assert.Equal(t, 0, tax.StepIndexOf(s))
	assert.False(t, s.RequiresAction)
}

func TestKnownStatusHasNoError(t *testing.T) {
	tax := status.Default()

	s, err := tax.StatusFor("paid")
	require.NoError(t, err)
	assert.Equal(t, "Paid", s.DisplayLabel)
	assert.True(t, tax.Known("paid"))
	assert.False(t, tax.Known("totally_bogus_code"))
}

func TestTerminalStatusesHaveNoOutgoingTransitions(t *testing.T) {
	tax := status.Default()

	for _, code := range []string{"completed", "auto_approved", "cancelled", "refunded"} {
		s, err := tax.StatusFor(code)
		require.NoError(t, err)
		assert.True(t, s.Terminal, "%s must be terminal", code)
		assert.False(t, s.Active)
		for _, target := range append(happyPath, "cancelled", "refunded") {
			assert.False(t, tax.CanTransition(code, target),
				"terminal %s must not transition to %s", code, target)
		}
	}
}

func TestRequiresAction(t *testing.T) {
	tax := status.Default()

	for code, want := range map[string]bool{
		"quoted":      true,
		"qc_rejected": true,
		"delivered":   true,
		"in_progress": false,
		"paid":        false,
	} {
		s, err := tax.StatusFor(code)
		require.NoError(t, err)
		assert.Equal(t, want, s.RequiresAction, code)
	}
}

func TestSalience(t *testing.T) {
	tax := status.Default()

	assert.Equal(t, status.EmphasisCelebrate, tax.Salience("paid"))
	assert.Equal(t, status.EmphasisCelebrate, tax.Salience("delivered"))
	assert.Equal(t, status.EmphasisCelebrate, tax.Salience("assigned"))
	assert.Equal(t, status.EmphasisAlert, tax.Salience("qc_rejected"))
	assert.Equal(t, status.EmphasisNotice, tax.Salience("analyzing"))
	assert.Equal(t, status.EmphasisNotice, tax.Salience("totally_bogus_code"))
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "Submitted For Qc", status.Humanize("submitted_for_qc"))
	assert.Equal(t, "Paid", status.Humanize("paid"))
	assert.Equal(t, "", status.Humanize(""))
}

func TestStatusForErrorIsWrappable(t *testing.T) {
	tax := status.Default()
	_, err := tax.StatusFor("nope")
	assert.True(t, errors.Is(err, status.ErrUnknownStatus))
}
