package apperrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassification(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"discovery", Discovery("no definitions"), ErrDiscovery},
		{"generation", Generation("add", "generator exited 1"), ErrGeneration},
		{"template", Template("add", "unresolved placeholder {{x}}"), ErrTemplate},
		{"verification", Verification("add", "checker exited 2"), ErrVerification},
		{"io", IO("add", "stat foo", errors.New("permission denied")), ErrIO},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.err, tc.sentinel)
			for _, other := range cases {
				if other.sentinel != tc.sentinel {
					assert.NotErrorIs(t, tc.err, other.sentinel)
				}
			}
		})
	}
}

func TestErrorCarriesUnitAndPhase(t *testing.T) {
	err := Generation("aba", "generator exited 1")

	var structured *Error
	require.ErrorAs(t, err, &structured)
	assert.Equal(t, "aba", structured.Unit)
	assert.Equal(t, "generate", structured.Phase)
	assert.Equal(t, "generator exited 1", err.Error())
}

func TestIOUnwrapsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := IO("aba", "writing sentinel", cause)

	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, cause)
	assert.ErrorContains(t, err, "writing sentinel")
}
