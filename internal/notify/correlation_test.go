package notify

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCorrelationRoundTrip(t *testing.T) {
	c := Correlation{Target: 123456789, Attempt: 42}
	got, err := ParseCorrelation(c.Encode())
	require.NoError(t, err)
	require.Equal(t, c, got)
	require.Equal(t, int64(42), *got.AttemptID())
}

func TestCorrelationWithoutAttempt(t *testing.T) {
	c := Correlation{Target: 7}
	got, err := ParseCorrelation(c.Encode())
	require.NoError(t, err)
	require.Equal(t, int64(7), got.Target)
	require.Nil(t, got.AttemptID())
}

func TestParseCorrelationMalformed(t *testing.T) {
	for _, payload := range []string{
		"", "7", "abc|1", "7|abc", "0|1", "7|-2", "|", "7|",
	} {
		_, err := ParseCorrelation(payload)
		require.ErrorIs(t, err, ErrBadCorrelation, "payload %q", payload)
	}
}
