package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration_ValidInputs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in    string
		hours float64
	}{
		{"00:00:00", 0},
		{"01:30:00", 1.5},
		{"02:00:00", 2},
		{"00:45:00", 0.75},
		{"00:00:36", 0.01},
		{"10:15:30", 10.258333333333333},
		{"100:00:00", 100},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseDuration(tc.in)
			require.NoError(t, err)
			assert.InDelta(t, tc.hours, got, 1e-9)
		})
	}
}

func TestParseDuration_RejectsMalformed(t *testing.T) {
	t.Parallel()

	for _, in := range []string{
		"", "1:30:00", "01:60:00", "01:00:60", "01:30", "01-30-00",
		"aa:bb:cc", "01:30:00 ", " 01:30:00", "01:3:00",
	} {
		t.Run(in, func(t *testing.T) {
			t.Parallel()
			_, err := ParseDuration(in)
			require.Error(t, err)
			var vErr *ValidationError
			assert.ErrorAs(t, err, &vErr)
		})
	}
}

func TestFormatHours_RoundTripsValidDurations(t *testing.T) {
	t.Parallel()

	for _, in := range []string{
		"00:00:00", "00:00:01", "00:59:59", "01:30:00", "02:00:00",
		"10:15:30", "23:59:59", "99:00:33",
	} {
		hours, err := ParseDuration(in)
		require.NoError(t, err)
		assert.Equal(t, in, FormatHours(hours))
	}
}

func TestFormatHours_ClampsNegative(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "00:00:00", FormatHours(-1))
}
