package timefilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_MinuteOfHour(t *testing.T) {
	f, err := Parse("13:28")

	require.NoError(t, err)
	assert.Equal(t, KindMinuteOfHour, f.Kind)
	assert.Equal(t, 13, f.Hour)
	assert.Equal(t, 28, f.Minute)
}

func TestParse_ExactSecond(t *testing.T) {
	f, err := Parse("13:28:45")

	require.NoError(t, err)
	assert.Equal(t, KindExactSecond, f.Kind)
	assert.Equal(t, 13, f.Hour)
	assert.Equal(t, 28, f.Minute)
	assert.Equal(t, 45, f.Second)
}

func TestParse_SingleDay(t *testing.T) {
	f, err := Parse("6/9/2025")

	require.NoError(t, err)
	assert.Equal(t, KindSingleDay, f.Kind)
	assert.Equal(t, "2025-09-06", f.Date)
}

func TestParse_SingleDay_ZeroPadded(t *testing.T) {
	f, err := Parse("06/09/2025")

	require.NoError(t, err)
	assert.Equal(t, KindSingleDay, f.Kind)
	assert.Equal(t, "2025-09-06", f.Date)
}

func TestParse_DayRange(t *testing.T) {
	f, err := Parse("6/9/2025-8/9/2025")

	require.NoError(t, err)
	assert.Equal(t, KindDayRange, f.Kind)
	assert.Equal(t, "2025-09-06", f.StartDate)
	assert.Equal(t, "2025-09-08", f.EndDate)
}

func TestParse_DayRange_WithSpaces(t *testing.T) {
	f, err := Parse("06/09/2025 - 08/09/2025")

	require.NoError(t, err)
	assert.Equal(t, KindDayRange, f.Kind)
	assert.Equal(t, "2025-09-06", f.StartDate)
	assert.Equal(t, "2025-09-08", f.EndDate)
}

func TestParse_InvalidTimeComponents(t *testing.T) {
	for _, input := range []string{"25:00", "12:60", "12:30:60", "24:01:02"} {
		_, err := Parse(input)

		require.Error(t, err, "input: %s", input)
		assert.ErrorIs(t, err, ErrInvalidTimeComponent)
	}
}

func TestParse_UnrecognizedPattern(t *testing.T) {
	for _, input := range []string{"hello", "6/9", "2025", "12:3", "1/2/3/4", ""} {
		_, err := Parse(input)

		require.Error(t, err, "input: %s", input)
		assert.ErrorIs(t, err, ErrUnrecognizedPattern)
	}
}

func TestParse_TrimsInput(t *testing.T) {
	f, err := Parse("  13:28  ")

	require.NoError(t, err)
	assert.Equal(t, KindMinuteOfHour, f.Kind)
}
