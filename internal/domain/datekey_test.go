package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickavail/backend/internal/domain"
)

func TestNewDateKey(t *testing.T) {
	assert.Equal(t, domain.DateKey("2024-01-31"), domain.NewDateKey(2024, time.January, 31))
	assert.Equal(t, domain.DateKey("0999-12-05"), domain.NewDateKey(999, time.December, 5))
}

// A late-evening local time must key as its own calendar date, whatever the
// offset of the zone it was observed in.
func TestDateKeyOf_StableAcrossOffsets(t *testing.T) {
	for offset := -12; offset <= 14; offset++ {
		loc := time.FixedZone("test", offset*3600)

		late := time.Date(2024, time.January, 31, 23, 30, 0, 0, loc)
		assert.Equal(t, domain.DateKey("2024-01-31"), domain.DateKeyOf(late), "offset %d", offset)

		early := time.Date(2024, time.February, 1, 0, 30, 0, 0, loc)
		assert.Equal(t, domain.DateKey("2024-02-01"), domain.DateKeyOf(early), "offset %d", offset)
	}
}

func TestParseDateKey(t *testing.T) {
	k, err := domain.ParseDateKey("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, domain.DateKey("2024-02-29"), k)

	for _, bad := range []string{"2023-02-29", "2024-1-05", "2024-13-01", "31/01/2024", ""} {
		_, err := domain.ParseDateKey(bad)
		assert.ErrorIs(t, err, domain.ErrValidation, "input %q", bad)
	}
}

func TestDateKey_Date(t *testing.T) {
	d, err := domain.DateKey("2024-01-31").Date()
	require.NoError(t, err)
	assert.Equal(t, time.Wednesday, d.Weekday())
	assert.Equal(t, time.UTC, d.Location())

	_, err = domain.DateKey("tomorrow").Date()
	assert.ErrorIs(t, err, domain.ErrValidation)
}
