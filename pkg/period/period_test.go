package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantErr error
		wantLen int
	}{
		{"single day", "2024-02-29", "2024-02-29", nil, 1},
		{"leap february", "2024-02-01", "2024-02-29", nil, 29},
		{"year", "2023-01-01", "2023-12-31", nil, 365},
		{"inverted", "2024-03-02", "2024-03-01", ErrInvertedRange, 0},
		{"bad from", "2024/03/01", "2024-03-02", ErrInvalidDate, 0},
		{"bad to", "2024-03-01", "yesterday", ErrInvalidDate, 0},
		{"impossible date", "2023-02-29", "2023-03-01", ErrInvalidDate, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.from, tt.to)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLen, p.Len())
		})
	}
}

func TestContainsUsesCalendarDate(t *testing.T) {
	p, err := Parse("2024-01-01", "2024-01-31")
	require.NoError(t, err)

	tokyo := time.FixedZone("JST", 9*3600)
	assert.True(t, p.Contains(time.Date(2024, 1, 31, 23, 59, 0, 0, tokyo)))
	assert.True(t, p.Contains(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC)))
}

func TestBuckets(t *testing.T) {
	p, err := Parse("2023-11-30", "2024-02-02")
	require.NoError(t, err)

	days := p.Days()
	assert.Len(t, days, 65)
	assert.Equal(t, "2023-11-30", days[0])
	assert.Equal(t, "2024-02-02", days[len(days)-1])

	assert.Equal(t, []string{"2023-11", "2023-12", "2024-01", "2024-02"}, p.Months())
	assert.Equal(t, []string{"2023-Q4", "2024-Q1"}, p.Quarters())
	assert.Equal(t, []string{"2023", "2024"}, p.Years())
}

func TestKeys(t *testing.T) {
	d := time.Date(2024, 8, 5, 14, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-08-05", DayKey(d))
	assert.Equal(t, "2024-08", MonthKey(d))
	assert.Equal(t, "2024-Q3", QuarterKey(d))
	assert.Equal(t, "2024", YearKey(d))
	assert.Equal(t, "2024-Q1", QuarterKey(time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-Q4", QuarterKey(time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)))
}

func TestPreviousAndYearAgo(t *testing.T) {
	p, err := Parse("2024-03-01", "2024-03-10")
	require.NoError(t, err)

	prev := Previous(p)
	assert.Equal(t, "2024-02-20..2024-02-29", prev.String())
	assert.Equal(t, p.Len(), prev.Len())

	assert.Equal(t, "2023-03-01..2023-03-10", YearAgo(p).String())
}
