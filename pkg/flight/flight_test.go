package flight

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"OPERATED", StatusOperated, false},
		{"cancelled", StatusCancelled, false},
		{"Canceled", StatusCancelled, false},
		{" diverted ", StatusDiverted, false},
		{"", StatusScheduled, false},
		{"BOARDING", StatusScheduled, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantErr, errors.Is(err, ErrUnknownStatus))
		})
	}
}

func TestRecordKeys(t *testing.T) {
	t.Parallel()

	rec := Record{}
	assert.Equal(t, NoKey, rec.RouteKey())
	assert.Equal(t, NoKey, rec.AirlineKey())
	assert.Equal(t, NoKey, rec.OperationTypeKey())

	rec.Route = lo.ToPtr("   ")
	assert.Equal(t, NoKey, rec.RouteKey())

	rec.Route = lo.ToPtr(" BEG-CDG ")
	rec.Airline = Airline{Name: "Air Serbia"}
	rec.OperationTypeID = "SCH"
	assert.Equal(t, "BEG-CDG", rec.RouteKey())
	assert.Equal(t, "Air Serbia", rec.AirlineKey())
	assert.Equal(t, "SCH", rec.OperationTypeKey())

	rec.Airline.Code = "JU"
	assert.Equal(t, "JU", rec.AirlineKey())
}

func TestRecordLegPresence(t *testing.T) {
	t.Parallel()

	rec := Record{ArrivalFlightNumber: lo.ToPtr("JU101"), DepartureFlightNumber: lo.ToPtr("")}
	assert.True(t, rec.HasArrival())
	assert.False(t, rec.HasDeparture())
}

func TestRecordValidate(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		rec  Record
		want error
	}{
		{"valid", Record{Date: day}, nil},
		{"zero date", Record{}, ErrInvalidDate},
		{"negative passengers", Record{Date: day, ArrivalPassengers: lo.ToPtr(-1)}, ErrNegativeValue},
		{"negative seats", Record{Date: day, AircraftTypeSeats: lo.ToPtr(-180)}, ErrNegativeValue},
		{"negative cargo", Record{Date: day, DepartureCargoKg: lo.ToPtr(-0.5)}, ErrNegativeValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.rec.Validate(), tt.want)
		})
	}
}

func TestParseLine(t *testing.T) {
	p := NewParser()

	t.Run("plain calendar date", func(t *testing.T) {
		rec, err := p.ParseLine(`{"date":"2024-03-02","route":"BEG-ZRH","airline":{"id":"1","name":"Air Serbia","code":"JU"},"arrivalFlightNumber":"JU351","arrivalPassengers":120,"arrivalFerryIn":false,"availableSeats":174,"arrivalStatus":"operated","arrivalScheduledTime":"2024-03-02T09:00:00Z","arrivalActualTime":"2024-03-02T09:20:00Z","arrivalCargoKg":310.5}`)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), rec.Date)
		assert.Equal(t, "BEG-ZRH", rec.RouteKey())
		assert.Equal(t, StatusOperated, rec.ArrivalStatus)
		assert.Equal(t, 120, *rec.ArrivalPassengers)
		assert.InDelta(t, 310.5, *rec.ArrivalCargoKg, 1e-9)
		assert.True(t, rec.HasArrival())
		assert.False(t, rec.HasDeparture())
	})

	t.Run("rfc3339 date", func(t *testing.T) {
		rec, err := p.ParseLine(`{"date":"2024-03-02T00:00:00+01:00","airline":{"code":"W6"}}`)
		require.NoError(t, err)
		assert.Equal(t, 2, rec.Date.Day())
	})

	t.Run("errors", func(t *testing.T) {
		_, err := p.ParseLine("")
		assert.ErrorIs(t, err, ErrMalformedJSON)

		_, err = p.ParseLine(`{"date":`)
		assert.ErrorIs(t, err, ErrMalformedJSON)

		_, err = p.ParseLine(`{"date":"not-a-date"}`)
		assert.ErrorIs(t, err, ErrMalformedJSON)

		_, err = p.ParseLine(`{"airline":{"code":"JU"}}`)
		assert.ErrorIs(t, err, ErrInvalidDate)
	})

	t.Run("unknown status reads as scheduled", func(t *testing.T) {
		rec, err := p.ParseLine(`{"date":"2024-03-02","arrivalFlightNumber":"JU351","arrivalPassengers":100,"arrivalStatus":"BOARDING","departureStatus":"cancelled"}`)
		require.NoError(t, err)
		assert.Equal(t, StatusScheduled, rec.ArrivalStatus)
		assert.Equal(t, StatusCancelled, rec.DepartureStatus)
		assert.True(t, rec.UnknownStatus())
		assert.Equal(t, 100, *rec.ArrivalPassengers)

		rec, err = p.ParseLine(`{"date":"2024-03-02","arrivalStatus":"operated"}`)
		require.NoError(t, err)
		assert.False(t, rec.UnknownStatus())
	})
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legs.jsonl")
	content := `{"date":"2024-03-01","airline":{"code":"JU"},"arrivalFlightNumber":"JU1"}
not json at all

{"date":"2024-03-02","airline":{"code":"JU"},"departureFlightNumber":"JU2","departurePassengers":-3}
{"date":"2024-03-03","airline":{"code":"W6"},"departureFlightNumber":"W6 42"}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	p := NewParser()
	records, offset, skipped, err := p.ParseFile(path, 0)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, int64(len(content)), offset)
	require.Len(t, skipped, 2)
	assert.Equal(t, 2, skipped[0].Line)
	assert.ErrorIs(t, skipped[1], ErrNegativeValue)

	// Incremental read from the returned offset yields nothing new.
	records, _, _, err = p.ParseFile(path, offset)
	require.NoError(t, err)
	assert.Empty(t, records)

	_, _, _, err = p.ParseFile(filepath.Join(t.TempDir(), "missing.jsonl"), 0)
	assert.Error(t, err)
}

func TestParseFileUnterminatedTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legs.jsonl")
	first := `{"date":"2024-03-01","airline":{"code":"JU"},"arrivalFlightNumber":"JU1"}` + "\n"
	second := `{"date":"2024-03-02","airline":{"code":"W6"},"arrivalFlightNumber":"W61"}`

	p := NewParser()

	t.Run("partial line stays unread", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte(first+second[:25]), 0600))

		records, offset, skipped, err := p.ParseFile(path, 0)
		require.NoError(t, err)
		assert.Len(t, records, 1)
		assert.Empty(t, skipped)
		assert.Equal(t, int64(len(first)), offset)
	})

	t.Run("complete line without newline is read", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte(first+second), 0600))

		records, offset, _, err := p.ParseFile(path, int64(len(first)))
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "W6", records[0].AirlineKey())
		assert.Equal(t, int64(len(first+second)), offset)
	})
}

func TestStatusUnmarshalText(t *testing.T) {
	var s Status
	require.NoError(t, s.UnmarshalText([]byte("DELAYED")))
	assert.Equal(t, StatusScheduled, s)

	require.NoError(t, s.UnmarshalText([]byte("diverted")))
	assert.Equal(t, StatusDiverted, s)
}

func TestFilterNormalize(t *testing.T) {
	t.Parallel()

	f := Filter{
		AirlineCodes: []string{" ju", "W6", "JU", ""},
		Routes:       []string{"beg-cdg", "BEG-AMS"},
	}.Normalize()

	assert.Equal(t, []string{"JU", "W6"}, f.AirlineCodes)
	assert.Equal(t, []string{"BEG-AMS", "BEG-CDG"}, f.Routes)
	assert.Equal(t, AllOperationTypes, f.OperationTypeID)

	assert.Equal(t, Filter{OperationTypeID: AllOperationTypes}, Filter{OperationTypeID: "all"}.Normalize())
}

func TestFilterMatch(t *testing.T) {
	rec := Record{
		Route:           lo.ToPtr("BEG-CDG"),
		Airline:         Airline{Code: "JU"},
		OperationTypeID: "SCH",
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty filter", Filter{}, true},
		{"airline match case-insensitive", Filter{AirlineCodes: []string{"ju"}}, true},
		{"airline miss", Filter{AirlineCodes: []string{"W6"}}, false},
		{"route match", Filter{Routes: []string{"BEG-CDG", "BEG-AMS"}}, true},
		{"route miss", Filter{Routes: []string{"BEG-AMS"}}, false},
		{"operation type ALL", Filter{OperationTypeID: "ALL"}, true},
		{"operation type match", Filter{OperationTypeID: "sch"}, true},
		{"operation type miss", Filter{OperationTypeID: "CHR"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(&rec))
		})
	}
}

func TestFilterApplyKeepsOrder(t *testing.T) {
	t.Parallel()

	records := []Record{
		{Airline: Airline{Code: "JU"}, ArrivalFlightNumber: lo.ToPtr("1")},
		{Airline: Airline{Code: "W6"}, ArrivalFlightNumber: lo.ToPtr("2")},
		{Airline: Airline{Code: "JU"}, ArrivalFlightNumber: lo.ToPtr("3")},
	}

	got := Filter{AirlineCodes: []string{"JU"}}.Apply(records)
	require.Len(t, got, 2)
	assert.Equal(t, "1", *got[0].ArrivalFlightNumber)
	assert.Equal(t, "3", *got[1].ArrivalFlightNumber)
}
