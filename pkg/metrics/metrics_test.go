package metrics

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/flightops/pkg/flight"
)

func TestPassengersFerryZeroing(t *testing.T) {
	t.Parallel()

	rec := &flight.Record{
		ArrivalFlightNumber:   lo.ToPtr("JU100"),
		DepartureFlightNumber: lo.ToPtr("JU101"),
		ArrivalPassengers:     lo.ToPtr(150),
		DeparturePassengers:   lo.ToPtr(80),
		ArrivalFerryIn:        true,
	}

	assert.Equal(t, 0, ArrivalPassengers(rec))
	assert.Equal(t, 80, DeparturePassengers(rec))
	assert.Equal(t, 80, Passengers(rec))

	rec.DepartureFerryOut = true
	assert.Equal(t, 0, Passengers(rec))
}

func TestPassengersMissingFields(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, Passengers(&flight.Record{}))
}

func TestLegCount(t *testing.T) {
	tests := []struct {
		name string
		rec  flight.Record
		want int
	}{
		{"none", flight.Record{}, 0},
		{"arrival only", flight.Record{ArrivalFlightNumber: lo.ToPtr("JU1")}, 1},
		{"departure only", flight.Record{DepartureFlightNumber: lo.ToPtr("JU2")}, 1},
		{"both", flight.Record{ArrivalFlightNumber: lo.ToPtr("JU1"), DepartureFlightNumber: lo.ToPtr("JU2")}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LegCount(&tt.rec))
		})
	}
}

func TestSeatsPerLeg(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, SeatsPerLeg(&flight.Record{}))
	assert.Equal(t, 180, SeatsPerLeg(&flight.Record{AircraftTypeSeats: lo.ToPtr(180)}))
	assert.Equal(t, 174, SeatsPerLeg(&flight.Record{AvailableSeats: lo.ToPtr(174), AircraftTypeSeats: lo.ToPtr(180)}))
}

func TestLegSeats(t *testing.T) {
	t.Parallel()

	rec := &flight.Record{
		ArrivalFlightNumber:   lo.ToPtr("JU1"),
		DepartureFlightNumber: lo.ToPtr("JU2"),
		AvailableSeats:        lo.ToPtr(120),
		ArrivalFerryIn:        true,
	}
	assert.Equal(t, 0, ArrivalSeats(rec))
	assert.Equal(t, 120, DepartureSeats(rec))

	rec.DepartureFlightNumber = nil
	assert.Equal(t, 0, DepartureSeats(rec))
}

func TestDelayMinutes(t *testing.T) {
	sched := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		v := sched.Add(d)
		return &v
	}

	tests := []struct {
		name   string
		actual *time.Time
		want   *int
	}{
		{"on schedule", at(0), lo.ToPtr(0)},
		{"late", at(42 * time.Minute), lo.ToPtr(42)},
		{"rounds half up", at(90 * time.Second), lo.ToPtr(2)},
		{"rounds down", at(89 * time.Second), lo.ToPtr(1)},
		{"early floors at zero", at(-25 * time.Minute), lo.ToPtr(0)},
		{"missing actual", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DelayMinutes(&sched, tt.actual))
		})
	}

	assert.Nil(t, DelayMinutes(nil, at(5*time.Minute)))
}

func TestLegDelaySkipsCancelled(t *testing.T) {
	t.Parallel()

	sched := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	actual := sched.Add(40 * time.Minute)
	rec := &flight.Record{
		ArrivalScheduledTime:   &sched,
		ArrivalActualTime:      &actual,
		ArrivalStatus:          flight.StatusCancelled,
		DepartureScheduledTime: &sched,
		DepartureActualTime:    &actual,
		DepartureStatus:        flight.StatusOperated,
	}

	assert.Nil(t, ArrivalDelay(rec))
	require.NotNil(t, DepartureDelay(rec))
	assert.Equal(t, 40, *DepartureDelay(rec))
}

func TestIsOnTime(t *testing.T) {
	t.Parallel()

	assert.False(t, IsOnTime(nil))
	assert.True(t, IsOnTime(lo.ToPtr(0)))
	assert.True(t, IsOnTime(lo.ToPtr(15)))
	assert.False(t, IsOnTime(lo.ToPtr(16)))
}

func TestRateAndAverage(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Rate(10, 0))
	assert.Nil(t, Rate(0, 0))
	require.NotNil(t, Rate(100, 150))
	assert.Equal(t, 66.67, *Rate(100, 150))
	assert.Equal(t, 0.0, *Rate(0, 10))

	assert.Nil(t, Average(30, 0))
	assert.Equal(t, 7.33, *Average(22, 3))
}

func TestRound2(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.01, *Round2(1.005))
	assert.Equal(t, -2.35, *Round2(-2.345))
	assert.Equal(t, 12.0, Round2Value(12))
}
