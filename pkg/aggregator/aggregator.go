package aggregator

import (
	"sort"
	"time"

	"github.com/0xmhha/flightops/pkg/flight"
	"github.com/0xmhha/flightops/pkg/metrics"
)

// Aggregator runs single-pass aggregations over record sets.
//
// An Aggregator holds only configuration; every Run builds fresh state, so
// one Aggregator can serve concurrent callers.
type Aggregator struct {
	config Config
}

// New creates a new aggregator.
//
// Parameters:
//   - cfg: Aggregator configuration
//
// Returns a configured Aggregator.
func New(cfg Config) *Aggregator {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Aggregator{config: cfg}
}

// Config returns the effective configuration.
func (a *Aggregator) Config() Config {
	return a.config
}

// pass is the mutable state of one Run.
type pass struct {
	cfg      Config
	res      *Result
	bindings []binding
}

// Run aggregates records in one pass and returns the totals.
//
// Records are never mutated. Running twice over the same input yields equal
// results.
func (a *Aggregator) Run(records []flight.Record) *Result {
	p := newPass(a.config)
	for i := range records {
		p.add(&records[i])
	}
	return p.finish()
}

func newPass(cfg Config) *pass {
	res := &Result{
		Routes:         NewTable[string](),
		Airlines:       NewTable[string](),
		OperationTypes: NewTable[string](),
		Days:           NewTable[string](),
		Months:         NewTable[string](),
		Quarters:       NewTable[string](),
		Years:          NewTable[string](),
		Hours:          NewTable[int](),
		AirlineInfo:    make(map[string]flight.Airline),
	}

	return &pass{
		cfg: cfg,
		res: res,
		bindings: []binding{
			bind(ByRoute, res.Routes),
			bind(ByAirline, res.Airlines),
			bind(ByOperationType, res.OperationTypes),
			bind(ByDay, res.Days),
			bind(ByMonth, res.Months),
			bind(ByQuarter, res.Quarters),
			bind(ByYear, res.Years),
		},
	}
}

func (p *pass) inRange(rec *flight.Record) bool {
	period := p.cfg.Period
	if period.From.IsZero() && period.To.IsZero() {
		return true
	}
	return period.Contains(rec.Date)
}

func (p *pass) add(rec *flight.Record) {
	if !p.inRange(rec) {
		p.res.OutOfRange++
		return
	}

	c := recordContribution(rec)
	for _, b := range p.bindings {
		b.add(rec, &c)
	}

	p.addTotals(rec, &c)
	p.addLegs(rec)

	key := rec.AirlineKey()
	if _, ok := p.res.AirlineInfo[key]; !ok {
		p.res.AirlineInfo[key] = rec.Airline
	}
}

// recordContribution derives what one record adds to every dimension.
// Seats and load-factor passengers are only counted for records that
// declare a seat capacity and have at least one leg.
func recordContribution(rec *flight.Record) Contribution {
	legs := metrics.LegCount(rec)
	pax := metrics.Passengers(rec)

	c := Contribution{
		Flights:    legs,
		Passengers: pax,
	}

	if metrics.SeatsPerLeg(rec) > 0 && legs > 0 {
		c.Seats = metrics.ArrivalSeats(rec) + metrics.DepartureSeats(rec)
		c.PassengersForLoad = pax
	}

	if rec.HasArrival() {
		c.AddDelay(metrics.ArrivalDelay(rec))
	}
	if rec.HasDeparture() {
		c.AddDelay(metrics.DepartureDelay(rec))
	}

	return c
}

func (p *pass) addTotals(rec *flight.Record, c *Contribution) {
	t := &p.res.Totals

	t.Records++
	t.Flights += c.Flights
	t.Passengers += c.Passengers
	t.Seats += c.Seats
	t.PassengersForLoad += c.PassengersForLoad

	for i := 0; i < c.Samples; i++ {
		d := c.Delays[i]
		t.DelayMinutesTotal += d
		t.DelaySamples++
		if metrics.IsOnTime(&d) {
			t.OnTime++
		}
		if p.cfg.TrackDelayPercentiles {
			p.res.DelaySamples = append(p.res.DelaySamples, d)
		}
	}

	if rec.HasArrival() {
		t.ArrivalFlights++
	}
	if rec.HasDeparture() {
		t.DepartureFlights++
	}
	t.ArrivalPassengers += metrics.ArrivalPassengers(rec)
	t.DeparturePassengers += metrics.DeparturePassengers(rec)

	t.BaggageKg += kg(rec.ArrivalBaggageKg) + kg(rec.DepartureBaggageKg)
	t.CargoKg += kg(rec.ArrivalCargoKg) + kg(rec.DepartureCargoKg)
	t.MailKg += kg(rec.ArrivalMailKg) + kg(rec.DepartureMailKg)
}

// leg is the per-leg view used for status counts and hour-of-day buckets.
type leg struct {
	status    flight.Status
	ferry     bool
	pax       int
	seats     int
	delay     *int
	scheduled *time.Time
	actual    *time.Time
}

func legsOf(rec *flight.Record) []leg {
	legs := make([]leg, 0, 2)
	if rec.HasArrival() {
		legs = append(legs, leg{
			status:    rec.ArrivalStatus,
			ferry:     rec.ArrivalFerryIn,
			pax:       metrics.ArrivalPassengers(rec),
			seats:     metrics.ArrivalSeats(rec),
			delay:     metrics.ArrivalDelay(rec),
			scheduled: rec.ArrivalScheduledTime,
			actual:    rec.ArrivalActualTime,
		})
	}
	if rec.HasDeparture() {
		legs = append(legs, leg{
			status:    rec.DepartureStatus,
			ferry:     rec.DepartureFerryOut,
			pax:       metrics.DeparturePassengers(rec),
			seats:     metrics.DepartureSeats(rec),
			delay:     metrics.DepartureDelay(rec),
			scheduled: rec.DepartureScheduledTime,
			actual:    rec.DepartureActualTime,
		})
	}
	return legs
}

func (p *pass) addLegs(rec *flight.Record) {
	seatsDeclared := metrics.SeatsPerLeg(rec) > 0

	for _, l := range legsOf(rec) {
		p.res.Totals.Legs.inc(l.status)
		if l.ferry {
			p.res.Totals.FerryLegs++
		}

		ts := l.scheduled
		if ts == nil {
			ts = l.actual
		}
		if ts == nil {
			p.res.UntimedLegs++
			continue
		}

		c := Contribution{Flights: 1, Passengers: l.pax}
		if seatsDeclared {
			c.Seats = l.seats
			c.PassengersForLoad = l.pax
		}
		c.AddDelay(l.delay)

		p.res.Hours.At(ts.In(p.cfg.Location).Hour()).Add(&c)
	}
}

func (p *pass) finish() *Result {
	if p.cfg.TrackDelayPercentiles {
		sort.Ints(p.res.DelaySamples)
	}
	return p.res
}

func kg(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
