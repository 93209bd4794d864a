package report

import (
	"sort"

	"github.com/samber/lo"
)

// rank builds the five route rankings from the full route table.
//
// Routes below MinRouteFlights are left out of every slice. Routes without a
// load factor or without delay samples are left out of the slices ranked by
// those values. Ties keep first-seen order.
func (b *Builder) rank(routes []GroupRow) Rankings {
	eligible := lo.Filter(routes, func(r GroupRow, _ int) bool {
		return r.Flights >= b.config.MinRouteFlights
	})

	withLoad := lo.Filter(eligible, func(r GroupRow, _ int) bool { return r.LoadFactor != nil })
	withDelay := lo.Filter(eligible, func(r GroupRow, _ int) bool { return r.AvgDelayMinutes != nil })
	withAvg := lo.Filter(eligible, func(r GroupRow, _ int) bool { return r.AvgPassengers != nil })

	n := b.config.TopN
	return Rankings{
		TopByPassengers: sortedTop(eligible, n, func(a, b GroupRow) bool {
			return a.Passengers > b.Passengers
		}),
		TopByLoadFactor: sortedTop(withLoad, n, func(a, b GroupRow) bool {
			return *a.LoadFactor > *b.LoadFactor
		}),
		MostDelayed: sortedTop(withDelay, n, func(a, b GroupRow) bool {
			return *a.AvgDelayMinutes > *b.AvgDelayMinutes
		}),
		LeastDelayed: sortedTop(withDelay, n, func(a, b GroupRow) bool {
			return *a.AvgDelayMinutes < *b.AvgDelayMinutes
		}),
		LowestAvgPassengers: sortedTop(withAvg, n, func(a, b GroupRow) bool {
			return *a.AvgPassengers < *b.AvgPassengers
		}),
	}
}

// sortedTop stable-sorts a copy of rows and keeps the first n.
func sortedTop(rows []GroupRow, n int, less func(a, b GroupRow) bool) []GroupRow {
	out := make([]GroupRow, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j])
	})
	return top(out, n)
}
