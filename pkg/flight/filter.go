package flight

import (
	"sort"
	"strings"

	"github.com/samber/lo"
)

// AllOperationTypes is the operation-type filter value that matches everything.
const AllOperationTypes = "ALL"

// Filter narrows a record set. Empty lists match everything.
type Filter struct {
	AirlineCodes    []string `json:"airlineCodes,omitempty" yaml:"airline_codes"`
	Routes          []string `json:"routes,omitempty" yaml:"routes"`
	OperationTypeID string   `json:"operationTypeId,omitempty" yaml:"operation_type_id"`
}

// Normalize returns a canonical copy: codes and routes trimmed, upper-cased,
// de-duplicated and sorted; an empty operation type becomes "ALL".
// Two filters that select the same records normalize to equal values.
func (f Filter) Normalize() Filter {
	return Filter{
		AirlineCodes:    normalizeList(f.AirlineCodes),
		Routes:          normalizeList(f.Routes),
		OperationTypeID: normalizeOperationType(f.OperationTypeID),
	}
}

// Match reports whether rec passes the filter.
func (f Filter) Match(rec *Record) bool {
	if len(f.AirlineCodes) > 0 && !containsFold(f.AirlineCodes, rec.AirlineKey()) {
		return false
	}

	if len(f.Routes) > 0 && !containsFold(f.Routes, rec.RouteKey()) {
		return false
	}

	op := normalizeOperationType(f.OperationTypeID)
	if op != AllOperationTypes && !strings.EqualFold(op, rec.OperationTypeKey()) {
		return false
	}

	return true
}

// Apply returns the records that pass the filter, in input order.
func (f Filter) Apply(records []Record) []Record {
	return lo.Filter(records, func(rec Record, _ int) bool {
		return f.Match(&rec)
	})
}

func normalizeList(in []string) []string {
	out := lo.Uniq(lo.FilterMap(in, func(s string, _ int) (string, bool) {
		s = strings.ToUpper(strings.TrimSpace(s))
		return s, s != ""
	}))
	sort.Strings(out)
	if len(out) == 0 {
		return nil
	}
	return out
}

func normalizeOperationType(op string) string {
	op = strings.TrimSpace(op)
	if op == "" || strings.EqualFold(op, AllOperationTypes) {
		return AllOperationTypes
	}
	return op
}

func containsFold(list []string, v string) bool {
	return lo.ContainsBy(list, func(item string) bool {
		return strings.EqualFold(strings.TrimSpace(item), v)
	})
}
