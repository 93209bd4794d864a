package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/samber/lo"

	"github.com/0xmhha/flightops/pkg/flight"
	"github.com/0xmhha/flightops/pkg/logger"
	"github.com/0xmhha/flightops/pkg/period"
)

// DefaultTable is the flight-leg table read by the Postgres store.
const DefaultTable = "flight_legs"

// SQL forms of the Record grouping keys, upper-cased for comparison with
// a normalized filter. Blank columns fall back to flight.NoKey.
const (
	airlineKeyExpr = `upper(coalesce(nullif(trim(airline_code), ''), nullif(trim(airline_name), ''), '` + flight.NoKey + `'))`
	routeKeyExpr   = `upper(coalesce(nullif(trim(route), ''), '` + flight.NoKey + `'))`
	opTypeKeyExpr  = `upper(coalesce(nullif(trim(operation_type_id), ''), '` + flight.NoKey + `'))`
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// recordColumns is the column list scanned into flight.Record, in scan order.
var recordColumns = []string{
	"flight_date",
	"route",
	"airline_id",
	"airline_name",
	"airline_code",
	"operation_type_id",
	"arrival_flight_number",
	"departure_flight_number",
	"arrival_passengers",
	"departure_passengers",
	"arrival_ferry_in",
	"departure_ferry_out",
	"available_seats",
	"aircraft_type_seats",
	"arrival_status",
	"departure_status",
	"arrival_scheduled_time",
	"arrival_actual_time",
	"departure_scheduled_time",
	"departure_actual_time",
	"arrival_baggage_kg",
	"arrival_cargo_kg",
	"arrival_mail_kg",
	"departure_baggage_kg",
	"departure_cargo_kg",
	"departure_mail_kg",
}

// Postgres reads flight records from a Postgres table.
type Postgres struct {
	db     *sql.DB
	table  string
	logger logger.Logger
}

// OpenPostgres connects with the pgx driver and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return db, nil
}

// NewPostgres creates a store reading from table (optionally schema-qualified).
func NewPostgres(db *sql.DB, table string, log logger.Logger) (*Postgres, error) {
	if table == "" {
		table = DefaultTable
	}
	if !identifierPattern.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}
	return &Postgres{db: db, table: table, logger: log.Component("store")}, nil
}

// Close closes the underlying database handle.
func (s *Postgres) Close() error {
	return s.db.Close()
}

// Fetch implements RecordStore.Fetch.
func (s *Postgres) Fetch(ctx context.Context, p period.Period, f flight.Filter) ([]flight.Record, error) {
	f = f.Normalize()
	query, args := buildQuery(s.table, p, f)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query flight legs: %w", err)
	}
	defer rows.Close() // nolint:errcheck // read-only cursor

	var records []flight.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read flight legs: %w", err)
	}

	// SQL narrows the scan; Match keeps key semantics identical to the other stores.
	records = f.Apply(records)

	if unknown := lo.CountBy(records, func(r flight.Record) bool { return r.UnknownStatus() }); unknown > 0 {
		s.logger.Warn("unknown leg statuses read as SCHEDULED", "period", p.String(), "records", unknown)
	}

	s.logger.Debug("fetch complete", "period", p.String(), "records", len(records))
	return records, nil
}

// buildQuery builds the SELECT for a period and a normalized filter.
func buildQuery(table string, p period.Period, f flight.Filter) (string, []any) {
	var b strings.Builder
	args := []any{p.From.Format(period.DayLayout), p.To.Format(period.DayLayout)}

	fmt.Fprintf(&b, "SELECT %s FROM %s WHERE flight_date BETWEEN $1 AND $2",
		strings.Join(recordColumns, ", "), quoteIdentifier(table))

	if len(f.AirlineCodes) > 0 {
		args = append(args, f.AirlineCodes)
		fmt.Fprintf(&b, " AND %s = ANY($%d)", airlineKeyExpr, len(args))
	}
	if len(f.Routes) > 0 {
		args = append(args, f.Routes)
		fmt.Fprintf(&b, " AND %s = ANY($%d)", routeKeyExpr, len(args))
	}
	if f.OperationTypeID != "" && f.OperationTypeID != flight.AllOperationTypes {
		args = append(args, strings.ToUpper(f.OperationTypeID))
		fmt.Fprintf(&b, " AND %s = $%d", opTypeKeyExpr, len(args))
	}

	b.WriteString(" ORDER BY flight_date")
	return b.String(), args
}

// quoteIdentifier quotes each dot-separated part of a validated identifier.
func quoteIdentifier(name string) string {
	parts := strings.Split(name, ".")
	for i, part := range parts {
		parts[i] = `"` + strings.ReplaceAll(part, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (flight.Record, error) {
	var (
		rec                    flight.Record
		airlineID, airlineName sql.NullString
		airlineCode, opType    sql.NullString
		ferryIn, ferryOut      sql.NullBool
		arrStatus, depStatus   sql.NullString
	)

	err := row.Scan(
		&rec.Date,
		&rec.Route,
		&airlineID,
		&airlineName,
		&airlineCode,
		&opType,
		&rec.ArrivalFlightNumber,
		&rec.DepartureFlightNumber,
		&rec.ArrivalPassengers,
		&rec.DeparturePassengers,
		&ferryIn,
		&ferryOut,
		&rec.AvailableSeats,
		&rec.AircraftTypeSeats,
		&arrStatus,
		&depStatus,
		&rec.ArrivalScheduledTime,
		&rec.ArrivalActualTime,
		&rec.DepartureScheduledTime,
		&rec.DepartureActualTime,
		&rec.ArrivalBaggageKg,
		&rec.ArrivalCargoKg,
		&rec.ArrivalMailKg,
		&rec.DepartureBaggageKg,
		&rec.DepartureCargoKg,
		&rec.DepartureMailKg,
	)
	if err != nil {
		return flight.Record{}, fmt.Errorf("failed to scan flight leg: %w", err)
	}

	rec.Airline = flight.Airline{ID: airlineID.String, Name: airlineName.String, Code: airlineCode.String}
	rec.OperationTypeID = opType.String
	rec.ArrivalFerryIn = ferryIn.Bool
	rec.DepartureFerryOut = ferryOut.Bool

	rec.SetStatuses(arrStatus.String, depStatus.String)

	return rec, nil
}
