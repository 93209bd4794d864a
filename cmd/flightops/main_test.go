package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/flightops/pkg/config"
	"github.com/0xmhha/flightops/pkg/flight"
	"github.com/0xmhha/flightops/pkg/period"
)

const fixtureRecords = `{"date":"2024-05-10","route":"BEG-CDG","airline":{"code":"JU"},"arrivalFlightNumber":"JU210","arrivalPassengers":100,"availableSeats":200}
{"date":"2024-05-11","route":"BEG-CDG","airline":{"code":"JU"},"arrivalFlightNumber":"JU210","arrivalPassengers":100,"availableSeats":200}
{"date":"2024-06-10","route":"BEG-CDG","airline":{"code":"JU"},"arrivalFlightNumber":"JU210","arrivalPassengers":150,"availableSeats":200}
{"date":"2024-06-11","route":"BEG-CDG","airline":{"code":"JU"},"arrivalFlightNumber":"JU210","arrivalPassengers":150,"availableSeats":200}
{"date":"2024-06-12","route":"BEG-ZRH","airline":{"code":"LX"},"departureFlightNumber":"LX1413","departurePassengers":80,"availableSeats":100}
`

// setup writes a data directory and a config pointing at it.
func setup(t *testing.T, extra string) string {
	t.Helper()

	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "legs.jsonl"), []byte(fixtureRecords), 0o600))

	cfg := "store:\n  data_dir: " + dataDir + "\n" +
		"cache:\n  driver: bolt\n  db_path: " + filepath.Join(root, "cache.db") + "\n" +
		"logging:\n  level: error\n  output: " + filepath.Join(root, "flightops.log") + "\n" +
		"routes:\n  BEG-CDG: Paris\n" + extra

	path := filepath.Join(root, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestReportCommand(t *testing.T) {
	cfg := setup(t, "")

	out, err := execute(t, "--config", cfg, "report", "--from", "2024-06-01", "--to", "2024-06-30", "--format", "json")
	require.NoError(t, err)

	var r struct {
		Totals struct {
			Flights         int `json:"flights"`
			TotalPassengers int `json:"totalPassengers"`
		} `json:"totals"`
		ByRoute []struct {
			Key   string `json:"key"`
			Label string `json:"label"`
		} `json:"byRoute"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &r))

	assert.Equal(t, 3, r.Totals.Flights)
	assert.Equal(t, 380, r.Totals.TotalPassengers)
	require.NotEmpty(t, r.ByRoute)
	assert.Equal(t, "BEG-CDG", r.ByRoute[0].Key)
	assert.Equal(t, "Paris", r.ByRoute[0].Label)

	// Served again, now through the bolt cache.
	again, err := execute(t, "--config", cfg, "report", "--from", "2024-06-01", "--to", "2024-06-30", "--format", "json")
	require.NoError(t, err)
	assert.JSONEq(t, out, again)
}

func TestReportCacheFollowsConfig(t *testing.T) {
	cfg := setup(t, "")
	args := []string{"--config", cfg, "report", "--from", "2024-06-01", "--to", "2024-06-30", "--format", "json"}

	firstLabel := func() string {
		t.Helper()
		out, err := execute(t, args...)
		require.NoError(t, err)

		var r struct {
			ByRoute []struct {
				Label string `json:"label"`
			} `json:"byRoute"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &r))
		require.NotEmpty(t, r.ByRoute)
		return r.ByRoute[0].Label
	}

	assert.Equal(t, "Paris", firstLabel())

	data, err := os.ReadFile(cfg)
	require.NoError(t, err)
	edited := strings.Replace(string(data), "BEG-CDG: Paris", "BEG-CDG: Charles de Gaulle", 1)
	require.NoError(t, os.WriteFile(cfg, []byte(edited), 0o600))

	assert.Equal(t, "Charles de Gaulle", firstLabel())
}

func TestReportFilterAndTable(t *testing.T) {
	cfg := setup(t, "")

	out, err := execute(t, "--config", cfg, "report",
		"--from", "2024-06-01", "--to", "2024-06-30",
		"--airline", "lx", "--format", "table")
	require.NoError(t, err)

	assert.Contains(t, out, "Airport Report 2024-06-01..2024-06-30")
	assert.Contains(t, out, "80 (0 arr / 80 dep)")
	assert.NotContains(t, out, "Paris")
}

func TestReportCommandErrors(t *testing.T) {
	cfg := setup(t, "")

	_, err := execute(t, "--config", cfg, "report", "--from", "2024-06-01")
	assert.Error(t, err)

	_, err = execute(t, "--config", cfg, "report", "--from", "2024-06-30", "--to", "2024-06-01")
	assert.ErrorIs(t, err, period.ErrInvertedRange)

	_, err = execute(t, "--config", cfg, "report", "--from", "2024-06-01", "--to", "2024-06-30", "--format", "csv")
	assert.Error(t, err)

	_, err = execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "report", "--from", "2024-06-01", "--to", "2024-06-30")
	assert.ErrorIs(t, err, config.ErrConfigNotFound)
}

func TestCompareCommand(t *testing.T) {
	cfg := setup(t, "")

	out, err := execute(t, "--config", cfg, "compare",
		"--period", "2024-05-01:2024-05-31",
		"--period", "2024-06-01..2024-06-30",
		"--format", "json")
	require.NoError(t, err)

	var c struct {
		Metrics map[string]struct {
			GrowthPercent float64 `json:"growthPercent"`
		} `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &c))
	assert.Equal(t, 90.0, c.Metrics["passengers"].GrowthPercent)

	out, err = execute(t, "--config", cfg, "compare",
		"--period", "2024-04-01:2024-04-30",
		"--period", "2024-05-01:2024-05-31",
		"--period", "2024-06-01:2024-06-30",
		"--format", "json")
	require.NoError(t, err)

	var mc struct {
		Trend        []json.RawMessage `json:"trend"`
		CommonRoutes []json.RawMessage `json:"commonRoutes"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &mc))
	assert.Len(t, mc.Trend, 2)
	assert.Empty(t, mc.CommonRoutes)
}

func TestCompareRequests(t *testing.T) {
	q := &queryFlags{from: "2024-06-01", to: "2024-06-30", airlines: []string{"JU"}}

	reqs, err := compareRequests(q, nil, againstPrevious)
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, "2024-05-02", reqs[0].From)
	assert.Equal(t, "2024-05-31", reqs[0].To)
	assert.Equal(t, flight.Filter{AirlineCodes: []string{"JU"}}, reqs[0].Filter)
	assert.Equal(t, "2024-06-01", reqs[1].From)

	reqs, err = compareRequests(q, nil, againstYearAgo)
	require.NoError(t, err)
	assert.Equal(t, "2023-06-01", reqs[0].From)
	assert.Equal(t, "2023-06-30", reqs[0].To)

	_, err = compareRequests(q, nil, "last-week")
	assert.ErrorIs(t, err, errUnknownBaseline)

	_, err = compareRequests(q, []string{"2024-06-01:2024-06-30"}, "")
	assert.Error(t, err)

	_, err = compareRequests(q, []string{"2024-06-01", "2024-07-01:2024-07-31"}, "")
	assert.ErrorIs(t, err, errBadPeriodFlag)
}

func TestCustomCommand(t *testing.T) {
	cfg := setup(t, "")

	out, err := execute(t, "--config", cfg, "custom",
		"--from", "2024-06-01", "--to", "2024-06-30",
		"--group-by", "airline", "--format", "simple")
	require.NoError(t, err)
	assert.Equal(t, "JU: 2 flights, 300 passengers (LF: 75.00%)\nLX: 1 flights, 80 passengers (LF: 80.00%)\n", out)

	_, err = execute(t, "--config", cfg, "custom", "--from", "2024-06-01", "--to", "2024-06-30", "--group-by", "weekday")
	assert.ErrorContains(t, err, "groupBy")
}

func TestWatchRequiresFiles(t *testing.T) {
	cfg := setup(t, "")
	t.Setenv("FLIGHTOPS_DB_DSN", "postgres://ops@127.0.0.1:1/ops")

	_, err := execute(t, "--config", cfg, "watch", "--from", "2024-06-01", "--to", "2024-06-30")
	assert.ErrorIs(t, err, errWatchNeedsFiles)
}

func TestConfigCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flightops", "config.yaml")

	out, err := execute(t, "--config", path, "config", "init")
	require.NoError(t, err)
	assert.Equal(t, "wrote "+path+"\n", out)

	_, err = execute(t, "--config", path, "config", "init")
	assert.ErrorIs(t, err, errConfigExists)

	_, err = execute(t, "--config", path, "config", "init", "--force")
	require.NoError(t, err)

	out, err = execute(t, "--config", path, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)

	out, err = execute(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# Source: "+path+"\n"))
	assert.Contains(t, out, "min_route_flights: 3")

	out, err = execute(t, "--config", path, "config", "show", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"TopN": 10`)
}
