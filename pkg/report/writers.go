package report

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/golang/snappy"

	"github.com/dd0wney/cluso-patchplan/pkg/infra"
	"github.com/dd0wney/cluso-patchplan/pkg/simulator"
)

// WritePlan writes the plan as indented JSON
func WritePlan(w io.Writer, plan *infra.Plan) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(plan); err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	return nil
}

// WriteEvents writes one JSON object per line
func WriteEvents(w io.Writer, events []simulator.Event) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for i, ev := range events {
		if err := enc.Encode(ev); err != nil {
			return fmt.Errorf("encode event %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// WriteEventsCompressed writes the JSON lines inside a snappy framed stream
func WriteEventsCompressed(w io.Writer, events []simulator.Event) error {
	sw := snappy.NewBufferedWriter(w)
	if err := WriteEvents(sw, events); err != nil {
		sw.Close()
		return err
	}
	if err := sw.Close(); err != nil {
		return fmt.Errorf("close snappy stream: %w", err)
	}
	return nil
}

// ReadEvents decodes an event log written by WriteEvents or, when
// compressed is true, by WriteEventsCompressed.
func ReadEvents(r io.Reader, compressed bool) ([]simulator.Event, error) {
	if compressed {
		r = snappy.NewReader(r)
	}
	events := make([]simulator.Event, 0)
	dec := json.NewDecoder(r)
	for dec.More() {
		var ev simulator.Event
		if err := dec.Decode(&ev); err != nil {
			return nil, fmt.Errorf("decode event %d: %w", len(events), err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// WriteMetricsCSV writes a metric,value table with per-service maps
// flattened into "<metric>.<service>" rows.
func WriteMetricsCSV(w io.Writer, m simulator.Metrics) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"metric", "value"}); err != nil {
		return err
	}
	for _, row := range m.Flatten() {
		if err := cw.Write([]string{row.Name, row.Value}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadMetricsCSV reads a file written by WriteMetricsCSV back into
// name/value pairs.
func ReadMetricsCSV(r io.Reader) (map[string]string, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read metrics csv: %w", err)
	}
	if len(records) == 0 || len(records[0]) != 2 || records[0][0] != "metric" {
		return nil, fmt.Errorf("read metrics csv: missing metric,value header")
	}
	values := make(map[string]string, len(records)-1)
	for _, rec := range records[1:] {
		values[rec[0]] = rec[1]
	}
	return values, nil
}

// WriteMarkdown writes the human-readable run report. violations lists
// constraints the final state still breaks, if any.
func WriteMarkdown(w io.Writer, sc *infra.Scenario, result *simulator.SimulationResult, violations []string) error {
	bw := bufio.NewWriter(w)
	m := result.Metrics

	fmt.Fprintln(bw, "# Patch Strategy Report")
	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "- scenario: %s\n", sc.Name)
	fmt.Fprintf(bw, "- strategy: %s\n", result.Plan.Strategy)
	fmt.Fprintf(bw, "- steps: %d\n", len(result.Plan.Steps))
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "## Summary")
	fmt.Fprintln(bw)
	for _, row := range m.Flatten() {
		if _, nested := perServiceKeys[metricBase(row.Name)]; nested {
			continue
		}
		fmt.Fprintf(bw, "- %s: %s\n", row.Name, row.Value)
	}
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "## Downtime Breakdown")
	fmt.Fprintln(bw)
	services := make([]string, 0, len(m.TotalDowntimeSeconds))
	for service := range m.TotalDowntimeSeconds {
		services = append(services, service)
	}
	sort.Strings(services)
	if len(services) == 0 {
		fmt.Fprintln(bw, "No service downtime.")
	}
	for _, service := range services {
		fmt.Fprintf(bw, "- %s: %d (longest continuous %d)\n",
			service, m.TotalDowntimeSeconds[service], m.MaxContinuousDowntimeSeconds[service])
	}
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "## Final State")
	fmt.Fprintln(bw)
	if len(violations) == 0 {
		fmt.Fprintln(bw, "All constraints hold.")
	}
	for _, v := range violations {
		fmt.Fprintf(bw, "- %s\n", v)
	}

	return bw.Flush()
}

var perServiceKeys = map[string]struct{}{
	"total_downtime_seconds":          {},
	"max_continuous_downtime_seconds": {},
}

// metricBase strips a ".<service>" suffix from a flattened metric name
func metricBase(name string) string {
	base, _, _ := strings.Cut(name, ".")
	return base
}
