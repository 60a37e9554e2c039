package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/dd0wney/cluso-patchplan/pkg/compare"
	"github.com/dd0wney/cluso-patchplan/pkg/simulator"
)

// Comparison output file names
const (
	ComparisonMarkdownFile = "comparison.md"
	ComparisonJSONFile     = "comparison.json"
)

// KeyMetrics are the rows of a comparison table, in display order
var KeyMetrics = []string{
	"time_to_full_patch",
	"exposure_window_weighted",
	"mixed_version_time_seconds",
	"number_of_degraded_intervals",
	"number_of_incompatibility_violations",
	"rollback_count",
	"total_downtime_seconds_overall",
	"number_of_guardrail_pauses",
}

// BestOfMetrics are summarised with the strategy achieving the lowest value
var BestOfMetrics = []string{
	"time_to_full_patch",
	"exposure_window_weighted",
	"total_downtime_seconds_overall",
}

// metricValue returns the numeric value of a scalar metric by its JSON name
func metricValue(m simulator.Metrics, key string) (float64, bool) {
	switch key {
	case "time_to_full_patch":
		return float64(m.TimeToFullPatch), true
	case "exposure_window_weighted":
		return m.ExposureWindowWeighted, true
	case "mixed_version_time_seconds":
		return float64(m.MixedVersionTimeSeconds), true
	case "number_of_degraded_intervals":
		return float64(m.NumberOfDegradedIntervals), true
	case "number_of_incompatibility_violations":
		return float64(m.NumberOfIncompatibilityViolations), true
	case "rollback_count":
		return float64(m.RollbackCount), true
	case "plan_abort_count":
		return float64(m.PlanAbortCount), true
	case "number_of_guardrail_pauses":
		return float64(m.NumberOfGuardrailPauses), true
	case "node_unavailability_seconds":
		return float64(m.NodeUnavailabilitySeconds), true
	case "total_downtime_seconds_overall":
		return float64(m.TotalDowntimeSecondsOverall), true
	case "max_continuous_downtime_seconds_overall":
		return float64(m.MaxContinuousDowntimeSecondsOverall), true
	default:
		return 0, false
	}
}

// FormatNumber renders large values with thousands separators, whole
// values without decimals and everything else with two decimals.
func FormatNumber(v float64) string {
	switch {
	case v > 10000:
		return groupThousands(strconv.FormatFloat(math.Round(v), 'f', 0, 64))
	case v == math.Trunc(v):
		return strconv.FormatFloat(v, 'f', 0, 64)
	default:
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
}

func groupThousands(digits string) string {
	var b strings.Builder
	for i, c := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}

// cell renders one strategy's value for a metric
func cell(res compare.Result, key string) string {
	if !res.OK() {
		return "error"
	}
	v, ok := metricValue(res.Simulation.Metrics, key)
	if !ok {
		return "N/A"
	}
	return FormatNumber(v)
}

// Best is the winning strategy for one metric
type Best struct {
	Metric   string
	Strategy string
	Value    float64
}

// BestStrategies picks the lowest value of each BestOfMetrics entry among
// successful results. Ties go to the earlier strategy.
func BestStrategies(results []compare.Result) []Best {
	out := make([]Best, 0, len(BestOfMetrics))
	for _, key := range BestOfMetrics {
		best := Best{Metric: key, Value: math.Inf(1)}
		for _, res := range compare.Successful(results) {
			v, _ := metricValue(res.Simulation.Metrics, key)
			if v < best.Value {
				best.Value = v
				best.Strategy = res.Strategy
			}
		}
		if best.Strategy != "" {
			out = append(out, best)
		}
	}
	return out
}

// WriteComparisonMarkdown writes a metric-by-strategy table, a best-of
// summary and the errors of strategies that failed.
func WriteComparisonMarkdown(w io.Writer, scenario string, results []compare.Result) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "# Strategy Comparison Results")
	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "## %s\n\n", scenario)

	header := "| Metric |"
	separator := "|--------|"
	for _, res := range results {
		header += " " + res.Strategy + " |"
		separator += "-------:|"
	}
	fmt.Fprintln(bw, header)
	fmt.Fprintln(bw, separator)
	for _, key := range KeyMetrics {
		row := "| " + key + " |"
		for _, res := range results {
			row += " " + cell(res, key) + " |"
		}
		fmt.Fprintln(bw, row)
	}
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "## Summary")
	fmt.Fprintln(bw)
	for _, best := range BestStrategies(results) {
		fmt.Fprintf(bw, "- **Best %s**: %s (%s)\n", best.Metric, best.Strategy, FormatNumber(best.Value))
	}

	failed := false
	for _, res := range results {
		if res.OK() {
			continue
		}
		if !failed {
			fmt.Fprintln(bw)
			fmt.Fprintln(bw, "## Failures")
			fmt.Fprintln(bw)
			failed = true
		}
		fmt.Fprintf(bw, "- %s (%s): %v\n", res.Strategy, res.Reason(), res.Err)
	}

	return bw.Flush()
}

// comparisonEntry is the JSON form of one compare.Result
type comparisonEntry struct {
	Strategy   string             `json:"strategy"`
	Steps      int                `json:"steps,omitempty"`
	Metrics    *simulator.Metrics `json:"metrics,omitempty"`
	Error      string             `json:"error,omitempty"`
	Reason     string             `json:"reason,omitempty"`
	DurationMs int64              `json:"duration_ms"`
}

// WriteComparisonJSON writes every result, including failures, as JSON
func WriteComparisonJSON(w io.Writer, scenario string, seed int64, results []compare.Result) error {
	doc := struct {
		Scenario string            `json:"scenario"`
		Seed     int64             `json:"seed"`
		Results  []comparisonEntry `json:"results"`
	}{
		Scenario: scenario,
		Seed:     seed,
		Results:  make([]comparisonEntry, 0, len(results)),
	}
	for _, res := range results {
		entry := comparisonEntry{
			Strategy:   res.Strategy,
			DurationMs: res.Duration.Milliseconds(),
		}
		if res.Plan != nil {
			entry.Steps = len(res.Plan.Steps)
		}
		if res.OK() {
			m := res.Simulation.Metrics
			entry.Metrics = &m
		} else {
			entry.Error = res.Err.Error()
			entry.Reason = res.Reason()
		}
		doc.Results = append(doc.Results, entry)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	errorStyle  = numberStyle.Foreground(lipgloss.Color("9"))
)

// ComparisonTable renders the comparison for a terminal
func ComparisonTable(results []compare.Result) string {
	headers := []string{"metric"}
	for _, res := range results {
		headers = append(headers, res.Strategy)
	}

	rows := make([][]string, 0, len(KeyMetrics))
	for _, key := range KeyMetrics {
		row := []string{key}
		for _, res := range results {
			row = append(row, cell(res, key))
		}
		rows = append(rows, row)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return cellStyle
			case !results[col-1].OK():
				return errorStyle
			default:
				return numberStyle
			}
		})
	return t.String()
}
