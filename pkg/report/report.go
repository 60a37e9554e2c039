// Package report writes simulation results to disk and renders strategy
// comparisons.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-patchplan/pkg/constraints"
	"github.com/dd0wney/cluso-patchplan/pkg/infra"
	"github.com/dd0wney/cluso-patchplan/pkg/logging"
	"github.com/dd0wney/cluso-patchplan/pkg/simulator"
)

// Output file names
const (
	PlanFile             = "plan.json"
	EventsFile           = "events.jsonl"
	EventsCompressedFile = "events.jsonl.sz"
	MetricsFile          = "metrics.csv"
	MarkdownFile         = "report.md"
	ManifestFile         = "manifest.json"
)

// Manifest describes one output directory
type Manifest struct {
	RunID       string    `json:"run_id"`
	Scenario    string    `json:"scenario"`
	Strategy    string    `json:"strategy"`
	Seed        int64     `json:"seed"`
	GeneratedAt time.Time `json:"generated_at"`
	Files       []string  `json:"files"`
	// FinalStateViolations lists constraints still broken after the last step
	FinalStateViolations []string `json:"final_state_violations"`
}

// Option configures a Writer
type Option func(*Writer)

// WithCompressedEvents writes events.jsonl.sz instead of events.jsonl
func WithCompressedEvents(compress bool) Option {
	return func(w *Writer) {
		w.compress = compress
	}
}

// WithLogger sets the writer logger
func WithLogger(logger logging.Logger) Option {
	return func(w *Writer) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Writer writes the artifacts of a single run into a directory
type Writer struct {
	dir      string
	compress bool
	logger   logging.Logger
	now      func() time.Time
	newID    func() string
}

// NewWriter returns a writer for dir. The directory is created on Write.
func NewWriter(dir string, opts ...Option) *Writer {
	w := &Writer{
		dir:    dir,
		logger: logging.NewNopLogger(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Dir returns the output directory
func (w *Writer) Dir() string {
	return w.dir
}

// Write stores plan, events, metrics, the markdown report and a manifest.
// g is the graph the engine ran against; its final state is checked for
// constraints that still fail.
func (w *Writer) Write(sc *infra.Scenario, g *infra.Graph, result *simulator.SimulationResult, seed int64) (*Manifest, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	final := constraints.NewStateValidator().Validate(g, sc, nil)
	manifest := &Manifest{
		RunID:                w.newID(),
		Scenario:             sc.Name,
		Strategy:             result.Plan.Strategy,
		Seed:                 seed,
		GeneratedAt:          w.now().UTC(),
		FinalStateViolations: final.Strings(),
	}
	log := w.logger.With(logging.RunID(manifest.RunID), logging.Path(w.dir))

	eventsFile, writeEvents := EventsFile, WriteEvents
	if w.compress {
		eventsFile, writeEvents = EventsCompressedFile, WriteEventsCompressed
	}

	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{PlanFile, func(out io.Writer) error { return WritePlan(out, result.Plan) }},
		{eventsFile, func(out io.Writer) error { return writeEvents(out, result.Events) }},
		{MetricsFile, func(out io.Writer) error { return WriteMetricsCSV(out, result.Metrics) }},
		{MarkdownFile, func(out io.Writer) error {
			return WriteMarkdown(out, sc, result, manifest.FinalStateViolations)
		}},
	}
	for _, f := range files {
		if err := w.writeFile(f.name, f.write); err != nil {
			return nil, err
		}
		manifest.Files = append(manifest.Files, f.name)
	}

	manifest.Files = append(manifest.Files, ManifestFile)
	if err := w.writeFile(ManifestFile, func(out io.Writer) error {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(manifest)
	}); err != nil {
		return nil, err
	}

	if !final.Valid {
		log.Warn("final state violates constraints", logging.Strings("violations", manifest.FinalStateViolations))
	}
	log.Info("report written", logging.Count(len(manifest.Files)))
	return manifest, nil
}

// writeFile renders into memory first so a failed render never leaves a
// truncated file behind.
func (w *Writer) writeFile(name string, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadManifest loads the manifest from an output directory
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}
