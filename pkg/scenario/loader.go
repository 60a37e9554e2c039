// Package scenario loads rollout scenarios and plans from disk.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-patchplan/pkg/infra"
	"github.com/dd0wney/cluso-patchplan/pkg/validation"
)

var (
	// ErrInvalidScenario is returned when a scenario document fails validation
	ErrInvalidScenario = errors.New("invalid scenario")
	// ErrEmptyScenario is returned for a file with no YAML content
	ErrEmptyScenario = errors.New("empty scenario file")
)

const defaultMinUp = 1

// Load reads a scenario from a YAML file. A document without a name is
// named after the file stem.
func Load(path string) (*infra.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	sc, err := Parse(data, stem)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes a YAML scenario document. defaultName is used when the
// document does not set one.
func Parse(data []byte, defaultName string) (*infra.Scenario, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyScenario
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}
	if err := doc.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}

	sc := &infra.Scenario{
		Name:                           validation.DefaultOr(doc.Name, defaultName),
		Seed:                           doc.Seed,
		IncompatibleMaxDurationSeconds: doc.IncompatibleMaxDurationSeconds,
		MinUpDefault:                   defaultMinUp,
		Nodes:                          make([]infra.Node, 0, len(doc.Nodes)),
		Edges:                          make([]infra.Edge, 0, len(doc.Edges)),
		Metadata:                       doc.Metadata,
	}
	if doc.MinUpDefault != nil {
		sc.MinUpDefault = *doc.MinUpDefault
	}
	if sc.Metadata == nil {
		sc.Metadata = map[string]any{}
	}
	for i := range doc.Nodes {
		sc.Nodes = append(sc.Nodes, doc.Nodes[i].node(doc.Patches))
	}
	for i := range doc.Edges {
		sc.Edges = append(sc.Edges, doc.Edges[i].edge())
	}
	return sc, nil
}

// validate runs struct tag checks, then value ranges, then the
// cross-references. Every problem is reported, not just the first.
func (d *document) validate() error {
	cv := validation.NewConfigValidator("scenario")
	cv.Merge(validation.Struct(d))

	for i := range d.Nodes {
		d.Nodes[i].check(cv, fmt.Sprintf("nodes[%d]", i))
	}
	for _, id := range slices.Sorted(maps.Keys(d.Patches)) {
		p := d.Patches[id]
		p.check(cv, "patches."+id)
	}

	seen := make(map[string]bool, len(d.Nodes))
	for i, n := range d.Nodes {
		if n.ID == "" {
			continue
		}
		if seen[n.ID] {
			cv.Custom(fmt.Sprintf("nodes[%d].id", i), func() error {
				return fmt.Errorf("%w: %s", infra.ErrDuplicateNode, n.ID)
			})
		}
		seen[n.ID] = true
	}

	for i, e := range d.Edges {
		for _, end := range []struct{ field, id string }{{"source", e.Source}, {"target", e.Target}} {
			if end.id == "" || seen[end.id] {
				continue
			}
			cv.Custom(fmt.Sprintf("edges[%d].%s", i, end.field), func() error {
				return fmt.Errorf("%w: %s", infra.ErrUnknownEndpoint, end.id)
			})
		}
	}

	return cv.Validate()
}
