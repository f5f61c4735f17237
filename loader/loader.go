// Package loader reads flow definitions from disk, normalizes them, and
// registers them in an in-memory registry. Registration is fail-closed: a
// definition that does not validate as a DAG never becomes loadable.
//
// Both JSON and YAML documents are accepted; the wire shape matches the
// authored-flow format (settings.timeout in milliseconds).
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/flowmesh/flowmesh/aggregate"
	"github.com/flowmesh/flowmesh/core"
	"gopkg.in/yaml.v3"
)

// Parse decodes a flow definition document. Format is inferred from the
// document itself being JSON when it starts with '{'; callers with a file
// extension should prefer LoadFile.
func Parse(data []byte) (*core.FlowDefinition, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		return parseJSON(data)
	}
	return parseYAML(data)
}

func parseJSON(data []byte) (*core.FlowDefinition, error) {
	var def core.FlowDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("decode flow definition: %w", err)
	}
	return normalize(&def)
}

func parseYAML(data []byte) (*core.FlowDefinition, error) {
	var def core.FlowDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("decode flow definition: %w", err)
	}
	return normalize(&def)
}

// LoadFile reads and parses one definition file (.json, .yaml or .yml).
func LoadFile(path string) (*core.FlowDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read flow definition %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return parseJSON(data)
	case ".yaml", ".yml":
		return parseYAML(data)
	default:
		return nil, fmt.Errorf("unsupported flow definition extension %q", filepath.Ext(path))
	}
}

// normalize applies defaults and checks the pieces structural validation
// does not cover (definition identity, transform names).
func normalize(def *core.FlowDefinition) (*core.FlowDefinition, error) {
	if def.ID == "" {
		return nil, fmt.Errorf("flow definition has no id")
	}

	for i := range def.Steps {
		step := &def.Steps[i]
		if step.Input.Source == "" {
			step.Input.Source = core.SourceRequest
		}
		if step.Input.Transform == "" {
			step.Input.Transform = core.TransformPassthrough
		}
		if !aggregate.Known(step.Input.Transform) {
			return nil, fmt.Errorf("step %s: unknown transform %q", step.ID, step.Input.Transform)
		}
		if step.Retry.MaxAttempts < 1 {
			step.Retry.MaxAttempts = 1
		}
	}
	if def.Settings.MaxParallelism < 1 {
		def.Settings.MaxParallelism = 1
	}

	return def, nil
}
