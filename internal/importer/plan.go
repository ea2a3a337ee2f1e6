package importer

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const PlanVersion = 1

// Plan is the saved form of a session's mappings and relationships.
type Plan struct {
	Version       int            `yaml:"version"`
	Source        string         `yaml:"source,omitempty"`
	Mappings      []Mapping      `yaml:"mappings"`
	Relationships []Relationship `yaml:"relationships,omitempty"`
}

func MarshalPlan(p Plan) ([]byte, error) {
	if p.Version == 0 {
		p.Version = PlanVersion
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("failed to encode plan: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode plan: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalPlan parses a plan, rejecting unknown keys and newer versions.
func UnmarshalPlan(data []byte) (Plan, error) {
	var p Plan
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return Plan{}, fmt.Errorf("plan is empty")
		}
		return Plan{}, fmt.Errorf("failed to parse plan: %w", err)
	}

	if p.Version == 0 {
		p.Version = PlanVersion
	}
	if p.Version > PlanVersion {
		return Plan{}, fmt.Errorf("plan version %d is not supported", p.Version)
	}
	for i, r := range p.Relationships {
		if !r.Complete() {
			return Plan{}, fmt.Errorf("relationship %d is incomplete", i+1)
		}
	}
	return p, nil
}
