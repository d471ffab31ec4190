package subscription

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type inMemSource struct {
	plans []Plan
}

// NewInMemSource returns a PlansSource over a copy of the given plans.
// Panics if no plans are provided.
func NewInMemSource(plans ...Plan) PlansSource {
	if len(plans) < 1 {
		panic("subscription: at least one plan is required")
	}
	cp := make([]Plan, 0, len(plans))
	for _, p := range plans {
		cp = append(cp, p.clone())
	}
	return &inMemSource{plans: cp}
}

func (s *inMemSource) Load(ctx context.Context) ([]Plan, error) {
	out := make([]Plan, 0, len(s.plans))
	for _, p := range s.plans {
		out = append(out, p.clone())
	}
	return out, nil
}

// YAMLSource loads plans from a YAML document of the form:
//
//	plans:
//	  - id: starter
//	    name: Starter Plan
//	    price_id: pri_01h...
//	    price: {amount: 10000, currency: INR}
//	    trial_days: 14
type YAMLSource struct {
	path string
	data []byte
}

// NewYAMLFileSource reads plans from a file at load time.
func NewYAMLFileSource(path string) *YAMLSource {
	return &YAMLSource{path: path}
}

// NewYAMLSource parses plans from an in-memory document.
func NewYAMLSource(data []byte) *YAMLSource {
	return &YAMLSource{data: data}
}

type yamlCatalog struct {
	Plans []Plan `yaml:"plans"`
}

// Load parses the YAML document.
func (s *YAMLSource) Load(ctx context.Context) ([]Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := s.data
	if s.path != "" {
		b, err := os.ReadFile(s.path)
		if err != nil {
			return nil, fmt.Errorf("read plan catalog %q: %w", s.path, err)
		}
		data = b
	}

	var doc yamlCatalog
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse plan catalog: %w", err)
	}
	if len(doc.Plans) == 0 {
		return nil, errors.New("plan catalog has no plans")
	}
	return doc.Plans, nil
}
