package biodiversity

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// LoadThresholds reads thresholds from YAML or JSON. The document may be a
// bare list or a mapping with a "thresholds" key.
func LoadThresholds(r io.Reader) ([]Threshold, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("parse thresholds: %w", err)
	}

	n := &doc
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	if n.Kind == yaml.MappingNode {
		var wrapped struct {
			Thresholds []Threshold `yaml:"thresholds"`
		}
		if err := n.Decode(&wrapped); err != nil {
			return nil, fmt.Errorf("parse thresholds: %w", err)
		}
		return wrapped.Thresholds, nil
	}

	var out []Threshold
	if err := n.Decode(&out); err != nil {
		return nil, fmt.Errorf("parse thresholds: %w", err)
	}
	return out, nil
}
