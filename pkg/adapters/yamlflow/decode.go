package yamlflow

import (
	"fmt"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Decode parses one YAML flow document.
func Decode(data []byte) (*domain.Flow, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse yaml: %v", domain.ErrInvalidFlow, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: empty document", domain.ErrInvalidFlow)
	}
	return DecodeMap(raw)
}

// DecodeMap converts generic metadata (YAML, frontmatter, JSON) into a Flow.
// Scalars are coerced where the target expects strings, so rule keys such as
// [anxious, 3] may be written without quotes. Unknown keys are rejected.
func DecodeMap(raw map[string]any) (*domain.Flow, error) {
	var flow domain.Flow
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &flow,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidFlow, err)
	}
	return &flow, nil
}
