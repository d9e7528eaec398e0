package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/goby/internal/schema"
)

// classMetadata is the JSON document stored in system_classlist.metadata.
type classMetadata struct {
	Style schema.Style `json:"style"`
	Label labelConfig  `json:"label"`
}

type labelConfig struct {
	Properties []schema.PropID `json:"properties"`
}

// marshalClassMetadata converts the metadata fields of a class to JSON TEXT.
func marshalClassMetadata(c schema.Class) (string, error) {
	labels := c.LabelPropertyIDs
	if labels == nil {
		labels = []schema.PropID{}
	}
	data, err := json.Marshal(classMetadata{
		Style: c.Style,
		Label: labelConfig{Properties: labels},
	})
	if err != nil {
		return "", fmt.Errorf("marshal class metadata: %w", err)
	}
	return string(data), nil
}

// unmarshalClassMetadata parses JSON TEXT into the metadata fields of c.
func unmarshalClassMetadata(data string, c *schema.Class) error {
	c.LabelPropertyIDs = []schema.PropID{}
	if data == "" || data == "{}" {
		return nil
	}
	var meta classMetadata
	if err := json.Unmarshal([]byte(data), &meta); err != nil {
		return fmt.Errorf("unmarshal class metadata: %w", err)
	}
	c.Style = meta.Style
	if meta.Label.Properties != nil {
		c.LabelPropertyIDs = meta.Label.Properties
	}
	return nil
}
