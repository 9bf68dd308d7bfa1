package config

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Decimal is how prices, amounts and percentages are written in the config
// file. Wrapping decimal.Decimal keeps float rounding out of order
// arithmetic; bare and quoted scalars both parse, an absent or null value is
// zero and left to validation to reject where zero makes no sense.
type Decimal struct {
	decimal.Decimal
}

func (d *Decimal) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number, got a %s", node.Line, yamlKindName(node.Kind))
	}
	raw := strings.TrimSpace(node.Value)
	if raw == "" || node.Tag == "!!null" {
		d.Decimal = decimal.Zero
		return nil
	}
	parsed, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("line %d: cannot read %q as a number", node.Line, node.Value)
	}
	d.Decimal = parsed
	return nil
}

// MarshalYAML emits the exact decimal string so a round-tripped config keeps
// its precision.
func (d Decimal) MarshalYAML() (interface{}, error) {
	return d.Decimal.String(), nil
}

func yamlKindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}
