package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDecimalUnmarshal(t *testing.T) {
	var doc struct {
		Price Decimal `yaml:"price"`
	}

	require.NoError(t, yaml.Unmarshal([]byte("price: 103.0206"), &doc))
	assert.Equal(t, "103.0206", doc.Price.String())

	// Quoting protects trailing zeros from the YAML number parser.
	require.NoError(t, yaml.Unmarshal([]byte(`price: "0.010"`), &doc))
	assert.Equal(t, "0.010", doc.Price.String())

	require.NoError(t, yaml.Unmarshal([]byte("price: null"), &doc))
	assert.True(t, doc.Price.IsZero())

	require.NoError(t, yaml.Unmarshal([]byte("price:"), &doc))
	assert.True(t, doc.Price.IsZero())
}

func TestDecimalUnmarshalRejectsNonNumbers(t *testing.T) {
	var doc struct {
		Price Decimal `yaml:"price"`
	}

	err := yaml.Unmarshal([]byte("price: cheap"), &doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot read")

	err = yaml.Unmarshal([]byte("price:\n  - 1\n  - 2"), &doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sequence")
}

func TestDecimalMarshalKeepsPrecision(t *testing.T) {
	var doc struct {
		Price Decimal `yaml:"price"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(`price: "0.0100"`), &doc))

	out, err := yaml.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(out), "0.0100")
}
