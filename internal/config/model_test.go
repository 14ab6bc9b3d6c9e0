package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func TestModel_UpsertKeepsOrder(t *testing.T) {
	m := &Model{}
	m.UpsertRisk(&RiskRule{ID: "a", Severity: "info"})
	m.UpsertRisk(&RiskRule{ID: "b", Severity: "info"})
	m.UpsertRisk(&RiskRule{ID: "a", Severity: "critical"})

	require.Len(t, m.RiskRules, 2)
	assert.Equal(t, "a", m.RiskRules[0].ID)
	assert.Equal(t, "critical", m.RiskRules[0].Severity)
	assert.Equal(t, "b", m.RiskRules[1].ID)

	m.UpsertMapping(&MappingRule{ID: "x", Kind: "set"})
	m.UpsertMapping(&MappingRule{ID: "y", Kind: "merge"})
	m.UpsertMapping(&MappingRule{ID: "x", Kind: "by"})
	require.Len(t, m.MappingRules, 2)
	assert.Equal(t, "by", m.MappingRules[0].Kind)
}

func TestWeights_Merge(t *testing.T) {
	w := &Weights{Branch: ptr(2), Ceiling: ptr(100)}
	w.Merge(&Weights{Branch: ptr(3), Warning: ptr(0.25)})
	w.Merge(nil)

	assert.Equal(t, 3.0, *w.Branch)
	assert.Equal(t, 100.0, *w.Ceiling)
	assert.Equal(t, 0.25, *w.Warning)
	assert.Nil(t, w.Nesting)
}
