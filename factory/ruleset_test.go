package factory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/construtiva/obra-engine/factory"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestParseRuleSet_EmptyDocumentKeepsDefaults(t *testing.T) {
	f := factory.NewRuleSetFactory()

	rs, err := f.ParseRuleSet(`{"id": "vigente", "name": "Tabelas vigentes"}`)
	require.NoError(t, err)

	assert.True(t, rs.ContributionRate.Equal(dec("0.368")))
	assert.True(t, rs.EquivalencePct("Galpão Industrial", dec("100")).Equal(dec("95")))
	assert.True(t, rs.SocialFactorPct(dec("150")).Equal(dec("40")))
}

func TestParseRuleSet_SectionsReplaceWholesale(t *testing.T) {
	f := factory.NewRuleSetFactory()

	rs, err := f.ParseRuleSet(`{
		"id": "revisao-2025",
		"constants": {"contribution_rate": 0.40},
		"fixed_equivalence": {"Galpão Industrial": 96},
		"labor": {"Casa Popular": {"Alvenaria": 13}},
		"social_bands": [{"up_to": 150, "pct": 25}, {"pct": 80}]
	}`)
	require.NoError(t, err)

	assert.True(t, rs.ContributionRate.Equal(dec("0.4")))
	assert.True(t, rs.EquivalencePct("Galpão Industrial", dec("1")).Equal(dec("96")))
	assert.True(t, rs.EquivalencePct("Casa Popular", dec("1")).IsZero(),
		"a present section replaces the default section wholesale")
	assert.True(t, rs.LaborPct("Casa Popular", "Alvenaria").Equal(dec("13")))
	assert.True(t, rs.LaborPct("Residencial Unifamiliar", "Alvenaria").IsZero())
	assert.True(t, rs.SocialFactorPct(dec("100")).Equal(dec("25")))
	assert.True(t, rs.SocialFactorPct(dec("9999")).Equal(dec("80")))

	// Untouched sections keep their defaults.
	assert.True(t, rs.CategoryBasePct("Reforma").Equal(dec("35")))
}

func TestParseRuleSet_RejectsOpenBandBeforeLast(t *testing.T) {
	f := factory.NewRuleSetFactory()

	_, err := f.ParseRuleSet(`{"social_bands": [{"pct": 20}, {"up_to": 200, "pct": 40}]}`)
	assert.Error(t, err)

	_, err = f.ParseRuleSet(`{"tiered_bands": [{"rates": {"Alvenaria": 0.04}}, {"width": 100, "rates": {}}]}`)
	assert.Error(t, err)
}

func TestParseRuleSet_MalformedJSON(t *testing.T) {
	f := factory.NewRuleSetFactory()
	_, err := f.ParseRuleSet(`{"id": `)
	assert.Error(t, err)
}
