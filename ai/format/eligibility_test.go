package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCELEligibility(t *testing.T) {
	rule, err := NewCELEligibility("length >= 10 && hr")
	require.NoError(t, err)
	assert.Equal(t, "length >= 10 && hr", rule.String())

	assert.True(t, rule.Eligible("nhân viên mới vào làm"))
	assert.False(t, rule.Eligible("nhân viên"), "shorter than 10 characters")
	assert.False(t, rule.Eligible("a long sentence without keywords"))
}

func TestCELEligibility_ScenarioVariable(t *testing.T) {
	rule, err := NewCELEligibility("scenario || content.startsWith('!')")
	require.NoError(t, err)

	assert.True(t, rule.Eligible("New Onboarding"))
	assert.True(t, rule.Eligible("!force"))
	assert.False(t, rule.Eligible("nothing here"))
}

func TestCELEligibility_InvalidExpressions(t *testing.T) {
	for _, expr := range []string{"length +", "length", "unknown_var == 1", `content + "x"`} {
		_, err := NewCELEligibility(expr)
		assert.Error(t, err, expr)
	}
}
