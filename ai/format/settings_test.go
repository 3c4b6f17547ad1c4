package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSettings(t *testing.T) {
	assert.False(t, NotConfigured().IsConfigured())
	assert.False(t, Settings{}.IsConfigured())
	assert.False(t, Configured("deepseek", "   ", "", "").IsConfigured())

	s := Configured("deepseek", " sk-abc ", "deepseek-chat", "").WithTimeout(5 * time.Second)
	assert.True(t, s.IsConfigured())
	assert.Equal(t, "sk-abc", s.APIKey)
	assert.Equal(t, 5*time.Second, s.Timeout)
}

func TestLabels_WithDefaults(t *testing.T) {
	l := Labels{PriorityHigh: "High"}.WithDefaults()
	d := DefaultLabels()

	assert.Equal(t, "High", l.PriorityHigh)
	assert.Equal(t, d.PriorityLow, l.PriorityLow)
	assert.Equal(t, d.InvalidContent, l.InvalidContent)
}
