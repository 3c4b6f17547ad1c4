package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/sbotchat/internal/profile"
)

func TestRunFormat(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		opts     formatOptions
		contains []string
		wantErr  bool
	}{
		{
			name:     "markdown",
			input:    "# Title\nsome **bold** text",
			contains: []string{`<h1 class="ai-h1">Title</h1>`, `<strong class="ai-bold">bold</strong>`, `data-message-type="assistant"`},
		},
		{
			name:     "hr action",
			input:    "Đã tạo đơn nghỉ phép",
			opts:     formatOptions{hrAction: true, apiCalled: "hr.leave.create", messageType: "bot"},
			contains: []string{"ai-hr-action-response", "<code>hr.leave.create</code>", `data-message-type="bot"`},
		},
		{
			name:     "fallback",
			input:    "- [x] done",
			opts:     formatOptions{fallback: true},
			contains: []string{"<li>", "done"},
		},
		{
			name:     "empty",
			input:    "",
			contains: []string{"ai-response-error"},
			wantErr:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := runFormat(context.Background(), strings.NewReader(tt.input), &out, &profile.Profile{Data: t.TempDir()}, tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			for _, s := range tt.contains {
				assert.Contains(t, out.String(), s)
			}
		})
	}
}

func TestNewOrchestrator_InvalidRule(t *testing.T) {
	_, err := newOrchestrator(&profile.Profile{EligibilityRule: "content +"})
	assert.Error(t, err)

	o, err := newOrchestrator(&profile.Profile{EligibilityRule: "length > 3", HighlightStyle: "github", AnalyzerRPS: 1})
	require.NoError(t, err)
	assert.NotNil(t, o)
}
