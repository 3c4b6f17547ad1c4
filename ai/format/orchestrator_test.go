package format

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatResponse_InvalidContent(t *testing.T) {
	o := NewOrchestrator(NotConfigured())

	for _, content := range []any{nil, 123, "", []byte("bytes")} {
		out := o.FormatResponse(context.Background(), content, "assistant", nil)
		assert.Contains(t, out, `<div class="ai-response-error">`)
		assert.Contains(t, out, "Nội dung không hợp lệ")
	}
}

func TestFormat_NilRequest(t *testing.T) {
	res := NewOrchestrator(NotConfigured()).Format(context.Background(), nil)
	assert.True(t, res.Failed)
	assert.Contains(t, res.HTML, ClassError)
}

func TestFormatResponse_Table(t *testing.T) {
	o := NewOrchestrator(NotConfigured())

	out := o.FormatResponse(context.Background(), "| A | B |\n|---|---|\n| 1 | 2 |", "", nil)
	assert.Equal(t,
		`<div class="ai-response-formatted ai-response-type-table" data-message-type="assistant"><div class="ai-response-body">`+
			`<div class="ai-table-container"><table class="ai-table"><thead><tr><th>A</th><th>B</th></tr></thead>`+
			`<tbody><tr><td>1</td><td>2</td></tr></tbody></table></div></div></div>`,
		out)
}

func TestFormatResponse_Markdown(t *testing.T) {
	o := NewOrchestrator(NotConfigured())

	out := o.FormatResponse(context.Background(), "Hello **world**", "bot", nil)
	assert.Equal(t,
		`<div class="ai-response-formatted ai-response-type-markdown" data-message-type="bot"><div class="ai-response-body">`+
			`<p class="ai-paragraph">Hello <strong class="ai-bold">world</strong></p></div></div>`,
		out)
}

func TestFormatResponse_EscapesMessageType(t *testing.T) {
	out := NewOrchestrator(NotConfigured()).FormatResponse(context.Background(), "hi", `x" onclick="y`, nil)
	assert.Contains(t, out, `data-message-type="x&#34; onclick=&#34;y"`)
}

func TestFormatResponse_HRAction(t *testing.T) {
	o := NewOrchestrator(NotConfigured())

	out := o.FormatResponse(context.Background(), "Đã tạo **nhân viên**", "assistant",
		&SideData{HRAction: true, APICalled: "hr.employee.create"})
	assert.Contains(t, out, "ai-response-type-hr_action")
	assert.Contains(t, out, ClassHRAction)
	assert.Contains(t, out, "<code>hr.employee.create</code>")
	assert.Contains(t, out, `<div class="hr-action-content"><p class="ai-paragraph">Đã tạo <strong class="ai-bold">nhân viên</strong></p></div>`)
}

func TestFormatResponse_StatusAndCode(t *testing.T) {
	o := NewOrchestrator(NotConfigured())

	status := o.FormatResponse(context.Background(), "✅ Đã lưu thành công", "assistant", nil)
	assert.Contains(t, status, "ai-response-type-status")
	assert.Contains(t, status, "ai-status-success")

	code := o.FormatResponse(context.Background(), "Chạy:\n\n```bash\necho hi\n```", "assistant", nil)
	assert.Contains(t, code, "ai-response-type-code")
	assert.Contains(t, code, `<code class="language-bash">echo hi</code>`)
	assert.Contains(t, code, `<p class="ai-paragraph">Chạy:</p>`)
}

func TestFormat_WithScenarioEnhancement(t *testing.T) {
	stub := &stubAnalyzer{analysis: actionableAnalysis()}
	obs := &recordingObserver{}
	o := NewOrchestrator(configured(), WithAnalyzer(stub), WithObserver(obs))

	res := o.Format(context.Background(), &FormatRequest{Content: eligibleContent})
	require.False(t, res.Failed)
	assert.True(t, res.Enhanced)
	assert.Equal(t, ContentMarkdown, res.ContentType)
	assert.Contains(t, res.HTML, ScenarioMarker)
	assert.Contains(t, res.HTML, "Cao")
	assert.Contains(t, res.HTML, `<td class="scenario-number">1</td>`)
	assert.NotContains(t, res.HTML, `<p class="`+ClassParagraph+`">`, "scenario output uses conservative line breaks")

	assert.Equal(t, []EnhancementOutcome{OutcomeApplied}, obs.outcomes)
	assert.Equal(t, []ContentType{ContentMarkdown}, obs.formats)
	assert.Equal(t, []bool{false}, obs.failed)
}

func TestFormat_EnhancementFailureKeepsContent(t *testing.T) {
	stub := &stubAnalyzer{panicMsg: "analyzer exploded"}
	o := NewOrchestrator(configured(), WithAnalyzer(stub))

	res := o.Format(context.Background(), &FormatRequest{Content: eligibleContent})
	assert.False(t, res.Failed)
	assert.False(t, res.Enhanced)
	assert.NotContains(t, res.HTML, ScenarioMarker)
	assert.Contains(t, res.HTML, "onboarding")
}

type panickyObserver struct{ recordingObserver }

func (p *panickyObserver) ObserveEnhancement(EnhancementOutcome, time.Duration) {
	panic("observer broke")
}

func TestFormat_RecoversPanics(t *testing.T) {
	obs := &panickyObserver{}
	o := NewOrchestrator(NotConfigured(), WithObserver(obs))

	var res *FormatResult
	require.NotPanics(t, func() {
		res = o.Format(context.Background(), &FormatRequest{Content: "hello"})
	})
	assert.True(t, res.Failed)
	assert.Contains(t, res.HTML, ClassError)
	assert.Contains(t, res.HTML, "Lỗi khi format response: observer broke")
	assert.Equal(t, []bool{true}, obs.failed)
}

func TestFormat_CustomLabels(t *testing.T) {
	o := NewOrchestrator(NotConfigured(), WithLabels(Labels{InvalidContent: "Invalid content"}))

	out := o.FormatResponse(context.Background(), nil, "", nil)
	assert.Contains(t, out, "Invalid content")
}

func TestFormat_EligibilityRule(t *testing.T) {
	rule, err := NewCELEligibility(`content.contains("urgent")`)
	require.NoError(t, err)

	stub := &stubAnalyzer{analysis: actionableAnalysis()}
	o := NewOrchestrator(configured(), WithAnalyzer(stub), WithEligibilityRule(rule))

	res := o.Format(context.Background(), &FormatRequest{Content: "urgent"})
	assert.True(t, res.Enhanced)

	res = o.Format(context.Background(), &FormatRequest{Content: eligibleContent})
	assert.False(t, res.Enhanced)
	assert.Equal(t, int32(1), stub.calls.Load())
}
