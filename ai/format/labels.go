package format

// Labels holds the user-visible strings the formatter emits. The zero value of
// any field falls back to the Vietnamese default.
type Labels struct {
	InvalidContent    string `yaml:"invalid_content"`
	FormatError       string `yaml:"format_error"`
	HRAssistantTitle  string `yaml:"hr_assistant_title"`
	ScenarioTitle     string `yaml:"scenario_title"`
	ScenarioSituation string `yaml:"scenario_situation"`
	ScenarioAction    string `yaml:"scenario_action"`
	ScenarioPriority  string `yaml:"scenario_priority"`
	ScenarioNote      string `yaml:"scenario_note"`
	PriorityHigh      string `yaml:"priority_high"`
	PriorityMedium    string `yaml:"priority_medium"`
	PriorityLow       string `yaml:"priority_low"`
}

// DefaultLabels returns the built-in Vietnamese labels.
func DefaultLabels() Labels {
	return Labels{
		InvalidContent:    "Nội dung không hợp lệ",
		FormatError:       "Lỗi khi format response: ",
		HRAssistantTitle:  "🤖 HR Assistant",
		ScenarioTitle:     "Các tình huống cần xem xét",
		ScenarioSituation: "Tình huống",
		ScenarioAction:    "Hành động khuyến nghị",
		ScenarioPriority:  "Mức độ ưu tiên",
		ScenarioNote:      "Bảng tình huống được tạo tự động bởi AI DeepSeek để hỗ trợ ra quyết định",
		PriorityHigh:      "Cao",
		PriorityMedium:    "Trung bình",
		PriorityLow:       "Thấp",
	}
}

// WithDefaults fills empty fields from DefaultLabels.
func (l Labels) WithDefaults() Labels {
	d := DefaultLabels()
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&l.InvalidContent, d.InvalidContent)
	fill(&l.FormatError, d.FormatError)
	fill(&l.HRAssistantTitle, d.HRAssistantTitle)
	fill(&l.ScenarioTitle, d.ScenarioTitle)
	fill(&l.ScenarioSituation, d.ScenarioSituation)
	fill(&l.ScenarioAction, d.ScenarioAction)
	fill(&l.ScenarioPriority, d.ScenarioPriority)
	fill(&l.ScenarioNote, d.ScenarioNote)
	fill(&l.PriorityHigh, d.PriorityHigh)
	fill(&l.PriorityMedium, d.PriorityMedium)
	fill(&l.PriorityLow, d.PriorityLow)
	return l
}
