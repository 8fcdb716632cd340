package directive

import "strings"

// Modifiers 按参与者设置的附加风格规则，启动后只读
type Modifiers struct {
	rules map[string]string
}

// NewModifiers 创建风格规则表，key 统一为小写
func NewModifiers(rules map[string]string) *Modifiers {
	m := &Modifiers{rules: make(map[string]string, len(rules))}
	for participant, text := range rules {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		m.rules[strings.ToLower(strings.TrimSpace(participant))] = text
	}
	return m
}

// Modifier 返回参与者的附加规则，未登记时返回空字符串
func (m *Modifiers) Modifier(participant string) string {
	if m == nil {
		return ""
	}
	text, ok := m.rules[strings.ToLower(strings.TrimSpace(participant))]
	if !ok {
		return ""
	}
	return "BONUS RULE:\n\n" + text
}

// Apply 将附加规则拼接到指令文本之后
func (m *Modifiers) Apply(systemPrompt, participant string) string {
	mod := m.Modifier(participant)
	if mod == "" {
		return systemPrompt
	}
	if !strings.HasSuffix(systemPrompt, "\n") {
		systemPrompt += "\n"
	}
	return systemPrompt + "\n" + mod
}
