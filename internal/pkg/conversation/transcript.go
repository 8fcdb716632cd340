package conversation

import "strings"

// Label 返回转写稿中的角色标签
func Label(role Role) string {
	switch role {
	case RoleUser:
		return "Student"
	case RoleAssistant:
		return "AI Chatbot"
	default:
		return string(role)
	}
}

// Transcript 将非 system 消息渲染为交替的带标签段落，段落之间空一行
func Transcript(turns []Turn) string {
	blocks := make([]string, 0, len(turns))
	for _, t := range turns {
		if t.Role == RoleSystem {
			continue
		}
		blocks = append(blocks, Label(t.Role)+": "+t.Content)
	}
	return strings.Join(blocks, "\n\n")
}
