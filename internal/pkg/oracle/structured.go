package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"k8s.io/klog/v2"
)

// Structured 发送带输出约定的请求，并把回复中的 JSON 对象解码到 out
// 缺少 required 字段或无法解码时返回 ErrMalformedReply
func Structured(ctx context.Context, c Client, req *Request, out any) error {
	if req.Schema == nil {
		return errors.New("structured request requires a schema")
	}

	r := *req
	if r.Directive == "" {
		r.Directive = req.Schema.Contract()
	} else {
		r.Directive = req.Directive + "\n\n" + req.Schema.Contract()
	}

	text, err := c.Chat(ctx, &r)
	if err != nil {
		return err
	}

	raw := extractJSON(text)
	if raw == "" {
		klog.V(6).Infof("[Oracle] 回复中未找到 JSON 对象: schema=%s, length=%d", req.Schema.Name, len(text))
		return fmt.Errorf("%w: no JSON object in reply", ErrMalformedReply)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	for _, key := range req.Schema.Required {
		v, ok := fields[key]
		if !ok || string(v) == "null" {
			return fmt.Errorf("%w: missing %q", ErrMalformedReply, key)
		}
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	return nil
}

// extractJSON 从回复中提取第一个完整的 JSON 对象
// 兼容 ```json 代码块以及前后夹杂说明文字的情况
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if start := strings.Index(text, "```json"); start != -1 {
		rest := text[start+len("```json"):]
		if end := strings.Index(rest, "```"); end != -1 {
			text = strings.TrimSpace(rest[:end])
		}
	} else if start := strings.Index(text, "```"); start != -1 {
		rest := text[start+3:]
		if end := strings.Index(rest, "```"); end != -1 {
			text = strings.TrimSpace(rest[:end])
		}
	}

	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
