package grading

import (
	"encoding/json"
	"fmt"

	"github.com/ethicsbot/backend/internal/domain"
	"github.com/ethicsbot/backend/internal/model"
	"github.com/ethicsbot/backend/internal/pkg/conversation"
)

// legacyKeys 旧格式中缩写的字段名
var legacyKeys = map[string]string{
	"ms_": "minutes_spent_",
	"ur_": "user_responses_",
	"wc_": "word_count_",
	"sc_": "sentence_count_",
	"g_":  "grade_",
	"gl_": "grade_logic_",
}

// ParseLegacy 解析评估记录，兼容缩写字段名
func ParseLegacy(data []byte) (*domain.EvaluationRecord, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognized, err)
	}
	canonical := make(map[string]json.RawMessage, len(raw))
	for k, v := range raw {
		if full, ok := legacyKeys[k]; ok {
			k = full
		}
		canonical[k] = v
	}
	if _, ok := canonical["grade_"]; !ok {
		return nil, fmt.Errorf("%w: missing grade_", ErrUnrecognized)
	}
	if _, ok := canonical["generated_"]; !ok {
		return nil, fmt.Errorf("%w: missing generated_", ErrUnrecognized)
	}

	normalized, err := json.Marshal(canonical)
	if err != nil {
		return nil, err
	}
	var rec domain.EvaluationRecord
	if err := json.Unmarshal(normalized, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognized, err)
	}

	rec.Username = model.NormalizeUsername(rec.Username)
	if rec.Username == "" {
		return nil, fmt.Errorf("%w: missing user_name_", ErrUnrecognized)
	}
	for i, t := range rec.Conversation {
		role, err := conversation.ParseRole(string(t.Role))
		if err != nil {
			return nil, err
		}
		rec.Conversation[i].Role = role
	}
	return &rec, nil
}
