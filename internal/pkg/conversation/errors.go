package conversation

import "errors"

var (
	// ErrInvalidRole 未知的消息角色
	ErrInvalidRole = errors.New("invalid turn role")
)
