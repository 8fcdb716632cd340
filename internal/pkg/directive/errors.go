package directive

import "errors"

var (
	// ErrDirectiveNotFound 指令不存在
	ErrDirectiveNotFound = errors.New("directive not found")

	// ErrInvalidDirective 指令定义无效
	ErrInvalidDirective = errors.New("invalid directive")

	// ErrInvalidName name 格式错误
	ErrInvalidName = errors.New("invalid directive name")

	// ErrIncompleteCatalog 目录缺少内置指令
	ErrIncompleteCatalog = errors.New("directive catalog incomplete")
)
