package oracle

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
)

// Kind 调用失败的分类
type Kind int

const (
	KindService Kind = iota
	KindAuthentication
	KindRateLimit
	KindTransport
)

var (
	// ErrAuthentication 凭证无效或无权限
	ErrAuthentication = errors.New("oracle authentication failed")

	// ErrRateLimited 速率限制或配额耗尽
	ErrRateLimited = errors.New("oracle rate limit or quota exceeded")

	// ErrTransport 无法连接服务
	ErrTransport = errors.New("oracle connection failed")

	// ErrService 其他服务端错误
	ErrService = errors.New("oracle service error")

	// ErrMalformedReply 回复不是约定的 JSON 结构
	ErrMalformedReply = errors.New("oracle reply does not match schema")

	// ErrEmptyReply 回复为空
	ErrEmptyReply = errors.New("oracle returned empty reply")

	// ErrUnknownProvider 未知的提供方
	ErrUnknownProvider = errors.New("unknown oracle provider")
)

func (k Kind) sentinel() error {
	switch k {
	case KindAuthentication:
		return ErrAuthentication
	case KindRateLimit:
		return ErrRateLimited
	case KindTransport:
		return ErrTransport
	default:
		return ErrService
	}
}

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindRateLimit:
		return "rate_limit"
	case KindTransport:
		return "transport"
	default:
		return "service"
	}
}

// Error 分类后的调用错误，errors.Is 可匹配对应的哨兵错误和原始错误
type Error struct {
	Kind     Kind
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Provider, e.Kind.sentinel(), e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind.sentinel(), e.Err}
}

var (
	authStatus      = regexp.MustCompile(`(^|\D)(401|403)(\D|$)`)
	rateLimitStatus = regexp.MustCompile(`(^|\D)429(\D|$)`)
)

var authKeywords = []string{
	"unauthorized",
	"unauthenticated",
	"invalid api key",
	"incorrect api key",
	"invalid_api_key",
	"api key not valid",
	"authentication",
	"permission denied",
	"permission_denied",
}

var rateLimitKeywords = []string{
	"rate limit",
	"rate_limit",
	"ratelimit",
	"too many requests",
	"quota",
	"resource_exhausted",
	"resource exhausted",
}

var transportKeywords = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"i/o timeout",
	"tls handshake",
	"dial tcp",
	"network is unreachable",
	"unexpected eof",
}

// Classify 将提供方返回的错误归类，已分类的错误原样返回
func Classify(provider string, err error) error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return err
	}
	return &Error{Kind: kindOf(err), Provider: provider, Err: err}
}

func kindOf(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTransport
	}

	// 连接错误先于状态码判断，地址中的端口号可能与状态码相同
	msg := strings.ToLower(err.Error())
	var netErr net.Error
	if errors.As(err, &netErr) || containsAny(msg, transportKeywords) {
		return KindTransport
	}
	if authStatus.MatchString(msg) || containsAny(msg, authKeywords) {
		return KindAuthentication
	}
	if rateLimitStatus.MatchString(msg) || containsAny(msg, rateLimitKeywords) {
		return KindRateLimit
	}
	return KindService
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// KindOf 返回错误的分类，非 Error 类型按 Classify 规则推断
func KindOf(err error) Kind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return kindOf(err)
}

// Diagnostic 面向用户的错误说明，每种分类各不相同
func Diagnostic(err error) string {
	switch KindOf(err) {
	case KindAuthentication:
		return "The AI service rejected the configured credentials. Please contact your instructor."
	case KindRateLimit:
		return "The AI service is over its rate limit or quota. Please wait a minute and try again."
	case KindTransport:
		return "Could not reach the AI service. Check your connection and try again."
	default:
		return "The AI service returned an error. Please try again."
	}
}
