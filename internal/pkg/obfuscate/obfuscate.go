// Package obfuscate 提供可逆的字节级编码，只用于防止导出文档在格式转换时被顺手篡改，
// 不是安全措施，不提供保密性。
package obfuscate

import (
	"encoding/base64"
	"errors"
	"fmt"
	"hash/crc32"
	"strings"
)

// Prefix 编码后文本的前缀，用于识别
const Prefix = "obf1:"

const shift = 13

var (
	// ErrNotEncoded 文本不是本包编码的结果
	ErrNotEncoded = errors.New("text is not obfuscated")

	// ErrChecksum 校验和不匹配，文本被修改过或只是碰巧带有前缀
	ErrChecksum = errors.New("obfuscated text checksum mismatch")
)

// Encode 对每个字节做固定位移后 base64 编码，末尾附原文的 CRC32
// 格式："obf1:<base64>.<crc32 十六进制>"
func Encode(text string) string {
	buf := []byte(text)
	for i := range buf {
		buf[i] += shift
	}
	return fmt.Sprintf("%s%s.%08x", Prefix, base64.StdEncoding.EncodeToString(buf), crc32.ChecksumIEEE([]byte(text)))
}

// Decode 还原 Encode 的结果并校验 CRC32
func Decode(encoded string) (string, error) {
	if !IsEncoded(encoded) {
		return "", ErrNotEncoded
	}
	body, sum, ok := strings.Cut(strings.TrimPrefix(encoded, Prefix), ".")
	if !ok {
		return "", fmt.Errorf("%w: missing checksum", ErrNotEncoded)
	}
	buf, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] -= shift
	}
	if fmt.Sprintf("%08x", crc32.ChecksumIEEE(buf)) != sum {
		return "", ErrChecksum
	}
	return string(buf), nil
}

// IsEncoded 是否带有编码前缀
func IsEncoded(text string) bool {
	return strings.HasPrefix(text, Prefix)
}

// Reveal 能通过校验则解码，否则原样返回
// 以 Prefix 开头的普通文本几乎不可能同时通过 CRC32 校验，因此不会被改写
func Reveal(text string) string {
	if !IsEncoded(text) {
		return text
	}
	plain, err := Decode(text)
	if err != nil {
		return text
	}
	return plain
}
