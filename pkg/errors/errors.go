package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
)

// 错误分类码，调用方据此区分失败类型
const (
	CodeOther     = 1000 // 未分类错误
	CodeTransport = 1001 // 连接拒绝、重置、超时等传输错误
	CodeDecode    = 1002 // 收到的数据不是合法 JSON 或缺少字段
	CodeEncode    = 1003 // 请求体序列化失败
)

// Error represents a classified error with stack trace
type Error struct {
	Code    int        `json:"code"`
	Message string     `json:"message"`
	Err     error      `json:"-"` // 原始错误，不序列化
	Stack   string     `json:"stack,omitempty"`
	Context []KeyValue `json:"context,omitempty"`
}

// KeyValue represents a key-value pair for context
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Error implements the error interface
func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements the errors.Wrapper interface
func (e *Error) Unwrap() error {
	return e.Err
}

// WithCode creates a new error with code
func WithCode(code int, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Stack:   captureStack(),
	}
}

// WithCodef creates a new error with code and formatted message
func WithCodef(code int, format string, args ...interface{}) *Error {
	return WithCode(code, fmt.Sprintf(format, args...))
}

// Wrap wraps err with a code and message, nil stays nil
func Wrap(err error, code int, message string) *Error {
	if err == nil {
		return nil
	}

	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
		Stack:   captureStack(),
	}
}

// Wrapf wraps err with a code and formatted message
func Wrapf(err error, code int, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// New creates an unclassified error
func New(message string) *Error {
	return WithCode(CodeOther, message)
}

// WithContext adds context to an error
func (e *Error) WithContext(key, value string) *Error {
	if e == nil {
		return nil
	}

	// 复制一份，避免修改原始错误
	newErr := *e
	newErr.Context = make([]KeyValue, len(e.Context), len(e.Context)+1)
	copy(newErr.Context, e.Context)
	newErr.Context = append(newErr.Context, KeyValue{Key: key, Value: value})

	return &newErr
}

// ContextValue returns the first context value stored under key
func (e *Error) ContextValue(key string) (string, bool) {
	if e == nil {
		return "", false
	}
	for _, kv := range e.Context {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// captureStack captures the current stack trace
func captureStack() string {
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)
	stack := string(buf[:n])

	// 去掉 goroutine 头以及 captureStack、构造函数自身的帧
	lines := strings.Split(stack, "\n")
	if len(lines) > 5 {
		stack = strings.Join(lines[5:], "\n")
	}

	return strings.TrimSpace(stack)
}

// GetCode returns the code of the first *Error in err's chain, 0 if none
func GetCode(err error) int {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return 0
}

// IsCode reports whether err is classified with code
func IsCode(err error, code int) bool {
	return err != nil && GetCode(err) == code
}

// CodeName returns a short label for code, used in logs and metrics
func CodeName(code int) string {
	switch code {
	case CodeTransport:
		return "transport"
	case CodeDecode:
		return "decode"
	case CodeEncode:
		return "encode"
	case 0:
		return "none"
	}
	return "other"
}

// Format implements fmt.Formatter
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "%s", e.Error())
			if e.Stack != "" {
				fmt.Fprintf(s, "\n%s", e.Stack)
			}
			return
		}
		fallthrough
	case 's':
		fmt.Fprintf(s, "%s", e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}
