package errors

import (
	"errors"
	"fmt"
	"tradeflow/pkg/errors/ecode"
)

// 带业务错误码的error，供response统一解码

type codedError struct {
	code    int
	message string
	cause   error
}

func (e *codedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *codedError) Unwrap() error { return e.cause }

// WithCode 创建一个带错误码的error
func WithCode(code int, message string) error {
	if message == "" {
		message = ecode.Text(code)
	}
	return &codedError{code: code, message: message}
}

// Wrap 包装原始错误并附加错误码
func Wrap(err error, code int, message string) error {
	if message == "" {
		message = ecode.Text(code)
	}
	return &codedError{code: code, message: message, cause: err}
}

// Wrapf 格式化版本的Wrap
func Wrapf(err error, code int, format string, args ...interface{}) error {
	return &codedError{code: code, message: fmt.Sprintf(format, args...), cause: err}
}

// DecodeErr 解出错误码和提示信息；nil视为成功
func DecodeErr(err error) (int, string) {
	if err == nil {
		return ecode.Success, ecode.Text(ecode.Success)
	}
	var ce *codedError
	if errors.As(err, &ce) {
		return ce.code, ce.message
	}
	return ecode.Unknown, err.Error()
}

// Code 只取错误码
func Code(err error) int {
	code, _ := DecodeErr(err)
	return code
}

// IsCode 判断错误是否携带指定错误码
func IsCode(err error, code int) bool {
	return Code(err) == code
}

// New 透传标准库，避免调用方再引一个errors包
func New(text string) error { return errors.New(text) }

func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target interface{}) bool { return errors.As(err, target) }
