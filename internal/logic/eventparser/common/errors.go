package common

import (
	"errors"
	"fmt"
)

// 以下错误均为"跳过"语义：只影响当前指令，解析器继续扫描
var (
	ErrDataTooShort     = errors.New("instruction data shorter than 8 bytes")
	ErrUnknownSignature = errors.New("unknown instruction signature")
)

// InsufficientAccountsError 指令账户数少于该签名 schema 的最小长度
type InsufficientAccountsError struct {
	Instruction string
	Got         int
	Want        int
}

func (e *InsufficientAccountsError) Error() string {
	return fmt.Sprintf("%s: insufficient accounts, got=%d, want>=%d", e.Instruction, e.Got, e.Want)
}

// IsSkip 判断 err 是否属于可忽略的跳过类错误
func IsSkip(err error) bool {
	var insufficient *InsufficientAccountsError
	return errors.Is(err, ErrDataTooShort) || errors.Is(err, ErrUnknownSignature) || errors.As(err, &insufficient)
}
