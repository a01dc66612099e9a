package common

import (
	"fmt"

	"dex-sniper-sol/internal/logic/core"
	"dex-sniper-sol/internal/types"
)

// AccountSchema 描述某个指令签名的账户布局：按位置排列的字段名。
// 最小账户数即字段个数，位置是外部程序的指令契约，不做推断。
type AccountSchema struct {
	Name   string
	Fields []string
	index  map[string]int
}

// NewAccountSchema 构造布局表，字段重名或为空属于编码错误，直接 panic
func NewAccountSchema(name string, fields ...string) *AccountSchema {
	if len(fields) == 0 {
		panic(fmt.Sprintf("account schema %s: no fields", name))
	}
	index := make(map[string]int, len(fields))
	for i, f := range fields {
		if f == "" {
			panic(fmt.Sprintf("account schema %s: empty field at #%d", name, i))
		}
		if _, dup := index[f]; dup {
			panic(fmt.Sprintf("account schema %s: duplicate field %q", name, f))
		}
		index[f] = i
	}
	return &AccountSchema{Name: name, Fields: fields, index: index}
}

func (s *AccountSchema) MinAccounts() int {
	return len(s.Fields)
}

// Bind 一次性校验账户长度，之后按字段名取值无需再做边界检查
func (s *AccountSchema) Bind(accounts []core.AccountMeta) (*BoundAccounts, error) {
	if len(accounts) < len(s.Fields) {
		return nil, &InsufficientAccountsError{Instruction: s.Name, Got: len(accounts), Want: len(s.Fields)}
	}
	return &BoundAccounts{schema: s, accounts: accounts}, nil
}

// BoundAccounts 已通过长度校验的账户视图
type BoundAccounts struct {
	schema   *AccountSchema
	accounts []core.AccountMeta
}

func (b *BoundAccounts) SchemaName() string {
	return b.schema.Name
}

// Get 按字段名取地址；字段名不存在说明 decode 代码与 schema 不一致，直接 panic
func (b *BoundAccounts) Get(field string) types.Pubkey {
	i, ok := b.schema.index[field]
	if !ok {
		panic(fmt.Sprintf("account schema %s: unknown field %q", b.schema.Name, field))
	}
	return b.accounts[i].Pubkey
}

// Meta 与 Get 相同，但保留 signer / writable 属性
func (b *BoundAccounts) Meta(field string) core.AccountMeta {
	i, ok := b.schema.index[field]
	if !ok {
		panic(fmt.Sprintf("account schema %s: unknown field %q", b.schema.Name, field))
	}
	return b.accounts[i]
}
