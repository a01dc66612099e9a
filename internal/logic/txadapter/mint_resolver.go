package txadapter

import (
	"dex-sniper-sol/internal/consts"
	"dex-sniper-sol/internal/types"
)

// mintKV 表示缓存中的一个条目：mint base58 → Pubkey
type mintKV struct {
	base58 string
	pubkey types.Pubkey
}

// mintResolver 用于将 base58 编码的 mint 字符串解析为 Pubkey。
// 单笔交易涉及的 mint 极少，线性查找比 map 更快。
type mintResolver struct {
	cache []mintKV
}

func newMintResolver(capacity int) *mintResolver {
	return &mintResolver{cache: make([]mintKV, 0, capacity)}
}

// resolve 返回 mintStr 对应的 Pubkey，非法字符串返回 false
func (r *mintResolver) resolve(mintStr string) (types.Pubkey, bool) {
	if mintStr == consts.WSOLMintStr {
		return consts.WSOLMint, true
	}
	for _, item := range r.cache {
		if item.base58 == mintStr {
			return item.pubkey, true
		}
	}
	pk, err := types.TryPubkeyFromBase58(mintStr)
	if err != nil {
		return types.Pubkey{}, false
	}
	r.cache = append(r.cache, mintKV{base58: mintStr, pubkey: pk})
	return pk, true
}
