package consts

const (
	SOLDecimals = 9

	// MaxTxSize 单笔交易序列化后的最大字节数（IPv6 MTU 限制）
	MaxTxSize = 1232
)
