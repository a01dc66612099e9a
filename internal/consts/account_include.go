package consts

// GrpcAccountInclude 用于 gRPC 交易订阅过滤器，只订阅触达目标 DEX 程序的交易
var GrpcAccountInclude = []string{
	MeteoraPoolsProgramStr,
}
