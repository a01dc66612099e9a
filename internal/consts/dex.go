package consts

const (
	DexMeteoraPools = iota + 1 // 1
)

var DexNames = []string{
	"Unknown",      // 0 (保留)
	"MeteoraPools", // 1
}

func DexName(dex int) string {
	if dex >= 1 && dex < len(DexNames) {
		return DexNames[dex]
	}
	return DexNames[0] // Unknown
}
