package usecase

// Contract sizes by instrument class. Metals and the enumerated crypto pairs
// have fixed sizes; everything else is treated as an FX pair at the standard
// 100k lot.
const defaultContractSize = 100000

var contractSizes = map[string]float64{
	"XAUUSD": 100,
	"XAGUSD": 5000,

	"BTCUSD":   1,
	"ETHUSD":   1,
	"BNBUSD":   1,
	"SOLUSD":   1,
	"XRPUSD":   1,
	"ADAUSD":   1,
	"DOGEUSD":  1,
	"DOTUSD":   1,
	"MATICUSD": 1,
	"LTCUSD":   1,
	"AVAXUSD":  1,
	"LINKUSD":  1,
}

// ContractSize returns the units of the underlying represented by one lot of
// the given symbol.
func ContractSize(symbol string) float64 {
	if size, ok := contractSizes[symbol]; ok {
		return size
	}
	return defaultContractSize
}
