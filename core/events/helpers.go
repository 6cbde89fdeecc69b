package events

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
)

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func formatAddress(addr common.Address) string {
	return addr.Hex()
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func formatBps(v uint32) string {
	return strconv.FormatUint(uint64(v), 10)
}
