package sale

import "github.com/ethereum/go-ethereum/common"

var (
	paramsKey         = []byte("sale/params")
	countersKey       = []byte("sale/counters")
	stagesKey         = []byte("sale/stages")
	bonusesKey        = []byte("sale/bonuses")
	bootstrappedKey   = []byte("sale/stages/bootstrapped")
	investorListKey   = []byte("sale/investors")
	investorPrefix    = []byte("sale/investor/")
	custodyTotalsPref = []byte("sale/custody/")
)

func investorKey(addr common.Address) []byte {
	buf := make([]byte, len(investorPrefix)+common.AddressLength)
	copy(buf, investorPrefix)
	copy(buf[len(investorPrefix):], addr[:])
	return buf
}

func custodyKey(addr common.Address) []byte {
	buf := make([]byte, len(custodyTotalsPref)+common.AddressLength)
	copy(buf, custodyTotalsPref)
	copy(buf[len(custodyTotalsPref):], addr[:])
	return buf
}
