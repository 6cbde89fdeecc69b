package vesting

import "github.com/ethereum/go-ethereum/common"

func escrowKey(id string, parts ...[]byte) []byte {
	buf := append([]byte("vesting/"), id...)
	for _, part := range parts {
		buf = append(buf, '/')
		buf = append(buf, part...)
	}
	return buf
}

func activationKey(id string) []byte { return escrowKey(id, []byte("activation")) }
func rosterKey(id string) []byte     { return escrowKey(id, []byte("roster")) }
func totalsKey(id string) []byte     { return escrowKey(id, []byte("totals")) }

func indexKey(id string, wallet common.Address) []byte {
	return escrowKey(id, []byte("index"), wallet[:])
}

func participantKey(id string, wallet common.Address) []byte {
	return escrowKey(id, []byte("participant"), wallet[:])
}
