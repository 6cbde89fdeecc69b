package sale

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Custody receives the raw value of each purchase.
type Custody interface {
	Forward(payer common.Address, value *big.Int) error
}

// Vault is a state-backed Custody that accumulates the value forwarded to a
// single wallet.
type Vault struct {
	state  State
	wallet common.Address
}

// NewVault binds a vault for wallet to st.
func NewVault(st State, wallet common.Address) *Vault {
	return &Vault{state: st, wallet: wallet}
}

// Forward implements Custody.
func (v *Vault) Forward(_ common.Address, value *big.Int) error {
	total, err := v.Total()
	if err != nil {
		return err
	}
	total.Add(total, cloneBig(value))
	return v.state.KVPut(custodyKey(v.wallet), total)
}

// Total returns the value forwarded so far.
func (v *Vault) Total() (*big.Int, error) {
	total := new(big.Int)
	if _, err := v.state.KVGet(custodyKey(v.wallet), total); err != nil {
		return nil, err
	}
	return total, nil
}
