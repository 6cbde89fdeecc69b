package events

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"tokensale/core/types"
)

const (
	// TypeTokenTransfer is emitted for token balance movements.
	TypeTokenTransfer = "token.transfer"
	// TypeTokenBurn is emitted when tokens are destroyed.
	TypeTokenBurn = "token.burn"
	// TypeTokenMint is emitted when genesis supply is created.
	TypeTokenMint = "token.mint"
)

// TokenTransfer captures a balance movement.
type TokenTransfer struct {
	Token  string
	From   common.Address
	To     common.Address
	Amount *big.Int
}

func (TokenTransfer) EventType() string { return TypeTokenTransfer }

func (e TokenTransfer) Event() *types.Event {
	return &types.Event{Type: TypeTokenTransfer, Attributes: map[string]string{
		"token":  strings.ToUpper(e.Token),
		"from":   formatAddress(e.From),
		"to":     formatAddress(e.To),
		"amount": formatAmount(e.Amount),
	}}
}

// TokenSupply captures a mint or burn together with the resulting supply.
type TokenSupply struct {
	Token   string
	Account common.Address
	Delta   *big.Int
	Total   *big.Int
	Burn    bool
}

func (e TokenSupply) EventType() string {
	if e.Burn {
		return TypeTokenBurn
	}
	return TypeTokenMint
}

func (e TokenSupply) Event() *types.Event {
	return &types.Event{Type: e.EventType(), Attributes: map[string]string{
		"token":   strings.ToUpper(e.Token),
		"account": formatAddress(e.Account),
		"delta":   formatAmount(e.Delta),
		"total":   formatAmount(e.Total),
	}}
}
