// Package crowdsale simulates the token sale that produces the ledger's
// genesis distribution: accounts[0] runs the sale and owns the token,
// accounts[1..] buy the whole-token amounts listed in the split.
package crowdsale

import (
	"errors"
	"fmt"

	"github.com/Mohsinsiddi/qbx/internal/token"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Reference sale parameters.
const (
	DefaultRate             = 6000
	DefaultPreferentialRate = 8000
	DefaultGoal             = 360_000_000   // ether
	DefaultCap              = 2_400_000_000 // ether
)

// DefaultSplit is the purchase, in whole tokens, of accounts[1..5].
var DefaultSplit = []uint64{40, 30, 20, 10, 0}

// Errors.
var (
	ErrInvalidRate    = errors.New("rates must be positive and preferential rate >= rate")
	ErrInvalidGoal    = errors.New("goal must be positive and not exceed cap")
	ErrTooFewAccounts = errors.New("not enough accounts for the purchase split")
	ErrCapReached     = errors.New("purchase exceeds crowdsale cap")
)

// Params describes one simulated sale. Goal and Cap are in wei.
type Params struct {
	Rate             uint64
	PreferentialRate uint64
	Goal             *uint256.Int
	Cap              *uint256.Int
	Split            []uint64
	// Decimals scales Split into base units.
	Decimals uint8
	// Preferential buyers pay the preferential rate.
	Preferential []common.Address
}

// DefaultParams returns the reference scenario.
func DefaultParams() Params {
	return Params{
		Rate:             DefaultRate,
		PreferentialRate: DefaultPreferentialRate,
		Goal:             ToAtto(DefaultGoal),
		Cap:              ToAtto(DefaultCap),
		Split:            append([]uint64(nil), DefaultSplit...),
		Decimals:         token.Decimals,
	}
}

// ToAtto scales a whole amount by 10^18.
func ToAtto(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), token.Unit(18))
}

// Purchase is one buyer's contribution. Buyers receive exactly the tokens
// they asked for and pay ceil(tokens/rate) wei.
type Purchase struct {
	Buyer  common.Address
	Wei    *uint256.Int
	Tokens *uint256.Int
	Rate   uint64
}

// Result is the outcome of a finalized sale.
type Result struct {
	Owner       common.Address
	Allocation  token.Allocation
	Purchases   []Purchase
	WeiRaised   *uint256.Int
	GoalReached bool
}

// Simulate runs the sale for accounts and returns the genesis distribution.
func Simulate(p Params, accounts []common.Address) (*Result, error) {
	if p.Rate == 0 || p.PreferentialRate < p.Rate {
		return nil, ErrInvalidRate
	}
	if p.Goal == nil || p.Cap == nil || p.Goal.IsZero() || p.Goal.Gt(p.Cap) {
		return nil, ErrInvalidGoal
	}
	if len(accounts) == 0 || len(p.Split) > len(accounts)-1 {
		return nil, fmt.Errorf("%w: split has %d buyers, got %d accounts",
			ErrTooFewAccounts, len(p.Split), len(accounts))
	}

	preferential := make(map[common.Address]bool, len(p.Preferential))
	for _, a := range p.Preferential {
		preferential[a] = true
	}

	res := &Result{
		Owner:      accounts[0],
		Allocation: make(token.Allocation),
		WeiRaised:  new(uint256.Int),
	}
	unit := token.Unit(p.Decimals)

	for i, whole := range p.Split {
		if whole == 0 {
			continue
		}
		buyer := accounts[i+1]
		rate := p.Rate
		if preferential[buyer] {
			rate = p.PreferentialRate
		}

		wanted := new(uint256.Int).Mul(uint256.NewInt(whole), unit)
		r := uint256.NewInt(rate)
		wei := new(uint256.Int).Div(wanted, r)
		if new(uint256.Int).Mod(wanted, r).Sign() != 0 {
			wei.AddUint64(wei, 1)
		}
		raised := new(uint256.Int).Add(res.WeiRaised, wei)
		if raised.Gt(p.Cap) {
			return nil, fmt.Errorf("%w: buyer %s", ErrCapReached, buyer.Hex())
		}
		res.WeiRaised = raised

		total := wanted.Clone()
		if prev, ok := res.Allocation[buyer]; ok {
			total.Add(total, prev)
		}
		res.Allocation[buyer] = total
		res.Purchases = append(res.Purchases, Purchase{Buyer: buyer, Wei: wei, Tokens: wanted, Rate: rate})
	}

	res.GoalReached = !res.WeiRaised.Lt(p.Goal)
	return res, nil
}

// Token deploys the ledger from a finished sale.
func (r *Result) Token(meta token.Metadata, opts ...token.Option) (*token.Ledger, error) {
	return token.New(meta, r.Owner, r.Allocation, opts...)
}
