// Package token implements the QBX ledger: balances, total supply, an owner
// with pause control, and irreversible burns.
package token

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Reference token metadata.
const (
	Name     = "qiibeeCoin"
	Symbol   = "QBX"
	Decimals = uint8(18)
)

var zeroAddress common.Address

// Metadata is fixed at construction and never changes.
type Metadata struct {
	Name     string `json:"name"     yaml:"name"`
	Symbol   string `json:"symbol"   yaml:"symbol"`
	Decimals uint8  `json:"decimals" yaml:"decimals"`
}

// QBX is the metadata of the reference instance.
var QBX = Metadata{Name: Name, Symbol: Symbol, Decimals: Decimals}

// Allocation maps accounts to their initial balances in base units.
type Allocation map[common.Address]*uint256.Int

// State is a point-in-time copy of everything mutable in a Ledger.
type State struct {
	Owner       common.Address
	Paused      bool
	TotalSupply *uint256.Int
	Balances    Allocation
}

// Ledger is safe for concurrent use. Every mutation is applied atomically
// and serially; failures leave the ledger untouched.
type Ledger struct {
	meta Metadata

	mu             sync.RWMutex
	owner          common.Address
	paused         bool
	totalSupply    uint256.Int
	balances       map[common.Address]*uint256.Int
	pauseTransfers bool
	emitter        Emitter
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithEmitter routes ledger events to e.
func WithEmitter(e Emitter) Option {
	return func(l *Ledger) {
		if e != nil {
			l.emitter = e
		}
	}
}

// WithPausableTransfers makes Transfer fail with KindContractPaused while the
// ledger is paused. Burn is always gated.
func WithPausableTransfers(on bool) Option {
	return func(l *Ledger) { l.pauseTransfers = on }
}

// New creates an active ledger owned by owner. Total supply is the sum of alloc.
func New(meta Metadata, owner common.Address, alloc Allocation, opts ...Option) (*Ledger, error) {
	return Restore(meta, State{Owner: owner, Balances: alloc}, opts...)
}

// Restore rebuilds a ledger from a snapshot. A nil TotalSupply is computed
// from the balances; a non-nil one must match their sum.
func Restore(meta Metadata, st State, opts ...Option) (*Ledger, error) {
	if st.Owner == zeroAddress {
		return nil, fmt.Errorf("ledger owner must not be the zero address")
	}
	l := &Ledger{
		meta:     meta,
		owner:    st.Owner,
		paused:   st.Paused,
		balances: make(map[common.Address]*uint256.Int, len(st.Balances)),
		emitter:  nopEmitter{},
	}
	for addr, bal := range st.Balances {
		if bal == nil || bal.IsZero() {
			continue
		}
		if _, overflow := l.totalSupply.AddOverflow(&l.totalSupply, bal); overflow {
			return nil, fmt.Errorf("initial distribution overflows total supply")
		}
		l.balances[addr] = bal.Clone()
	}
	if st.TotalSupply != nil && !st.TotalSupply.Eq(&l.totalSupply) {
		return nil, fmt.Errorf("total supply %s does not match balance sum %s",
			st.TotalSupply.Dec(), l.totalSupply.Dec())
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// ── metadata ─────────────────────────────────────────────────────────────────

func (l *Ledger) Name() string       { return l.meta.Name }
func (l *Ledger) Symbol() string     { return l.meta.Symbol }
func (l *Ledger) Decimals() uint8    { return l.meta.Decimals }
func (l *Ledger) Metadata() Metadata { return l.meta }

// ── queries ──────────────────────────────────────────────────────────────────

// BalanceOf returns a copy of the account's balance.
func (l *Ledger) BalanceOf(account common.Address) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if b, ok := l.balances[account]; ok {
		return b.Clone()
	}
	return new(uint256.Int)
}

// TotalSupply returns a copy of the total supply.
func (l *Ledger) TotalSupply() *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totalSupply.Clone()
}

func (l *Ledger) Owner() common.Address {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.owner
}

func (l *Ledger) Paused() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.paused
}

// PausableTransfers reports whether transfers are gated by the pause flag.
func (l *Ledger) PausableTransfers() bool { return l.pauseTransfers }

// Snapshot copies the mutable state.
func (l *Ledger) Snapshot() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	st := State{
		Owner:       l.owner,
		Paused:      l.paused,
		TotalSupply: l.totalSupply.Clone(),
		Balances:    make(Allocation, len(l.balances)),
	}
	for a, b := range l.balances {
		st.Balances[a] = b.Clone()
	}
	return st
}

// Holders returns every account with a non-zero balance, sorted by address.
func (l *Ledger) Holders() []common.Address {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]common.Address, 0, len(l.balances))
	for a := range l.balances {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cmp(out[j]) < 0 })
	return out
}

// ── mutations ────────────────────────────────────────────────────────────────

// Transfer moves amount from one account to another.
func (l *Ledger) Transfer(from, to common.Address, amount *uint256.Int) error {
	const op = "transfer"
	if amount == nil {
		return fail(KindInvalidAmount, op, from)
	}
	if to == zeroAddress {
		return fail(KindInvalidRecipient, op, to)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pauseTransfers && l.paused {
		return fail(KindContractPaused, op, from)
	}
	bal := l.balanceLocked(from)
	if bal.Lt(amount) {
		return fail(KindInsufficientBalance, op, from)
	}

	l.setBalanceLocked(from, new(uint256.Int).Sub(bal, amount))
	l.setBalanceLocked(to, new(uint256.Int).Add(l.balanceLocked(to), amount))

	l.emitter.Emit(Event{Name: EventTransfer, Args: map[string]any{
		"from":  from,
		"to":    to,
		"value": amount.Clone(),
	}})
	return nil
}

// Burn destroys amount of the caller's own tokens. It fails while paused.
func (l *Ledger) Burn(caller common.Address, amount *uint256.Int) error {
	const op = "burn"
	if amount == nil {
		return fail(KindInvalidAmount, op, caller)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.paused {
		return fail(KindContractPaused, op, caller)
	}
	bal := l.balanceLocked(caller)
	if bal.Lt(amount) {
		return fail(KindInsufficientBalance, op, caller)
	}

	l.setBalanceLocked(caller, new(uint256.Int).Sub(bal, amount))
	l.totalSupply.Sub(&l.totalSupply, amount)

	l.emitter.Emit(Event{Name: EventBurn, Args: map[string]any{
		"burner": caller,
		"value":  amount.Clone(),
	}})
	return nil
}

// Pause blocks burns (and transfers, if configured). Owner only; a no-op
// when already paused.
func (l *Ledger) Pause(caller common.Address) error {
	return l.setPaused(caller, true, "pause", EventPause)
}

// Unpause lifts the pause. Owner only; a no-op when not paused.
func (l *Ledger) Unpause(caller common.Address) error {
	return l.setPaused(caller, false, "unpause", EventUnpause)
}

func (l *Ledger) setPaused(caller common.Address, paused bool, op, event string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.owner {
		return fail(KindUnauthorized, op, caller)
	}
	if l.paused == paused {
		return nil
	}
	l.paused = paused
	l.emitter.Emit(Event{Name: event, Args: map[string]any{}})
	return nil
}

// TransferOwnership hands pause control to newOwner. Owner only.
func (l *Ledger) TransferOwnership(caller, newOwner common.Address) error {
	const op = "transferOwnership"
	if newOwner == zeroAddress {
		return fail(KindInvalidRecipient, op, newOwner)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.owner {
		return fail(KindUnauthorized, op, caller)
	}
	prev := l.owner
	l.owner = newOwner
	l.emitter.Emit(Event{Name: EventOwnershipTransferred, Args: map[string]any{
		"previousOwner": prev,
		"newOwner":      newOwner,
	}})
	return nil
}

func (l *Ledger) balanceLocked(a common.Address) *uint256.Int {
	if b, ok := l.balances[a]; ok {
		return b
	}
	return new(uint256.Int)
}

// setBalanceLocked drops zero balances so Holders only lists live accounts.
func (l *Ledger) setBalanceLocked(a common.Address, v *uint256.Int) {
	if v.IsZero() {
		delete(l.balances, a)
		return
	}
	l.balances[a] = v
}
