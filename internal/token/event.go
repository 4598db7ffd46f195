package token

import "github.com/ethereum/go-ethereum/common"

// Event names emitted by the ledger.
const (
	EventTransfer             = "Transfer"
	EventBurn                 = "Burn"
	EventPause                = "Pause"
	EventUnpause              = "Unpause"
	EventOwnershipTransferred = "OwnershipTransferred"
)

// Event is a state-change notification: a name plus its arguments keyed by
// parameter name. Addresses are common.Address, values *uint256.Int.
type Event struct {
	Name string
	Args map[string]any
}

// Address returns the address argument key, or the zero address.
func (e Event) Address(key string) common.Address {
	a, _ := e.Args[key].(common.Address)
	return a
}

// Emitter receives ledger events. Implementations must not block and must not
// call back into the ledger.
type Emitter interface {
	Emit(Event)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(Event)

// Emit calls f(ev).
func (f EmitterFunc) Emit(ev Event) { f(ev) }

type nopEmitter struct{}

func (nopEmitter) Emit(Event) {}
