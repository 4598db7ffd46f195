// Package chain executes signed ledger calls one at a time, the way a
// single-node blockchain would: each accepted transaction is its own block and
// leaves a receipt with the ledger events it produced as EVM logs.
package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Mohsinsiddi/qbx/internal/contract"
	"github.com/Mohsinsiddi/qbx/internal/token"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

// Errors. Transactions rejected with these are not included in a block and
// do not consume a nonce.
var (
	ErrBadSignature  = errors.New("signature does not match sender")
	ErrNonceMismatch = errors.New("nonce mismatch")
	ErrUnknownMethod = errors.New("unknown method")
)

// Head identifies the latest block.
type Head struct {
	Number uint64      `json:"number"`
	Hash   common.Hash `json:"hash"`
}

// Receipt records the outcome of one included transaction.
type Receipt struct {
	TxHash      common.Hash    `json:"transactionHash"`
	BlockNumber uint64         `json:"blockNumber"`
	BlockHash   common.Hash    `json:"blockHash"`
	From        common.Address `json:"from"`
	Nonce       uint64         `json:"nonce"`
	Method      string         `json:"method"`
	Status      uint64         `json:"status"`
	Error       string         `json:"error,omitempty"`
	Logs        []*types.Log   `json:"logs"`
	Timestamp   int64          `json:"timestamp"`
}

// Succeeded reports whether the ledger call took effect.
func (r *Receipt) Succeeded() bool { return r.Status == types.ReceiptStatusSuccessful }

// Kind returns the ledger error kind of a failed receipt.
func (r *Receipt) Kind() token.Kind { return token.ParseKind(r.Error) }

// Err rebuilds the ledger error of a failed receipt, or nil.
func (r *Receipt) Err() error {
	if r.Succeeded() {
		return nil
	}
	return &token.Error{Kind: r.Kind(), Op: r.Method, Account: r.From}
}

// Commit is everything one block changes.
type Commit struct {
	State   token.State
	Sender  common.Address
	Nonce   uint64 // sender's next nonce
	Head    Head
	Receipt *Receipt
}

// Store persists blocks.
type Store interface {
	Commit(*Commit) error
}

// Reader is the query side of the ledger.
type Reader interface {
	Metadata() token.Metadata
	BalanceOf(common.Address) *uint256.Int
	TotalSupply() *uint256.Int
	Owner() common.Address
	Paused() bool
	PausableTransfers() bool
	Holders() []common.Address
	Snapshot() token.State
}

// Chain is the single writer of a ledger.
type Chain struct {
	mu      sync.Mutex
	ledger  *token.Ledger
	address common.Address
	head    Head
	nonces  map[common.Address]uint64
	pending []token.Event

	store      Store
	sink       token.Emitter
	log        *zap.Logger
	now        func() time.Time
	ledgerOpts []token.Option
}

// Option configures a Chain.
type Option func(*Chain)

// WithStore persists every block to s.
func WithStore(s Store) Option {
	return func(c *Chain) { c.store = s }
}

// WithHead resumes from a previously persisted head.
func WithHead(h Head) Option {
	return func(c *Chain) { c.head = h }
}

// WithNonces resumes account nonces.
func WithNonces(n map[common.Address]uint64) Option {
	return func(c *Chain) {
		for a, v := range n {
			c.nonces[a] = v
		}
	}
}

// WithAddress sets the token contract address stamped on logs. It defaults
// to the CREATE address of the genesis owner.
func WithAddress(a common.Address) Option {
	return func(c *Chain) { c.address = a }
}

// WithNotifier forwards the events of each committed block to e.
func WithNotifier(e token.Emitter) Option {
	return func(c *Chain) { c.sink = e }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Chain) {
		if l != nil {
			c.log = l
		}
	}
}

// WithLedgerOptions passes options through to the ledger. An emitter set
// here is replaced by the chain's own.
func WithLedgerOptions(opts ...token.Option) Option {
	return func(c *Chain) { c.ledgerOpts = append(c.ledgerOpts, opts...) }
}

// WithClock overrides the receipt timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Chain) { c.now = now }
}

// New restores the ledger from st and wraps it.
func New(meta token.Metadata, st token.State, opts ...Option) (*Chain, error) {
	c := &Chain{
		nonces: make(map[common.Address]uint64),
		log:    zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.address == (common.Address{}) {
		c.address = contract.TokenAddress(st.Owner)
	}

	lopts := append(append([]token.Option{}, c.ledgerOpts...),
		token.WithEmitter(token.EmitterFunc(c.record)))
	l, err := token.Restore(meta, st, lopts...)
	if err != nil {
		return nil, err
	}
	c.ledger = l
	return c, nil
}

// record runs under the ledger lock inside Submit.
func (c *Chain) record(ev token.Event) {
	c.pending = append(c.pending, ev)
}

// Ledger returns a read-only view of the ledger.
func (c *Chain) Ledger() Reader { return c.ledger }

// Address is the token contract address used on logs.
func (c *Chain) Address() common.Address { return c.address }

// Head returns the latest block.
func (c *Chain) Head() Head {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.head
}

// NextNonce returns the nonce the next transaction from a must carry.
func (c *Chain) NextNonce(a common.Address) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nonces[a]
}

// Submit verifies and executes tx. A ledger failure is not an error here: it
// produces a receipt with status 0 and still consumes the nonce. If the store
// fails the Chain must be discarded, since the ledger already holds the effect.
func (c *Chain) Submit(ctx context.Context, tx *Tx) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !knownMethods[tx.Method] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, tx.Method)
	}
	signer, err := tx.Sender()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	if signer != tx.From {
		return nil, fmt.Errorf("%w: signed by %s, sent as %s", ErrBadSignature, signer.Hex(), tx.From.Hex())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if want := c.nonces[tx.From]; tx.Nonce != want {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrNonceMismatch, tx.Nonce, want)
	}

	c.pending = c.pending[:0]
	execErr := c.apply(tx)

	txHash := tx.Hash()
	head := Head{Number: c.head.Number + 1}
	head.Hash = rlpHash([]any{c.head.Hash, head.Number, txHash})

	r := &Receipt{
		TxHash:      txHash,
		BlockNumber: head.Number,
		BlockHash:   head.Hash,
		From:        tx.From,
		Nonce:       tx.Nonce,
		Method:      tx.Method,
		Status:      types.ReceiptStatusSuccessful,
		Logs:        []*types.Log{},
		Timestamp:   c.now().Unix(),
	}
	if execErr != nil {
		r.Status = types.ReceiptStatusFailed
		r.Error = token.KindOf(execErr).String()
	}
	for _, ev := range c.pending {
		lg, err := contract.EncodeLog(c.address, ev)
		if err != nil {
			c.log.Error("dropping unencodable event", zap.String("event", ev.Name), zap.Error(err))
			continue
		}
		lg.BlockNumber = head.Number
		lg.BlockHash = head.Hash
		lg.TxHash = txHash
		lg.Index = uint(len(r.Logs))
		r.Logs = append(r.Logs, lg)
	}

	if c.store != nil {
		err := c.store.Commit(&Commit{
			State:   c.ledger.Snapshot(),
			Sender:  tx.From,
			Nonce:   tx.Nonce + 1,
			Head:    head,
			Receipt: r,
		})
		if err != nil {
			return nil, fmt.Errorf("persisting block %d: %w", head.Number, err)
		}
	}
	c.nonces[tx.From] = tx.Nonce + 1
	c.head = head

	if c.sink != nil {
		for _, ev := range c.pending {
			c.sink.Emit(ev)
		}
	}

	fields := []zap.Field{
		zap.Uint64("block", head.Number),
		zap.String("method", tx.Method),
		zap.Stringer("from", tx.From),
		zap.Uint64("nonce", tx.Nonce),
		zap.Stringer("tx", txHash),
		zap.Int("logs", len(r.Logs)),
	}
	if execErr != nil {
		c.log.Warn("transaction failed", append(fields, zap.Error(execErr))...)
	} else {
		c.log.Info("transaction applied", fields...)
	}
	return r, nil
}

// Send signs a call with key at the sender's next nonce and submits it.
func (c *Chain) Send(ctx context.Context, key *ecdsa.PrivateKey, method string, to common.Address, amount *uint256.Int) (*Receipt, error) {
	tx := &Tx{
		Nonce:  c.NextNonce(crypto.PubkeyToAddress(key.PublicKey)),
		Method: method,
		To:     to,
		Amount: amount,
	}
	if err := SignTx(tx, key); err != nil {
		return nil, err
	}
	return c.Submit(ctx, tx)
}

func (c *Chain) apply(tx *Tx) error {
	switch tx.Method {
	case MethodTransfer:
		return c.ledger.Transfer(tx.From, tx.To, tx.Amount)
	case MethodBurn:
		return c.ledger.Burn(tx.From, tx.Amount)
	case MethodPause:
		return c.ledger.Pause(tx.From)
	case MethodUnpause:
		return c.ledger.Unpause(tx.From)
	case MethodTransferOwnership:
		return c.ledger.TransferOwnership(tx.From, tx.To)
	}
	return fmt.Errorf("%w: %q", ErrUnknownMethod, tx.Method)
}
