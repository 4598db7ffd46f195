package chain_test

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Mohsinsiddi/qbx/internal/chain"
	"github.com/Mohsinsiddi/qbx/internal/contract"
	"github.com/Mohsinsiddi/qbx/internal/crowdsale"
	"github.com/Mohsinsiddi/qbx/internal/events"
	"github.com/Mohsinsiddi/qbx/internal/token"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

type fixture struct {
	keys  []*ecdsa.PrivateKey
	addrs []common.Address
	chain *chain.Chain
}

func newFixture(t *testing.T, opts ...chain.Option) *fixture {
	t.Helper()
	f := &fixture{}
	for i := 0; i < 6; i++ {
		k, err := crypto.GenerateKey()
		require.NoError(t, err)
		f.keys = append(f.keys, k)
		f.addrs = append(f.addrs, crypto.PubkeyToAddress(k.PublicKey))
	}
	sale, err := crowdsale.Simulate(crowdsale.DefaultParams(), f.addrs)
	require.NoError(t, err)

	c, err := chain.New(token.QBX, token.State{Owner: sale.Owner, Balances: sale.Allocation}, opts...)
	require.NoError(t, err)
	f.chain = c
	return f
}

func (f *fixture) send(t *testing.T, from int, method string, to common.Address, amount *uint256.Int) *chain.Receipt {
	t.Helper()
	r, err := f.chain.Send(context.Background(), f.keys[from], method, to, amount)
	require.NoError(t, err)
	return r
}

func qbx(t *testing.T, s string) *uint256.Int {
	t.Helper()
	v, err := token.ParseAmount(s, token.Decimals)
	require.NoError(t, err)
	return v
}

type memStore struct {
	mu      sync.Mutex
	commits []*chain.Commit
	fail    error
}

func (s *memStore) Commit(c *chain.Commit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.commits = append(s.commits, c)
	return nil
}

// ---------------------------------------------------------------------------
// reference scenario
// ---------------------------------------------------------------------------

func TestBurnScenarioThroughSignedCalls(t *testing.T) {
	f := newFixture(t)
	l := f.chain.Ledger()
	owner, account1, account5 := 0, 1, 5

	assert.True(t, l.BalanceOf(f.addrs[account5]).IsZero())

	r := f.send(t, account1, chain.MethodTransfer, f.addrs[account5], qbx(t, "1"))
	require.True(t, r.Succeeded())
	assert.Equal(t, qbx(t, "1"), l.BalanceOf(f.addrs[account5]))

	r = f.send(t, owner, chain.MethodPause, common.Address{}, nil)
	require.True(t, r.Succeeded())
	assert.True(t, l.Paused())

	supply := l.TotalSupply()
	r = f.send(t, account5, chain.MethodBurn, common.Address{}, qbx(t, "0.3"))
	assert.False(t, r.Succeeded())
	assert.Equal(t, token.KindContractPaused, r.Kind())
	assert.ErrorIs(t, r.Err(), token.ErrContractPaused)
	assert.Empty(t, r.Logs)
	assert.Equal(t, qbx(t, "1"), l.BalanceOf(f.addrs[account5]))
	assert.Equal(t, supply, l.TotalSupply())
	assert.Equal(t, uint64(1), f.chain.NextNonce(f.addrs[account5]), "failed call consumes the nonce")

	r = f.send(t, owner, chain.MethodUnpause, common.Address{}, nil)
	require.True(t, r.Succeeded())

	r = f.send(t, account5, chain.MethodBurn, common.Address{}, qbx(t, "0.3"))
	require.True(t, r.Succeeded())
	assert.Equal(t, qbx(t, "0.7"), l.BalanceOf(f.addrs[account5]))
	assert.Equal(t, new(uint256.Int).Sub(supply, qbx(t, "0.3")), l.TotalSupply())

	require.Len(t, r.Logs, 1)
	ev, err := contract.DecodeLog(r.Logs[0])
	require.NoError(t, err)
	assert.Equal(t, token.EventBurn, ev.Name)
	assert.Equal(t, f.addrs[account5], ev.Address("burner"))

	assert.Equal(t, uint64(5), f.chain.Head().Number)
}

// ---------------------------------------------------------------------------
// receipts
// ---------------------------------------------------------------------------

func TestReceiptFields(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	f := newFixture(t, chain.WithClock(func() time.Time { return at }))

	r := f.send(t, 1, chain.MethodTransfer, f.addrs[2], qbx(t, "2"))
	assert.Equal(t, uint64(1), r.BlockNumber)
	assert.Equal(t, f.addrs[1], r.From)
	assert.Equal(t, uint64(0), r.Nonce)
	assert.Equal(t, chain.MethodTransfer, r.Method)
	assert.Equal(t, at.Unix(), r.Timestamp)
	assert.Empty(t, r.Error)
	assert.NoError(t, r.Err())

	require.Len(t, r.Logs, 1)
	lg := r.Logs[0]
	assert.Equal(t, f.chain.Address(), lg.Address)
	assert.Equal(t, contract.TokenAddress(f.addrs[0]), lg.Address)
	assert.Equal(t, r.TxHash, lg.TxHash)
	assert.Equal(t, r.BlockHash, lg.BlockHash)
	assert.Equal(t, uint64(1), lg.BlockNumber)
	assert.Equal(t, "Transfer", contract.EventName(lg.Topics[0]))
}

func TestBlockHashesChain(t *testing.T) {
	f := newFixture(t)
	r1 := f.send(t, 1, chain.MethodTransfer, f.addrs[2], qbx(t, "1"))
	r2 := f.send(t, 1, chain.MethodTransfer, f.addrs[2], qbx(t, "1"))

	assert.NotEqual(t, r1.BlockHash, r2.BlockHash)
	assert.Equal(t, chain.Head{Number: 2, Hash: r2.BlockHash}, f.chain.Head())
}

func TestIdempotentPauseHasNoLogs(t *testing.T) {
	f := newFixture(t)
	r := f.send(t, 0, chain.MethodPause, common.Address{}, nil)
	assert.Len(t, r.Logs, 1)

	r = f.send(t, 0, chain.MethodPause, common.Address{}, nil)
	assert.True(t, r.Succeeded())
	assert.Empty(t, r.Logs)
}

func TestUnauthorizedPauseReceipt(t *testing.T) {
	f := newFixture(t)
	r := f.send(t, 3, chain.MethodPause, common.Address{}, nil)
	assert.False(t, r.Succeeded())
	assert.Equal(t, token.KindUnauthorized, r.Kind())
	assert.False(t, f.chain.Ledger().Paused())
}

func TestTransferOwnershipMovesPauseControl(t *testing.T) {
	f := newFixture(t)
	r := f.send(t, 0, chain.MethodTransferOwnership, f.addrs[2], nil)
	require.True(t, r.Succeeded())
	assert.Equal(t, f.addrs[2], f.chain.Ledger().Owner())

	r = f.send(t, 0, chain.MethodPause, common.Address{}, nil)
	assert.Equal(t, token.KindUnauthorized, r.Kind())
	r = f.send(t, 2, chain.MethodPause, common.Address{}, nil)
	assert.True(t, r.Succeeded())

	// Logs keep the genesis contract address.
	assert.Equal(t, contract.TokenAddress(f.addrs[0]), r.Logs[0].Address)
}

func TestPausableTransfersPolicy(t *testing.T) {
	f := newFixture(t, chain.WithLedgerOptions(token.WithPausableTransfers(true)))
	assert.True(t, f.chain.Ledger().PausableTransfers())

	f.send(t, 0, chain.MethodPause, common.Address{}, nil)
	r := f.send(t, 1, chain.MethodTransfer, f.addrs[2], qbx(t, "1"))
	assert.Equal(t, token.KindContractPaused, r.Kind())
}

// ---------------------------------------------------------------------------
// rejection
// ---------------------------------------------------------------------------

func TestRejectsWrongNonce(t *testing.T) {
	f := newFixture(t)
	tx := &chain.Tx{Nonce: 7, Method: chain.MethodBurn, Amount: qbx(t, "1")}
	require.NoError(t, chain.SignTx(tx, f.keys[1]))

	_, err := f.chain.Submit(context.Background(), tx)
	assert.ErrorIs(t, err, chain.ErrNonceMismatch)
	assert.Equal(t, uint64(0), f.chain.NextNonce(f.addrs[1]))
	assert.Equal(t, uint64(0), f.chain.Head().Number)
}

func TestRejectsForgedSender(t *testing.T) {
	f := newFixture(t)
	tx := &chain.Tx{Method: chain.MethodTransfer, To: f.addrs[3], Amount: qbx(t, "1")}
	require.NoError(t, chain.SignTx(tx, f.keys[3]))
	tx.From = f.addrs[1]

	_, err := f.chain.Submit(context.Background(), tx)
	assert.ErrorIs(t, err, chain.ErrBadSignature)
	assert.True(t, f.chain.Ledger().BalanceOf(f.addrs[3]).Eq(qbx(t, "20")))
}

func TestRejectsUnsignedAndUnknown(t *testing.T) {
	f := newFixture(t)
	_, err := f.chain.Submit(context.Background(), &chain.Tx{From: f.addrs[1], Method: chain.MethodBurn})
	assert.ErrorIs(t, err, chain.ErrBadSignature)

	tx := &chain.Tx{Method: "mint", Amount: qbx(t, "1")}
	require.NoError(t, chain.SignTx(tx, f.keys[0]))
	_, err = f.chain.Submit(context.Background(), tx)
	assert.ErrorIs(t, err, chain.ErrUnknownMethod)
}

func TestRejectsCancelledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.chain.Send(ctx, f.keys[1], chain.MethodBurn, common.Address{}, qbx(t, "1"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTxHashCoversFields(t *testing.T) {
	base := chain.Tx{Nonce: 1, Method: chain.MethodBurn, Amount: uint256.NewInt(5)}
	h := base.Hash()

	other := base
	other.Amount = uint256.NewInt(6)
	assert.NotEqual(t, h, other.Hash())

	other = base
	other.Nonce = 2
	assert.NotEqual(t, h, other.Hash())

	other = base
	other.Signature = []byte{1, 2, 3}
	assert.Equal(t, h, other.Hash())
}

// ---------------------------------------------------------------------------
// store and notifier
// ---------------------------------------------------------------------------

func TestCommitsEveryBlock(t *testing.T) {
	st := &memStore{}
	f := newFixture(t, chain.WithStore(st))

	f.send(t, 1, chain.MethodBurn, common.Address{}, qbx(t, "4"))
	f.send(t, 0, chain.MethodPause, common.Address{}, nil)
	f.send(t, 1, chain.MethodBurn, common.Address{}, qbx(t, "1"))

	require.Len(t, st.commits, 3)
	last := st.commits[2]
	assert.Equal(t, f.addrs[1], last.Sender)
	assert.Equal(t, uint64(2), last.Nonce)
	assert.Equal(t, uint64(3), last.Head.Number)
	assert.False(t, last.Receipt.Succeeded())
	assert.True(t, last.State.Paused)
	assert.Equal(t, qbx(t, "36"), last.State.Balances[f.addrs[1]])
}

func TestStoreFailureSurfaces(t *testing.T) {
	st := &memStore{fail: errors.New("disk full")}
	f := newFixture(t, chain.WithStore(st))

	_, err := f.chain.Send(context.Background(), f.keys[1], chain.MethodBurn, common.Address{}, qbx(t, "1"))
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, uint64(0), f.chain.Head().Number)
}

func TestResumeFromHeadAndNonces(t *testing.T) {
	keys := make([]*ecdsa.PrivateKey, 2)
	for i := range keys {
		k, err := crypto.GenerateKey()
		require.NoError(t, err)
		keys[i] = k
	}
	owner := crypto.PubkeyToAddress(keys[0].PublicKey)
	holder := crypto.PubkeyToAddress(keys[1].PublicKey)

	head := chain.Head{Number: 9, Hash: common.HexToHash("0x01")}
	c, err := chain.New(token.QBX,
		token.State{Owner: owner, Balances: token.Allocation{holder: qbx(t, "5")}},
		chain.WithHead(head),
		chain.WithNonces(map[common.Address]uint64{holder: 4}),
	)
	require.NoError(t, err)
	assert.Equal(t, head, c.Head())
	assert.Equal(t, uint64(4), c.NextNonce(holder))

	r, err := c.Send(context.Background(), keys[1], chain.MethodBurn, common.Address{}, qbx(t, "1"))
	require.NoError(t, err)
	assert.Equal(t, uint64(10), r.BlockNumber)
	assert.Equal(t, uint64(4), r.Nonce)
}

func TestForwardsCommittedEvents(t *testing.T) {
	n := events.NewNotifier()
	defer n.Close()

	got := make(chan token.Event, 4)
	n.Subscribe(func(ev token.Event) { got <- ev })

	f := newFixture(t, chain.WithNotifier(n))
	f.send(t, 0, chain.MethodPause, common.Address{}, nil)
	f.send(t, 1, chain.MethodBurn, common.Address{}, qbx(t, "1")) // fails, no event
	f.send(t, 0, chain.MethodUnpause, common.Address{}, nil)

	var names []string
	for i := 0; i < 2; i++ {
		select {
		case ev := <-got:
			names = append(names, ev.Name)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
	assert.Equal(t, []string{token.EventPause, token.EventUnpause}, names)
}

func TestConcurrentSendsAreSerialised(t *testing.T) {
	f := newFixture(t)
	tenth := qbx(t, "0.1")
	var wg sync.WaitGroup
	for _, i := range []int{1, 2, 3, 4} {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				_, err := f.chain.Send(context.Background(), f.keys[i], chain.MethodBurn, common.Address{}, tenth)
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, uint64(20), f.chain.Head().Number)
	assert.Equal(t, qbx(t, "98"), f.chain.Ledger().TotalSupply())
}
