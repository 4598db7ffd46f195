package cmd

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/qbx/internal/chain"
	"github.com/Mohsinsiddi/qbx/internal/contract"
	"github.com/Mohsinsiddi/qbx/internal/store"
	"github.com/Mohsinsiddi/qbx/internal/token"
	"github.com/Mohsinsiddi/qbx/internal/ui"
	"github.com/Mohsinsiddi/qbx/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
)

// newAccountManager returns a manager over accounts.json. Only signing
// commands open the keyring.
func newAccountManager(withKeys bool) (*wallet.Manager, error) {
	opts := []wallet.Option{wallet.WithStore(wallet.NewJSONStore(cfg.AccountsPath()))}
	if withKeys {
		ks, err := wallet.OpenKeystore(cfg.Dir())
		if err != nil {
			return nil, err
		}
		opts = append(opts, wallet.WithKeystore(ks))
	}
	return wallet.NewManager(opts...), nil
}

// signingKey resolves the account to sign with: --from, else the default.
func signingKey(mgr *wallet.Manager, from string) (*wallet.Account, *ecdsa.PrivateKey, error) {
	if from == "" {
		from = cfg.DefaultAccount
	}
	if from == "" {
		return nil, nil, errors.New("no account given; pass --from or run `qbx config set-default-account`")
	}
	acct, err := mgr.Get(from)
	if err != nil {
		return nil, nil, err
	}
	key, err := mgr.PrivateKey(from)
	if err != nil {
		return nil, nil, fmt.Errorf("account %q: %w", from, err)
	}
	return acct, key, nil
}

// openChain opens the ledger file for writing and resumes a chain on it. The
// caller closes the store.
func openChain() (*store.Store, *chain.Chain, error) {
	st, err := store.Open(cfg.LedgerPath(), false)
	if err != nil {
		return nil, nil, err
	}
	c, err := resumeChain(st)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return st, c, nil
}

func resumeChain(st *store.Store) (*chain.Chain, error) {
	meta, err := st.Metadata()
	if err != nil {
		return nil, err
	}
	state, err := st.LoadState()
	if err != nil {
		return nil, err
	}
	head, err := st.Head()
	if err != nil {
		return nil, err
	}
	nonces, err := st.Nonces()
	if err != nil {
		return nil, err
	}
	addr, err := st.Address()
	if err != nil {
		return nil, err
	}
	return chain.New(meta, state,
		chain.WithStore(st),
		chain.WithHead(head),
		chain.WithNonces(nonces),
		chain.WithAddress(addr),
		chain.WithLogger(logger),
		chain.WithLedgerOptions(token.WithPausableTransfers(cfg.PauseTransfers)),
	)
}

// readLedger opens the ledger read-only and restores it for queries.
func readLedger() (*store.Store, *token.Ledger, error) {
	st, err := store.Open(cfg.LedgerPath(), true)
	if err != nil {
		return nil, nil, err
	}
	meta, err := st.Metadata()
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	state, err := st.LoadState()
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	l, err := token.Restore(meta, state, token.WithPausableTransfers(cfg.PauseTransfers))
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return st, l, nil
}

// namer maps addresses to account names, marking the token contract.
func namer(mgr *wallet.Manager, tokenAddr common.Address) ui.Namer {
	return func(a common.Address) string {
		if a == tokenAddr && a != (common.Address{}) {
			return "token"
		}
		if mgr == nil {
			return ""
		}
		return mgr.NameOf(a)
	}
}

// accountNames returns the genesis account names: owner first, then buyers.
func accountNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("account%d", i)
	}
	return names
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

// errorLine renders a command error. Ledger failures get a hint.
func errorLine(err error) string {
	line := ui.Err(err.Error())
	switch token.KindOf(err) {
	case token.KindContractPaused:
		line += "\n" + ui.Hint("the ledger is paused; the owner can run `qbx token unpause`")
	case token.KindUnauthorized:
		line += "\n" + ui.Hint("only the owner can do this; see `qbx token info`")
	case token.KindInsufficientBalance:
		line += "\n" + ui.Hint("check the balance with `qbx token balance`")
	}
	return line
}

// receiptBlock renders a receipt the way every signing command prints it.
func receiptBlock(title string, r *chain.Receipt, meta token.Metadata, name ui.Namer) string {
	pairs := [][2]string{
		{"Status", ui.Status(r.Succeeded(), r.Error)},
		{"Block", fmt.Sprintf("#%d", r.BlockNumber)},
		{"Tx", ui.Addr(r.TxHash.Hex())},
		{"From", ui.Who(r.From, name)},
		{"Nonce", fmt.Sprintf("%d", r.Nonce)},
	}
	for _, lg := range r.Logs {
		ev, err := contract.DecodeLog(lg)
		if err != nil {
			continue
		}
		pairs = append(pairs, [2]string{ev.Name, ui.DescribeEvent(ev, meta, name)})
	}
	if len(r.Logs) == 0 && r.Succeeded() {
		pairs = append(pairs, [2]string{"Events", ui.Meta("none")})
	}
	return ui.KeyValueBlock(title, pairs)
}
