package cmd

import (
	"context"
	"fmt"

	"github.com/Mohsinsiddi/qbx/internal/chain"
	"github.com/Mohsinsiddi/qbx/internal/config"
	"github.com/Mohsinsiddi/qbx/internal/token"
	"github.com/Mohsinsiddi/qbx/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
)

var (
	tokenFrom string
	tokenYes  bool
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Query and operate the QBX ledger",
	Long: `Query balances and send signed ledger calls.

  qbx token info                 — name, symbol, supply, owner, paused
  qbx token balance [account]    — balance of an account or address
  qbx token transfer <to> <amt>  — move tokens
  qbx token burn <amt>           — destroy your own tokens
  qbx token pause | unpause      — owner only
  qbx token transfer-ownership   — owner only

Signing commands use --from, else the default account.`,
}

// ── token info ────────────────────────────────────────────────────────────────

var tokenInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show token metadata and ledger state",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, l, err := readLedger()
		if err != nil {
			return err
		}
		defer st.Close()

		head, err := st.Head()
		if err != nil {
			return err
		}
		addr, err := st.Address()
		if err != nil {
			return err
		}
		mgr, err := newAccountManager(false)
		if err != nil {
			return err
		}

		meta := l.Metadata()
		paused := ui.StyleSuccess.Render("no")
		if l.Paused() {
			paused = ui.StyleWarning.Render("yes")
		}
		policy := "burns only"
		if l.PausableTransfers() {
			policy = "burns and transfers"
		}
		fmt.Println(ui.KeyValueBlock(fmt.Sprintf("%s (%s)", meta.Name, meta.Symbol), [][2]string{
			{"Name", meta.Name},
			{"Symbol", ui.Symbol(meta.Symbol)},
			{"Decimals", fmt.Sprintf("%d", meta.Decimals)},
			{"Total supply", ui.Val(ui.Amount(l.TotalSupply(), meta))},
			{"Owner", ui.Who(l.Owner(), namer(mgr, addr)) + "  " + ui.Addr(l.Owner().Hex())},
			{"Paused", paused},
			{"Pause gates", ui.Meta(policy)},
			{"Holders", fmt.Sprintf("%d", len(l.Holders()))},
			{"Block", fmt.Sprintf("#%d", head.Number)},
			{"Address", ui.Addr(addr.Hex())},
		}))
		return nil
	},
}

// ── token balance ─────────────────────────────────────────────────────────────

var tokenBalanceCmd = &cobra.Command{
	Use:   "balance [account|address]",
	Short: "Show the QBX balance of an account",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref := cfg.DefaultAccount
		if len(args) == 1 {
			ref = args[0]
		}
		if ref == "" {
			return fmt.Errorf("no account given and no default account set")
		}

		st, l, err := readLedger()
		if err != nil {
			return err
		}
		defer st.Close()

		mgr, err := newAccountManager(false)
		if err != nil {
			return err
		}
		who, err := mgr.Resolve(ref)
		if err != nil {
			return err
		}
		meta := l.Metadata()
		bal := l.BalanceOf(who)
		fmt.Println(ui.KeyValueBlock("Balance", [][2]string{
			{"Account", ref},
			{"Address", ui.Addr(who.Hex())},
			{"Balance", ui.Val(ui.Amount(bal, meta))},
			{"Base units", ui.Meta(bal.Dec())},
		}))
		return nil
	},
}

// ── token holders ─────────────────────────────────────────────────────────────

var tokenHoldersCmd = &cobra.Command{
	Use:   "holders",
	Short: "List every account with a non-zero balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, l, err := readLedger()
		if err != nil {
			return err
		}
		defer st.Close()
		mgr, err := newAccountManager(false)
		if err != nil {
			return err
		}
		addr, err := st.Address()
		if err != nil {
			return err
		}

		meta := l.Metadata()
		name := namer(mgr, addr)
		t := ui.NewTable([]ui.Column{
			{Title: "Account", Width: 12},
			{Title: "Address", Width: 42},
			{Title: "Balance", Width: 16, Right: true},
		})
		for _, h := range l.Holders() {
			t.AddRow(ui.Row{name(h), ui.Addr(h.Hex()), ui.Amount(l.BalanceOf(h), meta)})
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d holder(s)  ·  supply %s", len(l.Holders()), ui.Amount(l.TotalSupply(), meta))))
		return nil
	},
}

// ── signing commands ──────────────────────────────────────────────────────────

var tokenTransferCmd = &cobra.Command{
	Use:   "transfer <to> <amount>",
	Short: "Transfer tokens to an account or address",
	Long: `Transfer tokens from --from (default account) to an account name or address.

Examples:
  qbx token transfer account5 1 --from account1
  qbx token transfer 0x7099…79C8 0.25`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendCall(cmd, chain.MethodTransfer, args[0], args[1], "Transfer")
	},
}

var tokenBurnCmd = &cobra.Command{
	Use:   "burn <amount>",
	Short: "Burn tokens from your own balance",
	Long: `Burn (permanently destroy) tokens held by --from. The total supply drops
by the same amount. Fails while the ledger is paused.

Examples:
  qbx token burn 0.3 --from account5`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendCall(cmd, chain.MethodBurn, "", args[0], "Burn")
	},
}

var tokenPauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause the ledger (owner only)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendCall(cmd, chain.MethodPause, "", "", "Pause")
	},
}

var tokenUnpauseCmd = &cobra.Command{
	Use:   "unpause",
	Short: "Unpause the ledger (owner only)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendCall(cmd, chain.MethodUnpause, "", "", "Unpause")
	},
}

var tokenTransferOwnershipCmd = &cobra.Command{
	Use:   "transfer-ownership <new-owner>",
	Short: "Hand ownership (and pause control) to another account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendCall(cmd, chain.MethodTransferOwnership, args[0], "", "Ownership Transfer")
	},
}

// sendCall signs one ledger call from --from and submits it. A call the ledger
// rejects is still a block; its receipt is printed and the ledger error
// returned.
func sendCall(cmd *cobra.Command, method, toRef, amountStr, title string) error {
	mgr, err := newAccountManager(true)
	if err != nil {
		return err
	}
	acct, key, err := signingKey(mgr, tokenFrom)
	if err != nil {
		return err
	}

	// The write lock is taken only after the prompt.
	ro, l, err := readLedger()
	if err != nil {
		return err
	}
	meta := l.Metadata()
	tokenAddr, err := ro.Address()
	ro.Close()
	if err != nil {
		return err
	}
	name := namer(mgr, tokenAddr)

	var to common.Address
	if toRef != "" {
		if to, err = mgr.Resolve(toRef); err != nil {
			return err
		}
	}
	var amount *uint256.Int
	if method == chain.MethodTransfer || method == chain.MethodBurn {
		if amount, err = token.ParseAmount(amountStr, meta.Decimals); err != nil {
			return err
		}
	}

	if needsConfirm(method) && !tokenYes {
		fmt.Println(ui.KeyValueBlock(title+" Preview", previewPairs(method, acct.Address, to, amount, meta, name)))
		prompt := confirmPrompt(method, amount, to, meta, name)
		if !ui.ConfirmDanger(cmd.InOrStdin(), cmd.OutOrStdout(), prompt) {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}
	}

	st, c, err := openChain()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), config.SubmitTimeout)
	defer cancel()
	r, err := c.Send(ctx, key, method, to, amount)
	if err != nil {
		return err
	}

	if r.Succeeded() {
		fmt.Println(receiptBlock(title+" Confirmed ✓", r, meta, name))
		return nil
	}
	fmt.Println(receiptBlock(title+" Failed", r, meta, name))
	return r.Err()
}

func needsConfirm(method string) bool {
	return method == chain.MethodBurn || method == chain.MethodTransferOwnership
}

func previewPairs(method string, from, to common.Address, amount *uint256.Int, meta token.Metadata, name ui.Namer) [][2]string {
	pairs := [][2]string{{"From", ui.Who(from, name) + "  " + ui.Addr(from.Hex())}}
	switch method {
	case chain.MethodBurn:
		pairs = append(pairs, [2]string{"Burn", ui.Val(ui.Amount(amount, meta))})
	case chain.MethodTransferOwnership:
		pairs = append(pairs, [2]string{"New owner", ui.Who(to, name) + "  " + ui.Addr(to.Hex())})
	}
	return pairs
}

func confirmPrompt(method string, amount *uint256.Int, to common.Address, meta token.Metadata, name ui.Namer) string {
	switch method {
	case chain.MethodBurn:
		return fmt.Sprintf("Burn %s? This is irreversible.", ui.Amount(amount, meta))
	case chain.MethodTransferOwnership:
		return fmt.Sprintf("Give ownership to %s? You lose pause control.", ui.Who(to, name))
	}
	return method + "?"
}

func init() {
	for _, c := range []*cobra.Command{tokenTransferCmd, tokenBurnCmd, tokenPauseCmd, tokenUnpauseCmd, tokenTransferOwnershipCmd} {
		c.Flags().StringVar(&tokenFrom, "from", "", "signing account (default: config)")
	}
	tokenBurnCmd.Flags().BoolVarP(&tokenYes, "yes", "y", false, "skip confirmation")
	tokenTransferOwnershipCmd.Flags().BoolVarP(&tokenYes, "yes", "y", false, "skip confirmation")

	tokenCmd.AddCommand(
		tokenInfoCmd,
		tokenBalanceCmd,
		tokenHoldersCmd,
		tokenTransferCmd,
		tokenBurnCmd,
		tokenPauseCmd,
		tokenUnpauseCmd,
		tokenTransferOwnershipCmd,
	)
}
