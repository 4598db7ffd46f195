package cmd

import (
	"errors"
	"fmt"

	"github.com/Mohsinsiddi/qbx/internal/store"
	"github.com/Mohsinsiddi/qbx/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var (
	accountKeyFlag  string
	accountShowKey  bool
	accountAssumeOK bool
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage accounts",
}

var accountAddCmd = &cobra.Command{
	Use:   "add <name> [address]",
	Short: "Add an account",
	Long: `Add a signing account from a private key, or a watch-only account from an
address.

Examples:
  qbx account add alice --key 0xac09…
  qbx account add bob 0x70997970C51812dc3A010C7d01b50e0d17dc79C8`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		if accountKeyFlag != "" {
			mgr, err := newAccountManager(true)
			if err != nil {
				return err
			}
			a, err := mgr.Import(name, accountKeyFlag)
			if err != nil {
				return err
			}
			fmt.Println(ui.Success(fmt.Sprintf("Signing account %q added: %s", name, ui.Addr(a.Address.Hex()))))
			fmt.Println(ui.Hint(fmt.Sprintf("Set as default with: qbx account use %s", name)))
			return nil
		}

		if len(args) < 2 {
			return errors.New("address required for watch-only account\n  Usage: qbx account add <name> <address>\n  Or for signing: qbx account add <name> --key <private-key>")
		}
		if !common.IsHexAddress(args[1]) {
			return fmt.Errorf("invalid address %q", args[1])
		}
		mgr, err := newAccountManager(false)
		if err != nil {
			return err
		}
		addr := common.HexToAddress(args[1])
		if err := mgr.Add(name, addr); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Watch-only account %q added: %s", name, ui.Addr(addr.Hex()))))
		return nil
	},
}

var accountNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Generate a new signing account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := newAccountManager(true)
		if err != nil {
			return err
		}
		a, key, err := mgr.Generate(args[0])
		if err != nil {
			return err
		}
		pairs := [][2]string{
			{"Name", ui.Val(a.Name)},
			{"Address", ui.Addr(a.Address.Hex())},
		}
		if accountShowKey {
			pairs = append(pairs, [2]string{"Private key", ui.StyleWarning.Render(key)})
		}
		fmt.Println(ui.KeyValueBlock("Account Created ✓", pairs))
		return nil
	},
}

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts with their QBX balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := newAccountManager(false)
		if err != nil {
			return err
		}
		accounts := mgr.List()
		if len(accounts) == 0 {
			fmt.Println(ui.Info("No accounts yet."))
			fmt.Println(ui.Hint("Create the genesis accounts with: qbx genesis"))
			return nil
		}

		// Balances are shown only once a ledger exists.
		st, l, err := readLedger()
		switch {
		case err == nil:
			defer st.Close()
		case errors.Is(err, store.ErrNotInitialized):
			l = nil
		default:
			return err
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Name", Width: 12},
			{Title: "Address", Width: 42},
			{Title: "Type", Width: 10},
			{Title: "Balance", Width: 16, Right: true},
			{Title: "Default", Width: 7},
		})
		for _, a := range accounts {
			kind := "watch-only"
			if a.CanSign() {
				kind = "signing"
			}
			bal := ui.Meta("-")
			if l != nil {
				bal = ui.Amount(l.BalanceOf(a.Address), l.Metadata())
				if l.Owner() == a.Address {
					kind += "*"
				}
			}
			def := ""
			if a.Name == cfg.DefaultAccount {
				def = ui.StyleSuccess.Render("✓")
			}
			t.AddRow(ui.Row{ui.Val(a.Name), ui.Addr(a.Address.Hex()), ui.Meta(kind), bal, def})
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d account(s)  ·  * owner", len(accounts))))
		return nil
	},
}

var accountRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove an account and its key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if !accountAssumeOK && !ui.ConfirmDanger(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Remove account %q and its key?", name)) {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}
		mgr, err := newAccountManager(true)
		if err != nil {
			return err
		}
		if err := mgr.Remove(name); err != nil {
			return err
		}
		if cfg.DefaultAccount == name {
			cfg.DefaultAccount = ""
			if err := cfg.Save(); err != nil {
				return err
			}
		}
		fmt.Println(ui.Success(fmt.Sprintf("Account %q removed.", name)))
		return nil
	},
}

var accountUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the default signing account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setDefaultAccount(args[0])
	},
}

func setDefaultAccount(name string) error {
	mgr, err := newAccountManager(false)
	if err != nil {
		return err
	}
	if _, err := mgr.Get(name); err != nil {
		return err
	}
	cfg.DefaultAccount = name
	if err := cfg.Save(); err != nil {
		return err
	}
	fmt.Println(ui.Success(fmt.Sprintf("Default account set to %q", name)))
	return nil
}

func init() {
	accountAddCmd.Flags().StringVar(&accountKeyFlag, "key", "", "private key for a signing account (stored in the keyring)")
	accountNewCmd.Flags().BoolVar(&accountShowKey, "show-key", false, "print the generated private key")
	accountRemoveCmd.Flags().BoolVarP(&accountAssumeOK, "yes", "y", false, "skip confirmation")
	accountCmd.AddCommand(accountAddCmd, accountNewCmd, accountListCmd, accountRemoveCmd, accountUseCmd)
}
