package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/Mohsinsiddi/qbx/internal/config"
	"github.com/Mohsinsiddi/qbx/internal/contract"
	"github.com/Mohsinsiddi/qbx/internal/crowdsale"
	"github.com/Mohsinsiddi/qbx/internal/store"
	"github.com/Mohsinsiddi/qbx/internal/ui"
	"github.com/Mohsinsiddi/qbx/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	genesisFile     string
	genesisAccounts int
	genesisTemplate bool
)

var genesisCmd = &cobra.Command{
	Use:   "genesis",
	Short: "Run the crowdsale and create the ledger",
	Long: `Create the genesis accounts, run the crowdsale and write the ledger.

account0 runs the sale and owns the token; account1.. buy the whole-token
amounts in the split (40/30/20/10/0 QBX by default). The sale parameters
come from --file, else genesis.yaml in the config dir, else the defaults.

Examples:
  qbx genesis
  qbx genesis --accounts 8
  qbx genesis --template   # write the default genesis.yaml and stop`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if genesisTemplate {
			path := cfg.GenesisPath()
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := config.SaveGenesis(path, config.DefaultGenesis()); err != nil {
				return err
			}
			fmt.Println(ui.Success("Wrote " + path))
			fmt.Println(ui.Hint("Edit it, then run: qbx genesis"))
			return nil
		}

		g, err := loadGenesis()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("accounts") {
			g.Accounts = genesisAccounts
			if err := g.Validate(); err != nil {
				return err
			}
		}

		st, err := store.Open(cfg.LedgerPath(), false)
		if err != nil {
			return err
		}
		defer st.Close()
		if _, err := st.Metadata(); err == nil {
			return store.ErrAlreadyInitialized
		} else if !errors.Is(err, store.ErrNotInitialized) {
			return err
		}

		mgr, err := newAccountManager(true)
		if err != nil {
			return err
		}
		accounts, created, err := ensureAccounts(mgr, accountNames(g.Accounts))
		if err != nil {
			return err
		}

		params, err := g.Params(mgr.Resolve)
		if err != nil {
			return err
		}
		sale, err := crowdsale.Simulate(params, accounts)
		if err != nil {
			return fmt.Errorf("crowdsale: %w", err)
		}
		meta := g.Metadata()
		l, err := sale.Token(meta)
		if err != nil {
			return err
		}
		addr := contract.TokenAddress(sale.Owner)
		if err := st.Init(meta, addr, l.Snapshot()); err != nil {
			return err
		}
		logger.Info("genesis written",
			zap.Stringer("owner", sale.Owner),
			zap.Stringer("token", addr),
			zap.String("supply", l.TotalSupply().Dec()),
			zap.Int("accounts", len(accounts)))

		if cfg.DefaultAccount == "" {
			cfg.DefaultAccount = accountNames(1)[0]
			if err := cfg.Save(); err != nil {
				return err
			}
		}

		name := namer(mgr, addr)
		fmt.Println(ui.Banner())
		fmt.Println(ui.KeyValueBlock("Genesis ✓", [][2]string{
			{"Token", fmt.Sprintf("%s (%s)", meta.Name, ui.Symbol(meta.Symbol))},
			{"Decimals", fmt.Sprintf("%d", meta.Decimals)},
			{"Address", ui.Addr(addr.Hex())},
			{"Owner", ui.Who(sale.Owner, name)},
			{"Supply", ui.Val(ui.Amount(l.TotalSupply(), meta))},
			{"Wei raised", sale.WeiRaised.Dec()},
			{"Goal reached", fmt.Sprintf("%v", sale.GoalReached)},
			{"New accounts", fmt.Sprintf("%d", created)},
		}))

		t := ui.NewTable([]ui.Column{
			{Title: "BUYER", Width: 12},
			{Title: "ADDRESS", Width: 42},
			{Title: "RATE", Width: 6, Right: true},
			{Title: "WEI", Width: 20, Right: true},
			{Title: "TOKENS", Width: 14, Right: true},
		})
		for _, p := range sale.Purchases {
			t.AddRow(ui.Row{
				name(p.Buyer),
				p.Buyer.Hex(),
				fmt.Sprintf("%d", p.Rate),
				p.Wei.Dec(),
				ui.Amount(p.Tokens, meta),
			})
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Hint("Default account: " + cfg.DefaultAccount))
		return nil
	},
}

// loadGenesis picks --file, then genesis.yaml in the config dir, then the
// built-in defaults.
func loadGenesis() (*config.Genesis, error) {
	if genesisFile != "" {
		return config.LoadGenesis(genesisFile)
	}
	if _, err := os.Stat(cfg.GenesisPath()); err == nil {
		return config.LoadGenesis(cfg.GenesisPath())
	}
	return config.DefaultGenesis(), nil
}

// ensureAccounts returns the addresses of names, generating a key for each
// name that does not exist yet.
func ensureAccounts(mgr *wallet.Manager, names []string) ([]common.Address, int, error) {
	out := make([]common.Address, 0, len(names))
	created := 0
	for _, n := range names {
		a, err := mgr.Get(n)
		if errors.Is(err, wallet.ErrAccountNotFound) {
			a, _, err = mgr.Generate(n)
			created++
		}
		if err != nil {
			return nil, 0, fmt.Errorf("account %s: %w", n, err)
		}
		out = append(out, a.Address)
	}
	return out, created, nil
}

func init() {
	genesisCmd.Flags().StringVar(&genesisFile, "file", "", "genesis YAML (default: <config>/genesis.yaml)")
	genesisCmd.Flags().IntVar(&genesisAccounts, "accounts", 0, "number of accounts to create (owner included)")
	genesisCmd.Flags().BoolVar(&genesisTemplate, "template", false, "write the default genesis.yaml and exit")
}
