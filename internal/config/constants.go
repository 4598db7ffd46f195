package config

import "time"

// Files inside the config dir.
const (
	LedgerFile   = "ledger.db"
	AccountsFile = "accounts.json"
	GenesisFile  = "genesis.yaml"
	LogFile      = "qbx.log"
)

// DirEnv overrides the config dir.
const DirEnv = "QBX_CONFIG_DIR"

// Timeouts used by commands.
const (
	SubmitTimeout = 30 * time.Second // one signed call, including the store lock wait
	MinWatchPoll  = 1 * time.Second
)
