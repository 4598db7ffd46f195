package config

// Config holds all qbx configuration.
type Config struct {
	DefaultAccount string `json:"default_account"`
	PauseTransfers bool   `json:"pause_transfers"` // gate transfers on the pause flag, not only burns
	LogLevel       string `json:"log_level"`       // "debug" | "info" | "warn" | "error"
	LogPath        string `json:"log_path,omitempty"`
	WatchInterval  int    `json:"watch_interval"` // seconds between store polls in `events watch`
	MetricsAddr    string `json:"metrics_addr,omitempty"`

	// internal: config dir path used for Save()
	configDir string
}

// Genesis is the YAML description of a crowdsale run. Goal and Cap are
// whole-ether values.
type Genesis struct {
	Token            GenesisToken `yaml:"token"`
	Accounts         int          `yaml:"accounts"`
	Rate             uint64       `yaml:"rate"`
	PreferentialRate uint64       `yaml:"preferential_rate"`
	Goal             uint64       `yaml:"goal"`
	Cap              uint64       `yaml:"cap"`
	Split            []uint64     `yaml:"split"`
	Preferential     []string     `yaml:"preferential,omitempty"` // account names or addresses
}

// GenesisToken is the token metadata section of a genesis file.
type GenesisToken struct {
	Name     string `yaml:"name"`
	Symbol   string `yaml:"symbol"`
	Decimals uint8  `yaml:"decimals"`
}
