package types

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config is the top-level node configuration.
type Config struct {
	Title string    `toml:"title"`
	RPS   RPSConfig `toml:"rps"`
	DB    DBConfig  `toml:"db"`
}

// RPSConfig tunes the game executor. Zero fields fall back to the
// compiled-in defaults.
type RPSConfig struct {
	ChallengeWindow uint64 `toml:"challengeWindow"`
	RevealWindow    uint64 `toml:"revealWindow"`
	FeeBps          uint64 `toml:"feeBps"`
	MaxWager        uint64 `toml:"maxWager"`
	GameRent        uint64 `toml:"gameRent"`
	Symbol          string `toml:"symbol"`
	DefaultCount    int32  `toml:"defaultCount"`
	MaxCount        int32  `toml:"maxCount"`
}

// DBConfig selects and locates the backing store.
type DBConfig struct {
	Driver string `toml:"driver"`
	Path   string `toml:"dbPath"`
	Cache  int32  `toml:"dbCache"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Title: "rpsarena",
		RPS: RPSConfig{
			ChallengeWindow: ChallengeWindow,
			RevealWindow:    RevealWindow,
			FeeBps:          FeeBps,
			MaxWager:        MaxWagerAmount,
			GameRent:        GameRent,
			Symbol:          "coins",
			DefaultCount:    DefaultCount,
			MaxCount:        MaxCount,
		},
		DB: DBConfig{
			Driver: "leveldb",
			Path:   "datadir",
			Cache:  64,
		},
	}
}

// LoadConfig reads a TOML file and merges it over the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, errors.Wrapf(err, "load config %s", path)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.RPS.ChallengeWindow == 0 {
		c.RPS.ChallengeWindow = def.RPS.ChallengeWindow
	}
	if c.RPS.RevealWindow == 0 {
		c.RPS.RevealWindow = def.RPS.RevealWindow
	}
	if c.RPS.FeeBps == 0 {
		c.RPS.FeeBps = def.RPS.FeeBps
	}
	if c.RPS.MaxWager == 0 || c.RPS.MaxWager > MaxWagerAmount {
		c.RPS.MaxWager = MaxWagerAmount
	}
	if c.RPS.GameRent == 0 {
		c.RPS.GameRent = def.RPS.GameRent
	}
	if c.RPS.Symbol == "" {
		c.RPS.Symbol = def.RPS.Symbol
	}
	if c.RPS.DefaultCount <= 0 {
		c.RPS.DefaultCount = def.RPS.DefaultCount
	}
	if c.RPS.MaxCount <= 0 {
		c.RPS.MaxCount = def.RPS.MaxCount
	}
	if c.DB.Driver == "" {
		c.DB.Driver = def.DB.Driver
	}
	if c.DB.Path == "" {
		c.DB.Path = def.DB.Path
	}
	if c.DB.Cache <= 0 {
		c.DB.Cache = def.DB.Cache
	}
}
