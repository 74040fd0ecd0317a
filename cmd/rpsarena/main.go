package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rpsarena/rpsarena/common/db"
	"github.com/rpsarena/rpsarena/executor"
	"github.com/rpsarena/rpsarena/types"
)

var (
	configPath string
	dataDir    string
	slot       uint64
	fromAddr   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rpsarena",
		Short: "wager-settled rock paper scissors over a local state store",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a toml config file")
	rootCmd.PersistentFlags().StringVar(&dataDir, "datadir", "", "data directory, overrides the config")
	rootCmd.PersistentFlags().Uint64Var(&slot, "slot", 0, "current slot")
	rootCmd.PersistentFlags().StringVar(&fromAddr, "from", "", "sender address")

	rootCmd.AddCommand(
		depositCmd(),
		createPlayerCmd(),
		commitCmd(),
		createCmd(),
		joinCmd(),
		revealCmd(),
		expireCmd(),
		settleCmd(),
		cleanCmd(),
		queryCmd(),
	)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openExecutor() (*executor.RPS, func(), error) {
	cfg, err := types.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	if dataDir != "" {
		cfg.DB.Path = dataDir
	}
	stateDB := db.NewDB("state", cfg.DB.Driver, cfg.DB.Path, cfg.DB.Cache)
	localDB := db.NewDB("local", cfg.DB.Driver, cfg.DB.Path, cfg.DB.Cache)
	r, err := executor.NewRPS(cfg, stateDB, localDB)
	if err != nil {
		stateDB.Close()
		localDB.Close()
		return nil, nil, err
	}
	r.SetEnv(slot)
	closer := func() {
		stateDB.Close()
		localDB.Close()
	}
	return r, closer, nil
}

// runAction executes one action end to end: state transition, index
// maintenance, flush, and prints the receipt.
func runAction(action *types.RPSAction) error {
	if fromAddr == "" {
		return fmt.Errorf("--from is required")
	}
	r, closer, err := openExecutor()
	if err != nil {
		return err
	}
	defer closer()

	tx := &types.Transaction{
		Execer:  []byte(types.RPSX),
		Payload: types.Encode(action),
		From:    fromAddr,
		Nonce:   time.Now().UnixNano(),
	}
	receipt, err := r.Exec(tx, 0)
	if err != nil {
		return err
	}
	if err := r.ExecLocal(&types.ReceiptData{Ty: receipt.Ty, Logs: receipt.Logs}); err != nil {
		return err
	}
	if err := r.Flush(); err != nil {
		return err
	}
	return printJSON(receipt)
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
