package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rpsarena/rpsarena/common"
	"github.com/rpsarena/rpsarena/executor"
	"github.com/rpsarena/rpsarena/types"
)

func parseChoice(s string) (types.RPS, error) {
	switch s {
	case "rock", "0":
		return types.Rock, nil
	case "paper", "1":
		return types.Paper, nil
	case "scissors", "2":
		return types.Scissors, nil
	}
	return 0, fmt.Errorf("unknown choice %q, want rock, paper or scissors", s)
}

func depositCmd() *cobra.Command {
	var amount uint64
	cmd := &cobra.Command{
		Use:   "deposit",
		Short: "mint balance onto an address (local tooling only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if fromAddr == "" {
				return fmt.Errorf("--from is required")
			}
			r, closer, err := openExecutor()
			if err != nil {
				return err
			}
			defer closer()
			receipt, err := r.CoinsAccount().Deposit(fromAddr, amount)
			if err != nil {
				return err
			}
			if err := r.Flush(); err != nil {
				return err
			}
			return printJSON(receipt)
		},
	}
	cmd.Flags().Uint64Var(&amount, "amount", 0, "amount to mint")
	cmd.MarkFlagRequired("amount")
	return cmd
}

func createPlayerCmd() *cobra.Command {
	var symbol string
	cmd := &cobra.Command{
		Use:   "create-player",
		Short: "register the statistics record required before wagering",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(&types.RPSAction{
				Ty:               types.RPSActionCreatePlayerInfo,
				CreatePlayerInfo: &types.RPSPlayerInfoReq{Symbol: symbol},
			})
		},
	}
	cmd.Flags().StringVar(&symbol, "symbol", "", "asset symbol, defaults to the configured one")
	return cmd
}

func commitCmd() *cobra.Command {
	var salt uint64
	var choice string
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "compute a move commitment offline",
		RunE: func(cmd *cobra.Command, args []string) error {
			if fromAddr == "" {
				return fmt.Errorf("--from is required")
			}
			c, err := parseChoice(choice)
			if err != nil {
				return err
			}
			digest := executor.Commitment(fromAddr, salt, c)
			fmt.Println(common.ToHex(digest[:]))
			return nil
		},
	}
	cmd.Flags().Uint64Var(&salt, "salt", 0, "random salt, keep it until reveal")
	cmd.Flags().StringVar(&choice, "choice", "", "rock, paper or scissors")
	cmd.MarkFlagRequired("salt")
	cmd.MarkFlagRequired("choice")
	return cmd
}

func createCmd() *cobra.Command {
	var (
		seed       uint64
		commitment string
		value      uint64
		secret     uint64
		restricted bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "open a challenge with a committed move and an escrowed stake",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := common.FromHex(commitment)
			if err != nil {
				return err
			}
			create := &types.RPSCreate{
				Seed:       seed,
				Commitment: raw,
				Value:      value,
			}
			if restricted {
				proof := executor.EntryProof(executor.GameID(seed), secret)
				create.EntryProof = proof[:]
			}
			return runAction(&types.RPSAction{Ty: types.RPSActionCreate, Create: create})
		},
	}
	cmd.Flags().Uint64Var(&seed, "seed", 0, "game seed, determines the game id")
	cmd.Flags().StringVar(&commitment, "commitment", "", "hex move commitment from the commit command")
	cmd.Flags().Uint64Var(&value, "value", 0, "stake per player")
	cmd.Flags().Uint64Var(&secret, "secret", 0, "entry secret for a restricted game")
	cmd.Flags().BoolVar(&restricted, "restricted", false, "gate the game behind the entry secret")
	cmd.MarkFlagRequired("seed")
	cmd.MarkFlagRequired("commitment")
	cmd.MarkFlagRequired("value")
	return cmd
}

func joinCmd() *cobra.Command {
	var (
		gameID string
		choice string
		secret uint64
	)
	cmd := &cobra.Command{
		Use:   "join",
		Short: "answer an open challenge with a plain move",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := parseChoice(choice)
			if err != nil {
				return err
			}
			join := &types.RPSJoin{GameID: gameID, Choice: c}
			if cmd.Flags().Changed("secret") {
				join.Secret = &secret
			}
			return runAction(&types.RPSAction{Ty: types.RPSActionJoin, Join: join})
		},
	}
	cmd.Flags().StringVar(&gameID, "game", "", "game id")
	cmd.Flags().StringVar(&choice, "choice", "", "rock, paper or scissors")
	cmd.Flags().Uint64Var(&secret, "secret", 0, "entry secret for a restricted game")
	cmd.MarkFlagRequired("game")
	cmd.MarkFlagRequired("choice")
	return cmd
}

func revealCmd() *cobra.Command {
	var (
		gameID string
		choice string
		salt   uint64
	)
	cmd := &cobra.Command{
		Use:   "reveal",
		Short: "open the committed move and resolve the outcome",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := parseChoice(choice)
			if err != nil {
				return err
			}
			return runAction(&types.RPSAction{
				Ty:     types.RPSActionReveal,
				Reveal: &types.RPSReveal{GameID: gameID, Choice: c, Salt: salt},
			})
		},
	}
	cmd.Flags().StringVar(&gameID, "game", "", "game id")
	cmd.Flags().StringVar(&choice, "choice", "", "the committed move")
	cmd.Flags().Uint64Var(&salt, "salt", 0, "the salt used at commit time")
	cmd.MarkFlagRequired("game")
	cmd.MarkFlagRequired("choice")
	cmd.MarkFlagRequired("salt")
	return cmd
}

func expireCmd() *cobra.Command {
	var gameID string
	cmd := &cobra.Command{
		Use:   "expire",
		Short: "claim an elapsed waiting window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(&types.RPSAction{
				Ty:     types.RPSActionExpire,
				Expire: &types.RPSExpire{GameID: gameID},
			})
		},
	}
	cmd.Flags().StringVar(&gameID, "game", "", "game id")
	cmd.MarkFlagRequired("game")
	return cmd
}

func settleCmd() *cobra.Command {
	var gameID string
	cmd := &cobra.Command{
		Use:   "settle",
		Short: "pay out a pending result",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(&types.RPSAction{
				Ty:     types.RPSActionSettle,
				Settle: &types.RPSSettle{GameID: gameID},
			})
		},
	}
	cmd.Flags().StringVar(&gameID, "game", "", "game id")
	cmd.MarkFlagRequired("game")
	return cmd
}

func cleanCmd() *cobra.Command {
	var gameID string
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "delete a finished record and collect the storage deposit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(&types.RPSAction{
				Ty:    types.RPSActionClean,
				Clean: &types.RPSClean{GameID: gameID},
			})
		},
	}
	cmd.Flags().StringVar(&gameID, "game", "", "game id")
	cmd.MarkFlagRequired("game")
	return cmd
}

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "read-only queries",
	}
	cmd.AddCommand(queryGameCmd(), queryListCmd(), queryCountCmd(), queryPlayerCmd(), queryGameIDCmd())
	return cmd
}

func queryGameIDCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game-id <seed>",
		Short: "print the game id a seed maps to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return err
			}
			fmt.Println(executor.GameID(seed))
			return nil
		},
	}
	return cmd
}

func queryGameCmd() *cobra.Command {
	var gameID string
	cmd := &cobra.Command{
		Use:   "game",
		Short: "show one game record",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(executor.FuncNameQueryGameByID, &types.QueryGameInfo{GameID: gameID})
		},
	}
	cmd.Flags().StringVar(&gameID, "game", "", "game id")
	cmd.MarkFlagRequired("game")
	return cmd
}

func queryListCmd() *cobra.Command {
	var (
		status    int32
		addr      string
		index     int64
		count     int32
		direction int32
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "list games by status, optionally filtered by address",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(executor.FuncNameQueryGameListByStatusAddr, &types.QueryGameListByStatusAndAddr{
				Status:    status,
				Address:   addr,
				Index:     index,
				Count:     count,
				Direction: direction,
			})
		},
	}
	cmd.Flags().Int32Var(&status, "status", 0, "game status")
	cmd.Flags().StringVar(&addr, "addr", "", "filter by participant address")
	cmd.Flags().Int64Var(&index, "index", 0, "resume after this ordering index")
	cmd.Flags().Int32Var(&count, "count", 0, "page size")
	cmd.Flags().Int32Var(&direction, "direction", 0, "0 descending, 1 ascending")
	cmd.MarkFlagRequired("status")
	return cmd
}

func queryCountCmd() *cobra.Command {
	var (
		status int32
		addr   string
	)
	cmd := &cobra.Command{
		Use:   "count",
		Short: "count games by status, optionally per address",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(executor.FuncNameQueryGameListCount, &types.QueryGameListCount{
				Status:  status,
				Address: addr,
			})
		},
	}
	cmd.Flags().Int32Var(&status, "status", 0, "game status")
	cmd.Flags().StringVar(&addr, "addr", "", "participant address")
	cmd.MarkFlagRequired("status")
	return cmd
}

func queryPlayerCmd() *cobra.Command {
	var (
		addr   string
		symbol string
	)
	cmd := &cobra.Command{
		Use:   "player",
		Short: "show a player's statistics record",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(executor.FuncNameQueryPlayerInfo, &types.QueryPlayerInfo{Addr: addr, Symbol: symbol})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "owner address")
	cmd.Flags().StringVar(&symbol, "symbol", "", "asset symbol, defaults to the configured one")
	cmd.MarkFlagRequired("addr")
	return cmd
}

func runQuery(funcName string, param interface{}) error {
	r, closer, err := openExecutor()
	if err != nil {
		return err
	}
	defer closer()
	reply, err := r.Query(funcName, types.Encode(param))
	if err != nil {
		return err
	}
	return printJSON(reply)
}
