package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	cfgpkg "github.com/rzbill/stratum/internal/config"
	"github.com/rzbill/stratum/internal/runtime"
	"github.com/rzbill/stratum/internal/store"
	logpkg "github.com/rzbill/stratum/pkg/log"
)

func main() {
	var (
		cfgPath  string
		dataDir  string
		logLevel string
	)

	rootCmd := &cobra.Command{
		Use:           "stratum",
		Short:         "Stratum chunk store CLI",
		Long:          "Stratum is an embeddable partitioned event store. This CLI operates a local store.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to JSON or YAML config file")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug|info|warn|error (overrides config)")

	openRuntime := func() (*runtime.Runtime, logpkg.Logger, error) {
		cfg, err := cfgpkg.Load(cfgPath)
		if err != nil {
			return nil, nil, err
		}
		if dataDir != "" {
			cfg.DataDir = dataDir
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		logger := logpkg.NewLogger(logpkg.WithLevel(logpkg.ParseLevel(cfg.LogLevel)))
		rt, err := runtime.Open(runtime.Options{Config: cfg, Logger: logger})
		if err != nil {
			return nil, nil, err
		}
		return rt, logger, nil
	}

	var initDrop bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize (and optionally wipe) the local store",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, _, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()
			if initDrop {
				if err := rt.Store().Drop(cmd.Context()); err != nil {
					return err
				}
			}
			return rt.CheckHealth(cmd.Context())
		},
	}
	initCmd.Flags().BoolVar(&initDrop, "drop", false, "drop all existing data")

	var (
		appendIndex int64
		appendOpID  string
	)
	appendCmd := &cobra.Command{
		Use:   "append <partition> <payload>",
		Short: "Append a chunk to a partition",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, _, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()
			chunk, err := rt.Store().Append(cmd.Context(), args[0], appendIndex, []byte(args[1]), appendOpID)
			if err != nil {
				return err
			}
			fmt.Printf("position=%d index=%d\n", chunk.Position, chunk.Index)
			return nil
		},
	}
	appendCmd.Flags().Int64Var(&appendIndex, "index", store.IndexAuto, "explicit index (default: auto-assign)")
	appendCmd.Flags().StringVar(&appendOpID, "op-id", "", "operation id for idempotent appends")

	var (
		readFrom     int64
		readTo       int64
		readLimit    int
		readBackward bool
	)
	readCmd := &cobra.Command{
		Use:   "read <partition>",
		Short: "Read a partition forward or backward",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, _, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()
			sub := store.SubscribeFunc(func(c *store.Chunk) (bool, error) {
				return true, printChunk(c)
			})
			if readBackward {
				return rt.Store().ReadPartitionBackward(cmd.Context(), args[0], readFrom, readTo, readLimit, sub)
			}
			return rt.Store().ReadPartitionForward(cmd.Context(), args[0], readFrom, readLimit, sub)
		},
	}
	readCmd.Flags().Int64Var(&readFrom, "from", 0, "starting index (inclusive)")
	readCmd.Flags().Int64Var(&readTo, "to", 0, "lower bound for backward reads (inclusive)")
	readCmd.Flags().IntVar(&readLimit, "limit", 0, "maximum chunks (0 = unbounded)")
	readCmd.Flags().BoolVar(&readBackward, "backward", false, "scan by descending index")

	var lastTo int64
	lastCmd := &cobra.Command{
		Use:   "last <partition>",
		Short: "Show the last chunk of a partition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, _, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()
			chunk, err := rt.Store().ReadLast(cmd.Context(), args[0], lastTo)
			if err != nil {
				return err
			}
			if chunk == nil {
				fmt.Println("(empty)")
				return nil
			}
			return printChunk(chunk)
		},
	}
	lastCmd.Flags().Int64Var(&lastTo, "to", store.MaxIndex, "highest index considered (inclusive)")

	positionCmd := &cobra.Command{
		Use:   "position",
		Short: "Show the highest global position",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, _, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()
			pos, err := rt.Store().ReadLastPosition(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(pos)
			return nil
		},
	}

	var (
		deleteFrom int64
		deleteTo   int64
	)
	deleteCmd := &cobra.Command{
		Use:   "delete <partition>",
		Short: "Delete a partition or an index range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, _, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()
			return rt.Store().Delete(cmd.Context(), args[0], deleteFrom, deleteTo)
		},
	}
	deleteCmd.Flags().Int64Var(&deleteFrom, "from", 0, "lowest index to delete (inclusive)")
	deleteCmd.Flags().Int64Var(&deleteTo, "to", store.MaxIndex, "highest index to delete (inclusive)")

	var (
		tailFrom   int64
		tailFollow bool
	)
	tailCmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail the global log in position order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, logger, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()
			sub := store.SubscribeFunc(func(c *store.Chunk) (bool, error) {
				return true, printChunk(c)
			})
			t, err := rt.NewTailer(sub, tailFrom)
			if err != nil {
				return err
			}
			if !tailFollow {
				ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
				defer cancel()
				return t.Poll(ctx)
			}
			t.Start()
			defer t.Stop()
			logger.Info("tailing; ctrl-c to stop", logpkg.Int64("from", tailFrom))
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			<-sig
			return nil
		},
	}
	tailCmd.Flags().Int64Var(&tailFrom, "from", 0, "checkpoint position; delivery starts after it")
	tailCmd.Flags().BoolVar(&tailFollow, "follow", false, "keep polling until interrupted")

	rootCmd.AddCommand(initCmd, appendCmd, readCmd, lastCmd, positionCmd, deleteCmd, tailCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func printChunk(c *store.Chunk) error {
	out := map[string]any{
		"partition": c.PartitionID,
		"index":     c.Index,
		"position":  c.Position,
		"type":      c.PayloadType,
		"payload":   string(c.Payload),
	}
	b, err := json.Marshal(out)
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
