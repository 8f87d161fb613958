package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"studio-go/app/config"
	"studio-go/app/logging"
	"studio-go/app/models"
	"studio-go/app/reconcile"
	"studio-go/app/server"
	"studio-go/app/session"
)

var (
	// Global flags
	configPath string
	verbose    bool

	// Token flags
	tokenUser    string
	tokenCompany string
	tokenRole    string
)

var rootCmd = &cobra.Command{
	Use:           "studio",
	Short:         "Studio management backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err := logging.New(cfg.Log, verbose)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, err := server.OpenStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		logger.Info("store opened", zap.String("driver", cfg.Store.Driver))

		app, err := server.New(cfg, store, logger)
		if err != nil {
			_ = store.Close(ctx)
			return err
		}
		return app.Run(ctx)
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile [file]",
	Short: "Reconcile a JSON task array from a file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		return runReconcile(in, cmd.OutOrStdout())
	},
}

func runReconcile(in io.Reader, out io.Writer) error {
	var tasks []*models.Task
	if err := json.NewDecoder(in).Decode(&tasks); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode tasks: %w", err)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(reconcile.DedupeTasks(tasks))
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a development session token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		issuer, err := session.NewIssuer(cfg.Auth)
		if err != nil {
			return err
		}
		token, err := issuer.Issue(session.Session{
			UserID:    tokenUser,
			CompanyID: tokenCompany,
			Role:      session.Role(tokenRole),
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "studio.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "user id (required)")
	tokenCmd.Flags().StringVar(&tokenCompany, "company", "", "company id (required)")
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(session.RoleEmployee), "admin, manager or employee")
	_ = tokenCmd.MarkFlagRequired("user")
	_ = tokenCmd.MarkFlagRequired("company")

	rootCmd.AddCommand(serveCmd, reconcileCmd, tokenCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
