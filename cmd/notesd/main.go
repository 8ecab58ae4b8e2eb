// Command notesd runs the notes assistant backend.
//
// Usage:
//
//	notesd serve
//	notesd migrate
//	notesd reindex [--user=<id>] [--workers=4]
//	notesd seed --user=<id> [--notes=notes.jsonl] [--sales=sales.jsonl] [--dry-run]
//	notesd token --user=<id> [--ttl=24h]
//
// Configuration comes from CONFIG_PATH (default ./config.yaml), the
// environment, and an optional .env file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/notes-assistant-backend/internal/app"
	"github.com/heartmarshall/notes-assistant-backend/internal/app/seeder"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "notesd",
		Short:        "Notes and sales assistant backend",
		Version:      app.BuildVersion(),
		SilenceUsage: true,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(reindexCmd())
	root.AddCommand(seedCmd())
	root.AddCommand(tokenCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Migrate(cmd.Context())
		},
	}
}

func reindexCmd() *cobra.Command {
	var (
		userID  string
		workers int
	)

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Re-embed stored records into the vector index",
		Long: "Re-embeds every note and sales record, for one user or all of them, " +
			"and upserts the vectors. Use it after changing the embedding model or " +
			"to repair index entries left behind by failed deletes.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := app.Reindex(cmd.Context(), userID, workers)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reindexed %d notes and %d sales records\n", stats.Notes, stats.Sales)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "only reindex this user's records")
	cmd.Flags().IntVar(&workers, "workers", 4, "concurrent embedding requests")
	return cmd
}

func seedCmd() *cobra.Command {
	var (
		flags  seeder.Config
		phases []string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load notes and sales records for a user from JSONL files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := seeder.LoadConfig()
			if err != nil {
				return err
			}
			if flags.UserID != "" {
				cfg.UserID = flags.UserID
			}
			if flags.NotesPath != "" {
				cfg.NotesPath = flags.NotesPath
			}
			if flags.SalesPath != "" {
				cfg.SalesPath = flags.SalesPath
			}
			cfg.DryRun = cfg.DryRun || flags.DryRun

			if len(phases) == 0 {
				// Only run phases that have a file.
				if cfg.NotesPath != "" {
					phases = append(phases, seeder.PhaseNotes)
				}
				if cfg.SalesPath != "" {
					phases = append(phases, seeder.PhaseSales)
				}
			}

			results, err := app.Seed(cmd.Context(), *cfg, phases)
			for _, phase := range phases {
				r, ok := results[phase]
				if !ok {
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: inserted=%d skipped=%d errors=%d\n",
					phase, r.Inserted, r.Skipped, r.Errors)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&flags.UserID, "user", "", "owner of the seeded records")
	cmd.Flags().StringVar(&flags.NotesPath, "notes", "", "JSONL file of notes")
	cmd.Flags().StringVar(&flags.SalesPath, "sales", "", "JSONL file of sales records")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "parse files without writing")
	cmd.Flags().StringSliceVar(&phases, "phases", nil, "phases to run (notes, sales)")
	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		userID string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := app.IssueToken(userID, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "subject of the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
