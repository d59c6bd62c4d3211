package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/kevinaaaquil/library/models"
	"github.com/kevinaaaquil/library/projection"
	"github.com/kevinaaaquil/library/service"
	"github.com/kevinaaaquil/library/store"
)

var (
	summarizeRole string
	summarizeAs   string
	summarizeSeed string
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Print dashboard statistics for a seed catalog",
	Long: `Loads a yaml seed (or the built-in demo catalog) and prints the
statistics the dashboard would show to the given role.

Example:
  library summarize --role student --as u-john`,
	RunE: func(cmd *cobra.Command, args []string) error {
		role, ok := models.ParseRole(summarizeRole)
		if !ok {
			return fmt.Errorf("unknown role %q", summarizeRole)
		}
		seed, err := loadSeed(summarizeSeed)
		if err != nil {
			return err
		}
		if seed == nil {
			seed = &store.Seed{}
		}
		p := projection.Projection{DueSoonWindow: cfg.DueSoonWindow, LoanLimit: cfg.LoanLimit}
		viewer := projection.Viewer{Role: role, Ref: summarizeAs}
		return summarize(cmd.OutOrStdout(), seed, p, viewer, time.Now().UTC())
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one overdue sweep against the configured store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore(st)
		if err := applySeed(ctx, st, cfg.SeedFile); err != nil {
			return err
		}
		sweeper := service.NewSweeper(newDesk(st, nil), newNotifier(), cfg.SweepInterval)
		n, err := sweeper.SweepOnce(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "alerted %d overdue loans\n", n)
		return nil
	},
}

func init() {
	summarizeCmd.Flags().StringVar(&summarizeRole, "role", string(models.RoleLibrarian), "Role to summarize for (student, librarian, admin)")
	summarizeCmd.Flags().StringVar(&summarizeAs, "as", "", "User ref of the viewer; scopes a student's own loans")
	summarizeCmd.Flags().StringVar(&summarizeSeed, "seed", "builtin", "Seed yaml file, or builtin")
}

// summarize writes the Stats of seed as seen by viewer at now.
func summarize(w io.Writer, seed *store.Seed, p projection.Projection, viewer projection.Viewer, now time.Time) error {
	stats := p.Summarize(seed.BooksAt(now), viewer, now)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}
