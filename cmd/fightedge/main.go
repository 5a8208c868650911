package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/stitts-dev/fight-edge/internal/feed"
	"github.com/stitts-dev/fight-edge/internal/llm"
	"github.com/stitts-dev/fight-edge/internal/models"
	"github.com/stitts-dev/fight-edge/internal/repository"
	"github.com/stitts-dev/fight-edge/internal/services"
	"github.com/stitts-dev/fight-edge/pkg/config"
	"github.com/stitts-dev/fight-edge/pkg/database"
	"github.com/stitts-dev/fight-edge/pkg/logger"
	"github.com/stitts-dev/fight-edge/pkg/oddsmath"
)

// newBackend is swapped out in tests.
var newBackend = llm.NewBackend

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "fightedge",
		Short:        "Find betting edges on a fight card",
		SilenceUsage: true,
	}
	root.AddCommand(newAnalyzeCmd(), newOddsCmd(), newMigrateCmd())
	return root
}

type analyzeReport struct {
	Event      string                    `json:"event"`
	TopBet     *models.EdgeSummary       `json:"topBet,omitempty"`
	Ranked     []models.EdgeSummary      `json:"ranked"`
	Summaries  []models.EdgeSummary      `json:"summaries"`
	Breakdowns []models.FightBreakdown   `json:"breakdowns"`
	Failures   []*models.GenerationError `json:"failures,omitempty"`
	Skipped    []feed.Skipped            `json:"skipped,omitempty"`
}

func newAnalyzeCmd() *cobra.Command {
	var (
		cardPath string
		workers  int
		overview bool
		verbose  bool
		quiet    bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze every matchup on a card and print the result as JSON",
		Long: `Analyze reads a card file (native YAML/JSON or a provider event payload),
generates an edge summary and a breakdown per matchup, and prints the
aggregate with the top bet. Backend settings come from the environment.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := logger.ForCLI(cmd.ErrOrStderr(), verbose, quiet)

			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cmd.Flags().Changed("workers") {
				cfg.AnalysisWorkers = workers
			}
			if cmd.Flags().Changed("overview") {
				cfg.EnableCardOverview = overview
			}

			event, skipped, err := feed.LoadCard(cardPath)
			if err != nil {
				return err
			}
			for _, s := range skipped {
				log.WithFields(logrus.Fields{"fight_id": s.FightID, "fight": s.Label}).Warnf("Skipping fight: %s", s.Reason)
			}

			backend, err := newBackend(cfg, log)
			if err != nil {
				return err
			}

			analyzer := buildAnalyzer(cfg, backend, log)
			result, err := analyzer.AnalyzeCard(cmd.Context(), event)
			if err != nil {
				return err
			}

			report := analyzeReport{
				Event:      event.Name,
				Ranked:     services.RankSummaries(result.Summaries),
				Summaries:  result.Summaries,
				Breakdowns: result.Breakdowns,
				Failures:   result.Failures,
				Skipped:    skipped,
			}
			if top, ok := services.TopBet(result.Summaries); ok {
				report.TopBet = &top
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}

	cmd.Flags().StringVarP(&cardPath, "card", "c", "", "path to the card file")
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "matchups analyzed concurrently")
	cmd.Flags().BoolVar(&overview, "overview", false, "generate a card overview first and share it with every fight")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "no logging")
	_ = cmd.MarkFlagRequired("card")
	return cmd
}

func buildAnalyzer(cfg *config.Config, backend llm.Backend, log *logrus.Logger) *services.CardAnalyzer {
	prompts := services.NewPromptBuilder(log)
	retry := services.RetryPolicy{MaxRetries: cfg.GenerationRetries, Backoff: cfg.GenerationRetryBackoff}
	fights := services.NewFightAnalyzer(
		services.NewSummaryAdapter(backend, prompts, services.AdapterConfig{MaxOutputTokens: cfg.SummaryMaxTokens, Retry: retry}, log),
		services.NewBreakdownAdapter(backend, prompts, services.AdapterConfig{MaxOutputTokens: cfg.BreakdownMaxTokens, Retry: retry}, log),
		log,
	)
	var overview services.OverviewGenerator
	if cfg.EnableCardOverview {
		overview = services.NewCardOverview(backend, prompts, cfg.SummaryMaxTokens, log)
	}
	return services.NewCardAnalyzer(fights, overview, cfg.AnalysisWorkers, log)
}

func newOddsCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:     "odds <price>",
		Short:   "Format an American price as american, decimal or probability",
		Example: "  fightedge odds -- -150 --format decimal\n  fightedge odds \"+130 / -150\" -f probability",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := oddsmath.ParseFormat(format)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), oddsmath.FormatOdds(args[0], f))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(oddsmath.FormatAmerican), "american, decimal or probability")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Create or drop the analysis run tables",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
			if err != nil {
				return err
			}
			defer db.Close()

			return runMigration(db, args[0], cmd.OutOrStdout())
		},
	}
}

func runMigration(db *database.DB, direction string, out io.Writer) error {
	switch direction {
	case "up":
		if err := repository.Migrate(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		fmt.Fprintln(out, "Migrations completed successfully")
	case "down":
		if err := repository.Rollback(db); err != nil {
			return fmt.Errorf("failed to drop tables: %w", err)
		}
		fmt.Fprintln(out, "Tables dropped successfully")
	default:
		return fmt.Errorf("unknown migration direction %q", direction)
	}
	return nil
}
