package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"adops-engine/backend/internal/app"
	"adops-engine/backend/internal/bootstrap"
	"adops-engine/backend/internal/config"
	"adops-engine/backend/internal/infra/logger"
	"adops-engine/backend/internal/infra/token"
	perfsvc "adops-engine/backend/internal/service/performance"
	"adops-engine/backend/internal/service/scoring"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	accountID string
	dateRange string
	adSetID   string
	days      int
	subject   string
	tokenTTL  time.Duration

	rootCmd = &cobra.Command{
		Use:           "enginectl",
		Short:         "Operate the ad creative optimization engine from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	ingestCmd = &cobra.Command{
		Use:   "ingest",
		Short: "Pull performance data for an ad account (falls back to synthetic data)",
		RunE:  runIngest,
	}

	sweepCmd = &cobra.Command{
		Use:   "sweep-tests",
		Short: "Mark every ACTIVE A/B test past its end date as COMPLETED",
		RunE:  runSweep,
	}

	scoresCmd = &cobra.Command{
		Use:   "scores",
		Short: "Print composite creative scores for an ad set",
		RunE:  runScores,
	}

	tokenCmd = &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for /api (requires AUTH_JWT_SECRET)",
		RunE:  runToken,
	}
)

func init() {
	ingestCmd.Flags().StringVar(&accountID, "account", "", "ad account id")
	ingestCmd.Flags().StringVar(&dateRange, "range", perfsvc.DefaultDateRange, "date preset, e.g. last_7d")
	ingestCmd.Flags().StringVar(&adSetID, "ad-set", "", "ad set id used to tag records without one")
	_ = ingestCmd.MarkFlagRequired("account")

	scoresCmd.Flags().StringVar(&adSetID, "ad-set", "", "ad set id")
	scoresCmd.Flags().IntVar(&days, "days", 30, "lookback window in days")
	_ = scoresCmd.MarkFlagRequired("ad-set")

	tokenCmd.Flags().StringVar(&subject, "subject", "", "token subject, e.g. scheduler")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("subject")

	rootCmd.AddCommand(ingestCmd, sweepCmd, scoresCmd, tokenCmd)
}

// withServices 打开资源、装配服务，执行完毕后释放连接。
func withServices(fn func(ctx context.Context, services bootstrap.Services) error) error {
	zapLogger, err := logger.Init()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	sugar := zapLogger.Sugar().With("component", "enginectl")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resources, err := app.Bootstrap(ctx, sugar)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer closeResources(resources, sugar)

	services, err := bootstrap.BuildServices(sugar, resources, bootstrap.Options{Engine: config.LoadEngineConfig()})
	if err != nil {
		return err
	}
	return fn(ctx, services)
}

func closeResources(resources *app.Resources, sugar *zap.SugaredLogger) {
	if err := resources.Close(); err != nil {
		sugar.Warnw("resource cleanup error", "error", err)
	}
}

func runIngest(cmd *cobra.Command, _ []string) error {
	return withServices(func(ctx context.Context, services bootstrap.Services) error {
		result, err := services.Ingestor.Ingest(ctx, perfsvc.IngestInput{
			AdAccountID: accountID,
			DateRange:   dateRange,
			AdSetID:     adSetID,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ingested %d records from %s (batch %s)\n", result.Ingested, result.Source, result.BatchID)
		return nil
	})
}

func runSweep(cmd *cobra.Command, _ []string) error {
	return withServices(func(ctx context.Context, services bootstrap.Services) error {
		n, err := services.ABTests.CompleteExpired(ctx, time.Now().UTC())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "completed %d expired ab tests\n", n)
		return nil
	})
}

func runScores(cmd *cobra.Command, _ []string) error {
	if days <= 0 {
		return fmt.Errorf("--days must be positive")
	}
	if strings.TrimSpace(adSetID) == "" {
		return fmt.Errorf("--ad-set must not be blank")
	}
	return withServices(func(ctx context.Context, services bootstrap.Services) error {
		since := time.Now().UTC().AddDate(0, 0, -days)
		records, err := services.Performance.ListByAdSet(ctx, adSetID, since)
		if err != nil {
			return err
		}
		return writeScores(cmd.OutOrStdout(), scoring.Ranked(scoring.Calculate(records)))
	})
}

// runToken 不需要数据库连接。
func runToken(cmd *cobra.Command, _ []string) error {
	cfg := config.LoadEngineConfig()
	issuer, err := token.NewIssuer(cfg.Auth.JWTSecret)
	if err != nil {
		return fmt.Errorf("AUTH_JWT_SECRET: %w", err)
	}
	issued, err := issuer.Issue(subject, tokenTTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), issued.Token)
	fmt.Fprintf(cmd.ErrOrStderr(), "token %s expires at %s\n", issued.TokenID, issued.ExpiresAt.UTC().Format(time.RFC3339))
	return nil
}

// writeScores 按得分从高到低输出表格。
func writeScores(w io.Writer, ranked []scoring.CreativeScore) error {
	if len(ranked) == 0 {
		_, err := fmt.Fprintln(w, "no performance data in window")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tAD NAME\tRECORDS\tIMPRESSIONS\tCLICKS\tSPEND\tCONVERSIONS\tCTR\tCPC\tCONV RATE\tSCORE")
	for i, s := range ranked {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%s\t%d\t%.4f\t%.4f\t%.4f\t%.4f\n",
			i+1, s.AdName, s.Records, s.TotalImpressions, s.TotalClicks, s.TotalSpend.StringFixed(2),
			s.TotalConversions, s.AvgCTR, s.AvgCPC, s.ConversionRate, s.Score)
	}
	return tw.Flush()
}
