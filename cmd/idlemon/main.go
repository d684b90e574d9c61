package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/younsl/idlemon/internal/config"
	"github.com/younsl/idlemon/internal/models"
	"github.com/younsl/idlemon/internal/version"
	"github.com/younsl/idlemon/pkg/aws"
	"github.com/younsl/idlemon/pkg/formatter"
	"github.com/younsl/idlemon/pkg/metrics"
	"github.com/younsl/idlemon/pkg/pricing"
)

type computeAuditor interface {
	FindCandidates(ctx context.Context, thresholdPercentage float64) ([]models.InstanceInfo, error)
}

type storageAuditor interface {
	FindCandidates(ctx context.Context, bucket, prefix string, thresholdDays int) ([]models.DirectoryInfo, error)
}

// Auditor constructors, replaced in tests
var (
	newComputeAuditor = func(ctx context.Context, cfg *config.Config) (computeAuditor, error) {
		return aws.NewComputeAuditor(ctx, cfg)
	}
	newStorageAuditor = func(ctx context.Context, cfg *config.Config) (storageAuditor, error) {
		return aws.NewStorageAuditor(ctx, cfg)
	}
)

func main() {
	setupLogging(zerolog.InfoLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := newRootCmd(viper.New()).ExecuteContext(ctx)
	cancel()
	if err != nil {
		log.Error().Err(err).Msg("idlemon failed")
		os.Exit(1)
	}
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "idlemon",
		Short: "Report idle EC2 instances and stale S3 directories",
		Long: `idlemon assumes an IAM role, then reports running EC2 instances whose
CPU usage stayed below a threshold and first-level S3 directories under a
prefix that have not been modified within a retention window.

It never stops instances or deletes objects.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Get().String(),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
	cmd.SetVersionTemplate("idlemon version {{.Version}}\n")

	flags := cmd.Flags()
	flags.StringP("config", "c", "", "Path to a TOML, YAML or JSON config file")
	flags.StringP("region", "r", "", "AWS region to audit (default "+config.DefaultRegion+")")
	flags.StringP("profile", "p", "", "AWS shared config profile used to assume the role")
	flags.StringP("output", "o", "", "Output format: table, json or yaml (default table)")
	flags.String("role-arn", "", "IAM role to assume (default "+config.DefaultRoleARN+")")
	flags.Bool("debug", false, "Enable debug logging")
	flags.Bool("no-pricing", false, "Skip cost estimates from the AWS Pricing API")
	flags.String("metrics-textfile", "", "Also write results as Prometheus metrics to this .prom file")

	for _, name := range []string{"config", "region", "profile", "output", "role-arn", "debug", "no-pricing", "metrics-textfile"} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}
	v.SetEnvPrefix("IDLEMON")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return cmd
}

// loadConfig builds the run configuration: defaults, then the config file,
// then flags and IDLEMON_* environment variables
func loadConfig(v *viper.Viper) (*config.Config, error) {
	cfg := config.Default()
	if path := v.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if region := v.GetString("region"); region != "" {
		cfg.Region = region
	}
	if profile := v.GetString("profile"); profile != "" {
		cfg.Profile = profile
	}
	if output := v.GetString("output"); output != "" {
		cfg.Output = output
	}
	if roleARN := v.GetString("role-arn"); roleARN != "" {
		cfg.Role.ARN = roleARN
	}
	if v.GetBool("debug") {
		cfg.Log.Level = "debug"
	}
	if v.GetBool("no-pricing") {
		cfg.Pricing.Enabled = false
	}
	if textfile := v.GetString("metrics-textfile"); textfile != "" {
		cfg.Metrics.Textfile = textfile
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: log level %q: %w", cfg.Log.Level, err)
	}
	setupLogging(level)

	return cfg, nil
}

func setupLogging(level zerolog.Level) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}

// startSpinner creates and starts a spinner on stderr so it never mixes with
// report output
func startSpinner(suffix string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[9], 200*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + suffix
	s.Start()
	return s
}

// run executes the enabled audits in order and writes the report to out
func run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	scanStartTime := time.Now()
	report := formatter.Report{GeneratedAt: scanStartTime, Region: cfg.Region}

	var computeTook, storageTook time.Duration
	if cfg.Compute.Enabled {
		start := time.Now()
		instances, err := runCompute(ctx, cfg)
		if err != nil {
			return err
		}
		computeTook = time.Since(start)
		report.Instances = &formatter.InstanceSection{
			ThresholdPercent: cfg.Compute.ThresholdPercent,
			Candidates:       instances,
		}
	}

	if cfg.Storage.Enabled {
		start := time.Now()
		directories, err := runStorage(ctx, cfg)
		if err != nil {
			return err
		}
		storageTook = time.Since(start)
		report.Storage = &formatter.StorageSection{
			Bucket:        cfg.Storage.Bucket,
			Prefix:        cfg.Storage.Prefix,
			ThresholdDays: cfg.Storage.ThresholdDays,
			Candidates:    directories,
		}
	}

	if cfg.Pricing.Enabled {
		report.PricingStats = enrichCosts(ctx, cfg, &report)
	}

	if cfg.Metrics.Textfile != "" {
		recorder := metrics.NewRecorder()
		if report.Instances != nil {
			recorder.ObserveInstances(cfg.Region, report.Instances.Candidates, computeTook)
		}
		if report.Storage != nil {
			recorder.ObserveDirectories(cfg.Storage.Bucket, cfg.Storage.Prefix, report.Storage.Candidates, storageTook)
		}
		if err := recorder.WriteTextfile(cfg.Metrics.Textfile, scanStartTime); err != nil {
			return err
		}
		log.Debug().Str("path", cfg.Metrics.Textfile).Msg("wrote metrics textfile")
	}

	if cfg.Output == "table" {
		formatter.PrintTimestamp(out, scanStartTime, time.Since(scanStartTime))
	}
	return formatter.WriteReport(out, cfg.Output, report)
}

func runCompute(ctx context.Context, cfg *config.Config) ([]models.InstanceInfo, error) {
	start := time.Now()
	s := startSpinner(fmt.Sprintf("Analyzing EC2 instances in %s ...", cfg.Region))

	auditor, err := newComputeAuditor(ctx, cfg)
	if err != nil {
		s.Stop()
		return nil, err
	}

	instances, err := auditor.FindCandidates(ctx, cfg.Compute.ThresholdPercent)
	if err != nil {
		s.Stop()
		return nil, err
	}

	s.FinalMSG = fmt.Sprintf("✓ [%d idle instances found] EC2 resources analyzed - Completed in %.2f seconds\n",
		len(instances), time.Since(start).Seconds())
	s.Stop()
	return instances, nil
}

func runStorage(ctx context.Context, cfg *config.Config) ([]models.DirectoryInfo, error) {
	start := time.Now()
	s := startSpinner(fmt.Sprintf("Analyzing s3://%s/%s ...", cfg.Storage.Bucket, cfg.Storage.Prefix))

	auditor, err := newStorageAuditor(ctx, cfg)
	if err != nil {
		s.Stop()
		return nil, err
	}

	directories, err := auditor.FindCandidates(ctx, cfg.Storage.Bucket, cfg.Storage.Prefix, cfg.Storage.ThresholdDays)
	if err != nil {
		s.Stop()
		return nil, err
	}

	s.FinalMSG = fmt.Sprintf("✓ [%d stale directories found] S3 objects analyzed - Completed in %.2f seconds\n",
		len(directories), time.Since(start).Seconds())
	s.Stop()
	return directories, nil
}

// enrichCosts fills cost estimates with the caller's own credentials. Pricing
// failures never fail the run.
func enrichCosts(ctx context.Context, cfg *config.Config, report *formatter.Report) []pricing.CallStats {
	base, err := aws.LoadBaseConfig(ctx, cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Skipping cost estimates")
		return nil
	}

	estimator := pricing.NewEstimatorFromConfig(base, cfg.Region)
	if report.Instances != nil {
		estimator.EnrichInstances(ctx, report.Instances.Candidates)
	}
	if report.Storage != nil {
		estimator.EnrichDirectories(ctx, report.Storage.Candidates)
	}
	return estimator.Stats()
}
