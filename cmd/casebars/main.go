// Package main provides the CLI entrypoint for casebars.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/casebars/internal/aggregate"
	"github.com/verte-zerg/casebars/internal/browse"
	"github.com/verte-zerg/casebars/internal/config"
	"github.com/verte-zerg/casebars/internal/loader"
	"github.com/verte-zerg/casebars/internal/logger"
	"github.com/verte-zerg/casebars/internal/model"
	"github.com/verte-zerg/casebars/internal/records"
	"github.com/verte-zerg/casebars/internal/render"
	"github.com/verte-zerg/casebars/internal/scale"
	"github.com/verte-zerg/casebars/internal/store"
)

const (
	defaultDataPath  = "data/ebola.csv"
	defaultGeoPath   = "data/africa.topojson"
	defaultTimeout   = 60 * time.Second
	defaultLogLevel  = "warn"
	defaultExportFmt = render.FormatJSON
)

var (
	dataPath      string
	geoPath       string
	geoNameKey    string
	countryColumn string
	casesColumn   string
	deathsColumn  string
	onInvalid     string
	timeout       time.Duration
	width         int
	color         bool
	logLevel      string
	configPath    string

	exportFormat string
)

// run carries everything a command needs after loading.
type run struct {
	cfg     model.Config
	dataset loader.Dataset
	result  model.AggregationResult
	scale   scale.Linear
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "casebars",
		Short:             "Per-country case bars from an epidemic dataset",
		SilenceUsage:      true,
		SilenceErrors:     false,
		PersistentPreRunE: setupLogging,
		RunE:              runBarsCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&dataPath, "data", defaultDataPath, "tabular dataset path or URL")
	flags.StringVar(&geoPath, "geo", defaultGeoPath, "boundary document path or URL (empty to skip)")
	flags.StringVar(&geoNameKey, "geo-name-key", "", "boundary property holding country names (empty tries common keys)")
	flags.StringVar(&countryColumn, "country-column", records.DefaultCountryColumn, "country name column")
	flags.StringVar(&casesColumn, "cases-column", records.DefaultCasesColumn, "cases column")
	flags.StringVar(&deathsColumn, "deaths-column", records.DefaultDeathsColumn, "deaths column")
	flags.StringVar(&onInvalid, "on-invalid", records.PolicyFail, "missing or non-numeric values: fail or zero")
	flags.DurationVar(&timeout, "timeout", defaultTimeout, "fetch timeout for remote resources")
	flags.IntVar(&width, "width", 0, "bar width in cells (0 fits the terminal)")
	flags.BoolVar(&color, "color", false, "force colored output")
	flags.StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&configPath, "config", "", "config file path (default: XDG config dir)")

	rootCmd.AddCommand(newTableCmd())
	rootCmd.AddCommand(newSummaryCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newBrowseCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	return logger.Init(logLevel, cmd.ErrOrStderr())
}

func runBarsCmd(cmd *cobra.Command, _ []string) error {
	r, err := prepare(cmd)
	if err != nil {
		return err
	}
	return render.Bars(cmd.OutOrStdout(), r.result, r.scale, render.BarOptions{
		Width: r.cfg.Width,
		Color: r.cfg.Color,
	})
}

func newTableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "table",
		Short: "Print a per-country table",
		Args:  cobra.NoArgs,
		RunE:  runTableCmd,
	}
}

func runTableCmd(cmd *cobra.Command, _ []string) error {
	r, err := prepare(cmd)
	if err != nil {
		return err
	}
	if r.dataset.HasGeo {
		return render.Table(cmd.OutOrStdout(), r.result, r.scale, &r.dataset.Geo)
	}
	return render.Table(cmd.OutOrStdout(), r.result, r.scale, nil)
}

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print dataset totals and the scale domain",
		Args:  cobra.NoArgs,
		RunE:  runSummaryCmd,
	}
}

func runSummaryCmd(cmd *cobra.Command, _ []string) error {
	r, err := prepare(cmd)
	if err != nil {
		return err
	}
	return render.Summary(cmd.OutOrStdout(), r.dataset, r.result, r.scale)
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write per-country totals and scale fractions",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportFormat, "format", defaultExportFmt, "output format: json, yaml or csv")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	r, err := prepare(cmd)
	if err != nil {
		return err
	}
	return render.Export(cmd.OutOrStdout(), strings.ToLower(exportFormat), r.result, r.scale)
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Cross-check aggregation against SQLite",
		Args:  cobra.NoArgs,
		RunE:  runCheckCmd,
	}
}

func runCheckCmd(cmd *cobra.Command, _ []string) error {
	r, err := prepare(cmd)
	if err != nil {
		return err
	}
	st, err := store.OpenMemory()
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Log.Warnf("failed to close db: %v", cerr)
		}
	}()

	ctx := cmd.Context()
	if err := st.InsertRecords(ctx, r.dataset.Records); err != nil {
		return fmt.Errorf("failed to insert records: %w", err)
	}
	rows, err := st.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count records: %w", err)
	}
	logger.Log.WithField("rows", rows).Debug("loaded records into db")
	sqlResult, err := st.Aggregate(ctx)
	if err != nil {
		return fmt.Errorf("failed to aggregate in db: %w", err)
	}
	mismatches := store.Compare(r.result, sqlResult)
	out := cmd.OutOrStdout()
	if len(mismatches) == 0 {
		_, err := fmt.Fprintf(out, "OK: %d countries from %d rows match\n", len(r.result), len(r.dataset.Records))
		return err
	}
	for _, m := range mismatches {
		if _, err := fmt.Fprintln(out, m.String()); err != nil {
			return err
		}
	}
	return fmt.Errorf("%d countries differ between aggregators", len(mismatches))
}

func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse countries interactively",
		Args:  cobra.NoArgs,
		RunE:  runBrowseCmd,
	}
}

func runBrowseCmd(cmd *cobra.Command, _ []string) error {
	r, err := prepare(cmd)
	if err != nil {
		return err
	}
	program := tea.NewProgram(browse.NewModel(r.dataset, r.result, r.scale), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := resolveConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// prepare loads both resources, aggregates and builds the cases scale.
func prepare(cmd *cobra.Command) (run, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return run{}, err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	ds, err := loader.Load(ctx, loader.Sources{
		Data:       cfg.DataPath,
		Geo:        cfg.GeoPath,
		GeoNameKey: cfg.GeoNameKey,
		Records: records.Options{
			CountryColumn: cfg.CountryColumn,
			CasesColumn:   cfg.CasesColumn,
			DeathsColumn:  cfg.DeathsColumn,
			OnInvalid:     cfg.OnInvalid,
		},
		Timeout:    cfg.Timeout,
	})
	if err != nil {
		return run{}, err
	}
	if ds.RecordStats.Coerced > 0 {
		logger.Log.Warnf("coerced %d missing or non-numeric values to zero", ds.RecordStats.Coerced)
	}

	result := aggregate.Aggregate(ds.Records)
	logger.Log.WithField("countries", len(result)).Debug("aggregated dataset")
	s, err := scale.BuildCasesScale(result)
	if err != nil {
		if errors.Is(err, scale.ErrEmptyDomain) {
			return run{}, fmt.Errorf("dataset %s has no rows: %w", cfg.DataPath, err)
		}
		return run{}, err
	}
	return run{cfg: cfg, dataset: ds, result: result, scale: s}, nil
}

func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func resolveConfig(cmd *cobra.Command) (model.Config, error) {
	fileCfg, err := config.LoadConfig(resolveConfigPath())
	if err != nil {
		return model.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "data", &dataPath, fileCfg.Data.CSV)
	applyStringConfig(cmd, "geo", &geoPath, fileCfg.Data.Geo)
	applyStringConfig(cmd, "geo-name-key", &geoNameKey, fileCfg.Data.GeoNameKey)
	applyStringConfig(cmd, "country-column", &countryColumn, fileCfg.Data.CountryColumn)
	applyStringConfig(cmd, "cases-column", &casesColumn, fileCfg.Data.CasesColumn)
	applyStringConfig(cmd, "deaths-column", &deathsColumn, fileCfg.Data.DeathsColumn)
	applyStringConfig(cmd, "on-invalid", &onInvalid, fileCfg.Data.OnInvalid)
	if err := applyDurationConfig(cmd, "timeout", &timeout, fileCfg.Data.Timeout); err != nil {
		return model.Config{}, err
	}
	applyIntConfig(cmd, "width", &width, fileCfg.Render.Width)
	applyBoolConfig(cmd, "color", &color, fileCfg.Render.Color)

	cfg := model.Config{
		DataPath:      dataPath,
		GeoPath:       geoPath,
		GeoNameKey:    geoNameKey,
		CountryColumn: countryColumn,
		CasesColumn:   casesColumn,
		DeathsColumn:  deathsColumn,
		OnInvalid:     strings.ToLower(strings.TrimSpace(onInvalid)),
		Timeout:       timeout,
		Width:         width,
		Color:         color,
	}
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg model.Config) error {
	if strings.TrimSpace(cfg.DataPath) == "" {
		return fmt.Errorf("--data must not be empty")
	}
	if cfg.CountryColumn == "" || cfg.CasesColumn == "" || cfg.DeathsColumn == "" {
		return fmt.Errorf("column names must not be empty")
	}
	if err := records.ValidatePolicy(cfg.OnInvalid); err != nil {
		return fmt.Errorf("--on-invalid: %w", err)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("--timeout must be > 0")
	}
	if cfg.Width < 0 {
		return fmt.Errorf("--width must be >= 0")
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyDurationConfig(cmd *cobra.Command, name string, target *time.Duration, value *string) error {
	if value == nil {
		return nil
	}
	if cmd.Flags().Changed(name) {
		return nil
	}
	parsed, err := time.ParseDuration(*value)
	if err != nil {
		return fmt.Errorf("invalid timeout in config: %w", err)
	}
	*target = parsed
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# casebars configuration
# Uncomment a value to enable it. CLI flags override config values.

[data]
# csv = %q              # Tabular dataset path or URL
# geo = %q       # Boundary document path or URL ("" to skip)
# geo-name-key = "name"           # Boundary property holding country names
# country-column = %q
# cases-column = %q
# deaths-column = %q
# on-invalid = %q              # Missing or non-numeric values: fail or zero
# timeout = %q                  # Fetch timeout for remote resources

[render]
# width = 0                       # Bar width in cells (0 fits the terminal)
# color = false                   # Force colored output
`,
		defaultDataPath,
		defaultGeoPath,
		records.DefaultCountryColumn,
		records.DefaultCasesColumn,
		records.DefaultDeathsColumn,
		records.PolicyFail,
		defaultTimeout.String(),
	)
}
