package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/anoved/Ground-Track-Generator/internal/attr"
	"github.com/anoved/Ground-Track-Generator/internal/config"
	"github.com/anoved/Ground-Track-Generator/internal/metrics"
	"github.com/anoved/Ground-Track-Generator/internal/output"
	"github.com/anoved/Ground-Track-Generator/internal/propagation"
	"github.com/anoved/Ground-Track-Generator/internal/trace"
	"github.com/anoved/Ground-Track-Generator/internal/tle"
	"github.com/anoved/Ground-Track-Generator/internal/transform"
)

// options holds every command-line setting.
type options struct {
	tleText    string
	start      string
	end        string
	interval   string
	steps      int
	features   string
	split      bool
	forceEnd   bool
	attributes []string
	observer   string

	outputDir string
	prefix    string
	suffix    string
	useID     bool
	format    string
	prj       bool

	configPath  string
	verbose     bool
	metricsFile string

	// Only settable from a config file.
	cacheDir      string
	cacheMaxFiles int
}

func main() {
	if err := newRootCmd(os.Stdin, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdin io.Reader, stderr io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "gtg [flags] [TLE_FILE|URL|- ...]",
		Short: "Generate satellite ground tracks",
		Long: `gtg propagates two-line element sets with SGP4 and writes the
satellite's ground track as point or line features in a shapefile or CSV file.
Element sets are read from files, http(s) URLs, --tle or standard input.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(os.Getenv("GTG_LOG_FORMAT"), opts.verbose, stderr)
			if opts.configPath != "" {
				f, err := config.Load(opts.configPath)
				if err != nil {
					return err
				}
				applyConfigFile(cmd, opts, f)
				args = append(args, f.TLE.Sources...)
			}
			return run(cmd, opts, args, stdin, logger)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&opts.tleText, "tle", "", "two-line element set text")
	fl.StringVarP(&opts.start, "start", "s", "epoch", "start time (now, epoch, 'YYYY-MM-DD HH:MM:SS UTC' or unix seconds, with optional +/-offset)")
	fl.StringVarP(&opts.end, "end", "e", "", "end time; overrides --steps")
	fl.StringVarP(&opts.interval, "interval", "i", "1m", "time between steps (e.g. 30s, 1m, 2h, 1d)")
	fl.IntVarP(&opts.steps, "steps", "n", 100, "number of features to generate")
	fl.StringVarP(&opts.features, "features", "f", "point", "feature type (point|line)")
	fl.BoolVar(&opts.split, "split", false, "split line features that cross the antimeridian")
	fl.BoolVar(&opts.forceEnd, "forceend", false, "finish with a feature exactly at the end time")
	fl.StringSliceVarP(&opts.attributes, "attributes", "a", nil, "attributes to include (names, 'standard' or 'all')")
	fl.StringVar(&opts.observer, "observer", "", "observer position as lat,lon[,alt_m]")
	fl.StringVarP(&opts.outputDir, "output", "o", "", "output directory")
	fl.StringVar(&opts.prefix, "prefix", "", "output file name prefix")
	fl.StringVar(&opts.suffix, "suffix", "", "output file name suffix")
	fl.BoolVar(&opts.useID, "id", false, "name output files by catalog number")
	fl.StringVar(&opts.format, "format", string(output.FormatShapefile), "output format (shp|csv)")
	fl.BoolVar(&opts.prj, "prj", false, "write a WGS84 .prj file beside shapefiles")
	fl.StringVarP(&opts.configPath, "config", "c", "", "TOML file with default settings")
	fl.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output")
	fl.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")

	return cmd
}

func newLogger(format string, verbose bool, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(w, handlerOpts))
	}
	return slog.New(slog.NewJSONHandler(w, handlerOpts))
}

// applyConfigFile copies file settings into opts for every flag not set on
// the command line.
func applyConfigFile(cmd *cobra.Command, opts *options, f config.File) {
	fl := cmd.Flags()
	setString := func(name string, dst *string, v string) {
		if v != "" && !fl.Changed(name) {
			*dst = v
		}
	}
	setBool := func(name string, dst *bool, v *bool) {
		if v != nil && !fl.Changed(name) {
			*dst = *v
		}
	}

	setString("start", &opts.start, f.Start)
	setString("end", &opts.end, f.End)
	setString("interval", &opts.interval, f.Interval)
	setString("features", &opts.features, f.Features)
	setString("observer", &opts.observer, f.Observer)
	setString("output", &opts.outputDir, f.Output.Dir)
	setString("prefix", &opts.prefix, f.Output.Prefix)
	setString("suffix", &opts.suffix, f.Output.Suffix)
	setString("format", &opts.format, f.Output.Format)
	setBool("split", &opts.split, f.Split)
	setBool("forceend", &opts.forceEnd, f.ForceEnd)
	setBool("prj", &opts.prj, f.Output.PRJ)
	setBool("id", &opts.useID, f.Output.UseID)
	opts.cacheDir = f.TLE.CacheDir
	opts.cacheMaxFiles = f.TLE.CacheMaxFiles
	if f.Steps != nil && !fl.Changed("steps") {
		opts.steps = *f.Steps
	}
	if len(f.Attributes) > 0 && !fl.Changed("attributes") {
		opts.attributes = f.Attributes
	}
}

func run(cmd *cobra.Command, opts *options, args []string, stdin io.Reader, logger *slog.Logger) error {
	defaults := defaultEnvConfig()
	if opts.cacheDir != "" {
		defaults.CacheDir = opts.cacheDir
	}
	if opts.cacheMaxFiles > 0 {
		defaults.CacheMaxFiles = opts.cacheMaxFiles
	}
	env := loadEnvConfig(defaults, logger)
	if opts.metricsFile == "" {
		opts.metricsFile = env.MetricsFile
	}

	sel, err := attr.NewSelection(opts.attributes...)
	if err != nil {
		return err
	}
	kind, err := output.ParseKind(opts.features)
	if err != nil {
		return err
	}
	var observer *transform.ObserverPosition
	if opts.observer != "" {
		obs, err := parseObserver(opts.observer)
		if err != nil {
			return err
		}
		observer = &obs
	}

	engine, err := trace.New(trace.Config{
		Start:      opts.start,
		End:        opts.end,
		Interval:   opts.interval,
		Steps:      opts.steps,
		Feature:    kind,
		Split:      opts.split,
		ForceEnd:   opts.forceEnd,
		Attributes: sel,
		Observer:   observer,
		Now:        time.Now().UTC(),
	}, logger)
	if err != nil {
		return err
	}

	loader := &elementLoader{
		stdin:  stdin,
		cache:  tle.NewCache(env.CacheDir, env.CacheMaxFiles),
		logger: logger,
	}
	elements, err := loader.Load(cmd.Context(), opts.tleText, args)
	if err != nil {
		return err
	}
	metrics.SetTLEElementsLoaded(len(elements))
	if len(elements) == 0 {
		return errors.New("no element sets found")
	}

	outOpts := output.Options{
		Dir:    opts.outputDir,
		Prefix: opts.prefix,
		Suffix: opts.suffix,
		Format: output.Format(strings.ToLower(opts.format)),
		PRJ:    opts.prj,
	}
	open := func(el tle.Element, kind output.Kind, fields []attr.Descriptor) (output.Sink, error) {
		label := el.Label()
		if opts.useID {
			label = strconv.Itoa(el.NORADID)
		}
		return output.Open(outOpts, label, kind, fields)
	}

	failed := 0
	for _, el := range elements {
		if err := traceElement(engine, el, open, logger); err != nil {
			failed++
			logger.Error("trace failed", "norad_id", el.NORADID, "name", el.Name, "error", err)
		}
	}

	if opts.metricsFile != "" {
		if err := metrics.WriteTextfile(opts.metricsFile); err != nil {
			logger.Warn("failed to write metrics", "error", err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d traces failed", failed, len(elements))
	}
	return nil
}

func traceElement(engine *trace.Engine, el tle.Element, open trace.SinkOpener, logger *slog.Logger) error {
	prop, err := propagation.NewSGP4Propagator(el)
	if err != nil {
		return err
	}

	sum, err := engine.Run(el, prop, open)
	if err != nil {
		return err
	}

	logger.Info("trace complete",
		"norad_id", el.NORADID,
		"name", el.Name,
		"state", sum.State.String(),
		"records", sum.Records,
		"splits", sum.Splits,
	)
	return nil
}

// parseObserver reads "lat,lon" or "lat,lon,alt" (degrees, degrees, meters).
func parseObserver(s string) (transform.ObserverPosition, error) {
	parts := strings.Split(s, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return transform.ObserverPosition{}, fmt.Errorf("observer %q: want lat,lon[,alt]", s)
	}

	var v [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return transform.ObserverPosition{}, fmt.Errorf("observer %q: %w", s, err)
		}
		v[i] = f
	}
	if v[0] < -90 || v[0] > 90 {
		return transform.ObserverPosition{}, fmt.Errorf("observer latitude %v out of range", v[0])
	}
	if v[1] < -180 || v[1] > 180 {
		return transform.ObserverPosition{}, fmt.Errorf("observer longitude %v out of range", v[1])
	}
	return transform.NewObserverPosition(v[0], v[1], v[2]), nil
}
