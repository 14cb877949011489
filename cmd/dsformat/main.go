package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/paveg/dsformat"
	"github.com/paveg/dsformat/internal/config"
	"github.com/paveg/dsformat/internal/logging"
	"github.com/paveg/dsformat/internal/version"
)

func customUsage(w io.Writer) func() {
	return func() {
		fmt.Fprintf(w, "Dataset formatter CLI (version %s)\n\n", version.Version)
		fmt.Fprintf(w, "Usage: dsformat -in FILE -out FILE [options]\n\n")
		fmt.Fprintf(w, "Reads a .csv, .json, .jsonl or .parquet file (optionally .lz4 framed),\n")
		fmt.Fprintf(w, "adds hash and uuid columns and writes the result.\n\n")
		fmt.Fprintf(w, "Options:\n")
		fmt.Fprintf(w, "  -in FILE\n\t\tInput file\n")
		fmt.Fprintf(w, "  -out FILE\n\t\tOutput file; format follows the extension\n")
		fmt.Fprintf(w, "  -config FILE\n\t\tJSON or YAML configuration (default: DSFORMAT_* environment)\n")
		fmt.Fprintf(w, "  -env FILE\n\t\tDotenv file with DSFORMAT_* variables, loaded before the environment is read\n")
		fmt.Fprintf(w, "  -normalize\n\t\tLowercase and trim the source column before hashing\n")
		fmt.Fprintf(w, "  -hash-source NAME\n\t\tColumn to hash (default: document)\n")
		fmt.Fprintf(w, "  -hash-column NAME\n\t\tColumn receiving digests (default: hash)\n")
		fmt.Fprintf(w, "  -uuid-column NAME\n\t\tColumn receiving identifiers (default: uuid)\n")
		fmt.Fprintf(w, "  -drop A,B\n\t\tColumns to drop before writing\n")
		fmt.Fprintf(w, "  -summary NAME\n\t\tPrint mean, median and std of a numeric column\n")
		fmt.Fprintf(w, "  -metrics\n\t\tPrint per-operation metrics as JSON to stderr\n")
		fmt.Fprintf(w, "  -v, -version\n\t\tPrint version information and exit\n")
		fmt.Fprintf(w, "  -h, -help\n\t\tShow this help message and exit\n")
	}
}

type options struct {
	in, out    string
	configFile string
	envFile    string
	normalize  bool
	hashSource string
	hashColumn string
	uuidColumn string
	drop       string
	summary    string
	metrics    bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("dsformat", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = customUsage(stderr)

	var opts options
	versionFlag := fs.Bool("v", false, "Print version and exit")
	fs.BoolVar(versionFlag, "version", false, "Print version and exit") // alias
	fs.StringVar(&opts.in, "in", "", "Input file")
	fs.StringVar(&opts.out, "out", "", "Output file")
	fs.StringVar(&opts.configFile, "config", "", "Configuration file")
	fs.StringVar(&opts.envFile, "env", "", "Dotenv file")
	fs.BoolVar(&opts.normalize, "normalize", false, "Normalize the source column")
	fs.StringVar(&opts.hashSource, "hash-source", "", "Column to hash")
	fs.StringVar(&opts.hashColumn, "hash-column", "", "Column receiving digests")
	fs.StringVar(&opts.uuidColumn, "uuid-column", "", "Column receiving identifiers")
	fs.StringVar(&opts.drop, "drop", "", "Comma separated columns to drop")
	fs.StringVar(&opts.summary, "summary", "", "Numeric column to summarize")
	fs.BoolVar(&opts.metrics, "metrics", false, "Print operation metrics")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *versionFlag {
		fmt.Fprint(stdout, version.Info().String())
		return 0
	}

	if opts.in == "" || opts.out == "" {
		fs.Usage()
		return 2
	}

	if err := format(opts, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "dsformat: %v\n", err)
		return 1
	}
	return 0
}

func loadConfig(opts options) (config.Config, error) {
	if opts.envFile != "" {
		if err := godotenv.Overload(opts.envFile); err != nil {
			return config.Config{}, fmt.Errorf("loading env file %s: %w", opts.envFile, err)
		}
	}

	cfg := config.LoadFromEnv()
	if opts.configFile != "" {
		loaded, err := config.LoadFromFile(opts.configFile)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	if opts.hashSource != "" {
		cfg.SourceColumn = opts.hashSource
	}
	if opts.hashColumn != "" {
		cfg.HashColumn = opts.hashColumn
	}
	if opts.uuidColumn != "" {
		cfg.UUIDColumn = opts.uuidColumn
	}
	if opts.metrics {
		cfg.MetricsCollection = true
	}
	return cfg, nil
}

func format(opts options, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger := logging.Setup(stderr, cfg.LogLevel, cfg.LogFormat)

	ds, err := dsformat.ReadFile(opts.in)
	if err != nil {
		return err
	}
	logger.Info("dataset loaded", "path", opts.in, "rows", ds.Len(), "columns", ds.Width())

	collector := dsformat.NewMetricsCollector(cfg.MetricsCollection)
	f, err := dsformat.NewFormatter(ds,
		dsformat.WithConfig(cfg),
		dsformat.WithLogger(logger),
		dsformat.WithMetrics(collector),
	)
	if err != nil {
		ds.Release()
		return err
	}
	defer f.Release()

	p := dsformat.NewPipeline()
	if opts.normalize {
		p.NormalizeText(cfg.SourceColumn, "")
	}
	p.Apply("", "")
	for _, column := range strings.Split(opts.drop, ",") {
		if column = strings.TrimSpace(column); column != "" {
			p.DropColumn(column)
		}
	}
	if err := p.Run(f); err != nil {
		return err
	}

	if opts.summary != "" {
		summary, err := f.ComputeSummary(opts.summary)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s: mean=%g median=%g std=%g\n",
			opts.summary, summary.Mean, summary.Median, summary.Std)
	}

	if err := dsformat.WriteFile(opts.out, f.Dataset()); err != nil {
		return err
	}
	logger.Info("dataset written", "path", opts.out, "rows", f.Dataset().Len())

	if collector.IsEnabled() {
		data, err := json.MarshalIndent(collector.GetSummary(), "", "  ")
		if err != nil {
			return fmt.Errorf("encoding metrics: %w", err)
		}
		fmt.Fprintln(stderr, string(data))
	}
	return nil
}
