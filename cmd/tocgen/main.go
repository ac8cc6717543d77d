package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tocgen/pkg/config"
	"tocgen/pkg/log"
	"tocgen/pkg/models"
	"tocgen/pkg/toc"
	"tocgen/pkg/watch"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsageTo(os.Stderr)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "generate":
		runGenerate(os.Args[2:])
	case "watch":
		runWatch(os.Args[2:])
	case "validate":
		runValidate(os.Args[2:])
	case "list-formats":
		runListFormats(os.Args[2:])
	case "mcp-server":
		runMcpServer(os.Args[2:])
	case "version":
		fmt.Printf("tocgen %s\n", version)
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsageTo(os.Stderr)
		os.Exit(2)
	}
}

func printUsage() {
	printUsageTo(os.Stdout)
}

// printUsageTo writes usage information to the provided writer.
func printUsageTo(w io.Writer) {
	fmt.Fprintln(w, `tocgen - Table of contents generator for Markdown and HTML

Usage:
  tocgen <command> [options]

Commands:
  generate      Generate a table of contents for one document
  watch         Regenerate tables of contents when files change
  validate      Validate configuration file
  list-formats  List supported document formats
  mcp-server    Start MCP server for AI tool integration
  version       Show version info

Run 'tocgen <command> -h' for command-specific help.`)
}

// resolveConfig loads the config file when one is given, otherwise
// falls back to the built-in defaults. Warnings are returned so each
// command can report them its own way.
func resolveConfig(path string) (*config.AppConfig, []string, error) {
	if path == "" {
		return config.DefaultConfig(), nil, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	warnings, err := cfg.Validate()
	if err != nil {
		return nil, nil, err
	}
	return cfg, warnings, nil
}

// generateOpts carries the generation flag values shared by the
// generate and watch subcommands. explicit records which flags were
// actually given on the command line; only those take precedence over
// the config file.
type generateOpts struct {
	outputFormat  string
	inputFormat   string
	indentWidth   int
	customAnchors bool
	title         string
	explicit      map[string]bool
}

// addGenerateFlags registers the shared generation flags on fs and
// returns the value holder plus the -config flag.
func addGenerateFlags(fs *flag.FlagSet) (*generateOpts, *string) {
	o := &generateOpts{}
	fs.StringVar(&o.outputFormat, "format", string(models.FormatMarkdown), "Output format (markdown, html)")
	fs.StringVar(&o.inputFormat, "input-format", "", "Input format (markdown, html; inferred from the file extension when empty)")
	fs.IntVar(&o.indentWidth, "indent", config.DefaultIndentWidth, "Spaces of indentation per nesting level")
	fs.BoolVar(&o.customAnchors, "custom-anchors", false, "Honor explicit heading anchors ({#id} attributes, id= attributes)")
	fs.StringVar(&o.title, "title", config.DefaultTitle, "Title above the generated list (empty suppresses it)")
	configFile := fs.String("config", "", "Path to YAML config file (optional)")
	return o, configFile
}

// recordExplicit captures which flags were set on the command line.
// Must run after fs.Parse.
func (o *generateOpts) recordExplicit(fs *flag.FlagSet) {
	o.explicit = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		o.explicit[f.Name] = true
	})
}

// options merges the config file defaults with the explicitly set
// flags. The input format is resolved separately, per input file.
func (o *generateOpts) options(d *config.GenerateDefaults) (toc.Options, error) {
	opts := d.Options()
	if o.explicit["format"] {
		f, err := models.ParseFormat(o.outputFormat)
		if err != nil {
			return toc.Options{}, fmt.Errorf("-format: %w", err)
		}
		opts.OutputFormat = f
	}
	if o.explicit["indent"] {
		if o.indentWidth < 0 {
			return toc.Options{}, fmt.Errorf("-indent cannot be negative")
		}
		opts.IndentWidth = o.indentWidth
	}
	if o.explicit["custom-anchors"] {
		opts.CustomAnchors = o.customAnchors
	}
	if o.explicit["title"] {
		opts.Title = o.title
	}
	return opts, nil
}

// resolveInputFormat picks the parse format for one input. An explicit
// -input-format wins, then the file extension, then the configured
// default, then markdown. Stdin has no extension and skips straight to
// the configured default.
func (o *generateOpts) resolveInputFormat(path string, d *config.GenerateDefaults) (models.Format, error) {
	if o.explicit["input-format"] {
		f, err := models.ParseFormat(o.inputFormat)
		if err != nil {
			return "", fmt.Errorf("-input-format: %w", err)
		}
		return f, nil
	}
	if path != "" && path != "-" {
		if f, err := models.DetectFormat(path); err == nil {
			return f, nil
		}
	}
	if f := d.EffectiveInputFormat(); f != "" {
		return f, nil
	}
	return models.FormatMarkdown, nil
}

// runGenerate handles the generate subcommand
func runGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	opts, configFile := addGenerateFlags(fs)
	outFile := fs.String("o", "", "Output file (stdout when empty)")
	logLevel := fs.String("log-level", "", "Log level (trace, debug, info, warn, error)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tocgen generate [options] <file>\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  tocgen generate README.md\n")
		fmt.Fprintf(os.Stderr, "  tocgen generate -format html -indent 2 docs/guide.md\n")
		fmt.Fprintf(os.Stderr, "  cat notes.md | tocgen generate -\n")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	opts.recordExplicit(fs)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one input file is required (use - for stdin)")
		fs.Usage()
		os.Exit(1)
	}

	os.Exit(doGenerate(*configFile, *logLevel, opts, fs.Arg(0), *outFile, os.Stdin, os.Stdout, os.Stderr))
}

// doGenerate generates a single table of contents and writes it to the
// output file or stdout. Returns exit code (0 = success, 1 = error).
func doGenerate(configPath, logLevel string, opts *generateOpts, infile, outFile string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, warnings, err := resolveConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if logLevel == "" {
		logLevel = cfg.LogLevel
	}
	logger := log.New(logLevel, stderr)
	for _, w := range warnings {
		logger.Warn(w)
	}

	genOpts, err := opts.options(&cfg.Defaults)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	inFmt, err := opts.resolveInputFormat(infile, &cfg.Defaults)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	genOpts.InputFormat = inFmt
	logger.Debugf("Input format: %s, output format: %s, indent: %d", genOpts.InputFormat, genOpts.OutputFormat, genOpts.IndentWidth)

	document, err := readInput(infile, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	rendered, err := toc.Generate(document, genOpts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if outFile == "" {
		fmt.Fprint(stdout, rendered)
		return 0
	}
	if err := os.WriteFile(outFile, []byte(rendered), 0644); err != nil {
		fmt.Fprintf(stderr, "Error: write %s: %v\n", outFile, err)
		return 1
	}
	logger.Infof("Wrote %s", outFile)
	return 0
}

// readInput reads the document from the given path, or from stdin when
// the path is "-".
func readInput(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// runWatch handles the watch subcommand
func runWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	opts, configFile := addGenerateFlags(fs)
	outFile := fs.String("o", "", "Output file (only valid with a single input; derived otherwise)")
	logLevel := fs.String("log-level", "", "Log level (trace, debug, info, warn, error)")
	debounce := fs.String("debounce", "", "Quiet period before regenerating, e.g. 250ms")
	poll := fs.String("poll", "", "Polling fallback interval, e.g. 2s (0 disables)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tocgen watch [options] <file> [<file>...]\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  tocgen watch README.md\n")
		fmt.Fprintf(os.Stderr, "  tocgen watch -format html docs/guide.md docs/api.md\n")
		fmt.Fprintf(os.Stderr, "  tocgen watch -o toc.md -debounce 1s notes.md\n")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	opts.recordExplicit(fs)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: at least one input file is required")
		fs.Usage()
		os.Exit(1)
	}
	if *outFile != "" && fs.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "Error: -o is only valid with a single input file")
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	os.Exit(doWatch(*configFile, *logLevel, opts, fs.Args(), *outFile, *debounce, *poll, sigChan, os.Stderr))
}

// doWatch builds the watch targets and runs the regeneration loop until
// a signal arrives on sigChan. Returns exit code (0 = success, 1 = error).
func doWatch(configPath, logLevel string, opts *generateOpts, infiles []string, outFile, debounce, poll string, sigChan <-chan os.Signal, stderr io.Writer) int {
	cfg, warnings, err := resolveConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if logLevel == "" {
		logLevel = cfg.LogLevel
	}
	logger := log.New(logLevel, stderr)
	for _, w := range warnings {
		logger.Warn(w)
	}

	debounceD := cfg.Watch.DebounceDuration()
	if debounce != "" {
		d, err := time.ParseDuration(debounce)
		if err != nil || d <= 0 {
			logger.Errorf("Invalid -debounce %q: must be a positive duration", debounce)
			return 1
		}
		debounceD = d
	}
	pollD := cfg.Watch.PollDuration()
	if poll != "" {
		d, err := time.ParseDuration(poll)
		if err != nil || d < 0 {
			logger.Errorf("Invalid -poll %q: must be a non-negative duration", poll)
			return 1
		}
		pollD = d
	}

	targets, err := buildTargets(infiles, outFile, opts, cfg)
	if err != nil {
		logger.Errorf("Watch setup error: %v", err)
		return 1
	}

	runner, err := watch.NewRunner(targets, debounceD, pollD, log.Component(logger, "watch"))
	if err != nil {
		logger.Errorf("Watch setup error: %v", err)
		return 1
	}

	go func() {
		sig := <-sigChan
		logger.Warnf("Received signal %v, stopping watch...", sig)
		runner.Stop()
	}()

	if err := runner.Run(); err != nil {
		logger.Errorf("Watch error: %v", err)
		return 1
	}

	logger.Info("Watch mode stopped")
	return 0
}

// buildTargets resolves per-file formats and output paths for the watch
// runner. outFile only applies when a single input was given; otherwise
// each output path is derived from the input path.
func buildTargets(infiles []string, outFile string, opts *generateOpts, cfg *config.AppConfig) ([]watch.Target, error) {
	targets := make([]watch.Target, 0, len(infiles))
	for _, in := range infiles {
		if in == "-" {
			return nil, fmt.Errorf("cannot watch stdin")
		}
		if _, err := os.Stat(in); err != nil {
			return nil, fmt.Errorf("stat %s: %w", in, err)
		}

		genOpts, err := opts.options(&cfg.Defaults)
		if err != nil {
			return nil, err
		}
		inFmt, err := opts.resolveInputFormat(in, &cfg.Defaults)
		if err != nil {
			return nil, err
		}
		genOpts.InputFormat = inFmt

		out := outFile
		if out == "" {
			out = watch.DeriveOutputPath(in, genOpts.OutputFormat)
		}
		targets = append(targets, watch.Target{InputPath: in, OutputPath: out, Options: genOpts})
	}
	return targets, nil
}

// runValidate handles the validate subcommand
func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tocgen validate [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	os.Exit(doValidate(*configFile, os.Stdout, os.Stderr))
}

// doValidate checks the config file and writes the outcome to the
// provided writers. Returns exit code (0 = success, 1 = error).
func doValidate(configPath string, stdout, stderr io.Writer) int {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	warnings, err := cfg.Validate()
	for _, w := range warnings {
		fmt.Fprintf(stdout, "WARN: %s\n", w)
	}
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}

	fmt.Fprintln(stdout, "\nConfiguration valid.")
	return 0
}

// runListFormats handles the list-formats subcommand
func runListFormats(args []string) {
	fs := flag.NewFlagSet("list-formats", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tocgen list-formats\n")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	os.Exit(doListFormats(os.Stdout))
}

// doListFormats lists the registered formats and their extensions.
// Returns exit code (always 0).
func doListFormats(stdout io.Writer) int {
	fmt.Fprintf(stdout, "Supported formats:\n\n")
	for _, f := range models.AllFormats() {
		fmt.Fprintf(stdout, "  %s\n", f)
		fmt.Fprintf(stdout, "    Extensions: %s\n", strings.Join(f.Extensions(), ", "))
		fmt.Fprintln(stdout)
	}
	return 0
}
