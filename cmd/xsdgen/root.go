package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/agentflare-ai/go-xsdgen"
	"github.com/agentflare-ai/go-xsdgen/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile    string
	schemaPath string
	element    string
	rowTag     string
	outputPath string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "xsdgen",
	Short: "Flatten XML schemas into column maps and generate test documents",
	Long: `xsdgen walks the element tree of an XML schema.

It lists the flattened column paths below a row element, and generates
random XML documents that follow the schema.

Examples:
  xsdgen elements -s report.xsd
  xsdgen flatten  -s report.xsd -e Report --rowtag Rpt
  xsdgen generate -s report.xsd -e Report --rowcount 3 -o report.xml`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", config.DefaultPath, "config file path")
	flags.StringVarP(&schemaPath, "schema", "s", "", "schema file or URL")
	flags.StringVarP(&element, "element", "e", "", "root element, a local name or {namespace}local")
	flags.StringVar(&rowTag, "rowtag", "Rpt", "element treated as one row")
	flags.StringVarP(&outputPath, "output", "o", "", "output file (default stdout)")
	flags.StringVar(&logLevel, "log-level", "info", "log level: trace, debug, info, warn, error")
}

// loadConfig reads the configuration file, or the environment when the
// default file is absent, and applies the flags given on the command line.
// overrides apply the flags of the subcommand.
func loadConfig(cmd *cobra.Command, overrides ...func(*config.Config)) (*config.Config, zerolog.Logger, error) {
	flags := cmd.Flags()

	var cfg *config.Config
	var err error
	if flags.Changed("config") {
		cfg, err = config.Load(cfgFile)
	} else {
		cfg, err = config.LoadWithFallback(cfgFile)
	}
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	if flags.Changed("schema") {
		cfg.Schema = schemaPath
	}
	if flags.Changed("element") {
		cfg.Element = element
	}
	if flags.Changed("rowtag") {
		cfg.RowTag = rowTag
	}
	if flags.Changed("output") {
		cfg.Output = outputPath
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	for _, override := range overrides {
		override(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("validate config: %w", err)
	}
	if cfg.Schema == "" {
		return nil, zerolog.Nop(), errors.New("schema is required (--schema or schema in the config file)")
	}
	return cfg, cfg.NewLogger(cmd.ErrOrStderr()), nil
}

func loadSchema(cfg *config.Config, logger zerolog.Logger) (*xsd.Schema, error) {
	loader := xsd.NewSchemaLoader("")
	loader.AllowRemote = cfg.AllowRemote
	loader.Logger = logger

	schema, err := loader.LoadSchemaWithImports(cfg.Schema)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	logger.Debug().
		Str("schema", schema.Name).
		Str("namespace", schema.TargetNamespace).
		Int("elements", len(schema.ElementDecls)).
		Msg("schema loaded")
	return schema, nil
}

func requireElement(cfg *config.Config) error {
	if cfg.Element == "" {
		return errors.New("element is required (--element or element in the config file)")
	}
	return nil
}

// openOutput returns the configured output file, or the command's stdout.
func openOutput(cmd *cobra.Command, cfg *config.Config) (io.Writer, func() error, error) {
	if cfg.Output == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(cfg.Output)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, f.Close, nil
}
