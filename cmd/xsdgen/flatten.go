package main

import (
	"fmt"

	"github.com/agentflare-ai/go-xsdgen/config"
	"github.com/agentflare-ai/go-xsdgen/flatten"
	"github.com/agentflare-ai/go-xsdgen/store"
	"github.com/spf13/cobra"
)

var flattenCmd = &cobra.Command{
	Use:   "flatten",
	Short: "List the flattened column paths below the row element",
	Long: `List one line per value a row element can carry:

  <column.path>[.VALUE];<element/path>

Repeatable nodes are annotated with their declared bounds. With --sqlite
the column map is also written to a SQLite database, together with a
table named after the row element.

Examples:
  xsdgen flatten -s report.xsd -e Report
  xsdgen flatten -s report.xsd -e Report --rowtag Line --sqlite columns.db`,
	RunE: runFlatten,
}

var flattenSQLite string

func init() {
	rootCmd.AddCommand(flattenCmd)

	flattenCmd.Flags().StringVar(&flattenSQLite, "sqlite", "", "also store the column map in this SQLite database")
}

func runFlatten(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd, func(cfg *config.Config) {
		if cmd.Flags().Changed("sqlite") {
			cfg.SQLite = flattenSQLite
		}
	})
	if err != nil {
		return err
	}
	if err := requireElement(cfg); err != nil {
		return err
	}

	schema, err := loadSchema(cfg, logger)
	if err != nil {
		return err
	}

	res, err := flatten.Flatten(schema, cfg.Element, flatten.Options{
		RowTag:   cfg.RowTag,
		MaxDepth: cfg.MaxDepth,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	w, closeOutput, err := openOutput(cmd, cfg)
	if err != nil {
		return err
	}
	if _, err := res.WriteTo(w); err != nil {
		closeOutput()
		return err
	}
	if err := closeOutput(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}

	if cfg.SQLite != "" {
		db, err := store.Open(cfg.SQLite)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Migrate(); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		if err := db.SaveColumns(cmd.Context(), res); err != nil {
			return fmt.Errorf("save columns: %w", err)
		}
		logger.Info().
			Str("database", cfg.SQLite).
			Int("columns", len(res.Columns)).
			Msg("column map stored")
	}

	if len(res.Diagnostics) > 0 {
		logger.Warn().Int("diagnostics", len(res.Diagnostics)).Msg("schema has structural problems")
	}
	return nil
}
