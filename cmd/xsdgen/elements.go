package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var elementsCmd = &cobra.Command{
	Use:   "elements",
	Short: "List the global elements of a schema",
	Long: `List the global elements that can be used as --element.

Names in a namespace are printed in {namespace}local form.`,
	RunE: runElements,
}

func init() {
	rootCmd.AddCommand(elementsCmd)
}

func runElements(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	schema, err := loadSchema(cfg, logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, q := range schema.Elements() {
		if _, err := fmt.Fprintln(out, q.String()); err != nil {
			return err
		}
	}
	return nil
}
