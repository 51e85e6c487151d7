package main

import (
	"fmt"
	"os"

	"moviecatalog/cmd/catalog-service/internal/biz"
	"moviecatalog/cmd/catalog-service/internal/data"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newInspectCmd() *cobra.Command {
	var opts biz.NormalizerOptions

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Decode and normalize a spreadsheet without storing it",
		Long: `Runs an .xlsx or .csv file through the same decoder and normalizer as
bulk upload and prints the resulting drafts as YAML. Nothing is stored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			rows, err := data.NewSpreadsheetDecoder().Decode(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			drafts := biz.NewNormalizer(opts).NormalizeAll(rows)

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(drafts)
		},
	}

	cmd.Flags().BoolVar(&opts.TrimSpace, "trim-space", false, "trim whitespace around list elements")
	cmd.Flags().BoolVar(&opts.AcceptLists, "accept-lists", false, "keep list-valued cells")

	return cmd
}
