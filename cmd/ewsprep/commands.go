package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"ewscli/internal/dataprocessing"
	"ewscli/internal/services"
	"ewscli/internal/validation"
	"ewscli/pkg/contracts"
)

// newFileCmd builds the single-export commands. The command names the
// dataset; the extension only picks the reader, so either dataset may come
// as text or as a workbook.
func newFileCmd(opts *options, name, short string) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <file>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			if _, err := validation.NewFileValidator(nil).ValidateAnyExport(path); err != nil {
				return err
			}

			rt, err := opts.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			fileOpts := rt.opts
			fileOpts.Dataset = name
			res, err := rt.service.ProcessFile(cmd.Context(), path, fileOpts)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func newBatchCmd(opts *options) *cobra.Command {
	var pattern, dataset string
	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Process every export in a directory in parallel",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dataset != "" && !services.ValidDataset(dataset) {
				return fmt.Errorf("unknown dataset %q: want %s or %s", dataset,
					dataprocessing.DatasetGrade, dataprocessing.DatasetConnectedness)
			}
			rt, err := opts.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			// without an argument the configured exports directory is used
			dir := rt.exportsDir
			if len(args) == 1 {
				if dir, err = filepath.Abs(args[0]); err != nil {
					return err
				}
			}
			if _, err := rt.validator.ValidateInputDirectory(dir); err != nil {
				return err
			}

			batchOpts := rt.opts
			batchOpts.Pattern = pattern
			batchOpts.Dataset = dataset
			results, err := rt.service.ProcessBatch(cmd.Context(), dir, batchOpts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintf(out, "no exports found in %s\n", dir)
				return nil
			}
			for _, res := range results {
				printResult(out, res)
			}
			fmt.Fprintf(out, "processed %d exports\n", len(results))
			return nil
		},
	}
	cmd.Flags().StringVar(&pattern, "pattern", "", "Only process exports whose name matches this glob, e.g. 'grade_*'")
	cmd.Flags().StringVar(&dataset, "dataset", "", "Build every export as this dataset (grade or connectedness); by default text is grade and workbooks connectedness")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), contracts.GetFullVersionString())
		},
	}
}

func printResult(out io.Writer, res *services.Result) {
	fmt.Fprintf(out, "%s: %s, %d records -> %s\n", res.Dataset, res.Source, len(res.Records), res.TidyPath)
	if res.CompositePath != "" {
		fmt.Fprintf(out, "composite: %d regions -> %s\n", len(res.Composite), res.CompositePath)
	}
	if res.RunID != "" {
		fmt.Fprintf(out, "run: %s\n", res.RunID)
	}
}
