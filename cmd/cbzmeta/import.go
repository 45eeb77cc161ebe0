package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yuanying/cbzmeta/internal/comic"
)

type importOptions struct {
	Input  string
	Output string
}

func newImportEPUBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-epub FILE.epub",
		Short: "Convert a fixed-layout EPUB comic to CBZ",
		Long: `import-epub extracts the page images of an EPUB comic in spine order,
maps the OPF metadata onto ComicInfo fields and the table of contents onto
bookmarks, and writes a CBZ archive.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := readCLIOptions(cmd)
			if err != nil {
				return err
			}
			output, _ := cmd.Flags().GetString("output")
			if output == "" {
				output = defaultOutputPath(args[0], ".cbz")
			}
			return runImportEPUB(cmd.Context(), cmd.OutOrStdout(), cli, importOptions{Input: args[0], Output: output})
		},
	}
	cmd.Flags().StringP("output", "o", "", "Output file path (default: input with .cbz extension)")
	return cmd
}

func runImportEPUB(ctx context.Context, w io.Writer, cli cliOptions, opts importOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	data, err := os.ReadFile(opts.Input)
	if err != nil {
		return &comic.LoadError{Op: "read", Path: opts.Input, Err: err}
	}

	s := cli.newSession()
	defer s.Close()

	if err := s.ImportEPUB(ctx, filepath.Base(opts.Input), data); err != nil {
		return err
	}
	if s.Document().PageCount() == 0 {
		return fmt.Errorf("%s: no png or jpeg pages found", opts.Input)
	}
	if err := s.SaveFile(opts.Output); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s: %d pages\n", opts.Output, s.Document().PageCount())
	return err
}
