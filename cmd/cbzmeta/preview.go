package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yuanying/cbzmeta/internal/archive"
	"github.com/yuanying/cbzmeta/internal/pageimage"
)

type previewOptions struct {
	Input    string
	Output   string
	Page     int
	MaxWidth int // -1 uses the configured width
}

func newPreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview FILE",
		Short: "Render a page of a CBZ archive to an image file",
		Long: `preview decodes one page, shrinks it to the preview width and writes it
as JPEG, or PNG when the page has transparency. Page numbers are zero-based
and clamped to the archive.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := readCLIOptions(cmd)
			if err != nil {
				return err
			}
			opts, err := readPreviewOptions(cmd, args)
			if err != nil {
				return err
			}
			return runPreview(cmd.Context(), cmd.OutOrStdout(), cli, opts)
		},
	}
	cmd.Flags().IntP("page", "p", 0, "Page to render")
	cmd.Flags().StringP("output", "o", "", "Output file path (default: FILE-pNNN.jpg next to the input)")
	cmd.Flags().Int("width", 0, "Maximum width in pixels, 0 keeps the original (default from config)")
	return cmd
}

func readPreviewOptions(cmd *cobra.Command, args []string) (previewOptions, error) {
	flags := cmd.Flags()
	opts := previewOptions{Input: args[0], MaxWidth: -1}

	opts.Page, _ = flags.GetInt("page")
	opts.Output, _ = flags.GetString("output")

	if flags.Changed("width") {
		opts.MaxWidth, _ = flags.GetInt("width")
		if opts.MaxWidth < 0 {
			return previewOptions{}, fmt.Errorf("--width must be >= 0: %d", opts.MaxWidth)
		}
	}
	return opts, nil
}

func runPreview(ctx context.Context, w io.Writer, cli cliOptions, opts previewOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s := cli.newSession()
	defer s.Close()

	if err := s.LoadFile(ctx, opts.Input); err != nil {
		return err
	}
	doc := s.Document()
	if doc.PageCount() == 0 {
		return errors.New("archive has no pages")
	}
	doc.SetCurrentPage(opts.Page)

	data, err := doc.CurrentImage().Bytes()
	if err != nil {
		return err
	}

	maxWidth := cli.Config.Preview.MaxWidth
	if opts.MaxWidth >= 0 {
		maxWidth = opts.MaxWidth
	}
	rendered, err := pageimage.NewRenderer(maxWidth, cli.Config.Preview.JPEGQuality).Render(data)
	if err != nil {
		return fmt.Errorf("render page %d: %w", doc.CurrentPage, err)
	}

	output := opts.Output
	if output == "" {
		output = previewOutputPath(opts.Input, doc.CurrentPage, rendered.Extension())
	}
	if err := archive.WriteFileAtomic(output, rendered.Data, 0o644); err != nil {
		return fmt.Errorf("write preview: %w", err)
	}

	cli.Logger.Info("rendered preview",
		slog.String("page", doc.Pages[doc.CurrentPage].Filename),
		slog.Int("width", rendered.Width),
		slog.Int("height", rendered.Height),
		slog.String("output", output))
	_, err = fmt.Fprintln(w, output)
	return err
}

func previewOutputPath(input string, page int, ext string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(filepath.Dir(input), fmt.Sprintf("%s-p%03d%s", base, page, ext))
}
