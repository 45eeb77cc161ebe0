package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yuanying/cbzmeta/internal/comic"
	"github.com/yuanying/cbzmeta/internal/comicinfo"
)

type infoOptions struct {
	Input  string
	Format string
	XML    bool
}

type pageReport struct {
	Index    int    `json:"index" yaml:"index"`
	Filename string `json:"filename" yaml:"filename"`
	Bytes    int    `json:"bytes" yaml:"bytes"`
	Width    int    `json:"width,omitempty" yaml:"width,omitempty"`
	Height   int    `json:"height,omitempty" yaml:"height,omitempty"`
	Format   string `json:"format,omitempty" yaml:"format,omitempty"`
}

type infoReport struct {
	File      string             `json:"file" yaml:"file"`
	Metadata  comicinfo.Metadata `json:"metadata" yaml:"metadata"`
	Pages     []pageReport       `json:"pages" yaml:"pages"`
	Bookmarks []comic.Bookmark   `json:"bookmarks" yaml:"bookmarks"`
	Warnings  []string           `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info FILE",
		Short: "Show pages, metadata and bookmarks of a CBZ archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := readCLIOptions(cmd)
			if err != nil {
				return err
			}
			opts, err := readInfoOptions(cmd, args)
			if err != nil {
				return err
			}
			return runInfo(cmd.Context(), cmd.OutOrStdout(), cli, opts)
		},
	}
	cmd.Flags().StringP("format", "f", "table", "Output format: table, json, yaml")
	cmd.Flags().Bool("xml", false, "Print the ComicInfo.xml that saving would write")
	return cmd
}

func readInfoOptions(cmd *cobra.Command, args []string) (infoOptions, error) {
	format, _ := cmd.Flags().GetString("format")
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case "table", "json", "yaml":
	default:
		return infoOptions{}, fmt.Errorf("--format must be table, json or yaml: %q", format)
	}
	xml, _ := cmd.Flags().GetBool("xml")
	return infoOptions{Input: args[0], Format: format, XML: xml}, nil
}

func runInfo(ctx context.Context, w io.Writer, cli cliOptions, opts infoOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s := cli.newSession()
	defer s.Close()

	if err := s.LoadFile(ctx, opts.Input); err != nil {
		return err
	}
	doc := s.Document()

	if opts.XML {
		_, err := w.Write(comic.MetadataDocument(doc))
		return err
	}

	report := buildInfoReport(doc)
	switch opts.Format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	default:
		return writeInfoTables(w, report)
	}
}

func buildInfoReport(doc *comic.Document) infoReport {
	report := infoReport{
		File:      doc.SourceFilename,
		Metadata:  doc.Metadata,
		Pages:     make([]pageReport, 0, doc.PageCount()),
		Bookmarks: doc.SortedBookmarks(),
	}
	for i, p := range doc.Pages {
		pr := pageReport{Index: i, Filename: p.Filename, Bytes: p.Image.Size()}
		if cfg, format, err := p.Image.Config(); err == nil {
			pr.Width, pr.Height, pr.Format = cfg.Width, cfg.Height, format
		}
		report.Pages = append(report.Pages, pr)
	}
	for _, w := range doc.Warnings {
		report.Warnings = append(report.Warnings, w.Error())
	}
	return report
}

func writeInfoTables(w io.Writer, report infoReport) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s: %d pages\n", report.File, len(report.Pages))

	metaRows := make([][]string, 0, len(comicinfo.Fields))
	for _, f := range comicinfo.Fields {
		metaRows = append(metaRows, []string{f.Label(), report.Metadata.Get(f)})
	}
	b.WriteString(renderTable(w, []string{"Field", "Value"}, metaRows, nil))
	b.WriteString("\n")

	if len(report.Pages) > 0 {
		pageRows := make([][]string, 0, len(report.Pages))
		for _, p := range report.Pages {
			dims := "?"
			if p.Width > 0 {
				dims = fmt.Sprintf("%dx%d %s", p.Width, p.Height, p.Format)
			}
			pageRows = append(pageRows, []string{strconv.Itoa(p.Index), p.Filename, strconv.Itoa(p.Bytes), dims})
		}
		b.WriteString(renderTable(w, []string{"#", "File", "Bytes", "Image"}, pageRows,
			[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft}))
		b.WriteString("\n")
	}

	if len(report.Bookmarks) > 0 {
		bmRows := make([][]string, 0, len(report.Bookmarks))
		for _, bm := range report.Bookmarks {
			bmRows = append(bmRows, []string{strconv.Itoa(bm.Page), bm.Label})
		}
		b.WriteString(renderTable(w, []string{"Page", "Bookmark"}, bmRows,
			[]columnAlignment{alignRight, alignLeft}))
		b.WriteString("\n")
	}

	for _, warning := range report.Warnings {
		fmt.Fprintf(&b, "warning: %s\n", warning)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
