package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/cobra"

	"github.com/yuanying/cbzmeta/internal/comic"
	"github.com/yuanying/cbzmeta/internal/comicinfo"
)

var (
	digitsPattern   = regexp.MustCompile(`^[0-9]+$`)
	languagePattern = regexp.MustCompile(`^[A-Za-z]{2,3}([-_][A-Za-z0-9]{2,8})*$`)
)

type fieldValue struct {
	Field comicinfo.Field
	Value string
}

type labelEdit struct {
	Page  int
	Label string
}

type editOptions struct {
	Input  string
	Output string

	// Applied in this order.
	RemoveBookmarks []int
	AddBookmarks    []int
	Labels          []labelEdit
	Fields          []fieldValue // clears first, then sets
}

func newEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit FILE",
		Short: "Edit metadata and bookmarks, then save the archive",
		Long: `edit applies bookmark and metadata changes to a CBZ archive and writes
it back with a regenerated ComicInfo.xml.

Operations run in a fixed order: --remove-bookmark, --add-bookmark,
--bookmark, --clear, --set. Page numbers are zero-based.

Keys for --set and --clear: title, writer, series, volume, year, month,
publisher, language, summary.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := readCLIOptions(cmd)
			if err != nil {
				return err
			}
			opts, err := readEditOptions(cmd, args)
			if err != nil {
				return err
			}
			return runEdit(cmd.Context(), cli, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringP("output", "o", "", "Output file path (default: overwrite the input)")
	flags.StringArray("set", nil, "Set a metadata field, key=value (repeatable)")
	flags.StringArray("clear", nil, "Clear a metadata field (repeatable)")
	flags.IntSlice("add-bookmark", nil, "Bookmark a page (repeatable)")
	flags.StringArray("bookmark", nil, "Label a bookmarked page, N=label (repeatable)")
	flags.IntSlice("remove-bookmark", nil, "Remove the bookmark on a page (repeatable)")
	return cmd
}

func readEditOptions(cmd *cobra.Command, args []string) (editOptions, error) {
	flags := cmd.Flags()
	opts := editOptions{Input: args[0]}

	opts.Output, _ = flags.GetString("output")
	if opts.Output == "" {
		opts.Output = opts.Input
	}

	var err error
	if opts.RemoveBookmarks, err = readPages(cmd, "remove-bookmark"); err != nil {
		return editOptions{}, err
	}
	if opts.AddBookmarks, err = readPages(cmd, "add-bookmark"); err != nil {
		return editOptions{}, err
	}

	labels, _ := flags.GetStringArray("bookmark")
	for _, raw := range labels {
		page, label, ok := strings.Cut(raw, "=")
		n, err := strconv.Atoi(strings.TrimSpace(page))
		if !ok || err != nil || n < 0 {
			return editOptions{}, fmt.Errorf("--bookmark expects N=label with a page number >= 0: %q", raw)
		}
		opts.Labels = append(opts.Labels, labelEdit{Page: n, Label: label})
	}

	clears, _ := flags.GetStringArray("clear")
	for _, key := range clears {
		f, ok := comicinfo.ParseField(strings.TrimSpace(key))
		if !ok {
			return editOptions{}, fmt.Errorf("--clear: unknown field %q", key)
		}
		opts.Fields = append(opts.Fields, fieldValue{Field: f})
	}

	sets, _ := flags.GetStringArray("set")
	for _, raw := range sets {
		key, value, ok := strings.Cut(raw, "=")
		if !ok {
			return editOptions{}, fmt.Errorf("--set expects key=value: %q", raw)
		}
		f, known := comicinfo.ParseField(strings.TrimSpace(key))
		if !known {
			return editOptions{}, fmt.Errorf("--set: unknown field %q", key)
		}
		opts.Fields = append(opts.Fields, fieldValue{Field: f, Value: value})
	}

	if err := validateFieldValues(opts.Fields); err != nil {
		return editOptions{}, fmt.Errorf("--set: %w", err)
	}
	return opts, nil
}

func readPages(cmd *cobra.Command, name string) ([]int, error) {
	pages, err := cmd.Flags().GetIntSlice(name)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	for _, p := range pages {
		if p < 0 {
			return nil, fmt.Errorf("--%s must be >= 0: %d", name, p)
		}
	}
	return pages, nil
}

// validateFieldValues checks the numeric and language fields. Empty values
// always pass so that fields can be cleared.
func validateFieldValues(values []fieldValue) error {
	errs := validation.Errors{}
	for _, fv := range values {
		if err := validation.Validate(fieldInput(fv), fieldRules(fv.Field)...); err != nil {
			errs[fv.Field.Key()] = err
		}
	}
	return errs.Filter()
}

// fieldInput trims the value of fields that carry numbers or codes. Free
// text is stored as given.
func fieldInput(fv fieldValue) string {
	switch fv.Field {
	case comicinfo.FieldVolume, comicinfo.FieldYear, comicinfo.FieldMonth, comicinfo.FieldLanguage:
		return strings.TrimSpace(fv.Value)
	default:
		return fv.Value
	}
}

func fieldRules(f comicinfo.Field) []validation.Rule {
	switch f {
	case comicinfo.FieldVolume, comicinfo.FieldYear:
		return []validation.Rule{
			validation.Match(digitsPattern).Error("must contain only digits"),
		}
	case comicinfo.FieldMonth:
		return []validation.Rule{
			validation.Match(digitsPattern).Error("must contain only digits"),
			validation.By(monthInRange),
		}
	case comicinfo.FieldLanguage:
		return []validation.Rule{
			validation.Match(languagePattern).Error("must be an ISO 639 language code"),
		}
	default:
		return nil
	}
}

func monthInRange(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 12 {
		return errors.New("must be between 1 and 12")
	}
	return nil
}

func runEdit(ctx context.Context, cli cliOptions, opts editOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s := cli.newSession()
	defer s.Close()

	if err := s.LoadFile(ctx, opts.Input); err != nil {
		return err
	}
	applyEdits(s.Document(), opts, cli.Logger)

	if err := s.SaveFile(opts.Output); err != nil {
		return err
	}
	return nil
}

// applyEdits runs the editing operations in their fixed order.
func applyEdits(doc *comic.Document, opts editOptions, logger *slog.Logger) {
	for _, p := range opts.RemoveBookmarks {
		doc.RemoveBookmark(p)
	}
	for _, p := range opts.AddBookmarks {
		if p >= doc.PageCount() {
			logger.Warn("bookmark page out of range",
				slog.Int("page", p),
				slog.Int("pages", doc.PageCount()))
			continue
		}
		doc.AddBookmark(p)
	}
	for _, l := range opts.Labels {
		if !doc.EditBookmarkLabel(l.Page, l.Label) {
			logger.Warn("no bookmark on page, label ignored", slog.Int("page", l.Page))
		}
	}
	for _, fv := range opts.Fields {
		doc.SetMetadataField(fv.Field, fieldInput(fv))
	}
}
