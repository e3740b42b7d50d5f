// The transform command is the main command and orchestrates the pipeline:
// load → analyze → re-level → transform → extract → normalize → render → write.
//
// It handles flag validation, level overrides, renderer selection and the
// single-document / --all modes.

package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tesarmarek/Legal-document-cleaner/core"
	"github.com/tesarmarek/Legal-document-cleaner/core/output"
	"github.com/tesarmarek/Legal-document-cleaner/core/pipeline"
	"github.com/tesarmarek/Legal-document-cleaner/core/render"
	"github.com/tesarmarek/Legal-document-cleaner/crawl"
)

// Flag variables.
var (
	flagHeaders     []int
	flagLevels      []string
	flagAllHeaders  bool
	flagFormat      string
	flagInteractive bool
	flagStdout      bool
	flagAll         bool

	flagMaxDocuments int
)

var transformCmd = &cobra.Command{
	Use:   "transform <file|url>",
	Short: "Re-level headers and write the cleaned document",
	Long: `Transform loads a document, applies header level overrides, strips inline
styling, keeps paragraph numbering and writes the result in the chosen format
to {output_dir}/html_cleaner/{name}/{name}_cleaned.{ext}. Existing files are
never overwritten; the next free _cleaned_N name is used instead.

Header indexes are the ones printed by "htmlcleaner analyze".

Examples:
  htmlcleaner transform contract.html --level 2=3 --level 4=3
  htmlcleaner transform contract.html --all-headers --format markdown
  htmlcleaner transform https://example.com/terms --header 1 --format json --interactive
  htmlcleaner transform contract.html --format pdf --output_dir ./out
  htmlcleaner transform ./contracts --all --all-headers --format markdown
  htmlcleaner transform https://example.com/terms --all --max_documents 20`,
	Args: cobra.ExactArgs(1),
	RunE: runTransform,
}

func init() {
	rootCmd.AddCommand(transformCmd)

	transformCmd.Flags().IntSliceVar(&flagHeaders, "header", nil, "Header index to re-level (repeatable)")
	transformCmd.Flags().StringArrayVar(&flagLevels, "level", nil, "Level override as index=level (repeatable)")
	transformCmd.Flags().BoolVar(&flagAllHeaders, "all-headers", false, "Re-level every header")

	transformCmd.Flags().StringVar(&flagFormat, "format", render.FormatHTML, "Output format: "+strings.Join(render.Formats, ", "))
	transformCmd.Flags().BoolVar(&flagInteractive, "interactive", false, "Write the interactive structure JSON (with --format json)")
	transformCmd.Flags().BoolVar(&flagStdout, "stdout", false, "Write to stdout instead of the output directory")

	// Batch mode.
	transformCmd.Flags().BoolVar(&flagAll, "all", false, "Process every document found under the URL (sitemap or links) or directory")
	transformCmd.Flags().IntVar(&flagMaxDocuments, "max_documents", crawl.DefaultMaxDocuments, "Maximum number of documents in --all mode")
}

func runTransform(cmd *cobra.Command, args []string) error {
	// --- Validate flags ---
	if err := validateFlags(); err != nil {
		return err
	}
	levels, err := parseLevels(flagLevels)
	if err != nil {
		return err
	}

	renderer, err := selectRenderer()
	if err != nil {
		return err
	}

	cfg := cfgManager.Get()
	p := newPipeline(cfg)

	writer, err := output.New(cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("initializing output writer: %w", err)
	}

	req := pipeline.Request{Levels: levels, Headers: flagHeaders, Interactive: flagInteractive}
	if flagAll {
		return runAll(cmd.Context(), args[0], p, req, renderer, writer)
	}
	return runOnly(cmd.Context(), args[0], p, req, renderer, writer)
}

// runOnly processes a single document through the pipeline.
func runOnly(
	ctx context.Context,
	ref string,
	p *pipeline.Pipeline,
	req pipeline.Request,
	renderer core.Renderer,
	writer *output.Writer,
) error {
	data, name, err := processDocument(ctx, ref, p, req, renderer)
	if err != nil {
		return err
	}

	if flagStdout {
		_, err := os.Stdout.Write(data)
		return err
	}
	path, err := writer.Save(name, data, renderer.Extension())
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ Written: %s\n", path)
	return nil
}

// runAll discovers the documents under ref and processes each through the
// pipeline with the same request.
func runAll(
	ctx context.Context,
	ref string,
	p *pipeline.Pipeline,
	req pipeline.Request,
	renderer core.Renderer,
	writer *output.Writer,
) error {
	fmt.Fprintf(os.Stdout, "Discovering documents from %s...\n", ref)

	discoverer := crawl.NewDiscoverer(p.Loader, logger)
	discoverer.MaxDocuments = flagMaxDocuments
	refs, err := discoverer.Discover(ctx, ref)
	if err != nil {
		return fmt.Errorf("discovering documents: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Found %d documents to process\n", len(refs))

	var errCount int
	for i, docRef := range refs {
		fmt.Fprintf(os.Stdout, "[%d/%d] Processing %s\n", i+1, len(refs), docRef)

		data, name, err := processDocument(ctx, docRef, p, req, renderer)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  ✗ Error: %v\n", err)
			errCount++
			continue
		}

		path, err := writer.Save(name, data, renderer.Extension())
		if err != nil {
			fmt.Fprintf(os.Stderr, "  ✗ Write error: %v\n", err)
			errCount++
			continue
		}
		fmt.Fprintf(os.Stdout, "  ✓ Written: %s\n", path)
	}

	if errCount > 0 {
		return fmt.Errorf("%d/%d documents failed", errCount, len(refs))
	}
	return nil
}

// processDocument runs one document through the pipeline and renders it.
// It returns the rendered bytes and the source name to save them under.
func processDocument(
	ctx context.Context,
	ref string,
	p *pipeline.Pipeline,
	req pipeline.Request,
	renderer core.Renderer,
) ([]byte, string, error) {
	s, err := p.Open(ctx, ref)
	if err != nil {
		return nil, "", err
	}
	if flagAllHeaders {
		req.Headers = allHeaders(s)
	}

	doc, err := p.Clean(s, req)
	if err != nil {
		return nil, "", err
	}
	reportSkipped(doc)

	data, err := renderer.Render(doc)
	if err != nil {
		return nil, "", fmt.Errorf("render: %w", err)
	}
	return data, s.Source.Name, nil
}

func allHeaders(s *pipeline.Session) []int {
	n := len(s.Manager.Metadata().Headers)
	indexes := make([]int, n)
	for i := range indexes {
		indexes[i] = i
	}
	return indexes
}

func reportSkipped(doc *core.CleanedDocument) {
	for _, sk := range doc.Result.Skipped {
		fmt.Fprintf(os.Stderr, "  ✗ Skipped %s: %s\n", sk.Token, sk.Reason)
	}
}

// parseLevels parses index=level overrides. Levels outside 1..6 are
// rejected here; indexes are checked against the document later.
func parseLevels(specs []string) (map[int]int, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	levels := make(map[int]int, len(specs))
	for _, spec := range specs {
		idx, lvl, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --level %q (want index=level, e.g. 2=3)", spec)
		}
		index, err := strconv.Atoi(strings.TrimSpace(idx))
		if err != nil || index < 0 {
			return nil, fmt.Errorf("invalid header index in --level %q", spec)
		}
		level, err := strconv.Atoi(strings.TrimSpace(lvl))
		if err != nil || level < 1 || level > 6 {
			return nil, fmt.Errorf("invalid level in --level %q (want 1-6)", spec)
		}
		if prev, dup := levels[index]; dup && prev != level {
			return nil, fmt.Errorf("conflicting --level values for header %d", index)
		}
		levels[index] = level
	}
	return levels, nil
}

// validateFlags checks flag combinations that cobra cannot express.
func validateFlags() error {
	if flagAllHeaders && len(flagHeaders) > 0 {
		return fmt.Errorf("--all-headers and --header are mutually exclusive")
	}
	for _, h := range flagHeaders {
		if h < 0 {
			return fmt.Errorf("invalid --header %d (indexes start at 0)", h)
		}
	}
	if flagAll && flagStdout {
		return fmt.Errorf("--all and --stdout are mutually exclusive")
	}
	if flagInteractive && !strings.EqualFold(flagFormat, render.FormatJSON) {
		return fmt.Errorf("--interactive requires --format json")
	}
	return nil
}

// selectRenderer creates the appropriate Renderer based on flags.
func selectRenderer() (core.Renderer, error) {
	return render.ForFormat(flagFormat)
}
