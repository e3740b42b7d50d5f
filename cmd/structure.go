package cmd

import (
	"fmt"
	"os"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"

	"github.com/tesarmarek/Legal-document-cleaner/core/transform"
)

var (
	flagStructureInteractive bool
	flagStructureOutput      string
)

var structureCmd = &cobra.Command{
	Use:   "structure <file|url>",
	Short: "Print the section structure of a document",
	Long: `Structure prints the sections of a document with their paragraphs and lists.
With --interactive every section and node also carries its identity path and
its markup; a path can be looked up again with "htmlcleaner resolve".`,
	Args: cobra.ExactArgs(1),
	RunE: runStructure,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <file|url> <path>",
	Short: "Print the element at an identity path",
	Long: `Resolve prints the markup of the element named by an identity path such as
"section-2 > list-1 > item-3", as produced by "htmlcleaner structure --interactive".`,
	Args: cobra.ExactArgs(2),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(structureCmd)
	rootCmd.AddCommand(resolveCmd)

	structureCmd.Flags().BoolVar(&flagStructureInteractive, "interactive", false, "Include identity paths and markup")
	structureCmd.Flags().StringVarP(&flagStructureOutput, "output", "o", "json", "Print format: json or yaml")
}

func runStructure(cmd *cobra.Command, args []string) error {
	s, err := newPipeline(cfgManager.Get()).Open(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	var structure *transform.Structure
	if flagStructureInteractive {
		structure, err = s.Manager.InteractiveJSON()
	} else {
		structure, err = s.Manager.Structure()
	}
	if err != nil {
		return err
	}
	return printValue(os.Stdout, flagStructureOutput, structure)
}

func runResolve(cmd *cobra.Command, args []string) error {
	s, err := newPipeline(cfgManager.Get()).Open(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	sel, ok := s.Manager.FindElementByPath(args[1])
	if !ok {
		return fmt.Errorf("no element at path %q", args[1])
	}
	markup, err := goquery.OuterHtml(sel)
	if err != nil {
		return fmt.Errorf("serializing element: %w", err)
	}
	fmt.Fprintln(os.Stdout, markup)
	return nil
}
