package cmd

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tesarmarek/Legal-document-cleaner/core/pipeline"
	"github.com/tesarmarek/Legal-document-cleaner/core/transform"
)

var flagAnalyzeOutput string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file|url>",
	Short: "List the headers and numbered list items of a document",
	Long: `Analyze loads a document and prints its header inventory, with the token
used to re-level each header, and the preserved numbering of its ordered lists.

Examples:
  htmlcleaner analyze contract.html
  htmlcleaner analyze https://example.com/terms -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&flagAnalyzeOutput, "output", "o", "yaml", "Print format: yaml or json")
}

type headerRow struct {
	Index int    `json:"index" yaml:"index"`
	Token string `json:"token" yaml:"token"`
	Level int    `json:"level" yaml:"level"`
	Text  string `json:"text" yaml:"text"`
}

type listRow struct {
	List   string `json:"list" yaml:"list"`
	Number string `json:"number,omitempty" yaml:"number,omitempty"`
	Text   string `json:"text" yaml:"text"`
}

type analysisReport struct {
	Name     string      `json:"name" yaml:"name"`
	Location string      `json:"location" yaml:"location"`
	Title    string      `json:"title" yaml:"title"`
	Sections int         `json:"sections" yaml:"sections"`
	Headers  []headerRow `json:"headers" yaml:"headers"`
	Lists    []listRow   `json:"lists" yaml:"lists"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	s, err := newPipeline(cfgManager.Get()).Open(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printValue(os.Stdout, flagAnalyzeOutput, buildReport(s))
}

func buildReport(s *pipeline.Session) analysisReport {
	meta := s.Manager.Metadata()
	report := analysisReport{
		Name:     s.Source.Name,
		Location: s.Source.Location,
		Headers:  make([]headerRow, 0, len(meta.Headers)),
		Lists:    make([]listRow, 0, len(meta.Lists)),
	}
	if structure := meta.DocumentStructure; structure != nil {
		report.Title = structure.Document.Metadata.Title
		report.Sections = len(structure.Document.Structure.Sections)
	}
	for i, h := range meta.Headers {
		report.Headers = append(report.Headers, headerRow{
			Index: i,
			Token: "header-" + strconv.Itoa(i),
			Level: h.Level,
			Text:  h.Text,
		})
	}
	for _, l := range meta.Lists {
		report.Lists = append(report.Lists, listRowFrom(l))
	}
	return report
}

func listRowFrom(l transform.ListEntry) listRow {
	return listRow{List: l.ID, Number: l.Number, Text: l.Text}
}
