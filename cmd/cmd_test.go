package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesarmarek/Legal-document-cleaner/core"
	"github.com/tesarmarek/Legal-document-cleaner/core/pipeline"
)

const contract = `<html><head><title>Contract</title></head><body>
<h1>Contract</h1>
<h3>Parties</h3>
<ol><li data-list-text="1">Buyer</li><li data-list-text="2">Seller</li></ol>
</body></html>`

func TestParseLevels(t *testing.T) {
	levels, err := parseLevels([]string{"1=3", " 4 = 2 ", "1=3"})
	require.NoError(t, err)
	assert.Equal(t, map[int]int{1: 3, 4: 2}, levels)

	levels, err = parseLevels(nil)
	require.NoError(t, err)
	assert.Nil(t, levels)

	for _, bad := range []string{"1", "a=2", "-1=2", "1=0", "1=7", "1=x"} {
		_, err := parseLevels([]string{bad})
		assert.Error(t, err, bad)
	}

	_, err = parseLevels([]string{"1=2", "1=3"})
	assert.Error(t, err)
}

func TestValidateFlags(t *testing.T) {
	reset := func() {
		flagHeaders, flagAllHeaders, flagInteractive, flagFormat = nil, false, false, "html"
		flagAll, flagStdout = false, false
	}
	t.Cleanup(reset)

	reset()
	assert.NoError(t, validateFlags())

	flagAllHeaders, flagHeaders = true, []int{1}
	assert.Error(t, validateFlags())

	reset()
	flagHeaders = []int{-1}
	assert.Error(t, validateFlags())

	reset()
	flagInteractive = true
	assert.Error(t, validateFlags())
	flagFormat = "json"
	assert.NoError(t, validateFlags())

	reset()
	flagAll, flagStdout = true, true
	assert.Error(t, validateFlags())
}

func TestBuildReport(t *testing.T) {
	p := pipeline.New(nil, nil)
	s, err := p.OpenSource(&core.SourceDocument{Name: "contract.html", Location: "contract.html", HTML: contract})
	require.NoError(t, err)

	report := buildReport(s)
	assert.Equal(t, "Contract", report.Title)
	assert.Equal(t, 2, report.Sections)
	assert.Equal(t, []headerRow{
		{Index: 0, Token: "header-0", Level: 1, Text: "Contract"},
		{Index: 1, Token: "header-1", Level: 3, Text: "Parties"},
	}, report.Headers)
	require.Len(t, report.Lists, 2)
	assert.Equal(t, "2", report.Lists[1].Number)
	assert.Equal(t, "Seller", report.Lists[1].Text)

	assert.Equal(t, []int{0, 1}, allHeaders(s))
}

func TestPrintValue(t *testing.T) {
	row := headerRow{Index: 1, Token: "header-1", Level: 3, Text: "Parties"}

	var buf bytes.Buffer
	require.NoError(t, printValue(&buf, "yaml", row))
	assert.Equal(t, "index: 1\ntoken: header-1\nlevel: 3\ntext: Parties\n", buf.String())

	buf.Reset()
	require.NoError(t, printValue(&buf, "json", row))
	assert.Contains(t, buf.String(), `"token": "header-1"`)

	assert.Error(t, printValue(&buf, "toml", row))
}

func TestTransformCommand(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "contract.html")
	require.NoError(t, os.WriteFile(src, []byte(contract), 0o644))
	out := filepath.Join(dir, "out")

	t.Cleanup(func() {
		flagLevels, flagFormat, flagOutputDir = nil, "html", ""
		rootCmd.SetArgs(nil)
	})
	rootCmd.SetArgs([]string{"transform", src, "--level", "1=2", "--format", "markdown", "--output_dir", out, "--log-level", "error"})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	data, err := os.ReadFile(filepath.Join(out, "html_cleaner", "contract", "contract_cleaned.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "## Parties")
	assert.Contains(t, string(data), "**1**")
}

func TestTransformCommandAll(t *testing.T) {
	dir := t.TempDir()
	docs := filepath.Join(dir, "docs")
	require.NoError(t, os.MkdirAll(docs, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "contract.html"), []byte(contract), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "notes.md"), []byte("# Notes\n\n## Terms\n\nPay on time.\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "readme.txt"), []byte("ignored"), 0o644))
	out := filepath.Join(dir, "out")

	t.Cleanup(func() {
		flagAll, flagAllHeaders, flagFormat, flagOutputDir = false, false, "html", ""
		rootCmd.SetArgs(nil)
	})
	rootCmd.SetArgs([]string{"transform", docs, "--all", "--all-headers", "--format", "markdown", "--output_dir", out, "--log-level", "error"})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	data, err := os.ReadFile(filepath.Join(out, "html_cleaner", "contract", "contract_cleaned.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "### Parties")

	data, err = os.ReadFile(filepath.Join(out, "html_cleaner", "notes", "notes_cleaned.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "## Terms")

	_, err = os.Stat(filepath.Join(out, "html_cleaner", "readme"))
	assert.True(t, os.IsNotExist(err))
}
