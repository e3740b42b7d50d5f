package render

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/tesarmarek/Legal-document-cleaner/core"
)

// PDFRenderer renders the Markdown of a cleaned document as a PDF using
// the core Helvetica and Courier fonts.
type PDFRenderer struct{}

// NewPDFRenderer creates a PDFRenderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

var (
	numberedItem = regexp.MustCompile(`^\d+\.\s`)
	italicRun    = regexp.MustCompile(`(?:^|\s)\*([^*]+)\*(?:\s|$)`)
	inlineCode   = regexp.MustCompile("`([^`]+)`")
	inlineLink   = regexp.MustCompile(`\[([^\]]*)\]\([^)]+\)`)
	escapedChar  = regexp.MustCompile(`\\([\\.\-*_#+()\[\]!])`)
)

// Render converts the document's Markdown into PDF bytes.
func (r *PDFRenderer) Render(doc *core.CleanedDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	enc := newTextEncoder(pdf)

	pdf.SetTitle(doc.Meta.Title, true)
	pdf.SetCreator("htmlcleaner", false)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	if doc.Meta.Title != "" {
		pdf.SetFont("Helvetica", "B", 18)
		pdf.MultiCell(0, 8, enc.encode(doc.Meta.Title), "", "L", false)
		pdf.Ln(4)
	}
	if doc.Meta.Source != "" {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.SetTextColor(100, 100, 100)
		pdf.MultiCell(0, 5, enc.encode("Source: "+doc.Meta.Source), "", "L", false)
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(6)
	}

	inCodeBlock := false
	for _, line := range strings.Split(doc.Markdown, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			inCodeBlock = !inCodeBlock
			pdf.Ln(2)
			continue
		}
		if inCodeBlock {
			pdf.SetFont("Courier", "", 9)
			pdf.SetFillColor(245, 245, 245)
			pdf.MultiCell(0, 4.5, enc.encode(line), "", "L", true)
			continue
		}

		switch {
		case trimmed == "":
			pdf.Ln(3)
		case strings.HasPrefix(trimmed, "#"):
			level := len(trimmed) - len(strings.TrimLeft(trimmed, "#"))
			renderHeading(pdf, enc.encode(cleanInlineMarkdown(strings.TrimLeft(trimmed, "# "))), level)
		case strings.HasPrefix(trimmed, "- "), strings.HasPrefix(trimmed, "* "):
			pdf.SetFont("Helvetica", "", 10)
			indent := float64(len(line)-len(strings.TrimLeft(line, " "))) * 1.5
			pdf.SetX(pdf.GetX() + indent)
			pdf.MultiCell(0, 5, enc.encode("• "+cleanInlineMarkdown(trimmed[2:])), "", "L", false)
		case numberedItem.MatchString(trimmed):
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, enc.encode(cleanInlineMarkdown(trimmed)), "", "L", false)
		default:
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, enc.encode(cleanInlineMarkdown(line)), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// Extension returns the file extension for PDF output.
func (r *PDFRenderer) Extension() string {
	return ".pdf"
}

// renderHeading sets the font size based on heading level and writes text.
func renderHeading(pdf *gofpdf.Fpdf, text string, level int) {
	sizes := map[int]float64{1: 18, 2: 15, 3: 13, 4: 12, 5: 11, 6: 10}
	size, ok := sizes[level]
	if !ok {
		size = 10
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", size)
	pdf.MultiCell(0, size*0.6, text, "", "L", false)
	pdf.Ln(2)
}

// cleanInlineMarkdown strips inline Markdown formatting for PDF rendering.
func cleanInlineMarkdown(text string) string {
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "__", "")
	text = italicRun.ReplaceAllString(text, " $1 ")
	text = inlineCode.ReplaceAllString(text, "$1")
	text = inlineLink.ReplaceAllString(text, "$1")
	text = escapedChar.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}

// textEncoder maps UTF-8 text onto the cp1252 code page of the core fonts.
// Letters the code page lacks lose their diacritics ("č" becomes "c")
// before translation; anything still unmapped becomes ".".
type textEncoder struct {
	translate func(string) string
	fold      transform.Transformer
}

func newTextEncoder(pdf *gofpdf.Fpdf) *textEncoder {
	return &textEncoder{
		translate: pdf.UnicodeTranslatorFromDescriptor(""),
		fold:      transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
	}
}

func (e *textEncoder) encode(s string) string {
	var b strings.Builder
	for _, r := range norm.NFC.String(s) {
		ch := string(r)
		if r >= 0x80 && e.translate(ch) == "." {
			if folded, _, err := transform.String(e.fold, ch); err == nil {
				ch = folded
			}
		}
		b.WriteString(ch)
	}
	return e.translate(b.String())
}
