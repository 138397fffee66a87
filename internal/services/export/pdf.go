package export

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Service renders article markdown to PDF and HTML documents
type Service struct {
	logger arbor.ILogger
}

// NewService creates a new export service
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		logger: logger,
	}
}

// MarkdownToPDF converts article markdown to a PDF byte slice. The metadata
// block is stripped; the headline is expected as an H1 in the body.
func (s *Service) MarkdownToPDF(markdown, title string) ([]byte, error) {
	s.logger.Debug().
		Int("markdown_len", len(markdown)).
		Str("title", title).
		Msg("Converting markdown to PDF")

	markdown = stripMetadataBlock(markdown)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetTitle(title, true)
	pdf.AddPage()
	pdf.SetFont("Arial", "", 10)

	md := goldmark.New(
		goldmark.WithExtensions(extension.Strikethrough, extension.Linkify),
	)

	source := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(source))

	renderer := &pdfRenderer{
		pdf:    pdf,
		source: source,
		font:   "Arial",
		size:   10,
	}

	if err := ast.Walk(doc, renderer.walk); err != nil {
		s.logger.Error().Err(err).Msg("Failed to render PDF")
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate PDF output")
		return nil, fmt.Errorf("failed to generate PDF output: %w", err)
	}

	s.logger.Debug().Int("pdf_size", buf.Len()).Msg("PDF generated")
	return buf.Bytes(), nil
}

type pdfRenderer struct {
	pdf       *fpdf.Fpdf
	source    []byte
	font      string
	size      float64
	bold      bool
	italic    bool
	listLevel int
	ordinal   []int // per-level counters for ordered lists, -1 for bullets
}

func (r *pdfRenderer) updateFont() {
	style := ""
	if r.bold {
		style += "B"
	}
	if r.italic {
		style += "I"
	}
	r.pdf.SetFont(r.font, style, r.size)
}

func (r *pdfRenderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		r.heading(node, entering)
	case *ast.Paragraph:
		if !entering {
			r.pdf.Ln(7)
		}
	case *ast.Text:
		if entering {
			r.pdf.Write(5, string(node.Text(r.source)))
			if node.HardLineBreak() || node.SoftLineBreak() {
				r.pdf.Ln(5)
			}
		}
	case *ast.Emphasis:
		if node.Level == 2 {
			r.bold = entering
		} else {
			r.italic = entering
		}
		r.updateFont()
	case *ast.Link:
		// Render link text only; the URL usually repeats in the sources block
		if entering {
			r.pdf.SetTextColor(0, 0, 160)
		} else {
			r.pdf.SetTextColor(0, 0, 0)
		}
	case *ast.AutoLink:
		if entering {
			r.pdf.SetTextColor(0, 0, 160)
			r.pdf.Write(5, string(node.URL(r.source)))
			r.pdf.SetTextColor(0, 0, 0)
		}
	case *ast.List:
		r.list(node, entering)
	case *ast.ListItem:
		if entering {
			r.listItem(node)
		}
	case *ast.ThematicBreak:
		if entering {
			r.pdf.Ln(3)
			left, _, right, _ := r.pdf.GetMargins()
			width, _ := r.pdf.GetPageSize()
			r.pdf.Line(left, r.pdf.GetY(), width-right, r.pdf.GetY())
			r.pdf.Ln(3)
		}
	case *ast.CodeSpan:
		if entering {
			r.pdf.SetFont("Courier", "", r.size)
			for c := node.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					r.pdf.Write(5, string(t.Segment.Value(r.source)))
				}
			}
			r.updateFont()
			return ast.WalkSkipChildren, nil
		}
	}
	return ast.WalkContinue, nil
}

func (r *pdfRenderer) heading(n *ast.Heading, entering bool) {
	if entering {
		r.pdf.Ln(6)
		size := 16.0
		switch n.Level {
		case 1:
			size = 16
		case 2:
			size = 13
		case 3:
			size = 11
		default:
			size = 10
		}
		r.pdf.SetFont(r.font, "B", size)
	} else {
		r.pdf.Ln(8)
		r.updateFont()
	}
}

func (r *pdfRenderer) list(n *ast.List, entering bool) {
	if entering {
		r.listLevel++
		start := -1
		if n.IsOrdered() {
			start = n.Start
		}
		r.ordinal = append(r.ordinal, start)
	} else {
		r.ordinal = r.ordinal[:len(r.ordinal)-1]
		r.listLevel--
		if r.listLevel == 0 {
			r.pdf.Ln(3)
		}
	}
}

func (r *pdfRenderer) listItem(n *ast.ListItem) {
	r.pdf.Ln(5)
	left, _, _, _ := r.pdf.GetMargins()
	indent := float64(r.listLevel-1) * 5.0
	r.pdf.SetX(left + indent)

	last := len(r.ordinal) - 1
	if r.ordinal[last] >= 0 {
		r.pdf.Write(5, fmt.Sprintf("%d. ", r.ordinal[last]))
		r.ordinal[last]++
	} else {
		r.pdf.Write(5, "- ")
	}
}
