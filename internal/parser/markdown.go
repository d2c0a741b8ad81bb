package parser

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	gmtext "github.com/yuin/goldmark/text"

	"pdfchat/internal/models"
)

// parseMarkdown walks the goldmark AST and keeps only the plain text, so
// markup characters never reach the normalizer.
func parseMarkdown(name string, data []byte) ([]models.Passage, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	root := md.Parser().Parse(gmtext.NewReader(data))

	var text strings.Builder
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); ok && entering {
			text.Write(t.Segment.Value(data))
			if t.SoftLineBreak() || t.HardLineBreak() {
				text.WriteByte('\n')
			}
			return ast.WalkContinue, nil
		}
		if !entering && n.Type() == ast.TypeBlock {
			text.WriteString("\n\n")
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: read markdown: %w", ErrLoad, err)
	}

	if strings.TrimSpace(text.String()) == "" {
		return nil, nil
	}
	return []models.Passage{{Content: text.String(), Page: 1, Source: name}}, nil
}
