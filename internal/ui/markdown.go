// internal/ui/markdown.go
package ui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
)

// Renderers are costly to build and responses re-render on every token, so
// one is kept per column width.
var mdRenderers struct {
	sync.Mutex
	byWidth map[int]*glamour.TermRenderer
}

// RenderMarkdown renders a response for a column of the given width. On
// error the text is returned unchanged.
func RenderMarkdown(content string, width int) string {
	if content == "" {
		return ""
	}

	r, err := markdownRenderer(width)
	if err != nil {
		return content
	}

	mdRenderers.Lock()
	defer mdRenderers.Unlock()
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimSpace(rendered)
}

func markdownRenderer(width int) (*glamour.TermRenderer, error) {
	mdRenderers.Lock()
	defer mdRenderers.Unlock()

	if r, ok := mdRenderers.byWidth[width]; ok {
		return r, nil
	}

	style := styles.DarkStyleConfig
	margin := uint(0)
	style.Document.Margin = &margin
	style.Document.BlockPrefix = ""
	style.Document.BlockSuffix = ""
	style.CodeBlock.Margin = &margin

	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	if mdRenderers.byWidth == nil {
		mdRenderers.byWidth = make(map[int]*glamour.TermRenderer)
	}
	mdRenderers.byWidth[width] = r
	return r, nil
}
