package render

import (
	"context"
)

// Page identifies one of the screens served around the guarded form.
type Page string

const (
	PageIndex   Page = "index"
	PageResult  Page = "result"
	PageHistory Page = "history"
	PageError   Page = "error"
)

// Pages lists every page a Renderer must support.
func Pages() []Page {
	return []Page{PageIndex, PageResult, PageHistory, PageError}
}

// Renderer converts page data into a byte representation (HTML, text, etc.).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, page Page, data map[string]any, options RenderOptions) ([]byte, error)
}
