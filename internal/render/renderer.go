package render

import "context"

type Renderer interface {
	RenderPage(ctx context.Context, page PageView) ([]byte, error)
}
