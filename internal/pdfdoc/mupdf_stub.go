//go:build !cgo

package pdfdoc

import (
	"context"
	"errors"
)

// ErrNoRenderer 未启用 cgo 时 MuPDF 不可用
var ErrNoRenderer = errors.New("pdfdoc: MuPDF renderer requires cgo")

type stubRenderer struct{}

// NewRenderer 创建渲染器（cgo 关闭时始终失败）
func NewRenderer() Renderer {
	return stubRenderer{}
}

func (stubRenderer) PageCount(doc []byte) (int, error) {
	return 0, ErrNoRenderer
}

func (stubRenderer) Render(ctx context.Context, doc []byte, page int, scale float64) (*Page, error) {
	return nil, ErrNoRenderer
}
