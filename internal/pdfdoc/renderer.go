// Package pdfdoc 将 PDF 页面渲染为位图
package pdfdoc

import (
	"context"
	"image"
)

// DefaultScale 默认渲染倍率（相对 72 DPI）
const DefaultScale = 1.5

// Page 渲染结果
type Page struct {
	Image  *image.RGBA // scale × 页面尺寸
	Width  float64     // 页面固有宽度（点）
	Height float64     // 页面固有高度（点）
}

// Renderer 页面渲染接口
type Renderer interface {
	// PageCount 解析文档并返回页数
	PageCount(doc []byte) (int, error)

	// Render 渲染第 page 页（从 1 开始）
	// 对相同的 (doc, page, scale) 结果确定
	Render(ctx context.Context, doc []byte, page int, scale float64) (*Page, error)
}
