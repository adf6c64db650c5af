//go:build cgo

package pdfdoc

import (
	"context"
	"errors"

	"github.com/gen2brain/go-fitz"
)

var errNoPages = errors.New("document has no pages")

// MuPDF 基于 MuPDF 的渲染器，每次调用都重新解析文档字节
type MuPDF struct{}

// NewRenderer 创建渲染器
func NewRenderer() Renderer {
	return &MuPDF{}
}

func open(doc []byte) (*fitz.Document, error) {
	if len(doc) == 0 {
		return nil, &DocumentLoadError{Err: errors.New("empty document")}
	}
	d, err := fitz.NewFromMemory(doc)
	if err != nil {
		return nil, &DocumentLoadError{Err: err}
	}
	return d, nil
}

// PageCount 返回文档页数
func (m *MuPDF) PageCount(doc []byte) (int, error) {
	d, err := open(doc)
	if err != nil {
		return 0, err
	}
	defer d.Close()

	n := d.NumPage()
	if n <= 0 {
		return 0, &DocumentLoadError{Err: errNoPages}
	}
	return n, nil
}

// Render 渲染指定页
func (m *MuPDF) Render(ctx context.Context, doc []byte, page int, scale float64) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if scale <= 0 {
		scale = DefaultScale
	}

	d, err := open(doc)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	n := d.NumPage()
	if n <= 0 {
		return nil, &DocumentLoadError{Err: errNoPages}
	}
	if err := CheckPage(page, n); err != nil {
		return nil, err
	}

	bounds, err := d.Bound(page - 1)
	if err != nil {
		return nil, &DocumentLoadError{Err: err}
	}

	img, err := d.ImageDPI(page-1, 72*scale)
	if err != nil {
		return nil, &DocumentLoadError{Err: err}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Page{
		Image:  img,
		Width:  float64(bounds.Dx()),
		Height: float64(bounds.Dy()),
	}, nil
}
