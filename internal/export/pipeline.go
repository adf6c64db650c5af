// Package export 把标注后的页面光栅写回 PDF 副本
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/sirupsen/logrus"

	"pdfmark/internal/pdfdoc"
)

// stampDesc 图片铺满整页、居中、不旋转、不透明
const stampDesc = "scalefactor:1 rel, position:c, rotation:0, opacity:1"

// NewConfiguration 创建 pdfcpu 配置，进程启动时调用一次
func NewConfiguration() *model.Configuration {
	api.DisableConfigDir()
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Pipeline 导出流水线
type Pipeline struct {
	conf *model.Configuration
	log  *logrus.Entry
}

// NewPipeline 创建导出流水线；conf 为 nil 时使用 NewConfiguration
func NewPipeline(conf *model.Configuration, log *logrus.Entry) *Pipeline {
	if conf == nil {
		conf = NewConfiguration()
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Pipeline{conf: conf, log: log}
}

// config pdfcpu 会改写配置中的命令字段，每次调用使用副本
func (p *Pipeline) config() *model.Configuration {
	c := *p.conf
	return &c
}

// ExportCurrentPage 用 surface 替换第 page 页的可见内容，返回新文档字节
func (p *Pipeline) ExportCurrentPage(ctx context.Context, doc []byte, page int, surface image.Image) ([]byte, error) {
	return p.ExportPages(ctx, doc, map[int]image.Image{page: surface})
}

// ExportPages 把每个页面光栅以不透明图章铺在对应页之上；其余页保持原样。
// doc 不会被修改。
func (p *Pipeline) ExportPages(ctx context.Context, doc []byte, frames map[int]image.Image) ([]byte, error) {
	if len(frames) == 0 {
		return nil, wrap(StagePages, 0, errors.New("no pages to export"))
	}

	// 1. 解析原始文档副本
	pdf, err := api.ReadContext(bytes.NewReader(doc), p.config())
	if err != nil {
		return nil, wrap(StageParse, 0, &pdfdoc.DocumentLoadError{Err: err})
	}
	if err := api.ValidateContext(pdf); err != nil {
		return nil, wrap(StageParse, 0, &pdfdoc.DocumentLoadError{Err: err})
	}
	if err := ctx.Err(); err != nil {
		return nil, wrap(StageParse, 0, err)
	}

	// 2. 页面尺寸与页码检查
	dims, err := api.PageDims(bytes.NewReader(doc), p.config())
	if err != nil {
		return nil, wrap(StagePages, 0, err)
	}

	pages := make([]int, 0, len(frames))
	for page := range frames {
		pages = append(pages, page)
	}
	sort.Ints(pages)

	// 3. 编码光栅并生成图章
	stamps := make(map[int]*model.Watermark, len(pages))
	for _, page := range pages {
		if err := pdfdoc.CheckPage(page, len(dims)); err != nil {
			return nil, wrap(StagePages, page, err)
		}
		if frames[page] == nil {
			return nil, wrap(StageEncode, page, errors.New("nil raster"))
		}
		if err := ctx.Err(); err != nil {
			return nil, wrap(StageEncode, page, err)
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, frames[page]); err != nil {
			return nil, wrap(StageEncode, page, err)
		}

		wm, err := api.ImageWatermarkForReader(&buf, stampDesc, true, false, types.POINTS)
		if err != nil {
			return nil, wrap(StageStamp, page, err)
		}
		stamps[page] = wm

		p.log.WithFields(logrus.Fields{
			"page":   page,
			"bytes":  buf.Len(),
			"width":  dims[page-1].Width,
			"height": dims[page-1].Height,
		}).Debug("页面图章已生成")
	}

	// 4. 写出新文档
	var out bytes.Buffer
	if err := api.AddWatermarksMap(bytes.NewReader(doc), &out, stamps, p.config()); err != nil {
		return nil, wrap(StageWrite, 0, err)
	}
	if out.Len() == 0 {
		return nil, wrap(StageWrite, 0, fmt.Errorf("empty output for %d pages", len(pages)))
	}

	p.log.WithFields(logrus.Fields{"pages": pages, "bytes": out.Len()}).Info("导出完成")
	return out.Bytes(), nil
}
