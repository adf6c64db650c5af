package export

import (
	"errors"
	"fmt"
)

// ErrExport 所有导出失败都满足 errors.Is(err, ErrExport)
var ErrExport = errors.New("export failed")

// 导出阶段
const (
	StageRaster = "raster"
	StageParse  = "parse"
	StageEncode = "encode"
	StagePages  = "pages"
	StageStamp  = "stamp"
	StageWrite  = "write"
	StageSave   = "save"
)

// ExportError 导出失败，记录出错的阶段
type ExportError struct {
	Stage string
	Page  int // 0 表示与具体页面无关
	Err   error
}

func (e *ExportError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("export %s (page %d): %v", e.Stage, e.Page, e.Err)
	}
	return fmt.Sprintf("export %s: %v", e.Stage, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

func (e *ExportError) Is(target error) bool { return target == ErrExport }

func wrap(stage string, page int, err error) error {
	return &ExportError{Stage: stage, Page: page, Err: err}
}
