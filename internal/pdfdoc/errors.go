package pdfdoc

import (
	"errors"
	"fmt"
)

var (
	// ErrDocumentLoad 文档字节无法解析
	ErrDocumentLoad = errors.New("document load failed")
	// ErrPageIndex 页码超出范围
	ErrPageIndex = errors.New("page index out of range")
)

// DocumentLoadError 文档加载失败
type DocumentLoadError struct {
	Err error
}

func (e *DocumentLoadError) Error() string {
	if e.Err == nil {
		return ErrDocumentLoad.Error()
	}
	return fmt.Sprintf("%s: %v", ErrDocumentLoad, e.Err)
}

func (e *DocumentLoadError) Unwrap() error { return e.Err }

func (e *DocumentLoadError) Is(target error) bool { return target == ErrDocumentLoad }

// PageIndexError 页码不在 [1, Count] 内
type PageIndexError struct {
	Page  int
	Count int
}

func (e *PageIndexError) Error() string {
	return fmt.Sprintf("%s: page %d of %d", ErrPageIndex, e.Page, e.Count)
}

func (e *PageIndexError) Is(target error) bool { return target == ErrPageIndex }

// CheckPage 检查页码是否有效
func CheckPage(page, count int) error {
	if page < 1 || page > count {
		return &PageIndexError{Page: page, Count: count}
	}
	return nil
}
