// Package sample 生成内置的示例 PDF，作为固定的本地文档资源和测试样本
package sample

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"codeberg.org/go-pdf/fpdf"
)

// DefaultPages 示例文档页数
const DefaultPages = 3

// Letter 页面尺寸（点）
const (
	PageWidth  = 612.0
	PageHeight = 792.0
)

// Generate 生成 pages 页的 Letter 文档：标题 "Page N" 加若干横线
func Generate(w io.Writer, pages int) error {
	if pages < 1 {
		return fmt.Errorf("sample: page count must be positive, got %d", pages)
	}

	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetTitle("pdfmark sample", true)
	pdf.SetAutoPageBreak(false, 0)

	for i := 1; i <= pages; i++ {
		pdf.AddPage()

		pdf.SetFont("Helvetica", "B", 32)
		pdf.SetTextColor(0, 0, 0)
		pdf.Text(72, 108, fmt.Sprintf("Page %d", i))

		pdf.SetDrawColor(160, 160, 160)
		pdf.SetLineWidth(0.5)
		for y := 160.0; y < PageHeight-72; y += 24 {
			pdf.Line(72, y, PageWidth-72, y)
		}

		pdf.SetFont("Helvetica", "", 12)
		pdf.Text(72, PageHeight-48, fmt.Sprintf("%d / %d", i, pages))
	}

	return pdf.Output(w)
}

// Bytes 生成示例文档并返回字节
func Bytes(pages int) ([]byte, error) {
	var buf bytes.Buffer
	if err := Generate(&buf, pages); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EnsureFile 文件不存在时在 path 生成示例文档，返回是否新建
func EnsureFile(path string, pages int) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}

	data, err := Bytes(pages)
	if err != nil {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("无法创建目录: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return false, fmt.Errorf("无法写入示例文档: %w", err)
	}
	return true, nil
}
