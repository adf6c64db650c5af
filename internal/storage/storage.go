package storage

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultFilename 导出文件的固定名称
const DefaultFilename = "edited-sample.pdf"

// snapshotPrefix 页面快照文件名前缀，Cleanup 只清理这类文件
const snapshotPrefix = "page_"

// Storage 存储管理
type Storage struct {
	directory string
	filename  string
	format    string
	quality   int
}

// NewStorage 创建存储管理器
func NewStorage(directory, filename, format string, quality int) *Storage {
	if filename == "" {
		filename = DefaultFilename
	}
	return &Storage{
		directory: ExpandHome(directory),
		filename:  filename,
		format:    format,
		quality:   quality,
	}
}

// ExpandHome 展开开头的 ~
func ExpandHome(dir string) string {
	if dir == "~" || strings.HasPrefix(dir, "~/") || strings.HasPrefix(dir, `~\`) {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, dir[1:])
	}
	return dir
}

// SavePDF 写入导出的 PDF，返回文件路径
// 先写临时文件再重命名，失败时不会留下不完整的文件
func (s *Storage) SavePDF(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("拒绝写入空文档")
	}
	if err := os.MkdirAll(s.directory, 0755); err != nil {
		return "", fmt.Errorf("无法创建目录: %w", err)
	}

	target := filepath.Join(s.directory, s.filename)
	if err := writeAtomic(target, func(f *os.File) error {
		_, err := f.Write(data)
		return err
	}); err != nil {
		return "", fmt.Errorf("无法保存文档: %w", err)
	}
	return target, nil
}

// SaveImage 保存当前页面快照，返回文件路径
func (s *Storage) SaveImage(img image.Image, page int) (string, error) {
	if err := os.MkdirAll(s.directory, 0755); err != nil {
		return "", fmt.Errorf("无法创建目录: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	ext := s.format
	if ext == "" {
		ext = "png"
	}
	filename := fmt.Sprintf("%s%d_%s.%s", snapshotPrefix, page, timestamp, ext)
	target := filepath.Join(s.directory, filename)

	err := writeAtomic(target, func(f *os.File) error {
		switch s.format {
		case "jpg", "jpeg":
			return jpeg.Encode(f, img, &jpeg.Options{Quality: s.quality})
		default:
			return png.Encode(f, img)
		}
	})
	if err != nil {
		return "", fmt.Errorf("无法保存图片: %w", err)
	}
	return target, nil
}

// writeAtomic 在同一目录写临时文件，成功后重命名为 target
func writeAtomic(target string, write func(*os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), ".pdfmark-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Cleanup 清理过期的页面快照，返回删除的数量
func (s *Storage) Cleanup(olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(s.directory)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), snapshotPrefix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			if os.Remove(filepath.Join(s.directory, entry.Name())) == nil {
				removed++
			}
		}
	}

	return removed, nil
}

// GetDirectory 获取保存目录
func (s *Storage) GetDirectory() string {
	return s.directory
}

// Path 导出文件的完整路径
func (s *Storage) Path() string {
	return filepath.Join(s.directory, s.filename)
}
