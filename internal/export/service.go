package export

import (
	"context"
	"image"

	"github.com/sirupsen/logrus"
)

// FrameSource 提供待导出的文档和页面光栅（由会话实现）
type FrameSource interface {
	Frames(ctx context.Context) ([]byte, map[int]image.Image, error)
}

// Saver 保存导出结果
type Saver interface {
	SavePDF(data []byte) (string, error)
}

// Notifier 保存完成后的提示
type Notifier interface {
	Show(title, message string) error
}

// Clipboard 复制保存路径
type Clipboard interface {
	SetText(text string) error
}

// Status 显示最近一次保存的结果（托盘提示）
type Status interface {
	SetStatus(text string)
}

// Service 把会话、导出流水线和存储串起来
type Service struct {
	source   FrameSource
	pipeline *Pipeline
	saver    Saver
	notifier Notifier
	clip     Clipboard
	status   Status
	log      *logrus.Entry
}

// ServiceOption 服务选项
type ServiceOption func(*Service)

// WithNotifier 保存成功后显示通知
func WithNotifier(n Notifier) ServiceOption {
	return func(s *Service) { s.notifier = n }
}

// WithClipboard 保存成功后把路径复制到剪贴板
func WithClipboard(c Clipboard) ServiceOption {
	return func(s *Service) { s.clip = c }
}

// WithStatus 保存后更新状态文字
func WithStatus(st Status) ServiceOption {
	return func(s *Service) { s.status = st }
}

// NewService 创建导出服务
func NewService(source FrameSource, pipeline *Pipeline, saver Saver, log *logrus.Entry, opts ...ServiceOption) *Service {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &Service{source: source, pipeline: pipeline, saver: saver, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build 导出当前页和所有有标注的页，返回新文档字节
func (s *Service) Build(ctx context.Context) ([]byte, error) {
	doc, frames, err := s.source.Frames(ctx)
	if err != nil {
		err = wrap(StageRaster, 0, err)
		s.log.WithError(err).Error("导出失败")
		return nil, err
	}
	out, err := s.pipeline.ExportPages(ctx, doc, frames)
	if err != nil {
		s.log.WithError(err).Error("导出失败")
		return nil, err
	}
	return out, nil
}

// Save 导出并写入输出目录，返回文件路径；失败时不写任何文件
func (s *Service) Save(ctx context.Context) (string, error) {
	path, err := s.save(ctx)
	if err != nil {
		s.report("保存失败", err.Error())
		return "", err
	}
	s.log.WithField("path", path).Info("已保存")

	if s.clip != nil {
		if err := s.clip.SetText(path); err != nil {
			s.log.WithError(err).Warn("复制路径到剪贴板失败")
		}
	}
	s.report("PDF 已保存", path)
	return path, nil
}

func (s *Service) save(ctx context.Context) (string, error) {
	out, err := s.Build(ctx)
	if err != nil {
		return "", err
	}
	path, err := s.saver.SavePDF(out)
	if err != nil {
		err = wrap(StageSave, 0, err)
		s.log.WithError(err).Error("保存失败")
		return "", err
	}
	s.log.WithField("bytes", len(out)).Debug("文档已写入")
	return path, nil
}

// report 更新托盘状态并发出通知
func (s *Service) report(title, message string) {
	if s.status != nil {
		s.status.SetStatus(title)
	}
	if s.notifier != nil {
		if err := s.notifier.Show(title, message); err != nil {
			s.log.WithError(err).Warn("通知失败")
		}
	}
}
