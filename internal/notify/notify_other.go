//go:build !windows

package notify

import "github.com/sirupsen/logrus"

// LogNotifier 没有系统通知时写日志
type LogNotifier struct {
	log *logrus.Entry
}

// NewNotifier 创建通知器
func NewNotifier(log *logrus.Entry) Notifier {
	return &LogNotifier{log: log}
}

// Show 以 info 级别记录通知
func (n *LogNotifier) Show(title, message string) error {
	n.log.WithField("app", AppID).Info(title + ": " + message)
	return nil
}
