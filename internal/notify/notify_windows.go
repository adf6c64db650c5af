//go:build windows

package notify

import (
	"github.com/go-toast/toast"
	"github.com/sirupsen/logrus"
)

// WindowsNotifier Windows通知实现
type WindowsNotifier struct {
	appID string
	log   *logrus.Entry
}

// NewNotifier 创建通知器
func NewNotifier(log *logrus.Entry) Notifier {
	return &WindowsNotifier{
		appID: AppID,
		log:   log,
	}
}

// Show 显示通知（异步，不阻塞主流程）
func (n *WindowsNotifier) Show(title, message string) error {
	go func() {
		notification := toast.Notification{
			AppID:   n.appID,
			Title:   title,
			Message: message,
		}
		if err := notification.Push(); err != nil {
			n.log.WithError(err).Warn("通知推送失败")
		}
	}()
	return nil
}
