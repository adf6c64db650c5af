// Package notify 保存完成后的桌面通知
package notify

// AppID 通知来源名称
const AppID = "PDFMark"

// Notifier 通知接口
type Notifier interface {
	Show(title, message string) error
}
