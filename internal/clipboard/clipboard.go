// Package clipboard 系统剪贴板
package clipboard

import "github.com/atotto/clipboard"

// Clipboard 剪贴板接口
type Clipboard interface {
	SetText(text string) error
}

// System 系统剪贴板（Linux 需要 xclip、xsel 或 wl-clipboard）
type System struct{}

// New 创建系统剪贴板
func New() Clipboard {
	return System{}
}

// Available 当前环境是否可以访问剪贴板
func Available() bool {
	return !clipboard.Unsupported
}

// SetText 写入文本
func (System) SetText(text string) error {
	return clipboard.WriteAll(text)
}
