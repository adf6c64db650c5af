// Package tray 系统托盘菜单
package tray

import (
	"sync/atomic"

	"github.com/getlantern/systray"
)

// Tray 系统托盘
type Tray struct {
	onOpenEditor func()
	onSave       func()
	onOpenDir    func()
	onQuit       func()
	hotkeyText   string
	saveItem     *systray.MenuItem
	ready        atomic.Bool
}

// NewTray 创建系统托盘
func NewTray() *Tray {
	return &Tray{
		hotkeyText: "Ctrl+Alt+S",
	}
}

// SetHotkeyText 设置快捷键显示文本
func (t *Tray) SetHotkeyText(text string) {
	t.hotkeyText = text
}

// SetOnOpenEditor 设置打开编辑页面回调
func (t *Tray) SetOnOpenEditor(fn func()) {
	t.onOpenEditor = fn
}

// SetOnSave 设置保存回调
func (t *Tray) SetOnSave(fn func()) {
	t.onSave = fn
}

// SetOnOpenDir 设置打开输出目录回调
func (t *Tray) SetOnOpenDir(fn func()) {
	t.onOpenDir = fn
}

// SetOnQuit 设置退出回调
func (t *Tray) SetOnQuit(fn func()) {
	t.onQuit = fn
}

// SetStatus 更新托盘提示文字；托盘就绪前的调用被忽略
func (t *Tray) SetStatus(text string) {
	if !t.ready.Load() {
		return
	}
	systray.SetTooltip(tooltip(text))
}

func tooltip(status string) string {
	if status == "" {
		return "PDFMark - PDF 标注工具"
	}
	return "PDFMark - " + status
}

// Run 运行系统托盘（阻塞，需在主线程调用）
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit 退出托盘
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetIcon(getIcon())
	systray.SetTitle("PDFMark")
	systray.SetTooltip(tooltip(""))

	mOpen := systray.AddMenuItem("打开编辑页面", "在浏览器中打开标注页面")
	t.saveItem = systray.AddMenuItem("保存 PDF ("+t.hotkeyText+")", "导出标注后的 PDF")
	systray.AddSeparator()

	// 打开输出目录
	mOpenDir := systray.AddMenuItem("打开输出目录", "打开 PDF 保存位置")

	systray.AddSeparator()

	// 退出
	mQuit := systray.AddMenuItem("退出", "退出程序")
	t.ready.Store(true)

	go func() {
		for {
			select {
			case <-mOpen.ClickedCh:
				if t.onOpenEditor != nil {
					t.onOpenEditor()
				}
			case <-t.saveItem.ClickedCh:
				if t.onSave != nil {
					t.onSave()
				}
			case <-mOpenDir.ClickedCh:
				if t.onOpenDir != nil {
					t.onOpenDir()
				}
			case <-mQuit.ClickedCh:
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {
	t.ready.Store(false)
}
