// Package hotkey 注册全局"保存"快捷键
package hotkey

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.design/x/hotkey"
	"golang.design/x/hotkey/mainthread"
)

// Binding 解析后的快捷键
type Binding struct {
	Mods []hotkey.Modifier
	Key  hotkey.Key
	Name string
}

// Manager 热键管理器
type Manager struct {
	hk       *hotkey.Hotkey
	callback func()
	log      *logrus.Entry
}

// NewManager 创建热键管理器
func NewManager(log *logrus.Entry) *Manager {
	return &Manager{log: log}
}

// parseModifiers 解析修饰键（各平台映射见 mods_*.go）
func parseModifiers(mods []string) ([]hotkey.Modifier, error) {
	var result []hotkey.Modifier
	for _, mod := range mods {
		m, ok := modifierNames[strings.ToLower(mod)]
		if !ok {
			return nil, fmt.Errorf("不支持的修饰键: %s", mod)
		}
		result = append(result, m)
	}
	return result, nil
}

var letterKeys = [...]hotkey.Key{
	hotkey.KeyA, hotkey.KeyB, hotkey.KeyC, hotkey.KeyD, hotkey.KeyE, hotkey.KeyF, hotkey.KeyG,
	hotkey.KeyH, hotkey.KeyI, hotkey.KeyJ, hotkey.KeyK, hotkey.KeyL, hotkey.KeyM, hotkey.KeyN,
	hotkey.KeyO, hotkey.KeyP, hotkey.KeyQ, hotkey.KeyR, hotkey.KeyS, hotkey.KeyT, hotkey.KeyU,
	hotkey.KeyV, hotkey.KeyW, hotkey.KeyX, hotkey.KeyY, hotkey.KeyZ,
}

var digitKeys = [...]hotkey.Key{
	hotkey.Key0, hotkey.Key1, hotkey.Key2, hotkey.Key3, hotkey.Key4,
	hotkey.Key5, hotkey.Key6, hotkey.Key7, hotkey.Key8, hotkey.Key9,
}

var namedKeys = map[string]hotkey.Key{
	"F1": hotkey.KeyF1, "F2": hotkey.KeyF2, "F3": hotkey.KeyF3, "F4": hotkey.KeyF4,
	"F5": hotkey.KeyF5, "F6": hotkey.KeyF6, "F7": hotkey.KeyF7, "F8": hotkey.KeyF8,
	"F9": hotkey.KeyF9, "F10": hotkey.KeyF10, "F11": hotkey.KeyF11, "F12": hotkey.KeyF12,
	"SPACE":  hotkey.KeySpace,
	"RETURN": hotkey.KeyReturn,
	"ENTER":  hotkey.KeyReturn,
	"ESCAPE": hotkey.KeyEscape,
	"ESC":    hotkey.KeyEscape,
	"TAB":    hotkey.KeyTab,
	"DELETE": hotkey.KeyDelete,
	"DEL":    hotkey.KeyDelete,
	"UP":     hotkey.KeyUp,
	"DOWN":   hotkey.KeyDown,
	"LEFT":   hotkey.KeyLeft,
	"RIGHT":  hotkey.KeyRight,
}

// parseKey 解析主键
func parseKey(key string) (hotkey.Key, error) {
	key = strings.ToUpper(strings.TrimSpace(key))

	// 字母键
	if len(key) == 1 && key[0] >= 'A' && key[0] <= 'Z' {
		return letterKeys[key[0]-'A'], nil
	}

	// 数字键
	if len(key) == 1 && key[0] >= '0' && key[0] <= '9' {
		return digitKeys[key[0]-'0'], nil
	}

	// 功能键
	if k, ok := namedKeys[key]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("不支持的按键: %s", key)
}

// Parse 解析修饰键和主键
func Parse(modifiers []string, key string) (Binding, error) {
	mods, err := parseModifiers(modifiers)
	if err != nil {
		return Binding{}, err
	}
	if len(mods) == 0 {
		return Binding{}, fmt.Errorf("至少需要一个修饰键")
	}
	k, err := parseKey(key)
	if err != nil {
		return Binding{}, err
	}
	name := strings.ToLower(strings.Join(append(append([]string{}, modifiers...), key), "+"))
	return Binding{Mods: mods, Key: k, Name: name}, nil
}

// Register 注册热键
func (m *Manager) Register(b Binding, callback func()) error {
	m.log.WithFields(logrus.Fields{"hotkey": b.Name, "keyCode": fmt.Sprintf("0x%X", b.Key)}).Info("注册热键")

	m.hk = hotkey.New(b.Mods, b.Key)
	m.callback = callback

	if err := m.hk.Register(); err != nil {
		return fmt.Errorf("无法注册热键 %s: %w", b.Name, err)
	}

	return nil
}

// Unregister 注销热键
func (m *Manager) Unregister() error {
	if m.hk != nil {
		return m.hk.Unregister()
	}
	return nil
}

// Listen 开始监听热键（阻塞）
func (m *Manager) Listen() {
	for range m.hk.Keydown() {
		if m.callback != nil {
			m.callback()
		}
	}
}

// ListenAsync 异步监听热键
func (m *Manager) ListenAsync() {
	go m.Listen()
}

// Run 在主线程中运行（某些平台需要）
func Run(fn func()) {
	mainthread.Init(fn)
}

// GetSupportedModifiers 获取支持的修饰键列表
func GetSupportedModifiers() []string {
	return supportedModifiers
}

// GetSupportedKeys 获取支持的主键列表
func GetSupportedKeys() []string {
	keys := []string{}

	// 字母
	for c := 'a'; c <= 'z'; c++ {
		keys = append(keys, string(c))
	}

	// 数字
	for c := '0'; c <= '9'; c++ {
		keys = append(keys, string(c))
	}

	// 功能键
	for i := 1; i <= 12; i++ {
		keys = append(keys, fmt.Sprintf("f%d", i))
	}

	return keys
}
