package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// Document 文档配置
type Document struct {
	Path  string  `json:"path"`  // 要标注的 PDF，不存在时生成示例文档
	Scale float64 `json:"scale"` // 渲染倍率（相对 72 DPI）
}

// Server HTTP 前端配置
type Server struct {
	Addr        string `json:"addr"`        // 监听地址
	OpenBrowser bool   `json:"openBrowser"` // 启动后打开浏览器
}

// Hotkey 快捷键配置
type Hotkey struct {
	Modifiers []string `json:"modifiers"` // ctrl, alt, shift, win(windows)/cmd(mac)
	Key       string   `json:"key"`       // 主键，如 s, a, 1, f1 等
}

// Storage 存储配置
type Storage struct {
	Directory string `json:"directory"` // 保存目录
	Filename  string `json:"filename"`  // 导出文件名
	Format    string `json:"format"`    // 页面快照格式: png, jpg
	Quality   int    `json:"quality"`   // jpg质量 1-100
}

// Annotate 标注样式
type Annotate struct {
	PenWidth int `json:"penWidth"` // 画笔宽度（像素）
	FontSize int `json:"fontSize"` // 文本字号（像素）
}

// Behavior 行为配置
type Behavior struct {
	ShowNotification bool `json:"showNotification"` // 保存后显示通知
	CopyPath         bool `json:"copyPath"`         // 保存后复制路径到剪贴板
}

// Log 日志配置
type Log struct {
	Level string `json:"level"` // debug, info, warn, error
}

// Config 主配置结构
type Config struct {
	Document Document `json:"document"`
	Server   Server   `json:"server"`
	Hotkey   Hotkey   `json:"hotkey"`
	Storage  Storage  `json:"storage"`
	Annotate Annotate `json:"annotate"`
	Behavior Behavior `json:"behavior"`
	Log      Log      `json:"log"`

	path string // 配置文件路径
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Document: Document{
			Path:  filepath.Join(configDir(), "sample.pdf"),
			Scale: 1.5,
		},
		Server: Server{
			Addr:        "127.0.0.1:8765",
			OpenBrowser: true,
		},
		Hotkey: Hotkey{
			Modifiers: []string{"ctrl", "alt"},
			Key:       "s",
		},
		Storage: Storage{
			Directory: filepath.Join("~", "pdfmark"),
			Filename:  "edited-sample.pdf",
			Format:    "png",
			Quality:   90,
		},
		Annotate: Annotate{
			PenWidth: 1,
			FontSize: 16,
		},
		Behavior: Behavior{
			ShowNotification: true,
			CopyPath:         false,
		},
		Log: Log{
			Level: "info",
		},
		path: GetConfigPath(),
	}
}

// configDir 配置目录
func configDir() string {
	var dir string

	if runtime.GOOS == "windows" {
		dir = os.Getenv("APPDATA")
		if dir == "" {
			homeDir, _ := os.UserHomeDir()
			dir = filepath.Join(homeDir, "AppData", "Roaming")
		}
	} else {
		dir = os.Getenv("XDG_CONFIG_HOME")
		if dir == "" {
			homeDir, _ := os.UserHomeDir()
			dir = filepath.Join(homeDir, ".config")
		}
	}

	return filepath.Join(dir, "pdfmark")
}

// GetConfigPath 获取配置文件路径
func GetConfigPath() string {
	return filepath.Join(configDir(), "config.json")
}

// Load 从默认路径加载配置
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom 从指定路径加载配置；文件不存在时写入并返回默认配置
func LoadFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.path = path
		// 保存默认配置
		_ = cfg.Save()
		return cfg, nil
	}

	cfg := DefaultConfig()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	// 在默认值之上解析，缺失的字段保留默认值
	if err := json.Unmarshal(data, cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("解析配置 %s: %w", path, err)
	}

	// 验证并修正配置
	cfg.Validate()

	return cfg, nil
}

// Validate 验证并修正配置值
func (c *Config) Validate() {
	defaults := DefaultConfig()

	if c.Document.Path == "" {
		c.Document.Path = defaults.Document.Path
	}
	if c.Document.Scale <= 0 || c.Document.Scale > 8 {
		c.Document.Scale = defaults.Document.Scale
	}

	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}

	// 验证图片质量 (1-100)
	if c.Storage.Quality < 1 || c.Storage.Quality > 100 {
		c.Storage.Quality = defaults.Storage.Quality
	}

	// 验证图片格式
	format := strings.ToLower(c.Storage.Format)
	if format != "png" && format != "jpg" && format != "jpeg" {
		c.Storage.Format = defaults.Storage.Format
	} else {
		c.Storage.Format = format
	}

	// 防止路径遍历攻击
	if strings.Contains(c.Storage.Directory, "..") || c.Storage.Directory == "" {
		c.Storage.Directory = defaults.Storage.Directory
	}
	if c.Storage.Filename == "" || strings.ContainsAny(c.Storage.Filename, `/\`) || !strings.HasSuffix(strings.ToLower(c.Storage.Filename), ".pdf") {
		c.Storage.Filename = defaults.Storage.Filename
	}

	if c.Annotate.PenWidth < 1 || c.Annotate.PenWidth > 64 {
		c.Annotate.PenWidth = defaults.Annotate.PenWidth
	}
	if c.Annotate.FontSize < 4 || c.Annotate.FontSize > 200 {
		c.Annotate.FontSize = defaults.Annotate.FontSize
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		c.Log.Level = defaults.Log.Level
	}

	// 验证快捷键
	if c.Hotkey.Key == "" {
		c.Hotkey = defaults.Hotkey
	}

	// 验证修饰键
	validMods := map[string]bool{"ctrl": true, "alt": true, "shift": true, "win": true, "cmd": true, "control": true, "option": true, "super": true, "command": true}
	validatedMods := []string{}
	for _, mod := range c.Hotkey.Modifiers {
		if validMods[strings.ToLower(mod)] {
			validatedMods = append(validatedMods, strings.ToLower(mod))
		}
	}
	if len(validatedMods) == 0 {
		c.Hotkey.Modifiers = defaults.Hotkey.Modifiers
	} else {
		c.Hotkey.Modifiers = validatedMods
	}
}

// Path 配置文件路径
func (c *Config) Path() string {
	if c.path == "" {
		return GetConfigPath()
	}
	return c.path
}

// Save 保存配置
func (c *Config) Save() error {
	configPath := c.Path()

	// 确保目录存在
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

// SetHotkey 设置快捷键
func (c *Config) SetHotkey(modifiers []string, key string) error {
	c.Hotkey.Modifiers = modifiers
	c.Hotkey.Key = key
	return c.Save()
}

// ParseHotkey 解析 "ctrl+alt+s" 形式的快捷键
func ParseHotkey(s string) (modifiers []string, key string, err error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 2 {
		return nil, "", fmt.Errorf("快捷键格式错误，示例: ctrl+alt+s")
	}
	key = parts[len(parts)-1]
	if key == "" {
		return nil, "", fmt.Errorf("快捷键缺少主键: %q", s)
	}
	return parts[:len(parts)-1], key, nil
}

// GetHotkeyString 获取快捷键的字符串表示
func (c *Config) GetHotkeyString() string {
	return strings.Join(append(append([]string{}, c.Hotkey.Modifiers...), c.Hotkey.Key), "+")
}

// EnsureStorageDir 确保存储目录存在
func (c *Config) EnsureStorageDir() error {
	// 展开 ~
	dir := c.Storage.Directory
	if dir == "~" || strings.HasPrefix(dir, "~/") || strings.HasPrefix(dir, `~\`) {
		homeDir, _ := os.UserHomeDir()
		dir = filepath.Join(homeDir, dir[1:])
	}
	c.Storage.Directory = dir

	return os.MkdirAll(dir, 0755)
}
