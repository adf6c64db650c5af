package session

import (
	"fmt"
	"strings"
)

// Mode 工具模式，同一时刻只有一个处于激活状态
type Mode int

const (
	ModeNone      Mode = iota // 无工具
	ModePen                   // 自由画笔
	ModeText                  // 文本
	ModeHighlight             // 高亮
)

var modeNames = map[Mode]string{
	ModeNone:      "none",
	ModePen:       "pen",
	ModeText:      "text",
	ModeHighlight: "highlight",
}

// 各模式对应的光标样式
var modeCursors = map[Mode]string{
	ModeNone:      "default",
	ModePen:       "crosshair",
	ModeText:      "text",
	ModeHighlight: "pointer",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Cursor 返回模式对应的光标
func (m Mode) Cursor() string {
	if c, ok := modeCursors[m]; ok {
		return c
	}
	return "default"
}

// Valid 是否为已知模式
func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// ParseMode 解析模式名，空字符串视为 none
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ModeNone, nil
	}
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return ModeNone, fmt.Errorf("unknown tool mode %q", s)
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
