package annotate

import (
	"errors"
	"image"
	"image/color"
)

// Kind 标注类型
type Kind int

const (
	KindStroke    Kind = iota // 自由画笔
	KindText                  // 文本
	KindHighlight             // 高亮矩形
)

// KindName 标注类型名称
var KindName = map[Kind]string{
	KindStroke:    "stroke",
	KindText:      "text",
	KindHighlight: "highlight",
}

func (k Kind) String() string {
	if name, ok := KindName[k]; ok {
		return name
	}
	return "unknown"
}

// Region 高亮区域，页面光栅像素坐标，宽高非负
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ErrNegativeRegion 区域宽高为负
var ErrNegativeRegion = errors.New("annotate: region has negative width or height")

// NormalizeRegion 将拖拽的起点和终点转换为规范化区域（任意拖拽方向）
func NormalizeRegion(a, b image.Point) Region {
	x0, x1 := a.X, b.X
	y0, y1 := a.Y, b.Y
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	return Region{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Rect 转换为 image.Rectangle
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Valid 宽高是否非负
func (r Region) Valid() bool {
	return r.Width >= 0 && r.Height >= 0
}

// Annotation 单个标注
type Annotation struct {
	Kind      Kind          // 标注类型
	Points    []image.Point // 画笔路径点；文本只用第一个点（基线起点）
	Region    Region        // 仅 KindHighlight 使用
	Text      string        // 仅 KindText 使用
	Color     color.RGBA    // 颜色（非预乘）
	LineWidth int           // 线宽
	FontSize  int           // 字号（像素）
}

// Style 新建标注使用的绘制参数
type Style struct {
	PenColor       color.RGBA
	PenWidth       int
	TextColor      color.RGBA
	FontSize       int
	HighlightColor color.RGBA
}

// 默认绘制参数：黑色 1px 画笔，16px 蓝色文本，50% 黄色高亮
var (
	DefaultPenColor       = color.RGBA{0, 0, 0, 255}
	DefaultTextColor      = color.RGBA{0, 0, 255, 255}
	DefaultHighlightColor = color.RGBA{255, 255, 0, 128}
)

const (
	DefaultPenWidth = 1
	DefaultFontSize = 16
)

// DefaultStyle 返回默认绘制参数
func DefaultStyle() Style {
	return Style{
		PenColor:       DefaultPenColor,
		PenWidth:       DefaultPenWidth,
		TextColor:      DefaultTextColor,
		FontSize:       DefaultFontSize,
		HighlightColor: DefaultHighlightColor,
	}
}

// Stroke 用当前样式创建画笔标注
func (s Style) Stroke(points []image.Point) Annotation {
	pts := make([]image.Point, len(points))
	copy(pts, points)
	return Annotation{Kind: KindStroke, Points: pts, Color: s.PenColor, LineWidth: s.PenWidth}
}

// TextAt 用当前样式创建文本标注
func (s Style) TextAt(p image.Point, text string) Annotation {
	return Annotation{Kind: KindText, Points: []image.Point{p}, Text: text, Color: s.TextColor, FontSize: s.FontSize}
}

// Highlight 用当前样式创建高亮标注
func (s Style) Highlight(r Region) Annotation {
	return Annotation{Kind: KindHighlight, Region: r, Color: s.HighlightColor}
}
