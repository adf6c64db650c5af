package session

import (
	"image"
	"image/draw"

	"pdfmark/internal/annotate"
)

// Surface 标注画布：当前页的渲染底图加上已提交标注和进行中的手势
type Surface struct {
	ctrl  *Controller
	style annotate.Style
	layer *annotate.Layer

	base  *image.RGBA // 页面渲染结果，不含标注
	frame *image.RGBA // 当前显示内容

	// 画笔状态
	stroke []image.Point

	// 高亮拖拽状态
	anchor  image.Point
	preview *annotate.Region
	gesture []func() // 拖拽期间的临时监听器

	// 文本输入状态
	pendingText *image.Point

	// 高亮列表发生变化，需要重新渲染
	dirty bool
}

func newSurface(style annotate.Style) *Surface {
	s := &Surface{style: style, layer: annotate.NewLayer()}
	s.ctrl = newController(s.enter, s.leave)
	return s
}

// enter 注册模式对应的常驻监听器
func (s *Surface) enter(m Mode) {
	switch m {
	case ModePen:
		s.ctrl.Attach(PointerDown, s.penDown)
		s.ctrl.Attach(PointerMove, s.penMove)
		s.ctrl.Attach(PointerUp, s.penUp)
	case ModeText:
		s.ctrl.Attach(Click, s.textClick)
	case ModeHighlight:
		s.ctrl.Attach(PointerDown, s.highlightDown)
	}
}

// leave 结束进行中的手势
func (s *Surface) leave(m Mode) {
	switch m {
	case ModePen:
		s.endStroke()
	case ModeText:
		s.pendingText = nil
	case ModeHighlight:
		s.endGesture()
		if s.preview != nil {
			s.preview = nil
			s.recompose()
		}
	}
}

// switchLayer 切换到另一页的标注层
func (s *Surface) switchLayer(l *annotate.Layer) {
	s.layer = l
}

// setBase 替换底图并重放标注
func (s *Surface) setBase(img *image.RGBA) {
	s.base = img
	s.recompose()
}

// recompose 底图 + 已提交标注（按列表顺序）+ 进行中的手势
func (s *Surface) recompose() {
	if s.base == nil {
		s.frame = nil
		return
	}
	s.frame = annotate.RenderAnnotations(s.base, s.layer.Annotations())
	if len(s.stroke) > 1 {
		live := s.style.Stroke(s.stroke)
		annotate.RenderSingleAnnotation(s.frame, &live)
	}
	if s.preview != nil {
		annotate.FillRegion(s.frame, *s.preview, s.style.HighlightColor)
	}
}

// snapshot 返回当前画面的副本
func (s *Surface) snapshot() *image.RGBA {
	if s.frame == nil {
		return nil
	}
	b := s.frame.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, s.frame, b.Min, draw.Src)
	return out
}

// ---------- 画笔 ----------

func (s *Surface) penDown(p image.Point) {
	s.endStroke()
	s.stroke = []image.Point{p}
}

func (s *Surface) penMove(p image.Point) {
	if s.stroke == nil || s.frame == nil {
		return
	}
	last := s.stroke[len(s.stroke)-1]
	s.stroke = append(s.stroke, p)
	annotate.StrokeSegment(s.frame, last, p, s.style.PenColor, s.style.PenWidth)
}

func (s *Surface) penUp(image.Point) {
	s.endStroke()
}

// endStroke 结束路径，至少两个点时保存为画笔标注
func (s *Surface) endStroke() {
	if len(s.stroke) > 1 {
		s.layer.Add(s.style.Stroke(s.stroke))
	}
	s.stroke = nil
}

// ---------- 文本 ----------

func (s *Surface) textClick(p image.Point) {
	s.pendingText = &p
}

func (s *Surface) awaitingText() bool {
	return s.pendingText != nil
}

// submitText 在等待位置绘制文本，空字符串只结束等待
func (s *Surface) submitText(text string) bool {
	if s.pendingText == nil {
		return false
	}
	p := *s.pendingText
	s.pendingText = nil
	if text == "" {
		return true
	}
	a := s.style.TextAt(p, text)
	s.layer.Add(a)
	if s.frame != nil {
		annotate.RenderSingleAnnotation(s.frame, &a)
	}
	return true
}

func (s *Surface) cancelText() bool {
	if s.pendingText == nil {
		return false
	}
	s.pendingText = nil
	return true
}

// ---------- 高亮 ----------

func (s *Surface) highlightDown(p image.Point) {
	// 上一次拖拽未收到 pointerup 时先释放其监听器
	s.endGesture()
	s.anchor = p
	s.gesture = append(s.gesture,
		s.ctrl.Attach(PointerMove, s.highlightMove),
		s.ctrl.Attach(PointerUp, s.highlightUp),
	)
}

func (s *Surface) highlightMove(p image.Point) {
	r := annotate.NormalizeRegion(s.anchor, p)
	s.preview = &r
	s.recompose()
}

func (s *Surface) highlightUp(p image.Point) {
	s.endGesture()
	s.preview = nil

	r := annotate.NormalizeRegion(s.anchor, p)
	if err := s.layer.Add(s.style.Highlight(r)); err == nil {
		s.dirty = true
	}
	s.recompose()
}

func (s *Surface) endGesture() {
	for _, remove := range s.gesture {
		remove()
	}
	s.gesture = nil
}

// takeDirty 读取并清除重新渲染标记
func (s *Surface) takeDirty() bool {
	d := s.dirty
	s.dirty = false
	return d
}
