// Package session 维护一次标注会话：文档、页码导航、工具模式和标注画布
package session

import (
	"context"
	"errors"
	"image"
	"sync"

	"github.com/sirupsen/logrus"

	"pdfmark/internal/annotate"
	"pdfmark/internal/pdfdoc"
)

var (
	// ErrNoDocument 尚未加载文档
	ErrNoDocument = errors.New("session: no document loaded")
	// ErrNoFrame 画布尚未渲染
	ErrNoFrame = errors.New("session: surface not rendered yet")
	// ErrNotAwaitingText 当前没有等待输入的文本位置
	ErrNotAwaitingText = errors.New("session: not awaiting text input")
	// ErrClosed 会话已关闭
	ErrClosed = errors.New("session: closed")
)

// State 会话状态快照
type State struct {
	Loaded       bool     `json:"loaded"`
	Page         int      `json:"page"`
	PageCount    int      `json:"pageCount"`
	Mode         Mode     `json:"mode"`
	Cursor       string   `json:"cursor"`
	AwaitingText bool     `json:"awaitingText"`
	CanPrevious  bool     `json:"canPrevious"`
	CanNext      bool     `json:"canNext"`
	Highlights   int      `json:"highlights"`
	Annotations  int      `json:"annotations"`
	Generation   uint64   `json:"generation"`
	Listeners    []string `json:"listeners"`
}

// Option 会话选项
type Option func(*Session)

// WithScale 设置渲染倍率
func WithScale(scale float64) Option {
	return func(s *Session) {
		if scale > 0 {
			s.scale = scale
		}
	}
}

// WithStyle 设置标注样式
func WithStyle(style annotate.Style) Option {
	return func(s *Session) { s.style = style }
}

// WithLogger 设置日志
func WithLogger(log *logrus.Entry) Option {
	return func(s *Session) { s.log = log }
}

// Session 标注会话
//
// 所有状态在 mu 保护下修改；页面渲染在锁外进行，渲染完成时只有
// 代数（generation）仍为最新的结果才会应用到画布上。
type Session struct {
	mu       sync.Mutex
	renderer pdfdoc.Renderer
	scale    float64
	style    annotate.Style
	log      *logrus.Entry

	doc     []byte
	nav     *Navigator
	book    *annotate.Book
	surface *Surface
	gen     uint64
	closed  bool
}

// renderJob 一次渲染请求
type renderJob struct {
	gen  uint64
	doc  []byte
	page int
}

// New 创建会话
func New(r pdfdoc.Renderer, opts ...Option) *Session {
	s := &Session{
		renderer: r,
		scale:    pdfdoc.DefaultScale,
		style:    annotate.DefaultStyle(),
		log:      logrus.NewEntry(logrus.StandardLogger()),
		book:     annotate.NewBook(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.surface = newSurface(s.style)
	s.surface.switchLayer(s.book.Layer(1))
	return s
}

// Load 加载文档并渲染第 1 页；解析失败时会话状态不变
func (s *Session) Load(ctx context.Context, doc []byte) error {
	count, err := s.renderer.PageCount(doc)
	if err != nil {
		return err
	}

	data := make([]byte, len(doc))
	copy(data, doc)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.surface.ctrl.Reenter()
	s.doc = data
	s.nav = NewNavigator(count)
	s.book.Clear()
	s.surface.switchLayer(s.book.Layer(1))
	s.surface.setBase(nil)
	job := s.invalidateLocked()
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"pages": count, "bytes": len(doc)}).Info("文档已加载")
	return s.render(ctx, job)
}

// invalidateLocked 递增渲染代数，之前发起的渲染结果将被丢弃
func (s *Session) invalidateLocked() renderJob {
	s.gen++
	return renderJob{gen: s.gen, doc: s.doc, page: s.nav.Page()}
}

// render 在锁外渲染页面，仅当代数仍为最新时应用
func (s *Session) render(ctx context.Context, job renderJob) error {
	page, err := s.renderer.Render(ctx, job.doc, job.page, s.scale)

	s.mu.Lock()
	defer s.mu.Unlock()

	if job.gen != s.gen {
		s.log.WithFields(logrus.Fields{"generation": job.gen, "current": s.gen, "page": job.page}).Debug("丢弃过期的渲染结果")
		return nil
	}
	if err != nil {
		return err
	}
	s.surface.setBase(page.Image)
	return nil
}

// Refresh 重新渲染当前页
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if err := s.usableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	job := s.invalidateLocked()
	s.mu.Unlock()
	return s.render(ctx, job)
}

// usableLocked 会话已关闭或尚未加载文档时返回错误
func (s *Session) usableLocked() error {
	if s.closed {
		return ErrClosed
	}
	if s.doc == nil {
		return ErrNoDocument
	}
	return nil
}

// Next 下一页，末页时为空操作
func (s *Session) Next(ctx context.Context) error {
	return s.navigate(ctx, (*Navigator).Next)
}

// Previous 上一页，首页时为空操作
func (s *Session) Previous(ctx context.Context) error {
	return s.navigate(ctx, (*Navigator).Previous)
}

// Goto 跳转到指定页（超出范围时取边界值）
func (s *Session) Goto(ctx context.Context, page int) error {
	return s.navigate(ctx, func(n *Navigator) bool { return n.Goto(page) })
}

func (s *Session) navigate(ctx context.Context, move func(*Navigator) bool) error {
	s.mu.Lock()
	if err := s.usableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	// 先结束当前页上的手势，再切换页码
	s.surface.ctrl.Reenter()
	if !move(s.nav) {
		s.mu.Unlock()
		return nil
	}
	// 新页渲染完成前不接受输入
	s.surface.switchLayer(s.book.Layer(s.nav.Page()))
	s.surface.setBase(nil)
	job := s.invalidateLocked()
	s.mu.Unlock()

	s.log.WithField("page", job.page).Debug("切换页面")
	return s.render(ctx, job)
}

// SetMode 切换工具模式
func (s *Session) SetMode(m Mode) error {
	if !m.Valid() {
		return errors.New("session: invalid mode")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.surface.ctrl.Set(m)
	s.log.WithField("mode", m).Debug("切换工具")
	return nil
}

// Mode 当前工具模式
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surface.ctrl.Mode()
}

// Dispatch 把指针事件交给当前模式的监听器；提交高亮后重新渲染
func (s *Session) Dispatch(ctx context.Context, ev Event, p image.Point) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.surface.frame == nil {
		s.mu.Unlock()
		return ErrNoFrame
	}
	s.surface.ctrl.Dispatch(ev, p)
	if !s.surface.takeDirty() {
		s.mu.Unlock()
		return nil
	}
	job := s.invalidateLocked()
	s.mu.Unlock()

	return s.render(ctx, job)
}

// PointerDown 按下
func (s *Session) PointerDown(ctx context.Context, p image.Point) error {
	return s.Dispatch(ctx, PointerDown, p)
}

// PointerMove 移动
func (s *Session) PointerMove(ctx context.Context, p image.Point) error {
	return s.Dispatch(ctx, PointerMove, p)
}

// PointerUp 释放
func (s *Session) PointerUp(ctx context.Context, p image.Point) error {
	return s.Dispatch(ctx, PointerUp, p)
}

// Click 单击
func (s *Session) Click(ctx context.Context, p image.Point) error {
	return s.Dispatch(ctx, Click, p)
}

// SubmitText 提交等待中的文本；空字符串不绘制
func (s *Session) SubmitText(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.surface.submitText(text) {
		return ErrNotAwaitingText
	}
	return nil
}

// CancelText 取消等待中的文本输入
func (s *Session) CancelText() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.surface.cancelText() {
		return ErrNotAwaitingText
	}
	return nil
}

// Frame 返回当前画面的副本
func (s *Session) Frame() (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img := s.surface.snapshot()
	if img == nil {
		return nil, ErrNoFrame
	}
	return img, nil
}

// Highlights 当前页的高亮区域（按创建顺序）
func (s *Session) Highlights() []annotate.Region {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surface.layer.Regions()
}

// State 返回状态快照
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	mode := s.surface.ctrl.Mode()
	st := State{
		Loaded:       s.doc != nil,
		Mode:         mode,
		Cursor:       mode.Cursor(),
		AwaitingText: s.surface.awaitingText(),
		Highlights:   len(s.surface.layer.Regions()),
		Annotations:  s.surface.layer.Len(),
		Generation:   s.gen,
		Listeners:    []string{},
	}
	if s.nav != nil {
		st.Page = s.nav.Page()
		st.PageCount = s.nav.Count()
		st.CanPrevious = s.nav.CanPrevious()
		st.CanNext = s.nav.CanNext()
	}
	for _, ev := range s.surface.ctrl.Listeners() {
		st.Listeners = append(st.Listeners, ev.String())
	}
	return st
}

// Listeners 当前注册的指针监听器
func (s *Session) Listeners() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surface.ctrl.Listeners()
}

// Frames 返回导出所需的原始文档和各页画面：
// 当前页使用画布现状，其他有标注的页根据标注实体重新生成
func (s *Session) Frames(ctx context.Context) ([]byte, map[int]image.Image, error) {
	s.mu.Lock()
	if s.doc == nil {
		s.mu.Unlock()
		return nil, nil, ErrNoDocument
	}
	current := s.nav.Page()
	frame := s.surface.snapshot()
	doc := s.doc
	others := make(map[int][]annotate.Annotation)
	for _, p := range s.book.Pages() {
		if p != current {
			others[p] = s.book.Layer(p).Annotations()
		}
	}
	s.mu.Unlock()

	if frame == nil {
		return nil, nil, ErrNoFrame
	}

	frames := map[int]image.Image{current: frame}
	for p, anns := range others {
		page, err := s.renderer.Render(ctx, doc, p, s.scale)
		if err != nil {
			return nil, nil, err
		}
		frames[p] = annotate.RenderAnnotations(page.Image, anns)
	}
	return doc, frames, nil
}

// Close 移除全部监听器并结束会话
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.surface.ctrl.Close()
	s.closed = true
}
