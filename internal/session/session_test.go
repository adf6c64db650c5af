package session

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"pdfmark/internal/annotate"
	"pdfmark/internal/pdfdoc"
)

const (
	fakeWidth  = 200
	fakeHeight = 260
)

// fakeRenderer 每页渲染为不同灰度的纯色图，可对指定页阻塞或返回错误
type fakeRenderer struct {
	pages int

	mu      sync.Mutex
	gates   map[int]chan struct{}
	fails   map[int]error
	entered chan int
	calls   int
}

func newFakeRenderer(pages int) *fakeRenderer {
	return &fakeRenderer{
		pages:   pages,
		gates:   map[int]chan struct{}{},
		fails:   map[int]error{},
		entered: make(chan int, 8),
	}
}

func (f *fakeRenderer) fail(page int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fails[page] = err
}

func pageGray(page int) uint8 { return uint8(250 - 20*page) }

func (f *fakeRenderer) block(page int) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	f.gates[page] = gate
	return gate
}

func (f *fakeRenderer) PageCount(doc []byte) (int, error) {
	if !bytes.HasPrefix(doc, []byte("%PDF")) {
		return 0, &pdfdoc.DocumentLoadError{Err: errors.New("not a pdf")}
	}
	return f.pages, nil
}

func (f *fakeRenderer) Render(ctx context.Context, doc []byte, page int, scale float64) (*pdfdoc.Page, error) {
	if err := pdfdoc.CheckPage(page, f.pages); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.calls++
	gate := f.gates[page]
	failure := f.fails[page]
	f.mu.Unlock()

	if gate != nil {
		f.entered <- page
		<-gate
	}
	if failure != nil {
		return nil, failure
	}

	img := image.NewRGBA(image.Rect(0, 0, fakeWidth, fakeHeight))
	g := pageGray(page)
	draw.Draw(img, img.Bounds(), &image.Uniform{color.RGBA{g, g, g, 255}}, image.Point{}, draw.Src)
	return &pdfdoc.Page{Image: img, Width: 612, Height: 792}, nil
}

var fakeDoc = []byte("%PDF-1.4 fake")

func newLoaded(t *testing.T, pages int) (*Session, *fakeRenderer) {
	t.Helper()
	f := newFakeRenderer(pages)
	logger, _ := test.NewNullLogger()
	s := New(f, WithLogger(logrus.NewEntry(logger)))
	if err := s.Load(context.Background(), fakeDoc); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return s, f
}

func frame(t *testing.T, s *Session) *image.RGBA {
	t.Helper()
	img, err := s.Frame()
	if err != nil {
		t.Fatalf("Frame() error = %v", err)
	}
	return img
}

func drag(t *testing.T, s *Session, pts ...image.Point) {
	t.Helper()
	ctx := context.Background()
	if err := s.PointerDown(ctx, pts[0]); err != nil {
		t.Fatalf("PointerDown() error = %v", err)
	}
	for _, p := range pts[1 : len(pts)-1] {
		if err := s.PointerMove(ctx, p); err != nil {
			t.Fatalf("PointerMove() error = %v", err)
		}
	}
	if err := s.PointerUp(ctx, pts[len(pts)-1]); err != nil {
		t.Fatalf("PointerUp() error = %v", err)
	}
}

func TestLoadRendersFirstPage(t *testing.T) {
	s, _ := newLoaded(t, 3)

	st := s.State()
	want := State{
		Loaded:      true,
		Page:        1,
		PageCount:   3,
		Mode:        ModeNone,
		Cursor:      "default",
		CanPrevious: false,
		CanNext:     true,
		Generation:  1,
		Listeners:   []string{},
	}
	if diff := cmp.Diff(want, st); diff != "" {
		t.Errorf("State() mismatch (-want +got):\n%s", diff)
	}
	if got := frame(t, s).RGBAAt(5, 5).R; got != pageGray(1) {
		t.Errorf("frame shows gray %d, want page 1 (%d)", got, pageGray(1))
	}
}

func TestLoadFailureKeepsState(t *testing.T) {
	s, _ := newLoaded(t, 3)
	if err := s.Next(context.Background()); err != nil {
		t.Fatal(err)
	}

	err := s.Load(context.Background(), []byte("garbage"))
	if !errors.Is(err, pdfdoc.ErrDocumentLoad) {
		t.Fatalf("Load(garbage) error = %v, want ErrDocumentLoad", err)
	}
	if st := s.State(); st.Page != 2 || st.PageCount != 3 {
		t.Errorf("state changed after failed load: page %d of %d", st.Page, st.PageCount)
	}
}

func TestEventsBeforeFirstRender(t *testing.T) {
	s := New(newFakeRenderer(1))
	if err := s.PointerDown(context.Background(), image.Pt(1, 1)); !errors.Is(err, ErrNoFrame) {
		t.Errorf("PointerDown() before load error = %v, want ErrNoFrame", err)
	}
	if _, err := s.Frame(); !errors.Is(err, ErrNoFrame) {
		t.Errorf("Frame() before load error = %v, want ErrNoFrame", err)
	}
	if err := s.Next(context.Background()); !errors.Is(err, ErrNoDocument) {
		t.Errorf("Next() before load error = %v, want ErrNoDocument", err)
	}
}

func TestNavigationBounds(t *testing.T) {
	s, _ := newLoaded(t, 3)
	ctx := context.Background()

	if err := s.Previous(ctx); err != nil {
		t.Fatal(err)
	}
	if st := s.State(); st.Page != 1 || st.Generation != 1 {
		t.Errorf("Previous on page 1: page %d gen %d, want page 1 gen 1", st.Page, st.Generation)
	}

	for i := 0; i < 5; i++ {
		if err := s.Next(ctx); err != nil {
			t.Fatal(err)
		}
	}
	st := s.State()
	if st.Page != 3 || st.CanNext || !st.CanPrevious {
		t.Errorf("after 5x Next: %+v", st)
	}
	if got := frame(t, s).RGBAAt(0, 0).R; got != pageGray(3) {
		t.Errorf("frame gray %d, want page 3 (%d)", got, pageGray(3))
	}

	if err := s.Goto(ctx, 2); err != nil {
		t.Fatal(err)
	}
	if st := s.State(); st.Page != 2 {
		t.Errorf("Goto(2) page = %d", st.Page)
	}
}

func TestModeListeners(t *testing.T) {
	s, _ := newLoaded(t, 1)

	tests := []struct {
		mode   Mode
		want   []Event
		cursor string
	}{
		{ModePen, []Event{PointerDown, PointerMove, PointerUp}, "crosshair"},
		{ModeText, []Event{Click}, "text"},
		{ModeHighlight, []Event{PointerDown}, "pointer"},
		{ModeHighlight, []Event{PointerDown}, "pointer"},
		{ModeNone, []Event{}, "default"},
	}
	for _, tt := range tests {
		if err := s.SetMode(tt.mode); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(tt.want, s.Listeners(), cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("%v listeners mismatch (-want +got):\n%s", tt.mode, diff)
		}
		if got := s.State().Cursor; got != tt.cursor {
			t.Errorf("%v cursor = %q, want %q", tt.mode, got, tt.cursor)
		}
	}
}

func TestHighlightDrag(t *testing.T) {
	s, _ := newLoaded(t, 1)
	ctx := context.Background()
	if err := s.SetMode(ModeHighlight); err != nil {
		t.Fatal(err)
	}

	if err := s.PointerDown(ctx, image.Pt(150, 120)); err != nil {
		t.Fatal(err)
	}
	if n := len(s.Listeners()); n != 3 {
		t.Errorf("listeners during drag = %d, want 3", n)
	}
	if err := s.PointerMove(ctx, image.Pt(100, 100)); err != nil {
		t.Fatal(err)
	}
	if err := s.PointerUp(ctx, image.Pt(50, 50)); err != nil {
		t.Fatal(err)
	}
	if n := len(s.Listeners()); n != 1 {
		t.Errorf("listeners after drag = %d, want 1", n)
	}

	want := []annotate.Region{{X: 50, Y: 50, Width: 100, Height: 70}}
	if diff := cmp.Diff(want, s.Highlights()); diff != "" {
		t.Errorf("Highlights() mismatch (-want +got):\n%s", diff)
	}

	img := frame(t, s)
	in := img.RGBAAt(100, 80)
	if int(in.B)+50 > int(in.R) {
		t.Errorf("pixel inside highlight = %v, want yellow tint", in)
	}
	if out := img.RGBAAt(10, 10); out.R != pageGray(1) || out.B != pageGray(1) {
		t.Errorf("pixel outside highlight = %v, want untouched page", out)
	}
	if st := s.State(); st.Generation != 2 {
		t.Errorf("generation after commit = %d, want 2", st.Generation)
	}
}

func TestHighlightPointerMoveWithoutDown(t *testing.T) {
	s, _ := newLoaded(t, 1)
	if err := s.SetMode(ModeHighlight); err != nil {
		t.Fatal(err)
	}
	before := frame(t, s)
	if err := s.PointerMove(context.Background(), image.Pt(30, 30)); err != nil {
		t.Fatal(err)
	}
	if err := s.PointerUp(context.Background(), image.Pt(30, 30)); err != nil {
		t.Fatal(err)
	}
	if len(s.Highlights()) != 0 {
		t.Error("move/up without down committed a highlight")
	}
	if !bytes.Equal(before.Pix, frame(t, s).Pix) {
		t.Error("frame changed without a gesture")
	}
}

func TestModeSwitchMidDragDropsGesture(t *testing.T) {
	s, _ := newLoaded(t, 1)
	ctx := context.Background()
	if err := s.SetMode(ModeHighlight); err != nil {
		t.Fatal(err)
	}
	if err := s.PointerDown(ctx, image.Pt(10, 10)); err != nil {
		t.Fatal(err)
	}
	if err := s.PointerMove(ctx, image.Pt(60, 60)); err != nil {
		t.Fatal(err)
	}

	if err := s.SetMode(ModePen); err != nil {
		t.Fatal(err)
	}
	if n := len(s.Listeners()); n != 3 {
		t.Errorf("listeners after switching to pen = %d, want 3", n)
	}
	if err := s.PointerUp(ctx, image.Pt(60, 60)); err != nil {
		t.Fatal(err)
	}
	if len(s.Highlights()) != 0 {
		t.Error("abandoned drag was committed")
	}
	if got := frame(t, s).RGBAAt(30, 30); got.R != pageGray(1) || got.B != pageGray(1) {
		t.Errorf("preview left on frame: %v", got)
	}
}

func TestPenStroke(t *testing.T) {
	s, _ := newLoaded(t, 1)
	if err := s.SetMode(ModePen); err != nil {
		t.Fatal(err)
	}

	drag(t, s, image.Pt(10, 10), image.Pt(50, 10), image.Pt(50, 10))
	if n := len(s.Listeners()); n != 3 {
		t.Errorf("pen listeners = %d, want 3", n)
	}
	if got := s.State().Annotations; got != 1 {
		t.Errorf("annotations = %d, want 1", got)
	}
	if got := frame(t, s).RGBAAt(30, 10); got.R != 0 {
		t.Errorf("pixel on stroke = %v, want black", got)
	}

	// 重新渲染后画笔路径仍在
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := frame(t, s).RGBAAt(30, 10); got.R != 0 {
		t.Errorf("stroke lost after refresh: %v", got)
	}
}

func TestTextInput(t *testing.T) {
	s, _ := newLoaded(t, 1)
	ctx := context.Background()
	if err := s.SetMode(ModeText); err != nil {
		t.Fatal(err)
	}
	if err := s.SubmitText("early"); !errors.Is(err, ErrNotAwaitingText) {
		t.Errorf("SubmitText() without click error = %v", err)
	}

	before := frame(t, s)
	if err := s.Click(ctx, image.Pt(20, 40)); err != nil {
		t.Fatal(err)
	}
	if !s.State().AwaitingText {
		t.Fatal("click did not start awaiting text")
	}
	if err := s.SubmitText(""); err != nil {
		t.Fatal(err)
	}
	if s.State().AwaitingText || s.State().Annotations != 0 {
		t.Error("empty text should end waiting without adding an annotation")
	}
	if !bytes.Equal(before.Pix, frame(t, s).Pix) {
		t.Error("empty text changed the frame")
	}

	if err := s.Click(ctx, image.Pt(20, 40)); err != nil {
		t.Fatal(err)
	}
	if err := s.SubmitText("Note"); err != nil {
		t.Fatal(err)
	}
	if got := s.State().Annotations; got != 1 {
		t.Errorf("annotations = %d, want 1", got)
	}
	if bytes.Equal(before.Pix, frame(t, s).Pix) {
		t.Error("text was not drawn")
	}

	if err := s.Click(ctx, image.Pt(5, 5)); err != nil {
		t.Fatal(err)
	}
	if err := s.SetMode(ModePen); err != nil {
		t.Fatal(err)
	}
	if s.State().AwaitingText {
		t.Error("mode change should cancel pending text")
	}
}

func TestRefreshIsIdempotent(t *testing.T) {
	s, _ := newLoaded(t, 1)
	if err := s.SetMode(ModeHighlight); err != nil {
		t.Fatal(err)
	}
	drag(t, s, image.Pt(10, 10), image.Pt(80, 40))
	drag(t, s, image.Pt(40, 20), image.Pt(120, 90))

	ctx := context.Background()
	if err := s.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	a := frame(t, s)
	if err := s.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	b := frame(t, s)
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Error("two refreshes without changes differ")
	}
}

func TestAnnotationsArePerPage(t *testing.T) {
	s, _ := newLoaded(t, 3)
	ctx := context.Background()
	if err := s.SetMode(ModeHighlight); err != nil {
		t.Fatal(err)
	}
	drag(t, s, image.Pt(10, 10), image.Pt(40, 40))

	if err := s.Next(ctx); err != nil {
		t.Fatal(err)
	}
	if got := len(s.Highlights()); got != 0 {
		t.Errorf("page 2 highlights = %d, want 0", got)
	}
	if got := s.Mode(); got != ModeHighlight {
		t.Errorf("mode after page change = %v, want highlight", got)
	}

	if err := s.Previous(ctx); err != nil {
		t.Fatal(err)
	}
	if got := len(s.Highlights()); got != 1 {
		t.Errorf("page 1 highlights = %d, want 1", got)
	}
}

func TestFrames(t *testing.T) {
	s, _ := newLoaded(t, 3)
	ctx := context.Background()
	if err := s.SetMode(ModeHighlight); err != nil {
		t.Fatal(err)
	}
	drag(t, s, image.Pt(10, 10), image.Pt(40, 40))
	if err := s.Goto(ctx, 3); err != nil {
		t.Fatal(err)
	}

	doc, frames, err := s.Frames(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(doc, fakeDoc) {
		t.Error("Frames() returned a different document")
	}
	if len(frames) != 2 {
		t.Fatalf("frames for %d pages, want 2 (annotated page 1 and current page 3)", len(frames))
	}
	p1 := frames[1].(*image.RGBA)
	if c := p1.RGBAAt(20, 20); int(c.B)+50 > int(c.R) {
		t.Errorf("page 1 frame lost its highlight: %v", c)
	}
	if c := frames[3].(*image.RGBA).RGBAAt(20, 20); c.R != pageGray(3) {
		t.Errorf("page 3 frame = %v, want plain page", c)
	}
}

func TestStaleRenderDiscarded(t *testing.T) {
	s, f := newLoaded(t, 3)
	ctx := context.Background()

	gate := f.block(2)
	errc := make(chan error, 1)
	go func() { errc <- s.Next(ctx) }()
	<-f.entered

	// 第 2 页仍在渲染时翻到第 3 页
	if err := s.Next(ctx); err != nil {
		t.Fatal(err)
	}
	if got := frame(t, s).RGBAAt(0, 0).R; got != pageGray(3) {
		t.Fatalf("frame gray %d, want page 3", got)
	}

	close(gate)
	if err := <-errc; err != nil {
		t.Fatalf("stale Next() error = %v", err)
	}
	if got := frame(t, s).RGBAAt(0, 0).R; got != pageGray(3) {
		t.Errorf("stale page 2 render overwrote page 3: gray %d", got)
	}
	if st := s.State(); st.Page != 3 {
		t.Errorf("page = %d, want 3", st.Page)
	}
}

func TestCloseRemovesListeners(t *testing.T) {
	s, _ := newLoaded(t, 1)
	if err := s.SetMode(ModePen); err != nil {
		t.Fatal(err)
	}
	s.Close()
	if n := len(s.Listeners()); n != 0 {
		t.Errorf("listeners after Close = %d", n)
	}
	if err := s.PointerDown(context.Background(), image.Pt(1, 1)); !errors.Is(err, ErrClosed) {
		t.Errorf("PointerDown() after Close error = %v", err)
	}
}

func TestNavigationAfterClose(t *testing.T) {
	s, f := newLoaded(t, 3)
	ctx := context.Background()
	if err := s.SetMode(ModeHighlight); err != nil {
		t.Fatal(err)
	}
	s.Close()
	before := f.calls

	if err := s.Next(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("Next() after Close error = %v", err)
	}
	if err := s.Goto(ctx, 3); !errors.Is(err, ErrClosed) {
		t.Errorf("Goto() after Close error = %v", err)
	}
	if err := s.Refresh(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("Refresh() after Close error = %v", err)
	}
	if err := s.Load(ctx, fakeDoc); !errors.Is(err, ErrClosed) {
		t.Errorf("Load() after Close error = %v", err)
	}

	if n := len(s.Listeners()); n != 0 {
		t.Errorf("listeners after navigation on closed session = %d, want 0", n)
	}
	if st := s.State(); st.Page != 1 {
		t.Errorf("page = %d, want 1", st.Page)
	}
	if f.calls != before {
		t.Errorf("renderer called %d times after Close", f.calls-before)
	}
}

func TestFailedPageRenderRejectsInput(t *testing.T) {
	s, f := newLoaded(t, 3)
	ctx := context.Background()
	if err := s.SetMode(ModeHighlight); err != nil {
		t.Fatal(err)
	}

	broken := errors.New("render failed")
	f.fail(2, broken)
	if err := s.Next(ctx); !errors.Is(err, broken) {
		t.Fatalf("Next() error = %v, want %v", err, broken)
	}

	// 第 1 页的画面不能留在第 2 页上
	if _, err := s.Frame(); !errors.Is(err, ErrNoFrame) {
		t.Errorf("Frame() after failed render error = %v, want ErrNoFrame", err)
	}
	if err := s.PointerDown(ctx, image.Pt(10, 10)); !errors.Is(err, ErrNoFrame) {
		t.Errorf("PointerDown() after failed render error = %v, want ErrNoFrame", err)
	}
	if n := len(s.Highlights()); n != 0 {
		t.Errorf("highlights on page 2 = %d, want 0", n)
	}

	// 渲染恢复后刷新即可继续标注
	f.fail(2, nil)
	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if got := frame(t, s).RGBAAt(0, 0).R; got != pageGray(2) {
		t.Errorf("frame gray %d, want page 2", got)
	}
}

func TestHighlightGesturesDoNotAccumulate(t *testing.T) {
	s, _ := newLoaded(t, 1)
	if err := s.SetMode(ModeHighlight); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 50; i++ {
		drag(t, s, image.Pt(10, 10), image.Pt(30, 20), image.Pt(40+i, 30))
	}

	if n := len(s.Highlights()); n != 50 {
		t.Errorf("highlights = %d, want 50", n)
	}
	if n := len(s.surface.ctrl.scope); n != 1 {
		t.Errorf("scoped listeners after 50 drags = %d, want 1", n)
	}
	if diff := cmp.Diff([]Event{PointerDown}, s.Listeners()); diff != "" {
		t.Errorf("listeners mismatch (-want +got):\n%s", diff)
	}
}
