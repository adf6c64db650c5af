package export

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"pdfmark/internal/session"
)

type staticSource struct {
	doc    []byte
	frames map[int]image.Image
	err    error
}

func (s staticSource) Frames(context.Context) ([]byte, map[int]image.Image, error) {
	return s.doc, s.frames, s.err
}

type recordingSaver struct {
	saved [][]byte
	err   error
}

func (r *recordingSaver) SavePDF(data []byte) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	r.saved = append(r.saved, data)
	return "/tmp/out/edited-sample.pdf", nil
}

type recordingClipboard struct{ text string }

func (c *recordingClipboard) SetText(text string) error {
	c.text = text
	return nil
}

type recordingNotifier struct{ titles, messages []string }

func (n *recordingNotifier) Show(title, message string) error {
	n.titles = append(n.titles, title)
	n.messages = append(n.messages, message)
	return nil
}

type recordingStatus struct{ texts []string }

func (r *recordingStatus) SetStatus(text string) { r.texts = append(r.texts, text) }

func newTestService(t *testing.T, src FrameSource, saver Saver) (*Service, *test.Hook, *recordingClipboard, *recordingNotifier) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	clip := &recordingClipboard{}
	notifier := &recordingNotifier{}
	svc := NewService(src, NewPipeline(NewConfiguration(), logrus.NewEntry(logger)), saver, logrus.NewEntry(logger),
		WithClipboard(clip), WithNotifier(notifier))
	return svc, hook, clip, notifier
}

func TestServiceSave(t *testing.T) {
	src := staticSource{doc: sampleDoc(t, 2), frames: map[int]image.Image{1: raster(color.RGBA{255, 255, 0, 255})}}
	saver := &recordingSaver{}
	svc, _, clip, notifier := newTestService(t, src, saver)

	path, err := svc.Save(context.Background())
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if len(saver.saved) != 1 {
		t.Fatalf("SavePDF called %d times, want 1", len(saver.saved))
	}
	if clip.text != path {
		t.Errorf("clipboard = %q, want %q", clip.text, path)
	}
	if len(notifier.messages) != 1 || notifier.messages[0] != path {
		t.Errorf("notifications = %v", notifier.messages)
	}
}

func TestServiceSaveFailureWritesNothing(t *testing.T) {
	src := staticSource{doc: []byte("broken"), frames: map[int]image.Image{1: raster(color.RGBA{})}}
	saver := &recordingSaver{}
	svc, hook, clip, notifier := newTestService(t, src, saver)

	if _, err := svc.Save(context.Background()); !errors.Is(err, ErrExport) {
		t.Fatalf("Save() error = %v, want ErrExport", err)
	}
	if len(saver.saved) != 0 || clip.text != "" {
		t.Error("failed export reached storage or clipboard")
	}
	if diff := cmp.Diff([]string{"保存失败"}, notifier.titles); diff != "" {
		t.Errorf("notification titles mismatch (-want +got):\n%s", diff)
	}
	if hook.LastEntry() == nil || hook.LastEntry().Level != logrus.ErrorLevel {
		t.Errorf("last log entry = %+v, want error level", hook.LastEntry())
	}
}

func TestServiceSaverFailure(t *testing.T) {
	src := staticSource{doc: sampleDoc(t, 1), frames: map[int]image.Image{1: raster(color.RGBA{0, 0, 0, 255})}}
	svc, _, clip, _ := newTestService(t, src, &recordingSaver{err: errors.New("disk full")})

	_, err := svc.Save(context.Background())
	var ee *ExportError
	if !errors.As(err, &ee) || ee.Stage != StageSave {
		t.Fatalf("Save() error = %v, want save stage", err)
	}
	if clip.text != "" {
		t.Error("clipboard set after failed save")
	}
}

func TestServiceSourceError(t *testing.T) {
	saver := &recordingSaver{}
	svc, hook, clip, notifier := newTestService(t, staticSource{err: session.ErrNoFrame}, saver)

	_, err := svc.Save(context.Background())
	if !errors.Is(err, ErrExport) || !errors.Is(err, session.ErrNoFrame) {
		t.Fatalf("Save() error = %v, want ErrExport wrapping ErrNoFrame", err)
	}
	var ee *ExportError
	if !errors.As(err, &ee) || ee.Stage != StageRaster {
		t.Errorf("stage = %+v, want %q", ee, StageRaster)
	}

	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.ErrorLevel {
		t.Fatalf("last log entry = %+v, want error level", entry)
	}
	if got, ok := entry.Data[logrus.ErrorKey].(error); !ok || !errors.Is(got, session.ErrNoFrame) {
		t.Errorf("logged error = %v", entry.Data[logrus.ErrorKey])
	}
	if len(saver.saved) != 0 || clip.text != "" {
		t.Errorf("failed export had side effects: saved=%d clip=%q", len(saver.saved), clip.text)
	}
	if len(notifier.messages) != 1 || notifier.messages[0] != err.Error() {
		t.Errorf("notifications = %v, want the export error", notifier.messages)
	}
}

func TestServiceReportsStatus(t *testing.T) {
	logger, _ := test.NewNullLogger()
	st := &recordingStatus{}
	good := staticSource{doc: sampleDoc(t, 1), frames: map[int]image.Image{1: raster(color.RGBA{0, 0, 255, 255})}}
	pipeline := NewPipeline(NewConfiguration(), logrus.NewEntry(logger))

	svc := NewService(good, pipeline, &recordingSaver{}, logrus.NewEntry(logger), WithStatus(st))
	if _, err := svc.Save(context.Background()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	failing := NewService(staticSource{err: session.ErrNoDocument}, pipeline, &recordingSaver{}, logrus.NewEntry(logger), WithStatus(st))
	if _, err := failing.Save(context.Background()); err == nil {
		t.Fatal("Save() without document succeeded")
	}

	if diff := cmp.Diff([]string{"PDF 已保存", "保存失败"}, st.texts); diff != "" {
		t.Errorf("status mismatch (-want +got):\n%s", diff)
	}
}
