// Package server 提供本地 HTTP 标注界面和 JSON 接口
package server

import (
	"context"
	"embed"
	"errors"
	"image"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"pdfmark/internal/session"
)

//go:embed static
var staticFiles embed.FS

// maxDocumentSize 上传文档大小上限
const maxDocumentSize = 64 << 20

// Editor 标注会话
type Editor interface {
	Load(ctx context.Context, doc []byte) error
	State() session.State
	Frame() (*image.RGBA, error)
	SetMode(m session.Mode) error
	Dispatch(ctx context.Context, ev session.Event, p image.Point) error
	SubmitText(text string) error
	CancelText() error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	Goto(ctx context.Context, page int) error
}

// Exporter 导出服务
type Exporter interface {
	Build(ctx context.Context) ([]byte, error)
	Save(ctx context.Context) (string, error)
}

// Snapshotter 保存页面快照
type Snapshotter interface {
	SaveImage(img image.Image, page int) (string, error)
}

// Server HTTP 前端
type Server struct {
	editor   Editor
	exporter Exporter
	snaps    Snapshotter
	filename string
	log      *logrus.Entry
}

// New 创建服务；filename 为下载时的文件名
func New(editor Editor, exporter Exporter, snaps Snapshotter, filename string, log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Server{editor: editor, exporter: exporter, snaps: snaps, filename: filename, log: log}
}

// Handler 构建路由
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	static, _ := fs.Sub(staticFiles, "static")
	r.Handle("/*", http.FileServer(http.FS(static)))

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/frame.png", s.handleFrame)
		r.Post("/mode", s.handleMode)
		r.Post("/pointer/{event}", s.handlePointer)
		r.Post("/click", s.handleClick)
		r.Post("/text", s.handleSubmitText)
		r.Delete("/text", s.handleCancelText)
		r.Post("/page/next", s.handleNext)
		r.Post("/page/prev", s.handlePrevious)
		r.Post("/page/{page}", s.handleGoto)
		r.Post("/document", s.handleDocument)
		r.Get("/export.pdf", s.handleDownload)
		r.Post("/export", s.handleSave)
		r.Post("/snapshot", s.handleSnapshot)
	})
	return r
}

// logRequests 以 debug 级别记录请求
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start).Round(time.Microsecond),
		}).Debug("request")
	})
}

// Serve 在 ln 上提供服务，ctx 取消后优雅关闭
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe 监听 addr 并提供服务
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.log.WithField("addr", ln.Addr().String()).Info("HTTP 服务已启动")
	return s.Serve(ctx, ln)
}
