package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"pdfmark/internal/export"
	"pdfmark/internal/pdfdoc"
	"pdfmark/internal/session"
)

type pointRequest struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

type modeRequest struct {
	Mode session.Mode `json:"mode"`
}

type textRequest struct {
	Text *string `json:"text"`
}

type pathResponse struct {
	Path  string        `json:"path"`
	State session.State `json:"state"`
}

type errorResponse struct {
	Error string `json:"error"`
}

var pointerEvents = map[string]session.Event{
	"down": session.PointerDown,
	"move": session.PointerMove,
	"up":   session.PointerUp,
}

// errBadRequest 请求参数错误
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// statusFor 错误到 HTTP 状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNoFrame), errors.Is(err, session.ErrNoDocument), errors.Is(err, session.ErrNotAwaitingText):
		return http.StatusConflict
	case errors.Is(err, session.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, export.ErrExport):
		// 导出时其他页的渲染失败也属于服务端错误
		return http.StatusInternalServerError
	case errors.Is(err, pdfdoc.ErrPageIndex):
		return http.StatusBadRequest
	case errors.Is(err, pdfdoc.ErrDocumentLoad):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Debug("写入响应失败")
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.WithError(err).Error("请求失败")
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// writeState 操作成功后返回最新状态
func (s *Server) writeState(w http.ResponseWriter, err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.editor.State())
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}

func decodePoint(r *http.Request) (image.Point, error) {
	var req pointRequest
	if err := decode(r, &req); err != nil {
		return image.Point{}, err
	}
	if req.X == nil || req.Y == nil {
		return image.Point{}, badRequest("x and y are required")
	}
	return image.Pt(*req.X, *req.Y), nil
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.editor.State())
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	img, err := s.editor.Frame()
	if err != nil {
		s.writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeState(w, s.editor.SetMode(req.Mode))
}

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "event")
	ev, ok := pointerEvents[name]
	if !ok {
		s.writeError(w, badRequest("unknown pointer event %q", name))
		return
	}
	p, err := decodePoint(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeState(w, s.editor.Dispatch(r.Context(), ev, p))
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	p, err := decodePoint(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeState(w, s.editor.Dispatch(r.Context(), session.Click, p))
}

func (s *Server) handleSubmitText(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Text == nil {
		s.writeError(w, badRequest("text is required"))
		return
	}
	s.writeState(w, s.editor.SubmitText(*req.Text))
}

func (s *Server) handleCancelText(w http.ResponseWriter, r *http.Request) {
	s.writeState(w, s.editor.CancelText())
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	s.writeState(w, s.editor.Next(r.Context()))
}

func (s *Server) handlePrevious(w http.ResponseWriter, r *http.Request) {
	s.writeState(w, s.editor.Previous(r.Context()))
}

func (s *Server) handleGoto(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil {
		s.writeError(w, badRequest("invalid page number"))
		return
	}
	s.writeState(w, s.editor.Goto(r.Context(), page))
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentSize))
	if err != nil {
		s.writeError(w, badRequest("read document: %v", err))
		return
	}
	if len(data) == 0 {
		s.writeError(w, badRequest("empty document"))
		return
	}
	s.writeState(w, s.editor.Load(r.Context(), data))
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	out, err := s.exporter.Build(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	_, _ = w.Write(out)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	path, err := s.exporter.Save(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, pathResponse{Path: path, State: s.editor.State()})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	img, err := s.editor.Frame()
	if err != nil {
		s.writeError(w, err)
		return
	}
	st := s.editor.State()
	path, err := s.snaps.SaveImage(img, st.Page)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.log.WithFields(logrus.Fields{"path": path, "page": st.Page}).Info("页面快照已保存")
	s.writeJSON(w, http.StatusOK, pathResponse{Path: path, State: st})
}
