package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/ByLCY/quire/content"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/renderer"
)

type tocResponse struct {
	Title string            `json:"title"`
	Pages int               `json:"pages"`
	TOC   []layout.TocEntry `json:"toc"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.decodeDocument(w, r)
	if !ok {
		return
	}
	backend := s.newBackend()

	var (
		pdf   []byte
		pages int
	)
	err := s.withTimeout(r.Context(), func() error {
		res, err := layout.Assemble(doc, s.layoutOptions(r, backend))
		if err != nil {
			return err
		}
		pages = len(res.Pages)
		pdf, err = backend.Render(res)
		return err
	})
	if err != nil {
		s.fail(w, r, "render failed", err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s.pdf"`, fileName(doc.Title)))
	w.Header().Set("X-Quire-Pages", strconv.Itoa(pages))
	w.Write(pdf)
}

func (s *Server) handleTOC(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.decodeDocument(w, r)
	if !ok {
		return
	}
	backend := s.newBackend()

	var resp tocResponse
	err := s.withTimeout(r.Context(), func() error {
		toc, pages, err := layout.PredictTOC(doc, s.layoutOptions(r, backend))
		resp = tocResponse{Title: doc.Title, Pages: pages, TOC: toc}
		return err
	})
	if err != nil {
		s.fail(w, r, "toc prediction failed", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.decodeDocument(w, r)
	if !ok {
		return
	}
	backend := s.newBackend()

	var buf bytes.Buffer
	err := s.withTimeout(r.Context(), func() error {
		res, err := layout.Assemble(doc, s.layoutOptions(r, backend))
		if err != nil {
			return err
		}
		return layout.EncodeDebugJSON(&buf, res)
	})
	if err != nil {
		s.fail(w, r, "layout failed", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(buf.Bytes())
}

// decodeDocument 读取请求体。格式由 ?format= 或 Content-Type 决定，默认 JSON；
// ?title= 在文档自身没有标题时使用。
func (s *Server) decodeDocument(w http.ResponseWriter, r *http.Request) (content.Document, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	format, err := requestFormat(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnsupportedMediaType)
		return content.Document{}, false
	}
	title := r.URL.Query().Get("title")
	if title == "" {
		title = "Untitled"
	}
	doc, err := content.DecodeDocument(r.Body, format, title)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("body exceeds max size (%d bytes)", s.cfg.MaxBodyBytes), http.StatusRequestEntityTooLarge)
			return content.Document{}, false
		}
		jsonError(w, "invalid document: "+err.Error(), http.StatusBadRequest)
		return content.Document{}, false
	}
	if len(doc.Sections) == 0 {
		jsonError(w, "document has no sections", http.StatusBadRequest)
		return content.Document{}, false
	}
	return doc, true
}

func requestFormat(r *http.Request) (content.Format, error) {
	if f := r.URL.Query().Get("format"); f != "" {
		switch content.Format(strings.ToLower(f)) {
		case content.FormatJSON, content.FormatYAML, content.FormatMarkdown:
			return content.Format(strings.ToLower(f)), nil
		}
		return "", fmt.Errorf("unsupported format %q", f)
	}
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return content.FormatJSON, nil
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return "", fmt.Errorf("invalid content type %q", ct)
	}
	switch mt {
	case "application/json":
		return content.FormatJSON, nil
	case "application/yaml", "application/x-yaml", "text/yaml":
		return content.FormatYAML, nil
	case "text/markdown", "text/x-markdown", "text/plain":
		return content.FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported content type %q", mt)
	}
}

func (s *Server) layoutOptions(r *http.Request, backend renderer.Backend) layout.Options {
	return layout.Options{
		Measurer: backend,
		Theme:    s.theme,
		Logger:   s.log.With("request_id", middleware.GetReqID(r.Context())),
	}
}

// withTimeout 在 RenderTimeout 内运行 fn。排版本身不可取消，超时后结果被丢弃，
// 但任务结束前一直占用 renders 的名额；等不到名额同样按超时处理。
func (s *Server) withTimeout(ctx context.Context, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RenderTimeout)
	defer cancel()

	select {
	case s.renders <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	done := make(chan error, 1)
	go func() {
		defer func() { <-s.renders }()
		done <- fn()
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	code := statusFor(err)
	if code >= 500 {
		s.log.Error(msg, "error", err, "request_id", middleware.GetReqID(r.Context()))
	}
	jsonError(w, msg+": "+err.Error(), code)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errors.Is(err, layout.ErrEmptyDocument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// fileName 把标题转换为安全的文件名。
func fileName(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.TrimSpace(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	name := strings.TrimSuffix(b.String(), "-")
	if name == "" {
		return "document"
	}
	return name
}
