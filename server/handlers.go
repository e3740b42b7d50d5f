package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-chi/chi/v5"

	"github.com/tesarmarek/Legal-document-cleaner/core/fetch"
	"github.com/tesarmarek/Legal-document-cleaner/core/pipeline"
	"github.com/tesarmarek/Legal-document-cleaner/core/render"
	"github.com/tesarmarek/Legal-document-cleaner/core/transform"
)

type documentSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
	Title    string `json:"title"`
	Headers  int    `json:"headers"`
	Lists    int    `json:"list_items"`
}

func summarize(e *entry) documentSummary {
	meta := e.session.Manager.Metadata()
	sum := documentSummary{
		ID:       e.id,
		Name:     e.session.Source.Name,
		Location: e.session.Source.Location,
		Headers:  len(meta.Headers),
		Lists:    len(meta.Lists),
	}
	if meta.DocumentStructure != nil {
		sum.Title = meta.DocumentStructure.Document.Metadata.Title
	}
	return sum
}

// handleCreateDocument accepts either a multipart upload in the "file"
// field or a JSON body {"url": "..."} naming an http(s) document.
func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	var (
		session *pipeline.Session
		err     error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		session, err = s.openUpload(r)
	} else {
		session, err = s.openURL(r)
	}
	if err != nil {
		var he *httpError
		if errors.As(err, &he) {
			jsonError(w, he.msg, he.code)
			return
		}
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	e := s.store.add(session)
	s.metrics.DocumentOpened()
	writeJSON(w, http.StatusCreated, summarize(e))
}

type httpError struct {
	msg  string
	code int
}

func (e *httpError) Error() string { return e.msg }

func (s *Server) openUpload(r *http.Request) (*pipeline.Session, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, &httpError{"invalid multipart form: " + err.Error(), http.StatusBadRequest}
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, &httpError{"file is required: " + err.Error(), http.StatusBadRequest}
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, &httpError{"failed to read file", http.StatusInternalServerError}
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, &httpError{fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge}
	}

	src, err := fetch.FromBytes(sanitizeFilename(header.Filename), data, header.Header.Get("Content-Type"))
	if err != nil {
		return nil, &httpError{err.Error(), http.StatusBadRequest}
	}
	session, err := s.pipeline.OpenSource(src)
	if err != nil {
		return nil, &httpError{err.Error(), http.StatusUnprocessableEntity}
	}
	return session, nil
}

func (s *Server) openURL(r *http.Request) (*pipeline.Session, error) {
	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, &httpError{"invalid JSON body: " + err.Error(), http.StatusBadRequest}
	}
	if !fetch.IsURL(body.URL) {
		return nil, &httpError{"url must be an absolute http(s) URL", http.StatusBadRequest}
	}
	session, err := s.pipeline.Open(r.Context(), body.URL)
	if err != nil {
		return nil, &httpError{err.Error(), http.StatusBadGateway}
	}
	return session, nil
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs := []documentSummary{}
	for _, e := range s.store.list() {
		e.mu.Lock()
		docs = append(docs, summarize(e))
		e.mu.Unlock()
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// withDocument resolves {docID} and runs fn holding the session lock.
func (s *Server) withDocument(w http.ResponseWriter, r *http.Request, fn func(e *entry)) {
	e, ok := s.store.get(chi.URLParam(r, "docID"))
	if !ok {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	s.withDocument(w, r, func(e *entry) {
		writeJSON(w, http.StatusOK, map[string]any{
			"document": summarize(e),
			"metadata": e.session.Manager.Metadata(),
		})
	})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if !s.store.Delete(chi.URLParam(r, "docID")) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	s.metrics.DocumentClosed()
	w.WriteHeader(http.StatusNoContent)
}

type headerView struct {
	Index       int    `json:"index"`
	Level       int    `json:"level"`
	CustomLevel int    `json:"customLevel"`
	Text        string `json:"text"`
	Preview     string `json:"preview"`
	Token       string `json:"token"`
}

func headerViews(meta transform.Metadata) []headerView {
	views := make([]headerView, len(meta.Headers))
	for i, h := range meta.Headers {
		views[i] = headerView{
			Index:       i,
			Level:       h.Level,
			CustomLevel: h.CustomLevel,
			Text:        h.Text,
			Token:       "header-" + strconv.Itoa(i),
		}
		if i < len(meta.HeaderTransforms) {
			views[i].Preview = meta.HeaderTransforms[i].Preview
		}
	}
	return views
}

func (s *Server) handleListHeaders(w http.ResponseWriter, r *http.Request) {
	s.withDocument(w, r, func(e *entry) {
		writeJSON(w, http.StatusOK, map[string]any{"headers": headerViews(e.session.Manager.Metadata())})
	})
}

func (s *Server) handleUpdateHeader(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		jsonError(w, "header index must be an integer", http.StatusBadRequest)
		return
	}
	var body struct {
		Level int `json:"level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.withDocument(w, r, func(e *entry) {
		m := e.session.Manager
		if index < 0 || index >= len(m.Metadata().Headers) {
			jsonError(w, fmt.Sprintf("no header at index %d", index), http.StatusNotFound)
			return
		}
		if !m.UpdateHeaderLevel(index, body.Level) {
			jsonError(w, fmt.Sprintf("level must be between 1 and 6, got %d", body.Level), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, headerViews(m.Metadata())[index])
	})
}

func (s *Server) handleStructure(w http.ResponseWriter, r *http.Request) {
	interactive, _ := strconv.ParseBool(r.URL.Query().Get("interactive"))
	s.withDocument(w, r, func(e *entry) {
		var (
			structure *transform.Structure
			err       error
		)
		if interactive {
			structure, err = e.session.Manager.InteractiveJSON()
		} else {
			structure, err = e.session.Manager.Structure()
		}
		if err != nil {
			jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, structure)
	})
}

func (s *Server) handleElement(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if strings.TrimSpace(path) == "" {
		jsonError(w, "path query parameter is required", http.StatusBadRequest)
		return
	}
	s.withDocument(w, r, func(e *entry) {
		sel, ok := e.session.Manager.FindElementByPath(path)
		if !ok {
			jsonError(w, "element not found", http.StatusNotFound)
			return
		}
		markup, err := goquery.OuterHtml(sel)
		if err != nil {
			jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"path":    path,
			"tag":     sel.Get(0).Data,
			"element": markup,
		})
	})
}

type transformRequest struct {
	Headers     []int       `json:"headers"`
	Levels      map[int]int `json:"levels"`
	Format      string      `json:"format"`
	Interactive bool        `json:"interactive"`
	Save        bool        `json:"save"`
}

var contentTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".json": "application/json",
	".md":   "text/markdown; charset=utf-8",
	".pdf":  "application/pdf",
}

// handleTransform applies the requested header tokens. With save set the
// rendered output is written by the output writer and its path returned;
// otherwise the rendered output is the response body.
func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	var req transformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}
	renderer, err := render.ForFormat(req.Format)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.withDocument(w, r, func(e *entry) {
		doc, err := s.pipeline.Clean(e.session, pipeline.Request{
			Levels:      req.Levels,
			Headers:     req.Headers,
			Interactive: req.Interactive,
		})
		if errors.Is(err, pipeline.ErrLevelRejected) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		s.metrics.ObserveTransform(len(doc.Result.Applied), len(doc.Result.Skipped))

		data, err := renderer.Render(doc)
		if err != nil {
			jsonError(w, "render: "+err.Error(), http.StatusInternalServerError)
			return
		}

		if req.Save {
			path, err := s.writer.Save(e.session.Source.Name, data, renderer.Extension())
			if err != nil {
				jsonError(w, err.Error(), http.StatusInternalServerError)
				return
			}
			s.log.Info("document saved", "id", e.id, "path", path)
			writeJSON(w, http.StatusCreated, map[string]any{
				"path":    path,
				"applied": doc.Result.Applied,
				"skipped": doc.Result.Skipped,
			})
			return
		}

		w.Header().Set("Content-Type", contentTypes[renderer.Extension()])
		w.Header().Set("X-Transform-Applied", strconv.Itoa(len(doc.Result.Applied)))
		w.Header().Set("X-Transform-Skipped", strconv.Itoa(len(doc.Result.Skipped)))
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "." || name == "_" || name == "" {
		return "upload.html"
	}
	return name
}
