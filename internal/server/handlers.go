package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/taskenti/topoguia"
	"github.com/taskenti/topoguia/internal/store"
)

// PhotosField is the multipart file field for additional photos. It may be
// repeated.
const PhotosField = "photos"

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}

func (s *Server) handleTemplates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"active":    s.gen.Template(),
		"templates": topoguia.Templates(),
	})
}

type fieldInfo struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
	Image    bool   `json:"image"`
}

func (s *Server) handleFields(w http.ResponseWriter, _ *http.Request) {
	var out []fieldInfo
	for _, f := range topoguia.Fields() {
		out = append(out, fieldInfo{Key: string(f), Label: f.Label(), Required: f.Required()})
	}
	for _, sl := range topoguia.Slots() {
		out = append(out, fieldInfo{Key: string(sl), Label: sl.Label(), Required: sl.Required(), Image: true})
	}
	out = append(out, fieldInfo{Key: PhotosField, Label: topoguia.PhotosLabel, Image: true})
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	fs, err := s.fieldSet(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	missing := fs.Missing()
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":   len(missing) == 0,
		"missing": nonNil(missing),
	})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	template := string(s.gen.Template())
	logger := s.logger.With("request_id", RequestID(r.Context()))

	fs, err := s.fieldSet(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.gen.Generate(r.Context(), fs)
	if err != nil {
		var verr *topoguia.ValidationError
		var derr *topoguia.AssetDecodeError
		switch {
		case errors.As(err, &verr):
			observeGeneration(template, outcomeInvalid, start, 0)
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"missing": verr.Missing})
		case errors.As(err, &derr):
			observeGeneration(template, outcomeAsset, start, 0)
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": derr.Error(), "slot": derr.Slot})
		default:
			observeGeneration(template, outcomeError, start, 0)
			logger.Error("generation failed", "err", err)
			writeError(w, http.StatusInternalServerError, "generation failed")
		}
		return
	}
	observeGeneration(template, outcomeOK, start, res.Pages)

	for _, warn := range res.Warnings {
		logger.Warn("layout warning", "block", warn.Block, "page", warn.Page, "reason", warn.Reason)
	}
	if err := s.archive.Put(r.Context(), store.ObjectKey(template, res.Filename), res.Data); err != nil {
		logger.Error("archiving guide", "file", res.Filename, "err", err)
	}

	h := w.Header()
	h.Set("Content-Type", "application/pdf")
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	h.Set("Content-Length", strconv.Itoa(len(res.Data)))
	h.Set("X-Topoguia-Pages", strconv.Itoa(res.Pages))
	h.Set("X-Topoguia-Warnings", strconv.Itoa(len(res.Warnings)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Data)
}

// fieldSet reads the multipart form into a FieldSet.
func (s *Server) fieldSet(w http.ResponseWriter, r *http.Request) (*topoguia.FieldSet, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		return nil, fmt.Errorf("reading form: %w", err)
	}

	fs := topoguia.NewFieldSet()
	for _, f := range topoguia.Fields() {
		fs.Set(f, r.FormValue(string(f)))
	}
	for _, sl := range topoguia.Slots() {
		files := r.MultipartForm.File[string(sl)]
		if len(files) == 0 {
			continue
		}
		data, err := readPart(files[0])
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", sl, err)
		}
		fs.SetImage(sl, data)
	}
	for _, fh := range r.MultipartForm.File[PhotosField] {
		data, err := readPart(fh)
		if err != nil {
			return nil, fmt.Errorf("reading photo %s: %w", fh.Filename, err)
		}
		fs.AddPhoto(data)
	}
	return fs, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
