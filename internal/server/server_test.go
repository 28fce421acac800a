package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/taskenti/topoguia"
)

type memArchive struct {
	mu    sync.Mutex
	items map[string][]byte
}

func (a *memArchive) Put(_ context.Context, key string, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.items == nil {
		a.items = make(map[string][]byte)
	}
	a.items[key] = data
	return nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	m := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.Set(x, y, color.RGBA{R: uint8(x), G: 120, B: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, m); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	clock := func() time.Time { return time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC) }
	gen, err := topoguia.New(topoguia.WithClock(clock))
	if err != nil {
		t.Fatal(err)
	}
	return New(gen, opts...)
}

// form builds a multipart body. Values are form fields; files map slot names
// to image data.
func form(t *testing.T, values map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range values {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	for k, data := range files {
		part, err := mw.CreateFormFile(k, k+".png")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return body, mw.FormDataContentType()
}

func completeForm(t *testing.T) (map[string]string, map[string][]byte) {
	values := map[string]string{
		"route_code": "PR-GU 08",
		"route_name": "Hoz del Río Dulce",
		"distance":   "11,0 Km",
		"time":       "2h 35m",
	}
	files := map[string][]byte{
		"map":     pngBytes(t, 300, 90),
		"profile": pngBytes(t, 300, 60),
		"mide":    pngBytes(t, 100, 40),
	}
	return values, files
}

func post(t *testing.T, s *Server, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestGenerate(t *testing.T) {
	archive := &memArchive{}
	s := newServer(t, WithArchive(archive))
	values, files := completeForm(t)
	body, ct := form(t, values, files)

	rec := post(t, s, "/v1/topoguias", body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "Topoguia_PR-GU_08_20240517.pdf") {
		t.Errorf("Content-Disposition = %q", got)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
		t.Error("body is not a PDF")
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("no request ID assigned")
	}
	if _, ok := archive.items["portrait/Topoguia_PR-GU_08_20240517.pdf"]; !ok {
		t.Errorf("archived keys = %v", archive.items)
	}
}

func TestGenerateMissing(t *testing.T) {
	s := newServer(t)
	values, files := completeForm(t)
	delete(files, "mide")
	body, ct := form(t, values, files)

	rec := post(t, s, "/v1/topoguias", body, ct)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	var got struct {
		Missing []string `json:"missing"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if want := []string{"Imagen de Tabla MIDE"}; !reflect.DeepEqual(got.Missing, want) {
		t.Errorf("missing = %q, want %q", got.Missing, want)
	}
}

func TestGenerateCorruptRequiredImage(t *testing.T) {
	s := newServer(t)
	values, files := completeForm(t)
	files["map"] = []byte("not a png")
	body, ct := form(t, values, files)

	rec := post(t, s, "/v1/topoguias", body, ct)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGenerateNotMultipart(t *testing.T) {
	s := newServer(t)
	rec := post(t, s, "/v1/topoguias", bytes.NewBufferString("{}"), "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestValidate(t *testing.T) {
	s := newServer(t)
	body, ct := form(t, map[string]string{"route_code": "PR-GU 08"}, nil)

	rec := post(t, s, "/v1/topoguias/validate", body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got struct {
		Valid   bool     `json:"valid"`
		Missing []string `json:"missing"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Valid || len(got.Missing) != 6 || got.Missing[0] != "Nombre del Sendero" {
		t.Errorf("response = %+v", got)
	}
}

func TestRequestIDPropagated(t *testing.T) {
	s := newServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request ID = %q", got)
	}
}

func TestTemplatesAndMetrics(t *testing.T) {
	s := newServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/templates", nil))
	var got struct {
		Active    string                  `json:"active"`
		Templates []topoguia.TemplateInfo `json:"templates"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Active != "portrait" || len(got.Templates) != 3 {
		t.Errorf("templates = %+v", got)
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "topoguia_http_request_duration_seconds") {
		t.Error("request metric not exported")
	}
}
