// Copyright OCR Backend Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/V-Neelagandan/OCR-Backend/pkg/core/schema"
	"github.com/V-Neelagandan/OCR-Backend/pkg/core/services"
	"github.com/V-Neelagandan/OCR-Backend/pkg/extract"
	"github.com/V-Neelagandan/OCR-Backend/pkg/ocr/ocrtest"
	"github.com/V-Neelagandan/OCR-Backend/pkg/raster/rastertest"
	"github.com/V-Neelagandan/OCR-Backend/pkg/recordstore/jsonfile"
	"github.com/V-Neelagandan/OCR-Backend/pkg/uploads"
)

type testServer struct {
	handler   *Handler
	root      string
	storePath string
	uploadDir string
}

func newTestServer(t *testing.T, engine *ocrtest.Engine) *testServer {
	t.Helper()
	return newTestServerWith(t, engine, &rastertest.Rasterizer{Pages: 2})
}

func newTestServerWith(t *testing.T, engine *ocrtest.Engine, rasterizer *rastertest.Rasterizer) *testServer {
	t.Helper()
	root := t.TempDir()
	uploadDir := filepath.Join(root, "uploads")
	storePath := filepath.Join(root, "extracted.json")

	dir, err := uploads.New(uploadDir)
	if err != nil {
		t.Fatalf("uploads.New: %v", err)
	}
	t.Cleanup(func() { dir.Close() })

	store, err := jsonfile.New(storePath)
	if err != nil {
		t.Fatalf("jsonfile.New: %v", err)
	}

	x := extract.New(engine, rasterizer, extract.Options{})
	svc := services.NewExtractionService(dir, x, store, nil)
	return &testServer{
		handler:   New(svc, nil, Options{CORSOrigins: []string{"*"}}),
		root:      root,
		storePath: storePath,
		uploadDir: uploadDir,
	}
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		part.Write(content)
	} else {
		mw.WriteField("note", "no file here")
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("multipart close: %v", err)
	}
	return &body, mw.FormDataContentType()
}

func (s *testServer) upload(t *testing.T, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, "file", filename, content)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func (s *testServer) retrieve(t *testing.T) []schema.ExtractionRecord {
	t.Helper()
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/retrieve", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /retrieve status = %d, body %s", w.Code, w.Body)
	}
	var records []schema.ExtractionRecord
	if err := json.Unmarshal(w.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode /retrieve: %v", err)
	}
	return records
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp schema.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return resp.Error
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &ocrtest.Engine{})
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"healthy"`) {
		t.Errorf("body = %s", w.Body)
	}
}

func TestUpload_ImageSuccess(t *testing.T) {
	s := newTestServer(t, &ocrtest.Engine{Text: "  Hello OCR\n\n"})

	w := s.upload(t, "hello world.png", ocrtest.PNG())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	var resp schema.MessageResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message != "File uploaded and text extracted" {
		t.Errorf("message = %q", resp.Message)
	}

	records := s.retrieve(t)
	if len(records) != 1 {
		t.Fatalf("store length = %d, want 1", len(records))
	}
	if records[0].Filename != "hello_world.png" || records[0].ExtractText != "Hello OCR" {
		t.Errorf("record = %+v", records[0])
	}
	if _, err := os.Stat(filepath.Join(s.uploadDir, "hello_world.png")); err != nil {
		t.Errorf("file not stored under sanitised name: %v", err)
	}
}

func TestUpload_PDFSuccess(t *testing.T) {
	engine := &ocrtest.Engine{RecognizeFunc: func(_ context.Context, image []byte) (string, error) {
		return "[" + string(image) + "]", nil
	}}
	s := newTestServer(t, engine)

	if w := s.upload(t, "Report.PDF", []byte("%PDF-1.4 fake")); w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	records := s.retrieve(t)
	if len(records) != 1 || records[0].ExtractText != "[page-1][page-2]" {
		t.Errorf("records = %+v", records)
	}
}

func TestUpload_EachSuccessAddsExactlyOneRecord(t *testing.T) {
	s := newTestServer(t, &ocrtest.Engine{Text: "x"})
	for i, name := range []string{"a.png", "b.jpg", "c.jpeg", "d.pdf", "a.png"} {
		if w := s.upload(t, name, ocrtest.PNG()); w.Code != http.StatusOK {
			t.Fatalf("upload %s: status %d", name, w.Code)
		}
		if got := len(s.retrieve(t)); got != i+1 {
			t.Fatalf("after %d uploads store length = %d", i+1, got)
		}
	}
}

func TestUpload_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		filename string
		want     string
	}{
		{"unsupported extension", "file", "notes.txt", "Unsupported file type"},
		{"no extension", "file", "README", "Unsupported file type"},
		{"empty filename", "file", "", "Unsupported file type"},
		{"wrong field name", "document", "scan.png", "No file uploaded"},
		{"no file part", "", "", "No file uploaded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &ocrtest.Engine{Text: "x"})
			body, contentType := multipartBody(t, tt.field, tt.filename, []byte("content"))
			req := httptest.NewRequest(http.MethodPost, "/upload", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			s.handler.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", w.Code, w.Body)
			}
			if got := decodeError(t, w); got != tt.want {
				t.Errorf("error = %q, want %q", got, tt.want)
			}
			if _, err := os.Stat(s.storePath); !os.IsNotExist(err) {
				t.Errorf("store file touched by a rejected upload")
			}
			if got := len(s.retrieve(t)); got != 0 {
				t.Errorf("store length = %d, want 0", got)
			}
		})
	}
}

func TestUpload_DirectoryPartsFoldedIntoName(t *testing.T) {
	tests := []struct {
		sent string
		want string
	}{
		{"scans/page.png", "scans_page.png"},
		{"../../etc/evil.png", "etc_evil.png"},
		{`C:\Users\me\scan.jpg`, "C_Users_me_scan.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			s := newTestServer(t, &ocrtest.Engine{Text: "ok"})
			if w := s.upload(t, tt.sent, ocrtest.PNG()); w.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", w.Code, w.Body)
			}
			records := s.retrieve(t)
			if len(records) != 1 || records[0].Filename != tt.want {
				t.Fatalf("records = %+v, want filename %q", records, tt.want)
			}
			if _, err := os.Stat(filepath.Join(s.uploadDir, tt.want)); err != nil {
				t.Errorf("upload not stored as %s: %v", tt.want, err)
			}
		})
	}
}

func TestUpload_NotMultipart(t *testing.T) {
	s := newTestServer(t, &ocrtest.Engine{})
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(`{"file":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest || decodeError(t, w) != "No file uploaded" {
		t.Errorf("status = %d, body %s", w.Code, w.Body)
	}
}

func TestUpload_ExtractionFailureIsStillSuccess(t *testing.T) {
	engine := &ocrtest.Engine{RecognizeFunc: func(context.Context, []byte) (string, error) {
		return "", errors.New("tesseract not installed")
	}}
	s := newTestServer(t, engine)

	if w := s.upload(t, "scan.jpg", ocrtest.PNG()); w.Code != http.StatusOK {
		t.Fatalf("image status = %d", w.Code)
	}
	if w := s.upload(t, "doc.pdf", []byte("%PDF")); w.Code != http.StatusOK {
		t.Fatalf("pdf status = %d", w.Code)
	}
	if w := s.upload(t, "broken.png", []byte("not really a png")); w.Code != http.StatusOK {
		t.Fatalf("corrupt image status = %d", w.Code)
	}

	records := s.retrieve(t)
	if len(records) != 3 {
		t.Fatalf("store length = %d, want 3", len(records))
	}
	wantPrefixes := []string{"Image OCR Error:", "PDF OCR Error:", "Image OCR Error:"}
	for i, prefix := range wantPrefixes {
		if !strings.HasPrefix(records[i].ExtractText, prefix) {
			t.Errorf("record %d text = %q, want prefix %q", i, records[i].ExtractText, prefix)
		}
	}
}

func TestUpload_ClientDisconnectDoesNotAbortExtraction(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rasterizer := &rastertest.Rasterizer{
		Pages: 1,
		RenderFunc: func(ctx context.Context, page int) ([]byte, error) {
			cancel() // client hangs up while the page renders
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return []byte("page"), nil
		},
	}
	s := newTestServerWith(t, &ocrtest.Engine{Text: "invoice total 42"}, rasterizer)

	body, contentType := multipartBody(t, "file", "doc.pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body).WithContext(ctx)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	records := s.retrieve(t)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].ExtractText != "invoice total 42" {
		t.Errorf("extract_text = %q, want the OCR text", records[0].ExtractText)
	}
}

func TestUpload_ConcurrentUploadsKeepEveryRecord(t *testing.T) {
	s := newTestServer(t, &ocrtest.Engine{Text: "x"})

	const n = 12
	var wg sync.WaitGroup
	codes := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = s.upload(t, fmt.Sprintf("scan-%d.png", i), ocrtest.PNG()).Code
		}(i)
	}
	wg.Wait()

	for i, code := range codes {
		if code != http.StatusOK {
			t.Errorf("upload %d status = %d", i, code)
		}
	}
	if got := len(s.retrieve(t)); got != n {
		t.Errorf("store length = %d, want %d", got, n)
	}
}

func TestRetrieve_EmptyStore(t *testing.T) {
	s := newTestServer(t, &ocrtest.Engine{})
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/retrieve", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("body = %q, want []", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestRetrieve_RoundTrip(t *testing.T) {
	text := "Line one\nZweite Zeile: Größe <10> & \"quotes\""
	s := newTestServer(t, &ocrtest.Engine{Text: "\t" + text + "  \n"})

	if w := s.upload(t, "receipt.jpeg", ocrtest.PNG()); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	records := s.retrieve(t)
	if len(records) != 1 || records[0].Filename != "receipt.jpeg" || records[0].ExtractText != text {
		t.Errorf("records = %+v", records)
	}
}

func TestRetrieve_CorruptStore(t *testing.T) {
	s := newTestServer(t, &ocrtest.Engine{})
	if err := os.WriteFile(s.storePath, []byte("{{{"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/retrieve", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestUpload_CorruptStoreIsReset(t *testing.T) {
	s := newTestServer(t, &ocrtest.Engine{Text: "fresh"})
	if err := os.WriteFile(s.storePath, []byte("not json"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if w := s.upload(t, "a.png", ocrtest.PNG()); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	records := s.retrieve(t)
	if len(records) != 1 || records[0].ExtractText != "fresh" {
		t.Errorf("records = %+v", records)
	}
}

func TestGetUpload_ServesFile(t *testing.T) {
	s := newTestServer(t, &ocrtest.Engine{Text: "x"})
	png := ocrtest.PNG()
	if w := s.upload(t, "preview.png", png); w.Code != http.StatusOK {
		t.Fatalf("upload status = %d", w.Code)
	}

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads/preview.png", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
	if !bytes.Equal(w.Body.Bytes(), png) {
		t.Error("served bytes differ from upload")
	}
}

func TestGetUpload_PDFContentType(t *testing.T) {
	s := newTestServer(t, &ocrtest.Engine{Text: "x"})
	if w := s.upload(t, "doc.pdf", []byte("%PDF-1.4")); w.Code != http.StatusOK {
		t.Fatalf("upload status = %d", w.Code)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads/doc.pdf", nil))
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q, want application/pdf", ct)
	}
}

func TestGetUpload_NotFound(t *testing.T) {
	s := newTestServer(t, &ocrtest.Engine{})
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads/missing.png", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if got := decodeError(t, w); got != "File not found" {
		t.Errorf("error = %q", got)
	}
}

func TestGetUpload_Containment(t *testing.T) {
	s := newTestServer(t, &ocrtest.Engine{Text: "secret"})
	if w := s.upload(t, "a.png", ocrtest.PNG()); w.Code != http.StatusOK {
		t.Fatalf("upload status = %d", w.Code)
	}

	for _, target := range []string{
		"/uploads/..%2Fextracted.json",
		"/uploads/%2E%2E%2Fextracted.json",
		"/uploads/..%5Cextracted.json",
		"/uploads/..",
	} {
		w := httptest.NewRecorder()
		s.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		if w.Code == http.StatusOK {
			t.Errorf("GET %s served content outside the upload directory", target)
		}
		if strings.Contains(w.Body.String(), "secret") {
			t.Errorf("GET %s leaked the record store", target)
		}
	}

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads/..%2Fextracted.json", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("encoded traversal status = %d, want 404", w.Code)
	}
}

func TestGetUpload_StagingFileNotServed(t *testing.T) {
	s := newTestServer(t, &ocrtest.Engine{})
	staged := ".scan.png.4242.tmp"
	if err := os.WriteFile(filepath.Join(s.uploadDir, staged), []byte("half an upload"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads/"+staged, nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if strings.Contains(w.Body.String(), "half an upload") {
		t.Error("partial upload was served")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, &ocrtest.Engine{})
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/upload", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t, &ocrtest.Engine{})

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected a generated X-Request-ID")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want client value echoed", got)
	}
}

func TestOpenAPI(t *testing.T) {
	s := newTestServer(t, &ocrtest.Engine{})
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var doc struct {
		OpenAPI string                    `json:"openapi"`
		Paths   map[string]map[string]any `json:"paths"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, path := range []string{"/upload", "/retrieve", "/uploads/{filename}"} {
		if _, ok := doc.Paths[path]; !ok {
			t.Errorf("OpenAPI document missing %s", path)
		}
	}
}

func TestUploadThenServeOverRealServer(t *testing.T) {
	s := newTestServer(t, &ocrtest.Engine{Text: "served"})
	srv := httptest.NewServer(s.handler)
	defer srv.Close()

	body, contentType := multipartBody(t, "file", "live.png", ocrtest.PNG())
	resp, err := http.Post(srv.URL+"/upload", contentType, body)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/uploads/live.png")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !bytes.Equal(data, ocrtest.PNG()) {
		t.Errorf("status = %d, %d bytes", resp.StatusCode, len(data))
	}
}
