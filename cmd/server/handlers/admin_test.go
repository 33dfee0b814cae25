package handlers

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/shahriarsany/portfolio/backend/internal/crud"
	"github.com/shahriarsany/portfolio/backend/internal/db"
	"github.com/shahriarsany/portfolio/backend/internal/logging"
	"github.com/shahriarsany/portfolio/backend/internal/media"
	"github.com/shahriarsany/portfolio/backend/internal/models"
)

type adminEnv struct {
	repo   *db.Repository
	router *chi.Mux
}

func newAdminEnv(t *testing.T) *adminEnv {
	t.Helper()
	repo := newTestRepo(t)

	mediaStore, err := media.NewStore(t.TempDir(), logging.Get())
	if err != nil {
		t.Fatalf("media store: %v", err)
	}
	h := NewAdminHandler(repo, crud.NewController(repo, logging.Get()), mediaStore)

	r := chi.NewRouter()
	r.Get("/api/admin/leads", h.ListLeads)
	r.Get("/api/admin/leads/export", h.ExportLeads)
	r.Delete("/api/admin/leads/{id}", h.DeleteLead)
	r.Get("/api/admin/visitors", h.ListVisitors)
	r.Get("/api/admin/visitors/export", h.ExportVisitors)
	r.Delete("/api/admin/visitors/{id}", h.DeleteVisitor)
	r.Get("/api/admin/blogs", h.ListAdminBlogs)
	r.Get("/api/admin/blogs/export", h.ExportBlogs)
	r.Post("/api/admin/blogs", h.CreateBlog)
	r.Patch("/api/admin/blogs/{id}", h.UpdateBlog)
	r.Delete("/api/admin/blogs/{id}", h.DeleteBlog)
	r.Post("/api/admin/upload", h.UploadImage)
	return &adminEnv{repo: repo, router: r}
}

func (e *adminEnv) do(t *testing.T, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *adminEnv) seedLeads(t *testing.T) []*models.Lead {
	t.Helper()
	leads := []*models.Lead{
		{Name: "Alice Chen", Email: "alice@example.com", Phone: "555-0100", Topic: "Web Design", Message: "hi"},
		{Name: "Bob Martin", Email: "bob@corp.io", Phone: "555-0200", Topic: "SEO", Message: "hello"},
	}
	for _, l := range leads {
		if err := e.repo.CreateLead(l); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return leads
}

func TestListLeadsWithSearch(t *testing.T) {
	env := newAdminEnv(t)
	env.seedLeads(t)

	rec := env.do(t, http.MethodGet, "/api/admin/leads?search=alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Leads []models.Lead `json:"leads"`
		Total int           `json:"total"`
		Shown int           `json:"shown"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 2 || body.Shown != 1 {
		t.Errorf("total = %d, shown = %d", body.Total, body.Shown)
	}
	if len(body.Leads) != 1 || body.Leads[0].Name != "Alice Chen" {
		t.Errorf("leads = %+v", body.Leads)
	}
}

func TestExportLeadsCSV(t *testing.T) {
	env := newAdminEnv(t)
	env.seedLeads(t)

	rec := env.do(t, http.MethodGet, "/api/admin/leads/export?search=bob", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "contacts-") {
		t.Errorf("disposition = %q", cd)
	}

	lines := strings.Split(strings.TrimSuffix(rec.Body.String(), "\n"), "\n")
	if lines[0] != "Name,Email,Phone,Topic,Created At" {
		t.Errorf("header = %q", lines[0])
	}
	if len(lines) != 2 || !strings.HasPrefix(lines[1], "Bob Martin,bob@corp.io,") {
		t.Errorf("rows = %v", lines[1:])
	}
}

// TestExportLeadsFailureCode verifies a failed read surfaces the
// export error code instead of a bare database error.
func TestExportLeadsFailureCode(t *testing.T) {
	logging.Init(io.Discard, logging.LevelError)

	database, err := db.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if err := db.NewMigrator(database.DB).Up(); err != nil {
		t.Fatalf("migration error: %v", err)
	}
	repo := db.NewRepository(database.DB, db.NewNotifier())
	database.Close()

	mediaStore, err := media.NewStore(t.TempDir(), logging.Get())
	if err != nil {
		t.Fatalf("media store: %v", err)
	}
	h := NewAdminHandler(repo, crud.NewController(repo, logging.Get()), mediaStore)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/leads/export", nil)
	rec := httptest.NewRecorder()
	h.ExportLeads(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != "EXPORT_FAILED" {
		t.Errorf("code = %q, want EXPORT_FAILED", body.Code)
	}
}

func TestDeleteLeadRequiresConfirm(t *testing.T) {
	env := newAdminEnv(t)
	leads := env.seedLeads(t)
	id := leads[0].ID.String()

	rec := env.do(t, http.MethodDelete, "/api/admin/leads/"+id, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unconfirmed delete: status = %d", rec.Code)
	}
	remaining, _ := env.repo.ListLeads()
	if len(remaining) != 2 {
		t.Fatalf("lead deleted without confirm")
	}

	rec = env.do(t, http.MethodDelete, "/api/admin/leads/"+id+"?confirm=true", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("confirmed delete: status = %d, body %s", rec.Code, rec.Body.String())
	}
	remaining, _ = env.repo.ListLeads()
	if len(remaining) != 1 {
		t.Fatalf("leads remaining = %d", len(remaining))
	}

	// Deleting again reports the record gone.
	rec = env.do(t, http.MethodDelete, "/api/admin/leads/"+id+"?confirm=true", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: status = %d, want 404", rec.Code)
	}
}

func TestVisitorsFilterParam(t *testing.T) {
	env := newAdminEnv(t)
	for _, v := range []*models.Visitor{
		{IPAddress: "10.0.0.1", Page: "/", Device: models.DeviceMobile, Browser: "Chrome"},
		{IPAddress: "10.0.0.2", Page: "/", Device: models.DeviceDesktop, Browser: "Firefox"},
	} {
		if err := env.repo.CreateVisitor(v); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	rec := env.do(t, http.MethodGet, "/api/admin/visitors?filter=mobile", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Visitors []models.Visitor `json:"visitors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Visitors) != 1 || body.Visitors[0].IPAddress != "10.0.0.1" {
		t.Errorf("visitors = %+v", body.Visitors)
	}
}

func TestCreateBlogDefaultsToDraft(t *testing.T) {
	env := newAdminEnv(t)

	payload, _ := json.Marshal(map[string]string{"title": "Hello, World! 2024"})
	rec := env.do(t, http.MethodPost, "/api/admin/blogs", bytes.NewReader(payload))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var post models.BlogPost
	if err := json.Unmarshal(rec.Body.Bytes(), &post); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if post.Status != models.BlogStatusDraft {
		t.Errorf("status = %q, want draft", post.Status)
	}
	if post.Slug != "hello-world-2024" {
		t.Errorf("slug = %q", post.Slug)
	}
}

func TestCreateBlogValidation(t *testing.T) {
	env := newAdminEnv(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing title", map[string]string{"content": "body"}},
		{"blank title", map[string]string{"title": "   "}},
		{"bad status", map[string]string{"title": "ok", "status": "archived"}},
		{"bad type", map[string]string{"title": "ok", "type": "video"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, _ := json.Marshal(tt.body)
			rec := env.do(t, http.MethodPost, "/api/admin/blogs", bytes.NewReader(payload))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestUpdateBlogPartialPatch(t *testing.T) {
	env := newAdminEnv(t)

	post := &models.BlogPost{
		Title:       "Original Title",
		Description: "keep me",
		Content:     "keep me too",
		Type:        models.BlogTypeText,
		Status:      models.BlogStatusDraft,
	}
	if err := env.repo.CreateBlogPost(post); err != nil {
		t.Fatalf("create: %v", err)
	}

	payload, _ := json.Marshal(map[string]string{
		"title":  "Renamed Post",
		"status": models.BlogStatusPublished,
	})
	rec := env.do(t, http.MethodPatch, "/api/admin/blogs/"+post.ID.String(), bytes.NewReader(payload))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	updated, err := env.repo.GetBlogPost(post.ID.String())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if updated.Title != "Renamed Post" || updated.Slug != "renamed-post" {
		t.Errorf("title = %q, slug = %q", updated.Title, updated.Slug)
	}
	if updated.Status != models.BlogStatusPublished {
		t.Errorf("status = %q", updated.Status)
	}
	// Untouched fields survive the patch.
	if updated.Description != "keep me" || updated.Content != "keep me too" {
		t.Errorf("description = %q, content = %q", updated.Description, updated.Content)
	}
}

func TestExportBlogsCSV(t *testing.T) {
	env := newAdminEnv(t)

	posts := []*models.BlogPost{
		{Title: "Published Post", Type: models.BlogTypeText, Status: models.BlogStatusPublished},
		{Title: "Draft Post", Type: models.BlogTypeText, Status: models.BlogStatusDraft},
	}
	for _, p := range posts {
		if err := env.repo.CreateBlogPost(p); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	rec := env.do(t, http.MethodGet, "/api/admin/blogs/export?filter=draft", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "blogs-") {
		t.Errorf("disposition = %q", cd)
	}

	lines := strings.Split(strings.TrimSuffix(rec.Body.String(), "\n"), "\n")
	if lines[0] != "Title,Status,Type,Tags,Views,Created At" {
		t.Errorf("header = %q", lines[0])
	}
	if len(lines) != 2 || !strings.HasPrefix(lines[1], "Draft Post,draft,text,") {
		t.Errorf("rows = %v", lines[1:])
	}
}

func TestUpdateBlogNotFound(t *testing.T) {
	env := newAdminEnv(t)

	payload, _ := json.Marshal(map[string]string{"title": "x"})
	rec := env.do(t, http.MethodPatch, "/api/admin/blogs/ffffffff-ffff-4fff-8fff-ffffffffffff", bytes.NewReader(payload))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestUploadImage(t *testing.T) {
	env := newAdminEnv(t)

	img := image.NewRGBA(image.Rect(0, 0, 60, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 60; x++ {
			img.Set(x, y, color.RGBA{R: 10, G: 120, B: 220, A: 255})
		}
	}
	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("image", "cover.png")
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	if _, err := part.Write(pngBuf.Bytes()); err != nil {
		t.Fatalf("write: %v", err)
	}
	form.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/admin/upload", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var response struct {
		URL    string `json:"url"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(response.URL, "/media/") || !strings.HasSuffix(response.URL, ".png") {
		t.Errorf("url = %q", response.URL)
	}
	if response.Width != 60 || response.Height != 40 {
		t.Errorf("dimensions = %dx%d", response.Width, response.Height)
	}
}

func TestUploadRejectsNonImage(t *testing.T) {
	env := newAdminEnv(t)

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, _ := form.CreateFormFile("image", "payload.png")
	part.Write([]byte("not an image at all"))
	form.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/admin/upload", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
