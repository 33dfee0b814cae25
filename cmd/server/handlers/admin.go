package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shahriarsany/portfolio/backend/internal/crud"
	"github.com/shahriarsany/portfolio/backend/internal/db"
	"github.com/shahriarsany/portfolio/backend/internal/errors"
	"github.com/shahriarsany/portfolio/backend/internal/media"
	"github.com/shahriarsany/portfolio/backend/internal/models"
	"github.com/shahriarsany/portfolio/backend/internal/view"
)

// Uploads larger than this are refused before decoding.
const maxUploadBytes = 10 << 20

// AdminHandler serves the guarded dashboard API.
type AdminHandler struct {
	repo       *db.Repository
	controller *crud.Controller
	media      *media.Store
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(repo *db.Repository, controller *crud.Controller, mediaStore *media.Store) *AdminHandler {
	return &AdminHandler{repo: repo, controller: controller, media: mediaStore}
}

// viewOptions reads the three view inputs from the query string.
func viewOptions(r *http.Request) view.Options {
	q := r.URL.Query()
	return view.Options{
		Search: q.Get("search"),
		Filter: q.Get("filter"),
		Sort:   q.Get("sort"),
	}
}

// ListLeads handles GET /api/admin/leads.
func (h *AdminHandler) ListLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := h.repo.ListLeads()
	if err != nil {
		writeError(w, err)
		return
	}
	filtered := view.Leads(leads, viewOptions(r))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"leads": filtered,
		"total": len(leads),
		"shown": len(filtered),
	})
}

// ExportLeads handles GET /api/admin/leads/export. The download always
// reflects the same search/filter/sort the table shows.
func (h *AdminHandler) ExportLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := h.repo.ListLeads()
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrExportFailed, "could not export contacts", err))
		return
	}
	body := view.LeadsCSV(view.Leads(leads, viewOptions(r)))
	serveCSV(w, "contacts", body)
}

// DeleteLead handles DELETE /api/admin/leads/{id}?confirm=true.
func (h *AdminHandler) DeleteLead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := requireConfirm(r); err != nil {
		writeError(w, err)
		return
	}
	if err := h.controller.DeleteLead(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// ListVisitors handles GET /api/admin/visitors.
func (h *AdminHandler) ListVisitors(w http.ResponseWriter, r *http.Request) {
	visitors, err := h.repo.ListVisitors()
	if err != nil {
		writeError(w, err)
		return
	}
	filtered := view.Visitors(visitors, viewOptions(r))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"visitors": filtered,
		"total":    len(visitors),
		"shown":    len(filtered),
	})
}

// ExportVisitors handles GET /api/admin/visitors/export.
func (h *AdminHandler) ExportVisitors(w http.ResponseWriter, r *http.Request) {
	visitors, err := h.repo.ListVisitors()
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrExportFailed, "could not export visitors", err))
		return
	}
	body := view.VisitorsCSV(view.Visitors(visitors, viewOptions(r)))
	serveCSV(w, "visitors", body)
}

// DeleteVisitor handles DELETE /api/admin/visitors/{id}?confirm=true.
func (h *AdminHandler) DeleteVisitor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := requireConfirm(r); err != nil {
		writeError(w, err)
		return
	}
	if err := h.controller.DeleteVisitor(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// ListAdminBlogs handles GET /api/admin/blogs. Drafts included.
func (h *AdminHandler) ListAdminBlogs(w http.ResponseWriter, r *http.Request) {
	posts, err := h.repo.ListBlogPosts("")
	if err != nil {
		writeError(w, err)
		return
	}
	filtered := view.Blogs(posts, viewOptions(r))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"blogs": filtered,
		"total": len(posts),
		"shown": len(filtered),
	})
}

// ExportBlogs handles GET /api/admin/blogs/export.
func (h *AdminHandler) ExportBlogs(w http.ResponseWriter, r *http.Request) {
	posts, err := h.repo.ListBlogPosts("")
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrExportFailed, "could not export blogs", err))
		return
	}
	body := view.BlogsCSV(view.Blogs(posts, viewOptions(r)))
	serveCSV(w, "blogs", body)
}

type blogRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Content     *string `json:"content"`
	Type        *string `json:"type"`
	ImageURL    *string `json:"image_url"`
	Tags        *string `json:"tags"`
	Status      *string `json:"status"`
	Featured    *bool   `json:"featured"`
}

func validBlogStatus(s string) bool {
	return s == models.BlogStatusDraft || s == models.BlogStatusPublished
}

func validBlogType(s string) bool {
	return s == models.BlogTypeText || s == models.BlogTypeImage
}

// CreateBlog handles POST /api/admin/blogs.
func (h *AdminHandler) CreateBlog(w http.ResponseWriter, r *http.Request) {
	var request blogRequest
	if err := decodeBody(r, &request); err != nil {
		writeError(w, err)
		return
	}
	if request.Title == nil || strings.TrimSpace(*request.Title) == "" {
		writeError(w, errors.New(errors.ErrValidation, "title is required"))
		return
	}

	post := &models.BlogPost{
		Title:  strings.TrimSpace(*request.Title),
		Type:   models.BlogTypeText,
		Status: models.BlogStatusDraft,
	}
	if request.Description != nil {
		post.Description = *request.Description
	}
	if request.Content != nil {
		post.Content = *request.Content
	}
	if request.ImageURL != nil {
		post.ImageURL = *request.ImageURL
	}
	if request.Tags != nil {
		post.Tags = *request.Tags
	}
	if request.Featured != nil {
		post.Featured = *request.Featured
	}
	if request.Type != nil {
		if !validBlogType(*request.Type) {
			writeError(w, errors.New(errors.ErrValidation, "type must be text or image"))
			return
		}
		post.Type = *request.Type
	}
	if request.Status != nil {
		if !validBlogStatus(*request.Status) {
			writeError(w, errors.New(errors.ErrValidation, "status must be draft or published"))
			return
		}
		post.Status = *request.Status
	}

	if err := h.controller.CreateBlogPost(post); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// UpdateBlog handles PATCH /api/admin/blogs/{id}. Absent fields keep
// their stored values; a title change recomputes the slug.
func (h *AdminHandler) UpdateBlog(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	post, err := h.repo.GetBlogPost(id)
	if err != nil {
		writeError(w, err)
		return
	}

	var request blogRequest
	if err := decodeBody(r, &request); err != nil {
		writeError(w, err)
		return
	}
	if request.Title != nil {
		if strings.TrimSpace(*request.Title) == "" {
			writeError(w, errors.New(errors.ErrValidation, "title cannot be empty"))
			return
		}
		post.Title = strings.TrimSpace(*request.Title)
	}
	if request.Description != nil {
		post.Description = *request.Description
	}
	if request.Content != nil {
		post.Content = *request.Content
	}
	if request.ImageURL != nil {
		post.ImageURL = *request.ImageURL
	}
	if request.Tags != nil {
		post.Tags = *request.Tags
	}
	if request.Featured != nil {
		post.Featured = *request.Featured
	}
	if request.Type != nil {
		if !validBlogType(*request.Type) {
			writeError(w, errors.New(errors.ErrValidation, "type must be text or image"))
			return
		}
		post.Type = *request.Type
	}
	if request.Status != nil {
		if !validBlogStatus(*request.Status) {
			writeError(w, errors.New(errors.ErrValidation, "status must be draft or published"))
			return
		}
		post.Status = *request.Status
	}

	if err := h.controller.UpdateBlogPost(post); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// DeleteBlog handles DELETE /api/admin/blogs/{id}?confirm=true.
func (h *AdminHandler) DeleteBlog(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := requireConfirm(r); err != nil {
		writeError(w, err)
		return
	}
	if err := h.controller.DeleteBlogPost(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// UploadImage handles POST /api/admin/upload (multipart, field
// "image").
func (h *AdminHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, errors.Wrap(errors.ErrUploadFailed, "upload too large or malformed", err))
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrUploadFailed, "image field missing", err))
		return
	}
	defer file.Close()

	upload, err := h.media.Save(file, header.Filename)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"url":           "/media/" + upload.Name,
		"thumbnail_url": "/media/" + upload.ThumbnailName,
		"width":         upload.Width,
		"height":        upload.Height,
	})
}

// requireConfirm guards destructive routes: deletes only run with an
// explicit confirm=true.
func requireConfirm(r *http.Request) error {
	if r.URL.Query().Get("confirm") != "true" {
		return errors.New(errors.ErrValidation, "confirm=true is required to delete")
	}
	return nil
}

func serveCSV(w http.ResponseWriter, prefix, body string) {
	name := fmt.Sprintf("%s-%s.csv", prefix, time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
