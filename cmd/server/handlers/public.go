package handlers

import (
	"bytes"
	"net"
	"net/http"
	"net/mail"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"

	"github.com/shahriarsany/portfolio/backend/internal/db"
	"github.com/shahriarsany/portfolio/backend/internal/errors"
	"github.com/shahriarsany/portfolio/backend/internal/logging"
	"github.com/shahriarsany/portfolio/backend/internal/models"
)

// PublicHandler serves the endpoints the portfolio site itself calls:
// the contact form, visit tracking and the blog.
type PublicHandler struct {
	repo     *db.Repository
	markdown goldmark.Markdown
}

// NewPublicHandler creates a PublicHandler.
func NewPublicHandler(repo *db.Repository) *PublicHandler {
	return &PublicHandler{
		repo:     repo,
		markdown: goldmark.New(),
	}
}

// CreateContact handles POST /api/contact.
func (h *PublicHandler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Phone   string `json:"phone"`
		Topic   string `json:"topic"`
		Message string `json:"message"`
	}
	if err := decodeBody(r, &request); err != nil {
		writeError(w, err)
		return
	}

	request.Name = strings.TrimSpace(request.Name)
	request.Email = strings.TrimSpace(request.Email)
	request.Message = strings.TrimSpace(request.Message)
	if request.Name == "" || request.Message == "" {
		writeError(w, errors.New(errors.ErrValidation, "name and message are required"))
		return
	}
	if _, err := mail.ParseAddress(request.Email); err != nil {
		writeError(w, errors.New(errors.ErrValidation, "a valid email address is required"))
		return
	}

	lead := &models.Lead{
		Name:    request.Name,
		Email:   request.Email,
		Phone:   strings.TrimSpace(request.Phone),
		Topic:   strings.TrimSpace(request.Topic),
		Message: request.Message,
	}
	if err := h.repo.CreateLead(lead); err != nil {
		writeError(w, err)
		return
	}

	logging.Info("contact submitted", map[string]interface{}{"id": lead.ID.String()})
	writeJSON(w, http.StatusCreated, map[string]string{"id": lead.ID.String()})
}

// TrackVisit handles POST /api/visit. Device and browser are derived
// server-side from the User-Agent header.
func (h *PublicHandler) TrackVisit(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Page     string `json:"page"`
		Duration string `json:"duration"`
		Location string `json:"location"`
	}
	if err := decodeBody(r, &request); err != nil {
		writeError(w, err)
		return
	}
	if request.Page == "" {
		request.Page = "/"
	}

	ua := r.UserAgent()
	device, browser := models.ClassifyUserAgent(ua)
	visitor := &models.Visitor{
		IPAddress: clientIP(r),
		UserAgent: ua,
		Page:      request.Page,
		Device:    device,
		Browser:   browser,
		Location:  strings.TrimSpace(request.Location),
		Duration:  strings.TrimSpace(request.Duration),
	}
	if err := h.repo.CreateVisitor(visitor); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": visitor.ID.String()})
}

// blogSummary is the list-view shape: no content body, derived reading
// time included.
type blogSummary struct {
	*models.BlogPost
	Content     string `json:"content,omitempty"`
	ReadingTime int    `json:"reading_time"`
}

// ListBlogs handles GET /api/blogs. Only published posts appear.
func (h *PublicHandler) ListBlogs(w http.ResponseWriter, r *http.Request) {
	posts, err := h.repo.ListBlogPosts(models.BlogStatusPublished)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]blogSummary, 0, len(posts))
	for _, post := range posts {
		out = append(out, blogSummary{
			BlogPost:    post,
			ReadingTime: models.ReadingTime(post.Content),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"blogs": out})
}

// GetBlog handles GET /api/blogs/{id}. Every fetch counts exactly one
// view; the response carries the incremented total. Drafts resolve
// too, so a preview link works before publishing.
func (h *PublicHandler) GetBlog(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	post, err := h.repo.GetBlogPost(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.repo.IncrementBlogViews(id); err != nil {
		writeError(w, err)
		return
	}
	post.Views++

	var html bytes.Buffer
	if post.Type == models.BlogTypeText {
		if err := h.markdown.Convert([]byte(post.Content), &html); err != nil {
			logging.Error("markdown render failed", err, map[string]interface{}{"id": id})
			html.Reset()
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"blog":         post,
		"html":         html.String(),
		"reading_time": models.ReadingTime(post.Content),
	})
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// connection address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
