package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/shahriarsany/portfolio/backend/cmd/server/handlers"
	"github.com/shahriarsany/portfolio/backend/internal/auth"
	"github.com/shahriarsany/portfolio/backend/internal/crud"
	"github.com/shahriarsany/portfolio/backend/internal/db"
	"github.com/shahriarsany/portfolio/backend/internal/media"
)

// newRouter wires every route. Admin routes sit behind the guard; the
// websocket upgrade does too, so snapshots are never served to an
// unresolved session.
func newRouter(repo *db.Repository, authService *auth.Service, controller *crud.Controller,
	mediaStore *media.Store, hub *wsHub) *chi.Mux {

	public := handlers.NewPublicHandler(repo)
	admin := handlers.NewAdminHandler(repo, controller, mediaStore)
	authHandler := handlers.NewAuthHandler(authService)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"portfolio-backend"}`))
	})

	// Public site endpoints.
	r.Post("/api/contact", public.CreateContact)
	r.Post("/api/visit", public.TrackVisit)
	r.Get("/api/blogs", public.ListBlogs)
	r.Get("/api/blogs/{id}", public.GetBlog)

	// Auth endpoints reachable without a session.
	r.Post("/api/auth/sign-in", authHandler.SignIn)
	r.Post("/api/auth/forgot-password", authHandler.ForgotPassword)
	r.Post("/api/auth/reset-password", authHandler.ResetPassword)

	// Uploaded cover images.
	r.Handle("/media/*", http.StripPrefix("/media/",
		http.FileServer(http.Dir(mediaStore.Dir()))))

	// Everything the dashboard uses.
	r.Group(func(r chi.Router) {
		r.Use(authService.Middleware)

		r.Get("/api/auth/session", authHandler.Session)
		r.Post("/api/auth/sign-out", authHandler.SignOut)
		r.Post("/api/auth/password", authHandler.ChangePassword)
		r.Patch("/api/auth/profile", authHandler.UpdateProfile)

		r.Get("/api/admin/leads", admin.ListLeads)
		r.Get("/api/admin/leads/export", admin.ExportLeads)
		r.Delete("/api/admin/leads/{id}", admin.DeleteLead)

		r.Get("/api/admin/visitors", admin.ListVisitors)
		r.Get("/api/admin/visitors/export", admin.ExportVisitors)
		r.Delete("/api/admin/visitors/{id}", admin.DeleteVisitor)

		r.Get("/api/admin/blogs", admin.ListAdminBlogs)
		r.Get("/api/admin/blogs/export", admin.ExportBlogs)
		r.Post("/api/admin/blogs", admin.CreateBlog)
		r.Patch("/api/admin/blogs/{id}", admin.UpdateBlog)
		r.Delete("/api/admin/blogs/{id}", admin.DeleteBlog)

		r.Post("/api/admin/upload", admin.UploadImage)
		r.Get("/api/admin/ws", handleWebSocket(hub))
	})

	return r
}
