package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	custommiddleware "github.com/mmeshcher/dealer-backoffice/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware бэк-офиса.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(custommiddleware.Logger(h.logger))
	r.Use(chimw.Recoverer)
	r.Use(custommiddleware.GzipMiddleware)

	r.Get("/healthz", h.Healthz)

	r.Route("/api", func(r chi.Router) {
		r.Get("/tax-rate", h.GetTaxRate)

		r.Route("/calc", func(r chi.Router) {
			r.Post("/breakdown", h.CalcBreakdown)
			r.Post("/leave-end", h.CalcLeaveEnd)
			r.Post("/progress", h.CalcProgress)
		})

		r.Route("/user", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)

			r.Group(func(r chi.Router) {
				r.Use(h.authMiddleware.Middleware)

				r.Post("/quotations", h.CreateQuotation)
				r.Get("/quotations", h.GetQuotations)

				r.Post("/leave-requests", h.CreateLeaveRequest)
				r.Get("/leave-requests", h.GetLeaveRequests)
				r.Post("/leave-requests/{id}/decision", h.DecideLeaveRequest)

				r.Post("/attendance", h.RecordAttendance)
				r.Get("/attendance", h.GetAttendance)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
