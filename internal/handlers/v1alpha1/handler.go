package v1alpha1

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kubev2v/stock-importer/internal/service"
)

type ServiceHandler struct {
	importSrv *service.ImportService
}

func NewServiceHandler(importSrv *service.ImportService) *ServiceHandler {
	return &ServiceHandler{
		importSrv: importSrv,
	}
}

// RegisterRoutes mounts the v1alpha1 API on the router.
func (h *ServiceHandler) RegisterRoutes(router chi.Router) {
	router.Route("/api/v1alpha1", func(r chi.Router) {
		r.Post("/imports", h.CreateImport)
		r.Get("/imports/{id}", h.GetImport)
	})
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}
