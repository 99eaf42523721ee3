package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/identity-facade/internal/apperror"
	"github.com/sakif/identity-facade/internal/repository"
	"github.com/sakif/identity-facade/internal/service"
)

// AuditService is the subset of service.AuditService the handler uses.
type AuditService interface {
	List(ctx context.Context, opts repository.ListOptions) (*service.AuditPage, error)
}

type AuditHandler struct {
	svc    AuditService
	logger *slog.Logger
}

func NewAuditHandler(svc AuditService, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{svc: svc, logger: logger}
}

// HandleList handles GET /api/audit?limit=&offset=.
//
//	→ 200 {"events": [...], "limit", "offset"}
//
// Missing parameters take the repository defaults; non-integers are
// InvalidInput.
func (h *AuditHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	offset, err := intParam(r, "offset")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	page, err := h.svc.List(r.Context(), repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.InvalidInput(name + " must be an integer")
	}
	return n, nil
}
