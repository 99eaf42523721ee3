package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/identity-facade/internal/service"
)

// MailService is the subset of service.MailService the handler uses.
type MailService interface {
	SendTestEmail(ctx context.Context, req service.SendTestEmailRequest) (*service.SendTestEmailResponse, error)
}

type MailHandler struct {
	svc    MailService
	logger *slog.Logger
}

func NewMailHandler(svc MailService, logger *slog.Logger) *MailHandler {
	return &MailHandler{svc: svc, logger: logger}
}

// HandleSendTestEmail handles POST /api/email/test.
//
//	{"to"} → 200 {"to", "message"}
func (h *MailHandler) HandleSendTestEmail(w http.ResponseWriter, r *http.Request) {
	var req service.SendTestEmailRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	resp, err := h.svc.SendTestEmail(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
