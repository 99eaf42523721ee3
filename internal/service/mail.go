package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/identity-facade/internal/apperror"
	"github.com/sakif/identity-facade/internal/mail"
	"github.com/sakif/identity-facade/internal/model"
)

const MsgEmailSent = "Email sent successfully"

// testEmail is the fixed message sent by SendTestEmail.
var testEmail = mail.Content{
	Subject: "Test Email",
	HTML:    "<h1>This is a test email</h1>",
}

type SendTestEmailRequest struct {
	To string `json:"to"`
}

type SendTestEmailResponse struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// MailService sends operator-triggered messages through the mail relay.
type MailService struct {
	client mail.Client
	logger *slog.Logger
}

func NewMailService(client mail.Client, logger *slog.Logger) *MailService {
	return &MailService{client: client, logger: logger}
}

// SendTestEmail checks the relay end to end. An empty recipient is
// InvalidInput, a malformed one InvalidEmail; neither reaches the relay.
func (s *MailService) SendTestEmail(ctx context.Context, req SendTestEmailRequest) (*SendTestEmailResponse, error) {
	if strings.TrimSpace(req.To) == "" {
		return nil, apperror.InvalidInput("Recipient email cannot be empty")
	}
	to, err := model.NewEmail(req.To)
	if err != nil {
		return nil, err
	}

	if err := s.client.Send(ctx, to, testEmail); err != nil {
		s.logger.Error("test email failed", slog.String("kind", string(apperror.KindOf(err))), slog.Any("error", err))
		return nil, err
	}

	s.logger.Info("test email sent")
	return &SendTestEmailResponse{To: req.To, Message: MsgEmailSent}, nil
}
