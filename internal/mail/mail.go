// Package mail sends outbound email through an SMTP relay (MailHog in
// development).
package mail

import (
	"context"

	"github.com/sakif/identity-facade/internal/model"
)

// Content is one message, sent as a single text/html part.
type Content struct {
	Subject string
	HTML    string
}

// Client delivers a message to one recipient.
type Client interface {
	Send(ctx context.Context, to model.Email, content Content) error
}
