package email

import (
	"context"
	"fmt"

	"github.com/rai-abhi24/cgpey/internal/config"
	"github.com/resend/resend-go/v2"
)

// EmailClient wraps the resend API client
type EmailClient struct {
	client      *resend.Client
	enabled     bool
	fromAddress string
	alertTo     string
}

// NewEmailClient creates a new email client. A missing API key disables
// sending without failing startup.
func NewEmailClient(cfg *config.Configuration) *EmailClient {
	if !cfg.Email.Enabled || cfg.Email.APIKey == "" {
		return &EmailClient{enabled: false}
	}

	return &EmailClient{
		client:      resend.NewClient(cfg.Email.APIKey),
		enabled:     true,
		fromAddress: cfg.Email.FromAddress,
		alertTo:     cfg.Email.AlertTo,
	}
}

// IsEnabled returns whether the email client is enabled
func (c *EmailClient) IsEnabled() bool {
	return c.enabled
}

// GetFromAddress returns the default from address
func (c *EmailClient) GetFromAddress() string {
	return c.fromAddress
}

// GetAlertTo returns the operator alert recipient
func (c *EmailClient) GetAlertTo() string {
	return c.alertTo
}

// SendEmail sends a plain text email
func (c *EmailClient) SendEmail(ctx context.Context, from, to, subject, textContent string) (string, error) {
	if !c.enabled {
		return "", fmt.Errorf("email client is disabled")
	}

	params := &resend.SendEmailRequest{
		From:    from,
		To:      []string{to},
		Subject: subject,
		Text:    textContent,
	}

	sent, err := c.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	return sent.Id, nil
}
