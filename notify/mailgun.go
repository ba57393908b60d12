package notify

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/mailgun/mailgun-go/v3"
)

const sendTimeout = 10 * time.Second

type mailSender interface {
	NewMessage(from, subject, text string, to ...string) *mailgun.Message
	Send(ctx context.Context, m *mailgun.Message) (string, string, error)
}

// Mailgun emails the confirmation through the "app-template" template.
type Mailgun struct {
	mg     mailSender
	sender string
}

func NewMailgun(domain, apiKey, sender string) *Mailgun {
	return &Mailgun{
		mg:     mailgun.NewMailgun(domain, apiKey),
		sender: sender,
	}
}

func (m *Mailgun) DonationConfirmed(ctx context.Context, c Confirmation) error {
	if c.FanEmail == "" {
		return nil
	}

	message := m.mg.NewMessage(m.sender, "Thanks for supporting "+c.MusicianName, c.Text(), c.FanEmail)
	message.SetTemplate("app-template")
	if err := message.AddTemplateVariable("content", confirmationHTML(c)); err != nil {
		return fmt.Errorf("template variable: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if _, _, err := m.mg.Send(ctx, message); err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}
	return nil
}

func confirmationHTML(c Confirmation) string {
	body := fmt.Sprintf("Hey there! 👋<br><br>%s<br><br>", html.EscapeString(c.Text()))
	if c.SongTitle != "" {
		body += fmt.Sprintf("Your support was for <b>%s</b>.<br><br>", html.EscapeString(c.SongTitle))
	}
	if c.Message != "" {
		body += fmt.Sprintf("Your message: <em>%s</em><br><br>", html.EscapeString(c.Message))
	}
	return body + "80% of every donation goes directly to the artist.<br><br>Team TrueFans"
}
