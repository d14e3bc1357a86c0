package service

import (
	"context"
	"fmt"
	"html"

	"github.com/rs/zerolog/log"

	"github.com/glimmershop/store_api/internal/models"
	"github.com/glimmershop/store_api/pkg/resend"
)

const credentialsSubject = "Suas Credenciais - Compra Aprovada"

// MailNotifier delivers claimed credentials by email through the Resend API.
type MailNotifier struct {
	client *resend.Client
	from   string
}

// NewMailNotifier constructs a MailNotifier.
func NewMailNotifier(client *resend.Client, from string) *MailNotifier {
	return &MailNotifier{client: client, from: from}
}

// SendCredentials emails the account credentials to the customer.
func (n *MailNotifier) SendCredentials(ctx context.Context, toEmail string, toName *string, account *models.Account) error {
	greeting := "Olá!"
	if toName != nil && *toName != "" {
		greeting = fmt.Sprintf("Olá %s!", html.EscapeString(*toName))
	}

	body := fmt.Sprintf(`<html><body>
<p>%s</p>
<p>Sua compra foi processada com sucesso! Abaixo estão as credenciais da sua conta:</p>
<p>Email: <code>%s</code><br>Senha: <code>%s</code></p>
<p>Guarde essas credenciais em local seguro. Por questões de segurança, não enviaremos novamente por email.</p>
<p>Este é um email automático. Por favor, não responda.</p>
</body></html>`,
		greeting, html.EscapeString(account.Email), html.EscapeString(account.Password))

	resp, err := n.client.SendEmail(ctx, n.from, toEmail, credentialsSubject, body)
	if err != nil {
		return err
	}

	log.Info().
		Str("message_id", resp.ID).
		Str("to", toEmail).
		Msg("Credentials email sent")
	return nil
}
