package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/domodwyer/mailyak/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/config"
)

// SmtpEmailNotifier sends OTP mails over plain SMTP.
type SmtpEmailNotifier struct {
	cfg    config.SmtpConfig
	logger *zap.Logger
}

// NewSmtpEmailNotifier builds the notifier.
func NewSmtpEmailNotifier(cfg config.SmtpConfig, logger *zap.Logger) *SmtpEmailNotifier {
	return &SmtpEmailNotifier{cfg: cfg, logger: logger}
}

// SendOtpEmail delivers the code, honoring context cancellation while
// the underlying send is in flight.
func (n *SmtpEmailNotifier) SendOtpEmail(ctx context.Context, email, code, displayName string) error {
	mail := mailyak.New(fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port),
		smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host))

	mail.To(email)
	mail.From(n.cfg.From)
	mail.Subject("Your verification code")
	mail.HTML().Set(fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Your one-time code is <strong>%s</strong>. It expires in 5 minutes.</p>
		<p>If you did not request this code, ignore this message.</p>
	`, displayName, code))

	done := make(chan error, 1)
	go func() {
		done <- mail.Send()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send otp email: %w", err)
		}
	}

	n.logger.Info("otp email sent", zap.String("email", email))
	return nil
}
