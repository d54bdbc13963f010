package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/config"
)

// GatewaySmsNotifier posts OTP messages to a form-based SMS gateway.
type GatewaySmsNotifier struct {
	cfg    config.SmsConfig
	client *http.Client
	logger *zap.Logger
}

// NewGatewaySmsNotifier builds the notifier with a bounded HTTP client.
func NewGatewaySmsNotifier(cfg config.SmsConfig, logger *zap.Logger) *GatewaySmsNotifier {
	return &GatewaySmsNotifier{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// SendOtpSms delivers the code to the given number via the gateway.
func (n *GatewaySmsNotifier) SendOtpSms(ctx context.Context, phoneNumber, code string) error {
	if n.cfg.BaseURL == "" {
		return fmt.Errorf("sms gateway not configured")
	}

	form := url.Values{}
	form.Set("userid", n.cfg.UserID)
	form.Set("password", n.cfg.Password)
	form.Set("senderid", n.cfg.SenderID)
	form.Set("msgType", "text")
	form.Set("msg", fmt.Sprintf("Your verification code is %s. It expires in 5 minutes.", code))
	form.Set("mobile", phoneNumber)
	form.Set("output", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.BaseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if n.cfg.APIKey != "" {
		req.Header.Set("apikey", n.cfg.APIKey)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send otp sms: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}

	n.logger.Info("otp sms sent", zap.String("mobile", phoneNumber))
	return nil
}
