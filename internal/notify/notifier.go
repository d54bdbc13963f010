package notify

import "context"

// EmailNotifier delivers a one-time code to an email address.
type EmailNotifier interface {
	SendOtpEmail(ctx context.Context, email, code, displayName string) error
}

// SmsNotifier delivers a one-time code to a phone number. It is an
// independent channel; callers decide whether its failure matters.
type SmsNotifier interface {
	SendOtpSms(ctx context.Context, phoneNumber, code string) error
}
