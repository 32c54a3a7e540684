package email

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/medicore/hospital-api/config"
	"github.com/medicore/hospital-api/pkg/logger"
)

type Service interface {
	SendInvite(ctx context.Context, to, fullName, hospitalName, token string) error
	SendPasswordReset(ctx context.Context, to, token string) error
}

type service struct {
	cfg    config.SMTPConfig
	logger *logger.Logger
}

func NewService(cfg config.SMTPConfig, logger *logger.Logger) Service {
	return &service{cfg: cfg, logger: logger}
}

func (s *service) SendInvite(ctx context.Context, to, fullName, hospitalName, token string) error {
	subject := fmt.Sprintf("You have been invited to join %s", hospitalName)
	body := fmt.Sprintf(
		"Hello %s,\n\nYou have been invited to join %s. Set your password to activate your account:\n\n%s/set-password?token=%s\n",
		fullName, hospitalName, s.cfg.BaseURL, token,
	)
	return s.send(to, subject, body)
}

func (s *service) SendPasswordReset(ctx context.Context, to, token string) error {
	body := fmt.Sprintf(
		"A password reset was requested for this address. Reset it here:\n\n%s/update-password?token=%s\n\nIf you did not request this, ignore this email.",
		s.cfg.BaseURL, token,
	)
	return s.send(to, "Reset your password", body)
}

func (s *service) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		s.logger.Error(err, "failed to send email", "to", to, "subject", subject)
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
