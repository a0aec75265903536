package email

import (
	"fmt"
	"net/smtp"

	"github.com/Dan9191/user-service/internal/config"
	"github.com/Dan9191/user-service/internal/models"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// UserCreated sends a welcome email to a newly registered user
func (s *Sender) UserCreated(user *models.User) {
	body := fmt.Sprintf(
		"Dear %s %s,\n\n"+
			"Your account has been created. It is currently inactive;\n"+
			"it will be activated after verification.\n"+
			"\nBest regards,\nUser Service",
		user.Name, user.Surname,
	)
	s.send(user.Email, "Welcome to User Service", body)
}

// CardIssued sends a notification about a freshly issued card
func (s *Sender) CardIssued(user *models.User, card *models.Card) {
	last4 := card.Number
	if len(last4) > 4 {
		last4 = last4[len(last4)-4:]
	}
	body := fmt.Sprintf(
		"Dear %s %s,\n\n"+
			"A new payment card ending in %s has been issued for your account.\n"+
			"The card is inactive until you activate it.\n"+
			"Valid through: %s\n"+
			"\nBest regards,\nUser Service",
		user.Name, user.Surname, last4, card.ExpirationDate.Format("2006-01-02"),
	)
	s.send(user.Email, "New Card Issued", body)
}

func (s *Sender) send(to, subject, body string) {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return
	}

	s.logger.Infof("Email sent to %s: %s", to, subject)
}
