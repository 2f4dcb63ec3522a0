package mailer

import (
	"errors"
	"fmt"
	"time"

	gomail "gopkg.in/mail.v2"
)

type SMTPClient struct {
	fromEmail string
	dialer    *gomail.Dialer
	backoff   time.Duration
}

func NewSMTPClient(host string, port int, username, password, fromEmail string) (*SMTPClient, error) {
	if host == "" {
		return nil, errors.New("smtp host is required")
	}
	if fromEmail == "" {
		return nil, errors.New("from email is required")
	}

	return &SMTPClient{
		fromEmail: fromEmail,
		dialer:    gomail.NewDialer(host, port, username, password),
		backoff:   time.Second,
	}, nil
}

func (m *SMTPClient) Send(templateFile, username, email string, data any) (int, error) {
	subject, body, err := Render(templateFile, data)
	if err != nil {
		return -1, err
	}

	message := gomail.NewMessage()
	message.SetAddressHeader("From", m.fromEmail, FromName)
	message.SetAddressHeader("To", email, username)
	message.SetHeader("Subject", subject)
	message.AddAlternative("text/html", body)

	var retryErr error
	for i := 0; i < maxRetires; i++ {
		retryErr = m.dialer.DialAndSend(message)
		if retryErr == nil {
			return 200, nil
		}

		// exponential backoff
		time.Sleep(m.backoff * time.Duration(1<<i))
	}

	return -1, fmt.Errorf("failed to send email after %d attempts, error: %v", maxRetires, retryErr)
}
