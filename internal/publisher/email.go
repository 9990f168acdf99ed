package publisher

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/ryosukesatoh/daily-brief/internal/summarizer"
)

// EmailPublisher sends the analysis as the mail body with the rendered
// document attached.
type EmailPublisher struct {
	host          string
	port          int
	username      string
	password      string
	from          string
	to            []string
	subjectPrefix string
	timeout       time.Duration
}

func NewEmailPublisher(host string, port int, username, password, from string, to []string, subjectPrefix string, timeout time.Duration) *EmailPublisher {
	return &EmailPublisher{
		host:          host,
		port:          port,
		username:      username,
		password:      password,
		from:          from,
		to:            to,
		subjectPrefix: subjectPrefix,
		timeout:       timeout,
	}
}

func (p *EmailPublisher) Publish(ctx context.Context, digest *summarizer.Digest) error {
	msg, err := p.buildMessage(digest)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(p.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(p.username),
		mail.WithPassword(p.password),
		mail.WithTimeout(p.timeout),
	}
	if p.port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}

	client, err := mail.NewClient(p.host, opts...)
	if err != nil {
		return fmt.Errorf("email: failed to create client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("email: failed to send: %w", err)
	}

	return nil
}

func (p *EmailPublisher) subject(digest *summarizer.Digest) string {
	return fmt.Sprintf("%s - %s", p.subjectPrefix, digest.Date.Format("02/01/2006"))
}

func (p *EmailPublisher) buildMessage(digest *summarizer.Digest) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(p.from); err != nil {
		return nil, fmt.Errorf("email: invalid from address: %w", err)
	}
	if err := msg.To(p.to...); err != nil {
		return nil, fmt.Errorf("email: invalid recipient: %w", err)
	}
	msg.Subject(p.subject(digest))
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextPlain, digest.Analysis)
	msg.AddAlternativeString(mail.TypeTextHTML, buildHTMLBody(digest))

	if digest.DocumentPath != "" {
		if _, err := os.Stat(digest.DocumentPath); err != nil {
			return nil, fmt.Errorf("email: attachment unavailable: %w", err)
		}
		msg.AttachFile(digest.DocumentPath)
	}

	return msg, nil
}
