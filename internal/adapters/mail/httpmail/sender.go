package httpmail

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"zoo-management/internal/platform/httpclient"
	"zoo-management/internal/ports/mail"
)

type Config struct {
	BaseURL string
	APIKey  string
	From    string
	Timeout time.Duration
	Retries int
}

// Sender entrega correos a un servicio HTTP de envío (POST /messages).
type Sender struct {
	client *httpclient.Client
	apiKey string
	from   string
}

func New(cfg Config) (*Sender, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("mail base url required")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, errors.New("mail from address required")
	}
	c, err := httpclient.NewWithBaseURL(cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	c.Retries = cfg.Retries
	return &Sender{
		client: c,
		apiKey: strings.TrimSpace(cfg.APIKey),
		from:   cfg.From,
	}, nil
}

type messageRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	Tag     string `json:"tag,omitempty"`
}

func (s *Sender) Send(ctx context.Context, msg mail.Message) error {
	headers := map[string]string{}
	if s.apiKey != "" {
		headers["Authorization"] = "Bearer " + s.apiKey
	}
	return s.client.DoJSON(ctx, http.MethodPost, "/messages", headers, messageRequest{
		From:    s.from,
		To:      msg.To,
		Subject: msg.Subject,
		Text:    msg.Body,
		Tag:     msg.Tag,
	}, nil)
}
