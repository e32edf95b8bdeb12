package notifier

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"tx-monitor/internal/config"
)

// Notifier абстракция исходящих алертов оператору. Вызовы best-effort:
// падение нотификации логируется вызывающим и никогда не откатывает запись.
type Notifier interface {
	SendAlert(ctx context.Context, body string) error
}

// TwilioNotifier отправляет SMS через Twilio Messages API.
// Клиент создается один раз на процесс с конфигурацией, без глобальных хэндлов.
type TwilioNotifier struct {
	client     *http.Client
	accountSID string
	authToken  string
	fromNumber string
	alertPhone string
	apiURL     string
	log        *slog.Logger
}

func NewTwilioNotifier(cfg config.TwilioConfig, log *slog.Logger) *TwilioNotifier {
	return &TwilioNotifier{
		client:     &http.Client{Timeout: cfg.Timeout},
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		fromNumber: cfg.FromNumber,
		alertPhone: cfg.AlertPhone,
		apiURL:     strings.TrimRight(cfg.APIURL, "/"),
		log:        log,
	}
}

func (n *TwilioNotifier) SendAlert(ctx context.Context, body string) error {
	const op = "notifier.SendAlert"

	form := url.Values{}
	form.Set("To", n.alertPhone)
	form.Set("From", n.fromNumber)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", n.apiURL, n.accountSID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.SetBasicAuth(n.accountSID, n.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: twilio responded %d: %s", op, resp.StatusCode, string(snippet))
	}

	n.log.Debug("SMS-алерт отправлен", slog.String("to", n.alertPhone))
	return nil
}

// NoOpNotifier используется, когда Twilio выключен в конфигурации
type NoOpNotifier struct {
	log *slog.Logger
}

func NewNoOpNotifier(log *slog.Logger) *NoOpNotifier {
	return &NoOpNotifier{log: log}
}

func (n *NoOpNotifier) SendAlert(ctx context.Context, body string) error {
	n.log.Debug("twilio отключен, алерт не отправлен", slog.String("body", body))
	return nil
}
