package webhook

import (
	"encoding/json"
	"time"

	"tx-monitor/internal/custom_err"
)

const (
	TypeCheckoutCompleted = "checkout.session.completed"
	TypePaymentFailed     = "payment_intent.payment_failed"
)

// Event типизированное событие шлюза. Ровно одно из полей Session/Intent
// заполнено в зависимости от Type; для неизвестных типов оба nil
// (forward compatibility: такие события игнорируются с HTTP 200).
type Event struct {
	ID      string
	Type    string
	Created time.Time

	Session *CheckoutSession
	Intent  *PaymentIntent
}

// CheckoutSession объект события checkout.session.completed.
// AmountTotal приходит в минорных единицах (центах).
type CheckoutSession struct {
	ID            string `json:"id"`
	AmountTotal   int64  `json:"amount_total"`
	PaymentStatus string `json:"payment_status"`
	Customer      string `json:"customer"`
}

// PaymentIntent объект события payment_intent.payment_failed.
type PaymentIntent struct {
	Amount           int64  `json:"amount"`
	Customer         string `json:"customer"`
	ReceiptEmail     string `json:"receipt_email"`
	LastPaymentError struct {
		Message string `json:"message"`
	} `json:"last_payment_error"`
}

type eventEnvelope struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// ParseEvent валидирует поля на границе, до обращения бизнес-логики к данным.
func ParseEvent(payload []byte) (*Event, error) {
	var envelope eventEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, custom_err.ErrInvalidPayload
	}
	if envelope.ID == "" || envelope.Type == "" {
		return nil, custom_err.ErrInvalidPayload
	}

	event := &Event{
		ID:   envelope.ID,
		Type: envelope.Type,
	}
	// Без created в событии оставляем нулевое время: сервис подставит
	// момент приема вместо эпохи 1970 года
	if envelope.Created > 0 {
		event.Created = time.Unix(envelope.Created, 0).UTC()
	}

	switch envelope.Type {
	case TypeCheckoutCompleted:
		var session CheckoutSession
		if err := json.Unmarshal(envelope.Data.Object, &session); err != nil {
			return nil, custom_err.ErrInvalidPayload
		}
		event.Session = &session

	case TypePaymentFailed:
		var intent PaymentIntent
		if err := json.Unmarshal(envelope.Data.Object, &intent); err != nil {
			return nil, custom_err.ErrInvalidPayload
		}
		event.Intent = &intent
	}

	return event, nil
}
