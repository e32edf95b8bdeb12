package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tx-monitor/internal/custom_err"
)

const testSecret = "whsec_test_secret"

func signPayload(secret string, timestamp int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func fixedVerifier(secret string, now time.Time) *Verifier {
	v := NewVerifier(secret, 5*time.Minute)
	v.now = func() time.Time { return now }
	return v
}

func TestVerifier_Verify_ValidSignature(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	verifier := fixedVerifier(testSecret, now)

	payload := []byte(`{"id":"evt_001","type":"checkout.session.completed"}`)
	header := signPayload(testSecret, now.Unix(), payload)

	assert.NoError(t, verifier.Verify(payload, header))
}

func TestVerifier_Verify_TamperedPayload(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	verifier := fixedVerifier(testSecret, now)

	payload := []byte(`{"id":"evt_001"}`)
	header := signPayload(testSecret, now.Unix(), payload)

	tampered := []byte(`{"id":"evt_666"}`)

	assert.ErrorIs(t, verifier.Verify(tampered, header), custom_err.ErrInvalidSignature)
}

func TestVerifier_Verify_WrongSecret(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	verifier := fixedVerifier(testSecret, now)

	payload := []byte(`{"id":"evt_001"}`)
	header := signPayload("whsec_other", now.Unix(), payload)

	assert.ErrorIs(t, verifier.Verify(payload, header), custom_err.ErrInvalidSignature)
}

func TestVerifier_Verify_StaleTimestamp(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	verifier := fixedVerifier(testSecret, now)

	payload := []byte(`{"id":"evt_001"}`)
	stale := now.Add(-10 * time.Minute).Unix()
	header := signPayload(testSecret, stale, payload)

	assert.ErrorIs(t, verifier.Verify(payload, header), custom_err.ErrInvalidSignature)
}

func TestVerifier_Verify_FutureTimestamp(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	verifier := fixedVerifier(testSecret, now)

	payload := []byte(`{"id":"evt_001"}`)
	future := now.Add(10 * time.Minute).Unix()
	header := signPayload(testSecret, future, payload)

	assert.ErrorIs(t, verifier.Verify(payload, header), custom_err.ErrInvalidSignature)
}

func TestVerifier_Verify_MalformedHeaders(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	verifier := fixedVerifier(testSecret, now)
	payload := []byte(`{"id":"evt_001"}`)

	tests := []struct {
		name   string
		header string
	}{
		{"empty header", ""},
		{"no signature", fmt.Sprintf("t=%d", now.Unix())},
		{"no timestamp", "v1=deadbeef"},
		{"garbage", "totally-not-a-header"},
		{"non-numeric timestamp", "t=abc,v1=deadbeef"},
		{"non-hex signature", fmt.Sprintf("t=%d,v1=zzzz", now.Unix())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, verifier.Verify(payload, tt.header), custom_err.ErrInvalidSignature)
		})
	}
}

func TestVerifier_Verify_SecondSignatureMatches(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	verifier := fixedVerifier(testSecret, now)

	payload := []byte(`{"id":"evt_001"}`)

	mac := hmac.New(sha256.New, []byte(testSecret))
	fmt.Fprintf(mac, "%d.", now.Unix())
	mac.Write(payload)
	validSig := hex.EncodeToString(mac.Sum(nil))

	// Шлюз шлет несколько v1 при ротации секрета, достаточно одного совпадения
	header := fmt.Sprintf("t=%d,v1=00ff00ff,v1=%s", now.Unix(), validSig)

	assert.NoError(t, verifier.Verify(payload, header))
}

func TestParseEvent_CheckoutCompleted(t *testing.T) {
	payload := []byte(`{
		"id": "evt_001",
		"type": "checkout.session.completed",
		"created": 1748779200,
		"data": {"object": {
			"id": "cs_test_001",
			"amount_total": 5000,
			"payment_status": "paid",
			"customer": "cus_123"
		}}
	}`)

	event, err := ParseEvent(payload)

	assert.NoError(t, err)
	assert.Equal(t, "evt_001", event.ID)
	assert.Equal(t, TypeCheckoutCompleted, event.Type)
	assert.NotNil(t, event.Session)
	assert.Nil(t, event.Intent)
	assert.Equal(t, int64(5000), event.Session.AmountTotal)
	assert.Equal(t, "paid", event.Session.PaymentStatus)
	assert.Equal(t, int64(1748779200), event.Created.Unix())
}

func TestParseEvent_PaymentFailed(t *testing.T) {
	payload := []byte(`{
		"id": "evt_002",
		"type": "payment_intent.payment_failed",
		"created": 1748779200,
		"data": {"object": {
			"amount": 2000,
			"customer": "cus_456",
			"receipt_email": "buyer@example.com",
			"last_payment_error": {"message": "card_declined"}
		}}
	}`)

	event, err := ParseEvent(payload)

	assert.NoError(t, err)
	assert.Equal(t, TypePaymentFailed, event.Type)
	assert.NotNil(t, event.Intent)
	assert.Nil(t, event.Session)
	assert.Equal(t, int64(2000), event.Intent.Amount)
	assert.Equal(t, "card_declined", event.Intent.LastPaymentError.Message)
}

func TestParseEvent_MissingCreatedLeavesZeroTime(t *testing.T) {
	payload := []byte(`{
		"id": "evt_006",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_test_006",
			"amount_total": 5000,
			"payment_status": "paid"
		}}
	}`)

	event, err := ParseEvent(payload)

	assert.NoError(t, err)
	// Нулевое время, а не эпоха 1970: его распознает фолбэк на момент приема
	assert.True(t, event.Created.IsZero())
}

func TestParseEvent_UnknownTypePassesThrough(t *testing.T) {
	payload := []byte(`{"id":"evt_003","type":"invoice.created","created":1748779200,"data":{"object":{}}}`)

	event, err := ParseEvent(payload)

	assert.NoError(t, err)
	assert.Equal(t, "invoice.created", event.Type)
	assert.Nil(t, event.Session)
	assert.Nil(t, event.Intent)
}

func TestParseEvent_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", "not json at all"},
		{"missing id", `{"type":"checkout.session.completed","data":{"object":{}}}`},
		{"missing type", `{"id":"evt_004","data":{"object":{}}}`},
		{"bad nested object", `{"id":"evt_005","type":"checkout.session.completed","data":{"object":"nope"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := ParseEvent([]byte(tt.payload))

			assert.Nil(t, event)
			assert.ErrorIs(t, err, custom_err.ErrInvalidPayload)
		})
	}
}
