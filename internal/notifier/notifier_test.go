package notifier

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tx-monitor/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func twilioConfig(apiURL string) config.TwilioConfig {
	return config.TwilioConfig{
		AccountSID: "AC_test_sid",
		AuthToken:  "test_token",
		FromNumber: "+15550001111",
		AlertPhone: "+15559992222",
		APIURL:     apiURL,
		Timeout:    5 * time.Second,
	}
}

func TestTwilioNotifier_SendAlert_Success(t *testing.T) {
	var gotRequest *http.Request
	var gotForm map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotRequest = r
		gotForm = map[string]string{
			"To":   r.PostFormValue("To"),
			"From": r.PostFormValue("From"),
			"Body": r.PostFormValue("Body"),
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM123"}`))
	}))
	defer server.Close()

	notifier := NewTwilioNotifier(twilioConfig(server.URL), testLogger())

	err := notifier.SendAlert(context.Background(), "🚨 Fraud Detected!")

	assert.NoError(t, err)
	require.NotNil(t, gotRequest)

	assert.Equal(t, "/2010-04-01/Accounts/AC_test_sid/Messages.json", gotRequest.URL.Path)
	assert.Equal(t, http.MethodPost, gotRequest.Method)
	assert.Equal(t, "application/x-www-form-urlencoded", gotRequest.Header.Get("Content-Type"))

	username, password, ok := gotRequest.BasicAuth()
	assert.True(t, ok)
	assert.Equal(t, "AC_test_sid", username)
	assert.Equal(t, "test_token", password)

	assert.Equal(t, "+15559992222", gotForm["To"])
	assert.Equal(t, "+15550001111", gotForm["From"])
	assert.Equal(t, "🚨 Fraud Detected!", gotForm["Body"])
}

func TestTwilioNotifier_SendAlert_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code": 20003, "message": "Authenticate"}`))
	}))
	defer server.Close()

	notifier := NewTwilioNotifier(twilioConfig(server.URL), testLogger())

	err := notifier.SendAlert(context.Background(), "test")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "20003")
}

func TestTwilioNotifier_SendAlert_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer server.Close()

	notifier := NewTwilioNotifier(twilioConfig(server.URL), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := notifier.SendAlert(ctx, "test")

	assert.Error(t, err)
}

func TestTwilioNotifier_TrimsTrailingSlash(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2010-04-01/Accounts/AC_test_sid/Messages.json", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	notifier := NewTwilioNotifier(twilioConfig(server.URL+"/"), testLogger())

	assert.NoError(t, notifier.SendAlert(context.Background(), "test"))
}

func TestNoOpNotifier_SendAlert(t *testing.T) {
	notifier := NewNoOpNotifier(testLogger())

	assert.NoError(t, notifier.SendAlert(context.Background(), "anything"))
}
