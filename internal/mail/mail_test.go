package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookSender_PostsJSON(t *testing.T) {
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewWebhookSender(srv.URL)
	msg := Message{From: "noreply@example.com", To: "bob@example.com", Subject: "hi", Body: "hello"}
	require.NoError(t, s.Send(context.Background(), msg))
	assert.Equal(t, msg, got)
}

func TestWebhookSender_RelayFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhookSender(srv.URL).Send(context.Background(), Message{To: "x@example.com"})
	assert.ErrorContains(t, err, "502")
}

func TestNewSender(t *testing.T) {
	assert.IsType(t, LogSender{}, NewSender(""))
	assert.IsType(t, &WebhookSender{}, NewSender("http://relay.local/send"))
	assert.NoError(t, LogSender{}.Send(context.Background(), Message{}))
}
