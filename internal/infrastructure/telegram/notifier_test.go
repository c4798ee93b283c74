package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifySendsFormEncodedMessage(t *testing.T) {
	t.Parallel()

	var gotPath, gotChat, gotText, gotMode string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotPath = r.URL.Path
		gotChat = r.PostFormValue("chat_id")
		gotText = r.PostFormValue("text")
		gotMode = r.PostFormValue("parse_mode")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewNotifier("bot-secret", "4242")
	n.baseURL = server.URL
	n.client = server.Client()

	err := n.Notify(context.Background(), "*Discovery complete* for @dev_jules")
	require.NoError(t, err)

	assert.Equal(t, "/botbot-secret/sendMessage", gotPath)
	assert.Equal(t, "4242", gotChat)
	assert.Equal(t, "*Discovery complete* for @dev_jules", gotText)
	assert.Equal(t, "Markdown", gotMode)
}

func TestNotifySurfacesAPIErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	n := NewNotifier("token", "1")
	n.baseURL = server.URL
	n.client = server.Client()

	err := n.Notify(context.Background(), "digest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestNotifyRequiresConfiguration(t *testing.T) {
	t.Parallel()

	err := NewNotifier("", "").Notify(context.Background(), "digest")
	require.Error(t, err)
}
