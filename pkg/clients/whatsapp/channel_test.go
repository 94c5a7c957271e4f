package whatsapp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/dpr/internal/config"
	"github.com/mamadbah2/dpr/internal/domain/models"
)

type recordedRequest struct {
	path        string
	contentType string
	body        string
}

type graphStub struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	errBody  string
}

func (g *graphStub) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	g.mu.Lock()
	g.requests = append(g.requests, recordedRequest{path: r.URL.Path, contentType: r.Header.Get("Content-Type"), body: string(body)})
	g.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if g.status != 0 {
		w.WriteHeader(g.status)
		_, _ = io.WriteString(w, g.errBody)
		return
	}
	if strings.HasSuffix(r.URL.Path, "/media") {
		_, _ = io.WriteString(w, `{"id":"media-42"}`)
		return
	}
	_, _ = io.WriteString(w, `{"messages":[{"id":"wamid.1"}]}`)
}

func newStubChannel(t *testing.T, stub *graphStub) *DocumentChannel {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(stub.handler))
	t.Cleanup(srv.Close)

	cfg := config.WhatsAppConfig{AccessToken: "token", PhoneNumberID: "12345", BaseURL: srv.URL, APIVersion: "v20.0"}
	return NewDocumentChannel(NewClient(cfg), cfg)
}

func reportMessage() models.OutboundMessage {
	return models.OutboundMessage{
		To:             models.Recipient{Email: "pm@example.com", Phone: "+919800000000"},
		Subject:        "MAHSR-T3 Daily Progress Report - 28-05-2025",
		HTMLBody:       "<p>report</p>",
		Attachment:     []byte("workbook"),
		AttachmentName: "28052025-DPR.xlsx",
	}
}

func TestSendUploadsThenSendsDocument(t *testing.T) {
	stub := &graphStub{}
	ch := newStubChannel(t, stub)

	require.NoError(t, ch.Send(context.Background(), reportMessage()))
	require.Len(t, stub.requests, 2)

	upload := stub.requests[0]
	assert.Equal(t, "/v20.0/12345/media", upload.path)
	assert.Contains(t, upload.contentType, "multipart/form-data")
	assert.Contains(t, upload.body, "28052025-DPR.xlsx")

	send := stub.requests[1]
	assert.Equal(t, "/v20.0/12345/messages", send.path)
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(send.body), &payload))
	assert.Equal(t, "919800000000", payload["to"])
	assert.Equal(t, "document", payload["type"])
	doc := payload["document"].(map[string]any)
	assert.Equal(t, "media-42", doc["id"])
	assert.Equal(t, "28052025-DPR.xlsx", doc["filename"])
}

func TestSendWithoutAttachmentSendsText(t *testing.T) {
	stub := &graphStub{}
	ch := newStubChannel(t, stub)

	msg := reportMessage()
	msg.Attachment = nil
	msg.HTMLBody = "<h2>DPR</h2><p>It works.</p>"
	require.NoError(t, ch.Send(context.Background(), msg))

	require.Len(t, stub.requests, 1)
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(stub.requests[0].body), &payload))
	assert.Equal(t, "text", payload["type"])
	text := payload["text"].(map[string]any)
	assert.Contains(t, text["body"], "DPR It works.")
}

func TestSendClassifiesAPIErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   models.ErrorClass
	}{
		{"expired token", http.StatusBadRequest, `{"error":{"message":"Error validating access token","code":190}}`, models.ErrorClassAuth},
		{"forbidden", http.StatusForbidden, `{"error":{"message":"forbidden","code":10}}`, models.ErrorClassAuth},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down","code":4}}`, models.ErrorClassTransient},
		{"server", http.StatusBadGateway, `{}`, models.ErrorClassTransient},
		{"bad recipient", http.StatusBadRequest, `{"error":{"message":"invalid parameter","code":100}}`, models.ErrorClassUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &graphStub{status: tt.status, errBody: tt.body}
			ch := newStubChannel(t, stub)

			err := ch.Send(context.Background(), reportMessage())
			var de *models.DeliveryError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.want, de.Class)
		})
	}
}

func TestSendRequiresPhone(t *testing.T) {
	stub := &graphStub{}
	ch := newStubChannel(t, stub)

	msg := reportMessage()
	msg.To.Phone = ""
	assert.Error(t, ch.Send(context.Background(), msg))
	assert.Empty(t, stub.requests)
}

func TestCheckCredentials(t *testing.T) {
	ch := NewDocumentChannel(nil, config.WhatsAppConfig{PhoneNumberID: "1"})
	err := ch.CheckCredentials()
	var cfgErr *models.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "WHATSAPP_TOKEN", cfgErr.Setting)

	assert.NoError(t, NewDocumentChannel(nil, config.WhatsAppConfig{AccessToken: "t", PhoneNumberID: "1"}).CheckCredentials())
}
