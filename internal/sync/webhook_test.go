package sync

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTriggerer struct {
	triggered int
}

func (f *fakeTriggerer) Trigger() { f.triggered++ }

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(t *testing.T, h *WebhookHandler, event, signature, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/github", strings.NewReader(body))
	req.Header.Set("X-GitHub-Event", event)
	req.Header.Set("X-GitHub-Delivery", "delivery-1")
	if signature != "" {
		req.Header.Set("X-Hub-Signature-256", signature)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWebhookTriggersSyncOnTrackedBranchPush(t *testing.T) {
	trig := &fakeTriggerer{}
	h := NewWebhookHandler("s3cret", trig, "main", nil)

	body := `{"ref": "refs/heads/main", "before": "aaaaaaaaaaaa", "after": "bbbbbbbbbbbb", "pusher": {"name": "alice"}}`
	rec := postWebhook(t, h, "push", sign("s3cret", []byte(body)), body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "accepted")
	assert.Equal(t, 1, trig.triggered)
}

func TestWebhookRejectsInvalidSignature(t *testing.T) {
	trig := &fakeTriggerer{}
	h := NewWebhookHandler("s3cret", trig, "main", nil)

	body := `{"ref": "refs/heads/main"}`

	t.Run("wrong secret", func(t *testing.T) {
		rec := postWebhook(t, h, "push", sign("wrong", []byte(body)), body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing signature", func(t *testing.T) {
		rec := postWebhook(t, h, "push", "", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed signature", func(t *testing.T) {
		rec := postWebhook(t, h, "push", "md5=abc", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	assert.Zero(t, trig.triggered)
}

func TestWebhookIgnoresOtherBranches(t *testing.T) {
	trig := &fakeTriggerer{}
	h := NewWebhookHandler("s3cret", trig, "main", nil)

	body := `{"ref": "refs/heads/feature", "before": "aaaaaaaaaaaa", "after": "bbbbbbbbbbbb"}`
	rec := postWebhook(t, h, "push", sign("s3cret", []byte(body)), body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "different branch")
	assert.Zero(t, trig.triggered)
}

func TestWebhookIgnoresNonPushEvents(t *testing.T) {
	trig := &fakeTriggerer{}
	h := NewWebhookHandler("s3cret", trig, "main", nil)

	body := `{"zen": "Design for failure."}`
	rec := postWebhook(t, h, "ping", sign("s3cret", []byte(body)), body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "not a push event")
	assert.Zero(t, trig.triggered)
}

func TestWebhookRejectsBadPayload(t *testing.T) {
	trig := &fakeTriggerer{}
	h := NewWebhookHandler("s3cret", trig, "main", nil)

	body := "not json"
	rec := postWebhook(t, h, "push", sign("s3cret", []byte(body)), body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookMethodNotAllowed(t *testing.T) {
	h := NewWebhookHandler("s3cret", &fakeTriggerer{}, "main", nil)

	req := httptest.NewRequest(http.MethodGet, "/webhooks/github", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestShortSHA(t *testing.T) {
	assert.Equal(t, "abcdefgh", shortSHA("abcdefghij"))
	assert.Equal(t, "abc", shortSHA("abc"))
	assert.Equal(t, "", shortSHA(""))
}
