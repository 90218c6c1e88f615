package mailer

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sophiabent/bookhaven/internal/model"
	"github.com/sophiabent/bookhaven/internal/store"
)

func TestResendClient_Send(t *testing.T) {
	var gotAuth string
	var gotBody sendRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(sendResponse{ID: "email_123"})
	}))
	defer srv.Close()

	c := NewResendClient("re_test_key", "BookHaven <hello@example.com>")
	c.endpoint = srv.URL

	err := c.Send(context.Background(), Message{
		To:      "reader@example.com",
		Subject: "Hello",
		HTML:    "<p>Hi</p>",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if gotAuth != "Bearer re_test_key" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotBody.From != "BookHaven <hello@example.com>" {
		t.Errorf("from = %q", gotBody.From)
	}
	if len(gotBody.To) != 1 || gotBody.To[0] != "reader@example.com" {
		t.Errorf("to = %v", gotBody.To)
	}
}

func TestResendClient_SendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(sendResponse{Message: "Invalid `to` address"})
	}))
	defer srv.Close()

	c := NewResendClient("re_test_key", "hello@example.com")
	c.endpoint = srv.URL

	err := c.Send(context.Background(), Message{To: "bad"})
	if err == nil {
		t.Fatal("expected error for 422 response")
	}
	if !strings.Contains(err.Error(), "Invalid `to` address") {
		t.Errorf("error %q does not carry API message", err)
	}
}

func TestEmailTemplates(t *testing.T) {
	msg := VerificationEmail("BookHaven", "Alice", "http://localhost/verify?token=abc")
	if msg.Subject != "Verify your email address" {
		t.Errorf("subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.HTML, "http://localhost/verify?token=abc") {
		t.Error("verification URL missing from body")
	}

	// User-supplied values must be escaped
	msg = ContactNotificationEmail("BookHaven", "<script>x</script>", "a@b.c", "hi")
	if strings.Contains(msg.HTML, "<script>") {
		t.Error("contact email did not escape sender name")
	}

	msg = CampaignEmail("BookHaven", "News", "<p>content</p>", "http://localhost/unsub")
	if !strings.Contains(msg.HTML, "<p>content</p>") {
		t.Error("campaign content not embedded")
	}
	if !strings.Contains(msg.HTML, "Unsubscribe") {
		t.Error("campaign missing unsubscribe link")
	}
}

// recordingClient captures sent messages for dispatcher tests.
type recordingClient struct {
	mu   sync.Mutex
	sent []Message
}

func (c *recordingClient) Send(_ context.Context, msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

func dispatcherTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := store.NewDB(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestDispatcher_Deliver(t *testing.T) {
	db := dispatcherTestDB(t)
	queries := store.New(db)
	ctx := context.Background()
	now := time.Now()

	for _, email := range []string{"a@example.com", "b@example.com"} {
		if _, err := queries.CreateSubscriber(ctx, email, now); err != nil {
			t.Fatalf("create subscriber: %v", err)
		}
	}
	// Inactive subscribers are skipped
	if _, err := queries.CreateSubscriber(ctx, "gone@example.com", now); err != nil {
		t.Fatalf("create subscriber: %v", err)
	}
	if err := queries.SetSubscriberActive(ctx, "gone@example.com", false, now); err != nil {
		t.Fatalf("deactivate subscriber: %v", err)
	}

	campaign, err := queries.CreateCampaign(ctx, store.CreateCampaignParams{
		Subject:   "Big News",
		Content:   "# Hello\n\nNew books are in.",
		Status:    model.CampaignStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("create campaign: %v", err)
	}

	client := &recordingClient{}
	d := NewDispatcher(db, client, nil, DispatcherConfig{
		SiteName: "BookHaven",
		BaseURL:  "http://localhost:8080",
	})

	if err := d.deliver(ctx, campaign.ID); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	client.mu.Lock()
	sent := len(client.sent)
	var firstHTML, firstSubject string
	if sent > 0 {
		firstHTML = client.sent[0].HTML
		firstSubject = client.sent[0].Subject
	}
	client.mu.Unlock()

	if sent != 2 {
		t.Fatalf("sent %d emails, want 2", sent)
	}
	if firstSubject != "Big News" {
		t.Errorf("subject = %q", firstSubject)
	}
	if !strings.Contains(firstHTML, "<h1") {
		t.Error("campaign markdown not rendered to HTML")
	}
	if !strings.Contains(firstHTML, "/api/newsletter?email=") {
		t.Error("unsubscribe link missing")
	}

	got, err := queries.GetCampaignByID(ctx, campaign.ID)
	if err != nil {
		t.Fatalf("get campaign: %v", err)
	}
	if got.Status != model.CampaignStatusSent {
		t.Errorf("status = %q, want sent", got.Status)
	}
	if got.Recipients != 2 {
		t.Errorf("recipients = %d, want 2", got.Recipients)
	}

	// A second delivery attempt finds the campaign already sent
	if err := d.deliver(ctx, campaign.ID); err != nil {
		t.Fatalf("second deliver: %v", err)
	}
	client.mu.Lock()
	total := len(client.sent)
	client.mu.Unlock()
	if total != 2 {
		t.Errorf("campaign delivered twice: %d emails", total)
	}
}

func TestDispatcher_EnqueueNotRunning(t *testing.T) {
	db := dispatcherTestDB(t)
	d := NewDispatcher(db, &recordingClient{}, nil, DispatcherConfig{})
	if d.Enqueue(1) {
		t.Error("Enqueue succeeded on stopped dispatcher")
	}
}
