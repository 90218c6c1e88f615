package render

import (
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/sophiabent/bookhaven/internal/model"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"layouts/base.html": {Data: []byte(
			`{{define "base"}}<html><title>{{.Title}}</title>{{block "content" .}}{{end}}</html>{{end}}`)},
		"layouts/admin.html": {Data: []byte(
			`{{define "adminShell"}}<nav>admin</nav>{{end}}`)},
		"layouts/dashboard.html": {Data: []byte(
			`{{define "dashShell"}}<nav>dashboard</nav>{{end}}`)},
		"partials/flash.html": {Data: []byte(
			`{{define "flash"}}{{if .Flash}}<div class="{{.FlashType}}">{{.Flash}}</div>{{end}}{{end}}`)},
		"site/home.html": {Data: []byte(
			`{{define "content"}}{{template "flash" .}}<h1>{{siteName}}</h1>{{end}}`)},
		"admin/users.html": {Data: []byte(
			`{{define "content"}}{{template "adminShell" .}}{{if .IsAdmin}}users{{end}}{{end}}`)},
	}
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New(Config{
		TemplatesFS: testFS(),
		SiteName:    "BookHaven",
		BaseURL:     "http://localhost:3000",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestRender_SitePage(t *testing.T) {
	r := newTestRenderer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	err := r.Render(w, req, "site/home", TemplateData{Title: "Home"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	body := w.Body.String()
	if !strings.Contains(body, "<title>Home</title>") {
		t.Errorf("missing title in output: %s", body)
	}
	if !strings.Contains(body, "<h1>BookHaven</h1>") {
		t.Errorf("siteName func not applied: %s", body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("unexpected content type %q", ct)
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	r := newTestRenderer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	if err := r.Render(w, req, "site/missing", TemplateData{}); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestRender_AdminLayout(t *testing.T) {
	r := newTestRenderer(t)

	admin := &model.User{ID: 1, Role: model.RoleAdmin}
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/admin/users", nil)
	if err := r.Render(w, req, "admin/users", TemplateData{Title: "Users", User: admin}); err != nil {
		t.Fatalf("Render: %v", err)
	}

	body := w.Body.String()
	if !strings.Contains(body, "<nav>admin</nav>") {
		t.Errorf("admin layout not included: %s", body)
	}
	if !strings.Contains(body, "users") {
		t.Errorf("IsAdmin gate failed for admin user: %s", body)
	}
}

func TestTemplateData_RoleHelpers(t *testing.T) {
	var d TemplateData
	if d.IsAuthenticated() || d.IsAdmin() {
		t.Error("empty data should not be authenticated or admin")
	}

	d.User = &model.User{ID: 2, Role: model.RoleUser}
	if !d.IsAuthenticated() {
		t.Error("user should be authenticated")
	}
	if d.IsAdmin() {
		t.Error("regular user should not be admin")
	}

	d.User.Role = model.RoleAdmin
	if !d.IsAdmin() {
		t.Error("admin user should be admin")
	}
}

func TestMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains string
		excludes string
	}{
		{"heading", "# Title", "<h1", ""},
		{"emphasis", "some *emphasis* here", "<em>emphasis</em>", ""},
		{"gfm table", "| a | b |\n|---|---|\n| 1 | 2 |", "<table>", ""},
		{"script stripped", "hello <script>alert(1)</script>", "hello", "<script>"},
		{"link kept", "[home](https://example.com)", `href="https://example.com"`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(Markdown(tt.input))
			if tt.contains != "" && !strings.Contains(got, tt.contains) {
				t.Errorf("Markdown(%q) = %q, want it to contain %q", tt.input, got, tt.contains)
			}
			if tt.excludes != "" && strings.Contains(got, tt.excludes) {
				t.Errorf("Markdown(%q) = %q, must not contain %q", tt.input, got, tt.excludes)
			}
		})
	}
}
