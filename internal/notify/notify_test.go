package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mentoresestrategicos/kontify-brain/internal/diagnostic"
	"github.com/mentoresestrategicos/kontify-brain/internal/lead"
)

func testEvent() *Event {
	return &Event{
		RequestID:  "a1b2c3d4",
		ReceivedAt: time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
		Lead: lead.Metadata{
			Company:  "Grupo Altavista",
			Niche:    "holding",
			Contact:  "Laura Méndez",
			Email:    "laura@altavista.mx",
			Phone:    "5588001122",
			RFC:      "GAL0102034T5",
			Activity: "Inmobiliario",
		},
		Diagnostic: diagnostic.Result{
			Risk:         diagnostic.RiskAssessment{Score: 82, Level: "CRÍTICO"},
			AdminSummary: "Lead caliente con activos expuestos",
		},
		ReportURL: "https://kontify.mx/reports/KONTIFY_Grupo_Altavista_a1b2c3d4.pdf",
	}
}

func TestRecommendedService(t *testing.T) {
	if got := RecommendedService(82); got != serviceGold {
		t.Errorf("score 82 = %q, want %q", got, serviceGold)
	}
	if got := RecommendedService(70); got != serviceNiche {
		t.Errorf("score 70 = %q, want %q (boundary is exclusive)", got, serviceNiche)
	}
	if got := RecommendedService(12); got != serviceNiche {
		t.Errorf("score 12 = %q, want %q", got, serviceNiche)
	}
}

func TestBuildRowLayout(t *testing.T) {
	row := BuildRow(testEvent())
	if len(row) != 12 {
		t.Fatalf("row has %d columns, want 12 (A through L)", len(row))
	}
	want := []string{
		"2026-03-14 10:30:00",
		"Grupo Altavista",
		"holding",
		"Laura Méndez",
		"laura@altavista.mx",
		"5588001122",
		"82.0",
		"Lead caliente con activos expuestos",
		serviceGold,
		"https://kontify.mx/reports/KONTIFY_Grupo_Altavista_a1b2c3d4.pdf",
		"GAL0102034T5",
		"Inmobiliario",
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("column %c = %q, want %q", 'A'+i, row[i], want[i])
		}
	}
}

func TestBuildRowTruncatesSummary(t *testing.T) {
	ev := testEvent()
	ev.Diagnostic.AdminSummary = strings.Repeat("x", 400)
	row := BuildRow(ev)
	if len(row[7]) != summaryMaxLen {
		t.Errorf("summary column length = %d, want %d", len(row[7]), summaryMaxLen)
	}
}

func TestSheetsClientAppendRow(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.WriteHeader(200)
	}))
	defer srv.Close()

	c := NewSheetsClient("sheet-123", "tok-456")
	c.SetBaseURL(srv.URL)
	if err := c.AppendRow(context.Background(), []string{"a", "b"}); err != nil {
		t.Fatalf("AppendRow: %v", err)
	}
	if !strings.Contains(gotPath, "/v4/spreadsheets/sheet-123/values/") {
		t.Errorf("path = %q", gotPath)
	}
	if !strings.Contains(gotPath, "valueInputOption=USER_ENTERED") {
		t.Errorf("missing valueInputOption, path = %q", gotPath)
	}
	if gotAuth != "Bearer tok-456" {
		t.Errorf("auth = %q", gotAuth)
	}
	values, ok := gotBody["values"].([]any)
	if !ok || len(values) != 1 {
		t.Fatalf("body values = %v", gotBody["values"])
	}
}

func TestSheetsClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewSheetsClient("sheet-123", "tok-456")
	c.SetBaseURL(srv.URL)
	err := c.AppendRow(context.Background(), []string{"a"})
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestSlackWebhookPost(t *testing.T) {
	var gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		gotText = payload["text"]
		w.WriteHeader(200)
	}))
	defer srv.Close()

	wh := NewSlackWebhook(srv.URL)
	if err := wh.Post(context.Background(), "Nuevo lead"); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if gotText != "Nuevo lead" {
		t.Errorf("text = %q", gotText)
	}
}

func TestSendGridClientSend(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/mail/send" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(202)
	}))
	defer srv.Close()

	c := NewSendGridClient("sg-key", "noreply@kontify.mx")
	c.SetBaseURL(srv.URL)
	if err := c.Send(context.Background(), "laura@altavista.mx", "Diagnóstico", "Hola"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	from, _ := gotBody["from"].(map[string]any)
	if from["email"] != "noreply@kontify.mx" {
		t.Errorf("from = %v", from)
	}
}

func TestNotifyAllSwallowsFailures(t *testing.T) {
	srvOK := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	}))
	defer srvOK.Close()
	srvFail := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srvFail.Close()

	sheets := NewSheetsClient("sheet-123", "tok-456")
	sheets.SetBaseURL(srvFail.URL)
	email := NewSendGridClient("sg-key", "noreply@kontify.mx")
	email.SetBaseURL(srvOK.URL)

	n := NewNotifier(NewSlackWebhook(srvOK.URL), sheets, email, zap.NewNop())
	out := n.NotifyAll(context.Background(), testEvent())
	if !out.WebhookOK {
		t.Error("webhook should have succeeded")
	}
	if out.SheetsOK {
		t.Error("sheets failure must be reported in the outcome")
	}
	if !out.EmailOK {
		t.Error("email should have succeeded despite the sheets failure")
	}
}

func TestNotifyAllSkipsUnconfiguredAndSentinelEmail(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(200)
	}))
	defer srv.Close()

	email := NewSendGridClient("sg-key", "noreply@kontify.mx")
	email.SetBaseURL(srv.URL)
	n := NewNotifier(NewSlackWebhook(""), NewSheetsClient("", ""), email, zap.NewNop())

	ev := testEvent()
	ev.Lead.Email = lead.Sentinel
	out := n.NotifyAll(context.Background(), ev)
	if out.WebhookOK || out.SheetsOK || out.EmailOK {
		t.Errorf("nothing should have run, outcome = %+v", out)
	}
	if calls != 0 {
		t.Errorf("sentinel email still triggered %d calls", calls)
	}
}
