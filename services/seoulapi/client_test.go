package seoulapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
)

// newEnvelope builds an upstream response body for rows [start, end] out of
// a fixed total.
func newEnvelope(service string, total, start, end int) string {
	rows := make([]map[string]string, 0)
	for i := start; i <= end && i <= total; i++ {
		rows = append(rows, map[string]string{
			"TITLE":    fmt.Sprintf("행사 %d", i),
			"CODENAME": "페스티벌",
			"STRTDATE": "2025-05-24 00:00:00.0",
		})
	}
	payload := map[string]any{
		service: map[string]any{
			"list_total_count": total,
			"row":              rows,
		},
	}
	b, _ := json.Marshal(payload)
	return string(b)
}

func newTestServer(t *testing.T, total int) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Path shape: /{key}/json/{service}/{start}/{end}
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 5 || parts[0] != "testkey" || parts[1] != "json" {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		start, _ := strconv.Atoi(parts[3])
		end, _ := strconv.Atoi(parts[4])
		fmt.Fprint(w, newEnvelope(parts[2], total, start, end))
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, "testkey", "culturalEventInfo", 10)
	return srv, client
}

func TestFetchPage(t *testing.T) {
	_, client := newTestServer(t, 25)

	rows, total, err := client.FetchPage(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}
	if total != 25 {
		t.Errorf("expected total 25, got %d", total)
	}
	if len(rows) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(rows))
	}
	if rows[0].Title != "행사 1" {
		t.Errorf("unexpected first row %q", rows[0].Title)
	}
}

func TestFetchPage_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "testkey", "culturalEventInfo", 10)
	_, _, err := client.FetchPage(context.Background(), 1, 10)
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("expected body excerpt in error, got %v", err)
	}
}

func TestFetchPage_LegacyEnvelopeKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Upstream answers with the literal culturalEventInfo key even
		// though another dataset was requested.
		fmt.Fprint(w, newEnvelope("culturalEventInfo", 1, 1, 1))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "testkey", "otherDataset", 10)
	rows, _, err := client.FetchPage(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
}

func TestFetchPage_MissingPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"RESULT": {"CODE": "INFO-200"}}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "testkey", "culturalEventInfo", 10)
	if _, _, err := client.FetchPage(context.Background(), 1, 10); err == nil {
		t.Fatal("expected error when the payload key is absent")
	}
}

func TestFetchAll_SinglePage(t *testing.T) {
	_, client := newTestServer(t, 7)

	rows, err := client.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if len(rows) != 7 {
		t.Fatalf("expected 7 rows, got %d", len(rows))
	}
}

func TestFetchAll_MultiplePagesInOrder(t *testing.T) {
	_, client := newTestServer(t, 25)

	rows, err := client.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if len(rows) != 25 {
		t.Fatalf("expected 25 rows, got %d", len(rows))
	}
	for i, row := range rows {
		want := fmt.Sprintf("행사 %d", i+1)
		if row.Title != want {
			t.Fatalf("row %d out of order: got %q, want %q", i, row.Title, want)
		}
	}
}
