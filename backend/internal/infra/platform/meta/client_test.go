package meta

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetchAdInsightsFollowsPaging(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/v19.0/act_123/insights":
			q := r.URL.Query()
			if q.Get("level") != "ad" || q.Get("date_preset") != "last_7d" || q.Get("access_token") != "tok" {
				t.Fatalf("unexpected query %v", q)
			}
			if !strings.Contains(q.Get("fields"), "actions") {
				t.Fatalf("fields should request actions: %s", q.Get("fields"))
			}
			_, _ = w.Write([]byte(`{"data":[{"ad_id":"1","ad_name":"Spring Sale","adset_id":"as-1","impressions":"1000","clicks":"50","spend":"25.00","actions":[{"action_type":"purchase","value":"3"},{"action_type":"link_click","value":"50"},{"action_type":"lead","value":"2"}]}],"paging":{"next":"` + server.URL + `/page2"}}`))
		case r.URL.Path == "/page2":
			_, _ = w.Write([]byte(`{"data":[{"ad_id":"2","ad_name":"Summer","adset_id":"as-1","impressions":"10","clicks":"0","spend":"1"}],"paging":{}}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	rows, err := client.FetchAdInsights(context.Background(), "tok", "act_123", "last_7d")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows across pages, got %d", len(rows))
	}
	if rows[0].AdName != "Spring Sale" || rows[0].AdSetID != "as-1" {
		t.Fatalf("unexpected first row %+v", rows[0])
	}
	if got := rows[0].Conversions(); got != 5 {
		t.Fatalf("expected 5 conversions, got %d", got)
	}
	if len(rows[0].Raw) == 0 {
		t.Fatalf("raw payload should be preserved")
	}
	if rows[1].Conversions() != 0 {
		t.Fatalf("row without actions should have 0 conversions")
	}
}

func TestFetchAdInsightsMapsGraphError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token.","type":"OAuthException","code":190}}`))
	}))
	defer server.Close()

	_, err := NewClient(WithBaseURL(server.URL)).FetchAdInsights(context.Background(), "bad", "123", "")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != 190 || apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
}

func TestFetchAdInsightsValidatesInput(t *testing.T) {
	client := NewClient()
	if _, err := client.FetchAdInsights(context.Background(), "", "123", ""); err == nil {
		t.Fatalf("expected empty token error")
	}
	if _, err := client.FetchAdInsights(context.Background(), "tok", "act_", ""); err == nil {
		t.Fatalf("expected empty account error")
	}
}
