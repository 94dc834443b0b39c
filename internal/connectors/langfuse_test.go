package connectors

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"go-insight/internal/features/query"
)

func testConnector(baseURL string) *LangfuseConnector {
	return NewLangfuseConnector(LangfuseConfig{
		BaseURL:   baseURL,
		PublicKey: "pk-test",
		SecretKey: "sk-test",
		ProjectID: "proj-1",
	})
}

func TestLangfuseExecute(t *testing.T) {
	var gotAuth, gotProject, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/metrics" {
			t.Errorf("path = %q, want /metrics", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		gotProject = r.Header.Get("x-langfuse-project-id")
		gotQuery = r.URL.Query().Get("query")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{"count_count": "42"}},
		})
	}))
	defer srv.Close()

	c := testConnector(srv.URL)
	rows, err := c.Execute(context.Background(), query.QueryDescriptor{
		View:          query.ViewTraces,
		Metrics:       []query.Metric{{Measure: "count", Aggregation: query.AggCount}},
		TimeRange:     query.TimeRange{From: time.Now().AddDate(0, 0, -7), To: time.Now()},
		Visualization: query.VisNumber,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if len(rows) != 1 || rows[0]["count_count"] != "42" {
		t.Errorf("rows = %v", rows)
	}

	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("pk-test:sk-test"))
	if gotAuth != wantAuth {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotProject != "proj-1" {
		t.Errorf("project header = %q", gotProject)
	}

	var sent query.QueryDescriptor
	if err := json.Unmarshal([]byte(gotQuery), &sent); err != nil {
		t.Fatalf("query param not a JSON descriptor: %v", err)
	}
	if sent.View != query.ViewTraces {
		t.Errorf("sent view = %q", sent.View)
	}
}

func TestLangfuseExecuteErrorKeepsMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "invalid view"})
	}))
	defer srv.Close()

	_, err := testConnector(srv.URL).Execute(context.Background(), query.QueryDescriptor{})
	if err == nil {
		t.Fatal("expected error on 400")
	}
	if !strings.Contains(err.Error(), "invalid view") {
		t.Errorf("error %q lost the server message", err.Error())
	}
}

func TestLangfuseListTraces(t *testing.T) {
	var gotParams url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/traces" {
			t.Errorf("path = %q, want /traces", r.URL.Path)
		}
		gotParams = r.URL.Query()
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"id": "tr-1", "timestamp": "2024-06-08T10:00:00Z"},
			},
			"meta": map[string]int{"page": 2, "limit": 100, "totalItems": 350, "totalPages": 4},
		})
	}))
	defer srv.Close()

	filters := []query.Filter{{Column: "environment", Operator: query.OpIs, Value: "prod"}}
	tp, err := testConnector(srv.URL).ListTraces(context.Background(), 2, 100, filters)
	if err != nil {
		t.Fatalf("ListTraces() error = %v", err)
	}

	if gotParams.Get("page") != "2" || gotParams.Get("limit") != "100" {
		t.Errorf("pagination params = %v", gotParams)
	}
	if gotParams.Get("filters") == "" {
		t.Error("filters not forwarded")
	}
	if len(tp.Data) != 1 || tp.Data[0]["id"] != "tr-1" {
		t.Errorf("data = %v", tp.Data)
	}
	if tp.Meta.TotalPages != 4 {
		t.Errorf("totalPages = %d, want 4", tp.Meta.TotalPages)
	}
}

func TestLangfuseListTracesDefaultsTotalPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"data": []map[string]interface{}{}})
	}))
	defer srv.Close()

	tp, err := testConnector(srv.URL).ListTraces(context.Background(), 1, 100, nil)
	if err != nil {
		t.Fatalf("ListTraces() error = %v", err)
	}
	if tp.Meta.TotalPages != 1 {
		t.Errorf("totalPages = %d, want defaulted 1", tp.Meta.TotalPages)
	}
}

func TestLangfusePing(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %q, want /health", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()
	if err := testConnector(healthy.URL).Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()
	if err := testConnector(down.URL).Ping(context.Background()); err == nil {
		t.Error("Ping() must fail on 503")
	}
}
