package apihttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"market-reports/internal/auth"
	reports "market-reports/internal/reports/domain"
	series "market-reports/internal/series/domain"
	"market-reports/internal/table"
)

type stubAssembler struct {
	last  series.Request
	frame *table.Frame
	err   error
}

func (s *stubAssembler) Assemble(_ context.Context, req series.Request) (*table.Frame, error) {
	s.last = req
	return s.frame, s.err
}

type stubSource struct {
	content string
	cached  bool
	err     error
	evicted []string
}

func (s *stubSource) Cached(_ context.Context, datasetID string, day time.Time) (bool, error) {
	return s.cached, nil
}

func (s *stubSource) Fetch(_ context.Context, datasetID string, day time.Time) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.content, nil
}

func (s *stubSource) Evict(_ context.Context, datasetID string, day time.Time) error {
	s.evicted = append(s.evicted, datasetID+"@"+day.Format(reports.DayLayout))
	return s.err
}

func sampleFrame() *table.Frame {
	day := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	return &table.Frame{
		Index:   []string{table.TimeColumn},
		Columns: []string{"Value"},
		Records: []table.Record{
			{Time: day, Values: []float64{20.5}},
			{Time: day.Add(time.Hour), Values: []float64{21}},
		},
	}
}

func TestSeriesHandlerCSV(t *testing.T) {
	assembler := &stubAssembler{frame: sampleFrame()}
	handler := NewSeriesHandler(assembler, reports.DefaultCatalog(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/series?dataset=rt_lmp_final&start=2021-01-01&stop=2021-01-02&stack=true&category=Loadzone&value=LMP&entity=AECI.ALTW&dropna=false", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	want := series.Request{
		Start: "2021-01-01", Stop: "2021-01-02", Dataset: "rt_lmp_final", Stack: true,
		Category: "Loadzone", Value: "LMP", Entity: "AECI.ALTW", DropMissing: false,
	}
	if assembler.last != want {
		t.Fatalf("expected request %+v, got %+v", want, assembler.last)
	}
	if !strings.HasPrefix(resp.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("unexpected content type %s", resp.Header().Get("Content-Type"))
	}
	if resp.Body.String() != "Datetime,Value\n2021-01-01 00:00:00,20.5\n2021-01-01 01:00:00,21\n" {
		t.Fatalf("unexpected body %q", resp.Body.String())
	}
}

func TestSeriesHandlerJSON(t *testing.T) {
	assembler := &stubAssembler{frame: sampleFrame()}
	handler := NewSeriesHandler(assembler, reports.DefaultCatalog(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/series?dataset=df_al&start=2021-01-01&format=json&entity=", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if assembler.last.Entity != series.Wildcard {
		t.Fatalf("expected blank entity to become wildcard, got %q", assembler.last.Entity)
	}
	var doc struct {
		Variant string            `json:"variant"`
		Rows    []json.RawMessage `json:"rows"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Variant != "load" || len(doc.Rows) != 2 {
		t.Fatalf("unexpected document %+v", doc)
	}
}

func TestSeriesHandlerErrors(t *testing.T) {
	cases := []struct {
		name   string
		query  string
		err    error
		status int
	}{
		{"missing dataset", "start=2021-01-01", nil, http.StatusBadRequest},
		{"bad stack", "dataset=df_al&start=2021-01-01&stack=maybe", nil, http.StatusBadRequest},
		{"bad format", "dataset=df_al&start=2021-01-01&format=parquet", nil, http.StatusBadRequest},
		{"invalid category", "dataset=df_al&start=2021-01-01", &series.SelectionError{Value: "x", Err: series.ErrInvalidCategory}, http.StatusBadRequest},
		{"invalid day", "dataset=df_al&start=2021-01-01", fmt.Errorf("%w: x", reports.ErrInvalidDay), http.StatusBadRequest},
		{"unknown dataset", "dataset=nope&start=2021-01-01", reports.UnknownDataset("nope"), http.StatusNotFound},
		{"empty", "dataset=df_al&start=2021-01-01", series.ErrEmptyResult, http.StatusNotFound},
		{"retrieval", "dataset=df_al&start=2021-01-01", fmt.Errorf("%w: timeout", reports.ErrRetrieval), http.StatusBadGateway},
		{"other", "dataset=df_al&start=2021-01-01", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewSeriesHandler(&stubAssembler{frame: sampleFrame(), err: tc.err}, reports.DefaultCatalog(), nil)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/series?"+tc.query, nil)
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, req)
			if resp.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, resp.Code)
			}
		})
	}
}

func TestSeriesHandlerMethod(t *testing.T) {
	handler := NewSeriesHandler(&stubAssembler{}, reports.DefaultCatalog(), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/series", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.Code)
	}
}

func TestReportsHandler(t *testing.T) {
	source := &stubSource{content: "a\nb\nc\nd\nNode,Type,Value\n"}
	handler := NewReportsHandler(source, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/rt_lmp_final/2021-01-01", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || resp.Body.String() != source.content {
		t.Fatalf("expected canonical text, got %d %q", resp.Code, resp.Body.String())
	}
	if got := resp.Header().Get(CacheHeader); got != "miss" {
		t.Fatalf("expected cache miss header, got %q", got)
	}

	source.cached = true
	req = httptest.NewRequest(http.MethodGet, "/api/v1/reports/rt_lmp_final/2021-01-01", nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if got := resp.Header().Get(CacheHeader); got != "hit" {
		t.Fatalf("expected cache hit header, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/reports/rt_lmp_final/20210101", nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad day, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/reports/rt_lmp_final", nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for short path, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/reports/rt_lmp_final/2021-01-01", nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if len(source.evicted) != 1 || source.evicted[0] != "rt_lmp_final@2021-01-01" {
		t.Fatalf("unexpected evictions %v", source.evicted)
	}
}

func TestReportsHandlerLogsEvictionIdentity(t *testing.T) {
	var logs bytes.Buffer
	handler := NewReportsHandler(&stubSource{}, log.New(&logs, "", 0))
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/reports/df_al/2021-01-01", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{Subject: "ops", Role: auth.RoleOperator}))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if !strings.Contains(logs.String(), "dataset=df_al day=2021-01-01 subject=ops role=operator") {
		t.Fatalf("unexpected eviction log %q", logs.String())
	}
}

func TestReportsHandlerUnsupported(t *testing.T) {
	handler := NewReportsHandler(&stubSource{err: reports.UnsupportedConverter("5min_exante_lmp")}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/5min_exante_lmp/2021-01-01", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", resp.Code)
	}
}

func TestDatasetsHandler(t *testing.T) {
	handler := NewDatasetsHandler(reports.DefaultCatalog())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/datasets", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	var views []datasetView
	if err := json.Unmarshal(resp.Body.Bytes(), &views); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(views) != 6 || views[0].ID != "5min_exante_lmp" {
		t.Fatalf("unexpected datasets %+v", views)
	}
}
