package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"dashboard-sync/internal/airtable"
	"dashboard-sync/internal/config"

	"github.com/tidwall/gjson"
)

func newTestProxy(fwd *mockForwarder) *ProxyService {
	tables := &config.Config{Tables: map[string]string{"PRICES": "tblPrices"}}
	return NewProxyService(testTracer, tables, fwd)
}

func TestProxyService_UnknownTableForEveryVerb(t *testing.T) {
	t.Parallel()

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodPut} {
		fwd := &mockForwarder{}
		svc := newTestProxy(fwd)
		_, err := svc.Forward(context.Background(), method, "unknown", []byte(`{"records":[]}`))
		if !errors.Is(err, ErrTableNotFound) {
			t.Fatalf("%s: expected ErrTableNotFound, got %v", method, err)
		}
		if fwd.calls != 0 {
			t.Fatalf("%s: backend must not be called", method)
		}
	}
}

func TestProxyService_MissingTable(t *testing.T) {
	t.Parallel()

	svc := newTestProxy(&mockForwarder{})
	if _, err := svc.Forward(context.Background(), http.MethodGet, "", nil); !errors.Is(err, ErrMissingTable) {
		t.Fatalf("expected ErrMissingTable, got %v", err)
	}
}

func TestProxyService_GetForwardsWithoutBody(t *testing.T) {
	t.Parallel()

	fwd := &mockForwarder{resp: &airtable.Response{StatusCode: http.StatusOK, Body: []byte(`{"records":[]}`)}}
	svc := newTestProxy(fwd)

	resp, err := svc.Forward(context.Background(), http.MethodGet, "Prices", []byte(`{"ignored":true}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fwd.lastTable != "tblPrices" || fwd.lastBody != nil || fwd.lastQuery != "" {
		t.Fatalf("unexpected forward: %+v", fwd)
	}
	if string(resp.Body) != `{"records":[]}` {
		t.Fatalf("unexpected body: %s", resp.Body)
	}
}

func TestProxyService_CreateRequiresRecordsArray(t *testing.T) {
	t.Parallel()

	bodies := []string{``, `{}`, `{"records":{}}`, `{"records":"x"}`, `[1,2]`, `not json`}
	for _, method := range []string{http.MethodPost, http.MethodPatch} {
		for _, body := range bodies {
			fwd := &mockForwarder{}
			svc := newTestProxy(fwd)
			_, err := svc.Forward(context.Background(), method, "prices", []byte(body))
			if !errors.Is(err, ErrInvalidRecords) {
				t.Fatalf("%s %q: expected ErrInvalidRecords, got %v", method, body, err)
			}
			if fwd.calls != 0 {
				t.Fatalf("%s %q: backend must not be called", method, body)
			}
		}
	}
}

func TestProxyService_CreateForwardsOnlyRecords(t *testing.T) {
	t.Parallel()

	fwd := &mockForwarder{resp: &airtable.Response{StatusCode: http.StatusOK, Body: []byte(`{}`)}}
	svc := newTestProxy(fwd)

	body := `{"records":[{"fields":{"Symbol":"BTC","Price":1}}],"typecast":true}`
	if _, err := svc.Forward(context.Background(), http.MethodPatch, "prices", []byte(body)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fwd.lastMethod != http.MethodPatch {
		t.Fatalf("unexpected method: %s", fwd.lastMethod)
	}
	sent := gjson.ParseBytes(fwd.lastBody)
	if sent.Get("typecast").Exists() {
		t.Fatalf("only records should be forwarded: %s", fwd.lastBody)
	}
	if sent.Get("records.0.fields.Symbol").String() != "BTC" {
		t.Fatalf("records not forwarded: %s", fwd.lastBody)
	}
}

func TestProxyService_DeleteEncodesRepeatedIDs(t *testing.T) {
	t.Parallel()

	fwd := &mockForwarder{resp: &airtable.Response{StatusCode: http.StatusOK, Body: []byte(`{}`)}}
	svc := newTestProxy(fwd)

	if _, err := svc.Forward(context.Background(), http.MethodDelete, "prices", []byte(`{"ids":["r1","r2"]}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fwd.calls != 1 {
		t.Fatalf("expected exactly one backend call, got %d", fwd.calls)
	}
	if fwd.lastQuery != "records[]=r1&records[]=r2" {
		t.Fatalf("unexpected query: %s", fwd.lastQuery)
	}
	if fwd.lastBody != nil {
		t.Fatalf("delete must not send a body")
	}
}

func TestProxyService_DeleteRequiresIDsArray(t *testing.T) {
	t.Parallel()

	for _, body := range []string{``, `{}`, `{"ids":"r1"}`} {
		fwd := &mockForwarder{}
		svc := newTestProxy(fwd)
		if _, err := svc.Forward(context.Background(), http.MethodDelete, "prices", []byte(body)); !errors.Is(err, ErrInvalidIDs) {
			t.Fatalf("%q: expected ErrInvalidIDs, got %v", body, err)
		}
		if fwd.calls != 0 {
			t.Fatalf("%q: backend must not be called", body)
		}
	}
}

func TestProxyService_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	svc := newTestProxy(&mockForwarder{})
	if _, err := svc.Forward(context.Background(), http.MethodPut, "prices", nil); !errors.Is(err, ErrMethodNotAllowed) {
		t.Fatalf("expected ErrMethodNotAllowed, got %v", err)
	}
}

func TestProxyService_TransportError(t *testing.T) {
	t.Parallel()

	svc := newTestProxy(&mockForwarder{err: errors.New("dial tcp: refused")})
	_, err := svc.Forward(context.Background(), http.MethodGet, "prices", nil)
	if err == nil || errors.Is(err, ErrTableNotFound) {
		t.Fatalf("expected wrapped transport error, got %v", err)
	}
}

func TestDeleteQueryEscapesIDs(t *testing.T) {
	ids := gjson.Parse(`["rec 1","a&b"]`).Array()
	if got := DeleteQuery(ids); got != "records[]=rec+1&records[]=a%26b" {
		t.Fatalf("unexpected query: %s", got)
	}
}

type mockForwarder struct {
	resp *airtable.Response
	err  error

	calls      int
	lastMethod string
	lastTable  string
	lastQuery  string
	lastBody   []byte
}

func (m *mockForwarder) Do(ctx context.Context, method, tableID, rawQuery string, body []byte) (*airtable.Response, error) {
	m.calls++
	m.lastMethod = method
	m.lastTable = tableID
	m.lastQuery = rawQuery
	m.lastBody = body
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}
