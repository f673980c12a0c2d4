package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"dashboard-sync/internal/airtable"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrMissingTable     = errors.New("missing table name")
	ErrTableNotFound    = errors.New("table not found")
	ErrInvalidRecords   = errors.New("missing or invalid 'records' array in body")
	ErrInvalidIDs       = errors.New("missing or invalid 'ids' array in body")
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// TableResolver maps a logical table name to its Airtable id.
type TableResolver interface {
	TableID(name string) (string, bool)
}

// Forwarder sends one raw request to an Airtable table.
type Forwarder interface {
	Do(ctx context.Context, method, tableID, rawQuery string, body []byte) (*airtable.Response, error)
}

// ProxyService relays CRUD calls for any configured table to Airtable.
type ProxyService struct {
	tracer    trace.Tracer
	tables    TableResolver
	forwarder Forwarder
}

func NewProxyService(tracer trace.Tracer, tables TableResolver, forwarder Forwarder) *ProxyService {
	return &ProxyService{
		tracer:    tracer,
		tables:    tables,
		forwarder: forwarder,
	}
}

// Forward validates the request and makes at most one Airtable call.
// Validation failures are returned as one of the package's sentinel errors
// before anything is sent; transport failures are returned wrapped.
func (s *ProxyService) Forward(ctx context.Context, method, table string, body []byte) (*airtable.Response, error) {
	ctx, span := s.tracer.Start(ctx, "proxy-service.forward")
	defer span.End()
	span.SetAttributes(attribute.String("table", table), attribute.String("method", method))

	if table == "" {
		return nil, ErrMissingTable
	}
	tableID, ok := s.tables.TableID(table)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}

	switch method {
	case http.MethodGet:
		return s.send(ctx, method, tableID, "", nil)

	case http.MethodPost, http.MethodPatch:
		records := jsonArrayField(body, "records")
		if !records.Exists() {
			return nil, ErrInvalidRecords
		}
		payload, err := sjson.SetRawBytes([]byte(`{}`), "records", []byte(records.Raw))
		if err != nil {
			return nil, fmt.Errorf("build records payload: %w", err)
		}
		return s.send(ctx, method, tableID, "", payload)

	case http.MethodDelete:
		ids := jsonArrayField(body, "ids")
		if !ids.Exists() {
			return nil, ErrInvalidIDs
		}
		return s.send(ctx, method, tableID, DeleteQuery(ids.Array()), nil)

	default:
		return nil, ErrMethodNotAllowed
	}
}

func (s *ProxyService) send(ctx context.Context, method, tableID, rawQuery string, payload []byte) (*airtable.Response, error) {
	resp, err := s.forwarder.Do(ctx, method, tableID, rawQuery, payload)
	if err != nil {
		return nil, fmt.Errorf("forward %s: %w", method, err)
	}
	return resp, nil
}

// DeleteQuery encodes ids as repeated records[] parameters, the form
// Airtable's batch delete expects.
func DeleteQuery(ids []gjson.Result) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, "records[]="+url.QueryEscape(id.String()))
	}
	return strings.Join(parts, "&")
}

// jsonArrayField returns body[name] when body is a JSON object holding an
// array under name, and an empty result otherwise.
func jsonArrayField(body []byte, name string) gjson.Result {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return gjson.Result{}
	}
	field := gjson.GetBytes(body, name)
	if !field.IsArray() {
		return gjson.Result{}
	}
	return field
}
