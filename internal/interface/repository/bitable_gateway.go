package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tripgen-service/internal/domain/entity"
	"tripgen-service/internal/domain/repository"
	"tripgen-service/internal/infrastructure/config"
	"tripgen-service/internal/infrastructure/credential"
	"tripgen-service/pkg/logger"

	"github.com/go-resty/resty/v2"
)

// BitableGateway is the low-level client for the remote table service. All
// reads and writes go through it: token attach, retry with fixed delay, and
// the destination store's field encoding rules (dates as epoch-ms integers,
// multi-valued fields as string lists).
type BitableGateway struct {
	client     *resty.Client
	creds      *credential.Cache
	retries    int
	retryDelay time.Duration
	sleep      func(time.Duration)
	logger     logger.Logger
}

// NewBitableGateway creates a gateway over the given resty client and
// credential cache.
func NewBitableGateway(client *resty.Client, creds *credential.Cache, cfg *config.Config, log logger.Logger) *BitableGateway {
	retries := cfg.TableRetries
	if retries <= 0 {
		retries = 3
	}
	delay := cfg.TableRetryDelay
	if delay <= 0 {
		delay = time.Second
	}
	return &BitableGateway{
		client:     client,
		creds:      creds,
		retries:    retries,
		retryDelay: delay,
		sleep:      time.Sleep,
		logger:     log,
	}
}

// Record is one row of a remote table.
type Record struct {
	RecordID string
	Fields   map[string]interface{}
}

type bitableResponse struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func recordsPath(table config.TableConfig) string {
	return fmt.Sprintf("/open-apis/bitable/v1/apps/%s/tables/%s/records", table.AppToken, table.TableID)
}

// CreateRecords writes one or more records to a table. The variadic call
// site keeps single and batch writes uniform; internally a single record
// posts directly and multiple records use the batch endpoint. The returned
// result never wraps an unhandled failure: after the retry budget is spent
// the last error travels inside it.
func (g *BitableGateway) CreateRecords(ctx context.Context, table config.TableConfig, records ...map[string]interface{}) repository.WriteResult {
	if len(records) == 0 {
		return repository.WriteResult{Success: true}
	}

	path := recordsPath(table)
	var body interface{}
	if len(records) == 1 {
		body = map[string]interface{}{"fields": encodeFields(records[0])}
	} else {
		path += "/batch_create"
		encoded := make([]map[string]interface{}, 0, len(records))
		for _, r := range records {
			encoded = append(encoded, map[string]interface{}{"fields": encodeFields(r)})
		}
		body = map[string]interface{}{"records": encoded}
	}

	var lastErr error
	for attempt := 1; attempt <= g.retries; attempt++ {
		data, err := g.exchange(ctx, "POST", path, func(r *resty.Request) *resty.Request {
			return r.SetHeader("Content-Type", "application/json").SetBody(body)
		})
		if err == nil {
			return repository.WriteResult{
				Success:  true,
				RecordID: extractRecordID(data),
				Attempts: attempt,
			}
		}
		lastErr = err
		g.logger.Warn("Table write failed", "attempt", attempt, "retries", g.retries, "error", err)
		if attempt < g.retries {
			g.sleep(g.retryDelay)
		}
	}
	return repository.WriteResult{Success: false, Attempts: g.retries, Err: lastErr}
}

// QueryRecords reads records matching a Feishu-style filter, following
// page tokens until done. A nil filter reads the whole table. Reads use the
// same retry budget as writes but surface the final error to the caller.
func (g *BitableGateway) QueryRecords(ctx context.Context, table config.TableConfig, filter map[string]interface{}, pageSize int) ([]Record, error) {
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 100
	}

	var out []Record
	pageToken := ""
	for {
		params := map[string]string{"page_size": fmt.Sprintf("%d", pageSize)}
		if filter != nil {
			raw, err := json.Marshal(filter)
			if err != nil {
				return nil, fmt.Errorf("marshal filter: %w", err)
			}
			params["filter"] = string(raw)
		}
		if pageToken != "" {
			params["page_token"] = pageToken
		}

		records, hasMore, nextToken, err := g.fetchPage(ctx, table, params)
		if err != nil {
			return nil, err
		}
		out = append(out, records...)
		if !hasMore || nextToken == "" {
			break
		}
		pageToken = nextToken
	}
	return out, nil
}

// QueryRecordsPage reads at most pageSize records from the first page of a
// query, with an optional provider-side sort. It never follows page tokens,
// so the read stays bounded regardless of table size.
func (g *BitableGateway) QueryRecordsPage(ctx context.Context, table config.TableConfig, filter map[string]interface{}, sort []string, pageSize int) ([]Record, error) {
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 100
	}

	params := map[string]string{"page_size": fmt.Sprintf("%d", pageSize)}
	if filter != nil {
		raw, err := json.Marshal(filter)
		if err != nil {
			return nil, fmt.Errorf("marshal filter: %w", err)
		}
		params["filter"] = string(raw)
	}
	if len(sort) > 0 {
		raw, err := json.Marshal(sort)
		if err != nil {
			return nil, fmt.Errorf("marshal sort: %w", err)
		}
		params["sort"] = string(raw)
	}

	records, _, _, err := g.fetchPage(ctx, table, params)
	if err != nil {
		return nil, err
	}
	if len(records) > pageSize {
		records = records[:pageSize]
	}
	return records, nil
}

func (g *BitableGateway) fetchPage(ctx context.Context, table config.TableConfig, params map[string]string) ([]Record, bool, string, error) {
	data, err := g.exchangeWithRetry(ctx, "GET", recordsPath(table), func(r *resty.Request) *resty.Request {
		return r.SetQueryParams(params)
	})
	if err != nil {
		return nil, false, "", err
	}

	var page struct {
		Items []struct {
			RecordID string                 `json:"record_id"`
			Fields   map[string]interface{} `json:"fields"`
		} `json:"items"`
		HasMore   bool   `json:"has_more"`
		PageToken string `json:"page_token"`
	}
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, false, "", fmt.Errorf("%w: decode query page: %v", entity.ErrProvider, err)
	}
	records := make([]Record, 0, len(page.Items))
	for _, item := range page.Items {
		records = append(records, Record{RecordID: item.RecordID, Fields: item.Fields})
	}
	return records, page.HasMore, page.PageToken, nil
}

// UpdateRecord patches the fields of an existing record.
func (g *BitableGateway) UpdateRecord(ctx context.Context, table config.TableConfig, recordID string, fields map[string]interface{}) error {
	path := recordsPath(table) + "/" + recordID
	_, err := g.exchangeWithRetry(ctx, "PUT", path, func(r *resty.Request) *resty.Request {
		return r.SetHeader("Content-Type", "application/json").
			SetBody(map[string]interface{}{"fields": encodeFields(fields)})
	})
	return err
}

func (g *BitableGateway) exchangeWithRetry(ctx context.Context, method, path string, build func(*resty.Request) *resty.Request) (json.RawMessage, error) {
	var lastErr error
	for attempt := 1; attempt <= g.retries; attempt++ {
		data, err := g.exchange(ctx, method, path, build)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if attempt < g.retries {
			g.sleep(g.retryDelay)
		}
	}
	return nil, lastErr
}

// exchange performs one authenticated round trip. An auth-flavored refusal
// invalidates the credential cache so the next attempt exchanges afresh.
func (g *BitableGateway) exchange(ctx context.Context, method, path string, build func(*resty.Request) *resty.Request) (json.RawMessage, error) {
	token, err := g.creds.Token(ctx, false)
	if err != nil {
		return nil, err
	}

	// ForceContentType: decode the envelope even when the provider omits
	// or mislabels the Content-Type header.
	var body bitableResponse
	req := build(g.client.R().SetContext(ctx)).
		SetHeader("Authorization", "Bearer "+token).
		SetResult(&body).
		ForceContentType("application/json")

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", entity.ErrTransport, method, path, err)
	}
	if resp.StatusCode() == 401 || resp.StatusCode() == 403 {
		g.creds.Invalidate()
		return nil, fmt.Errorf("%w: %s %s: status=%d", entity.ErrAuth, method, path, resp.StatusCode())
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("%w: %s %s: status=%d body=%.200s",
			entity.ErrProvider, method, path, resp.StatusCode(), resp.String())
	}
	if body.Code != 0 {
		return nil, fmt.Errorf("%w: %s %s: code=%d msg=%s", entity.ErrProvider, method, path, body.Code, body.Msg)
	}
	// Code 0 is also the zero value of an undecoded envelope. A declared
	// success must carry a payload or at least a message before it counts.
	if len(body.Data) == 0 && body.Msg == "" {
		return nil, fmt.Errorf("%w: %s %s: empty response envelope body=%.200s",
			entity.ErrProvider, method, path, resp.String())
	}
	return body.Data, nil
}

// encodeFields applies the destination store's wire format: calendar dates
// become epoch-millisecond integers, string sets stay ordered string lists.
func encodeFields(fields map[string]interface{}) map[string]interface{} {
	encoded := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		switch val := v.(type) {
		case time.Time:
			encoded[k] = val.UnixMilli()
		case []string:
			// Copy to keep the caller's slice out of the request body.
			list := make([]string, len(val))
			copy(list, val)
			encoded[k] = list
		default:
			encoded[k] = v
		}
	}
	return encoded
}

func extractRecordID(data json.RawMessage) string {
	var single struct {
		Record struct {
			RecordID string `json:"record_id"`
		} `json:"record"`
	}
	if err := json.Unmarshal(data, &single); err == nil && single.Record.RecordID != "" {
		return single.Record.RecordID
	}
	var batch struct {
		Records []struct {
			RecordID string `json:"record_id"`
		} `json:"records"`
	}
	if err := json.Unmarshal(data, &batch); err == nil && len(batch.Records) > 0 {
		return batch.Records[0].RecordID
	}
	return ""
}

// Field readers for query results. The table service returns numbers as
// float64 through JSON; dates come back as epoch-ms.

func fieldString(fields map[string]interface{}, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

func fieldInt64(fields map[string]interface{}, key string) int64 {
	switch v := fields[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

func fieldStrings(fields map[string]interface{}, key string) []string {
	raw, ok := fields[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
