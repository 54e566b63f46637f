// Package api talks to the ops backend over HTTP/JSON.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/autoops/sentinel-dash/internal/apperr"
	"github.com/autoops/sentinel-dash/internal/domain"
	"github.com/autoops/sentinel-dash/internal/metrics"
)

// TokenHeader carries the API token on mutating routes.
const TokenHeader = "X-API-Token"

// TokenSource yields the current API token, or "" when none is set.
type TokenSource interface {
	Token() string
}

type Repo struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

var _ domain.OpsRepo = (*Repo)(nil)

// New builds a Repo against baseURL. tokens may be nil.
func New(baseURL string, timeout time.Duration, tokens TokenSource) *Repo {
	return &Repo{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
	}
}

// -------- TimelineRepo --------

func (r *Repo) ListAnomalies(ctx context.Context, limit int) ([]domain.AnomalyRecord, error) {
	var out []domain.AnomalyRecord
	if err := r.getJSON(ctx, "list anomalies", "/anomalies", limitQuery(limit), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) ListActions(ctx context.Context, limit int) ([]domain.ActionRecord, error) {
	var out []domain.ActionRecord
	if err := r.getJSON(ctx, "list actions", "/actions", limitQuery(limit), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) ListIncidents(ctx context.Context) ([]domain.IncidentRecord, error) {
	var out []domain.IncidentRecord
	if err := r.getJSON(ctx, "list incidents", "/incidents", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// -------- SeriesRepo --------

func (r *Repo) MetricKeys(ctx context.Context) ([]string, error) {
	var out []string
	if err := r.getJSON(ctx, "metric keys", "/metrics/keys", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RecentMetric returns the last minutes of metric, re-indexed from 0.
func (r *Repo) RecentMetric(ctx context.Context, metric string, minutes int) ([]domain.SeriesPoint, error) {
	q := url.Values{}
	q.Set("metric", metric)
	q.Set("minutes", strconv.Itoa(minutes))

	var response struct {
		Points []struct {
			TS    domain.WireTime `json:"ts"`
			Value *float64        `json:"value"`
		} `json:"points"`
	}
	if err := r.getJSON(ctx, "recent metric", "/metrics/recent", q, &response); err != nil {
		return nil, err
	}

	points := make([]domain.SeriesPoint, 0, len(response.Points))
	for _, p := range response.Points {
		if p.Value == nil {
			continue
		}
		points = append(points, domain.SeriesPoint{
			Index:     len(points),
			Timestamp: p.TS.Time,
			Value:     *p.Value,
		})
	}
	return points, nil
}

func (r *Repo) Forecast(ctx context.Context, metric string, horizon int) (domain.ForecastBand, error) {
	q := url.Values{}
	q.Set("metric", metric)
	q.Set("horizon", strconv.Itoa(horizon))

	var band domain.ForecastBand
	if err := r.getJSON(ctx, "forecast", "/forecast", q, &band); err != nil {
		return domain.ForecastBand{}, err
	}
	return band, nil
}

// -------- OpsRepo --------

func (r *Repo) Summary(ctx context.Context) (domain.Summary, error) {
	var s domain.Summary
	err := r.getJSON(ctx, "summary", "/summary", nil, &s)
	return s, err
}

func (r *Repo) Business(ctx context.Context) (domain.Business, error) {
	var b domain.Business
	err := r.getJSON(ctx, "business", "/business", nil, &b)
	return b, err
}

func (r *Repo) ExecuteAction(ctx context.Context, name string, params map[string]any) (domain.ExecuteResult, error) {
	if params == nil {
		params = map[string]any{}
	}
	payload := map[string]any{"name": name, "params": params}

	var res domain.ExecuteResult
	if err := r.postJSON(ctx, "execute action", "/actions/execute", payload, &res); err != nil {
		return domain.ExecuteResult{}, err
	}
	return res, nil
}

// -------- AgentRepo --------

func (r *Repo) PolicySuggestions(ctx context.Context) ([]domain.PolicySuggestion, error) {
	var out []domain.PolicySuggestion
	if err := r.getJSON(ctx, "policy suggestions", "/policies/suggest", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) AskAgent(ctx context.Context, question string) (domain.AgentAnswer, error) {
	var a domain.AgentAnswer
	if err := r.postJSON(ctx, "agent query", "/agent/query", map[string]string{"question": question}, &a); err != nil {
		return domain.AgentAnswer{}, err
	}
	return a, nil
}

func (r *Repo) ProposePlan(ctx context.Context, req domain.PlanRequest) (domain.Plan, error) {
	if req.Objectives == nil {
		req.Objectives = []string{}
	}
	if req.Context == nil {
		req.Context = map[string]any{}
	}
	var p domain.Plan
	if err := r.postJSON(ctx, "agent plan", "/agent/plan", req, &p); err != nil {
		return domain.Plan{}, err
	}
	return p, nil
}

// -------- transport --------

func limitQuery(limit int) url.Values {
	if limit <= 0 {
		return nil
	}
	return url.Values{"limit": []string{strconv.Itoa(limit)}}
}

func (r *Repo) resolve(p string, q url.Values) (string, error) {
	if r.baseURL == "" {
		return "", fmt.Errorf("base URL not configured")
	}
	u, err := url.Parse(r.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	u.Path = path.Join(u.Path, "/"+strings.TrimLeft(p, "/"))
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (r *Repo) getJSON(ctx context.Context, op, p string, q url.Values, out any) error {
	endpoint, err := r.resolve(p, q)
	if err != nil {
		return fail(op, apperr.KindConfig, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fail(op, apperr.KindConfig, err)
	}
	req.Header.Set("Accept", "application/json")
	return r.do(op, req, out)
}

func (r *Repo) postJSON(ctx context.Context, op, p string, payload, out any) error {
	endpoint, err := r.resolve(p, nil)
	if err != nil {
		return fail(op, apperr.KindConfig, err)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fail(op, apperr.KindConfig, fmt.Errorf("marshal payload: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fail(op, apperr.KindConfig, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.tokens != nil {
		if tok := r.tokens.Token(); tok != "" {
			req.Header.Set(TokenHeader, tok)
		}
	}
	return r.do(op, req, out)
}

func (r *Repo) do(op string, req *http.Request, out any) error {
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fail(op, apperr.KindTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fail(op, apperr.KindStatus, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))})
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fail(op, apperr.KindDecode, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func fail(op string, kind apperr.Kind, err error) error {
	metrics.ObserveFetchError(string(kind))
	return apperr.New(op, kind, err)
}

// StatusError is a non-2xx reply.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend returned %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("backend returned %d %s: %s", e.Code, http.StatusText(e.Code), e.Body)
}
