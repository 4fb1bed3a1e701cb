package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"orrery/internal/archive"
	"orrery/internal/catalog"
	"orrery/internal/config"
	"orrery/internal/logging"
)

// Outcome is the closed set of results a classification attempt can produce.
type Outcome string

const (
	OutcomeConfirmed     Outcome = "confirmed"
	OutcomeFalsePositive Outcome = "falsePositive"
	OutcomeOther         Outcome = "other"
	OutcomeFailed        Outcome = "failed"
)

// FeatureFields is the fixed subset of physical fields submitted to the
// external model. The list is shared with the model's expected input schema;
// order matters to neither side, presence does.
var FeatureFields = []string{
	"orbital_period",
	"transit_duration",
	"transit_depth",
	"planet_radius",
	"equilibrium_temp",
	"insolation_flux",
	"stellar_teff",
	"stellar_logg",
	"stellar_radius",
}

// Result is the structured outcome of one classification attempt. Classify
// never returns a Go error; failures are carried here so one bad record never
// aborts a pass.
type Result struct {
	Outcome Outcome
	Verdict *catalog.Verdict
	Record  *archive.Record
	Error   string
}

// Gateway submits undecided candidates to the external inference endpoint.
type Gateway struct {
	url        string
	source     archive.Source
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) {
		if client != nil {
			g.httpClient = client
		}
	}
}

// WithTimeout overrides the per-call timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(g *Gateway) {
		if timeout > 0 {
			g.timeout = timeout
		}
	}
}

// WithLogger attaches a logger to the gateway.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logging.WithComponent(logger, "classifier")
		}
	}
}

// New creates a classification gateway.
func New(cfg *config.Config, source archive.Source, opts ...Option) (*Gateway, error) {
	url := strings.TrimSpace(cfg.Classifier.URL)
	if url == "" {
		return nil, errors.New("classifier url required")
	}
	if source == nil {
		return nil, errors.New("archive source required")
	}
	timeout := time.Duration(cfg.Classifier.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	gateway := &Gateway{
		url:        url,
		source:     source,
		httpClient: &http.Client{},
		timeout:    timeout,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(gateway)
	}
	return gateway, nil
}

type classifyRequest struct {
	Identity string             `json:"identity"`
	Features map[string]float64 `json:"features"`
}

type classifyResponse struct {
	Prediction    string    `json:"prediction"`
	Probability   *float64  `json:"probability"`
	Explanation   string    `json:"explanation"`
	BaseValue     *float64  `json:"base_value"`
	Contributions []float64 `json:"contributions"`
	FeatureNames  []string  `json:"feature_names"`
}

// Classify fetches the candidate's full field set, submits the feature subset
// to the external model, and interprets the verdict. The whole attempt runs
// under a hard timeout with no retry; timing out fails this record only.
func (g *Gateway) Classify(ctx context.Context, identity string) Result {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	record, err := g.source.Fetch(ctx, identity)
	if err != nil {
		return g.failed(identity, record, fmt.Errorf("fetch fields: %w", err))
	}

	features := make(map[string]float64, len(FeatureFields))
	for _, field := range FeatureFields {
		if value, ok := record.Feature(field); ok {
			features[field] = value
		}
	}

	payload, err := json.Marshal(classifyRequest{Identity: identity, Features: features})
	if err != nil {
		return g.failed(identity, record, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return g.failed(identity, record, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return g.failed(identity, record, fmt.Errorf("timeout after %s", g.timeout))
		}
		return g.failed(identity, record, fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return g.failed(identity, record, fmt.Errorf("classifier returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var verdict classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return g.failed(identity, record, fmt.Errorf("decode response: %w", err))
	}

	return g.interpret(identity, record, verdict)
}

// interpret is the single place raw prediction labels are matched; everything
// downstream operates on the Outcome enum.
func (g *Gateway) interpret(identity string, record *archive.Record, resp classifyResponse) Result {
	probability := 0.0
	if resp.Probability != nil {
		probability = *resp.Probability
	}

	verdict := &catalog.Verdict{
		Label:         resp.Prediction,
		Probability:   probability,
		Explanation:   resp.Explanation,
		BaseValue:     resp.BaseValue,
		Contributions: resp.Contributions,
		FeatureNames:  resp.FeatureNames,
	}

	switch strings.ToLower(strings.TrimSpace(resp.Prediction)) {
	case "confirmed":
		verdict.Confidence = probability
		g.logger.Info("verdict received",
			logging.String(logging.FieldIdentity, identity),
			logging.String("outcome", string(OutcomeConfirmed)),
			logging.Float64("confidence", verdict.Confidence))
		return Result{Outcome: OutcomeConfirmed, Verdict: verdict, Record: record}
	case "false positive", "falsepositive", "false_positive":
		// The model reports confidence in the planet hypothesis; confidence
		// in a false-positive verdict is the complement.
		verdict.Confidence = 1 - probability
		g.logger.Info("verdict received",
			logging.String(logging.FieldIdentity, identity),
			logging.String("outcome", string(OutcomeFalsePositive)),
			logging.Float64("confidence", verdict.Confidence))
		return Result{Outcome: OutcomeFalsePositive, Verdict: verdict, Record: record}
	default:
		g.logger.Warn("unsupported verdict label",
			logging.String(logging.FieldIdentity, identity),
			logging.String("label", resp.Prediction))
		return Result{Outcome: OutcomeOther, Verdict: verdict, Record: record}
	}
}

func (g *Gateway) failed(identity string, record *archive.Record, err error) Result {
	g.logger.Warn("classification failed",
		logging.String(logging.FieldIdentity, identity),
		logging.Error(err))
	return Result{Outcome: OutcomeFailed, Record: record, Error: err.Error()}
}
