package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"medsecure/internal/config"
	"medsecure/internal/model"
)

// AnalysisResult is the response shape of the external analyzer.
type AnalysisResult struct {
	Status          string   `json:"status"`
	Analysis        string   `json:"analysis"`
	Recommendations []string `json:"recommendations"`
	RiskLevel       string   `json:"riskLevel"`
	Confidence      float64  `json:"confidence"`
}

// AnalysisService forwards medical files to the external analysis
// endpoint. It applies the same role gate and audit pattern as the
// envelope codec; the analysis itself is an external collaborator.
type AnalysisService interface {
	Analyze(ctx context.Context, actor model.Identity, data []byte, fileName, mimeType string) (*AnalysisResult, error)
}

type analysisService struct {
	endpoint string
	client   *http.Client
	audit    AuditService
}

// NewAnalysisService constructs a new AnalysisService. The HTTP client
// carries a hard timeout so a hung analyzer cannot hold a request open
// indefinitely.
func NewAnalysisService(cfg config.AnalysisConfig, audit AuditService) AnalysisService {
	return &analysisService{
		endpoint: cfg.Endpoint,
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   time.Duration(cfg.TimeoutSec) * time.Second,
		},
		audit: audit,
	}
}

func (s *analysisService) Analyze(ctx context.Context, actor model.Identity, data []byte, fileName, mimeType string) (*AnalysisResult, error) {
	if !actor.Role.CanUseVault() {
		return nil, ErrAccessDenied
	}
	if s.endpoint == "" {
		return nil, ErrAnalysisDisabled
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("build analysis request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: call analyzer: %v", ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: analyzer returned status %d", ErrStoreUnavailable, resp.StatusCode)
	}

	var result AnalysisResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode analyzer response: %w", err)
	}

	s.audit.Record(ctx, &actor.UserID, "Medical file analyzed: "+fileName, map[string]any{
		"originalFileName": fileName,
		"fileSize":         int64(len(data)),
		"riskLevel":        result.RiskLevel,
		"action":           "file_analysis",
	})

	return &result, nil
}
