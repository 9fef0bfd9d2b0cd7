package ocr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"openlabel-backend/internal/callclient"
	"openlabel-backend/internal/shared/telemetry"
)

const (
	CategoryOCR = "ocr"
	// CategoryOCRPoll covers status reads, which providers do not bill.
	CategoryOCRPoll = "ocr_poll"
)

// AzureConfig tunes the Document Intelligence read model client.
type AzureConfig struct {
	Endpoint     string
	Key          string
	Model        string
	APIVersion   string
	PollInterval time.Duration
	MaxPolls     int
	Policy       callclient.Policy
}

// AzureRecognizer submits an image URL to Azure Document Intelligence and polls the operation.
type AzureRecognizer struct {
	cfg   AzureConfig
	calls *callclient.Client
	sleep func(ctx context.Context, d time.Duration) error
}

// NewAzureRecognizer validates cfg and applies defaults.
func NewAzureRecognizer(cfg AzureConfig, calls *callclient.Client) (*AzureRecognizer, error) {
	cfg.Endpoint = strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if cfg.Endpoint == "" || strings.TrimSpace(cfg.Key) == "" {
		return nil, fmt.Errorf("DOC_ENDPOINT and DOC_KEY are required for the azure OCR backend")
	}
	if calls == nil {
		return nil, fmt.Errorf("call client is required")
	}
	if cfg.Model == "" {
		cfg.Model = "prebuilt-read"
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2023-07-31"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.MaxPolls <= 0 {
		cfg.MaxPolls = 30
	}
	return &AzureRecognizer{cfg: cfg, calls: calls, sleep: sleepContext}, nil
}

func (a *AzureRecognizer) Name() string { return BackendAzure }

// Submit starts an analyze operation for imageRef and returns a job holding its operation URL.
func (a *AzureRecognizer) Submit(ctx context.Context, imageRef string) (*Job, error) {
	body, err := json.Marshal(map[string]string{"urlSource": imageRef})
	if err != nil {
		return nil, err
	}
	submitURL := fmt.Sprintf("%s/formrecognizer/documentModels/%s:analyze?api-version=%s",
		a.cfg.Endpoint, url.PathEscape(a.cfg.Model), url.QueryEscape(a.cfg.APIVersion))

	resp, err := a.calls.Invoke(ctx, callclient.Request{
		Category: CategoryOCR,
		Method:   http.MethodPost,
		URL:      submitURL,
		Header:   a.header(true),
		Body:     body,
	}, a.cfg.Policy)
	if err != nil {
		return nil, err
	}

	handle := strings.TrimSpace(resp.Header.Get("Operation-Location"))
	if handle == "" {
		telemetry.Error("ocr.azure.missing_operation_location", map[string]any{"status": resp.Status, "body": string(resp.Body)})
		return nil, fmt.Errorf("%w: missing operation-location header", ErrMalformedResponse)
	}
	return &Job{
		Backend:     BackendAzure,
		ImageRef:    imageRef,
		Handle:      handle,
		State:       StateSubmitted,
		SubmittedAt: time.Now().UTC(),
	}, nil
}

// Await polls the operation until it reaches a terminal state or MaxPolls is spent.
// Each poll is preceded by PollInterval.
func (a *AzureRecognizer) Await(ctx context.Context, job *Job) (Result, error) {
	if job == nil || job.Handle == "" {
		return Result{}, fmt.Errorf("%w: job has no operation handle", ErrMalformedResponse)
	}

	for job.Polls < a.cfg.MaxPolls {
		if err := a.sleep(ctx, a.cfg.PollInterval); err != nil {
			return Result{}, err
		}
		job.Polls++

		resp, err := a.calls.Invoke(ctx, callclient.Request{
			Category: CategoryOCRPoll,
			Method:   http.MethodGet,
			URL:      job.Handle,
			Header:   a.header(false),
		}, a.cfg.Policy)
		if err != nil {
			job.State = StateFailed
			return Result{}, err
		}

		var status analyzeStatus
		if err := json.Unmarshal(resp.Body, &status); err != nil {
			job.State = StateFailed
			telemetry.Error("ocr.azure.unparsable", map[string]any{"poll": job.Polls, "body": string(resp.Body)})
			return Result{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}

		switch strings.ToLower(status.Status) {
		case "succeeded":
			job.State = StateSucceeded
			job.text = status.text()
			return Result{Text: job.text, Backend: BackendAzure, Polls: job.Polls}, nil
		case "failed":
			job.State = StateFailed
			msg := ""
			if status.Error != nil {
				msg = status.Error.Message
			}
			return Result{}, &FailedError{Message: msg}
		case "notstarted", "running":
			job.State = StateRunning
		default:
			job.State = StateFailed
			telemetry.Error("ocr.azure.unknown_status", map[string]any{"poll": job.Polls, "body": string(resp.Body)})
			return Result{}, fmt.Errorf("%w: status %q", ErrMalformedResponse, status.Status)
		}
	}

	job.State = StateTimedOut
	return Result{}, fmt.Errorf("%w after %d polls", ErrRecognitionTimedOut, job.Polls)
}

func (a *AzureRecognizer) header(withBody bool) http.Header {
	h := http.Header{}
	h.Set("Ocp-Apim-Subscription-Key", a.cfg.Key)
	if withBody {
		h.Set("Content-Type", "application/json")
	}
	return h
}

type analyzeStatus struct {
	Status        string `json:"status"`
	AnalyzeResult *struct {
		Content     *string `json:"content"`
		ReadResults []struct {
			Lines []struct {
				Text string `json:"text"`
			} `json:"lines"`
		} `json:"readResults"`
		Pages []struct {
			Lines []struct {
				Content string `json:"content"`
			} `json:"lines"`
		} `json:"pages"`
	} `json:"analyzeResult"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// text prefers the flat content field, then legacy readResults lines, then page lines.
func (s analyzeStatus) text() string {
	r := s.AnalyzeResult
	if r == nil {
		return ""
	}
	if r.Content != nil {
		return *r.Content
	}
	var lines []string
	for _, rr := range r.ReadResults {
		for _, l := range rr.Lines {
			lines = append(lines, l.Text)
		}
	}
	if len(lines) == 0 {
		for _, p := range r.Pages {
			for _, l := range p.Lines {
				lines = append(lines, l.Content)
			}
		}
	}
	return strings.Join(lines, "\n")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
