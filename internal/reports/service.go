package reports

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"

	"openlabel-backend/internal/shared/metrics"
	"openlabel-backend/internal/shared/telemetry"
)

const (
	idAlphabet   = "0123456789abcdefghijklmnopqrstuvwxyz"
	idSuffixLen  = 6
	saveAttempts = 3
)

// Service saves analyses as reports and records purchase decisions on them.
type Service struct {
	repo  Repo
	locks *keyedMutex
	now   func() time.Time
	newID func(time.Time) string
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{repo: repo, locks: newKeyedMutex(), now: time.Now, newID: newReportID}
}

// Save validates the analysis and stores it with a fresh id. The analysis bytes
// are normalized once here and never rewritten afterwards.
func (s *Service) Save(ctx context.Context, in SaveInput) (Report, error) {
	if len(bytes.TrimSpace(in.Analysis)) == 0 || bytes.Equal(bytes.TrimSpace(in.Analysis), []byte("null")) {
		return Report{}, fmt.Errorf("%w: no report data provided", ErrValidation)
	}
	if err := validateAnalysis(in.Analysis); err != nil {
		return Report{}, err
	}
	analysis, err := json.Marshal(in.Analysis)
	if err != nil {
		return Report{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	view := viewOf(analysis)
	report := Report{
		SavedAt:   s.now().UTC(),
		UserID:    in.UserID,
		Analysis:  analysis,
		Summary:   view.summary(),
		ImageInfo: ImageInfo{ImageURL: view.ImageURL},
		Metadata: Metadata{
			SavedFrom:  in.SavedFrom,
			DeviceInfo: in.DeviceInfo,
		},
	}
	if report.Metadata.SavedFrom == "" {
		report.Metadata.SavedFrom = unknownSource
	}
	if len(bytes.TrimSpace(report.Metadata.DeviceInfo)) == 0 || bytes.Equal(bytes.TrimSpace(report.Metadata.DeviceInfo), []byte("null")) {
		report.Metadata.DeviceInfo = json.RawMessage("{}")
	}

	for attempt := 1; attempt <= saveAttempts; attempt++ {
		report.ID = s.newID(report.SavedAt)
		err = s.repo.Create(ctx, report)
		if errors.Is(err, ErrConflict) {
			telemetry.Warn("reports.id_collision", map[string]any{"report_id": report.ID, "attempt": attempt})
			continue
		}
		break
	}
	if err != nil {
		return Report{}, err
	}

	metrics.IncReportSaved()
	telemetry.Info("reports.saved", map[string]any{
		"report_id":   report.ID,
		"user_id":     report.UserID,
		"ingredients": report.Summary.TotalIngredients,
		"warnings":    report.Summary.WarningCount,
	})
	return report, nil
}

// List returns every readable report, newest first. Ties on savedAt sort by id descending.
func (s *Service) List(ctx context.Context) ([]Report, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].SavedAt.Equal(out[j].SavedAt) {
			return out[i].SavedAt.After(out[j].SavedAt)
		}
		return out[i].ID > out[j].ID
	})
	if out == nil {
		out = []Report{}
	}
	return out, nil
}

// Get returns one report.
func (s *Service) Get(ctx context.Context, id string) (Report, error) {
	return s.repo.Get(ctx, id)
}

// AttachDecision sets or replaces the purchase decision on a report.
func (s *Service) AttachDecision(ctx context.Context, id, decision, notes string) (Report, error) {
	if decision != DecisionBought && decision != DecisionNotBought {
		return Report{}, fmt.Errorf("%w: decision must be %q or %q", ErrValidation, DecisionBought, DecisionNotBought)
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	report, err := s.repo.Get(ctx, id)
	if err != nil {
		return Report{}, err
	}
	report.PurchaseDecision = &PurchaseDecision{
		Decision:       decision,
		DecidedAt:      s.now().UTC(),
		Notes:          notes,
		Recommendation: viewOf(report.Analysis).recommendation(),
	}
	if err := s.repo.Update(ctx, report); err != nil {
		return Report{}, err
	}

	metrics.IncDecisionRecorded()
	telemetry.Info("reports.decision_recorded", map[string]any{
		"report_id": id,
		"decision":  decision,
	})
	return report, nil
}

// newReportID returns report_<unix-ms>_<6 base36 chars>.
func newReportID(at time.Time) string {
	suffix := make([]byte, idSuffixLen)
	max := big.NewInt(int64(len(idAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			n = big.NewInt(at.UnixNano() % int64(len(idAlphabet)))
		}
		suffix[i] = idAlphabet[n.Int64()]
	}
	return fmt.Sprintf("report_%d_%s", at.UnixMilli(), suffix)
}
