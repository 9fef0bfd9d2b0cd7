package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	localstore "openlabel-backend/internal/shared/storage/object/local"
)

func newObjectRepo(t *testing.T) (*ObjectRepo, *localstore.Store) {
	t.Helper()
	store := localstore.New(t.TempDir(), "http://api.test")
	return NewObjectRepo(store), store
}

func sampleReport(id string, savedAt time.Time) Report {
	return Report{
		ID:       id,
		SavedAt:  savedAt,
		Analysis: json.RawMessage(`{"extractedText":"x","analysisResults":[],"productRecommendation":{"recommendation":"buy"}}`),
		Metadata: Metadata{SavedFrom: "web", DeviceInfo: json.RawMessage(`{}`)},
	}
}

func TestObjectRepoCreateGetUpdate(t *testing.T) {
	repo, _ := newObjectRepo(t)
	ctx := context.Background()
	rep := sampleReport("report_1_abcdef", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	require.NoError(t, repo.Create(ctx, rep))
	assert.True(t, errors.Is(repo.Create(ctx, rep), ErrConflict))

	got, err := repo.Get(ctx, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, string(rep.Analysis), string(got.Analysis))
	assert.True(t, rep.SavedAt.Equal(got.SavedAt))

	got.PurchaseDecision = &PurchaseDecision{Decision: DecisionBought, Recommendation: "buy"}
	require.NoError(t, repo.Update(ctx, got))
	again, err := repo.Get(ctx, rep.ID)
	require.NoError(t, err)
	require.NotNil(t, again.PurchaseDecision)
	assert.Equal(t, DecisionBought, again.PurchaseDecision.Decision)
}

func TestObjectRepoConcurrentCreateSameID(t *testing.T) {
	repo, _ := newObjectRepo(t)
	ctx := context.Background()

	const writers = 16
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rep := sampleReport("report_1_abcdef", time.Date(2026, 3, 1, 0, 0, i, 0, time.UTC))
			errs[i] = repo.Create(ctx, rep)
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, ErrConflict)
	}
	assert.Equal(t, 1, created, "exactly one writer owns the id")

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestObjectRepoMissingAndUnsafeIDs(t *testing.T) {
	repo, _ := newObjectRepo(t)
	ctx := context.Background()

	_, err := repo.Get(ctx, "report_0_none00")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = repo.Get(ctx, "../etc/passwd")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(repo.Update(ctx, sampleReport("report_0_none00", time.Now())), ErrNotFound))
	assert.True(t, errors.Is(repo.Create(ctx, sampleReport("a/b", time.Now())), ErrValidation))
}

func TestObjectRepoListSkipsCorruptRecords(t *testing.T) {
	repo, store := newObjectRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"report_1_aaaaaa", "report_2_bbbbbb", "report_3_cccccc"} {
		require.NoError(t, repo.Create(ctx, sampleReport(id, base.Add(time.Duration(i)*time.Minute))))
	}
	_, err := store.SaveWithKey(ctx, "reports/report_4_broken.json", "application/json", bytes.NewReader([]byte("{truncated")))
	require.NoError(t, err)
	_, err = store.SaveWithKey(ctx, "reports/notes.txt", "text/plain", bytes.NewReader([]byte("ignore me")))
	require.NoError(t, err)
	wrongID, _ := json.Marshal(sampleReport("report_9_zzzzzz", base))
	_, err = store.SaveWithKey(ctx, "reports/report_5_eeeeee.json", "application/json", bytes.NewReader(wrongID))
	require.NoError(t, err)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(list))
	for _, r := range list {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []string{"report_1_aaaaaa", "report_2_bbbbbb", "report_3_cccccc"}, ids)
}

func TestObjectRepoListEmptyStore(t *testing.T) {
	repo, _ := newObjectRepo(t)
	list, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestServiceOverObjectRepoRoundTrip(t *testing.T) {
	repo, _ := newObjectRepo(t)
	svc, _ := newTestService(repo)
	ctx := context.Background()

	saved, err := svc.Save(ctx, SaveInput{Analysis: json.RawMessage(sampleAnalysis)})
	require.NoError(t, err)
	_, err = svc.AttachDecision(ctx, saved.ID, DecisionNotBought, "trans fat")
	require.NoError(t, err)

	got, err := svc.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, string(saved.Analysis), string(got.Analysis))
	assert.Equal(t, "avoid", got.PurchaseDecision.Recommendation)
}
