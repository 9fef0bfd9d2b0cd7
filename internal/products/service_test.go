package products

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openlabel-backend/internal/callclient"
	"openlabel-backend/internal/llm"
	"openlabel-backend/internal/ocr"
)

type fakeRecognizer struct {
	text   string
	err    error
	gotRef string
}

func (f *fakeRecognizer) Name() string { return "fake" }

func (f *fakeRecognizer) Submit(_ context.Context, ref string) (*ocr.Job, error) {
	f.gotRef = ref
	return &ocr.Job{Backend: "fake", ImageRef: ref, State: ocr.StateRunning}, nil
}

func (f *fakeRecognizer) Await(_ context.Context, job *ocr.Job) (ocr.Result, error) {
	if f.err != nil {
		job.State = ocr.StateFailed
		return ocr.Result{}, f.err
	}
	job.State = ocr.StateSucceeded
	return ocr.Result{Text: f.text, Backend: ocr.BackendTesseract}, nil
}

type fakeLLM struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeLLM) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func TestGuessName(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "first line", text: "Oat Crunch\nIngredients: oats", want: "Oat Crunch"},
		{name: "skips blank lines", text: "\n   \n  Choco Bites  \nmore", want: "Choco Bites"},
		{name: "empty", text: "", want: UnknownProduct},
		{name: "whitespace only", text: " \n\t\n", want: UnknownProduct},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GuessName(tt.text))
		})
	}
}

func TestScanAsksAboutGuessedName(t *testing.T) {
	rec := &fakeRecognizer{text: "Oat Crunch\nIngredients: oats, honey"}
	model := &fakeLLM{reply: "Oat Crunch is a breakfast cereal."}
	svc := NewService(rec, model, nil)

	scan, err := svc.Scan(context.Background(), "https://cdn.test/p.png")
	require.NoError(t, err)
	assert.Equal(t, "Oat Crunch", scan.GuessedProductName)
	assert.Equal(t, "Oat Crunch\nIngredients: oats, honey", scan.ExtractedText)
	assert.Equal(t, "Oat Crunch is a breakfast cereal.", scan.LLMCheck)
	require.Len(t, model.prompts, 1)
	assert.Equal(t, llm.ProductCheckPrompt("Oat Crunch"), model.prompts[0])
}

func TestScanStopsOnOCRFailure(t *testing.T) {
	rec := &fakeRecognizer{err: &ocr.FailedError{Message: "blurry"}}
	model := &fakeLLM{}
	svc := NewService(rec, model, nil)

	_, err := svc.Scan(context.Background(), "ref")
	assert.True(t, errors.Is(err, ocr.ErrRecognitionFailed))
	assert.Empty(t, model.prompts)
}

func TestScanSurfacesQuota(t *testing.T) {
	rec := &fakeRecognizer{text: "Thing"}
	model := &fakeLLM{err: callclient.ErrQuotaExceeded}
	svc := NewService(rec, model, nil)

	_, err := svc.Scan(context.Background(), "ref")
	assert.True(t, errors.Is(err, callclient.ErrQuotaExceeded))
}

func TestScanUploadRequiresImageStore(t *testing.T) {
	svc := NewService(&fakeRecognizer{}, &fakeLLM{}, nil)
	_, err := svc.ScanUpload(context.Background(), "u", "a.png", "image/png", bytes.NewReader(nil))
	assert.Error(t, err)
}
