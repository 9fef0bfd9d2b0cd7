package ocr

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"
)

// ImageOpener resolves an image reference to its bytes.
type ImageOpener interface {
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// LocalConfig configures the tesseract backend.
type LocalConfig struct {
	Tesseract string
	Lang      string
	TempDir   string
}

// LocalRecognizer runs tesseract in-process. Jobs finish during Submit.
type LocalRecognizer struct {
	cfg    LocalConfig
	images ImageOpener
	runner Runner
}

// NewLocalRecognizer constructs a LocalRecognizer with exec-based tesseract.
func NewLocalRecognizer(cfg LocalConfig, images ImageOpener) (*LocalRecognizer, error) {
	if images == nil {
		return nil, fmt.Errorf("image opener is required")
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	return &LocalRecognizer{cfg: cfg, images: images, runner: execRunner{}}, nil
}

func (l *LocalRecognizer) Name() string { return BackendTesseract }

// Submit loads the image, runs tesseract over it and returns a succeeded job.
func (l *LocalRecognizer) Submit(ctx context.Context, imageRef string) (*Job, error) {
	job := &Job{Backend: BackendTesseract, ImageRef: imageRef, State: StateSubmitted, SubmittedAt: time.Now().UTC()}

	path, cleanup, err := l.load(ctx, imageRef)
	if err != nil {
		job.State = StateFailed
		return nil, err
	}
	defer cleanup()

	job.State = StateRunning
	out, stderr, err := l.runner.Run(ctx, l.cfg.Tesseract, path, "stdout", "-l", l.cfg.Lang)
	if err != nil {
		job.State = StateFailed
		msg := strings.TrimSpace(string(stderr))
		if msg == "" {
			msg = err.Error()
		}
		return nil, &FailedError{Message: "tesseract: " + msg}
	}

	job.text = Normalize(string(out))
	job.State = StateSucceeded
	return job, nil
}

// Await returns the text recognized during Submit.
func (l *LocalRecognizer) Await(ctx context.Context, job *Job) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if job == nil || job.State != StateSucceeded {
		return Result{}, fmt.Errorf("%w: job not finished", ErrRecognitionFailed)
	}
	return Result{Text: job.text, Backend: BackendTesseract}, nil
}

func (l *LocalRecognizer) load(ctx context.Context, imageRef string) (string, func(), error) {
	rc, err := l.images.Open(ctx, imageRef)
	if err != nil {
		return "", nil, fmt.Errorf("open image: %w", err)
	}
	defer rc.Close()

	f, err := os.CreateTemp(l.cfg.TempDir, "label-*")
	if err != nil {
		return "", nil, fmt.Errorf("create temp: %w", err)
	}
	cleanup := func() { _ = os.Remove(f.Name()) }
	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("copy image: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close temp: %w", err)
	}
	return f.Name(), cleanup, nil
}

var (
	reTrailingSpace = regexp.MustCompile(`[ \t]+\n`)
	reBlankRuns     = regexp.MustCompile(`\n{3,}`)
)

// Normalize unifies line endings and squeezes blank runs left by tesseract.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\f", "\n")
	s = reTrailingSpace.ReplaceAllString(s, "\n")
	s = reBlankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
