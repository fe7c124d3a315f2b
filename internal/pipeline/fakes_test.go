package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"clipper/internal/logging"
	"clipper/internal/media"
	"clipper/internal/media/ffmpeg"
	"clipper/internal/media/tags"
	"clipper/internal/segmenter"
	"clipper/internal/services"
	"clipper/internal/session"
	"clipper/internal/status"
	"clipper/internal/transport"
)

type stubResolver struct {
	desc  media.Descriptor
	err   error
	calls int
}

func (r *stubResolver) Resolve(context.Context, string) (media.Descriptor, error) {
	r.calls++
	return r.desc, r.err
}

type stubDownloader struct {
	size     int
	progress []float64
	err      error
	calls    int
	gotKind  media.Kind
}

func (d *stubDownloader) Download(_ context.Context, _ string, title string, kind media.Kind, dir string, progress chan<- float64) (media.Acquired, error) {
	d.calls++
	d.gotKind = kind
	for _, pct := range d.progress {
		select {
		case progress <- pct:
		default:
		}
	}
	if d.err != nil {
		return media.Acquired{}, d.err
	}
	ext := "mp3"
	if kind == media.KindVideo {
		ext = "mp4"
	}
	path := filepath.Join(dir, title+"."+ext)
	size := d.size
	if size == 0 {
		size = 16
	}
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		return media.Acquired{}, err
	}
	return media.NewAcquired(path), nil
}

// sizedCutter writes each segment with the configured size, cycling.
type sizedCutter struct {
	sizes []int
	cuts  []ffmpeg.CutRequest
}

func (c *sizedCutter) Cut(_ context.Context, req ffmpeg.CutRequest) error {
	size := 8
	if len(c.sizes) > 0 {
		size = c.sizes[len(c.cuts)%len(c.sizes)]
	}
	c.cuts = append(c.cuts, req)
	return os.WriteFile(req.Output, make([]byte, size), 0o644)
}

type nopTagger struct {
	calls []tags.Fields
}

func (n *nopTagger) Tag(_ string, fields tags.Fields) error {
	n.calls = append(n.calls, fields)
	return nil
}

type recordingStatus struct {
	mu    sync.Mutex
	texts []string
}

func (s *recordingStatus) Report(_ context.Context, _ int64, text string, _ ...status.Option) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
	return true
}

func (s *recordingStatus) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

func (s *recordingStatus) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.texts) == 0 {
		return ""
	}
	return s.texts[len(s.texts)-1]
}

func (s *recordingStatus) contains(substr string) bool {
	for _, text := range s.all() {
		if strings.Contains(text, substr) {
			return true
		}
	}
	return false
}

type recordingMessenger struct {
	uploads  []transport.Upload
	notices  []string
	fileErrs []error
	attempts int
}

func (m *recordingMessenger) SendText(_ context.Context, _ int64, text string) (int, error) {
	m.notices = append(m.notices, text)
	return len(m.notices), nil
}

func (m *recordingMessenger) EditText(context.Context, int64, int, string) error { return nil }

func (m *recordingMessenger) Pin(context.Context, int64, int) error { return nil }

func (m *recordingMessenger) DeleteMessage(context.Context, int64, int) error { return nil }

func (m *recordingMessenger) SendFile(_ context.Context, _ int64, upload transport.Upload) (int, error) {
	m.attempts++
	if len(m.fileErrs) > 0 {
		err := m.fileErrs[0]
		m.fileErrs = m.fileErrs[1:]
		if err != nil {
			return 0, err
		}
	}
	m.uploads = append(m.uploads, upload)
	return 1000 + len(m.uploads), nil
}

type recordingRegistry struct {
	deactivated []int64
}

func (r *recordingRegistry) Deactivate(_ context.Context, user int64) error {
	r.deactivated = append(r.deactivated, user)
	return nil
}

type harness struct {
	pipeline   *Pipeline
	sessions   *session.Store
	gate       *session.Gate
	resolver   *stubResolver
	downloader *stubDownloader
	cutter     *sizedCutter
	tagger     *nopTagger
	status     *recordingStatus
	messenger  *recordingMessenger
	registry   *recordingRegistry
	workDir    string
	states     []State
	slept      []time.Duration
}

func newHarness(t *testing.T, desc media.Descriptor) *harness {
	t.Helper()
	h := &harness{
		sessions:   session.NewStore(),
		gate:       session.NewGate(),
		resolver:   &stubResolver{desc: desc},
		downloader: &stubDownloader{},
		cutter:     &sizedCutter{},
		tagger:     &nopTagger{},
		status:     &recordingStatus{},
		messenger:  &recordingMessenger{},
		registry:   &recordingRegistry{},
		workDir:    t.TempDir(),
	}
	deps := Dependencies{
		Sessions:   h.sessions,
		Gate:       h.gate,
		Resolver:   h.resolver,
		Downloader: h.downloader,
		Segmenter:  segmenter.New(h.cutter, h.tagger, nil, logging.NewNop()),
		Tagger:     h.tagger,
		Status:     h.status,
		Messenger:  h.messenger,
		Registry:   h.registry,
	}
	h.pipeline = New(deps, Options{WorkDir: h.workDir}, logging.NewNop())
	h.pipeline.sleep = func(_ context.Context, d time.Duration) error {
		h.slept = append(h.slept, d)
		return nil
	}
	h.pipeline.WithObserver(func(_ int64, state State) {
		h.states = append(h.states, state)
	})
	return h
}

func (h *harness) pend(user int64, kind media.Kind, mode media.Mode) {
	h.sessions.Update(user, func(s *session.Session) {
		s.SourceRef = "https://example.com/watch?v=abc"
		s.Kind = kind
		s.Mode = mode
		s.SourceMessageID = 42
	})
}

func (h *harness) jobDirsLeft(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(h.workDir, "jobs"))
	if os.IsNotExist(err) {
		return 0
	}
	if err != nil {
		t.Fatalf("read jobs dir: %v", err)
	}
	return len(entries)
}

func statesEqual(got, want []State) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func resolutionError() error {
	return services.Wrap(services.ErrResolution, "resolving", "dump metadata", "video unavailable", nil)
}
