// Package localdir is a transport.Messenger that delivers files into a local
// directory and prints status text to a writer. The CLI fetch command uses it
// to run the full pipeline without a chat.
package localdir

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"clipper/internal/fileutil"
	"clipper/internal/transport"
)

// Messenger writes status lines to out and copies uploads into dir.
type Messenger struct {
	dir string
	out io.Writer

	mu        sync.Mutex
	nextID    int
	delivered []string
}

// New constructs a Messenger. dir is created on first delivery.
func New(dir string, out io.Writer) *Messenger {
	if out == nil {
		out = io.Discard
	}
	return &Messenger{dir: dir, out: out}
}

// SendText prints text and returns a synthetic message id.
func (m *Messenger) SendText(_ context.Context, _ int64, text string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	fmt.Fprintln(m.out, text)
	return m.nextID, nil
}

// EditText prints the replacement text.
func (m *Messenger) EditText(_ context.Context, _ int64, messageID int, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if messageID <= 0 || messageID > m.nextID {
		return transport.ErrMessageNotFound
	}
	fmt.Fprintln(m.out, text)
	return nil
}

// Pin is a no-op.
func (m *Messenger) Pin(context.Context, int64, int) error { return nil }

// DeleteMessage is a no-op.
func (m *Messenger) DeleteMessage(context.Context, int64, int) error { return nil }

// SendFile copies the upload into the output directory, never overwriting an
// existing file.
func (m *Messenger) SendFile(_ context.Context, _ int64, upload transport.Upload) (int, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return 0, fmt.Errorf("create output directory: %w", err)
	}
	target := fileutil.UniquePath(filepath.Join(m.dir, filepath.Base(upload.Path)))
	if err := fileutil.CopyFileVerified(upload.Path, target); err != nil {
		return 0, fmt.Errorf("deliver %s: %w", filepath.Base(upload.Path), err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.delivered = append(m.delivered, target)
	fmt.Fprintf(m.out, "saved %s\n", target)
	return m.nextID, nil
}

// Delivered returns the paths written so far, in delivery order.
func (m *Messenger) Delivered() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.delivered...)
}
