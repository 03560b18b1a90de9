//go:build !darwin || !cgo

package pasteboard

import (
	"crypto/sha256"
	"fmt"
	"sync"

	atottoClip "github.com/atotto/clipboard"
	"go.uber.org/zap"
)

// atottoPasteboard is the text-only fallback used off macOS (or without cgo).
// The platform exposes no change counter, so one is synthesized: ChangeCount
// hashes the current clipboard text and bumps the counter whenever the hash
// differs from the last observation.
type atottoPasteboard struct {
	mu      sync.Mutex
	logger  *zap.Logger
	lastSum [sha256.Size]byte
	counter int64
}

// New returns the portable text-only pasteboard.
func New(logger *zap.Logger) Pasteboard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &atottoPasteboard{logger: logger, counter: 1}
}

func (p *atottoPasteboard) ChangeCount() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	text, err := atottoClip.ReadAll()
	if err != nil {
		return p.counter
	}
	sum := sha256.Sum256([]byte(text))
	if sum != p.lastSum {
		p.lastSum = sum
		p.counter++
	}
	return p.counter
}

func (p *atottoPasteboard) ReadText() (string, bool) {
	text, err := atottoClip.ReadAll()
	if err != nil {
		p.logger.Debug("Clipboard read failed", zap.Error(err))
		return "", false
	}
	return text, true
}

func (p *atottoPasteboard) ReadImage() ([]byte, Format, bool) {
	// Image capture is unsupported on the portable backend.
	return nil, "", false
}

func (p *atottoPasteboard) WriteText(text string) error {
	if err := atottoClip.WriteAll(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}

func (p *atottoPasteboard) WriteImage(png []byte) error {
	return fmt.Errorf("image clipboard writes are not supported on this platform")
}
