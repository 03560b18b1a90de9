// Package store implements the clipboard capture-and-retention engine: it
// polls the pasteboard change counter, classifies new content as image or
// text, deduplicates against what is already retained, bounds the in-memory
// recent lists, and persists pin/unpin transitions through the persistence
// adapter.
//
// All list state is guarded by one mutex so the poll cycle and user-triggered
// operations (pin, delete, copy) never interleave. Exactly one poller runs at
// a time; changing the poll interval replaces the ticker wholesale.
package store

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marmotbay/clippin/internal/pasteboard"
	"github.com/marmotbay/clippin/internal/persist"
	"github.com/marmotbay/clippin/internal/prefs"
	"github.com/marmotbay/clippin/internal/types"
	"github.com/marmotbay/clippin/pkg/imaging"
)

const (
	// Recent images carry full payloads, so their ceiling is fixed and
	// independent of the user-tunable text history limit.
	imageRecentLimit = 20

	defaultMaxImageBytes = 10 * 1024 * 1024
)

// Options configures a Store.
type Options struct {
	Pasteboard pasteboard.Pasteboard
	Prefs      *prefs.Store
	Disk       *persist.Adapter
	Logger     *zap.Logger

	// Clock defaults to the wall clock; tests inject a mock.
	Clock clock.Clock

	// MaxImageBytes caps captured image payloads. Zero means the default.
	MaxImageBytes int
}

// Status is a point-in-time snapshot of the engine, for CLI/UI display.
type Status struct {
	Running       bool      `json:"running"`
	ChangeCount   int64     `json:"change_count"`
	LastCaptureAt time.Time `json:"last_capture_at"`
	RecentTexts   int       `json:"recent_texts"`
	PinnedTexts   int       `json:"pinned_texts"`
	RecentImages  int       `json:"recent_images"`
	PinnedImages  int       `json:"pinned_images"`
}

type saveJob struct {
	kind   types.Kind
	texts  []*types.TextEntry
	images []*types.ImageEntry
}

// Store is the capture engine. Construct with New, then Start.
type Store struct {
	logger        *zap.Logger
	pb            pasteboard.Pasteboard
	prefs         *prefs.Store
	disk          *persist.Adapter
	clock         clock.Clock
	maxImageBytes int

	mu           sync.Mutex
	recentTexts  []*types.TextEntry
	pinnedTexts  []*types.TextEntry
	recentImages []*types.ImageEntry
	pinnedImages []*types.ImageEntry

	lastChange  int64
	lastCapture time.Time
	running     bool

	ticker    *clock.Ticker
	restartCh chan struct{}
	stopCh    chan struct{}
	pollWg    sync.WaitGroup

	// saveCh is recreated on every Start; Stop closes it to drain the saver.
	saveCh  chan saveJob
	saverWg sync.WaitGroup
}

// New wires the engine to its collaborators and subscribes to preference
// changes. The store is the single preference observer.
func New(opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	maxImageBytes := opts.MaxImageBytes
	if maxImageBytes <= 0 {
		maxImageBytes = defaultMaxImageBytes
	}

	s := &Store{
		logger:        logger,
		pb:            opts.Pasteboard,
		prefs:         opts.Prefs,
		disk:          opts.Disk,
		clock:         clk,
		maxImageBytes: maxImageBytes,
		restartCh:     make(chan struct{}, 1),
	}
	s.prefs.OnChange(s.handlePrefChange)
	return s
}

// Start loads the pinned sets from disk, records the current change counter
// as the capture baseline, and launches the poll loop.
func (s *Store) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("capture store already running")
	}

	values := s.prefs.Get()
	s.pinnedTexts = s.disk.LoadPinnedTexts()
	if values.SaveImages {
		s.pinnedImages = s.disk.LoadPinnedImages()
	}

	// Content present before launch is not treated as a new copy.
	s.lastChange = s.pb.ChangeCount()

	s.running = true
	s.stopCh = make(chan struct{})
	s.saveCh = make(chan saveJob, 64)
	s.ticker = s.clock.Ticker(s.pollInterval(values.PollInterval))
	pinnedTexts, pinnedImages := len(s.pinnedTexts), len(s.pinnedImages)
	s.mu.Unlock()

	s.saverWg.Add(1)
	go s.saveLoop()
	s.pollWg.Add(1)
	go s.pollLoop()

	s.logger.Info("Capture store started",
		zap.Int("pinned_texts", pinnedTexts),
		zap.Int("pinned_images", pinnedImages),
		zap.Float64("poll_interval_s", values.PollInterval))
	return nil
}

// Stop halts polling and drains pending persistence writes.
func (s *Store) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.ticker.Stop()
	close(s.stopCh)
	s.mu.Unlock()

	s.pollWg.Wait()
	close(s.saveCh)
	s.saverWg.Wait()

	s.logger.Info("Capture store stopped")
}

// pollInterval applies the hard floor regardless of what the preference
// store holds.
func (s *Store) pollInterval(seconds float64) time.Duration {
	if seconds < prefs.MinPollInterval {
		seconds = prefs.MinPollInterval
	}
	return time.Duration(seconds * float64(time.Second))
}

func (s *Store) pollLoop() {
	defer s.pollWg.Done()
	for {
		s.mu.Lock()
		ticker := s.ticker
		s.mu.Unlock()

		select {
		case <-s.stopCh:
			return
		case <-s.restartCh:
			// Interval changed; re-read the ticker.
		case <-ticker.C:
			s.captureCycle()
		}
	}
}

// captureCycle is one pass of the capture state machine: no-op when the
// counter is unchanged, otherwise classify and retain exactly one entry kind.
func (s *Store) captureCycle() {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := s.pb.ChangeCount()
	if count == s.lastChange {
		return
	}
	// Record before processing so a failed capture is not retried forever.
	s.lastChange = count

	values := s.prefs.Get()

	if values.SaveImages {
		if data, format, ok := s.pb.ReadImage(); ok {
			// A clipboard write is classified as exactly one kind; even a
			// rejected image suppresses text capture for this cycle.
			s.captureImage(data, format, values)
			return
		}
	}
	s.captureText(values)
}

func (s *Store) captureText(values prefs.Values) {
	text, ok := s.pb.ReadText()
	if !ok {
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	if values.PreventDuplicates && s.containsText(text) {
		s.logger.Debug("Duplicate text rejected", zap.Int("length", len(text)))
		return
	}

	entry := &types.TextEntry{
		ID:         uuid.New().String(),
		Content:    text,
		CapturedAt: s.clock.Now(),
	}
	s.recentTexts = append([]*types.TextEntry{entry}, s.recentTexts...)
	s.clampRecentTexts(values.HistoryLimit)
	s.lastCapture = entry.CapturedAt

	s.logger.Debug("Captured text", zap.String("id", entry.ID), zap.Int("length", len(text)))
}

func (s *Store) captureImage(data []byte, format pasteboard.Format, values prefs.Values) {
	if len(data) > s.maxImageBytes {
		s.logger.Debug("Oversized image rejected",
			zap.Int("bytes", len(data)), zap.Int("ceiling", s.maxImageBytes))
		return
	}

	// Header check first; a full decode of an unreadable payload is wasted.
	if !imaging.Valid(data) {
		s.logger.Debug("Unreadable image rejected", zap.String("format", string(format)))
		return
	}

	png, err := imaging.ToPNG(data)
	if err != nil {
		s.logger.Debug("Invalid image rejected",
			zap.String("format", string(format)), zap.Error(err))
		return
	}
	if len(png) > s.maxImageBytes {
		s.logger.Debug("Oversized image rejected after canonicalization",
			zap.Int("bytes", len(png)), zap.Int("ceiling", s.maxImageBytes))
		return
	}

	if values.PreventDuplicates && s.containsImage(png) {
		s.logger.Debug("Duplicate image rejected", zap.Int("bytes", len(png)))
		return
	}

	entry := &types.ImageEntry{
		ID:         uuid.New().String(),
		Data:       png,
		CapturedAt: s.clock.Now(),
	}
	s.recentImages = append([]*types.ImageEntry{entry}, s.recentImages...)
	s.clampRecentImages()
	s.lastCapture = entry.CapturedAt

	s.logger.Debug("Captured image", zap.String("id", entry.ID), zap.Int("bytes", len(png)))
}

// containsText scans both retained text lists. The existing entry keeps its
// position; a duplicate never refreshes it.
func (s *Store) containsText(content string) bool {
	for _, e := range s.recentTexts {
		if e.Content == content {
			return true
		}
	}
	for _, e := range s.pinnedTexts {
		if e.Content == content {
			return true
		}
	}
	return false
}

func (s *Store) containsImage(png []byte) bool {
	probe := &types.ImageEntry{Data: png}
	for _, e := range s.recentImages {
		if e.EqualData(probe) {
			return true
		}
	}
	for _, e := range s.pinnedImages {
		if e.EqualData(probe) {
			return true
		}
	}
	return false
}

// clampRecentTexts evicts from the tail (oldest first) down to limit.
func (s *Store) clampRecentTexts(limit int) {
	if limit > 0 && len(s.recentTexts) > limit {
		s.recentTexts = s.recentTexts[:limit]
	}
}

func (s *Store) clampRecentImages() {
	if len(s.recentImages) > imageRecentLimit {
		s.recentImages = s.recentImages[:imageRecentLimit]
	}
}

// CopyText writes the entry's content back onto the clipboard and resyncs
// the observed change counter so the next poll cycle does not recapture it.
// Clipboard write failures are logged, never surfaced.
func (s *Store) CopyText(entry types.TextEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.pb.WriteText(entry.Content); err != nil {
		s.logger.Warn("Failed to write text to clipboard", zap.Error(err))
	}
	s.lastChange = s.pb.ChangeCount()
}

// CopyImage writes the entry's PNG payload back onto the clipboard.
func (s *Store) CopyImage(entry types.ImageEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.pb.WriteImage(entry.Data); err != nil {
		s.logger.Warn("Failed to write image to clipboard", zap.Error(err))
	}
	s.lastChange = s.pb.ChangeCount()
}

// TogglePinText moves the entry between the recent and pinned lists. Pinning
// puts it at the head of pinned (pin time ordering) and issues a persistence
// write before returning; unpinning moves it to the head of recent and
// re-applies the history limit, which may evict an older entry.
func (s *Store) TogglePinText(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, rest, ok := removeText(s.recentTexts, id); ok {
		s.recentTexts = rest
		entry.Pinned = true
		s.pinnedTexts = append([]*types.TextEntry{entry}, s.pinnedTexts...)
		s.enqueueSave(types.KindText)
		return
	}
	if entry, rest, ok := removeText(s.pinnedTexts, id); ok {
		s.pinnedTexts = rest
		entry.Pinned = false
		s.recentTexts = append([]*types.TextEntry{entry}, s.recentTexts...)
		s.clampRecentTexts(s.prefs.Get().HistoryLimit)
		s.enqueueSave(types.KindText)
		return
	}
	s.logger.Debug("TogglePinText: unknown entry", zap.String("id", id))
}

// TogglePinImage is the image counterpart of TogglePinText.
func (s *Store) TogglePinImage(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, rest, ok := removeImage(s.recentImages, id); ok {
		s.recentImages = rest
		entry.Pinned = true
		s.pinnedImages = append([]*types.ImageEntry{entry}, s.pinnedImages...)
		s.enqueueSave(types.KindImage)
		return
	}
	if entry, rest, ok := removeImage(s.pinnedImages, id); ok {
		s.pinnedImages = rest
		entry.Pinned = false
		s.recentImages = append([]*types.ImageEntry{entry}, s.recentImages...)
		s.clampRecentImages()
		s.enqueueSave(types.KindImage)
		return
	}
	s.logger.Debug("TogglePinImage: unknown entry", zap.String("id", id))
}

// DeleteText removes an entry from the recent list only. Pinned entries can
// leave the pinned set solely via unpin, so a pinned id is a no-op.
func (s *Store) DeleteText(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, rest, ok := removeText(s.recentTexts, id); ok {
		s.recentTexts = rest
	}
}

// DeleteImage removes an entry from the recent image list only.
func (s *Store) DeleteImage(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, rest, ok := removeImage(s.recentImages, id); ok {
		s.recentImages = rest
	}
}

// Clear empties the recent text list. Pinned entries are untouched.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recentTexts = nil
}

// ClearImages empties the recent image list. Pinned entries are untouched.
func (s *Store) ClearImages() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recentImages = nil
}

// RecentTexts returns a copy of the recent text list, newest first.
func (s *Store) RecentTexts() []types.TextEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyTexts(s.recentTexts)
}

// PinnedTexts returns a copy of the pinned text list, newest pin first.
func (s *Store) PinnedTexts() []types.TextEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyTexts(s.pinnedTexts)
}

// RecentImages returns a copy of the recent image list, newest first.
func (s *Store) RecentImages() []types.ImageEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyImages(s.recentImages)
}

// PinnedImages returns a copy of the pinned image list, newest pin first.
func (s *Store) PinnedImages() []types.ImageEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyImages(s.pinnedImages)
}

// Status reports a snapshot of the engine state.
func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Running:       s.running,
		ChangeCount:   s.lastChange,
		LastCaptureAt: s.lastCapture,
		RecentTexts:   len(s.recentTexts),
		PinnedTexts:   len(s.pinnedTexts),
		RecentImages:  len(s.recentImages),
		PinnedImages:  len(s.pinnedImages),
	}
}

// handlePrefChange reacts to a single knob update. Invoked synchronously
// from the preference setter.
func (s *Store) handlePrefChange(change prefs.Change) {
	switch change.Field {
	case prefs.FieldHistoryLimit:
		s.mu.Lock()
		s.clampRecentTexts(change.Values.HistoryLimit)
		s.mu.Unlock()

	case prefs.FieldPollInterval:
		s.restartTicker(change.Values.PollInterval)

	case prefs.FieldSaveImages:
		s.mu.Lock()
		if change.Values.SaveImages {
			// Pinned images stayed on disk while capture was off.
			s.pinnedImages = s.disk.LoadPinnedImages()
		} else {
			s.recentImages = nil
			s.pinnedImages = nil
		}
		s.mu.Unlock()
	}
}

// restartTicker invalidates the current ticker and installs a fresh one with
// the new interval. The poll loop picks it up on its next iteration; two
// pollers are never active at once.
func (s *Store) restartTicker(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.ticker.Stop()
	s.ticker = s.clock.Ticker(s.pollInterval(seconds))

	select {
	case s.restartCh <- struct{}{}:
	default:
	}
	s.logger.Debug("Poll ticker restarted", zap.Float64("interval_s", seconds))
}

// enqueueSave snapshots the pinned set for kind and hands it to the saver
// goroutine. The write is issued before the pin operation returns; disk
// failures are logged and otherwise unobserved, leaving memory authoritative
// for the session. Caller must hold s.mu.
func (s *Store) enqueueSave(kind types.Kind) {
	job := saveJob{kind: kind}
	switch kind {
	case types.KindText:
		job.texts = snapshotTexts(s.pinnedTexts)
	case types.KindImage:
		job.images = snapshotImages(s.pinnedImages)
	}

	if !s.running {
		// The saver loop is gone; write directly.
		go s.runSave(job)
		return
	}

	select {
	case s.saveCh <- job:
	default:
		// Queue full; fall back to a direct fire-and-forget write.
		go s.runSave(job)
	}
}

func (s *Store) saveLoop() {
	defer s.saverWg.Done()
	for job := range s.saveCh {
		s.runSave(job)
	}
}

func (s *Store) runSave(job saveJob) {
	var err error
	switch job.kind {
	case types.KindText:
		err = s.disk.SavePinnedTexts(job.texts)
	case types.KindImage:
		err = s.disk.SavePinnedImages(job.images)
	}
	if err != nil {
		s.logger.Warn("Failed to persist pinned entries",
			zap.String("kind", string(job.kind)), zap.Error(err))
	}
}

func removeText(list []*types.TextEntry, id string) (*types.TextEntry, []*types.TextEntry, bool) {
	for i, e := range list {
		if e.ID == id {
			rest := append(append([]*types.TextEntry{}, list[:i]...), list[i+1:]...)
			return e, rest, true
		}
	}
	return nil, list, false
}

func removeImage(list []*types.ImageEntry, id string) (*types.ImageEntry, []*types.ImageEntry, bool) {
	for i, e := range list {
		if e.ID == id {
			rest := append(append([]*types.ImageEntry{}, list[:i]...), list[i+1:]...)
			return e, rest, true
		}
	}
	return nil, list, false
}

func copyTexts(list []*types.TextEntry) []types.TextEntry {
	out := make([]types.TextEntry, len(list))
	for i, e := range list {
		out[i] = *e
	}
	return out
}

func copyImages(list []*types.ImageEntry) []types.ImageEntry {
	out := make([]types.ImageEntry, len(list))
	for i, e := range list {
		out[i] = *e
	}
	return out
}

func snapshotTexts(list []*types.TextEntry) []*types.TextEntry {
	out := make([]*types.TextEntry, len(list))
	for i, e := range list {
		clone := *e
		out[i] = &clone
	}
	return out
}

func snapshotImages(list []*types.ImageEntry) []*types.ImageEntry {
	out := make([]*types.ImageEntry, len(list))
	for i, e := range list {
		clone := *e
		out[i] = &clone
	}
	return out
}
