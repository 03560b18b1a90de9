package pasteboard

import "sync"

// Memory is an in-process pasteboard used by tests and headless runs. Test
// code simulates external copies with SetText/SetImage, which bump the change
// counter the same way an OS clipboard write would.
type Memory struct {
	mu      sync.Mutex
	counter int64
	text    string
	hasText bool
	image   []byte
	format  Format

	// WrittenTexts and WrittenImages record writes made through the
	// Pasteboard interface, newest last.
	WrittenTexts  []string
	WrittenImages [][]byte
}

// NewMemory returns an empty in-memory pasteboard with change count 1.
func NewMemory() *Memory {
	return &Memory{counter: 1}
}

// SetText simulates an external text copy.
func (m *Memory) SetText(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	m.hasText = true
	m.image = nil
	m.counter++
}

// SetImage simulates an external image copy in the given container format.
func (m *Memory) SetImage(data []byte, format Format) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.image = append([]byte(nil), data...)
	m.format = format
	m.hasText = false
	m.counter++
}

// SetBoth simulates a copy that exposes both an image and a text
// representation, as macOS apps often do for rich content.
func (m *Memory) SetBoth(text string, data []byte, format Format) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	m.hasText = true
	m.image = append([]byte(nil), data...)
	m.format = format
	m.counter++
}

// ClearContent simulates an external write that left nothing readable.
func (m *Memory) ClearContent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = ""
	m.hasText = false
	m.image = nil
	m.counter++
}

func (m *Memory) ChangeCount() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counter
}

func (m *Memory) ReadText() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasText {
		return "", false
	}
	return m.text, true
}

func (m *Memory) ReadImage() ([]byte, Format, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.image) == 0 {
		return nil, "", false
	}
	return append([]byte(nil), m.image...), m.format, true
}

func (m *Memory) WriteText(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	m.hasText = true
	m.image = nil
	m.counter++
	m.WrittenTexts = append(m.WrittenTexts, text)
	return nil
}

func (m *Memory) WriteImage(png []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.image = append([]byte(nil), png...)
	m.hasText = false
	m.counter++
	m.WrittenImages = append(m.WrittenImages, append([]byte(nil), png...))
	return nil
}
