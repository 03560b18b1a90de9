// Package pasteboard abstracts the OS clipboard behind a small interface:
// read the current content, write new content, and observe a monotonic
// change counter that increments on every clipboard write.
//
// Read operations never fail; a missing or malformed payload is reported as
// "no content" so a polling cycle degrades to a no-op instead of an error.
package pasteboard

// Format identifies the container an image payload was read in.
type Format string

const (
	FormatPNG  Format = "png"
	FormatTIFF Format = "tiff"
)

// Pasteboard is the OS clipboard abstraction used by the capture store.
type Pasteboard interface {
	// ChangeCount returns a counter that increases on every clipboard write,
	// including writes made by this process.
	ChangeCount() int64

	// ReadText returns the current plain-text content, if any.
	ReadText() (string, bool)

	// ReadImage returns the current image payload and its container format.
	// Implementations probe richer representations first (a native image
	// object, then TIFF, then PNG on macOS); the first one present wins.
	ReadImage() ([]byte, Format, bool)

	// WriteText replaces the clipboard content with text. Implementations
	// resynchronize their own observed counter after the write so the
	// process does not recapture content it just wrote.
	WriteText(text string) error

	// WriteImage replaces the clipboard content with PNG image data.
	WriteImage(png []byte) error
}
