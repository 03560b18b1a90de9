//go:build darwin && cgo

package pasteboard

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa
#import <Cocoa/Cocoa.h>
#import <stdlib.h>
#import <string.h>

static long pbChangeCount() {
    return [[NSPasteboard generalPasteboard] changeCount];
}

static char* pbReadText() {
    NSPasteboard *pasteboard = [NSPasteboard generalPasteboard];
    NSString *text = [pasteboard stringForType:NSPasteboardTypeString];
    if (text == nil) {
        return NULL;
    }
    return strdup([text UTF8String]);
}

// pbReadImage probes a pasteboard-provided image object first, then raw
// TIFF data, then raw PNG. The object probe catches content only readable
// as an NSImage, such as PDF-backed images. format is set to 1 for TIFF,
// 2 for PNG.
static void* pbReadImage(int* length, int* format) {
    NSPasteboard *pasteboard = [NSPasteboard generalPasteboard];
    NSArray *types = [pasteboard types];
    NSData *data = nil;

    NSArray *objects = [pasteboard readObjectsForClasses:@[[NSImage class]]
                                                 options:nil];
    if ([objects count] > 0) {
        data = [(NSImage *)[objects firstObject] TIFFRepresentation];
        *format = 1;
    }
    if (data == nil && [types containsObject:NSPasteboardTypeTIFF]) {
        data = [pasteboard dataForType:NSPasteboardTypeTIFF];
        *format = 1;
    }
    if (data == nil && [types containsObject:NSPasteboardTypePNG]) {
        data = [pasteboard dataForType:NSPasteboardTypePNG];
        *format = 2;
    }
    if (data == nil || [data length] == 0) {
        return NULL;
    }

    void *bytes = malloc([data length]);
    if (bytes == NULL) {
        return NULL;
    }
    memcpy(bytes, [data bytes], [data length]);
    *length = (int)[data length];
    return bytes;
}

static long pbWriteText(const char* text) {
    NSPasteboard *pasteboard = [NSPasteboard generalPasteboard];
    [pasteboard clearContents];
    [pasteboard setString:[NSString stringWithUTF8String:text]
                  forType:NSPasteboardTypeString];
    return [pasteboard changeCount];
}

static long pbWriteImage(const void* bytes, int length) {
    NSPasteboard *pasteboard = [NSPasteboard generalPasteboard];
    NSData *data = [NSData dataWithBytes:bytes length:length];
    [pasteboard clearContents];
    [pasteboard setData:data forType:NSPasteboardTypePNG];
    return [pasteboard changeCount];
}
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"

	"go.uber.org/zap"
)

// darwinPasteboard talks to NSPasteboard through cgo.
type darwinPasteboard struct {
	mu     sync.Mutex
	logger *zap.Logger
}

// New returns the macOS pasteboard backed by NSPasteboard.
func New(logger *zap.Logger) Pasteboard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &darwinPasteboard{logger: logger}
}

func (p *darwinPasteboard) ChangeCount() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return int64(C.pbChangeCount())
}

func (p *darwinPasteboard) ReadText() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cText := C.pbReadText()
	if cText == nil {
		return "", false
	}
	defer C.free(unsafe.Pointer(cText))
	return C.GoString(cText), true
}

func (p *darwinPasteboard) ReadImage() ([]byte, Format, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var length, format C.int
	cData := C.pbReadImage(&length, &format)
	if cData == nil {
		return nil, "", false
	}
	defer C.free(cData)

	data := C.GoBytes(cData, length)
	switch format {
	case 1:
		return data, FormatTIFF, true
	case 2:
		return data, FormatPNG, true
	default:
		return nil, "", false
	}
}

func (p *darwinPasteboard) WriteText(text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	cText := C.CString(text)
	defer C.free(unsafe.Pointer(cText))
	C.pbWriteText(cText)
	return nil
}

func (p *darwinPasteboard) WriteImage(png []byte) error {
	if len(png) == 0 {
		return fmt.Errorf("no image data to write")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	C.pbWriteImage(unsafe.Pointer(&png[0]), C.int(len(png)))
	return nil
}
