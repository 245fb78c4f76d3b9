// Package extract turns raw attachment bytes into text. Each recognized
// MIME category has its own strategy; failures stay inside this boundary as
// typed values and never reach callers as panics.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

type FailureKind string

const (
	// KindUnsupported marks a MIME type outside the recognized categories.
	// It is not an extraction error; the file was never attempted.
	KindUnsupported FailureKind = "unsupported"
	// KindExtraction marks a recognized file whose strategy failed.
	KindExtraction FailureKind = "extraction"
)

// Failure is the typed error returned for anything that goes wrong during
// extraction. Reason is safe to show to users.
type Failure struct {
	Kind   FailureKind
	Reason string
	Err    error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Reason, f.Err)
	}
	return f.Reason
}

func (f *Failure) Unwrap() error { return f.Err }

// MIME types recognized alongside the image/* and text/* prefixes.
const (
	MimePDF  = "application/pdf"
	MimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeDoc  = "application/msword"
)

// Extractor is stateless and safe for concurrent use across files. A nil
// OCR client degrades image extraction to a typed failure.
type Extractor struct {
	ocr *OCRClient
}

func New(ocr *OCRClient) *Extractor {
	return &Extractor{ocr: ocr}
}

// Extract classifies declaredMime into exactly one category and runs that
// category's strategy.
func (e *Extractor) Extract(ctx context.Context, data []byte, declaredMime string) (string, error) {
	mime := strings.ToLower(strings.TrimSpace(declaredMime))
	switch {
	case strings.HasPrefix(mime, "image/"):
		return e.extractImage(ctx, data)
	case mime == MimePDF:
		return extractPDF(data)
	case mime == MimeDocx || mime == MimeDoc:
		return extractDocx(data)
	case mime == "text/plain" || strings.HasPrefix(mime, "text/"):
		return extractPlainText(data)
	default:
		return "", &Failure{Kind: KindUnsupported, Reason: "unsupported file type: " + declaredMime}
	}
}

func (e *Extractor) extractImage(ctx context.Context, data []byte) (string, error) {
	if e.ocr == nil {
		return "", &Failure{Kind: KindExtraction, Reason: "OCR failed", Err: fmt.Errorf("no OCR service configured")}
	}
	text, err := e.ocr.Recognize(ctx, data)
	if err != nil {
		return "", &Failure{Kind: KindExtraction, Reason: "OCR failed", Err: err}
	}
	return strings.TrimSpace(text), nil
}

func extractPDF(data []byte) (text string, err error) {
	// The pdf package panics on some malformed inputs; contain that here so
	// a bad upload cannot take the request down.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &Failure{Kind: KindExtraction, Reason: "PDF text extraction failed", Err: fmt.Errorf("parser panic: %v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &Failure{Kind: KindExtraction, Reason: "PDF text extraction failed", Err: err}
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", &Failure{Kind: KindExtraction, Reason: "PDF text extraction failed", Err: err}
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", &Failure{Kind: KindExtraction, Reason: "PDF text extraction failed", Err: err}
	}
	return strings.TrimSpace(string(raw)), nil
}

func extractPlainText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", &Failure{Kind: KindExtraction, Reason: "text decoding failed", Err: fmt.Errorf("not valid UTF-8")}
	}
	return strings.TrimSpace(string(data)), nil
}
