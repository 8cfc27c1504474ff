// Package extract pulls plain text out of uploaded resume documents.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/kailas-cloud/collabmatch/internal/domain"
)

// ErrUnreadable is returned, wrapped, for any document text cannot be read from.
var ErrUnreadable = domain.ErrUnreadableDocument

var pdfMagic = []byte("%PDF-")

// Extractor converts PDF, plain text and markdown uploads to text.
type Extractor struct {
	maxBytes int64
	logger   *zap.Logger
}

// New creates an extractor rejecting documents larger than maxBytes (0 means no limit).
func New(maxBytes int64, logger *zap.Logger) *Extractor {
	return &Extractor{maxBytes: maxBytes, logger: logger}
}

// Extract returns the document text. PDFs are detected by content, other
// files by extension; unknown binary content is rejected.
func (e *Extractor) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%s is empty: %w", filename, ErrUnreadable)
	}
	if e.maxBytes > 0 && int64(len(data)) > e.maxBytes {
		return "", fmt.Errorf("%s exceeds %d bytes: %w", filename, e.maxBytes, ErrUnreadable)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var (
		text string
		err  error
	)
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case bytes.HasPrefix(data, pdfMagic) || ext == ".pdf":
		text, err = pdfText(data)
	case ext == ".txt" || ext == ".md" || ext == ".markdown" || ext == "":
		text, err = plainText(data)
	default:
		err = fmt.Errorf("unsupported file type %q", ext)
	}
	if err != nil {
		e.logger.Warn("Document extraction failed",
			zap.String("filename", filename),
			zap.Int("size", len(data)),
			zap.Error(err),
		)
		return "", fmt.Errorf("%s: %w: %w", filename, ErrUnreadable, err)
	}

	text = normalize(text)
	if text == "" {
		return "", fmt.Errorf("%s has no text: %w", filename, ErrUnreadable)
	}
	return text, nil
}

func plainText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("not valid UTF-8 text")
	}
	return string(data), nil
}

func pdfText(data []byte) (text string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return string(b), nil
}

// normalize trims each line and collapses runs of blank lines.
func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	out := make([]string, 0, len(lines))
	blank := false
	for _, l := range lines {
		l = strings.Join(strings.Fields(l), " ")
		if l == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, l)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
