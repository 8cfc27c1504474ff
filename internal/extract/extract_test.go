package extract

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/collabmatch/internal/domain"
)

func TestExtract_PlainText(t *testing.T) {
	e := New(0, zap.NewNop())

	got, err := e.Extract(context.Background(), "resume.txt", []byte("  Backend engineer   \r\n\r\n\r\nGo, Kafka  \n"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if want := "Backend engineer\n\nGo, Kafka"; got != want {
		t.Errorf("Extract = %q, want %q", got, want)
	}
}

func TestExtract_Markdown(t *testing.T) {
	got, err := New(0, zap.NewNop()).Extract(context.Background(), "CV.MD", []byte("# Joshua Hart\n\n- Python"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "# Joshua Hart\n\n- Python" {
		t.Errorf("Extract = %q", got)
	}
}

func TestExtract_Unreadable(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
	}{
		{"empty", "resume.txt", nil},
		{"whitespace only", "resume.txt", []byte(" \n\t ")},
		{"unsupported type", "resume.docx", []byte("PK\x03\x04")},
		{"binary as text", "resume.txt", []byte{0xff, 0xfe, 0xfd}},
		{"broken pdf", "resume.pdf", []byte("%PDF-1.4\nthis is not really a pdf")},
		{"too large", "resume.txt", make([]byte, 2048)},
	}

	e := New(1024, zap.NewNop())
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.Extract(context.Background(), tc.filename, tc.data)
			if !errors.Is(err, ErrUnreadable) || !errors.Is(err, domain.ErrUnreadableDocument) {
				t.Errorf("expected ErrUnreadable, got %v", err)
			}
		})
	}
}

func TestExtract_LogsFailure(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	_, _ = New(0, zap.New(core)).Extract(context.Background(), "resume.docx", []byte("PK"))

	entries := logs.FilterMessage("Document extraction failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one warning, got %d", len(entries))
	}
	if entries[0].ContextMap()["filename"] != "resume.docx" {
		t.Errorf("unexpected fields: %v", entries[0].ContextMap())
	}
}

func TestExtract_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(0, zap.NewNop()).Extract(ctx, "resume.txt", []byte("text")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
