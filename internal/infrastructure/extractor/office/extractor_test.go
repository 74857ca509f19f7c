package office

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/ratatutor/backend/internal/core/domain"
)

type memoryStorage struct {
	objects map[string][]byte
}

func (m *memoryStorage) Save(_ context.Context, key string, data io.Reader) error {
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[key] = raw
	return nil
}

func (m *memoryStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	raw, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("no object for key %s", key)
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func storedAttachment(t *testing.T, storage *memoryStorage, filename string, raw []byte) domain.Attachment {
	t.Helper()
	key := "att-1_" + filename
	if err := storage.Save(context.Background(), key, bytes.NewReader(raw)); err != nil {
		t.Fatalf("store fixture: %v", err)
	}
	return domain.Attachment{ID: "att-1", Filename: filename, StoragePath: key}
}

func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	for name, content := range entries {
		entry, err := writer.Create(name)
		if err != nil {
			t.Fatalf("create zip entry %s: %v", name, err)
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			t.Fatalf("write zip entry %s: %v", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestExtractTXT(t *testing.T) {
	storage := &memoryStorage{}
	attachment := storedAttachment(t, storage, "notes.txt", []byte("hello"))

	text, err := NewExtractor(storage).Extract(context.Background(), attachment)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if text != "hello" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestExtractTXTInvalidUTF8(t *testing.T) {
	storage := &memoryStorage{}
	attachment := storedAttachment(t, storage, "binary.txt", []byte{0xff, 0xfe, 0x00})

	_, err := NewExtractor(storage).Extract(context.Background(), attachment)
	if !domain.IsKind(err, domain.ErrExtraction) {
		t.Fatalf("expected extraction kind, got %v", err)
	}
}

func TestExtractUnsupportedExtension(t *testing.T) {
	_, err := NewExtractor(&memoryStorage{}).Extract(context.Background(),
		domain.Attachment{ID: "att-1", Filename: "macro.xlsm", StoragePath: "att-1_macro.xlsm"})
	if !domain.IsKind(err, domain.ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported-format kind, got %v", err)
	}
}

func TestExtractMissingObject(t *testing.T) {
	_, err := NewExtractor(&memoryStorage{}).Extract(context.Background(),
		domain.Attachment{ID: "att-1", Filename: "gone.txt", StoragePath: "att-1_gone.txt"})
	if !domain.IsKind(err, domain.ErrExtraction) {
		t.Fatalf("expected extraction kind, got %v", err)
	}
}

func TestExtractDOCXParagraphs(t *testing.T) {
	document := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First </w:t></w:r><w:r><w:t>paragraph</w:t></w:r></w:p>
    <w:p><w:r><w:t>   </w:t></w:r></w:p>
    <w:p><w:r><w:t>Second one</w:t></w:r></w:p>
  </w:body>
</w:document>`
	raw := buildZip(t, map[string]string{"word/document.xml": document})
	storage := &memoryStorage{}
	attachment := storedAttachment(t, storage, "chapter.docx", raw)

	text, err := NewExtractor(storage).Extract(context.Background(), attachment)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if text != "First paragraph\nSecond one" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestExtractDOCXMissingDocumentPart(t *testing.T) {
	raw := buildZip(t, map[string]string{"word/styles.xml": "<w:styles/>"})
	storage := &memoryStorage{}
	attachment := storedAttachment(t, storage, "broken.docx", raw)

	_, err := NewExtractor(storage).Extract(context.Background(), attachment)
	if !domain.IsKind(err, domain.ErrExtraction) {
		t.Fatalf("expected extraction kind, got %v", err)
	}
	if !strings.Contains(err.Error(), "word/document.xml") {
		t.Fatalf("error should name the missing part, got %v", err)
	}
}

func TestExtractPPTXSlidesInDeckOrder(t *testing.T) {
	slide := func(lines ...string) string {
		var sb strings.Builder
		sb.WriteString(`<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">`)
		for _, line := range lines {
			sb.WriteString("<a:p><a:r><a:t>" + line + "</a:t></a:r></a:p>")
		}
		sb.WriteString(`</p:sld>`)
		return sb.String()
	}
	// Zip entry order deliberately reversed; slide numbers decide the order.
	raw := buildZip(t, map[string]string{
		"ppt/slides/slide10.xml":          slide("Closing remarks"),
		"ppt/slides/slide2.xml":           slide(),
		"ppt/slides/slide1.xml":           slide("Title slide", "Subtitle"),
		"ppt/notesSlides/notesSlide1.xml": slide("speaker notes"),
	})
	storage := &memoryStorage{}
	attachment := storedAttachment(t, storage, "deck.pptx", raw)

	text, err := NewExtractor(storage).Extract(context.Background(), attachment)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := "Title slide\nSubtitle\n\nClosing remarks"
	if text != want {
		t.Fatalf("unexpected text %q, want %q", text, want)
	}
}
