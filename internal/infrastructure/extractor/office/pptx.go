package office

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var slideEntryPattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// extractPPTX joins per-slide text with blank lines. Within a slide, shape
// paragraphs join with newlines; slides with no text are omitted. Slides are
// visited in deck order, not zip entry order.
func extractPPTX(raw []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open container: %w", err)
	}

	type slideEntry struct {
		number int
		file   *zip.File
	}
	slides := make([]slideEntry, 0, 16)
	for _, file := range archive.File {
		match := slideEntryPattern.FindStringSubmatch(file.Name)
		if match == nil {
			continue
		}
		number, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		slides = append(slides, slideEntry{number: number, file: file})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].number < slides[j].number })

	texts := make([]string, 0, len(slides))
	for _, slide := range slides {
		rc, err := slide.file.Open()
		if err != nil {
			return "", fmt.Errorf("open slide %d: %w", slide.number, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("read slide %d: %w", slide.number, err)
		}
		text, err := slideText(data)
		if err != nil {
			return "", fmt.Errorf("parse slide %d: %w", slide.number, err)
		}
		texts = append(texts, text)
	}
	return joinNonEmpty(texts, "\n\n"), nil
}

// slideText collects DrawingML text runs (a:t), one line per paragraph (a:p).
func slideText(data []byte) (string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	lines := make([]string, 0, 16)
	var current strings.Builder
	inText := false

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch element := token.(type) {
		case xml.StartElement:
			if element.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch element.Name.Local {
			case "t":
				inText = false
			case "p":
				if text := strings.TrimSpace(current.String()); text != "" {
					lines = append(lines, text)
				}
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(element)
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}
