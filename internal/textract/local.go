package textract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/hyunsoo/bizharvest/internal/domain"
)

// extractLocal is the in-process fallback parser. It handles the ZIP-based
// document formats (HWPX and OOXML containers) by walking the XML parts and
// collecting character data. Binary HWP and PDF need the external service.
func extractLocal(data []byte, format domain.FileFormat) (string, error) {
	switch format {
	case domain.FileFormatHWPX:
		return extractZipXMLText(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// isContentPart reports whether an archive entry carries document body
// text. HWPX sections come first in reading order, then the OOXML part.
func isContentPart(name string) bool {
	if strings.HasPrefix(name, "Contents/section") && strings.HasSuffix(name, ".xml") {
		return true
	}
	return name == "word/document.xml"
}

func extractZipXMLText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open document container: %w", err)
	}

	var parts []string
	for _, f := range zr.File {
		if !isContentPart(f.Name) {
			continue
		}
		text, err := readXMLText(f)
		if err != nil {
			return "", err
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no text content found in document container")
	}
	return strings.Join(parts, "\n"), nil
}

func readXMLText(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open container entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	var sb strings.Builder
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse %s: %w", f.Name, err)
		}
		if cd, ok := tok.(xml.CharData); ok {
			s := strings.TrimSpace(string(cd))
			if s == "" {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(s)
		}
	}
	return sb.String(), nil
}
