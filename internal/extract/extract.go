package extract

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"jobboard-backend/internal/shared/storage/object"
	"jobboard-backend/internal/shared/telemetry"
)

// ErrorPrefix starts every placeholder returned in place of resume text when
// parsing fails.
const ErrorPrefix = "Error: Could not parse resume file. "

// maxResumeBytes bounds how much of a stored resume is read into memory.
const maxResumeBytes = 20 << 20

// ResumeText loads the stored resume and returns its plain text. It never
// fails: unreadable files yield an ErrorPrefix placeholder and unsupported
// extensions yield "".
func ResumeText(ctx context.Context, store object.ObjectStore, storageKey, fileName string) string {
	if fileName == "" {
		fileName = storageKey
	}
	if !Supported(fileName) {
		return ""
	}

	data, err := load(ctx, store, storageKey)
	if err != nil {
		return placeholder(storageKey, err)
	}

	text, err := FromBytes(data, fileName)
	if err != nil {
		return placeholder(storageKey, err)
	}
	return text
}

// FromBytes extracts text by file extension. Unsupported extensions return
// "" with no error.
func FromBytes(data []byte, fileName string) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = fmt.Errorf("parser panic: %v", rec)
		}
	}()

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		text, err = extractPDF(data)
	case ".docx":
		text, err = extractDOCX(data)
	case ".txt":
		if !utf8.Valid(data) {
			return "", errors.New("text file is not valid UTF-8")
		}
		text = string(data)
	default:
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return sanitize(text), nil
}

// sanitize drops NUL bytes and invalid UTF-8, neither of which a Postgres
// TEXT column accepts.
func sanitize(text string) string {
	return strings.ReplaceAll(strings.ToValidUTF8(text, ""), "\x00", "")
}

// Supported reports whether fileName has an extension the extractor reads.
func Supported(fileName string) bool {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf", ".docx", ".txt":
		return true
	default:
		return false
	}
}

// IsErrorPlaceholder reports whether text came from a failed parse.
func IsErrorPlaceholder(text string) bool {
	return strings.HasPrefix(text, ErrorPrefix)
}

func load(ctx context.Context, store object.ObjectStore, storageKey string) ([]byte, error) {
	if store == nil {
		return nil, errors.New("object store not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := store.Open(ctx, storageKey)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, maxResumeBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxResumeBytes {
		return nil, fmt.Errorf("file exceeds %d bytes", maxResumeBytes)
	}
	return data, nil
}

func placeholder(storageKey string, err error) string {
	telemetry.Error("extract.failed", map[string]any{
		"storage_key": storageKey,
		"error":       err,
	})
	return ErrorPrefix + sanitize(err.Error())
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A page without extractable text contributes nothing.
			continue
		}
		buf.WriteString(text)
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty docx data")
	}
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer doc.Close()

	return paragraphText(doc.Editable().GetContent())
}

// paragraphText renders WordprocessingML body XML as one line per paragraph.
func paragraphText(raw string) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var (
		buf    strings.Builder
		inRun  bool
		inText bool
	)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "r":
				inRun = true
			case "t":
				inText = inRun
			case "tab":
				if inRun {
					buf.WriteString("\t")
				}
			case "br", "cr":
				if inRun {
					buf.WriteString("\n")
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "r":
				inRun = false
			case "t":
				inText = false
			case "p":
				buf.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				buf.Write(t)
			}
		}
	}
	return buf.String(), nil
}
