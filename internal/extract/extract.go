// Package extract turns uploaded document bytes into plain text.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var (
	// ErrUnsupportedType is returned for media types with no extractor.
	ErrUnsupportedType = errors.New("unsupported document type")
	// ErrUnreadable is returned when the bytes do not parse as the declared type.
	ErrUnreadable = errors.New("document content is unreadable")
)

// Kind is the extractor selected for a document.
type Kind string

const (
	KindText Kind = "text"
	KindPDF  Kind = "pdf"
	KindDOCX Kind = "docx"
)

const docxMediaType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

var textMediaTypes = map[string]bool{
	"text/plain":       true,
	"text/markdown":    true,
	"text/x-markdown":  true,
	"text/csv":         true,
	"text/html":        true,
	"application/json": true,
}

var kindByExt = map[string]Kind{
	".txt":      KindText,
	".md":       KindText,
	".markdown": KindText,
	".csv":      KindText,
	".json":     KindText,
	".pdf":      KindPDF,
	".docx":     KindDOCX,
}

// Detect picks the extractor from the media type, falling back to the file
// extension when the client sent a generic type such as application/octet-stream.
func Detect(mediaType, name string) (Kind, error) {
	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(mediaType))
	}
	switch {
	case mt == "application/pdf":
		return KindPDF, nil
	case mt == docxMediaType:
		return KindDOCX, nil
	case textMediaTypes[mt]:
		return KindText, nil
	}
	if k, ok := kindByExt[strings.ToLower(filepath.Ext(name))]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mediaType)
}

// Text reads r fully and returns its plain text according to mediaType and name.
func Text(r io.Reader, mediaType, name string) (string, error) {
	kind, err := Detect(mediaType, name)
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}

	var text string
	switch kind {
	case KindPDF:
		text, err = pdfText(data)
	case KindDOCX:
		text, err = docxText(data)
	default:
		text, err = plainText(data)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: no text content", ErrUnreadable)
	}
	return text, nil
}

func plainText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: not valid UTF-8", ErrUnreadable)
	}
	return string(data), nil
}
