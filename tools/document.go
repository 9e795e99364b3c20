package tools

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/tailored-agentic-units/course-agent/core/course"
)

// DocumentFetcher loads the bytes of a course file.
type DocumentFetcher interface {
	Fetch(ctx context.Context, file course.File) ([]byte, error)
}

// TextExtractor turns a document into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, mimeType string, data []byte) (string, error)
}

// ErrUnsupportedFormat is returned by a TextExtractor for a format it cannot
// read.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Limits bound what read_file_content reads and returns to the model.
// MaxInlineBytes caps files passed through as base64, MaxExtractBytes caps
// files handed to the text extractor.
type Limits struct {
	MaxInlineBytes  int64
	MaxExtractBytes int64
	MaxTextChars    int
}

func DefaultLimits() Limits {
	return Limits{MaxInlineBytes: 4 << 20, MaxExtractBytes: 16 << 20, MaxTextChars: 20000}
}

func (l Limits) complete() Limits {
	d := DefaultLimits()
	if l.MaxInlineBytes <= 0 {
		l.MaxInlineBytes = d.MaxInlineBytes
	}
	if l.MaxExtractBytes <= 0 {
		l.MaxExtractBytes = d.MaxExtractBytes
	}
	if l.MaxTextChars <= 0 {
		l.MaxTextChars = d.MaxTextChars
	}
	return l
}

// Documents holds the collaborators of the read_file_content tool.
type Documents struct {
	Fetcher   DocumentFetcher
	Extractor TextExtractor
	Limits    Limits
}

// Document result kinds.
const (
	DocInline = "inline"
	DocText   = "text"
	DocError  = "error"
)

// Document is the content of read_file_content: base64 data for formats the
// model reads natively, extracted text for office formats, or an error.
type Document struct {
	Kind     string `json:"kind"`
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
	Text     string `json:"text,omitempty"`
	Error    string `json:"error,omitempty"`
}

var inlineTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
	"image/gif":       true,
	"image/webp":      true,
	"text/plain":      true,
	"text/markdown":   true,
	"text/csv":        true,
}

var extractTypes = map[string]bool{
	MimeDocx: true,
	MimePptx: true,
	MimeXlsx: true,
	MimeOdt:  true,
	MimeHTML: true,
}

const (
	MimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimePptx = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	MimeXlsx = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MimeOdt  = "application/vnd.oasis.opendocument.text"
	MimeHTML = "text/html"
)

func docError(format string, args ...any) Result {
	return Result{Content: Document{Kind: DocError, Error: fmt.Sprintf(format, args...)}, IsError: true}
}

func readFileContent(ctx context.Context, env Env, params map[string]any) (Result, error) {
	id := param(params, "id")
	file, ok := course.FindFile(env.Snapshot, id)
	if !ok {
		return docError("no file with id %q in this course", id), nil
	}
	docs := env.Documents
	if docs == nil || docs.Fetcher == nil {
		return docError("file contents are not available in this session"), nil
	}
	limits := docs.Limits.complete()

	mimeType := baseMime(file.MimeType)
	inline, extract := inlineTypes[mimeType], extractTypes[mimeType]
	if !inline && !extract {
		return docError("%s (%s) is not a supported format", file.Name, file.MimeType), nil
	}
	maxBytes := limits.MaxExtractBytes
	if inline {
		maxBytes = limits.MaxInlineBytes
	}
	if file.Size > maxBytes {
		return docError("%s is %d bytes, over the %d byte limit", file.Name, file.Size, maxBytes), nil
	}

	data, err := docs.Fetcher.Fetch(ctx, file)
	if err != nil {
		return docError("could not read %s: %v", file.Name, err), nil
	}
	if int64(len(data)) > maxBytes {
		return docError("%s is %d bytes, over the %d byte limit", file.Name, len(data), maxBytes), nil
	}

	if inline {
		return Result{Content: Document{
			Kind:     DocInline,
			MimeType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(data),
		}}, nil
	}

	if docs.Extractor == nil {
		return docError("no text extractor for %s", file.MimeType), nil
	}
	text, err := docs.Extractor.Extract(ctx, mimeType, data)
	if err != nil {
		return docError("could not extract text from %s: %v", file.Name, err), nil
	}
	if r := []rune(text); len(r) > limits.MaxTextChars {
		text = string(r[:limits.MaxTextChars]) + "\n[truncated]"
	}
	return Result{Content: Document{Kind: DocText, MimeType: mimeType, Text: text}}, nil
}

func baseMime(m string) string {
	m, _, _ = strings.Cut(m, ";")
	return strings.ToLower(strings.TrimSpace(m))
}

// DirFetcher reads course files from a directory. A file is looked up by its
// StoragePath, or by its name when StoragePath is empty. Paths cannot escape
// the directory. With MaxBytes set, reading stops one byte past it.
type DirFetcher struct {
	Root     string
	MaxBytes int64
}

func (d DirFetcher) Fetch(ctx context.Context, file course.File) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel := file.StoragePath
	if rel == "" {
		rel = file.Name
	}
	rel = path.Clean(strings.TrimPrefix(filepathToSlash(rel), "/"))

	root, err := os.OpenRoot(d.Root)
	if err != nil {
		return nil, err
	}
	defer root.Close()

	f, err := root.Open(rel)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var r io.Reader = f
	if d.MaxBytes > 0 {
		r = io.LimitReader(f, d.MaxBytes+1)
	}
	return io.ReadAll(r)
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}
