package tools_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tailored-agentic-units/course-agent/core/course"
	"github.com/tailored-agentic-units/course-agent/tools"
)

type mapFetcher map[string][]byte

func (m mapFetcher) Fetch(_ context.Context, f course.File) ([]byte, error) {
	data, ok := m[f.ID]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

func readFile(t *testing.T, docs *tools.Documents, id string) tools.Document {
	t.Helper()
	e := tools.Env{Snapshot: fixture(), Documents: docs}
	result, err := tools.Default().Execute(context.Background(), e, "read_file_content", map[string]any{"id": id})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	doc, ok := result.Content.(tools.Document)
	if !ok {
		t.Fatalf("got %T, want tools.Document", result.Content)
	}
	if result.IsError != (doc.Kind == tools.DocError) {
		t.Errorf("IsError = %v for kind %q", result.IsError, doc.Kind)
	}
	return doc
}

func TestReadFileContent_Inline(t *testing.T) {
	pdf := []byte("%PDF-1.4 ...")
	docs := &tools.Documents{Fetcher: mapFetcher{"f1": pdf}, Limits: tools.DefaultLimits()}

	doc := readFile(t, docs, "f1")
	if doc.Kind != tools.DocInline || doc.MimeType != "application/pdf" {
		t.Fatalf("got %+v, want inline pdf", doc)
	}
	if doc.Data != base64.StdEncoding.EncodeToString(pdf) {
		t.Errorf("got data %q, want the base64 file bytes", doc.Data)
	}
}

func TestReadFileContent_ExtractedText(t *testing.T) {
	page := []byte(`<html><head><title>x</title></head><body><h1>Week 1</h1><p>Read chapter 2.</p><script>alert(1)</script></body></html>`)
	docs := &tools.Documents{
		Fetcher:   mapFetcher{"f2": page},
		Extractor: tools.OfficeExtractor{},
		Limits:    tools.Limits{MaxInlineBytes: 1 << 20, MaxTextChars: 10},
	}

	doc := readFile(t, docs, "f2")
	if doc.Kind != tools.DocText {
		t.Fatalf("got %+v, want text", doc)
	}
	if want := "Week 1\n\nRe\n[truncated]"; doc.Text != want {
		t.Errorf("got %q, want %q", doc.Text, want)
	}
}

func TestReadFileContent_Errors(t *testing.T) {
	fetch := mapFetcher{"f1": bytes.Repeat([]byte("x"), 64)}
	tests := []struct {
		name string
		docs *tools.Documents
		id   string
		want string
	}{
		{"unknown file", &tools.Documents{Fetcher: fetch}, "nope", "no file"},
		{"no documents", nil, "f1", "not available"},
		{"unsupported format", &tools.Documents{Fetcher: fetch}, "f3", "not a supported format"},
		{"declared size over limit", &tools.Documents{Fetcher: fetch, Limits: tools.Limits{MaxInlineBytes: 8, MaxTextChars: 10}}, "f1", "over the 8 byte limit"},
		{"fetched size over limit", &tools.Documents{Fetcher: fetch, Limits: tools.Limits{MaxInlineBytes: 32, MaxTextChars: 10}}, "f1", "64 bytes"},
		{"declared size over extract limit", &tools.Documents{Fetcher: mapFetcher{"f2": []byte("<p>x</p>")}, Extractor: tools.OfficeExtractor{}, Limits: tools.Limits{MaxExtractBytes: 16}}, "f2", "over the 16 byte limit"},
		{"fetched size over extract limit", &tools.Documents{Fetcher: mapFetcher{"f2": bytes.Repeat([]byte("<p>x</p>"), 8)}, Extractor: tools.OfficeExtractor{}, Limits: tools.Limits{MaxExtractBytes: 48}}, "f2", "64 bytes"},
		{"fetch failure", &tools.Documents{Fetcher: mapFetcher{}}, "f1", "could not read"},
		{"no extractor", &tools.Documents{Fetcher: mapFetcher{"f2": []byte("<p>x</p>")}}, "f2", "no text extractor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := readFile(t, tt.docs, tt.id)
			if doc.Kind != tools.DocError || !strings.Contains(doc.Error, tt.want) {
				t.Errorf("got %+v, want an error containing %q", doc, tt.want)
			}
		})
	}
}

func TestDirFetcher(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "c1"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "c1", "syllabus.pdf"), []byte("pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("notes"), 0o644); err != nil {
		t.Fatal(err)
	}

	f := tools.DirFetcher{Root: dir}
	ctx := context.Background()

	got, err := f.Fetch(ctx, course.File{Name: "ignored", StoragePath: "c1/syllabus.pdf"})
	if err != nil || string(got) != "pdf" {
		t.Errorf("got (%q, %v), want the stored file", got, err)
	}
	got, err = f.Fetch(ctx, course.File{Name: "notes.txt"})
	if err != nil || string(got) != "notes" {
		t.Errorf("got (%q, %v), want the file by name", got, err)
	}
	if _, err := f.Fetch(ctx, course.File{StoragePath: "../outside.txt"}); err == nil {
		t.Error("path escaping the root was read")
	}

	capped := tools.DirFetcher{Root: dir, MaxBytes: 2}
	if got, err := capped.Fetch(ctx, course.File{Name: "notes.txt"}); err != nil || string(got) != "not" {
		t.Errorf("got (%q, %v), want the read stopped one byte past the cap", got, err)
	}
}

func zipDoc(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range parts {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestOfficeExtractor(t *testing.T) {
	docx := zipDoc(t, map[string]string{
		"word/document.xml": `<w:document xmlns:w="urn:w"><w:body>` +
			`<w:p><w:r><w:t>Lab safety</w:t></w:r></w:p>` +
			`<w:p><w:r><w:t>Wear </w:t></w:r><w:r><w:t>goggles.</w:t></w:r></w:p>` +
			`</w:body></w:document>`,
	})
	pptx := zipDoc(t, map[string]string{
		"ppt/slides/slide2.xml":  `<p:sld xmlns:p="urn:p" xmlns:a="urn:a"><a:p><a:r><a:t>Second</a:t></a:r></a:p></p:sld>`,
		"ppt/slides/slide1.xml":  `<p:sld xmlns:p="urn:p" xmlns:a="urn:a"><a:p><a:r><a:t>First</a:t></a:r></a:p></p:sld>`,
		"ppt/slides/slide10.xml": `<p:sld xmlns:p="urn:p" xmlns:a="urn:a"><a:p><a:r><a:t>Tenth</a:t></a:r></a:p></p:sld>`,
	})
	xlsx := zipDoc(t, map[string]string{
		"xl/sharedStrings.xml":     `<sst><si><t>Name</t></si><si><t>Score</t></si><si><r><t>Ada</t></r><r><t> L</t></r></si></sst>`,
		"xl/worksheets/sheet1.xml": `<worksheet><sheetData><row><c t="s"><v>0</v></c><c t="s"><v>1</v></c></row><row><c t="s"><v>2</v></c><c><v>93</v></c></row></sheetData></worksheet>`,
	})
	odt := zipDoc(t, map[string]string{
		"content.xml": `<office:document-content xmlns:office="urn:o" xmlns:text="urn:t"><office:body><office:text>` +
			`<text:h>Syllabus</text:h><text:p>Week<text:s/>one</text:p>` +
			`</office:text></office:body></office:document-content>`,
	})

	tests := []struct {
		name string
		mime string
		data []byte
		want string
	}{
		{"docx", tools.MimeDocx, docx, "Lab safety\nWear goggles."},
		{"pptx", tools.MimePptx, pptx, "--- Slide 1 ---\nFirst\n--- Slide 2 ---\nSecond\n--- Slide 10 ---\nTenth"},
		{"xlsx", tools.MimeXlsx, xlsx, "--- Sheet 1 ---\nName\tScore\nAda L\t93"},
		{"odt", tools.MimeOdt, odt, "Syllabus\nWeek one"},
		{"html", "text/html; charset=utf-8", []byte(`<ul><li>one</li><li>two</li></ul>`), "- one\n- two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tools.OfficeExtractor{}.Extract(context.Background(), tt.mime, tt.data)
			if err != nil {
				t.Fatalf("Extract() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOfficeExtractor_Errors(t *testing.T) {
	ctx := context.Background()
	if _, err := (tools.OfficeExtractor{}).Extract(ctx, "video/mp4", nil); !errors.Is(err, tools.ErrUnsupportedFormat) {
		t.Errorf("got %v, want ErrUnsupportedFormat", err)
	}
	if _, err := (tools.OfficeExtractor{}).Extract(ctx, tools.MimeDocx, []byte("not a zip")); err == nil {
		t.Error("corrupt docx extracted without error")
	}
	if _, err := (tools.OfficeExtractor{}).Extract(ctx, tools.MimeDocx, zipDoc(t, map[string]string{"other.xml": "<x/>"})); err == nil {
		t.Error("docx without a document part extracted without error")
	}

	big := zipDoc(t, map[string]string{"word/document.xml": "<w:document>" + strings.Repeat("<w:p/>", 200) + "</w:document>"})
	_, err := tools.OfficeExtractor{MaxUnpackedBytes: 100}.Extract(ctx, tools.MimeDocx, big)
	if err == nil || !strings.Contains(err.Error(), "over the 100 byte limit") {
		t.Errorf("got %v, want the unpacked size refused", err)
	}
}
