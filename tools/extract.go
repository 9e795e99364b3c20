package tools

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// DefaultMaxUnpackedBytes bounds the declared uncompressed size of an office
// archive when OfficeExtractor.MaxUnpackedBytes is zero.
const DefaultMaxUnpackedBytes = 64 << 20

// OfficeExtractor pulls plain text out of Word, PowerPoint, Excel,
// OpenDocument text and HTML files.
type OfficeExtractor struct {
	MaxUnpackedBytes int64
}

func (e OfficeExtractor) Extract(ctx context.Context, mimeType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	limit := e.MaxUnpackedBytes
	if limit <= 0 {
		limit = DefaultMaxUnpackedBytes
	}
	var (
		text string
		err  error
	)
	switch baseMime(mimeType) {
	case MimeDocx:
		text, err = zipText(data, limit, []string{"word/document.xml"}, docxLayout.walk)
	case MimePptx:
		text, err = pptxText(data, limit)
	case MimeXlsx:
		text, err = xlsxText(data, limit)
	case MimeOdt:
		text, err = zipText(data, limit, []string{"content.xml"}, odtLayout.walk)
	case MimeHTML:
		text, err = htmlText(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mimeType)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// xmlWalker consumes one XML part and writes its text to sb.
type xmlWalker func(d *xml.Decoder, sb *strings.Builder) error

// xmlLayout names the elements of one document format by local name, so the
// namespace prefix of each format does not matter.
type xmlLayout struct {
	text   []string          // character data is kept only inside these
	breaks []string          // a newline follows each of these
	marks  map[string]string // empty elements standing for whitespace
}

var (
	docxLayout = xmlLayout{text: []string{"t"}, breaks: []string{"p"}, marks: map[string]string{"br": "\n", "cr": "\n"}}
	pptxLayout = xmlLayout{text: []string{"t"}, breaks: []string{"p"}, marks: map[string]string{"br": "\n"}}
	odtLayout  = xmlLayout{text: []string{"p", "h"}, breaks: []string{"p", "h"}, marks: map[string]string{"tab": "\t", "s": " ", "line-break": "\n"}}
)

func (l xmlLayout) walk(d *xml.Decoder, sb *strings.Builder) error {
	depth := 0
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if m, ok := l.marks[el.Name.Local]; ok {
				sb.WriteString(m)
			}
			if slices.Contains(l.text, el.Name.Local) {
				depth++
			}
		case xml.EndElement:
			if slices.Contains(l.text, el.Name.Local) && depth > 0 {
				depth--
			}
			if slices.Contains(l.breaks, el.Name.Local) {
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if depth > 0 {
				sb.Write(el)
			}
		}
	}
}

func openZip(data []byte, limit int64) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("not a valid office document: %w", err)
	}
	var total uint64
	for _, f := range zr.File {
		total += f.UncompressedSize64
	}
	if total > uint64(limit) {
		return nil, fmt.Errorf("document unpacks to %d bytes, over the %d byte limit", total, limit)
	}
	return zr, nil
}

func zipText(data []byte, limit int64, parts []string, walk xmlWalker) (string, error) {
	zr, err := openZip(data, limit)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, name := range parts {
		if err := walkPart(zr, name, walk, &sb); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

func walkPart(zr *zip.Reader, name string, walk xmlWalker, sb *strings.Builder) error {
	f, err := zr.Open(name)
	if err != nil {
		return fmt.Errorf("missing part %s: %w", name, err)
	}
	defer f.Close()
	return walk(xml.NewDecoder(f), sb)
}

var slideName = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

func pptxText(data []byte, limit int64) (string, error) {
	zr, err := openZip(data, limit)
	if err != nil {
		return "", err
	}
	type slide struct {
		n    int
		name string
	}
	var slides []slide
	for _, f := range zr.File {
		if m := slideName.FindStringSubmatch(f.Name); m != nil {
			n, _ := strconv.Atoi(m[1])
			slides = append(slides, slide{n, f.Name})
		}
	}
	slices.SortFunc(slides, func(a, b slide) int { return a.n - b.n })

	var sb strings.Builder
	for _, s := range slides {
		fmt.Fprintf(&sb, "--- Slide %d ---\n", s.n)
		if err := walkPart(zr, s.name, pptxLayout.walk, &sb); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

var sheetName = regexp.MustCompile(`^xl/worksheets/sheet(\d+)\.xml$`)

type xlsxCell struct {
	Type   string `xml:"t,attr"`
	Value  string `xml:"v"`
	Inline string `xml:"is>t"`
}

type xlsxRow struct {
	Cells []xlsxCell `xml:"c"`
}

type xlsxSheet struct {
	Rows []xlsxRow `xml:"sheetData>row"`
}

type xlsxStrings struct {
	Items []struct {
		Text string   `xml:"t"`
		Runs []string `xml:"r>t"`
	} `xml:"si"`
}

func xlsxText(data []byte, limit int64) (string, error) {
	zr, err := openZip(data, limit)
	if err != nil {
		return "", err
	}

	var shared []string
	if f, err := zr.Open("xl/sharedStrings.xml"); err == nil {
		var ss xlsxStrings
		err := xml.NewDecoder(f).Decode(&ss)
		f.Close()
		if err != nil {
			return "", fmt.Errorf("reading shared strings: %w", err)
		}
		for _, it := range ss.Items {
			shared = append(shared, it.Text+strings.Join(it.Runs, ""))
		}
	}

	type sheet struct {
		n    int
		file *zip.File
	}
	var sheets []sheet
	for _, f := range zr.File {
		if m := sheetName.FindStringSubmatch(f.Name); m != nil {
			n, _ := strconv.Atoi(m[1])
			sheets = append(sheets, sheet{n, f})
		}
	}
	slices.SortFunc(sheets, func(a, b sheet) int { return a.n - b.n })

	var sb strings.Builder
	for _, s := range sheets {
		rc, err := s.file.Open()
		if err != nil {
			return "", err
		}
		var ws xlsxSheet
		err = xml.NewDecoder(rc).Decode(&ws)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("reading sheet %d: %w", s.n, err)
		}

		fmt.Fprintf(&sb, "--- Sheet %d ---\n", s.n)
		for _, row := range ws.Rows {
			cells := make([]string, 0, len(row.Cells))
			for _, c := range row.Cells {
				cells = append(cells, cellText(c, shared))
			}
			sb.WriteString(strings.Join(cells, "\t"))
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}

func cellText(c xlsxCell, shared []string) string {
	switch c.Type {
	case "s":
		i, err := strconv.Atoi(strings.TrimSpace(c.Value))
		if err != nil || i < 0 || i >= len(shared) {
			return ""
		}
		return shared[i]
	case "inlineStr":
		return c.Inline
	default:
		return c.Value
	}
}

func htmlText(data []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	walkHTML(doc, &sb, 0)
	return collapseBlankLines(sb.String()), nil
}

func walkHTML(n *html.Node, sb *strings.Builder, depth int) {
	if depth > 100 {
		return
	}
	switch n.Type {
	case html.TextNode:
		if text := strings.Join(strings.Fields(n.Data), " "); text != "" {
			sb.WriteString(text)
			sb.WriteByte(' ')
		}
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "svg", "head":
			return
		case "br":
			sb.WriteByte('\n')
		case "li":
			sb.WriteString("\n- ")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkHTML(c, sb, depth+1)
	}
	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "div", "h1", "h2", "h3", "h4", "h5", "h6", "tr", "table", "ul", "ol", "section", "article":
			sb.WriteString("\n\n")
		}
	}
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, l := range lines {
		l = strings.TrimSpace(l)
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
	return strings.Join(out, "\n")
}
