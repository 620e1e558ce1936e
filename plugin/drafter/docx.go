package drafter

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
)

// textNode is one <w:t> element located in a part's XML.
type textNode struct {
	start, end int // byte range of the whole element
	text       string
	changed    bool
}

type run struct {
	nodes []*textNode
}

func (r *run) text() string {
	var b strings.Builder
	for _, n := range r.nodes {
		b.WriteString(n.text)
	}
	return b.String()
}

type paragraph struct {
	runs []*run
}

func (p *paragraph) text() string {
	var b strings.Builder
	for _, r := range p.runs {
		b.WriteString(r.text())
	}
	return b.String()
}

func (p *paragraph) nodes() []*textNode {
	var nodes []*textNode
	for _, r := range p.runs {
		nodes = append(nodes, r.nodes...)
	}
	return nodes
}

// part is a parsed WordprocessingML part. Paragraphs are ordered by their
// closing tag, so paragraphs nested in text boxes precede their host.
type part struct {
	data       []byte
	paragraphs []*paragraph
	nodes      []*textNode
}

// parsePart scans the XML of a document, header or footer part for
// paragraphs, runs and text elements. Table cells hold ordinary paragraphs
// so they need no special handling.
func parsePart(data []byte) (*part, error) {
	p := &part{data: data}
	var (
		paraStack []*paragraph
		runStack  []*run
	)

	for i := 0; i < len(data); {
		lt := bytes.IndexByte(data[i:], '<')
		if lt < 0 {
			break
		}
		lt += i
		rest := data[lt:]

		switch {
		case bytes.HasPrefix(rest, []byte("<!--")):
			end := bytes.Index(rest, []byte("-->"))
			if end < 0 {
				return nil, fmt.Errorf("unterminated comment at offset %d", lt)
			}
			i = lt + end + 3
			continue
		case bytes.HasPrefix(rest, []byte("<![CDATA[")):
			end := bytes.Index(rest, []byte("]]>"))
			if end < 0 {
				return nil, fmt.Errorf("unterminated CDATA at offset %d", lt)
			}
			i = lt + end + 3
			continue
		case bytes.HasPrefix(rest, []byte("<?")):
			end := bytes.Index(rest, []byte("?>"))
			if end < 0 {
				return nil, fmt.Errorf("unterminated processing instruction at offset %d", lt)
			}
			i = lt + end + 2
			continue
		}

		gt := bytes.IndexByte(rest, '>')
		if gt < 0 {
			return nil, fmt.Errorf("unterminated tag at offset %d", lt)
		}
		tag := rest[1:gt]
		tagEnd := lt + gt + 1
		closing := len(tag) > 0 && tag[0] == '/'
		selfClosing := len(tag) > 0 && tag[len(tag)-1] == '/'
		name := tagName(tag)

		switch {
		case name == "w:p" && !closing && !selfClosing:
			paraStack = append(paraStack, &paragraph{})
		case name == "w:p" && closing:
			if len(paraStack) == 0 {
				return nil, fmt.Errorf("unbalanced </w:p> at offset %d", lt)
			}
			top := paraStack[len(paraStack)-1]
			paraStack = paraStack[:len(paraStack)-1]
			p.paragraphs = append(p.paragraphs, top)
		case name == "w:r" && !closing && !selfClosing:
			r := &run{}
			if len(paraStack) > 0 {
				top := paraStack[len(paraStack)-1]
				top.runs = append(top.runs, r)
			}
			runStack = append(runStack, r)
		case name == "w:r" && closing:
			if len(runStack) == 0 {
				return nil, fmt.Errorf("unbalanced </w:r> at offset %d", lt)
			}
			runStack = runStack[:len(runStack)-1]
		case name == "w:t" && !closing:
			node := &textNode{start: lt, end: tagEnd}
			if !selfClosing {
				closeIdx := bytes.Index(data[tagEnd:], []byte("</w:t>"))
				if closeIdx < 0 {
					return nil, fmt.Errorf("unterminated <w:t> at offset %d", lt)
				}
				text, err := decodeText(data[tagEnd : tagEnd+closeIdx])
				if err != nil {
					return nil, err
				}
				node.text = text
				node.end = tagEnd + closeIdx + len("</w:t>")
			}
			if len(runStack) > 0 {
				top := runStack[len(runStack)-1]
				top.nodes = append(top.nodes, node)
				p.nodes = append(p.nodes, node)
			}
			i = node.end
			continue
		}
		i = tagEnd
	}

	return p, nil
}

func tagName(tag []byte) string {
	tag = bytes.TrimPrefix(tag, []byte("/"))
	end := bytes.IndexAny(tag, " \t\r\n/")
	if end >= 0 {
		tag = tag[:end]
	}
	return string(tag)
}

func decodeText(raw []byte) (string, error) {
	if bytes.IndexByte(raw, '&') < 0 {
		return string(raw), nil
	}
	dec := xml.NewDecoder(io.MultiReader(
		strings.NewReader("<t>"), bytes.NewReader(raw), strings.NewReader("</t>"),
	))
	var b strings.Builder
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode text: %w", err)
		}
		if cd, ok := tok.(xml.CharData); ok {
			b.Write(cd)
		}
	}
	return b.String(), nil
}

// replace substitutes marker with value in every paragraph containing it.
// Runs holding the whole marker are edited in place so their formatting
// survives; a marker split across runs falls back to rewriting the
// paragraph text into its first text element. It reports whether anything
// changed.
func (p *part) replace(marker, value string) bool {
	changed := false
	for _, para := range p.paragraphs {
		if !strings.Contains(para.text(), marker) {
			continue
		}
		changed = true

		inRun := false
		for _, r := range para.runs {
			if !strings.Contains(r.text(), marker) {
				continue
			}
			inRun = true
			for _, n := range r.nodes {
				if strings.Contains(n.text, marker) {
					n.text = strings.ReplaceAll(n.text, marker, value)
					n.changed = true
				}
			}
			// marker split between text elements of the same run
			if strings.Contains(r.text(), marker) {
				setText(r.nodes, strings.ReplaceAll(r.text(), marker, value))
			}
		}
		if !inRun {
			setText(para.nodes(), strings.ReplaceAll(para.text(), marker, value))
		}
	}
	return changed
}

func setText(nodes []*textNode, text string) {
	for i, n := range nodes {
		if i == 0 {
			n.text = text
		} else {
			n.text = ""
		}
		n.changed = true
	}
}

// bytes renders the part, rewriting only the text elements that changed.
func (p *part) bytes() []byte {
	var changed []*textNode
	for _, n := range p.nodes {
		if n.changed {
			changed = append(changed, n)
		}
	}
	if len(changed) == 0 {
		return p.data
	}
	sort.Slice(changed, func(i, j int) bool { return changed[i].start < changed[j].start })

	var out bytes.Buffer
	out.Grow(len(p.data))
	last := 0
	for _, n := range changed {
		out.Write(p.data[last:n.start])
		writeRunText(&out, n.text)
		last = n.end
	}
	out.Write(p.data[last:])
	return out.Bytes()
}

// writeRunText writes text as run content. Newlines become <w:br/> and tabs
// become <w:tab/>.
func writeRunText(buf *bytes.Buffer, text string) {
	wrote := false
	segment := func(s string) {
		buf.WriteString(`<w:t xml:space="preserve">`)
		_ = xml.EscapeText(buf, []byte(s))
		buf.WriteString(`</w:t>`)
		wrote = true
	}

	start := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '\n' && c != '\t' {
			continue
		}
		if i > start {
			segment(text[start:i])
		}
		if c == '\n' {
			buf.WriteString(`<w:br/>`)
		} else {
			buf.WriteString(`<w:tab/>`)
		}
		start = i + 1
	}
	if start < len(text) || !wrote {
		segment(text[start:])
	}
}

// isTextPart reports whether a package entry holds substitutable text.
func isTextPart(name string) bool {
	if name == "word/document.xml" {
		return true
	}
	dir, file := path.Split(name)
	if dir != "word/" || !strings.HasSuffix(file, ".xml") {
		return false
	}
	return strings.HasPrefix(file, "header") || strings.HasPrefix(file, "footer")
}

// substituteDocx copies the package read from src to dst with every
// {{KEY}} marker in values replaced. Keys are applied in sorted order.
func substituteDocx(src *zip.Reader, dst io.Writer, values map[string]string) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	zw := zip.NewWriter(dst)
	for _, f := range src.File {
		if !isTextPart(f.Name) {
			if err := zw.Copy(f); err != nil {
				return fmt.Errorf("copy %s: %w", f.Name, err)
			}
			continue
		}

		data, err := readEntry(f)
		if err != nil {
			return err
		}
		p, err := parsePart(data)
		if err != nil {
			return fmt.Errorf("parse %s: %w", f.Name, err)
		}
		for _, k := range keys {
			p.replace("{{"+k+"}}", values[k])
		}

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   f.Method,
			Modified: f.Modified,
		})
		if err != nil {
			return fmt.Errorf("create %s: %w", f.Name, err)
		}
		if _, err := w.Write(p.bytes()); err != nil {
			return fmt.Errorf("write %s: %w", f.Name, err)
		}
	}
	return zw.Close()
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	return data, nil
}

// ParagraphTexts returns the text of every paragraph in the package's main
// document, headers and footers, in part order.
func ParagraphTexts(r *zip.Reader) ([]string, error) {
	var texts []string
	for _, f := range r.File {
		if !isTextPart(f.Name) {
			continue
		}
		data, err := readEntry(f)
		if err != nil {
			return nil, err
		}
		p, err := parsePart(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", f.Name, err)
		}
		for _, para := range p.paragraphs {
			texts = append(texts, para.text())
		}
	}
	return texts, nil
}
