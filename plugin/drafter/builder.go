package drafter

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
)

// Document is the source of a generated template package.
type Document struct {
	// Font is the default typeface; Size the default size in points.
	Font   string
	Size   int
	Header []Paragraph
	Body   []Block
}

// Block is a body-level element: a Paragraph or a Table.
type Block interface {
	writeXML(buf *bytes.Buffer)
}

// Paragraph is a sequence of runs sharing an alignment.
type Paragraph struct {
	Runs  []Run
	Align string // left, center, right, both
}

// Run is a piece of text with uniform formatting. Newlines and tabs in Text
// become line breaks and tab stops.
type Run struct {
	Text      string
	Bold      bool
	Underline bool
	Size      int // points, 0 inherits
}

// Table is a grid of cells, each holding paragraphs.
type Table struct {
	Rows [][][]Paragraph
}

// P builds a paragraph from plain text.
func P(text string) Paragraph {
	return Paragraph{Runs: []Run{{Text: text}}}
}

func (p Paragraph) writeXML(buf *bytes.Buffer) {
	buf.WriteString(`<w:p>`)
	if p.Align != "" {
		fmt.Fprintf(buf, `<w:pPr><w:jc w:val="%s"/></w:pPr>`, p.Align)
	}
	for _, r := range p.Runs {
		r.writeXML(buf)
	}
	buf.WriteString(`</w:p>`)
}

func (r Run) writeXML(buf *bytes.Buffer) {
	buf.WriteString(`<w:r>`)
	if r.Bold || r.Underline || r.Size > 0 {
		buf.WriteString(`<w:rPr>`)
		if r.Bold {
			buf.WriteString(`<w:b/>`)
		}
		if r.Underline {
			buf.WriteString(`<w:u w:val="single"/>`)
		}
		if r.Size > 0 {
			fmt.Fprintf(buf, `<w:sz w:val="%d"/>`, r.Size*2)
		}
		buf.WriteString(`</w:rPr>`)
	}
	writeRunText(buf, r.Text)
	buf.WriteString(`</w:r>`)
}

func (t Table) writeXML(buf *bytes.Buffer) {
	buf.WriteString(`<w:tbl><w:tblPr><w:tblW w:w="0" w:type="auto"/></w:tblPr>`)
	for _, row := range t.Rows {
		buf.WriteString(`<w:tr>`)
		for _, cell := range row {
			buf.WriteString(`<w:tc>`)
			if len(cell) == 0 {
				// a cell must end with a paragraph
				cell = []Paragraph{{}}
			}
			for _, p := range cell {
				p.writeXML(buf)
			}
			buf.WriteString(`</w:tc>`)
		}
		buf.WriteString(`</w:tr>`)
	}
	buf.WriteString(`</w:tbl>`)
}

const (
	nsMain  = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`
	nsRel   = `xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`
	xmlDecl = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
)

// BuildDocx writes doc as a minimal WordprocessingML package.
func BuildDocx(w io.Writer, doc *Document) error {
	zw := zip.NewWriter(w)
	hasHeader := len(doc.Header) > 0

	parts := []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", contentTypes(hasHeader)},
		{"_rels/.rels", []byte(xmlDecl + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
			`</Relationships>`)},
		{"word/_rels/document.xml.rels", documentRels(hasHeader)},
		{"word/styles.xml", styles(doc.Font, doc.Size)},
		{"word/document.xml", documentXML(doc, hasHeader)},
	}
	if hasHeader {
		var buf bytes.Buffer
		buf.WriteString(xmlDecl + `<w:hdr ` + nsMain + ` ` + nsRel + `>`)
		for _, p := range doc.Header {
			p.writeXML(&buf)
		}
		buf.WriteString(`</w:hdr>`)
		parts = append(parts, struct {
			name string
			data []byte
		}{"word/header1.xml", buf.Bytes()})
	}

	for _, p := range parts {
		fw, err := zw.Create(p.name)
		if err != nil {
			return fmt.Errorf("create %s: %w", p.name, err)
		}
		if _, err := fw.Write(p.data); err != nil {
			return fmt.Errorf("write %s: %w", p.name, err)
		}
	}
	return zw.Close()
}

func contentTypes(hasHeader bool) []byte {
	var buf bytes.Buffer
	buf.WriteString(xmlDecl + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	buf.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	buf.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	buf.WriteString(`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>`)
	buf.WriteString(`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>`)
	if hasHeader {
		buf.WriteString(`<Override PartName="/word/header1.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.header+xml"/>`)
	}
	buf.WriteString(`</Types>`)
	return buf.Bytes()
}

func documentRels(hasHeader bool) []byte {
	var buf bytes.Buffer
	buf.WriteString(xmlDecl + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	buf.WriteString(`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>`)
	if hasHeader {
		buf.WriteString(`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/header" Target="header1.xml"/>`)
	}
	buf.WriteString(`</Relationships>`)
	return buf.Bytes()
}

func styles(font string, size int) []byte {
	if font == "" {
		font = "Times New Roman"
	}
	if size <= 0 {
		size = 12
	}
	var escaped bytes.Buffer
	_ = xml.EscapeText(&escaped, []byte(font))
	f := escaped.String()

	return []byte(xmlDecl + `<w:styles ` + nsMain + `>` +
		`<w:docDefaults><w:rPrDefault><w:rPr>` +
		`<w:rFonts w:ascii="` + f + `" w:hAnsi="` + f + `" w:cs="` + f + `"/>` +
		`<w:sz w:val="` + strconv.Itoa(size*2) + `"/>` +
		`</w:rPr></w:rPrDefault></w:docDefaults>` +
		`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style>` +
		`</w:styles>`)
}

func documentXML(doc *Document, hasHeader bool) []byte {
	var buf bytes.Buffer
	buf.WriteString(xmlDecl + `<w:document ` + nsMain + ` ` + nsRel + `><w:body>`)
	for _, b := range doc.Body {
		b.writeXML(&buf)
	}
	buf.WriteString(`<w:sectPr>`)
	if hasHeader {
		buf.WriteString(`<w:headerReference w:type="default" r:id="rId2"/>`)
	}
	buf.WriteString(`<w:pgSz w:w="11906" w:h="16838"/>` +
		`<w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440" w:header="708" w:footer="708" w:gutter="0"/>` +
		`</w:sectPr></w:body></w:document>`)
	return buf.Bytes()
}
