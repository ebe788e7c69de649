package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"
)

// extractDOCX pulls text out of a Word document: non-empty paragraph text
// concatenated line by line, plus tables flattened one row per line with cell
// text joined by a pipe delimiter.
func extractDOCX(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", userErrorf("unsupported format: not a valid DOCX archive")
	}

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", userErrorf("unsupported format: unreadable DOCX document")
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", userErrorf("unsupported format: unreadable DOCX document")
		}

		return parseDocumentXML(content), nil
	}

	return "", userErrorf("unsupported format: DOCX archive has no document body")
}

// documentXML mirrors the parts of word/document.xml we care about.
type documentXML struct {
	Body struct {
		Paragraphs []docParagraph `xml:"p"`
		Tables     []docTable     `xml:"tbl"`
	} `xml:"body"`
}

type docParagraph struct {
	Runs []docRun `xml:"r"`
}

type docRun struct {
	Text []docText `xml:"t"`
}

type docText struct {
	Content string `xml:",chardata"`
}

type docTable struct {
	Rows []docTableRow `xml:"tr"`
}

type docTableRow struct {
	Cells []docTableCell `xml:"tc"`
}

type docTableCell struct {
	Paragraphs []docParagraph `xml:"p"`
}

func parseDocumentXML(content []byte) string {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return ""
	}

	var out []string
	for _, para := range doc.Body.Paragraphs {
		if text := paragraphText(para); text != "" {
			out = append(out, text)
		}
	}

	for _, table := range doc.Body.Tables {
		for _, row := range table.Rows {
			var cells []string
			for _, cell := range row.Cells {
				var cellParts []string
				for _, para := range cell.Paragraphs {
					if text := paragraphText(para); text != "" {
						cellParts = append(cellParts, text)
					}
				}
				if joined := strings.Join(cellParts, " "); joined != "" {
					cells = append(cells, joined)
				}
			}
			if len(cells) > 0 {
				out = append(out, strings.Join(cells, " | "))
			}
		}
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}

func paragraphText(para docParagraph) string {
	var sb strings.Builder
	for _, run := range para.Runs {
		for _, text := range run.Text {
			sb.WriteString(text.Content)
		}
	}
	return strings.TrimSpace(sb.String())
}
