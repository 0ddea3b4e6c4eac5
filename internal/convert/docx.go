// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const docxBody = "word/document.xml"

// docxToMarkdown renders the main document part of a DOCX archive:
// headings, list items, bold/italic runs and tables.
func docxToMarkdown(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening docx archive: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != docxBody {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("opening %s: %w", docxBody, err)
		}
		defer rc.Close()
		return parseDocx(rc)
	}
	return "", fmt.Errorf("%s not found in archive", docxBody)
}

type docxState struct {
	out strings.Builder

	inText    bool
	style     string
	listLevel int
	isList    bool
	para      strings.Builder

	bold, italic bool
	run          strings.Builder

	tableDepth int
	rows       [][]string
	row        []string
	cell       strings.Builder
}

func parseDocx(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	s := &docxState{}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parsing document xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			s.start(t)
		case xml.EndElement:
			s.end(t.Name.Local)
		case xml.CharData:
			if s.inText {
				s.run.Write(t)
			}
		}
	}
	return strings.TrimSpace(s.out.String()) + "\n", nil
}

func (s *docxState) start(t xml.StartElement) {
	switch t.Name.Local {
	case "tbl":
		s.tableDepth++
		if s.tableDepth == 1 {
			s.rows = nil
		}
	case "tr":
		if s.tableDepth == 1 {
			s.row = nil
		}
	case "tc":
		if s.tableDepth == 1 {
			s.cell.Reset()
		}
	case "p":
		s.style, s.isList, s.listLevel = "", false, 0
		s.para.Reset()
	case "pStyle":
		s.style = attr(t, "val")
	case "numPr":
		s.isList = true
	case "ilvl":
		s.listLevel, _ = strconv.Atoi(attr(t, "val"))
	case "r":
		s.bold, s.italic = false, false
		s.run.Reset()
	case "b":
		s.bold = attr(t, "val") != "0" && attr(t, "val") != "false"
	case "i":
		s.italic = attr(t, "val") != "0" && attr(t, "val") != "false"
	case "t":
		s.inText = true
	case "tab":
		s.run.WriteByte('\t')
	case "br":
		s.run.WriteByte('\n')
	}
}

func (s *docxState) end(local string) {
	switch local {
	case "t":
		s.inText = false
	case "r":
		text := s.run.String()
		if s.tableDepth == 0 {
			text = emphasize(text, s.bold, s.italic)
		}
		s.para.WriteString(text)
		s.run.Reset()
	case "p":
		text := strings.TrimSpace(s.para.String())
		if s.tableDepth > 0 {
			if s.cell.Len() > 0 && text != "" {
				s.cell.WriteByte(' ')
			}
			s.cell.WriteString(text)
		} else if text != "" {
			s.out.WriteString(paragraph(text, s.style, s.isList, s.listLevel))
		}
		s.para.Reset()
	case "tc":
		// Nested tables flatten into the text of the outer cell.
		if s.tableDepth == 1 {
			s.row = append(s.row, s.cell.String())
		}
	case "tr":
		if s.tableDepth == 1 {
			s.rows = append(s.rows, s.row)
		}
	case "tbl":
		s.tableDepth--
		if s.tableDepth == 0 {
			s.out.WriteString(markdownTable(s.rows) + "\n")
			s.rows = nil
		}
	}
}

func paragraph(text, style string, isList bool, level int) string {
	if style == "Title" {
		return "# " + text + "\n\n"
	}
	if n, err := strconv.Atoi(strings.TrimPrefix(style, "Heading")); err == nil && strings.HasPrefix(style, "Heading") && n >= 1 && n <= 6 {
		return strings.Repeat("#", n) + " " + text + "\n\n"
	}
	if isList {
		return strings.Repeat("  ", level) + "- " + text + "\n"
	}
	return text + "\n\n"
}

func emphasize(text string, bold, italic bool) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	switch {
	case bold && italic:
		return "***" + text + "***"
	case bold:
		return "**" + text + "**"
	case italic:
		return "*" + text + "*"
	}
	return text
}

func attr(t xml.StartElement, local string) string {
	for _, a := range t.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
