package ingestion_engine

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/markdave123-py/Synopsis/internal/core"
)

const (
	wordNS       = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	documentPart = "word/document.xml"
)

// extractDOCX returns the text of every paragraph of the main document part,
// in document order, joined with "\n".
func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &core.MalformedDocumentError{ContentType: MimeDOCX, Err: err}
	}

	body, err := readZipPart(zr, documentPart)
	if err != nil {
		return "", &core.MalformedDocumentError{ContentType: MimeDOCX, Err: err}
	}

	paras, err := docxParagraphs(body)
	if err != nil {
		return "", &core.MalformedDocumentError{ContentType: MimeDOCX, Err: err}
	}
	return strings.Join(paras, "\n"), nil
}

func readZipPart(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("missing part %s", name)
}

// docxParagraphs walks the WordprocessingML token stream. Paragraphs nested in
// text boxes belong to their enclosing paragraph.
func docxParagraphs(body []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))

	var (
		out    []string
		cur    strings.Builder
		depth  int
		inRun  bool
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "p":
				if depth == 0 {
					cur.Reset()
				}
				depth++
			case "r":
				inRun = depth > 0
			case "t":
				inText = inRun
			case "tab":
				// w:tab also declares tab stops under w:pPr; only run-level tabs are text.
				if inRun {
					cur.WriteByte('\t')
				}
			case "br", "cr":
				if inRun {
					cur.WriteByte('\n')
				}
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		case xml.EndElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "r":
				inRun = false
			case "p":
				if depth == 0 {
					continue
				}
				depth--
				if depth == 0 {
					out = append(out, cur.String())
				}
			}
		}
	}
	return out, nil
}
