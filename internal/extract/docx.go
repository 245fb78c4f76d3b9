package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// extractDocx pulls the text runs out of word/document.xml. A .docx is a zip
// archive; paragraphs become newline-separated lines.
func extractDocx(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &Failure{Kind: KindExtraction, Reason: "DOCX text extraction failed", Err: err}
	}

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", &Failure{Kind: KindExtraction, Reason: "DOCX text extraction failed", Err: fmt.Errorf("word/document.xml not found")}
	}

	rc, err := doc.Open()
	if err != nil {
		return "", &Failure{Kind: KindExtraction, Reason: "DOCX text extraction failed", Err: err}
	}
	defer rc.Close()

	text, err := documentText(rc)
	if err != nil {
		return "", &Failure{Kind: KindExtraction, Reason: "DOCX text extraction failed", Err: err}
	}
	return text, nil
}

func documentText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var b strings.Builder
	inText := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}
