package extract

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// DocumentExtractor reads the body paragraphs of a Word document. Legacy
// binary .doc files are not OOXML packages and fail to open.
type DocumentExtractor struct{}

func (DocumentExtractor) Kind() Kind { return KindDocument }

func (DocumentExtractor) Extract(_ context.Context, f File) (Result, error) {
	zr, err := openPackage(f.Data)
	if err != nil {
		return Result{}, err
	}
	body, err := readPart(zr, "word/document.xml")
	if err != nil {
		return Result{}, err
	}
	paras, err := bodyParagraphs(body)
	if err != nil {
		return Result{}, fmt.Errorf("parsing %s: %w", f.Name, err)
	}
	return Result{Text: strings.Join(paras, "\n")}, nil
}

// bodyParagraphs returns the text of each paragraph that is a direct child
// of the document body. Paragraphs inside tables are skipped.
func bodyParagraphs(doc []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(doc))
	var (
		stack     elementStack
		paras     []string
		cur       strings.Builder
		bodyDepth = -1
		paraDepth = -1
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			parent := stack.parent()
			local := el.Name.Local
			switch {
			case local == "body" && bodyDepth < 0:
				bodyDepth = stack.depth() + 1
			case local == "p" && paraDepth < 0 && bodyDepth >= 0 && stack.depth() == bodyDepth:
				paraDepth = stack.depth() + 1
				cur.Reset()
			case paraDepth >= 0 && local == "t" && parent == "r":
				var s string
				if err := dec.DecodeElement(&s, &el); err != nil {
					return nil, err
				}
				cur.WriteString(s)
				continue
			case paraDepth >= 0 && local == "tab" && parent == "r":
				cur.WriteByte('\t')
			case paraDepth >= 0 && (local == "br" || local == "cr") && parent == "r":
				cur.WriteByte('\n')
			}
			stack.push(local)
		case xml.EndElement:
			if paraDepth >= 0 && stack.depth() == paraDepth {
				paras = append(paras, cur.String())
				paraDepth = -1
			}
			stack.pop()
		}
	}
	return paras, nil
}
