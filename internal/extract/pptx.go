package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var slidePartRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// PresentationExtractor reads the text of every shape on every slide. Each
// top-level shape contributes its text followed by a newline.
type PresentationExtractor struct{}

func (PresentationExtractor) Kind() Kind { return KindPresentation }

func (PresentationExtractor) Extract(_ context.Context, f File) (Result, error) {
	zr, err := openPackage(f.Data)
	if err != nil {
		return Result{}, err
	}
	slides, err := slideParts(zr)
	if err != nil {
		return Result{}, err
	}

	var b strings.Builder
	for _, name := range slides {
		data, err := readPart(zr, name)
		if err != nil {
			return Result{}, err
		}
		shapes, err := shapeTexts(data)
		if err != nil {
			return Result{}, fmt.Errorf("parsing %s: %w", name, err)
		}
		for _, s := range shapes {
			b.WriteString(s)
			b.WriteString("\n")
		}
	}
	return Result{Text: b.String()}, nil
}

// slideParts returns slide part names in presentation order. Packages without
// a usable slide list fall back to slide number order.
func slideParts(zr *zip.Reader) ([]string, error) {
	const presentation = "ppt/presentation.xml"
	if hasPart(zr, presentation) {
		if names, err := orderedSlides(zr, presentation); err == nil && len(names) > 0 {
			return names, nil
		}
	}

	type numbered struct {
		n    int
		name string
	}
	var found []numbered
	for _, f := range zr.File {
		m := slidePartRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		found = append(found, numbered{n, f.Name})
	}
	if len(found) == 0 && !hasPart(zr, presentation) {
		return nil, fmt.Errorf("not a presentation package")
	}
	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })
	out := make([]string, len(found))
	for i, s := range found {
		out[i] = s.name
	}
	return out, nil
}

func orderedSlides(zr *zip.Reader, presentation string) ([]string, error) {
	data, err := readPart(zr, presentation)
	if err != nil {
		return nil, err
	}
	rels, err := readRelationships(zr, presentation)
	if err != nil {
		return nil, err
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []string
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		el, ok := tok.(xml.StartElement)
		if !ok || el.Name.Local != "sldId" {
			continue
		}
		for _, a := range el.Attr {
			if a.Name.Local == "id" && a.Name.Space == relationshipsNS {
				if target, ok := rels[a.Value]; ok {
					out = append(out, target)
				}
			}
		}
	}
	return out, nil
}

// shapeTexts returns the text of each shape directly under the slide's shape
// tree. Paragraphs are joined with newlines and line breaks become vertical
// tabs.
func shapeTexts(slide []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(slide))
	var (
		stack      elementStack
		shapes     []string
		paras      []string
		cur        strings.Builder
		shapeDepth = -1
		paraDepth  = -1
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
			case local == "sp" && parent == "spTree" && shapeDepth < 0:
				shapeDepth = stack.depth() + 1
				paras = nil
			case shapeDepth >= 0 && local == "p" && parent == "txBody":
				paraDepth = stack.depth() + 1
				cur.Reset()
			case paraDepth >= 0 && local == "t":
				var s string
				if err := dec.DecodeElement(&s, &el); err != nil {
					return nil, err
				}
				cur.WriteString(s)
				continue
			case paraDepth >= 0 && local == "br" && parent == "p":
				cur.WriteString("\v")
			}
			stack.push(local)
		case xml.EndElement:
			switch stack.depth() {
			case paraDepth:
				paras = append(paras, cur.String())
				paraDepth = -1
			case shapeDepth:
				shapes = append(shapes, strings.Join(paras, "\n"))
				shapeDepth = -1
			}
			stack.pop()
		}
	}
	return shapes, nil
}
