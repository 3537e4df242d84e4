package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"
)

const relationshipsNS = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

// openPackage opens an Office Open XML archive held in memory.
func openPackage(data []byte) (*zip.Reader, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("not an office open xml package: %w", err)
	}
	return zr, nil
}

func readPart(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("package part %s not found", name)
}

func hasPart(zr *zip.Reader, name string) bool {
	for _, f := range zr.File {
		if f.Name == name {
			return true
		}
	}
	return false
}

type relationships struct {
	Items []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// readRelationships resolves the relationship targets of a part, keyed by id.
// Targets are returned as package paths.
func readRelationships(zr *zip.Reader, partName string) (map[string]string, error) {
	dir, file := path.Split(partName)
	data, err := readPart(zr, dir+"_rels/"+file+".rels")
	if err != nil {
		return nil, err
	}
	var rels relationships
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil, fmt.Errorf("parsing relationships of %s: %w", partName, err)
	}
	out := make(map[string]string, len(rels.Items))
	for _, r := range rels.Items {
		target := r.Target
		if strings.HasPrefix(target, "/") {
			target = strings.TrimPrefix(target, "/")
		} else {
			target = path.Join(dir, target)
		}
		out[r.ID] = target
	}
	return out, nil
}

// elementStack tracks the local names of the open elements while walking a
// token stream.
type elementStack []string

func (s *elementStack) push(name string) { *s = append(*s, name) }

func (s *elementStack) pop() {
	if len(*s) > 0 {
		*s = (*s)[:len(*s)-1]
	}
}

func (s elementStack) parent() string {
	if len(s) == 0 {
		return ""
	}
	return s[len(s)-1]
}

func (s elementStack) depth() int { return len(s) }
