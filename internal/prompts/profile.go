// Package prompts holds the user-facing texts of the chat flow: the labels
// shown for processed files, the prompt templates sent to the model and the
// fixed notices. A YAML profile can override any of them.
package prompts

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// TextPlaceholder is replaced by extracted file text in a template.
const TextPlaceholder = "{text}"

// Notice keys.
const (
	NoticeNoMatch      = "no_match"
	NoticePDFEmpty     = "pdf_empty"
	NoticePDFCorrupted = "pdf_corrupted"
	NoticePDFNoText    = "pdf_no_text"
)

const defaultTemplateKey = "default"

// Profile is the set of texts used when summarizing files.
type Profile struct {
	Labels    map[string]string `yaml:"labels"`
	Templates map[string]string `yaml:"templates"`
	Notices   map[string]string `yaml:"notices"`
}

// Default returns the built-in profile.
func Default() *Profile {
	return &Profile{
		Labels: map[string]string{
			"image":        "Image file",
			"pdf":          "PDF file",
			"text":         "Text file",
			"document":     "Word document",
			"spreadsheet":  "Excel file",
			"presentation": "PowerPoint file",
			"csv":          "CSV file",
		},
		Templates: map[string]string{
			defaultTemplateKey: "Answer users query:\n\n{text}\n\n:",
			"text":             "Answer the following Query for the user:\n\n{text}\n\n:",
		},
		Notices: map[string]string{
			NoticeNoMatch:      "The provided files do not meet your requirements.",
			NoticePDFEmpty:     "The provided PDF file is empty.",
			NoticePDFCorrupted: "The provided PDF file is empty or corrupted.",
			NoticePDFNoText:    "The provided PDF file does not contain readable text.",
		},
	}
}

// Label returns the display label for a file kind.
func (p *Profile) Label(kind string) string {
	if l, ok := p.Labels[kind]; ok {
		return l
	}
	return kind
}

// Prompt renders the summary prompt for a file kind.
func (p *Profile) Prompt(kind, text string) string {
	tmpl, ok := p.Templates[kind]
	if !ok {
		tmpl = p.Templates[defaultTemplateKey]
	}
	return strings.ReplaceAll(tmpl, TextPlaceholder, text)
}

// Notice returns the fixed text for a notice key.
func (p *Profile) Notice(key string) string {
	return p.Notices[key]
}

// Parse reads a YAML profile and layers it over the defaults, so a profile
// only needs to list what it changes.
func Parse(r io.Reader) (*Profile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var override Profile
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parsing prompt profile: %w", err)
	}

	p := Default()
	for k, v := range override.Labels {
		p.Labels[k] = v
	}
	for k, v := range override.Templates {
		if !strings.Contains(v, TextPlaceholder) {
			return nil, fmt.Errorf("template %q is missing %s", k, TextPlaceholder)
		}
		p.Templates[k] = v
	}
	for k, v := range override.Notices {
		p.Notices[k] = v
	}
	return p, nil
}

// LoadFile parses the profile at path.
func LoadFile(path string) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}
