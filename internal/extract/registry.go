package extract

import (
	"mime"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rag-file-chatbot/backend/internal/ocr"
)

// MIME types dispatched by the default registry.
const (
	MIMEPNG         = "image/png"
	MIMEJPEG        = "image/jpeg"
	MIMEPDF         = "application/pdf"
	MIMEText        = "text/plain"
	MIMEDocx        = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEDoc         = "application/msword"
	MIMEXls         = "application/vnd.ms-excel"
	MIMEXlsx        = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMEPptx        = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	MIMEPpt         = "application/vnd.ms-powerpoint"
	MIMECSV         = "text/csv"
	MIMEOctetStream = "application/octet-stream"
)

var extensionMIME = map[string]string{
	".png":  MIMEPNG,
	".jpg":  MIMEJPEG,
	".jpeg": MIMEJPEG,
	".pdf":  MIMEPDF,
	".txt":  MIMEText,
	".docx": MIMEDocx,
	".doc":  MIMEDoc,
	".xls":  MIMEXls,
	".xlsx": MIMEXlsx,
	".pptx": MIMEPptx,
	".ppt":  MIMEPpt,
	".csv":  MIMECSV,
}

// Registry maps declared MIME types to extractors.
type Registry struct {
	byMIME map[string]Extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byMIME: make(map[string]Extractor)}
}

// DefaultRegistry wires every supported file kind. CSV files are only
// handled when csv is non-nil.
func DefaultRegistry(ocrReader ocr.Reader, csv *CSVExtractor) *Registry {
	r := NewRegistry()
	r.Register(NewImageExtractor(ocrReader), MIMEPNG, MIMEJPEG)
	r.Register(PDFExtractor{}, MIMEPDF)
	r.Register(TextExtractor{}, MIMEText)
	r.Register(DocumentExtractor{}, MIMEDocx, MIMEDoc)
	r.Register(SpreadsheetExtractor{}, MIMEXls, MIMEXlsx)
	r.Register(PresentationExtractor{}, MIMEPptx, MIMEPpt)
	if csv != nil {
		r.Register(csv, MIMECSV)
	}
	return r
}

// Register binds e to each MIME type, replacing earlier bindings.
func (r *Registry) Register(e Extractor, mimeTypes ...string) {
	for _, m := range mimeTypes {
		r.byMIME[NormalizeMIME(m)] = e
	}
}

// Lookup returns the extractor for a declared MIME type.
func (r *Registry) Lookup(mimeType string) (Extractor, bool) {
	e, ok := r.byMIME[NormalizeMIME(mimeType)]
	return e, ok
}

// MIMETypes lists the registered MIME types in sorted order.
func (r *Registry) MIMETypes() []string {
	out := make([]string, 0, len(r.byMIME))
	for m := range r.byMIME {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// NormalizeMIME lowercases a MIME type and drops its parameters.
func NormalizeMIME(s string) string {
	if mt, _, err := mime.ParseMediaType(s); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(s))
}

// MIMEForName returns the MIME type of a supported file extension.
func MIMEForName(name string) (string, bool) {
	m, ok := extensionMIME[strings.ToLower(filepath.Ext(name))]
	return m, ok
}

// DeclaredMIME picks the MIME type a file is dispatched on: the declared
// type when present, otherwise the type implied by the file name.
func DeclaredMIME(name, declared string) string {
	declared = NormalizeMIME(declared)
	if declared != "" && declared != MIMEOctetStream {
		return declared
	}
	if m, ok := MIMEForName(name); ok {
		return m
	}
	return declared
}

// SupportedExtensions lists the accepted upload extensions, sorted.
func SupportedExtensions() []string {
	out := make([]string, 0, len(extensionMIME))
	for ext := range extensionMIME {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}
