package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rag-file-chatbot/backend/internal/prompts"
)

type stubOCR struct {
	lines []string
	err   error
	mime  string
}

func (s *stubOCR) ReadText(_ context.Context, _ []byte, mimeType string) ([]string, error) {
	s.mime = mimeType
	return s.lines, s.err
}

func TestResult_Found(t *testing.T) {
	assert.False(t, Result{}.Found())
	assert.False(t, Result{Text: " \n\t"}.Found())
	assert.True(t, Result{Text: "x"}.Found())
}

func TestImageExtractor(t *testing.T) {
	ctx := context.Background()

	reader := &stubOCR{lines: []string{"INVOICE", "Total 10"}}
	res, err := NewImageExtractor(reader).Extract(ctx, File{Name: "a.png", MIMEType: "image/PNG", Data: []byte{1}})
	require.NoError(t, err)
	assert.Equal(t, "INVOICE\nTotal 10", res.Text)
	assert.Equal(t, "image/png", reader.mime)

	res, err = NewImageExtractor(&stubOCR{}).Extract(ctx, File{Name: "blank.png", Data: []byte{1}})
	require.NoError(t, err)
	assert.False(t, res.Found())

	_, err = NewImageExtractor(&stubOCR{err: errors.New("bad image")}).Extract(ctx, File{Name: "x.png", Data: []byte{1}})
	assert.Error(t, err)

	_, err = NewImageExtractor(&stubOCR{}).Extract(ctx, File{Name: "empty.png"})
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestTextExtractor(t *testing.T) {
	ctx := context.Background()

	res, err := TextExtractor{}.Extract(ctx, File{Data: []byte("\xEF\xBB\xBFhello\nworld")})
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld", res.Text)

	res, err = TextExtractor{}.Extract(ctx, File{Data: []byte("   \n")})
	require.NoError(t, err)
	assert.False(t, res.Found())

	_, err = TextExtractor{}.Extract(ctx, File{Data: []byte{0xff, 0xfe, 0x00}})
	assert.Error(t, err)
}

func TestPDFExtractor(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		data       []byte
		wantText   string
		wantNotice string
	}{
		{name: "zero bytes", data: nil, wantNotice: prompts.NoticePDFEmpty},
		{name: "not a pdf", data: []byte("this is not a pdf at all"), wantNotice: prompts.NoticePDFCorrupted},
		{name: "no text layer", data: buildPDF(t, "0 0 m 10 10 l S"), wantNotice: prompts.NoticePDFNoText},
		{name: "text", data: buildPDF(t, "BT /F1 24 Tf 72 712 Td (Hello World) Tj ET"), wantText: "Hello World"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := PDFExtractor{}.Extract(ctx, File{Name: "doc.pdf", Data: tt.data})
			require.NoError(t, err)
			assert.Equal(t, tt.wantNotice, res.Notice)
			if tt.wantText != "" {
				assert.True(t, res.Found())
				assert.Contains(t, res.Text, tt.wantText)
			} else {
				assert.False(t, res.Found())
			}
		})
	}
}

func TestDocumentExtractor(t *testing.T) {
	ctx := context.Background()

	data := buildZip(t, [2]string{"word/document.xml", docxBody})
	res, err := DocumentExtractor{}.Extract(ctx, File{Name: "a.docx", Data: data})
	require.NoError(t, err)
	assert.Equal(t, "First paragraph\nA\tB\n", res.Text)

	_, err = DocumentExtractor{}.Extract(ctx, File{Name: "legacy.doc", Data: []byte{0xD0, 0xCF, 0x11, 0xE0}})
	assert.Error(t, err)

	_, err = DocumentExtractor{}.Extract(ctx, File{Name: "empty.docx"})
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = DocumentExtractor{}.Extract(ctx, File{Name: "nobody.docx", Data: buildZip(t, [2]string{"other.xml", "<x/>"})})
	assert.Error(t, err)
}

func TestPresentationExtractor_PresentationOrder(t *testing.T) {
	data := buildZip(t,
		[2]string{"ppt/presentation.xml", pptxPresentation},
		[2]string{"ppt/_rels/presentation.xml.rels", pptxPresentationRels},
		[2]string{"ppt/slides/slide1.xml", pptxSlide(pptxShape("second slide"))},
		[2]string{"ppt/slides/slide2.xml", pptxSlide(pptxShape("Title", "subtitle") + pptxShape("body"))},
	)

	res, err := PresentationExtractor{}.Extract(context.Background(), File{Name: "deck.pptx", Data: data})
	require.NoError(t, err)
	assert.Equal(t, "Title\nsubtitle\nbody\nsecond slide\n", res.Text)
}

func TestPresentationExtractor_SkipsNestedShapes(t *testing.T) {
	group := `<p:grpSp>` + pptxShape("grouped") + `</p:grpSp>`
	data := buildZip(t,
		[2]string{"ppt/slides/slide2.xml", pptxSlide(pptxShape("two"))},
		[2]string{"ppt/slides/slide1.xml", pptxSlide(group + pptxShape("one"))},
	)

	res, err := PresentationExtractor{}.Extract(context.Background(), File{Name: "deck.pptx", Data: data})
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", res.Text)
}

func TestPresentationExtractor_NotAPresentation(t *testing.T) {
	_, err := PresentationExtractor{}.Extract(context.Background(), File{Data: buildZip(t, [2]string{"a.txt", "x"})})
	assert.Error(t, err)

	_, err = PresentationExtractor{}.Extract(context.Background(), File{Data: []byte("ppt binary")})
	assert.Error(t, err)
}

func TestSpreadsheetExtractor(t *testing.T) {
	ctx := context.Background()

	data := buildXLSX(t, []any{"name", "qty"}, []any{"apple", 3})
	res, err := SpreadsheetExtractor{}.Extract(ctx, File{Name: "a.xlsx", Data: data})
	require.NoError(t, err)
	assert.Equal(t, "    name  qty\n0  apple    3", res.Text)

	headerOnly := buildXLSX(t, []any{"name", "qty"})
	res, err = SpreadsheetExtractor{}.Extract(ctx, File{Name: "b.xlsx", Data: headerOnly})
	require.NoError(t, err)
	assert.Equal(t, "Empty DataFrame\nColumns: [name, qty]\nIndex: []", res.Text)
	assert.True(t, res.Found())

	_, err = SpreadsheetExtractor{}.Extract(ctx, File{Name: "legacy.xls", Data: []byte{0xD0, 0xCF, 0x11, 0xE0}})
	assert.Error(t, err)
}

func TestCSVExtractor(t *testing.T) {
	e, err := NewCSVExtractor(CSVOptions{TempDir: t.TempDir(), Threads: 1, MemoryLimit: "256MB"})
	require.NoError(t, err)
	defer e.Close()
	ctx := context.Background()

	res, err := e.Extract(ctx, File{Name: "data.csv", Data: []byte("a,b\n1,x\n2,\n")})
	require.NoError(t, err)
	assert.Equal(t, "   a    b\n0  1    x\n1  2  NaN", res.Text)

	res, err = e.Extract(ctx, File{Name: "header.csv", Data: []byte("a,b\n")})
	require.NoError(t, err)
	assert.Equal(t, "Empty DataFrame\nColumns: [a, b]\nIndex: []", res.Text)

	_, err = e.Extract(ctx, File{Name: "empty.csv", Data: []byte("  \n")})
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestRenderTable(t *testing.T) {
	got := RenderTable([]string{"city", ""}, [][]string{
		{"Paris", "1"},
		{"Rome"},
		{"Oslo", "3", "extra"},
	})
	want := "    city  Unnamed: 1  Unnamed: 2\n" +
		"0  Paris           1         NaN\n" +
		"1   Rome         NaN         NaN\n" +
		"2   Oslo           3       extra"
	assert.Equal(t, want, got)
}

func TestRegistry(t *testing.T) {
	csv, err := NewCSVExtractor(CSVOptions{TempDir: t.TempDir()})
	require.NoError(t, err)
	defer csv.Close()
	r := DefaultRegistry(&stubOCR{}, csv)

	tests := []struct {
		mime string
		want Kind
	}{
		{MIMEPNG, KindImage},
		{MIMEJPEG, KindImage},
		{MIMEPDF, KindPDF},
		{"text/plain; charset=utf-8", KindText},
		{MIMEDocx, KindDocument},
		{MIMEDoc, KindDocument},
		{MIMEXls, KindSpreadsheet},
		{MIMEXlsx, KindSpreadsheet},
		{MIMEPptx, KindPresentation},
		{MIMEPpt, KindPresentation},
		{"TEXT/CSV", KindCSV},
	}
	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			e, ok := r.Lookup(tt.mime)
			require.True(t, ok)
			assert.Equal(t, tt.want, e.Kind())
		})
	}

	_, ok := r.Lookup("application/zip")
	assert.False(t, ok)
	assert.Len(t, r.MIMETypes(), 11)
}

func TestDeclaredMIME(t *testing.T) {
	assert.Equal(t, MIMECSV, DeclaredMIME("data.csv", ""))
	assert.Equal(t, MIMECSV, DeclaredMIME("data.csv", "application/octet-stream"))
	assert.Equal(t, MIMEXls, DeclaredMIME("data.csv", "application/vnd.ms-excel"))
	assert.Equal(t, "application/zip", DeclaredMIME("a.zip", "application/zip"))
	assert.Equal(t, "", DeclaredMIME("a.zip", ""))

	_, ok := MIMEForName("notes.TXT")
	assert.True(t, ok)
	assert.Contains(t, SupportedExtensions(), ".pptx")
}
