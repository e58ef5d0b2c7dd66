package certificate

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/jung-kurt/gofpdf/contrib/gofpdi"
	realgofpdi "github.com/phpdave11/gofpdi"
	"golang.org/x/text/encoding/charmap"
)

const (
	fontFamily = "Times"

	// Times-Roman vertical metrics, in 1/1000 em.
	timesAscender  = 683
	timesDescender = -217
)

// textHeight is the full ascender-to-descender height of Times-Roman at
// the given size.
func textHeight(size float64) float64 {
	return size * (timesAscender - timesDescender) / 1000
}

// textOrigin returns where a run of the given width is drawn. Y is the
// baseline, measured from the top of the page, so that the anchor point
// sits on the vertical middle of the text.
func textOrigin(at Point, style TextStyle, width float64) (x, y float64) {
	x = at.X
	switch style.Align {
	case AlignCenter:
		x -= width / 2
	case AlignRight:
		x -= width
	}
	return x, at.Y + textHeight(style.Size)/2
}

// canvas is one output document: the first template page with text
// drawn on top of it.
type canvas struct {
	pdf *gofpdf.Fpdf
}

// templatePageSize reads the MediaBox of the first template page, in
// points.
func templatePageSize(template []byte) (gofpdf.SizeType, error) {
	rs := io.ReadSeeker(bytes.NewReader(template))
	reader := realgofpdi.NewImporter()
	reader.SetSourceStream(&rs)

	box := reader.GetPageSizes()[1]["/MediaBox"]
	if box["w"] <= 0 || box["h"] <= 0 {
		return gofpdf.SizeType{}, errors.New("first page has no MediaBox")
	}
	return gofpdf.SizeType{Wd: box["w"], Ht: box["h"]}, nil
}

// newCanvas imports the first page of template as the page background.
// The page takes the template's own size and the template is drawn 1:1,
// unless opts.PageSize asks for a different paper size.
//
// The importer reports malformed input by panicking, so the panic is
// turned back into an error here.
func newCanvas(template []byte, opts Options) (c *canvas, err error) {
	defer func() {
		if r := recover(); r != nil {
			c, err = nil, fmt.Errorf("certificate: import template: %v", r)
		}
	}()

	setup := &gofpdf.InitType{OrientationStr: "P", UnitStr: "pt", SizeStr: opts.PageSize}
	if opts.PageSize == "" {
		size, err := templatePageSize(template)
		if err != nil {
			return nil, fmt.Errorf("certificate: import template: %w", err)
		}
		setup.Size = size
	}

	pdf := gofpdf.NewCustom(setup)
	pdf.SetCompression(opts.Compress)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	if opts.Title != "" {
		pdf.SetTitle(opts.Title, true)
	}
	pdf.AddPage()

	importer := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(template))
	tpl := importer.ImportPageFromStream(pdf, &rs, 1, "/MediaBox")

	w, h := pdf.GetPageSize()
	importer.UseImportedTemplate(pdf, tpl, 0, 0, w, h)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("certificate: import template: %w", err)
	}

	return &canvas{pdf: pdf}, nil
}

// drawText writes text anchored at the given point. The core fonts only
// cover Windows-1252; text outside it is refused rather than mangled.
func (c *canvas) drawText(text string, at Point, style TextStyle) error {
	txt, err := charmap.Windows1252.NewEncoder().String(text)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnencodable, text)
	}

	c.pdf.SetFont(fontFamily, "", style.Size)
	c.pdf.SetTextColor(style.Color.R, style.Color.G, style.Color.B)

	x, y := textOrigin(at, style, c.pdf.GetStringWidth(txt))
	c.pdf.Text(x, y, txt)
	return nil
}

// place draws every placement whose field has a value. It stops at the
// first value that cannot be drawn.
func (c *canvas) place(fields Fields, placements []Placement) (int, error) {
	drawn := 0
	for _, p := range placements {
		value := p.Value(fields)
		if value == "" {
			continue
		}
		if err := c.drawText(value, p.At, p.Style); err != nil {
			return drawn, err
		}
		drawn++
	}
	return drawn, nil
}

// output serialises the document. The canvas cannot be drawn on afterwards.
func (c *canvas) output() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("certificate: write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
