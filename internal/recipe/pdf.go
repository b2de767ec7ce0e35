// Package recipe renders a dish as a printable A4 recipe sheet.
package recipe

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	margin       = 50.0
	lineHeight   = 15.0
	imageBox     = 250.0
	qrSize       = 40.0
	titleSize    = 16.0
	bodySize     = 10.0
	headingSize  = 12.0
	tableRowH    = 18.0
	tableX       = 320.0
	fontFamily   = "DejaVu"
	regularFont  = "DejaVuSans.ttf"
	boldFont     = "DejaVuSans-Bold.ttf"
	qrRecovery   = qrcode.Medium
	qrResolution = 256
)

//go:embed fonts/DejaVuSans.ttf fonts/DejaVuSans-Bold.ttf
var bundledFonts embed.FS

var (
	tableWidths = []float64{170, 60, 40}
	tableHeader = []string{"Product", "Unit", "Qty"}
)

// Ingredient is one line of the ingredient table.
type Ingredient struct {
	Name     string
	Unit     string
	Quantity float64
}

// Sheet is the snapshot of a dish that gets rendered.
type Sheet struct {
	Name        string
	ImagePath   string
	StepsHTML   string
	Ingredients []Ingredient
	// URL is encoded into the QR code; empty skips the code.
	URL string
}

type Option func(*Renderer)

// WithFontDir points the renderer at a directory holding DejaVuSans.ttf and
// DejaVuSans-Bold.ttf. Without it, or when the files are missing, the bundled
// DejaVu fonts are used.
func WithFontDir(dir string) Option {
	return func(r *Renderer) {
		r.fontDir = dir
	}
}

// WithCompression toggles stream compression.
func WithCompression(on bool) Option {
	return func(r *Renderer) {
		r.compress = on
	}
}

type Renderer struct {
	fontDir  string
	compress bool
}

func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{compress: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IngredientTable returns the table rows, header first, with quantities
// formatted to two decimals.
func IngredientTable(ingredients []Ingredient) [][]string {
	rows := make([][]string, 0, len(ingredients)+1)
	rows = append(rows, tableHeader)
	for _, in := range ingredients {
		rows = append(rows, []string{in.Name, in.Unit, fmt.Sprintf("%.2f", in.Quantity)})
	}
	return rows
}

// NumberedSteps prefixes each step with its position.
func NumberedSteps(steps []string) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = fmt.Sprintf("%d. %s", i+1, s)
	}
	return out
}

// Render writes the recipe sheet PDF to w.
func (r *Renderer) Render(w io.Writer, s Sheet) error {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(s.Name, true)

	family, err := r.registerFonts(pdf)
	if err != nil {
		return err
	}
	pageW, pageH := pdf.GetPageSize()
	pdf.AddPage()

	pdf.SetFont(family, "B", titleSize)
	pdf.SetXY(margin, margin)
	pdf.CellFormat(pageW-2*margin-qrSize-10, 20, s.Name, "", 0, "L", false, 0, "")

	var qrPath string
	if s.URL != "" {
		path, err := writeQR(s.URL)
		if err != nil {
			return err
		}
		qrPath = path
		defer os.Remove(qrPath)
		pdf.ImageOptions(qrPath, pageW-margin-qrSize, margin-20, qrSize, qrSize, false,
			gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	}

	top := margin + 30
	r.drawImage(pdf, family, s.ImagePath, top)
	r.drawTable(pdf, family, IngredientTable(s.Ingredients), top)

	y := top + imageBox + 20
	pdf.SetFont(family, "B", headingSize)
	pdf.SetXY(margin, y)
	pdf.CellFormat(0, lineHeight, "Preparation:", "", 0, "L", false, 0, "")
	y += lineHeight + 5

	pdf.SetFont(family, "", bodySize)
	width := pageW - 2*margin
	for _, step := range NumberedSteps(Steps(s.StepsHTML)) {
		for _, line := range wrap(pdf, step, width) {
			if y > pageH-margin {
				pdf.AddPage()
				pdf.SetFont(family, "", bodySize)
				y = margin
			}
			pdf.SetXY(margin, y)
			pdf.CellFormat(width, lineHeight, line, "", 0, "L", false, 0, "")
			y += lineHeight
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("cannot render recipe: %w", err)
	}
	return nil
}

// registerFonts installs a Unicode font family so Cyrillic names render with
// real glyphs.
func (r *Renderer) registerFonts(pdf *gofpdf.Fpdf) (string, error) {
	if r.fontDir != "" {
		regular := filepath.Join(r.fontDir, regularFont)
		bold := filepath.Join(r.fontDir, boldFont)
		if exists(regular) && exists(bold) {
			pdf.AddUTF8Font(fontFamily, "", regular)
			pdf.AddUTF8Font(fontFamily, "B", bold)
			if pdf.Ok() {
				return fontFamily, nil
			}
			pdf.ClearError()
		}
	}

	for style, name := range map[string]string{"": regularFont, "B": boldFont} {
		data, err := bundledFonts.ReadFile("fonts/" + name)
		if err != nil {
			return "", fmt.Errorf("cannot read bundled font %s: %w", name, err)
		}
		pdf.AddUTF8FontFromBytes(fontFamily, style, data)
	}
	if err := pdf.Error(); err != nil {
		return "", fmt.Errorf("cannot register fonts: %w", err)
	}
	return fontFamily, nil
}

// drawImage fits the image into the image box. Load failures are written
// into the document instead of aborting it.
func (r *Renderer) drawImage(pdf *gofpdf.Fpdf, family, path string, top float64) {
	if path == "" {
		return
	}

	opts := gofpdf.ImageOptions{ReadDpi: true}
	info := pdf.RegisterImageOptions(path, opts)
	if !pdf.Ok() || info == nil {
		err := pdf.Error()
		pdf.ClearError()
		if err == nil {
			err = errors.New("unsupported image")
		}
		pdf.SetFont(family, "", bodySize)
		pdf.SetXY(margin, top)
		pdf.CellFormat(imageBox, lineHeight, fmt.Sprintf("[Image load error: %v]", err), "", 0, "L", false, 0, "")
		return
	}

	iw, ih := info.Extent()
	if iw <= 0 || ih <= 0 {
		return
	}
	scale := imageBox / iw
	if ih*scale > imageBox {
		scale = imageBox / ih
	}
	pdf.ImageOptions(path, margin, top, iw*scale, ih*scale, false, opts, 0, "")
}

func (r *Renderer) drawTable(pdf *gofpdf.Fpdf, family string, rows [][]string, top float64) {
	pdf.SetXY(tableX, top)
	for i, row := range rows {
		if i == 0 {
			pdf.SetFillColor(128, 128, 128)
			pdf.SetTextColor(245, 245, 245)
			pdf.SetFont(family, "B", bodySize)
		} else {
			pdf.SetFillColor(255, 255, 255)
			pdf.SetTextColor(0, 0, 0)
			pdf.SetFont(family, "", bodySize)
		}
		pdf.SetX(tableX)
		for j, text := range row {
			align := "L"
			if j == len(row)-1 {
				align = "R"
			}
			pdf.CellFormat(tableWidths[j], tableRowH, fit(pdf, text, tableWidths[j]-4), "1", 0, align, true, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.SetTextColor(0, 0, 0)
}

// wrap breaks text into lines no wider than width, splitting on spaces and,
// for words longer than a line, between runes.
func wrap(pdf *gofpdf.Fpdf, text string, width float64) []string {
	var lines []string
	var current string
	for _, word := range strings.Fields(text) {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if pdf.GetStringWidth(candidate) <= width {
			current = candidate
			continue
		}
		if current != "" {
			lines = append(lines, current)
			current = ""
		}
		for pdf.GetStringWidth(word) > width {
			cut := fitRunes(pdf, word, width)
			lines = append(lines, word[:cut])
			word = word[cut:]
		}
		current = word
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

// fit truncates text so it stays inside a table cell.
func fit(pdf *gofpdf.Fpdf, text string, width float64) string {
	if pdf.GetStringWidth(text) <= width {
		return text
	}
	return text[:fitRunes(pdf, text, width)]
}

// fitRunes returns the byte length of the longest rune prefix of s that is
// at most width wide; always at least one rune.
func fitRunes(pdf *gofpdf.Fpdf, s string, width float64) int {
	cut := 0
	for i, ch := range s {
		next := i + len(string(ch))
		if cut > 0 && pdf.GetStringWidth(s[:next]) > width {
			break
		}
		cut = next
	}
	return cut
}

func writeQR(content string) (string, error) {
	f, err := os.CreateTemp("", "recipe-qr-*.png")
	if err != nil {
		return "", fmt.Errorf("cannot create qr file: %w", err)
	}
	name := f.Name()
	f.Close()

	if err := qrcode.WriteFile(content, qrRecovery, qrResolution, name); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("cannot write qr code: %w", err)
	}
	return name, nil
}

// AttachmentDisposition builds a Content-Disposition value for the dish
// name using the RFC 5987 encoding, so non-ASCII names survive.
func AttachmentDisposition(name string) string {
	filename := strings.TrimSpace(name)
	if filename == "" {
		filename = "recipe"
	}
	escaped := strings.ReplaceAll(url.QueryEscape(filename+".pdf"), "+", "%20")
	return "attachment; filename*=UTF-8''" + escaped
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
