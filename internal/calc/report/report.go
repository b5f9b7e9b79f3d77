package report

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"

	"Windcalc/internal/calc/wind"
)

const (
	Title     = "CivilDoctor — Wind Report"
	Watermark = "CivilDoctor — www.civildoctor.example"

	TabCompare = "compare"
)

var ErrExport = errors.New("report export failed")

type rgb struct{ r, g, b int }

var (
	colorIS   = rgb{11, 116, 209}
	colorASCE = rgb{249, 115, 22}
	colorAlt  = rgb{16, 185, 129}
	colorGrid = rgb{226, 232, 240}
	colorMute = rgb{107, 114, 128}
)

type Dataset struct {
	Label   string
	Code    wind.Code
	Profile wind.Profile
}

// Report is everything that ends up on the page.
type Report struct {
	Generated time.Time
	Summary   string
	Datasets  []Dataset
}

// Build evaluates the selected tab. "compare" overlays both codes, "asce"
// renders ASCE/GCC and anything else renders IS 875.
func Build(c *wind.Calculator, tab string, mode wind.Mode, raw map[string]string, now time.Time) Report {
	rep := Report{Generated: now}
	switch strings.ToLower(tab) {
	case TabCompare:
		_, _, overlay := c.Compare(mode, raw)
		rep.Summary = overlay.Summary()
		rep.Datasets = []Dataset{fromSeries(overlay.A), fromSeries(overlay.B)}
	default:
		res := c.Calculate(c.ParseInputs(wind.Code(tab), mode, raw))
		rep.Summary = res.Summary()
		rep.Datasets = []Dataset{{Label: res.Label, Code: res.Code, Profile: res.Profile}}
	}
	return rep
}

func fromSeries(s wind.Series) Dataset {
	return Dataset{Label: s.Label, Code: s.Code, Profile: s.Profile}
}

// FileName derives the download name from the first 19 characters of the
// ISO timestamp with ':' and 'T' replaced by '-'.
func FileName(t time.Time) string {
	stamp := t.UTC().Format("2006-01-02T15:04:05")
	stamp = strings.NewReplacer(":", "-", "T", "-").Replace(stamp)
	return "CivilDoctor_WindReport_" + stamp + ".pdf"
}

// Renderer draws reports. With a UTF-8 TrueType font every line, the summary
// included, is written verbatim. Without one the core Helvetica and Courier
// fonts are used and characters missing from cp1252 are spelled out.
type Renderer struct {
	UTF8Font []byte
}

// Render writes rep as a single A4 PDF to w using the core fonts.
func Render(w io.Writer, rep Report) error {
	return Renderer{}.Render(w, rep)
}

func (r Renderer) Render(w io.Writer, rep Report) error {
	doc := r.draw(rep)
	if err := doc.Output(w); err != nil {
		return fmt.Errorf("%w: %v", ErrExport, err)
	}
	return nil
}

type fonts struct {
	sans, mono string
	tr         func(string) string
}

const utf8Family = "report"

func (r Renderer) pickFonts(pdf *gofpdf.Fpdf) fonts {
	if len(r.UTF8Font) == 0 {
		return fonts{sans: "Helvetica", mono: "Courier", tr: translator(pdf)}
	}
	pdf.AddUTF8FontFromBytes(utf8Family, "", r.UTF8Font)
	pdf.AddUTF8FontFromBytes(utf8Family, "B", r.UTF8Font)
	return fonts{sans: utf8Family, mono: utf8Family, tr: func(s string) string { return s }}
}

func (r Renderer) draw(rep Report) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	f := r.pickFonts(pdf)
	tr := f.tr
	pageW, pageH := pdf.GetPageSize()

	pdf.SetFooterFunc(func() {
		pdf.SetFont(f.sans, "", 9)
		pdf.SetTextColor(150, 150, 150)
		text := tr(Watermark)
		pdf.Text(pageW-15-pdf.GetStringWidth(text), pageH-8, text)
	})
	pdf.AddPage()

	pdf.SetFont(f.sans, "B", 16)
	pdf.Cell(0, 10, tr(Title))
	pdf.Ln(12)
	pdf.SetFont(f.sans, "", 10)
	pdf.Cell(0, 6, tr("Generated: "+rep.Generated.Format("2006-01-02 15:04:05 MST")))
	pdf.Ln(10)

	summary := rep.Summary
	if summary == "" {
		summary = "No summary"
	}
	pdf.SetFont(f.sans, "B", 11)
	pdf.Cell(0, 6, "Summary")
	pdf.Ln(7)
	pdf.SetFont(f.mono, "", 10)
	pdf.SetFillColor(246, 248, 251)
	pdf.MultiCell(0, 6, tr(summary), "", "L", true)
	pdf.Ln(4)

	chart(pdf, f, 20, pdf.GetY()+2, pageW-40, 90, rep.Datasets)
	pdf.SetY(pdf.GetY() + 104)

	table(pdf, f, rep.Datasets)

	pdf.Ln(4)
	pdf.SetFont(f.sans, "", 9)
	pdf.SetTextColor(colorMute.r, colorMute.g, colorMute.b)
	pdf.Cell(0, 5, "Generated by CivilDoctor")
	return pdf
}

// translator maps UTF-8 to the core font code page. Arrows and approximation
// signs have no cp1252 glyph and are spelled out first.
func translator(pdf *gofpdf.Fpdf) func(string) string {
	cp := pdf.UnicodeTranslatorFromDescriptor("")
	ascii := strings.NewReplacer("→", "->", "≈", "~")
	return func(s string) string {
		return cp(ascii.Replace(s))
	}
}

func chart(pdf *gofpdf.Fpdf, f fonts, x0, y0, w, h float64, sets []Dataset) {
	maxZ, maxP := 1.0, 1.0
	for _, ds := range sets {
		for _, pt := range ds.Profile {
			maxZ = math.Max(maxZ, pt.HeightM)
			maxP = math.Max(maxP, pt.PressureNM2)
		}
	}
	maxZ = math.Max(maxZ, 10)

	const divisions = 5
	tr := f.tr
	pdf.SetFont(f.sans, "", 7)
	pdf.SetLineWidth(0.2)
	pdf.SetDrawColor(colorGrid.r, colorGrid.g, colorGrid.b)
	pdf.SetTextColor(colorMute.r, colorMute.g, colorMute.b)
	for i := 0; i <= divisions; i++ {
		frac := float64(i) / divisions
		y := y0 + h*frac
		pdf.Line(x0, y, x0+w, y)
		label := tr(fmt.Sprintf("%.0f N/m²", math.Round(maxP*(1-frac))))
		pdf.Text(x0-2-pdf.GetStringWidth(label), y+1, label)

		x := x0 + w*frac
		pdf.Line(x, y0, x, y0+h)
		pdf.Text(x-3, y0+h+5, fmt.Sprintf("%.0f m", math.Round(maxZ*frac)))
	}

	pdf.SetLineWidth(0.7)
	for idx, ds := range sets {
		c := seriesColor(ds.Code, idx)
		pdf.SetDrawColor(c.r, c.g, c.b)
		for i := 1; i < len(ds.Profile); i++ {
			a, b := ds.Profile[i-1], ds.Profile[i]
			pdf.Line(
				x0+w*(a.HeightM/maxZ), y0+h*(1-a.PressureNM2/maxP),
				x0+w*(b.HeightM/maxZ), y0+h*(1-b.PressureNM2/maxP),
			)
		}

		// legend
		pdf.SetFillColor(c.r, c.g, c.b)
		ly := y0 + 2 + float64(idx)*5
		pdf.Rect(x0+w-40, ly, 3, 3, "F")
		pdf.SetFont(f.sans, "", 8)
		pdf.SetTextColor(15, 23, 42)
		pdf.Text(x0+w-35, ly+2.7, tr(ds.Label))
	}
	pdf.SetLineWidth(0.2)
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetTextColor(0, 0, 0)
}

func seriesColor(code wind.Code, idx int) rgb {
	switch code {
	case wind.CodeIS:
		return colorIS
	case wind.CodeASCE:
		return colorASCE
	}
	if idx%2 == 1 {
		return colorIS
	}
	return colorAlt
}

// table lists heights from the first dataset; further datasets are read off
// at the same heights.
func table(pdf *gofpdf.Fpdf, f fonts, sets []Dataset) {
	if len(sets) == 0 {
		return
	}
	colW := 40.0
	tr := f.tr
	pdf.SetFont(f.sans, "B", 9)
	pdf.SetFillColor(241, 245, 249)
	pdf.CellFormat(colW, 6, "Height (m)", "1", 0, "C", true, 0, "")
	for _, ds := range sets {
		pdf.CellFormat(colW, 6, tr(ds.Label+" (N/m²)"), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(f.sans, "", 9)
	for i, pt := range sets[0].Profile {
		pdf.CellFormat(colW, 5.5, fmt.Sprintf("%.2f", pt.HeightM), "1", 0, "R", false, 0, "")
		for j, ds := range sets {
			p := pt.PressureNM2
			if j > 0 {
				if i < len(ds.Profile) && ds.Profile[i].HeightM == pt.HeightM {
					p = ds.Profile[i].PressureNM2
				} else {
					p = wind.Interpolate(ds.Profile, pt.HeightM)
				}
			}
			pdf.CellFormat(colW, 5.5, fmt.Sprintf("%.2f", p), "1", 0, "R", false, 0, "")
		}
		pdf.Ln(-1)
	}
}
