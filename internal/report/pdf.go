package report

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/phpdave11/gofpdf"

	"ms-booking/internal/models"
	"ms-booking/internal/utils"
)

const (
	pageMargin = 20.0
	rowHeight  = 7.0
	fontFamily = "Helvetica"
)

type column struct {
	title string
	width float64
}

var availableColumns = []column{
	{"Ticket Code", 20}, {"Ticket Name", 32}, {"Category Name", 25}, {"Price", 25},
	{"Quota", 12}, {"Event Date Min", 28}, {"Event Date Max", 28},
}

var bookedColumns = []column{
	{"Ticket Code", 25}, {"Ticket Name", 45}, {"Category Name", 35}, {"Quantity", 20}, {"Booking Date", 45},
}

// Generator lays out the PDF documents.
type Generator struct {
	Title string
	// Compress is off in tests so the text stays searchable.
	Compress bool
}

func NewGenerator(title string) *Generator {
	if title == "" {
		title = "Ticket Report"
	}
	return &Generator{Title: title, Compress: true}
}

// page wraps gofpdf with the translator for non-Latin-1 text.
type page struct {
	*gofpdf.Fpdf
	tr func(string) string
}

func (g *Generator) newPage(header string) *page {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(g.Compress)
	pdf.SetTitle(header, true)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	p := &page{Fpdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	pdf.SetHeaderFunc(func() {
		pdf.SetFont(fontFamily, "B", 24)
		pdf.CellFormat(0, 12, p.tr(header), "", 1, "C", false, 0, "")
		pdf.Ln(6)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(fontFamily, "", 10)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()
	return p
}

func (p *page) section(title string) {
	p.SetFont(fontFamily, "B", 18)
	p.CellFormat(0, 10, p.tr(title), "", 1, "L", false, 0, "")
}

func (p *page) tableHeader(cols []column) {
	p.SetFont(fontFamily, "B", 8)
	p.SetFillColor(230, 230, 230)
	for _, c := range cols {
		p.CellFormat(c.width, rowHeight, c.title, "1", 0, "L", true, 0, "")
	}
	p.Ln(-1)
	p.SetFont(fontFamily, "", 8)
}

// row starts a new page (repeating the header) when the row would not fit.
func (p *page) row(cols []column, values []string) {
	_, pageHeight := p.GetPageSize()
	if p.GetY()+rowHeight > pageHeight-pageMargin {
		p.AddPage()
		p.tableHeader(cols)
	}
	for i, c := range cols {
		p.CellFormat(c.width, rowHeight, p.fit(values[i], c.width), "1", 0, "L", false, 0, "")
	}
	p.Ln(-1)
}

// fit shortens s with an ellipsis until it fits the cell.
func (p *page) fit(s string, width float64) string {
	s = p.tr(s)
	limit := width - 2*p.GetCellMargin()
	if p.GetStringWidth(s) <= limit {
		return s
	}
	for len(s) > 0 && p.GetStringWidth(s+"...") > limit {
		s = s[:len(s)-1]
	}
	return s + "..."
}

func (p *page) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// TicketReport renders the available and booked ticket tables.
func (g *Generator) TicketReport(available []models.TicketOutput, booked []models.BookedTicketRow) ([]byte, error) {
	p := g.newPage(g.Title)

	p.section("Available Tickets")
	p.tableHeader(availableColumns)
	for _, t := range available {
		p.row(availableColumns, []string{
			t.TicketCode,
			t.TicketName,
			t.CategoryName,
			FormatRupiah(t.Price),
			strconv.Itoa(t.Quota),
			t.EventDateMinimal,
			t.EventDateMaximal,
		})
	}

	p.Ln(10)
	p.section("Booked Tickets")
	p.tableHeader(bookedColumns)
	for _, b := range booked {
		p.row(bookedColumns, []string{
			b.TicketCode,
			b.TicketName,
			b.CategoryName,
			strconv.Itoa(b.Quantity),
			utils.FormatDateTime(b.BookingDate),
		})
	}

	return p.bytes()
}

var receiptColumns = []column{
	{"Ticket Code", 22}, {"Ticket Name", 42}, {"Category Name", 30}, {"Booking Date", 34},
	{"Qty", 12}, {"Subtotal", 30},
}

// Receipt renders one booking with its lines, the grand total and a QR code
// of the booking reference.
func (g *Generator) Receipt(transactionID int64, lines []models.BookedTicket, qrPNG []byte) ([]byte, error) {
	p := g.newPage("Booking Receipt")

	p.SetFont(fontFamily, "", 12)
	p.CellFormat(0, rowHeight, "Reference: "+Reference(transactionID), "", 1, "L", false, 0, "")
	p.Ln(4)

	p.tableHeader(receiptColumns)
	var total float64
	var tickets int
	for i := range lines {
		l := &lines[i]
		subtotal := float64(l.Quantity) * l.Price
		total += subtotal
		tickets += l.Quantity
		p.row(receiptColumns, []string{
			l.TicketCode,
			l.TicketName(),
			l.CategoryName(),
			utils.FormatDateTime(l.BookedDate),
			strconv.Itoa(l.Quantity),
			FormatRupiah(subtotal),
		})
	}

	p.Ln(4)
	p.SetFont(fontFamily, "B", 12)
	p.CellFormat(0, rowHeight, fmt.Sprintf("Total Tickets: %d", tickets), "", 1, "L", false, 0, "")
	p.CellFormat(0, rowHeight, "Grand Total: "+FormatRupiah(total), "", 1, "L", false, 0, "")

	if len(qrPNG) > 0 {
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		p.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qrPNG))
		p.Ln(6)
		p.ImageOptions("qr", pageMargin, p.GetY(), 45, 45, true, opts, 0, "")
	}

	if err := p.Error(); err != nil {
		return nil, fmt.Errorf("failed to build receipt: %w", err)
	}
	return p.bytes()
}
