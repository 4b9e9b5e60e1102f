package printing

import (
	"context"
	"fmt"
	"time"

	appdoc "github.com/bizdocs/backend/internal/application/document"
	"github.com/bizdocs/backend/internal/domain/company"
	"github.com/bizdocs/backend/internal/domain/document"
	"github.com/bizdocs/backend/internal/domain/party"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var _ appdoc.Renderer = (*DocumentRenderer)(nil)

// DocumentRenderer prints documents through the HTML template and a PDF renderer
type DocumentRenderer struct {
	engine *TemplateEngine
	pdf    PDFRenderer
	logger *zap.Logger
}

// NewDocumentRenderer creates a renderer
func NewDocumentRenderer(engine *TemplateEngine, pdf PDFRenderer, log *zap.Logger) *DocumentRenderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &DocumentRenderer{engine: engine, pdf: pdf, logger: log}
}

// Render returns the PDF of the document
func (r *DocumentRenderer) Render(ctx context.Context, in appdoc.RenderInput) ([]byte, error) {
	html, err := r.RenderHTML(in)
	if err != nil {
		return nil, err
	}
	result, err := r.pdf.Render(ctx, &RenderRequest{
		HTML:       html,
		Title:      fmt.Sprintf("%s %s", in.Document.Type.Label(), in.Document.Number),
		Margins:    DefaultMargins(),
		FooterHTML: pageFooter,
	})
	if err != nil {
		return nil, err
	}
	r.logger.Info("Document printed",
		zap.String("number", in.Document.Number),
		zap.Int("pages", result.PageCount),
		zap.Duration("duration", result.RenderDuration))
	return result.PDFData, nil
}

// RenderHTML returns the HTML the PDF is printed from
func (r *DocumentRenderer) RenderHTML(in appdoc.RenderInput) (string, error) {
	if in.Document == nil {
		return "", NewRenderError(ErrCodeInvalidHTML, "no document to render", nil)
	}
	return r.engine.Render(newDocumentView(in))
}

const pageFooter = `<div style="font-size:8px;width:100%;text-align:center;color:#666;">` +
	`<span class="pageNumber"></span> / <span class="totalPages"></span></div>`

type lineView struct {
	Designation string
	FlatPriced  bool
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

type documentView struct {
	Title            string
	Number           string
	Date             time.Time
	ClientReference  string
	SiteReference    string
	Company          *company.Settings
	Party            *party.Profile
	Lines            []lineView
	VATRate          decimal.Decimal
	ReverseCharge    bool
	Paid             bool
	ShowPaymentTerms bool
	AmountNet        decimal.Decimal
	AmountVAT        decimal.Decimal
	AmountGross      decimal.Decimal
	VerifyURL        string
}

func newDocumentView(in appdoc.RenderInput) documentView {
	d := in.Document
	settings := in.Company
	if settings == nil {
		settings = company.DefaultSettings()
	}

	view := documentView{
		Title:            d.Type.Label(),
		Number:           d.Number,
		Date:             d.Date,
		ClientReference:  d.ClientReference,
		SiteReference:    d.SiteReference,
		Company:          settings,
		VATRate:          d.VATRate,
		ReverseCharge:    d.ReverseCharge,
		Paid:             d.Type == document.TypeInvoice && d.Paid,
		ShowPaymentTerms: d.Type == document.TypeInvoice && !d.Paid,
		AmountNet:        d.AmountNet,
		AmountVAT:        d.AmountVAT,
		AmountGross:      d.AmountGross,
		VerifyURL:        in.VerifyURL,
		Lines:            make([]lineView, len(d.Lines)),
	}
	switch {
	case in.Client != nil:
		view.Party = &in.Client.Profile
	case in.Supplier != nil:
		view.Party = &in.Supplier.Profile
	}
	for i, l := range d.Lines {
		view.Lines[i] = lineView{
			Designation: l.Designation,
			FlatPriced:  l.Category.FlatPriced(),
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			LineTotal:   l.LineTotal,
		}
	}
	return view
}
