package printing

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DocumentTemplateName is the file name looked up in a template directory
const DocumentTemplateName = "document.html"

// TemplateEngine renders HTML templates with French formatting helpers
type TemplateEngine struct {
	funcMap  template.FuncMap
	tmpl     *template.Template
	language language.Tag
}

// TemplateEngineOption configures the template engine
type TemplateEngineOption func(*TemplateEngine)

// WithLanguage sets the language used for number formatting
func WithLanguage(tag language.Tag) TemplateEngineOption {
	return func(e *TemplateEngine) {
		e.language = tag
	}
}

// NewTemplateEngine creates an engine with the built-in document template
func NewTemplateEngine(opts ...TemplateEngineOption) (*TemplateEngine, error) {
	e := &TemplateEngine{language: language.French}
	for _, opt := range opts {
		opt(e)
	}

	printer := message.NewPrinter(e.language)
	title := cases.Title(e.language)
	e.funcMap = template.FuncMap{
		"formatMoney": func(d decimal.Decimal) string {
			return printer.Sprint(number.Decimal(d.InexactFloat64(), number.Scale(2))) + " €"
		},
		"formatQuantity": func(d decimal.Decimal) string {
			return printer.Sprint(number.Decimal(d.InexactFloat64(), number.MaxFractionDigits(3)))
		},
		"formatPercent": func(d decimal.Decimal) string {
			return printer.Sprint(number.Decimal(d.InexactFloat64(), number.MaxFractionDigits(2))) + " %"
		},
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02/01/2006")
		},
		"upper": strings.ToUpper,
		"title": title.String,
		"nl2br": func(s string) template.HTML {
			return template.HTML(strings.ReplaceAll(template.HTMLEscapeString(s), "\n", "<br>"))
		},
	}

	if err := e.Parse(defaultDocumentTemplate); err != nil {
		return nil, err
	}
	return e, nil
}

// Parse replaces the document template
func (e *TemplateEngine) Parse(text string) error {
	tmpl, err := template.New(DocumentTemplateName).Funcs(e.funcMap).Parse(text)
	if err != nil {
		return NewRenderError(ErrCodeTemplate, "invalid document template", err)
	}
	e.tmpl = tmpl
	return nil
}

// LoadDir replaces the built-in template with dir/document.html when that file exists
func (e *TemplateEngine) LoadDir(dir string) (bool, error) {
	if dir == "" {
		return false, nil
	}
	content, err := os.ReadFile(filepath.Join(dir, DocumentTemplateName))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read document template: %w", err)
	}
	if err := e.Parse(string(content)); err != nil {
		return false, err
	}
	return true, nil
}

// Render executes the document template
func (e *TemplateEngine) Render(data any) (string, error) {
	var buf bytes.Buffer
	if err := e.tmpl.Execute(&buf, data); err != nil {
		return "", NewRenderError(ErrCodeTemplate, "document template failed", err)
	}
	return buf.String(), nil
}
