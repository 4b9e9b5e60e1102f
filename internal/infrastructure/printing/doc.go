// Package printing turns documents into PDF artifacts.
//
// A TemplateEngine renders the document HTML with French number and date
// formatting, and a PDFRenderer (headless Chrome through chromedp) prints it.
// DocumentRenderer ties both together behind the document service's Renderer port.
package printing
