package printing

const defaultDocumentTemplate = `<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="UTF-8">
<title>{{.Title}} {{.Number}}</title>
<style>
  body { font-family: "DejaVu Sans", Arial, sans-serif; font-size: 10pt; color: #222; }
  .header { display: flex; justify-content: space-between; margin-bottom: 24px; }
  .issuer h1 { font-size: 14pt; margin: 0 0 4px; }
  .party { border: 1px solid #ccc; padding: 8px 12px; min-width: 40%; }
  .title { font-size: 16pt; margin: 12px 0; }
  .refs td { padding: 1px 12px 1px 0; }
  table.lines { width: 100%; border-collapse: collapse; margin-top: 16px; }
  table.lines th { background: #f0f0f0; text-align: left; padding: 6px; border-bottom: 1px solid #999; }
  table.lines td { padding: 6px; border-bottom: 1px solid #e5e5e5; vertical-align: top; }
  .num { text-align: right; white-space: nowrap; }
  table.totals { margin-left: auto; margin-top: 16px; border-collapse: collapse; }
  table.totals td { padding: 4px 8px; }
  table.totals tr.gross td { font-weight: bold; border-top: 1px solid #999; }
  .mention { margin-top: 12px; font-style: italic; }
  .paid { color: #1a7f37; font-weight: bold; }
  .footer { margin-top: 32px; font-size: 8pt; color: #666; }
  .verify { margin-top: 8px; font-size: 8pt; word-break: break-all; }
</style>
</head>
<body>
<div class="header">
  <div class="issuer">
    <h1>{{.Company.Name}}</h1>
    {{if .Company.Address}}<div>{{nl2br .Company.Address}}</div>{{end}}
    {{if or .Company.PostalCode .Company.City}}<div>{{.Company.PostalCode}} {{.Company.City}}</div>{{end}}
    {{if .Company.Phone}}<div>Tél. {{.Company.Phone}}</div>{{end}}
    {{if .Company.Email}}<div>{{.Company.Email}}</div>{{end}}
    {{if .Company.SIRET}}<div>SIRET {{.Company.SIRET}}</div>{{end}}
    {{if .Company.VATNumber}}<div>TVA {{.Company.VATNumber}}</div>{{end}}
  </div>
  {{with .Party}}
  <div class="party">
    <strong>{{.CompanyName}}</strong>
    {{if .Address}}<div>{{nl2br .Address}}</div>{{end}}
    {{if or .PostalCode .City}}<div>{{.PostalCode}} {{upper .City}}</div>{{end}}
    {{if .VATNumber}}<div>TVA {{.VATNumber}}</div>{{end}}
  </div>
  {{end}}
</div>

<div class="title">{{upper .Title}} N° {{.Number}}</div>
<table class="refs">
  <tr><td>Date</td><td>{{formatDate .Date}}</td></tr>
  {{if .ClientReference}}<tr><td>Référence client</td><td>{{.ClientReference}}</td></tr>{{end}}
  {{if .SiteReference}}<tr><td>Chantier</td><td>{{.SiteReference}}</td></tr>{{end}}
</table>

<table class="lines">
  <thead>
    <tr><th>Désignation</th><th class="num">Qté</th><th class="num">PU HT</th><th class="num">Total HT</th></tr>
  </thead>
  <tbody>
  {{range .Lines}}
    <tr>
      <td>{{nl2br .Designation}}</td>
      <td class="num">{{if not .FlatPriced}}{{formatQuantity .Quantity}}{{end}}</td>
      <td class="num">{{formatMoney .UnitPrice}}</td>
      <td class="num">{{formatMoney .LineTotal}}</td>
    </tr>
  {{end}}
  </tbody>
</table>

<table class="totals">
  <tr><td>Total HT</td><td class="num">{{formatMoney .AmountNet}}</td></tr>
  <tr><td>TVA {{if .ReverseCharge}}(autoliquidation){{else}}{{formatPercent .VATRate}}{{end}}</td><td class="num">{{formatMoney .AmountVAT}}</td></tr>
  <tr class="gross"><td>Total TTC</td><td class="num">{{formatMoney .AmountGross}}</td></tr>
</table>

{{if .ReverseCharge}}<div class="mention">Autoliquidation : TVA due par le preneur (article 283-2 nonies du CGI).</div>{{end}}
{{if .Paid}}<div class="paid">Acquittée</div>{{end}}
{{if and .ShowPaymentTerms .Company.PaymentTerms}}<div class="mention">{{.Company.PaymentTerms}}</div>{{end}}
{{if and .ShowPaymentTerms .Company.IBAN}}<div>IBAN {{.Company.IBAN}}</div>{{end}}

<div class="footer">
  {{if .Company.Footer}}<div>{{nl2br .Company.Footer}}</div>{{end}}
  {{if .VerifyURL}}<div class="verify">Vérifier l'authenticité de ce document : {{.VerifyURL}}</div>{{end}}
</div>
</body>
</html>
`
