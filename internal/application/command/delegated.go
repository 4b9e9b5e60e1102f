package command

import (
	"context"
	"fmt"
	"strings"

	appdoc "github.com/bizdocs/backend/internal/application/document"
	appparty "github.com/bizdocs/backend/internal/application/party"
	"github.com/bizdocs/backend/internal/domain/document"
	"github.com/google/uuid"
)

const (
	defaultListLimit     = 10
	defaultActivityLimit = 3
	activityTimeLayout   = "02/01 15:04"
)

// ClientDirectory is the client surface of the delegated actions
type ClientDirectory interface {
	Create(ctx context.Context, actorID *uuid.UUID, req appparty.ProfileRequest) (*appparty.ClientResponse, error)
	List(ctx context.Context, filter appparty.PartyListFilter) ([]appparty.ClientResponse, int64, error)
	AddContact(ctx context.Context, clientID uuid.UUID, req appparty.CreateContactRequest) (*appparty.ContactResponse, error)
}

// SupplierDirectory is the supplier surface of the delegated actions
type SupplierDirectory interface {
	Create(ctx context.Context, actorID *uuid.UUID, req appparty.ProfileRequest) (*appparty.SupplierResponse, error)
	List(ctx context.Context, filter appparty.PartyListFilter) ([]appparty.SupplierResponse, int64, error)
}

// Reporting prices drafts and summarises activity
type Reporting interface {
	PreviewTotals(ctx context.Context, req appdoc.PreviewTotalsRequest) (*appdoc.TotalsResponse, error)
	Stats(ctx context.Context, period string) (*appdoc.StatsResponse, error)
}

// Delegates are the services behind the non-core actions
type Delegates struct {
	Clients   ClientDirectory
	Suppliers SupplierDirectory
	Reports   Reporting
}

// RegisterDelegated wires the non-core actions into the executor
func RegisterDelegated(e *Executor, d Delegates) {
	e.Register(ActionCreateClient, CreateClientAction(d.Clients))
	e.Register(ActionListClients, ListClientsAction(d.Clients))
	e.Register(ActionAddContact, AddContactAction(d.Clients, e.clients))
	e.Register(ActionCreateSupplier, CreateSupplierAction(d.Suppliers))
	e.Register(ActionListSuppliers, ListSuppliersAction(d.Suppliers))
	e.Register(ActionListDocuments, ListDocumentsAction(e.docs, e.clients))
	e.Register(ActionSendEmail, SendEmailAction(e.docs))
	e.Register(ActionCalculateTotals, CalculateTotalsAction(d.Reports, e.docs))
	e.Register(ActionGetStats, StatsAction(d.Reports))
	e.Register(ActionRecentActivity, RecentActivityAction(e.docs, d.Clients))
}

// CreateClientAction creates a client and makes it the session's current client
func CreateClientAction(clients ClientDirectory) Handler {
	return func(ctx context.Context, call *Call) (*Result, error) {
		var data partyData
		if err := decode(call.Data, &data); err != nil {
			return nil, err
		}
		client, err := clients.Create(ctx, call.Actor.ID, data.toRequest())
		if err != nil {
			return nil, err
		}
		call.Session.LastClientID = &client.ID
		return success(fmt.Sprintf("Client %s créé.", client.CompanyName), map[string]any{
			"id":           client.ID,
			"company_name": client.CompanyName,
		}), nil
	}
}

// ListClientsAction lists clients by name
func ListClientsAction(clients ClientDirectory) Handler {
	return func(ctx context.Context, call *Call) (*Result, error) {
		var data listPartiesData
		if err := decode(call.Data, &data); err != nil {
			return nil, err
		}
		found, total, err := clients.List(ctx, partyFilter(data))
		if err != nil {
			return nil, err
		}
		rows := make([]map[string]any, len(found))
		names := make([]string, len(found))
		for i, c := range found {
			rows[i] = map[string]any{"id": c.ID, "company_name": c.CompanyName, "email": c.Email, "city": c.City}
			names[i] = c.CompanyName
		}
		return success(listMessage("client", total, names), map[string]any{"clients": rows, "total": total}), nil
	}
}

// AddContactAction attaches a courtesy-copy contact to the named, given or session client
func AddContactAction(clients ClientDirectory, resolver ClientResolver) Handler {
	return func(ctx context.Context, call *Call) (*Result, error) {
		var data addContactData
		if err := decode(call.Data, &data); err != nil {
			return nil, err
		}
		clientID, err := resolveClient(ctx, resolver, call.Session, data.ClientID, data.ClientName)
		if err != nil {
			return nil, err
		}
		contact, err := clients.AddContact(ctx, clientID, appparty.CreateContactRequest{
			Name:  data.fullName(),
			Email: data.Email,
			Role:  data.Role,
		})
		if err != nil {
			return nil, err
		}
		call.Session.LastClientID = &clientID
		return success(fmt.Sprintf("Contact %s ajouté.", contact.Name), map[string]any{
			"id":        contact.ID,
			"client_id": contact.ClientID,
			"name":      contact.Name,
			"email":     contact.Email,
		}), nil
	}
}

// CreateSupplierAction creates a supplier
func CreateSupplierAction(suppliers SupplierDirectory) Handler {
	return func(ctx context.Context, call *Call) (*Result, error) {
		var data partyData
		if err := decode(call.Data, &data); err != nil {
			return nil, err
		}
		supplier, err := suppliers.Create(ctx, call.Actor.ID, data.toRequest())
		if err != nil {
			return nil, err
		}
		return success(fmt.Sprintf("Fournisseur %s créé.", supplier.CompanyName), map[string]any{
			"id":           supplier.ID,
			"company_name": supplier.CompanyName,
		}), nil
	}
}

// ListSuppliersAction lists suppliers by name
func ListSuppliersAction(suppliers SupplierDirectory) Handler {
	return func(ctx context.Context, call *Call) (*Result, error) {
		var data listPartiesData
		if err := decode(call.Data, &data); err != nil {
			return nil, err
		}
		found, total, err := suppliers.List(ctx, partyFilter(data))
		if err != nil {
			return nil, err
		}
		rows := make([]map[string]any, len(found))
		names := make([]string, len(found))
		for i, s := range found {
			rows[i] = map[string]any{"id": s.ID, "company_name": s.CompanyName, "email": s.Email}
			names[i] = s.CompanyName
		}
		return success(listMessage("fournisseur", total, names), map[string]any{"suppliers": rows, "total": total}), nil
	}
}

// ListDocumentsAction lists the most recent documents, optionally narrowed to a client
func ListDocumentsAction(docs DocumentService, clients ClientResolver) Handler {
	return func(ctx context.Context, call *Call) (*Result, error) {
		var data listDocumentsData
		if err := decode(call.Data, &data); err != nil {
			return nil, err
		}
		filter := appdoc.DocumentListFilter{
			Search:   data.Search,
			Paid:     data.Paid,
			Page:     1,
			PageSize: data.Limit,
		}
		if filter.PageSize == 0 {
			filter.PageSize = defaultListLimit
		}
		if data.Type != "" {
			docType, err := document.ParseDocumentType(data.Type)
			if err != nil {
				return nil, err
			}
			filter.Type = string(docType)
		}
		if data.ClientName != "" {
			client, err := clients.Resolve(ctx, data.ClientName)
			if err != nil {
				return nil, err
			}
			filter.ClientID = &client.ID
			call.Session.LastClientID = &client.ID
		}

		items, total, err := docs.ListDocuments(ctx, filter)
		if err != nil {
			return nil, err
		}
		numbers := make([]string, len(items))
		for i, item := range items {
			numbers[i] = item.Number
		}
		message := "Aucun document."
		if len(numbers) > 0 {
			message = fmt.Sprintf("%d document(s) : %s", total, strings.Join(numbers, ", "))
		}
		return success(message, map[string]any{"documents": items, "total": total}), nil
	}
}

// SendEmailAction delivers a document to its party, its cc contacts and any extra recipient
func SendEmailAction(docs DocumentService) Handler {
	return func(ctx context.Context, call *Call) (*Result, error) {
		var data sendEmailData
		if err := decode(call.Data, &data); err != nil {
			return nil, err
		}
		target, err := resolveDocument(ctx, docs, call.Session, data.DocumentNumber)
		if err != nil {
			return nil, err
		}
		extra := data.ExtraRecipients
		if data.RecipientEmail != "" {
			extra = append([]string{data.RecipientEmail}, extra...)
		}
		doc, err := docs.SendDocument(ctx, call.Actor, target.ID, appdoc.SendDocumentRequest{
			ExtraRecipients: extra,
			Subject:         data.Subject,
			Body:            data.Body,
		})
		if err != nil {
			return nil, err
		}
		call.Session.touchDocument(doc.ID, doc.Number, doc.ClientID)
		result := documentData(doc)
		result["sent_at"] = doc.SentAt
		return success(fmt.Sprintf("%s %s envoyé.", doc.TypeLabel, doc.Number), result), nil
	}
}

// CalculateTotalsAction prices draft lines without saving them. Without lines it reports
// the totals of the given or session document.
func CalculateTotalsAction(reports Reporting, docs DocumentService) Handler {
	return func(ctx context.Context, call *Call) (*Result, error) {
		var data calculateTotalsData
		if err := decode(call.Data, &data); err != nil {
			return nil, err
		}
		if len(data.Lines) == 0 {
			doc, err := resolveDocument(ctx, docs, call.Session, data.DocumentNumber)
			if err != nil {
				return nil, err
			}
			return success(fmt.Sprintf("%s %s : %s TTC.", doc.TypeLabel, doc.Number, doc.AmountGross.StringFixed(2)),
				documentData(doc)), nil
		}

		lines := make([]appdoc.LineRequest, len(data.Lines))
		for i, l := range data.Lines {
			lines[i] = l.toRequest()
		}
		totals, err := reports.PreviewTotals(ctx, appdoc.PreviewTotalsRequest{
			Lines:         lines,
			VATRate:       data.VATRate,
			ReverseCharge: data.ReverseCharge,
		})
		if err != nil {
			return nil, err
		}
		return success(fmt.Sprintf("Total : %s HT, %s TVA, %s TTC.",
			totals.AmountNet.StringFixed(2), totals.AmountVAT.StringFixed(2), totals.AmountGross.StringFixed(2)),
			map[string]any{
				"line_totals":  totals.LineTotals,
				"vat_rate":     totals.VATRate,
				"amount_net":   totals.AmountNet,
				"amount_vat":   totals.AmountVAT,
				"amount_gross": totals.AmountGross,
			}), nil
	}
}

// StatsAction summarises amounts per type, collected and unpaid invoices and the quote conversion rate
func StatsAction(reports Reporting) Handler {
	return func(ctx context.Context, call *Call) (*Result, error) {
		var data statsData
		if err := decode(call.Data, &data); err != nil {
			return nil, err
		}
		stats, err := reports.Stats(ctx, data.period())
		if err != nil {
			return nil, err
		}
		invoices := stats.ByType[string(document.TypeInvoice)]
		message := fmt.Sprintf("%d facture(s), %s HT, %s TTC impayés, taux de conversion des devis %s %%.",
			invoices.Count, invoices.AmountNet.StringFixed(2), stats.InvoicesUnpaid.StringFixed(2),
			stats.ConversionRate.StringFixed(2))
		return success(message, map[string]any{
			"period":           stats.Period,
			"by_type":          stats.ByType,
			"invoices_paid":    stats.InvoicesPaid,
			"invoices_unpaid":  stats.InvoicesUnpaid,
			"quotes_converted": stats.QuotesConverted,
			"conversion_rate":  stats.ConversionRate,
			"top_clients":      stats.TopClients,
		}), nil
	}
}

// RecentActivityAction reports the last updated documents and clients
func RecentActivityAction(docs DocumentService, clients ClientDirectory) Handler {
	return func(ctx context.Context, call *Call) (*Result, error) {
		var data recentActivityData
		if err := decode(call.Data, &data); err != nil {
			return nil, err
		}
		limit := data.Limit
		if limit == 0 {
			limit = defaultActivityLimit
		}

		recentDocs, _, err := docs.ListDocuments(ctx, appdoc.DocumentListFilter{
			Page: 1, PageSize: limit, OrderBy: "updated_at", OrderDir: "desc",
		})
		if err != nil {
			return nil, err
		}
		recentClients, _, err := clients.List(ctx, appparty.PartyListFilter{
			Page: 1, PageSize: limit, OrderBy: "updated_at", OrderDir: "desc",
		})
		if err != nil {
			return nil, err
		}

		activity := make([]string, 0, len(recentDocs)+len(recentClients))
		for _, d := range recentDocs {
			activity = append(activity, fmt.Sprintf("Document %s (%s) mis à jour le %s",
				d.Number, d.Type, d.UpdatedAt.Format(activityTimeLayout)))
		}
		for _, c := range recentClients {
			activity = append(activity, fmt.Sprintf("Client %s mis à jour le %s",
				c.CompanyName, c.UpdatedAt.Format(activityTimeLayout)))
		}
		message := "Aucune activité récente."
		if len(activity) > 0 {
			message = strings.Join(activity, "\n")
		}
		return success(message, map[string]any{"activity": activity}), nil
	}
}

func partyFilter(data listPartiesData) appparty.PartyListFilter {
	limit := data.Limit
	if limit == 0 {
		limit = defaultListLimit
	}
	return appparty.PartyListFilter{
		Search:   data.Search,
		City:     data.City,
		Page:     1,
		PageSize: limit,
		OrderBy:  "company_name",
		OrderDir: "asc",
	}
}

func listMessage(noun string, total int64, names []string) string {
	if len(names) == 0 {
		return fmt.Sprintf("Aucun %s.", noun)
	}
	return fmt.Sprintf("%d %s(s) : %s", total, noun, strings.Join(names, ", "))
}
