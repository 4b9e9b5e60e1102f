package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/bizdocs/backend/internal/application/command"
	appdoc "github.com/bizdocs/backend/internal/application/document"
	appparty "github.com/bizdocs/backend/internal/application/party"
	"github.com/bizdocs/backend/internal/domain/document"
	"github.com/bizdocs/backend/internal/domain/shared"
	"github.com/bizdocs/backend/internal/infrastructure/cache"
	"github.com/bizdocs/backend/internal/infrastructure/delivery"
	"github.com/bizdocs/backend/internal/infrastructure/persistence"
	"github.com/bizdocs/backend/internal/infrastructure/storage"
	"github.com/bizdocs/backend/internal/interfaces/http/dto"
	"github.com/bizdocs/backend/internal/interfaces/http/handler"
	"github.com/bizdocs/backend/internal/interfaces/http/middleware"
	"github.com/bizdocs/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var clock = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	code := m.Run()
	CleanupSharedContainer()
	os.Exit(code)
}

type pdfStub struct{}

func (pdfStub) Render(ctx context.Context, in appdoc.RenderInput) ([]byte, error) {
	return []byte("%PDF-1.7\n" + in.Document.Number), nil
}

// DocumentTestServer wires the production services on a real database
type DocumentTestServer struct {
	DB        *TestDB
	Engine    *gin.Engine
	Documents *appdoc.Service
	Clients   *appparty.ClientService
	Executor  *command.Executor

	actor document.Actor
}

func NewDocumentTestServer(t *testing.T) *DocumentTestServer {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
	testDB := NewSharedTestDB(t)
	testDB.CleanTables()

	log := zap.NewNop()
	documentRepo := persistence.NewGormDocumentRepository(testDB.DB)
	clientRepo := persistence.NewGormClientRepository(testDB.DB)
	supplierRepo := persistence.NewGormSupplierRepository(testDB.DB)
	settingsRepo := persistence.NewGormSettingsRepository(testDB.DB)

	documents := appdoc.NewService(documentRepo, clientRepo, supplierRepo, settingsRepo,
		persistence.NewGormTransactionScope(testDB.DB), log, appdoc.Config{
			MaxAttempts:   5,
			PublicBaseURL: "https://docs.example.test",
		})
	documents.SetClock(func() time.Time { return clock })
	documents.SetRenderer(pdfStub{})
	documents.SetArtifactStore(storage.NewMemoryArtifactStore())
	documents.SetDelivery(delivery.NewLogDelivery(log))

	clients := appparty.NewClientService(clientRepo, log)
	sessions := cache.NewInMemorySessionStore()
	t.Cleanup(func() { _ = sessions.Close() })
	executor := command.NewExecutor(documents, clients, sessions, log, command.Config{SessionTTL: time.Hour})
	command.RegisterDelegated(executor, command.Delegates{
		Clients:   clients,
		Suppliers: appparty.NewSupplierService(supplierRepo, log),
		Reports:   documents,
	})

	s := &DocumentTestServer{
		DB:        testDB,
		Documents: documents,
		Clients:   clients,
		Executor:  executor,
		actor:     document.Actor{Name: "integration"},
	}

	actorMW := func(c *gin.Context) {
		c.Set(middleware.ActorKey, s.actor)
		c.Next()
	}
	engine := gin.New()
	engine.Use(middleware.RequestID())
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewDocumentHandler(documents).Routes(actorMW)).
		Register(handler.NewClientHandler(clients).Routes(actorMW)).
		Register(handler.NewCommandHandler(executor).Routes(actorMW)).
		Register(handler.NewVerifyHandler(documents).Routes())
	r.Setup()
	s.Engine = engine
	return s
}

func (s *DocumentTestServer) asAdmin(admin bool) {
	s.actor.Admin = admin
}

func (s *DocumentTestServer) Request(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, target any) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *dto.ErrorInfo  `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), w.Body.String())
	require.True(t, envelope.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, target))
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error, w.Body.String())
	return envelope.Error.Code
}

func (s *DocumentTestServer) createClient(t *testing.T, name, email string) uuid.UUID {
	t.Helper()
	w := s.Request(http.MethodPost, "/clients", map[string]any{"company_name": name, "email": email})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var client appparty.ClientResponse
	decodeData(t, w, &client)
	return client.ID
}

func (s *DocumentTestServer) createDocument(t *testing.T, body map[string]any) appdoc.DocumentResponse {
	t.Helper()
	w := s.Request(http.MethodPost, "/documents", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var doc appdoc.DocumentResponse
	decodeData(t, w, &doc)
	return doc
}

var renovationLines = []map[string]any{
	{"designation": "Pose de carrelage", "category": "labor", "quantity": "2", "unit_price": "150"},
	{"designation": "Colle", "category": "goods", "quantity": "1", "unit_price": "90.50"},
}

func TestDocumentFlow_QuoteInvoiceCreditNote(t *testing.T) {
	s := NewDocumentTestServer(t)
	clientID := s.createClient(t, "Dupont Rénovation", "compta@dupont.example")

	quote := s.createDocument(t, map[string]any{
		"type":      "quote",
		"client_id": clientID,
		"lines":     renovationLines,
	})
	assert.Equal(t, "D-2026-0001", quote.Number)
	assert.True(t, decimal.RequireFromString("390.50").Equal(quote.AmountNet), quote.AmountNet.String())
	assert.True(t, decimal.RequireFromString("78.10").Equal(quote.AmountVAT), quote.AmountVAT.String())
	assert.True(t, decimal.RequireFromString("468.60").Equal(quote.AmountGross), quote.AmountGross.String())

	t.Run("conversion requires a client reference", func(t *testing.T) {
		w := s.Request(http.MethodPost, "/documents/"+quote.ID.String()+"/invoice", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	w := s.Request(http.MethodPost, "/documents/"+quote.ID.String()+"/invoice", map[string]any{"client_reference": "BC-7781"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var invoice appdoc.DocumentResponse
	decodeData(t, w, &invoice)
	assert.Equal(t, "F-2026-0001", invoice.Number)
	assert.Equal(t, "BC-7781", invoice.ClientReference)
	require.NotNil(t, invoice.SourceDocumentID)
	assert.Equal(t, quote.ID, *invoice.SourceDocumentID)
	assert.True(t, quote.AmountGross.Equal(invoice.AmountGross))

	t.Run("unchanged quote cannot be converted twice", func(t *testing.T) {
		w := s.Request(http.MethodPost, "/documents/"+quote.ID.String()+"/invoice", map[string]any{"client_reference": "BC-7781"})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.ErrCodeStateConflict, errorCode(t, w))
	})

	w = s.Request(http.MethodPost, "/documents/"+invoice.ID.String()+"/credit-note", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var creditNote appdoc.DocumentResponse
	decodeData(t, w, &creditNote)
	assert.Equal(t, "A-2026-0001", creditNote.Number)
	assert.True(t, invoice.AmountGross.Equal(creditNote.AmountGross))

	t.Run("credit note only accepts date edits", func(t *testing.T) {
		w := s.Request(http.MethodPost, "/documents/"+creditNote.ID.String()+"/lines",
			map[string]any{"designation": "Remise", "quantity": "1", "unit_price": "10"})
		assert.Equal(t, http.StatusConflict, w.Code)

		w = s.Request(http.MethodPatch, "/documents/"+creditNote.ID.String()+"/date", map[string]any{"date": "2026-03-12T00:00:00Z"})
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("second credit note is refused", func(t *testing.T) {
		w := s.Request(http.MethodPost, "/documents/"+invoice.ID.String()+"/credit-note", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("documents with derived documents cannot be deleted", func(t *testing.T) {
		w := s.Request(http.MethodDelete, "/documents/"+invoice.ID.String(), nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		w = s.Request(http.MethodDelete, "/documents/"+quote.ID.String(), nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	w = s.Request(http.MethodGet, "/documents/"+invoice.ID.String()+"/derived", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var derived []appdoc.DocumentListItemResponse
	decodeData(t, w, &derived)
	require.Len(t, derived, 1)
	assert.Equal(t, "A-2026-0001", derived[0].Number)
}

func TestDocumentFlow_SentDocumentIsLocked(t *testing.T) {
	s := NewDocumentTestServer(t)
	clientID := s.createClient(t, "Martin SARL", "contact@martin.example")
	invoice := s.createDocument(t, map[string]any{
		"type":             "invoice",
		"client_id":        clientID,
		"client_reference": "PO-12",
		"lines":            renovationLines,
	})
	path := "/documents/" + invoice.ID.String()

	w := s.Request(http.MethodPost, path+"/send", map[string]any{"subject": "Votre facture"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var sent appdoc.DocumentResponse
	decodeData(t, w, &sent)
	require.NotNil(t, sent.SentAt)
	assert.True(t, sent.HasArtifact)

	s.asAdmin(false)
	w = s.Request(http.MethodPost, path+"/lines", map[string]any{"designation": "Supplément", "quantity": "1", "unit_price": "20"})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = s.Request(http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	s.asAdmin(true)
	w = s.Request(http.MethodPost, path+"/lines", map[string]any{"designation": "Supplément", "quantity": "1", "unit_price": "20"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var edited appdoc.DocumentResponse
	decodeData(t, w, &edited)
	assert.True(t, decimal.RequireFromString("410.50").Equal(edited.AmountNet), edited.AmountNet.String())
	assert.Equal(t, sent.SentAt.Unix(), edited.SentAt.Unix())

	t.Run("public verification", func(t *testing.T) {
		var token string
		require.NoError(t, s.DB.DB.Raw("SELECT security_token FROM documents WHERE id = ?", invoice.ID).Scan(&token).Error)
		require.NotEmpty(t, token)

		w := s.Request(http.MethodGet, "/verify/"+token, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var verification appdoc.VerificationResponse
		decodeData(t, w, &verification)
		assert.True(t, verification.Valid)
		assert.Equal(t, invoice.Number, verification.Number)
		assert.True(t, edited.AmountGross.Equal(verification.AmountGross))

		w = s.Request(http.MethodGet, "/verify/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDocumentFlow_ConcurrentNumbering(t *testing.T) {
	s := NewDocumentTestServer(t)
	clientID := s.createClient(t, "Concurrent SAS", "")

	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers []string
		errs    []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc, err := s.Documents.CreateDocument(t.Context(), document.SystemActor, appdoc.CreateDocumentRequest{
				Type:     "invoice",
				ClientID: &clientID,
				Lines: []appdoc.LineRequest{{
					Designation: fmt.Sprintf("Intervention %d", i),
					Quantity:    decimal.NewNullDecimal(decimal.NewFromInt(1)),
					UnitPrice:   decimal.NewNullDecimal(decimal.NewFromInt(100)),
				}},
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			numbers = append(numbers, doc.Number)
		}(i)
	}
	wg.Wait()

	// Collisions beyond the retry budget surface as errors, never as duplicates
	for _, err := range errs {
		assert.ErrorContains(t, err, "number")
	}
	seen := make(map[string]bool, len(numbers))
	for _, number := range numbers {
		assert.False(t, seen[number], "duplicate number %s", number)
		seen[number] = true
	}
	sort.Strings(numbers)
	if len(numbers) > 0 {
		assert.Equal(t, "F-2026-0001", numbers[0])
	}
	assert.GreaterOrEqual(t, len(numbers), 1)
}

func TestDocumentFlow_CommandAndFormPathsAgree(t *testing.T) {
	s := NewDocumentTestServer(t)
	clientID := s.createClient(t, "Leroy Plomberie", "leroy@example.test")

	form := s.createDocument(t, map[string]any{
		"type":      "quote",
		"client_id": clientID,
		"lines":     renovationLines,
	})

	payload, err := json.Marshal(map[string]any{
		"type":        "devis",
		"client_name": "Leroy",
		"lines": []map[string]any{
			{"designation": "Pose de carrelage", "category": "main_doeuvre", "quantity": "2", "unit_price": "150"},
			{"designation": "Colle", "category": "fourniture", "quantity": "1", "unit_price": "90.50"},
		},
	})
	require.NoError(t, err)

	result, err := s.Executor.Execute(t.Context(), "conv-1", document.SystemActor, command.Command{
		Action: command.ActionCreateDocument,
		Data:   payload,
	})
	require.NoError(t, err)
	require.Equal(t, command.StatusSuccess, result.Status, result.Message)
	assert.Equal(t, "D-2026-0002", result.Data["number"])

	w := s.Request(http.MethodGet, "/documents/by-number/D-2026-0002", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var viaCommand appdoc.DocumentResponse
	decodeData(t, w, &viaCommand)

	require.NotNil(t, viaCommand.ClientID)
	assert.Equal(t, clientID, *viaCommand.ClientID)
	assert.True(t, form.AmountNet.Equal(viaCommand.AmountNet))
	assert.True(t, form.AmountGross.Equal(viaCommand.AmountGross))
	require.Len(t, viaCommand.Lines, 2)
	assert.Equal(t, "labor", viaCommand.Lines[0].Category)
	assert.Equal(t, "goods", viaCommand.Lines[1].Category)

	t.Run("session remembers the last document", func(t *testing.T) {
		line, err := json.Marshal(map[string]any{"designation": "Joint", "quantity": "3", "unit_price": "4"})
		require.NoError(t, err)
		result, err := s.Executor.Execute(t.Context(), "conv-1", document.SystemActor, command.Command{
			Action: command.ActionAddLine,
			Data:   line,
		})
		require.NoError(t, err)
		require.Equal(t, command.StatusSuccess, result.Status, result.Message)

		doc, err := s.Documents.GetDocumentByNumber(t.Context(), "D-2026-0002")
		require.NoError(t, err)
		assert.Len(t, doc.Lines, 3)
	})

	t.Run("locked document is reported as an error result", func(t *testing.T) {
		_, err := s.Documents.SendDocument(t.Context(), document.SystemActor, form.ID, appdoc.SendDocumentRequest{})
		require.NoError(t, err)

		data, err := json.Marshal(map[string]any{"document_number": form.Number})
		require.NoError(t, err)
		w := s.Request(http.MethodPost, "/commands", map[string]any{
			"action": command.ActionDeleteDocument,
			"data":   json.RawMessage(data),
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var rejected command.Result
		decodeData(t, w, &rejected)
		assert.Equal(t, command.StatusError, rejected.Status)
		assert.Equal(t, shared.CodeStateConflict, rejected.Code)
	})
}
