package document

import (
	"context"
	"time"

	"github.com/bizdocs/backend/internal/domain/company"
	"github.com/bizdocs/backend/internal/domain/document"
	"github.com/bizdocs/backend/internal/domain/party"
)

// RenderInput carries everything printed on a document
type RenderInput struct {
	Document  *document.Document
	Company   *company.Settings
	Client    *party.Client
	Supplier  *party.Supplier
	VerifyURL string
}

// Renderer turns a document into a printable artifact (PDF)
type Renderer interface {
	Render(ctx context.Context, in RenderInput) ([]byte, error)
}

// ArtifactStore keeps rendered artifacts
type ArtifactStore interface {
	// Put stores content under key and returns the stored path
	Put(ctx context.Context, key string, content []byte, contentType string) (string, error)
	// Get returns the stored content
	Get(ctx context.Context, path string) ([]byte, error)
	// Delete removes an artifact; deleting a missing artifact is not an error
	Delete(ctx context.Context, path string) error
}

// Attachment is a file attached to an outgoing message
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is an outgoing document delivery
type Message struct {
	To          []string
	Cc          []string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Delivery sends messages to document recipients
type Delivery interface {
	Send(ctx context.Context, msg Message) error
}

// Clock returns the current time
type Clock func() time.Time
