package delivery

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"testing"
	"time"

	appdoc "github.com/bizdocs/backend/internal/application/document"
	"github.com/bizdocs/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMessage() appdoc.Message {
	return appdoc.Message{
		To:      []string{"contact@dupont.fr"},
		Cc:      []string{"chantier@dupont.fr"},
		Subject: "Facture F-2026-0001",
		Body:    "Bonjour,\nveuillez trouver ci-joint la facture.",
		Attachments: []appdoc.Attachment{
			{Filename: "F-2026-0001.pdf", ContentType: "application/pdf", Content: bytes.Repeat([]byte("%PDF"), 40)},
		},
	}
}

func TestBuildMessage(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	raw, err := buildMessage("factures@btp.fr", testMessage(), now)
	require.NoError(t, err)

	parsed, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "factures@btp.fr", parsed.Header.Get("From"))
	assert.Equal(t, "contact@dupont.fr", parsed.Header.Get("To"))
	assert.Equal(t, "chantier@dupont.fr", parsed.Header.Get("Cc"))

	subject, err := new(mime.WordDecoder).DecodeHeader(parsed.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "Facture F-2026-0001", subject)

	mediaType, params, err := mime.ParseMediaType(parsed.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed", mediaType)

	reader := multipart.NewReader(parsed.Body, params["boundary"])

	body, err := reader.NextPart()
	require.NoError(t, err)
	text, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Contains(t, string(text), "Bonjour,")
	assert.Contains(t, string(text), "veuillez trouver ci-joint la facture.")

	attachment, err := reader.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "F-2026-0001.pdf", attachment.FileName())
	assert.True(t, strings.HasPrefix(attachment.Header.Get("Content-Type"), "application/pdf"))
	assert.Equal(t, "base64", attachment.Header.Get("Content-Transfer-Encoding"))

	_, err = reader.NextPart()
	assert.ErrorIs(t, err, io.EOF)
}

func TestBuildMessage_RequiresRecipient(t *testing.T) {
	msg := testMessage()
	msg.To = nil
	_, err := buildMessage("factures@btp.fr", msg, time.Now())
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestWriteBase64_WrapsLines(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeBase64(&buf, bytes.Repeat([]byte("x"), 200)))

	for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\r\n"), "\r\n") {
		assert.LessOrEqual(t, len(line), base64LineLength)
	}
}
