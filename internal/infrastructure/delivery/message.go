// Package delivery sends rendered documents to their recipients.
package delivery

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"strings"
	"time"

	appdoc "github.com/bizdocs/backend/internal/application/document"
	"github.com/bizdocs/backend/internal/domain/shared"
)

const base64LineLength = 76

// buildMessage encodes msg as a multipart/mixed MIME message
func buildMessage(from string, msg appdoc.Message, now time.Time) ([]byte, error) {
	if len(msg.To) == 0 {
		return nil, shared.NewValidationError("message has no recipient")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("From", from)
	header.Set("To", strings.Join(msg.To, ", "))
	if len(msg.Cc) > 0 {
		header.Set("Cc", strings.Join(msg.Cc, ", "))
	}
	header.Set("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header.Set("Date", now.Format(time.RFC1123Z))
	header.Set("MIME-Version", "1.0")
	header.Set("Content-Type", "multipart/mixed; boundary="+mw.Boundary())

	var out bytes.Buffer
	for _, key := range []string{"From", "To", "Cc", "Subject", "Date", "MIME-Version", "Content-Type"} {
		if v := header.Get(key); v != "" {
			fmt.Fprintf(&out, "%s: %s\r\n", key, v)
		}
	}
	out.WriteString("\r\n")

	body, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=utf-8"},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return nil, err
	}
	qp := quotedprintable.NewWriter(body)
	if _, err := qp.Write([]byte(msg.Body)); err != nil {
		return nil, err
	}
	if err := qp.Close(); err != nil {
		return nil, err
	}

	for _, a := range msg.Attachments {
		contentType := a.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {mime.FormatMediaType(contentType, map[string]string{"name": a.Filename})},
			"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename})},
			"Content-Transfer-Encoding": {"base64"},
		})
		if err != nil {
			return nil, err
		}
		if err := writeBase64(part, a.Content); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	out.Write(buf.Bytes())
	return out.Bytes(), nil
}

func writeBase64(w io.Writer, content []byte) error {
	encoded := base64.StdEncoding.EncodeToString(content)
	for len(encoded) > 0 {
		n := min(base64LineLength, len(encoded))
		if _, err := w.Write([]byte(encoded[:n] + "\r\n")); err != nil {
			return err
		}
		encoded = encoded[n:]
	}
	return nil
}

func recipients(msg appdoc.Message) []string {
	all := make([]string, 0, len(msg.To)+len(msg.Cc))
	all = append(all, msg.To...)
	return append(all, msg.Cc...)
}
