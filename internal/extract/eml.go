package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"
)

// EML extracts the body of an RFC 822 message. Multipart messages contribute
// every text/plain part that is not an attachment, in order; HTML parts are
// used only when no plain text part exists.
func EML(_ context.Context, content []byte) (string, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("parse message: %w", err)
	}

	var plain, html []string
	if err := walkPart(textproto.MIMEHeader(msg.Header), msg.Body, &plain, &html); err != nil {
		return "", err
	}

	if len(plain) > 0 {
		return strings.Join(plain, ""), nil
	}
	return strings.Join(html, "\n\n"), nil
}

func walkPart(header textproto.MIMEHeader, body io.Reader, plain, html *[]string) error {
	contentType := header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return fmt.Errorf("multipart message without boundary")
		}
		mr := multipart.NewReader(body, boundary)
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read multipart: %w", err)
			}
			err = walkPart(part.Header, part, plain, html)
			part.Close()
			if err != nil {
				return err
			}
		}
	}

	if isAttachment(header.Get("Content-Disposition")) {
		return nil
	}

	switch mediaType {
	case "text/plain", "text/html":
	default:
		return nil
	}

	raw, err := io.ReadAll(decodeTransfer(header.Get("Content-Transfer-Encoding"), body))
	if err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	text := strings.ToValidUTF8(string(raw), "")

	if mediaType == "text/html" {
		*html = append(*html, htmlText(text))
		return nil
	}
	*plain = append(*plain, text)
	return nil
}

func isAttachment(disposition string) bool {
	if disposition == "" {
		return false
	}
	d, _, err := mime.ParseMediaType(disposition)
	if err != nil {
		return strings.Contains(strings.ToLower(disposition), "attachment")
	}
	return d == "attachment"
}

// multipart.Reader already strips quoted-printable, so only top-level
// bodies reach the quoted-printable branch.
func decodeTransfer(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	}
	return r
}
