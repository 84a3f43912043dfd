package email

import (
	"bytes"
	"mime"
	"strings"
)

// ComposePlain builds the DATA payload for an outgoing message: a Subject
// header, a blank line and the body, with CRLF line endings.
func ComposePlain(subject, body string) []byte {
	var buf bytes.Buffer
	buf.WriteString("Subject: ")
	buf.WriteString(mime.QEncoding.Encode("utf-8", subject))
	buf.WriteString("\r\n\r\n")

	body = strings.ReplaceAll(body, "\r\n", "\n")
	buf.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return buf.Bytes()
}
