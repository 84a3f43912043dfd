// Package email turns fetched RFC 5322 messages into printable views and
// writes their attachments and HTML bodies to disk.
package email

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
)

const DefaultSubject = "NO_SUBJECT"

var ErrInvalidUTF8 = errors.New("body is not valid UTF-8")

type Attachment struct {
	Filename string
	Data     []byte
}

// MessageView is one fetched message, reduced to what the reader shows.
type MessageView struct {
	From        string
	Subject     string
	ContentType string
	Text        string
	HasText     bool
	HTML        string
	HasHTML     bool
	Attachments []Attachment

	// DecodeErrors holds the failures of bodies that were left out.
	DecodeErrors []error
}

// Folder is the directory name shared by the message's attachments and
// its HTML preview.
func (v *MessageView) Folder() string {
	return Clean(v.Subject)
}

// Parse reads a raw message. For multipart messages the first inline
// text/plain part becomes the text body and every part with an attachment
// disposition and a filename is collected. The HTML body is the message
// itself when it is text/html, or else the first inline text/html part of a
// multipart message that has no text/plain part.
func Parse(raw []byte) (*MessageView, error) {
	entity, err := message.Read(bytes.NewReader(raw))
	if err != nil && !isSoftDecodeError(err) {
		return nil, fmt.Errorf("parse message: %w", err)
	}

	view := &MessageView{
		From:        decodeWords(entity.Header.Get("From")),
		Subject:     decodeWords(entity.Header.Get("Subject")),
		ContentType: mediaType(entity.Header),
	}
	if view.Subject == "" {
		view.Subject = DefaultSubject
	}

	if !strings.HasPrefix(view.ContentType, "multipart/") {
		body, bodyErr := readText(entity, err)
		if bodyErr != nil {
			view.DecodeErrors = append(view.DecodeErrors, bodyErr)
			return view, nil
		}
		switch view.ContentType {
		case "text/plain":
			view.Text, view.HasText = body, true
		case "text/html":
			view.HTML, view.HasHTML = body, true
		}
		return view, nil
	}

	var htmlPart string
	var hasHTMLPart bool
	walkErr := entity.Walk(func(path []int, part *message.Entity, partErr error) error {
		if part == nil {
			if partErr != nil {
				view.DecodeErrors = append(view.DecodeErrors, partErr)
			}
			return nil
		}
		partType := mediaType(part.Header)
		if strings.HasPrefix(partType, "multipart/") {
			return nil
		}

		disposition, _, _ := part.Header.ContentDisposition()
		isAttachment := strings.EqualFold(disposition, "attachment")

		switch {
		case isAttachment:
			filename, _ := (&mail.AttachmentHeader{Header: part.Header}).Filename()
			filename = decodeWords(filename)
			if filename == "" {
				return nil
			}
			if partErr != nil && !message.IsUnknownCharset(partErr) {
				view.DecodeErrors = append(view.DecodeErrors, fmt.Errorf("attachment %s: %w", filename, partErr))
				return nil
			}
			// Only the transfer encoding is undone; a declared charset is
			// left for whoever opens the file.
			data, err := io.ReadAll(part.Body)
			if err != nil {
				view.DecodeErrors = append(view.DecodeErrors, fmt.Errorf("attachment %s: %w", filename, err))
				return nil
			}
			view.Attachments = append(view.Attachments, Attachment{Filename: filename, Data: data})
		case partType == "text/plain" && !view.HasText:
			body, err := readText(part, partErr)
			if err != nil {
				view.DecodeErrors = append(view.DecodeErrors, err)
				return nil
			}
			view.Text, view.HasText = body, true
		case partType == "text/html" && !hasHTMLPart:
			body, err := readText(part, partErr)
			if err != nil {
				view.DecodeErrors = append(view.DecodeErrors, err)
				return nil
			}
			htmlPart, hasHTMLPart = body, true
		}
		return nil
	})
	if walkErr != nil {
		view.DecodeErrors = append(view.DecodeErrors, walkErr)
	}

	if !view.HasText && hasHTMLPart {
		view.HTML, view.HasHTML = htmlPart, true
	}
	return view, nil
}

// readText reads a text body and converts its declared charset to UTF-8.
// A charset or transfer-encoding that cannot be decoded, or a result that is
// not UTF-8, is a decode error.
func readText(entity *message.Entity, entityErr error) (string, error) {
	body := entity.Body
	if entityErr != nil {
		if !message.IsUnknownCharset(entityErr) {
			return "", entityErr
		}
		_, params, _ := entity.Header.ContentType()
		converted, err := charsetReader(params["charset"], body)
		if err != nil {
			return "", err
		}
		body = converted
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if !utf8.Valid(data) {
		return "", ErrInvalidUTF8
	}
	return string(data), nil
}

func isSoftDecodeError(err error) bool {
	return message.IsUnknownCharset(err) || message.IsUnknownEncoding(err)
}

func mediaType(h message.Header) string {
	t, _, err := h.ContentType()
	if err != nil || t == "" {
		return "text/plain"
	}
	return strings.ToLower(t)
}
