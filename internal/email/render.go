package email

import (
	"fmt"
	"io"
	"strings"
)

// Separator is printed after every rendered message.
var Separator = strings.Repeat("=", 100)

// WriteHeaders prints the From and Subject lines of a message.
func WriteHeaders(w io.Writer, v *MessageView) {
	fmt.Fprintf(w, "From : %s\n\n", v.From)
	fmt.Fprintf(w, "Subject : %s\n\n", v.Subject)
}

// WriteBody prints the plain-text body, if the message has one.
func WriteBody(w io.Writer, v *MessageView) {
	if !v.HasText {
		return
	}
	fmt.Fprintln(w, v.Text)
}
