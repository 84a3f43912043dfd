package email

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
)

// go-message's global CharsetReader stays unset so that text attachments
// keep their bytes; text bodies and headers are converted here instead.
var wordDecoder = &mime.WordDecoder{CharsetReader: charsetReader}

// charsetReader converts input from the named charset to UTF-8.
func charsetReader(name string, input io.Reader) (io.Reader, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "", "utf-8", "utf8", "us-ascii":
		return input, nil
	}

	enc, err := ianaindex.MIME.Encoding(name)
	if enc == nil {
		enc, err = htmlindex.Get(name)
	}
	if enc == nil {
		if err == nil {
			err = errors.New("unsupported charset")
		}
		return nil, fmt.Errorf("charset %q: %w", name, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

func decodeWords(s string) string {
	decoded, err := wordDecoder.DecodeHeader(s)
	if err != nil {
		return s
	}
	return decoded
}
