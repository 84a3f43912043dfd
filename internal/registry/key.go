package registry

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidAddress = errors.New("invalid email address")

// DeriveKey returns the provider key of an address: the text strictly
// between the first '@' and the last '.'.
//
// user@mail.example.com yields "mail.example"; multi-level public suffixes
// such as example.co.uk yield "example.co".
func DeriveKey(address string) (string, error) {
	at := strings.Index(address, "@")
	dot := strings.LastIndex(address, ".")
	if at < 0 || dot <= at {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return address[at+1 : dot], nil
}
