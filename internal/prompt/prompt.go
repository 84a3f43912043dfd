// Package prompt reads validated answers from an interactive terminal.
//
// Every question is re-asked until the answer is acceptable, within the
// bounds of a Policy and the caller's context. End of input terminates the
// loop with io.EOF.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/term"

	"mailctl/internal/config"
	"mailctl/internal/registry"
)

var emailPattern = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+`)

// ValidEmail reports whether s looks like local@domain.tld.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

type Prompter struct {
	in     *bufio.Reader
	out    io.Writer
	policy Policy

	// ReadPassword reads one line without echo. It defaults to the
	// terminal when the input is one, and to a plain line otherwise.
	ReadPassword func() (string, error)
}

func New(in io.Reader, out io.Writer, policy Policy) *Prompter {
	p := &Prompter{
		in:     bufio.NewReader(in),
		out:    out,
		policy: policy,
	}
	p.ReadPassword = p.readLine
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.ReadPassword = func() (string, error) {
			data, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(p.out)
			if err != nil {
				return "", err
			}
			return string(data), nil
		}
	}
	return p
}

func (p *Prompter) Policy() Policy {
	return p.policy
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Line asks once and returns the raw answer.
func (p *Prompter) Line(ctx context.Context, label string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(p.out, label)
	return p.readLine()
}

// Ask repeats label until accept returns true, printing errMsg after each
// rejected answer.
func (p *Prompter) Ask(ctx context.Context, label, errMsg string, accept func(string) bool) (string, error) {
	var answer string
	err := p.policy.Do(ctx, func(int) (bool, error) {
		line, err := p.Line(ctx, label)
		if err != nil {
			return false, err
		}
		if !accept(line) {
			fmt.Fprintln(p.out, errMsg)
			return false, nil
		}
		answer = line
		return true, nil
	})
	return answer, err
}

func (p *Prompter) Email(ctx context.Context, label string) (string, error) {
	return p.Ask(ctx, label, "Error: Email provided is invalid.", ValidEmail)
}

func (p *Prompter) Password(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(p.out, "Password: ")
	return p.ReadPassword()
}

// Credentials asks for a valid email address, then a masked password.
func (p *Prompter) Credentials(ctx context.Context) (config.Credentials, error) {
	address, err := p.Email(ctx, "Email: ")
	if err != nil {
		return config.Credentials{}, err
	}
	password, err := p.Password(ctx)
	if err != nil {
		return config.Credentials{}, err
	}
	return config.Credentials{Email: address, Password: password}, nil
}

func (p *Prompter) NonEmpty(ctx context.Context, label, errMsg string) (string, error) {
	return p.Ask(ctx, label, errMsg, func(s string) bool { return s != "" })
}

// Confirm asks a y/n question and accepts nothing else.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	answer, err := p.Ask(ctx, question, "Error: Invalid answer.", func(s string) bool {
		return s == "y" || s == "n"
	})
	if err != nil {
		return false, err
	}
	return answer == "y", nil
}

func (p *Prompter) PositiveInt(ctx context.Context, label string) (int, error) {
	var n int
	_, err := p.Ask(ctx, label, "Error: Invalid value.", func(s string) bool {
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || v <= 0 {
			return false
		}
		n = v
		return true
	})
	return n, err
}

func (p *Prompter) Kind(ctx context.Context) (registry.Kind, error) {
	var kind registry.Kind
	_, err := p.Ask(ctx, "Type of server (SMTP / IMAP): ", "Error: Type must be SMTP or IMAP.", func(s string) bool {
		k, err := registry.ParseKind(s)
		if err != nil {
			return false
		}
		kind = k
		return true
	})
	return kind, err
}
