package email

import (
	"bytes"
	"strings"
	"testing"
)

func TestClean(t *testing.T) {
	tests := map[string]string{
		"Re: Hello, World!": "Re__Hello__World_",
		"plain":             "plain",
		"a  b":              "a_b",
		"!!!":               "_",
		"Ünïcode 2024":      "_n_code_2024",
	}
	for in, want := range tests {
		if got := Clean(in); got != want {
			t.Errorf("Clean(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestComposePlain(t *testing.T) {
	got := ComposePlain("Status", "line one\nline two")
	want := "Subject: Status\r\n\r\nline one\r\nline two"
	if string(got) != want {
		t.Fatalf("unexpected message:\n%q\nwant\n%q", got, want)
	}
	if bytes.Contains(got, []byte("To:")) || bytes.Contains(got, []byte("From:")) {
		t.Fatalf("only the Subject header is expected: %q", got)
	}
}

func TestComposePlainEncodesSubject(t *testing.T) {
	got := string(ComposePlain("café", "x"))
	if !strings.HasPrefix(got, "Subject: =?utf-8?q?caf=C3=A9?=\r\n") {
		t.Fatalf("expected encoded subject, got %q", got)
	}
}

func TestComposePlainKeepsEmptySubject(t *testing.T) {
	got := string(ComposePlain("", "body"))
	if got != "Subject: \r\n\r\nbody" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestHTMLText(t *testing.T) {
	html := `<html><head><style>p{}</style></head><body><h1>Title</h1><p>First   line</p><script>x()</script><p>Second</p></body></html>`
	got, err := HTMLText(html)
	if err != nil {
		t.Fatalf("html text: %v", err)
	}
	want := "Title\nFirst line\nSecond"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	empty, err := HTMLText("   ")
	if err != nil || empty != "" {
		t.Fatalf("expected empty result, got %q, %v", empty, err)
	}
}
