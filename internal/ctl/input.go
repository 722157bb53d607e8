package ctl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"golang.org/x/term"
)

var stderr io.Writer = os.Stderr

// readHidden is a test seam for term.ReadPassword.
var readHidden = term.ReadPassword

// isTerminal reports whether r is an interactive terminal.
var isTerminal = func(r io.Reader) (int, bool) {
	f, ok := r.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}

// readLine prints prompt to w and reads one line from r. On a terminal the
// input is not echoed, since it carries a single-use credential.
func readLine(r io.Reader, w io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}

	if fd, ok := isTerminal(r); ok {
		b, err := readHidden(fd)
		fmt.Fprintln(w)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// parseRedirect accepts either a bare request token or the full redirect
// URL the broker sent the browser to. The state is empty for a bare token.
func parseRedirect(input string) (requestToken, state string, err error) {
	if !strings.Contains(input, "request_token=") {
		if input == "" {
			return "", "", errors.New("empty request token")
		}
		return input, "", nil
	}

	raw := input
	if i := strings.Index(input, "?"); i >= 0 {
		raw = input[i+1:]
	}
	q, err := url.ParseQuery(raw)
	if err != nil {
		return "", "", fmt.Errorf("cannot parse redirect: %w", err)
	}
	if s := q.Get("status"); s != "" && s != "success" {
		return "", "", fmt.Errorf("login was not successful (status %q)", s)
	}
	requestToken = q.Get("request_token")
	if requestToken == "" {
		return "", "", errors.New("redirect has no request_token")
	}
	return requestToken, q.Get("state"), nil
}

// mask hides all but the last four characters of a secret.
func mask(s string) string {
	const visible = 4
	if len(s) <= visible {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-visible) + s[len(s)-visible:]
}
