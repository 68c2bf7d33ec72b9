package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/skip2/go-qrcode"
)

// Terminal is the line-based user surface of the client. It notifies,
// confirms and reveals short links on behalf of the mutation coordinators.
type Terminal struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
	qr  bool
}

// NewTerminal creates a Terminal reading answers from in and writing to out.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// ShowQR toggles printing a QR code below every revealed short link.
func (t *Terminal) ShowQR(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.qr = on
}

// Notify prints a message the user has to acknowledge.
func (t *Terminal) Notify(msg string) {
	t.Printf("! %s\n", msg)
}

// Confirm asks a yes/no question. Anything but "y" or "yes" is a no.
func (t *Terminal) Confirm(prompt string) bool {
	answer := strings.ToLower(t.Prompt(prompt + " [y/N]"))
	return answer == "y" || answer == "yes"
}

// Reveal prints the short link of a freshly created link.
func (t *Terminal) Reveal(shortURL string) {
	t.Printf("Short link: %s\n", shortURL)

	t.mu.Lock()
	qr := t.qr
	t.mu.Unlock()

	if !qr {
		return
	}

	code, err := qrcode.New(shortURL, qrcode.Medium)
	if err != nil {
		t.Printf("failed to render QR code: %v\n", err)
		return
	}

	t.Printf("%s", code.ToSmallString(false))
}

// Prompt prints label and reads one line. End of input yields an empty answer.
func (t *Terminal) Prompt(label string) string {
	answer, _ := t.Ask(label)
	return answer
}

// Ask prints label and reads one line. It returns io.EOF once the input is
// exhausted.
func (t *Terminal) Ask(label string) (string, error) {
	t.Printf("%s: ", label)

	t.mu.Lock()
	defer t.mu.Unlock()

	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}

	return strings.TrimSpace(line), nil
}

// Printf writes formatted output to the terminal.
func (t *Terminal) Printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.out, format, args...)
}
