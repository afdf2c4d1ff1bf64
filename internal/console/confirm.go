// Package console implements the interactive confirmation gate.
package console

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/jhornung97/ETPApprover/internal/ports"
)

// Confirmer previews each outgoing message on a terminal and reads the
// operator's verdict.
type Confirmer struct {
	in  *bufio.Reader
	out io.Writer
}

var _ ports.Confirmer = (*Confirmer)(nil)

func NewConfirmer(in io.Reader, out io.Writer) *Confirmer {
	return &Confirmer{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Confirm shows the message and asks whether to send it. An explicit "skip"
// defers the submission; anything other than yes declines it.
func (c *Confirmer) Confirm(title string, recipients []string, message string) (ports.Decision, error) {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, strings.Repeat("-", 60))
	fmt.Fprintf(c.out, "Submission: %s\n", title)
	fmt.Fprintf(c.out, "Recipients: %s\n", strings.Join(recipients, ", "))
	fmt.Fprintln(c.out, strings.Repeat("-", 60))
	fmt.Fprintln(c.out, message)
	fmt.Fprintln(c.out, strings.Repeat("-", 60))
	fmt.Fprint(c.out, "Send this message? (y/n/skip): ")

	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return ports.DecisionDecline, fmt.Errorf("read answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return ports.DecisionSend, nil
	case "skip":
		return ports.DecisionSkip, nil
	default:
		return ports.DecisionDecline, nil
	}
}
