package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/specialistvlad/materialmgr/internal/docgraph"
)

// TerminalPicker prompts for a color on a terminal. An empty answer, "q" or
// end of input cancels; an unparsable answer asks again.
type TerminalPicker struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminalPicker returns a picker reading answers from in and writing
// prompts to out.
func NewTerminalPicker(in io.Reader, out io.Writer) *TerminalPicker {
	return &TerminalPicker{in: bufio.NewReader(in), out: out}
}

// PickColor implements docgraph.ColorPicker.
func (p *TerminalPicker) PickColor(ctx context.Context, label string, initial docgraph.RGBA) (docgraph.RGBA, error) {
	for {
		if err := ctx.Err(); err != nil {
			return docgraph.RGBA{}, err
		}
		_, _ = fmt.Fprintf(p.out, "%s [%s] (empty to cancel): ", label, formatColor(initial))
		line, err := p.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return docgraph.RGBA{}, err
		}
		answer := strings.TrimSpace(line)
		if answer == "" || strings.EqualFold(answer, "q") {
			_, _ = fmt.Fprintln(p.out)
			return docgraph.RGBA{}, docgraph.ErrCancelled
		}
		c, perr := ParseColor(answer)
		if perr == nil {
			return c, nil
		}
		_, _ = fmt.Fprintf(p.out, "%v\n", perr)
		if errors.Is(err, io.EOF) {
			return docgraph.RGBA{}, docgraph.ErrCancelled
		}
	}
}
