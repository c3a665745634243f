package ingest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tphakala/tonebank/internal/errors"
)

// linePrompter asks for note names on a terminal, one file at a time
type linePrompter struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

func newLinePrompter(in io.Reader, out io.Writer) *linePrompter {
	return &linePrompter{in: bufio.NewReader(in), out: out}
}

// PromptNote reads one line. End of input counts as an empty answer.
func (p *linePrompter) PromptNote(ctx context.Context, path string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	fmt.Fprintf(p.out, "Could not determine the pitch of %s\nNote (e.g. C#4, empty to skip): ", filepath.Base(path))
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
