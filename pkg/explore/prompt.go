package explore

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/japaniel/lexigraph/pkg/telemetry"
)

// Prompter asks an operator for the next word to explore. It blocks until a
// word is available. io.EOF means the operator has no more words.
type Prompter interface {
	RequestWord(ctx context.Context) (string, error)
}

// LinePrompter reads one word per line from an input stream. A line is read
// only when a word is requested; a line that arrives after its request was
// cancelled is kept for the next request. Close stops the reader goroutine.
// LinePrompter is not safe for concurrent RequestWord calls.
type LinePrompter struct {
	out io.Writer
	// OnPrompt runs before the prompt is written, e.g. to end a progress line.
	OnPrompt func()

	r       *bufio.Reader
	start   sync.Once
	stop    sync.Once
	want    chan struct{}
	lines   chan line
	done    chan struct{}
	reading bool
	err     error
	tty     bool
}

type line struct {
	text string
	err  error
}

// NewLinePrompter reads words from in and writes prompts to out.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{
		out:   out,
		r:     bufio.NewReader(in),
		want:  make(chan struct{}, 1),
		lines: make(chan line, 1),
		done:  make(chan struct{}),
		tty:   telemetry.IsTerminal(out),
	}
}

// read serves one line per request until the input ends or Close is called.
// A read already blocked on the input returns once the input yields.
func (p *LinePrompter) read() {
	var pending error
	for {
		select {
		case <-p.done:
			return
		case <-p.want:
		}
		if pending != nil {
			p.lines <- line{err: pending}
			return
		}
		text, err := p.r.ReadString('\n')
		if err != nil && text != "" {
			// Hand out the last unterminated line first.
			pending, err = err, nil
		}
		p.lines <- line{text: text, err: err}
		if err != nil {
			return
		}
	}
}

// RequestWord implements Prompter.
func (p *LinePrompter) RequestWord(ctx context.Context) (string, error) {
	p.start.Do(func() { go p.read() })

	if p.OnPrompt != nil {
		p.OnPrompt()
	}
	fmt.Fprintln(p.out, "No word to explore. Please provide one.")
	if p.tty {
		fmt.Fprint(p.out, "> ")
	}
	if p.err != nil {
		return "", p.err
	}

	if !p.reading {
		p.want <- struct{}{}
		p.reading = true
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-p.done:
		return "", io.EOF
	case l := <-p.lines:
		p.reading = false
		if l.err != nil {
			p.err = l.err
			return "", l.err
		}
		return l.text, nil
	}
}

// Close stops the reader goroutine. Later requests return io.EOF.
func (p *LinePrompter) Close() error {
	p.stop.Do(func() { close(p.done) })
	return nil
}

// Words is a Prompter that hands out a fixed list of words and then io.EOF.
type Words []string

// RequestWord implements Prompter.
func (w *Words) RequestWord(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(*w) == 0 {
		return "", io.EOF
	}
	next := (*w)[0]
	*w = (*w)[1:]
	return next, nil
}
