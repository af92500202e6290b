package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/nao1215/origincheck/internal/model"
)

// clearLine returns the cursor to column 0 and erases the line.
const clearLine = "\r\033[K"

// narrator prints job progress. On a terminal each message replaces the
// previous one in place; otherwise every new message gets its own line.
type narrator struct {
	w   io.Writer
	tty bool

	mu   sync.Mutex
	last string
	open bool // a progress line is on screen without a newline
}

func newNarrator(w io.Writer) *narrator {
	return &narrator{w: w, tty: isTerminal(w)}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// observe is a job observer.
func (n *narrator) observe(j model.Job) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if j.Status != model.JobRunning {
		if n.open {
			fmt.Fprint(n.w, clearLine)
			n.open = false
		}
		n.last = ""
		return
	}
	if j.Message == n.last {
		return
	}
	n.last = j.Message

	if n.tty {
		fmt.Fprint(n.w, clearLine+j.Message)
		n.open = true
		return
	}
	fmt.Fprintln(n.w, j.Message)
}
