package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nao1215/origincheck/internal/model"
)

func TestNarrator(t *testing.T) {
	t.Parallel()

	t.Run("prints each new message once on a pipe", func(t *testing.T) {
		t.Parallel()

		var buf lockedBuffer
		n := newNarrator(&buf)
		if n.tty {
			t.Fatal("a buffer is not a terminal")
		}

		for _, msg := range []string{"Initializing analysis...", "Extracting text...", "Extracting text...", "Searching the web..."} {
			n.observe(model.Job{Status: model.JobRunning, Message: msg})
		}
		n.observe(model.Job{Status: model.JobSucceeded, Message: "Analysis complete."})

		want := "Initializing analysis...\nExtracting text...\nSearching the web...\n"
		if diff := cmp.Diff(want, buf.String()); diff != "" {
			t.Errorf("narration mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("rewrites one line on a terminal", func(t *testing.T) {
		t.Parallel()

		var buf lockedBuffer
		n := &narrator{w: &buf, tty: true}

		n.observe(model.Job{Status: model.JobRunning, Message: "one"})
		n.observe(model.Job{Status: model.JobRunning, Message: "two"})
		n.observe(model.Job{Status: model.JobCancelled, Message: "Analysis cancelled."})
		n.observe(model.Job{Status: model.JobCancelled, Message: "Analysis cancelled."})

		want := clearLine + "one" + clearLine + "two" + clearLine
		if diff := cmp.Diff(want, buf.String()); diff != "" {
			t.Errorf("narration mismatch (-want +got):\n%s", diff)
		}
	})
}
