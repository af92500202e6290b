package job

import (
	"sync"
	"time"

	"github.com/nao1215/origincheck/internal/model"
)

// FinalPhrase is held once every narration phrase has been shown.
const FinalPhrase = "Finalizing report..."

// DefaultPhrases returns the narration shown while an analysis runs.
// The messages are cosmetic and do not reflect server progress.
func DefaultPhrases() []string {
	return []string{
		"Analyzing document structure...",
		"Generating search queries...",
		"Searching the web for similar content...",
		"Fetching external sources...",
		"Comparing content for overlaps...",
		"Detecting AI-generated patterns...",
		"Compiling detailed report...",
	}
}

// narrate advances the message of job id on every tick until the returned
// stop func is called. stop blocks until the goroutine has exited and is
// safe to call more than once.
func (c *Controller) narrate(id string) func() {
	done := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		next := 0
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
			}

			msg := FinalPhrase
			if next < len(c.phrases) {
				msg = c.phrases[next]
				next++
			}
			c.update(id, func(j *model.Job) {
				if j.Status == model.JobRunning {
					j.Message = msg
				}
			})
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
		})
	}
}
