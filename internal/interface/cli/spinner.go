package cli

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// spinner shows a simple spinning animation while a run is in flight. The
// message can be swapped mid-spin as the run's status changes. Cosmetic
// only; nothing reads its state.
type spinner struct {
	writer io.Writer

	mu      sync.Mutex
	message string
	stop    chan struct{}
	done    chan struct{}
}

func newSpinner(message string) *spinner {
	return &spinner{
		writer:  os.Stderr,
		message: message,
	}
}

// Start begins the spinner animation in a goroutine.
func (s *spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go func(stop, done chan struct{}) {
		defer close(done)
		frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
		i := 0

		for {
			select {
			case <-stop:
				// Clear the line
				fmt.Fprintf(s.writer, "\r\033[K")
				return
			default:
				s.mu.Lock()
				msg := s.message
				s.mu.Unlock()
				fmt.Fprintf(s.writer, "\r\033[K%s %s", frames[i], msg)
				i = (i + 1) % len(frames)
				time.Sleep(80 * time.Millisecond)
			}
		}
	}(s.stop, s.done)
}

// Update swaps the message shown next to the spinner.
func (s *spinner) Update(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Stop stops the spinner and clears the line. Safe to call when not running.
func (s *spinner) Stop() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}
