package playback

import (
	"bufio"
	"context"
	"io"
	"log"
	"os/exec"
	"sync"
	"sync/atomic"
)

// procRendition is a rendition backed by a child process.
type procRendition struct {
	cmd     *exec.Cmd
	cancel  context.CancelFunc
	stopped atomic.Bool

	once sync.Once
	err  error
	done chan struct{}
}

// startProcess starts cmdFn with a cancellable context and returns its rendition.
func startProcess(ctx context.Context, label string, stdin io.Reader, cmdFn func(ctx context.Context) *exec.Cmd) (*procRendition, error) {
	procCtx, cancel := context.WithCancel(ctx)
	cmd := cmdFn(procCtx)
	if stdin != nil {
		cmd.Stdin = stdin
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, err
	}

	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			log.Printf("Playback %s stderr: %s", label, scanner.Text())
		}
	}()

	r := &procRendition{cmd: cmd, cancel: cancel, done: make(chan struct{})}
	go r.reap()
	return r, nil
}

func (r *procRendition) reap() {
	err := r.cmd.Wait()
	r.cancel()
	if r.stopped.Load() {
		err = ErrInterrupted
	}
	r.err = err
	close(r.done)
}

func (r *procRendition) Wait() error {
	<-r.done
	return r.err
}

func (r *procRendition) SetRate(rate float64) error {
	return ErrRateUnsupported
}

func (r *procRendition) Stop() {
	r.once.Do(func() {
		r.stopped.Store(true)
		r.cancel()
	})
	<-r.done
}
