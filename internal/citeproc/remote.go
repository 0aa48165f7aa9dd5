package citeproc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/dshills/citemark/internal/logging"
)

// Remote forwards envelopes to a provider process over its stdio.
type Remote struct {
	cmd       *exec.Cmd
	transport *Transport
	logger    *logging.Logger

	exited    chan struct{}
	exitErr   error
	closeOnce sync.Once
}

// StartRemote launches argv[0] with the remaining arguments and connects to
// its stdin and stdout. The process's stderr is passed through.
func StartRemote(ctx context.Context, argv []string, logger *logging.Logger) (*Remote, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("start provider: empty command")
	}
	if logger == nil {
		logger = logging.Nop()
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start provider %s: %w", argv[0], err)
	}

	r := &Remote{
		cmd:       cmd,
		transport: NewTransport(stdout, stdin, stdin),
		logger:    logger.WithComponent("citeproc-remote").WithField("pid", cmd.Process.Pid),
		exited:    make(chan struct{}),
	}
	r.transport.Start(ctx)
	go r.monitor()
	r.logger.Info("started provider %s", argv[0])
	return r, nil
}

// Connect wraps an existing pipe pair, for providers not started by us.
func Connect(ctx context.Context, r io.Reader, w io.WriteCloser, logger *logging.Logger) *Remote {
	if logger == nil {
		logger = logging.Nop()
	}
	rem := &Remote{
		transport: NewTransport(r, w, w),
		logger:    logger.WithComponent("citeproc-remote"),
		exited:    make(chan struct{}),
	}
	rem.transport.Start(ctx)
	return rem
}

func (r *Remote) monitor() {
	err := r.cmd.Wait()
	r.exitErr = err
	close(r.exited)
	if !r.transport.IsClosed() {
		r.logger.Warn("provider exited: %v", err)
	}
	_ = r.transport.Close()
}

// Invoke implements Invoker.
func (r *Remote) Invoke(ctx context.Context, env Envelope) (json.RawMessage, error) {
	params, err := env.Marshal()
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	result, err := r.transport.Call(ctx, Channel, params)
	if errors.Is(err, ErrShutdown) && r.cmd != nil {
		select {
		case <-r.exited:
			return nil, fmt.Errorf("%w: %v", ErrProviderCrashed, r.exitErr)
		default:
		}
	}
	return result, err
}

// Close shuts the connection and waits for the process to exit.
func (r *Remote) Close() error {
	var err error
	r.closeOnce.Do(func() {
		err = r.transport.Close()
		if r.cmd != nil {
			<-r.exited
		}
	})
	return err
}
