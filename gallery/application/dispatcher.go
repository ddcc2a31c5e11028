package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dfryer1193/savergallery/gallery/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	// ErrNotImplemented is returned for method names the channel does not handle.
	// It is distinct from a failed SaveOutcome.
	ErrNotImplemented = errors.New("not implemented")

	// ErrDispatcherClosed is returned by Submit after Close has been called.
	ErrDispatcherClosed = errors.New("dispatcher closed")
)

// Dispatcher routes channel invocations to the saver. Each submitted invocation
// runs as its own Task; Close waits for all of them.
type Dispatcher struct {
	saver *Saver

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(saver *Saver) *Dispatcher {
	return &Dispatcher{saver: saver}
}

// Supports reports whether method is routed by the dispatcher.
func Supports(method string) bool {
	return method == MethodSaveImage || method == MethodSaveFile
}

// Invoke runs method on the calling goroutine. Argument problems come back as an
// InvalidArgument outcome; only an unknown method yields an error.
func (d *Dispatcher) Invoke(ctx context.Context, method string, values map[string]any) (*domain.SaveOutcome, error) {
	switch method {
	case MethodSaveImage:
		req, err := ParseSaveImageArgs(values)
		if err != nil {
			return domain.Failed(domain.KindInvalidArgument, err.Error()), nil
		}
		return d.saver.SaveImage(ctx, req), nil

	case MethodSaveFile:
		req, err := ParseSaveFileArgs(values)
		if err != nil {
			return domain.Failed(domain.KindInvalidArgument, err.Error()), nil
		}
		return d.saver.SaveFile(ctx, req), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrNotImplemented, method)
	}
}

// Submit starts method in the background and returns its completion handle.
// A running task is never cancelled; it finishes with an outcome either way.
func (d *Dispatcher) Submit(method string, values map[string]any) (*Task, error) {
	if !Supports(method) {
		return nil, fmt.Errorf("%w: %s", ErrNotImplemented, method)
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, ErrDispatcherClosed
	}
	d.wg.Add(1)
	d.mu.Unlock()

	task := &Task{
		ID:     uuid.NewString(),
		Method: method,
		done:   make(chan struct{}),
	}

	go func() {
		defer d.wg.Done()
		defer close(task.done)
		defer func() {
			if r := recover(); r != nil {
				log.Error().Str("task", task.ID).Interface("panic", r).Msg("Save task panicked")
				task.outcome = domain.Failed(domain.KindWriteFailed, fmt.Sprintf("save aborted: %v", r))
			}
		}()

		ctx := log.With().Str("task", task.ID).Str("method", method).Logger().WithContext(context.Background())
		outcome, err := d.Invoke(ctx, method, values)
		if err != nil {
			outcome = domain.Failed(domain.KindInvalidArgument, err.Error())
		}
		task.outcome = outcome
	}()

	return task, nil
}

// Close stops accepting new tasks and waits for the running ones to finish.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.wg.Wait()
	return nil
}

// Task is the completion handle of one submitted invocation.
type Task struct {
	ID     string
	Method string

	done    chan struct{}
	outcome *domain.SaveOutcome
}

// Done is closed once the outcome is available.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes or ctx ends. Giving up on the wait does not
// stop the task.
func (t *Task) Wait(ctx context.Context) (*domain.SaveOutcome, error) {
	select {
	case <-t.done:
		return t.outcome, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
