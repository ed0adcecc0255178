package worker

import (
	"context"

	"ssh-vanity/internal/protocol"
)

// Serve consumes commands until ctx is cancelled or inbox is closed, then
// stops the worker. Failures are reported as error events.
func (w *Worker) Serve(ctx context.Context, inbox <-chan protocol.Message) {
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-inbox:
			if !ok {
				return
			}
			w.dispatch(ctx, msg)
		}
	}
}

// dispatch handles one command.
func (w *Worker) dispatch(ctx context.Context, msg protocol.Message) {
	switch m := msg.(type) {
	case protocol.Init:
		if err := w.Initialise(m.Config, m.BatchSize); err != nil {
			w.emit(protocol.ErrorEvent(err))
			return
		}
		w.emit(protocol.Initialised{})
	case protocol.Start:
		go func() {
			if err := w.Run(ctx); err != nil {
				w.emit(protocol.ErrorEvent(err))
			}
		}()
	case protocol.Stop:
		w.Stop()
		w.emit(protocol.Stopped{})
	case protocol.Reset:
		w.Reset()
		w.emit(protocol.Stopped{})
	default:
		err := protocol.Unexpected(msg)
		w.logger.Warn("rejected message", "error", err)
		w.emit(protocol.ErrorEvent(err))
	}
}
