package pipeline

import "context"

// Handle is an awaitable view on a submitted ingestion run. It exposes
// explicit completion rather than fire-and-forget; the context plumbed
// through Run is the hook point for future cancellation or timeout
// support, neither of which exists today.
type Handle struct {
	task *Task
}

// Task returns the tracked task.
func (h *Handle) Task() *Task {
	return h.task
}

// Done is closed once the run reaches ready or failed.
func (h *Handle) Done() <-chan struct{} {
	return h.task.Done()
}

// Wait blocks until the run terminates or ctx is cancelled, and
// returns the final task snapshot.
func (h *Handle) Wait(ctx context.Context) (Snapshot, error) {
	select {
	case <-ctx.Done():
		return h.task.Snapshot(), ctx.Err()
	case <-h.task.Done():
		return h.task.Snapshot(), nil
	}
}
