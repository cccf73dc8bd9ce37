package services

import "context"

// persistentContext detaches follow-up work from the caller's cancellation.
// Point credits and fan-out after a scoring claim must not be cut short by a
// client disconnect.
func persistentContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return context.WithoutCancel(ctx)
}
