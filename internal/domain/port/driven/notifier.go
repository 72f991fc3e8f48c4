package driven

import "context"

// Notifier defines the driven port for delivering a formatted message
// to the single configured notification channel.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}
