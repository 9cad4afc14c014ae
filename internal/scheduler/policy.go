package scheduler

import "log"

// FailurePolicy decides what happens when sending a notification fails.
// Dispatch logic stays the same whichever policy is installed.
type FailurePolicy interface {
	OnSendFailure(jobKey string, err error)
}

// DropPolicy logs the failure and abandons the firing. No retry, no backoff;
// one-shot reminders lose that firing, recurring ones fire again on their
// next occurrence.
type DropPolicy struct {
	Logger *log.Logger
}

// OnSendFailure implements FailurePolicy.
func (p DropPolicy) OnSendFailure(jobKey string, err error) {
	if p.Logger != nil {
		p.Logger.Printf("scheduler: send %s failed, dropping this firing: %v", jobKey, err)
	}
}
