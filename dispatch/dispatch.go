package dispatch

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
)

type IReportDispatcher interface {
	Dispatch(ctx context.Context, content string, subject string, recipient string) error
}

// DispatchError reports a delivery failure. The report content is not part of
// the error; callers keep it and fall back to printing it.
type DispatchError struct {
	Recipient  string
	StatusCode int
	Message    string
	Err        error
}

func (dispatchError *DispatchError) Error() string {
	if dispatchError.StatusCode != 0 {
		return fmt.Sprintf("sending report to %s failed with status %d: %s", dispatchError.Recipient, dispatchError.StatusCode, strings.TrimSpace(dispatchError.Message))
	}
	return fmt.Sprintf("sending report to %s failed: %s", dispatchError.Recipient, dispatchError.Message)
}

func (dispatchError *DispatchError) Unwrap() error {
	return dispatchError.Err
}

func ValidateAddress(address string) error {
	if _, err := mail.ParseAddress(address); err != nil {
		return fmt.Errorf("invalid email address %q: %w", address, err)
	}
	return nil
}
