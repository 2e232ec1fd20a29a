package azcli

import (
	"fmt"
	"strings"
)

type FailureReason string

const (
	ReasonExitStatus   FailureReason = "ExitStatus"
	ReasonParseFailure FailureReason = "ParseFailure"
	ReasonTimeout      FailureReason = "Timeout"
	ReasonCancelled    FailureReason = "Cancelled"
	ReasonStartFailure FailureReason = "StartFailure"
)

// ExecutionError is scoped to a single CLI invocation.
type ExecutionError struct {
	Args     []string
	Reason   FailureReason
	ExitCode int
	Stderr   string
	Err      error
}

func (executionError *ExecutionError) Error() string {
	command := strings.Join(executionError.Args, " ")
	switch executionError.Reason {
	case ReasonExitStatus:
		return fmt.Sprintf("az %s exited with code %d: %s", command, executionError.ExitCode, strings.TrimSpace(executionError.Stderr))
	case ReasonParseFailure:
		return fmt.Sprintf("az %s returned output that is not valid JSON: %v", command, executionError.Err)
	case ReasonTimeout:
		return fmt.Sprintf("az %s timed out: %v", command, executionError.Err)
	case ReasonCancelled:
		return fmt.Sprintf("az %s was cancelled: %v", command, executionError.Err)
	default:
		return fmt.Sprintf("az %s could not be started: %v", command, executionError.Err)
	}
}

func (executionError *ExecutionError) Unwrap() error {
	return executionError.Err
}
