package azcli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/azure/exposure-reporter/types"
)

type ICliClient interface {
	Execute(ctx context.Context, args []string) (*Result, error)
	SetSubscription(ctx context.Context, subscription types.SubscriptionContext) error
}

const (
	DefaultCommandTimeout = 2 * time.Minute
	waitDelay             = 5 * time.Second
)

type Result struct {
	Output   json.RawMessage
	ExitCode int
	Stderr   string
	Duration time.Duration
}

type CliClient struct {
	AzPath         string
	CommandTimeout time.Duration
	Logger         *logrus.Logger
}

func NewCliClient(azPath string, commandTimeout time.Duration, logger *logrus.Logger) *CliClient {
	if azPath == "" {
		azPath = "az"
	}
	return &CliClient{
		AzPath:         azPath,
		CommandTimeout: commandTimeout,
		Logger:         logger,
	}
}

// CheckAvailable resolves the CLI executable on PATH.
func (cliClient *CliClient) CheckAvailable() (string, error) {
	path, err := exec.LookPath(cliClient.AzPath)
	if err != nil {
		return "", fmt.Errorf("azure cli %q not found: %w", cliClient.AzPath, err)
	}
	return path, nil
}

func (cliClient *CliClient) Execute(ctx context.Context, args []string) (*Result, error) {
	if cliClient.CommandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cliClient.CommandTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, cliClient.AzPath, args...)
	// az runs under a python launcher whose children can hold the pipes open after a kill.
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	cliClient.Logger.Debugf("Running az cli: %s", cmd.String())
	start := time.Now()
	err := cmd.Run()
	result := &Result{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	cliClient.Logger.Tracef("az cli finished in %s with exit code %d", result.Duration, result.ExitCode)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			reason := ReasonCancelled
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				reason = ReasonTimeout
			}
			return result, &ExecutionError{Args: args, Reason: reason, ExitCode: result.ExitCode, Stderr: result.Stderr, Err: ctxErr}
		}
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return result, &ExecutionError{Args: args, Reason: ReasonExitStatus, ExitCode: exitError.ExitCode(), Stderr: result.Stderr, Err: err}
		}
		return result, &ExecutionError{Args: args, Reason: ReasonStartFailure, ExitCode: -1, Stderr: result.Stderr, Err: err}
	}

	output := bytes.TrimSpace(stdout.Bytes())
	if len(output) == 0 {
		output = []byte("null")
	}
	if !json.Valid(output) {
		return result, &ExecutionError{Args: args, Reason: ReasonParseFailure, ExitCode: result.ExitCode, Stderr: result.Stderr, Err: fmt.Errorf("invalid JSON in %d bytes of output", len(output))}
	}
	result.Output = json.RawMessage(output)

	return result, nil
}

func (cliClient *CliClient) SetSubscription(ctx context.Context, subscription types.SubscriptionContext) error {
	cliClient.Logger.Infof("Selecting subscription %s", subscription.SubscriptionID)
	_, err := cliClient.Execute(ctx, []string{"account", "set", "--subscription", subscription.SubscriptionID})
	return err
}
