package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/haatos/gitbridge/internal/settings"
	"github.com/rs/zerolog"
)

const (
	RunStateQueued  = "queued"
	RunStateRunning = "running"
)

// CLIRunner triggers DAG runs through the orchestrator's command-line tool.
type CLIRunner struct {
	// Executable followed by any fixed leading arguments
	Command []string
	DagID   string
	Env     []string
	logger  zerolog.Logger
}

func NewCLIRunner(orchestrator settings.OrchestratorSettings, dagID string, logger zerolog.Logger) *CLIRunner {
	return &CLIRunner{
		Command: strings.Fields(orchestrator.CLI),
		DagID:   dagID,
		Env: []string{
			"AIRFLOW_API_URL=" + orchestrator.BaseURL,
			"AIRFLOW_USERNAME=" + orchestrator.Username,
			"AIRFLOW_PASSWORD=" + orchestrator.Password,
		},
		logger: logger.With().Str("component", "cli_runner").Logger(),
	}
}

func (r *CLIRunner) args(cfg RunConfig, conf []byte) []string {
	args := append([]string{}, r.Command[1:]...)
	return append(
		args,
		"dags", "trigger", r.DagID,
		"--run-id", cfg.GUID,
		"--conf", string(conf),
	)
}

func (r *CLIRunner) Invoke(ctx context.Context, cfg RunConfig, timeout time.Duration) (*RunOutcome, error) {
	if len(r.Command) == 0 {
		return nil, &RunError{Message: "orchestrator CLI is not configured"}
	}
	conf, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("err marshaling run config: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.Command[0], r.args(cfg, conf)...)
	cmd.Env = append(os.Environ(), r.Env...)
	// children holding the output pipes must not outlive the timeout
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug().Str("guid", cfg.GUID).Str("dag_id", r.DagID).Msg("invoking orchestrator CLI")
	runErr := cmd.Run()
	output := strings.TrimSpace(stderr.String() + "\n" + stdout.String())

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, &RunError{
			Message: fmt.Sprintf("orchestrator CLI timed out after %s", timeout),
			Output:  output,
			Err:     ctx.Err(),
		}
	}
	if runErr != nil {
		return nil, &RunError{
			Message: "orchestrator CLI failed",
			Output:  output,
			Err:     runErr,
		}
	}

	state, ok := runState(stdout.String(), cfg.GUID)
	if !ok {
		return nil, &RunError{
			Message: "orchestrator did not confirm the run",
			Output:  output,
		}
	}
	return &RunOutcome{DagRunID: cfg.GUID, State: state, Output: stdout.String()}, nil
}

// runState reports the run state found in the CLI output and whether the
// output confirms the run was created.
func runState(stdout, guid string) (string, bool) {
	switch {
	case strings.Contains(stdout, RunStateRunning):
		return RunStateRunning, true
	case strings.Contains(stdout, RunStateQueued):
		return RunStateQueued, true
	case strings.Contains(stdout, "manual__"), guid != "" && strings.Contains(stdout, guid):
		return RunStateQueued, true
	default:
		return "", false
	}
}
