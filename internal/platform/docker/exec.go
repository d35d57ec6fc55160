package docker

import (
	"bytes"
	"context"
	"fmt"

	dockerclient "github.com/fsouza/go-dockerclient"
)

// ExecResult is the combined output and exit code of a command run in a container.
type ExecResult struct {
	Output   string
	ExitCode int
}

// Exec runs cmd inside the container as user and waits for it to finish.
// A non-zero exit code is reported in the result, not as an error.
func (c *Client) Exec(ctx context.Context, containerID, user string, cmd []string) (ExecResult, error) {
	if err := ctx.Err(); err != nil {
		return ExecResult{}, err
	}

	exec, err := c.api.CreateExec(dockerclient.CreateExecOptions{
		Container:    containerID,
		Cmd:          cmd,
		User:         user,
		AttachStdout: true,
		AttachStderr: true,
		Context:      ctx,
	})
	if err != nil {
		return ExecResult{}, fmt.Errorf("failed to create exec in %s: %w", containerID, err)
	}

	var out bytes.Buffer
	if err := c.api.StartExec(exec.ID, dockerclient.StartExecOptions{
		OutputStream: &out,
		ErrorStream:  &out,
		Context:      ctx,
	}); err != nil {
		return ExecResult{}, fmt.Errorf("failed to run %q in %s: %w", cmd, containerID, err)
	}

	inspect, err := c.api.InspectExec(exec.ID)
	if err != nil {
		return ExecResult{}, fmt.Errorf("failed to inspect exec %s: %w", exec.ID, err)
	}
	return ExecResult{Output: out.String(), ExitCode: inspect.ExitCode}, nil
}
