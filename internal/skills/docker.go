package skills

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/client"

	"skillbox/internal/domain"
	"skillbox/internal/runner"
	"skillbox/internal/schema"
)

// dockerAPI is the subset of the Docker Engine API the skill needs for the
// run lifecycle. Tests inject a mock instead of a real daemon.
type dockerAPI interface {
	ImagePull(ctx context.Context, refStr string, options client.ImagePullOptions) (dockerPullResponse, error)
	ContainerCreate(ctx context.Context, options client.ContainerCreateOptions) (client.ContainerCreateResult, error)
	ContainerStart(ctx context.Context, containerID string, options client.ContainerStartOptions) (client.ContainerStartResult, error)
	ContainerWait(ctx context.Context, containerID string, options client.ContainerWaitOptions) client.ContainerWaitResult
	ContainerLogs(ctx context.Context, containerID string, options client.ContainerLogsOptions) (client.ContainerLogsResult, error)
	ContainerRemove(ctx context.Context, containerID string, options client.ContainerRemoveOptions) (client.ContainerRemoveResult, error)
	Close() error
}

// dockerPullResponse narrows the pull response to the reader we drain.
type dockerPullResponse interface {
	io.ReadCloser
}

type dockerClientAdapter struct {
	cli *client.Client
}

var _ dockerAPI = (*dockerClientAdapter)(nil)

func (a *dockerClientAdapter) ImagePull(ctx context.Context, ref string, opts client.ImagePullOptions) (dockerPullResponse, error) {
	return a.cli.ImagePull(ctx, ref, opts)
}
func (a *dockerClientAdapter) ContainerCreate(ctx context.Context, opts client.ContainerCreateOptions) (client.ContainerCreateResult, error) {
	return a.cli.ContainerCreate(ctx, opts)
}
func (a *dockerClientAdapter) ContainerStart(ctx context.Context, id string, opts client.ContainerStartOptions) (client.ContainerStartResult, error) {
	return a.cli.ContainerStart(ctx, id, opts)
}
func (a *dockerClientAdapter) ContainerWait(ctx context.Context, id string, opts client.ContainerWaitOptions) client.ContainerWaitResult {
	return a.cli.ContainerWait(ctx, id, opts)
}
func (a *dockerClientAdapter) ContainerLogs(ctx context.Context, id string, opts client.ContainerLogsOptions) (client.ContainerLogsResult, error) {
	return a.cli.ContainerLogs(ctx, id, opts)
}
func (a *dockerClientAdapter) ContainerRemove(ctx context.Context, id string, opts client.ContainerRemoveOptions) (client.ContainerRemoveResult, error) {
	return a.cli.ContainerRemove(ctx, id, opts)
}
func (a *dockerClientAdapter) Close() error { return a.cli.Close() }

// newDockerAPIFunc creates the engine client from environment defaults
// (DOCKER_HOST etc.). Package-level so tests can swap it.
var newDockerAPIFunc = func() (dockerAPI, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}
	return &dockerClientAdapter{cli: cli}, nil
}

// DockerSkill manages containers. The run tool talks to the engine API
// directly; listing and exec go through the docker CLI.
type DockerSkill struct {
	run runner.Runner
	api dockerAPI // lazily connected
}

func NewDockerSkill(run runner.Runner) *DockerSkill {
	return &DockerSkill{run: run}
}

func (s *DockerSkill) Name() string        { return "docker" }
func (s *DockerSkill) Description() string { return "Docker: containers, images, logs, exec" }

type dockerPsInput struct {
	All bool `json:"all,omitempty" jsonschema:"description=Include stopped containers"`
}

type dockerRunInput struct {
	Image   string `json:"image" jsonschema:"description=Image reference"`
	Command string `json:"command,omitempty" jsonschema:"description=Command to run in the container"`
	Wait    bool   `json:"wait,omitempty" jsonschema:"description=Wait for exit and return logs"`
	Timeout int    `json:"timeout,omitempty" jsonschema:"description=Wait timeout in seconds (default: 120)"`
}

type dockerContainerInput struct {
	Container string `json:"container" jsonschema:"description=Container ID or name"`
}

type dockerLogsInput struct {
	Container string `json:"container" jsonschema:"description=Container ID or name"`
	Tail      int    `json:"tail,omitempty" jsonschema:"description=Number of trailing lines (default: 100)"`
}

type dockerExecInput struct {
	Container string `json:"container" jsonschema:"description=Container ID or name"`
	Command   string `json:"command" jsonschema:"description=Command to execute"`
}

type dockerEmptyInput struct{}

func (s *DockerSkill) Tools() []domain.Tool {
	return []domain.Tool{
		newTool("docker_ps", "List containers", dockerPsInput{}, s.ps),
		newTool("docker_images", "List images", dockerPsInput{}, s.images),
		newTool("docker_run", "Run a container from an image", dockerRunInput{}, s.runContainer),
		newTool("docker_stop", "Stop a container", dockerContainerInput{}, s.stop),
		newTool("docker_logs", "Show container logs", dockerLogsInput{}, s.logs),
		newTool("docker_exec", "Execute a command in a container", dockerExecInput{}, s.exec),
		newTool("docker_info", "Show Docker daemon information", dockerEmptyInput{}, s.info),
	}
}

func (s *DockerSkill) engine() (dockerAPI, error) {
	if s.api != nil {
		return s.api, nil
	}
	api, err := newDockerAPIFunc()
	if err != nil {
		return nil, err
	}
	s.api = api
	return api, nil
}

func (s *DockerSkill) cli(timeout time.Duration, args ...string) (string, error) {
	stdout, stderr, err := s.run.Run(timeout, "docker", args...)
	if err != nil {
		msg := strings.TrimSpace(stderr)
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("%s", msg)
	}
	return strings.TrimSpace(stdout), nil
}

func (s *DockerSkill) ps(args schema.Args) (string, error) {
	cmd := []string{"ps", "--format", "table {{.ID}}\t{{.Image}}\t{{.Status}}\t{{.Names}}\t{{.Ports}}"}
	if args.Bool("all", false) {
		cmd = append(cmd[:1], append([]string{"-a"}, cmd[1:]...)...)
	}
	out, err := s.cli(30*time.Second, cmd...)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	if strings.Count(out, "\n") == 0 {
		return "No running containers.", nil
	}
	return fmt.Sprintf("Containers:\n\n%s", out), nil
}

func (s *DockerSkill) images(args schema.Args) (string, error) {
	cmd := []string{"images", "--format", "table {{.Repository}}\t{{.Tag}}\t{{.Size}}\t{{.CreatedSince}}"}
	if args.Bool("all", false) {
		cmd = append(cmd[:1], append([]string{"-a"}, cmd[1:]...)...)
	}
	out, err := s.cli(30*time.Second, cmd...)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	if strings.Count(out, "\n") == 0 {
		return "No Docker images.", nil
	}
	return fmt.Sprintf("Images:\n\n%s", out), nil
}

func (s *DockerSkill) runContainer(args schema.Args) (string, error) {
	api, err := s.engine()
	if err != nil {
		return fmt.Sprintf("Error: Docker not available: %v", err), nil
	}

	timeout := time.Duration(args.Int("timeout", 120)) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	image := args.String("image", "")
	if resp, err := api.ImagePull(ctx, image, client.ImagePullOptions{}); err == nil {
		io.Copy(io.Discard, resp)
		resp.Close()
	}

	cfg := &container.Config{Image: image}
	if command := args.String("command", ""); command != "" {
		cfg.Cmd = strings.Fields(command)
	}
	created, err := api.ContainerCreate(ctx, client.ContainerCreateOptions{Config: cfg})
	if err != nil {
		return fmt.Sprintf("Error creating container: %v", err), nil
	}
	id := created.ID

	if _, err := api.ContainerStart(ctx, id, client.ContainerStartOptions{}); err != nil {
		return fmt.Sprintf("Error starting container: %v", err), nil
	}

	if !args.Bool("wait", false) {
		return fmt.Sprintf("Container started: %.12s", id), nil
	}

	exitCode, err := s.waitContainer(ctx, api, id)
	if err != nil {
		return fmt.Sprintf("Error waiting for container: %v", err), nil
	}
	logText, _ := s.containerLogs(ctx, api, id)
	api.ContainerRemove(context.Background(), id, client.ContainerRemoveOptions{Force: true, RemoveVolumes: true})

	return jsonBlob(map[string]interface{}{
		"container": fmt.Sprintf("%.12s", id),
		"exit_code": exitCode,
		"output":    truncate(logText, maxOutput),
	}), nil
}

func (s *DockerSkill) waitContainer(ctx context.Context, api dockerAPI, id string) (int64, error) {
	result := api.ContainerWait(ctx, id, client.ContainerWaitOptions{
		Condition: container.WaitConditionNotRunning,
	})
	select {
	case err := <-result.Error:
		return -1, err
	case status := <-result.Result:
		return status.StatusCode, nil
	case <-ctx.Done():
		return -1, ctx.Err()
	}
}

func (s *DockerSkill) containerLogs(ctx context.Context, api dockerAPI, id string) (string, error) {
	reader, err := api.ContainerLogs(ctx, id, client.ContainerLogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return "", err
	}
	defer reader.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *DockerSkill) stop(args schema.Args) (string, error) {
	name := args.String("container", "")
	if _, err := s.cli(30*time.Second, "stop", name); err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	return fmt.Sprintf("Container stopped: %s", name), nil
}

func (s *DockerSkill) logs(args schema.Args) (string, error) {
	name := args.String("container", "")
	tail := args.Int("tail", 100)

	out, err := s.cli(30*time.Second, "logs", "--tail", fmt.Sprint(tail), name)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	if out == "" {
		return "No logs available.", nil
	}
	return fmt.Sprintf("Logs for %s:\n\n%s", name, truncate(out, maxOutput)), nil
}

var dangerousExecPatterns = []string{"rm -rf /", "mkfs", "dd if="}

func (s *DockerSkill) exec(args schema.Args) (string, error) {
	command := args.String("command", "")
	for _, pattern := range dangerousExecPatterns {
		if strings.Contains(command, pattern) {
			return "Error: Potentially dangerous command detected", nil
		}
	}

	cmd := append([]string{"exec", args.String("container", "")}, strings.Fields(command)...)
	out, err := s.cli(30*time.Second, cmd...)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	if out == "" {
		return "Command executed (no output)", nil
	}
	return fmt.Sprintf("Result:\n\n%s", out), nil
}

func (s *DockerSkill) info(schema.Args) (string, error) {
	version, err := s.cli(10*time.Second, "version", "--format", "{{.Server.Version}}")
	if err != nil {
		return fmt.Sprintf("Error: Docker not available - %v", err), nil
	}

	lines := []string{"Docker Info\n", fmt.Sprintf("Version: %s", version)}

	running, _ := s.cli(10*time.Second, "ps", "-q")
	total, _ := s.cli(10*time.Second, "ps", "-aq")
	images, _ := s.cli(10*time.Second, "images", "-q")
	lines = append(lines,
		fmt.Sprintf("Containers: %d running / %d total", countLines(running), countLines(total)),
		fmt.Sprintf("Images: %d", countLines(images)))

	if disk, err := s.cli(10*time.Second, "system", "df",
		"--format", "{{.Type}}\t{{.Size}}\t{{.Reclaimable}}"); err == nil && disk != "" {
		lines = append(lines, "\nDisk usage:")
		for _, line := range strings.Split(disk, "\n") {
			lines = append(lines, "  "+line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return len(strings.Split(s, "\n"))
}
