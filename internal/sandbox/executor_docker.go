package sandbox

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/google/uuid"
)

const (
	containerWorkspace = "/workspace"
	defaultImage       = "node:20"
	dockerStopTimeout  = 10 * time.Second
)

// DockerExecutor runs processes with docker exec inside one long-lived
// container per sandbox. The sandbox root is bind-mounted at /workspace and
// the container shares the host network so dev servers are reachable.
type DockerExecutor struct {
	cli         *client.Client
	containerID string
	hostRoot    string
}

type dockerExecution struct {
	executor *DockerExecutor
	execID   string
	pidFile  string
	reader   *io.PipeReader

	once     sync.Once
	done     chan struct{}
	exitCode int
	err      error
}

func NewDockerExecutor(ctx context.Context, id, hostRoot, img string) (*DockerExecutor, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	ex, err := newDockerExecutorWithClient(ctx, cli, id, hostRoot, img)
	if err != nil {
		_ = cli.Close()
		return nil, err
	}

	return ex, nil
}

func newDockerExecutorWithClient(ctx context.Context, cli *client.Client, id, hostRoot, img string) (*DockerExecutor, error) {
	if img == "" {
		img = defaultImage
	}

	abs, err := filepath.Abs(hostRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sandbox root: %w", err)
	}

	cfg := &container.Config{
		Image:      img,
		Cmd:        []string{"sleep", "infinity"},
		WorkingDir: containerWorkspace,
		Labels:     map[string]string{"codelab.sandbox": id},
	}

	hostCfg := &container.HostConfig{
		Binds:       []string{abs + ":" + containerWorkspace},
		NetworkMode: "host",
	}

	name := "codelab-" + id

	created, err := cli.ContainerCreate(ctx, cfg, hostCfg, nil, nil, name)
	if cerrdefs.IsNotFound(err) {
		if pullErr := pullImage(ctx, cli, img); pullErr != nil {
			return nil, pullErr
		}

		created, err = cli.ContainerCreate(ctx, cfg, hostCfg, nil, nil, name)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create sandbox container: %w", err)
	}

	if err := cli.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		_ = cli.ContainerRemove(ctx, created.ID, container.RemoveOptions{Force: true})
		return nil, fmt.Errorf("failed to start sandbox container: %w", err)
	}

	return &DockerExecutor{cli: cli, containerID: created.ID, hostRoot: abs}, nil
}

func pullImage(ctx context.Context, cli *client.Client, img string) error {
	rc, err := cli.ImagePull(ctx, img, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", img, err)
	}
	defer rc.Close() //nolint:errcheck

	// the pull only completes once the progress stream is drained
	_, err = io.Copy(io.Discard, rc)

	return err
}

// maps a host directory under the sandbox root to its container path
func (d *DockerExecutor) containerDir(dir string) string {
	rel, err := filepath.Rel(d.hostRoot, dir)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return containerWorkspace
	}

	return path.Join(containerWorkspace, filepath.ToSlash(rel))
}

func (d *DockerExecutor) Start(ctx context.Context, dir string, argv []string) (Execution, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, ErrEmptyCommand
	}

	pidFile := "/tmp/codelab-" + uuid.New().String() + ".pid"

	// record the shell pid so Kill can signal the process from a second exec
	wrapped := append([]string{"sh", "-c", `echo $$ > "$0"; exec "$@"`, pidFile}, argv...)

	created, err := d.cli.ContainerExecCreate(ctx, d.containerID, container.ExecOptions{
		Cmd:          wrapped,
		AttachStdout: true,
		AttachStderr: true,
		WorkingDir:   d.containerDir(dir),
		Env:          []string{"FORCE_COLOR=0", "CI=1"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create exec: %w", err)
	}

	hj, err := d.cli.ContainerExecAttach(ctx, created.ID, container.ExecStartOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to attach exec: %w", err)
	}

	pr, pw := io.Pipe()

	ex := &dockerExecution{
		executor: d,
		execID:   created.ID,
		pidFile:  pidFile,
		reader:   pr,
		done:     make(chan struct{}),
	}

	go func() {
		defer close(ex.done)

		_, copyErr := stdcopy.StdCopy(pw, pw, hj.Reader)
		hj.Close()

		inspect, err := d.cli.ContainerExecInspect(context.Background(), created.ID)
		switch {
		case err != nil:
			ex.exitCode, ex.err = -1, fmt.Errorf("failed to inspect exec: %w", err)
		case copyErr != nil && inspect.Running:
			ex.exitCode, ex.err = -1, fmt.Errorf("exec stream failed: %w", copyErr)
		default:
			ex.exitCode = inspect.ExitCode
		}

		_ = pw.Close()
	}()

	return ex, nil
}

// removes the container
func (d *DockerExecutor) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, dockerStopTimeout)
	defer cancel()

	err := d.cli.ContainerRemove(ctx, d.containerID, container.RemoveOptions{Force: true})
	_ = d.cli.Close()

	if err != nil && !cerrdefs.IsNotFound(err) {
		return fmt.Errorf("failed to remove sandbox container: %w", err)
	}

	return nil
}

func (x *dockerExecution) Output() io.Reader {
	return x.reader
}

func (x *dockerExecution) Wait() (int, error) {
	<-x.done
	return x.exitCode, x.err
}

func (x *dockerExecution) Kill() error {
	var err error

	x.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), dockerStopTimeout)
		defer cancel()

		script := fmt.Sprintf(`pid=$(cat %q 2>/dev/null) && { pkill -KILL -P "$pid"; kill -KILL "$pid"; }; rm -f %q`, x.pidFile, x.pidFile)

		var created container.ExecCreateResponse
		created, err = x.executor.cli.ContainerExecCreate(ctx, x.executor.containerID, container.ExecOptions{
			Cmd: []string{"sh", "-c", script},
		})
		if err != nil {
			err = fmt.Errorf("failed to create kill exec: %w", err)
			return
		}

		if err = x.executor.cli.ContainerExecStart(ctx, created.ID, container.ExecStartOptions{Detach: true}); err != nil {
			err = fmt.Errorf("failed to run kill exec: %w", err)
		}
	})

	return err
}
