package browser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	DefaultImage = "browserless/chrome:latest"
	cdpPort      = "3000/tcp"
)

// BrowserInstance is a running browser container
type BrowserInstance struct {
	ContainerID string
	SessionID   string
	ConnectURL  string
	Port        string
}

// Pool launches throwaway browser containers on the local docker daemon
type Pool struct {
	client *client.Client
	image  string
	logger *zap.Logger

	readyRetries  int
	retryInterval time.Duration
}

// NewPool connects to the docker daemon configured in the environment
func NewPool(image string, logger *zap.Logger) (*Pool, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	if image == "" {
		image = DefaultImage
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pool{
		client:        cli,
		image:         image,
		logger:        logger,
		readyRetries:  20,
		retryInterval: 500 * time.Millisecond,
	}, nil
}

// LaunchBrowser starts a container for one session and waits until its CDP
// endpoint accepts websocket connections.
func (p *Pool) LaunchBrowser(ctx context.Context, sessionID string) (*BrowserInstance, error) {
	containerConfig := &container.Config{
		Image: p.image,
		Labels: map[string]string{
			"session-id": sessionID,
			"managed-by": "e2e-harness",
		},
		Env: []string{
			"CONNECTION_TIMEOUT=-1",
			"MAX_CONCURRENT_SESSIONS=1",
			"PREBOOT_CHROME=true",
			"EXIT_ON_HEALTH_FAILURE=false",
		},
		ExposedPorts: nat.PortSet{
			cdpPort: struct{}{},
		},
	}

	hostConfig := &container.HostConfig{
		PortBindings: nat.PortMap{
			cdpPort: []nat.PortBinding{
				{
					HostIP:   "127.0.0.1",
					HostPort: "0",
				},
			},
		},
	}

	resp, err := p.client.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, ContainerName(sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	if err := p.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		p.remove(resp.ID)
		return nil, fmt.Errorf("failed to start container: %w", err)
	}

	inspect, err := p.client.ContainerInspect(ctx, resp.ID)
	if err != nil {
		p.remove(resp.ID)
		return nil, fmt.Errorf("failed to inspect container: %w", err)
	}

	bindings := inspect.NetworkSettings.Ports[cdpPort]
	if len(bindings) == 0 {
		p.remove(resp.ID)
		return nil, fmt.Errorf("container %s exposes no CDP port", resp.ID[:12])
	}
	port := bindings[0].HostPort

	if err := p.waitForBrowserReady(ctx, port); err != nil {
		p.remove(resp.ID)
		return nil, fmt.Errorf("browser failed to become ready: %w", err)
	}

	p.logger.Info("browser container ready",
		zap.String("container_id", resp.ID[:12]),
		zap.String("session_id", sessionID),
		zap.String("port", port))

	return &BrowserInstance{
		ContainerID: resp.ID,
		SessionID:   sessionID,
		ConnectURL:  fmt.Sprintf("ws://127.0.0.1:%s", port),
		Port:        port,
	}, nil
}

// StopBrowser stops and removes a container
func (p *Pool) StopBrowser(ctx context.Context, containerID string) error {
	timeout := 10
	if err := p.client.ContainerStop(ctx, containerID, container.StopOptions{Timeout: &timeout}); err != nil {
		return fmt.Errorf("failed to stop container: %w", err)
	}

	if err := p.client.ContainerRemove(ctx, containerID, container.RemoveOptions{}); err != nil {
		return fmt.Errorf("failed to remove container: %w", err)
	}

	return nil
}

func (p *Pool) remove(containerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := p.client.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true}); err != nil {
		p.logger.Warn("failed to remove container", zap.String("container_id", containerID), zap.Error(err))
	}
}

// IsHealthy reports whether the container is still running
func (p *Pool) IsHealthy(ctx context.Context, containerID string) bool {
	inspect, err := p.client.ContainerInspect(ctx, containerID)
	if err != nil {
		return false
	}
	return inspect.State.Running
}

// EnsureImage pulls the browser image if the daemon does not have it yet
func (p *Pool) EnsureImage(ctx context.Context) error {
	images, err := p.client.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return err
	}

	for _, img := range images {
		for _, tag := range img.RepoTags {
			if tag == p.image {
				return nil
			}
		}
	}

	p.logger.Info("pulling browser image", zap.String("image", p.image))
	reader, err := p.client.ImagePull(ctx, p.image, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image: %w", err)
	}
	defer reader.Close()

	_, err = io.Copy(io.Discard, reader)
	return err
}

func (p *Pool) Close() error {
	return p.client.Close()
}

// ContainerName derives the docker container name for a session
func ContainerName(sessionID string) string {
	if len(sessionID) > 8 {
		sessionID = sessionID[:8]
	}
	return fmt.Sprintf("e2e-session-%s", sessionID)
}

// waitForBrowserReady polls /json/version and then dials the CDP websocket
func (p *Pool) waitForBrowserReady(ctx context.Context, port string) error {
	return WaitForCDP(ctx, "127.0.0.1:"+port, p.readyRetries, p.retryInterval)
}

// WaitForCDP waits until hostPort serves the DevTools version endpoint and
// accepts a websocket upgrade.
func WaitForCDP(ctx context.Context, hostPort string, retries int, interval time.Duration) error {
	versionURL := fmt.Sprintf("http://%s/json/version", hostPort)
	wsURL := fmt.Sprintf("ws://%s", hostPort)

	var lastErr error
	for i := 0; i < retries; i++ {
		lastErr = probeCDP(ctx, versionURL, wsURL)
		if lastErr == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}

	return fmt.Errorf("browser did not become ready after %d retries: %w", retries, lastErr)
}

func probeCDP(ctx context.Context, versionURL, wsURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, versionURL, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("version endpoint returned %d", resp.StatusCode)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("cdp websocket: %w", err)
	}
	return conn.Close()
}
