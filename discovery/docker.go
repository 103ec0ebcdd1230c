package discovery

import (
	"context"
	"os"
	"strings"

	docker "github.com/fsouza/go-dockerclient"
	"go.uber.org/zap"

	"github.com/dbterm/dbterm/config"
	"github.com/dbterm/dbterm/provider"
)

// DockerStatus classifies how far Docker inspection got.
type DockerStatus string

const (
	DockerAvailable     DockerStatus = "available"
	DockerNotInstalled  DockerStatus = "not_installed"
	DockerNotRunning    DockerStatus = "not_running"
	DockerNotAccessible DockerStatus = "not_accessible"
)

// DetectedContainer is one running database container.
type DetectedContainer struct {
	ID     string
	Name   string
	Image  string
	DBType string
	Host   string
	Port   int
	Env    map[string]string
}

// DockerInspector finds database containers through the Docker API and
// turns them into connection candidates using the providers' hints.
type DockerInspector struct {
	client   *docker.Client
	registry *provider.Registry
	log      *zap.Logger
}

// NewDockerInspector connects to the Docker daemon configured in the
// environment.
func NewDockerInspector(registry *provider.Registry, log *zap.Logger) (*DockerInspector, error) {
	if log == nil {
		log = zap.NewNop()
	}
	client, err := docker.NewClientFromEnv()
	if err != nil {
		return nil, err
	}
	return &DockerInspector{client: client, registry: registry, log: log}, nil
}

// Status pings the daemon and classifies failures.
func (d *DockerInspector) Status(ctx context.Context) DockerStatus {
	err := d.client.PingWithContext(ctx)
	if err == nil {
		return DockerAvailable
	}
	msg := err.Error()
	switch {
	case os.IsNotExist(err) || strings.Contains(msg, "no such file"):
		return DockerNotInstalled
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "cannot connect"):
		return DockerNotRunning
	default:
		return DockerNotAccessible
	}
}

// Containers lists running containers that match a provider's image
// patterns.
func (d *DockerInspector) Containers(ctx context.Context) ([]DetectedContainer, error) {
	list, err := d.client.ListContainers(docker.ListContainersOptions{Context: ctx})
	if err != nil {
		return nil, err
	}

	var out []DetectedContainer
	for _, c := range list {
		spec, ok := d.matchImage(c.Image)
		if !ok {
			continue
		}
		detected := DetectedContainer{
			ID:     c.ID,
			Name:   containerName(c),
			Image:  c.Image,
			DBType: spec.DBType,
			Host:   "localhost",
			Port:   hostPort(c.Ports, spec.DefaultPort),
		}
		if env, err := d.containerEnv(ctx, c.ID); err == nil {
			detected.Env = env
		} else {
			d.log.Debug("container env unavailable",
				zap.String("container", detected.Name), zap.Error(err))
		}
		out = append(out, detected)
	}
	return out, nil
}

// Discover implements Source.
func (d *DockerInspector) Discover(ctx context.Context) ([]config.ConnectionConfig, error) {
	containers, err := d.Containers(ctx)
	if err != nil {
		return nil, err
	}
	var out []config.ConnectionConfig
	for _, c := range containers {
		cfg, ok := d.ConfigFor(c)
		if !ok {
			continue
		}
		out = append(out, cfg)
	}
	return out, nil
}

// Name implements Source.
func (d *DockerInspector) Name() string { return "docker" }

// ConfigFor builds a connection candidate from a detected container using
// the provider's env hints.
func (d *DockerInspector) ConfigFor(c DetectedContainer) (config.ConnectionConfig, bool) {
	spec, err := d.registry.Get(c.DBType)
	if err != nil || spec.Docker == nil {
		return config.ConnectionConfig{}, false
	}
	hints := spec.Docker

	cfg := config.ConnectionConfig{
		Name:   c.Name,
		DBType: c.DBType,
		Host:   c.Host,
		Port:   c.Port,
	}
	cfg.Username = firstEnv(c.Env, hints.EnvUser, hints.DefaultUser)
	cfg.Password = firstEnv(c.Env, hints.EnvPassword, "")
	cfg.Database = firstEnv(c.Env, hints.EnvDatabase, hints.DefaultDatabase)
	if cfg.Port == 0 {
		cfg.Port = spec.DefaultPort
	}
	return cfg, true
}

func (d *DockerInspector) matchImage(image string) (provider.Spec, bool) {
	for _, spec := range d.registry.All() {
		if spec.Docker == nil {
			continue
		}
		for _, pattern := range spec.Docker.ImagePatterns {
			if strings.Contains(image, pattern) {
				return spec, true
			}
		}
	}
	return provider.Spec{}, false
}

func (d *DockerInspector) containerEnv(ctx context.Context, id string) (map[string]string, error) {
	info, err := d.client.InspectContainerWithOptions(docker.InspectContainerOptions{
		ID:      id,
		Context: ctx,
	})
	if err != nil {
		return nil, err
	}
	return parseEnv(info.Config.Env), nil
}

func parseEnv(env []string) map[string]string {
	out := make(map[string]string, len(env))
	for _, kv := range env {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			out[kv[:i]] = kv[i+1:]
		}
	}
	return out
}

func firstEnv(env map[string]string, keys []string, fallback string) string {
	for _, k := range keys {
		if v, ok := env[k]; ok && v != "" {
			return v
		}
	}
	return fallback
}

func containerName(c docker.APIContainers) string {
	for _, n := range c.Names {
		return strings.TrimPrefix(n, "/")
	}
	return c.ID[:12]
}

// hostPort picks the public mapping of the provider's default port, falling
// back to any published port.
func hostPort(ports []docker.APIPort, defaultPort int) int {
	var any int
	for _, p := range ports {
		if p.PublicPort == 0 {
			continue
		}
		if int(p.PrivatePort) == defaultPort {
			return int(p.PublicPort)
		}
		if any == 0 {
			any = int(p.PublicPort)
		}
	}
	return any
}
