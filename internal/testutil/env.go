package testutil

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"testing"
	"time"
)

// PostgresTestConfig holds Postgres container settings without importing the
// postgres package; that keeps testutil import-cycle free.
type PostgresTestConfig struct {
	ContainerName string
	HostPort      string
	Labels        map[string]string
}

// ServerConfig carries everything needed to construct a test server.
type ServerConfig struct {
	Host       string
	Port       string
	Home       string
	ConfigFile string
	Postgres   PostgresTestConfig
	Logger     *slog.Logger
}

// NewServerConfig allocates free ports, a temp home directory and a uniquely
// named Postgres container for one test.
func NewServerConfig(t *testing.T) ServerConfig {
	t.Helper()

	// Register Docker cleanup for this test
	_ = DockerClient(t)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	tempDir := t.TempDir()

	httpPort, err := FindFreePort()
	if err != nil {
		t.Fatalf("failed to find free port for HTTP: %v", err)
	}
	pgPort, err := FindFreePort()
	if err != nil {
		t.Fatalf("failed to find free port for Postgres: %v", err)
	}

	return ServerConfig{
		Host:       "127.0.0.1",
		Port:       httpPort,
		Home:       tempDir,
		ConfigFile: tempDir + "/config.yaml",
		Postgres: PostgresTestConfig{
			ContainerName: UniquePostgresName(t),
			HostPort:      pgPort,
			Labels:        ContainerLabels(t),
		},
		Logger: logger,
	}
}

// URL returns the base URL of the test server.
func (c ServerConfig) URL() string {
	return fmt.Sprintf("http://%s:%s", c.Host, c.Port)
}

// WaitForServer polls /status until Postgres reports healthy or the timeout
// elapses.
func WaitForServer(url string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url + "/status")
		if err == nil {
			var status struct {
				Postgres struct {
					Health string `json:"health"`
				} `json:"postgres"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&status); err == nil {
				if status.Postgres.Health == "healthy" {
					resp.Body.Close()
					return nil
				}
			}
			resp.Body.Close()
		}
		time.Sleep(500 * time.Millisecond)
	}

	return fmt.Errorf("server not ready after %v", timeout)
}

// WaitForShutdown waits for a channel to receive a value or timeout.
func WaitForShutdown(done <-chan error, timeout time.Duration) error {
	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("timeout waiting for shutdown")
	}
}

// HTTPClient returns an HTTP client for making requests.
func HTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// FindFreePort finds an available TCP port and returns it as a string.
func FindFreePort() (string, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	defer listener.Close()
	return fmt.Sprintf("%d", listener.Addr().(*net.TCPAddr).Port), nil
}
