package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajachanda/rps/internal/api"
	"github.com/rajachanda/rps/internal/api/response"
	"github.com/rajachanda/rps/internal/factory"
	"github.com/rajachanda/rps/internal/model"
	"github.com/rajachanda/rps/internal/services/match"
	"github.com/rajachanda/rps/internal/testutil"
	"github.com/rajachanda/rps/internal/web/ws"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	projectRoot := findProjectRoot(t)

	binaryPath := filepath.Join(t.TempDir(), "rpsctl")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/rpsctl")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{"--server", r.serverURL, "--output", "json"}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

// player is a running `rpsctl play` process
type player struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	out   *syncBuffer
}

func (r *cliRunner) play(t *testing.T, args ...string) *player {
	t.Helper()

	fullArgs := append([]string{"--server", r.serverURL, "play"}, args...)
	cmd := exec.Command(r.binaryPath, fullArgs...)
	stdin, err := cmd.StdinPipe()
	require.NoError(t, err)
	out := &syncBuffer{}
	cmd.Stdout = out
	cmd.Stderr = out
	require.NoError(t, cmd.Start())

	p := &player{cmd: cmd, stdin: stdin, out: out}
	t.Cleanup(func() {
		_ = stdin.Close()
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	})
	return p
}

func (p *player) say(t *testing.T, line string) {
	t.Helper()
	_, err := io.WriteString(p.stdin, line+"\n")
	require.NoError(t, err)
}

func (p *player) waitFor(t *testing.T, text string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return strings.Contains(p.out.String(), text)
	}, 5*time.Second, 20*time.Millisecond, "waiting for %q in:\n%s", text, p.out.String())
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	addr     string
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	logger := testutil.NopLogger()
	app, err := factory.New(factory.Config{
		Logger: logger,
		Match: match.Config{
			StartDelay: 50 * time.Millisecond,
			RoundDelay: 50 * time.Millisecond,
			Countdown:  10,
		},
	})
	require.NoError(t, err)

	router := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		Coordinator: app.Coordinator,
		Hub:         app.Hub,
		WS:          ws.DefaultConfig(),
	})

	server := api.NewServer(router, api.ServerConfig{
		Host:            "127.0.0.1",
		Port:            portOf(t, addr),
		ShutdownTimeout: time.Second,
	}, logger)
	server.OnShutdown(app.Hub.CloseAll)

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		addr: serverURL,
		shutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
		},
	}
}

func portOf(t *testing.T, addr string) int {
	t.Helper()
	_, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	p, err := net.LookupPort("tcp", port)
	require.NoError(t, err)
	return p
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready")
}

func TestCLI(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	srv := startTestServer(t)
	defer srv.shutdown()

	cli := newCLIRunner(t, srv.addr)

	t.Run("health", func(t *testing.T) {
		out, err := cli.run("health")
		require.NoError(t, err, out)

		var health response.HealthResponse
		require.NoError(t, json.Unmarshal([]byte(out), &health))
		assert.Equal(t, "ok", health.Status)
	})

	t.Run("room not found", func(t *testing.T) {
		out, err := cli.run("room", "NOPE00")
		require.Error(t, err)
		assert.Contains(t, out, "Room not found")
	})

	t.Run("full match", func(t *testing.T) {
		host := cli.play(t, "--name", "Alice", "--create", "--target", "2")
		host.waitFor(t, "created")

		m := regexp.MustCompile(`Room (\w+) created`).FindStringSubmatch(host.out.String())
		require.NotNil(t, m)
		code := m[1]

		out, err := cli.run("room", code)
		require.NoError(t, err, out)
		var room model.Snapshot
		require.NoError(t, json.Unmarshal([]byte(out), &room))
		assert.Equal(t, 2, room.TargetScore)
		assert.Len(t, room.Participants, 1)

		guest := cli.play(t, "--name", "Bob", "--join", strings.ToLower(code))
		guest.waitFor(t, "Joined room "+code)
		host.waitFor(t, "Player joined")

		// Only the host may start; the guest's attempt is ignored.
		guest.say(t, "start")
		host.say(t, "start")
		host.waitFor(t, "Round 1: choose")
		guest.waitFor(t, "Round 1: choose")

		host.say(t, "paper")
		guest.say(t, "paper")
		host.waitFor(t, "you paper, opponent paper. It's a tie!")
		host.waitFor(t, "Round 2: choose")

		host.say(t, "rock")
		guest.say(t, "scissors")
		host.waitFor(t, "Round 3: choose")

		host.say(t, "r")
		guest.say(t, "s")
		host.waitFor(t, "You won the match!")
		guest.waitFor(t, "Alice won the match.")

		out, err = cli.run("stats")
		require.NoError(t, err, out)
		var stats response.StatsResponse
		require.NoError(t, json.Unmarshal([]byte(out), &stats))
		assert.Equal(t, 1, stats.Rooms)
		assert.Equal(t, 2, stats.Connections)

		guest.say(t, "quit")
		require.NoError(t, guest.cmd.Wait())
		host.waitFor(t, "Opponent left")

		host.say(t, "quit")
		require.NoError(t, host.cmd.Wait())
	})
}
