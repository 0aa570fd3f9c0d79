package e2e

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/brettbedarf/projfs"
	"github.com/brettbedarf/projfs/adapters"
	"github.com/brettbedarf/projfs/tree"
)

var (
	projfsBin string
	projRoot  string
	testEnv   *E2ETestEnvironment
)

func TestMain(m *testing.M) {
	var err error

	// Build projfs binary once for all tests
	tmpBinDir, err := os.MkdirTemp("", "projfs-bin")
	if err != nil {
		panic(err)
	}
	defer func() {
		if err := os.RemoveAll(tmpBinDir); err != nil {
			panic(err)
		}
	}()

	projfsBin = filepath.Join(tmpBinDir, "projfs")

	// Determine project root
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		panic("cannot determine current file path")
	}
	projRoot = filepath.Join(filepath.Dir(thisFile), "..", "..")

	cmd := exec.Command("go", "build", "-o", projfsBin, "./cmd")
	cmd.Dir = projRoot
	if out, err := cmd.CombinedOutput(); err != nil {
		panic(string(out))
	}

	testEnv, err = NewE2ETestEnvironment(projfsBin)
	if err != nil {
		panic(err)
	}
	defer testEnv.Close()

	// Run tests
	code := m.Run()
	os.Exit(code)
}

func TestE2EListAndCreate(t *testing.T) {
	proj := testEnv.StartServer(t, NewTestProject().
		WithDir("backend").
		WithFile("z.txt").
		WithFile("a.txt"))
	defer proj.Stop()

	backend := proj.Backend(t)
	ctx := context.Background()

	l, err := backend.List(ctx, ".")
	if err != nil {
		t.Fatalf("list root: %v", err)
	}
	if got, want := entryNames(l), []string{"backend/", "a.txt", "z.txt"}; !slices.Equal(got, want) {
		t.Fatalf("listing mismatch:\nexpected: %q\ngot:      %q", want, got)
	}

	c, err := backend.Create(ctx, "backend", "/scripts")
	if err != nil {
		t.Fatalf("create dir: %v", err)
	}
	if c.Kind != projfs.KindDir || c.Path != "backend/scripts" {
		t.Fatalf("unexpected creation: %+v", c)
	}
	if info, err := os.Stat(filepath.Join(proj.Root, "backend", "scripts")); err != nil || !info.IsDir() {
		t.Fatalf("backend/scripts not created on disk: %v", err)
	}

	if _, err := backend.Create(ctx, ".", "notes.txt"); err != nil {
		t.Fatalf("create file: %v", err)
	}
	if _, err := backend.Create(ctx, ".", "notes.txt"); !errors.Is(err, projfs.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists on second create, got %v", err)
	}
	if _, err := backend.Create(ctx, ".", "notes"); err != nil {
		t.Fatalf("create dir next to file: %v", err)
	}

	l, err = backend.List(ctx, "")
	if err != nil {
		t.Fatalf("list root: %v", err)
	}
	if got, want := entryNames(l), []string{"backend/", "notes/", "a.txt", "notes.txt", "z.txt"}; !slices.Equal(got, want) {
		t.Fatalf("listing mismatch:\nexpected: %q\ngot:      %q", want, got)
	}
}

func TestE2ESandboxRejectsEscapes(t *testing.T) {
	proj := testEnv.StartServer(t, NewTestProject().WithFile("inside.txt"))
	defer proj.Stop()

	outside := filepath.Join(filepath.Dir(proj.Root), filepath.Base(proj.Root)+"-evil")
	if err := os.Mkdir(outside, 0o755); err != nil {
		t.Fatalf("mkdir sibling: %v", err)
	}
	if err := os.Symlink(outside, filepath.Join(proj.Root, "link")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	backend := proj.Backend(t)
	ctx := context.Background()

	for _, dir := range []string{"a/../../etc", "link", `x\..\..`} {
		if _, err := backend.List(ctx, dir); !errors.Is(err, projfs.ErrPathEscape) {
			t.Errorf("list %q: expected ErrPathEscape, got %v", dir, err)
		}
	}
	if _, err := backend.Create(ctx, "link", "pwned.txt"); !errors.Is(err, projfs.ErrPathEscape) {
		t.Errorf("create through link: expected ErrPathEscape, got %v", err)
	}

	// Leading climbs are stripped rather than honored
	c, err := backend.Create(ctx, "../..", "../escape.txt")
	if err != nil {
		t.Fatalf("create with leading climbs: %v", err)
	}
	if c.Path != "escape.txt" {
		t.Fatalf("expected escape.txt inside root, got %q", c.Path)
	}
	if entries, _ := os.ReadDir(outside); len(entries) != 0 {
		t.Fatalf("sibling directory was written to: %d entries", len(entries))
	}
}

func TestE2ETreeSync(t *testing.T) {
	proj := testEnv.StartServer(t, NewTestProject().
		WithDir("src").
		WithFile("src/main.go").
		WithFile("go.mod"))
	defer proj.Stop()

	tr := tree.New(proj.Backend(t))
	ctx := context.Background()

	if err := tr.ExpandAll(ctx, tr.Root(), 1); err != nil {
		t.Fatalf("expand: %v", err)
	}
	if _, err := tr.Create(ctx, "src", "lib/util.go"); err != nil {
		t.Fatalf("create through tree: %v", err)
	}
	if _, err := tr.Create(ctx, ".", "/docs"); err != nil {
		t.Fatalf("create dir through tree: %v", err)
	}

	var buf bytes.Buffer
	if err := tr.Render(&buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	want := ".\n" +
		"├── docs/\n" +
		"├── src/\n" +
		"│   ├── lib/\n" +
		"│   │   └── util.go\n" +
		"│   └── main.go\n" +
		"└── go.mod\n"
	if buf.String() != want {
		t.Fatalf("tree mismatch:\nexpected:\n%s\ngot:\n%s", want, buf.String())
	}

	// A fresh session listing from disk sees the same tree
	fresh := tree.New(proj.Backend(t))
	if err := fresh.ExpandAll(ctx, fresh.Root(), 2); err != nil {
		t.Fatalf("expand fresh: %v", err)
	}
	buf.Reset()
	if err := fresh.Render(&buf); err != nil {
		t.Fatalf("render fresh: %v", err)
	}
	if buf.String() != want {
		t.Fatalf("fresh tree mismatch:\nexpected:\n%s\ngot:\n%s", want, buf.String())
	}
}

func TestE2EConcurrentCreates(t *testing.T) {
	proj := testEnv.StartServer(t, NewTestProject())
	defer proj.Stop()

	backend := proj.Backend(t)
	const n = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		wins     int
		conflict int
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := backend.Create(context.Background(), ".", "race.txt")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, projfs.ErrAlreadyExists):
				conflict++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 || conflict != n-1 {
		t.Fatalf("expected 1 win and %d conflicts, got %d and %d", n-1, wins, conflict)
	}
}

func TestE2ECLIAgainstServer(t *testing.T) {
	proj := testEnv.StartServer(t, NewTestProject().WithDir("backend"))
	defer proj.Stop()

	out := testEnv.RunCLI(t, "create", "--source", proj.URL, "-d", "backend", "/scripts")
	if out != "created dir backend/scripts\n" {
		t.Fatalf("unexpected create output: %q", out)
	}
	out = testEnv.RunCLI(t, "tree", "--source", proj.URL+"/api/fs", "-L", "2")
	want := ".\n└── backend/\n    └── scripts/\n"
	if out != want {
		t.Fatalf("tree mismatch:\nexpected:\n%s\ngot:\n%s", want, out)
	}
}

func entryNames(l *projfs.Listing) []string {
	names := make([]string, 0, len(l.Entries))
	for _, e := range l.Entries {
		if e.IsDir() {
			names = append(names, e.Name+"/")
		} else {
			names = append(names, e.Name)
		}
	}
	return names
}

// E2ETestEnvironment manages shared resources for all e2e tests
type E2ETestEnvironment struct {
	ProjfsBin string
	BaseDir   string
}

// TestProjectSpec describes the initial contents of a project root
type TestProjectSpec struct {
	dirs  []string
	files []string
}

// TestProjectBuilder provides a fluent API for seeding project roots
type TestProjectBuilder struct {
	spec TestProjectSpec
}

// ProjfsInstance represents a running projfs server process for testing
type ProjfsInstance struct {
	cmd    *exec.Cmd
	Root   string
	URL    string
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

// NewTestProject creates an empty project builder
func NewTestProject() *TestProjectBuilder {
	return &TestProjectBuilder{}
}

// WithDir adds a directory, creating parents as needed
func (b *TestProjectBuilder) WithDir(rel string) *TestProjectBuilder {
	b.spec.dirs = append(b.spec.dirs, rel)
	return b
}

// WithFile adds an empty file, creating parents as needed
func (b *TestProjectBuilder) WithFile(rel string) *TestProjectBuilder {
	b.spec.files = append(b.spec.files, rel)
	return b
}

// Build writes the project under root
func (b *TestProjectBuilder) Build(root string) error {
	for _, d := range b.spec.dirs {
		if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(d)), 0o755); err != nil {
			return err
		}
	}
	for _, f := range b.spec.files {
		p := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(p, nil, 0o644); err != nil {
			return err
		}
	}
	return nil
}

// NewE2ETestEnvironment creates a shared test environment
func NewE2ETestEnvironment(projfsBinary string) (*E2ETestEnvironment, error) {
	baseDir, err := os.MkdirTemp("", "projfs-e2e-tests")
	if err != nil {
		return nil, err
	}
	adapters.RegisterBuiltins()
	return &E2ETestEnvironment{ProjfsBin: projfsBinary, BaseDir: baseDir}, nil
}

// Close cleans up the test environment
func (env *E2ETestEnvironment) Close() {
	if env.BaseDir != "" {
		_ = os.RemoveAll(env.BaseDir) // Best effort cleanup
	}
}

// StartServer seeds a fresh root from project and serves it on a free port
func (env *E2ETestEnvironment) StartServer(t *testing.T, project *TestProjectBuilder) *ProjfsInstance {
	t.Helper()

	root, err := os.MkdirTemp(env.BaseDir, "root")
	if err != nil {
		t.Fatalf("failed to create root: %v", err)
	}
	if err := project.Build(root); err != nil {
		t.Fatalf("failed to seed project: %v", err)
	}

	addr := freeAddr(t)
	inst := &ProjfsInstance{
		Root:   root,
		URL:    "http://" + addr,
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	inst.cmd = exec.Command(env.ProjfsBin, "serve", "--root", root, "--addr", addr, "-v", "4")
	inst.cmd.Env = cleanEnv()
	inst.cmd.Stdout = inst.stdout
	inst.cmd.Stderr = inst.stderr
	if err := inst.cmd.Start(); err != nil {
		t.Fatalf("failed to start projfs: %v", err)
	}

	if err := inst.waitHealthy(10 * time.Second); err != nil {
		inst.Stop()
		t.Fatalf("projfs did not become healthy: %v\nstdout: %s\nstderr: %s", err, inst.stdout, inst.stderr)
	}
	return inst
}

// RunCLI runs a client command with the built binary and returns stdout
func (env *E2ETestEnvironment) RunCLI(t *testing.T, args ...string) string {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := exec.Command(env.ProjfsBin, args...)
	cmd.Env = cleanEnv()
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("projfs %s: %v\nstderr: %s", strings.Join(args, " "), err, stderr.String())
	}
	return stdout.String()
}

// Backend opens an HTTP backend for the running server
func (inst *ProjfsInstance) Backend(t *testing.T) projfs.Backend {
	t.Helper()
	b, err := adapters.NewHTTPBackend(inst.URL, &http.Client{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	return b
}

// Stop sends SIGTERM and waits for the graceful shutdown
func (inst *ProjfsInstance) Stop() {
	if inst.cmd == nil || inst.cmd.Process == nil {
		return
	}
	_ = inst.cmd.Process.Signal(syscall.SIGTERM)
	done := make(chan error, 1)
	go func() { done <- inst.cmd.Wait() }()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		_ = inst.cmd.Process.Kill()
		<-done
	}
}

func (inst *ProjfsInstance) waitHealthy(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(inst.URL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("timed out after %s", timeout)
}

// cleanEnv blanks the variables projfs reads so the host cannot leak in
func cleanEnv() []string {
	return append(os.Environ(), "PROJECT_ROOT=", "PORT=", "PROJFS_ADDR=", "PROJFS_VERBOSE=")
}

// freeAddr reserves a loopback port and releases it for the server
func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	defer l.Close()
	return l.Addr().String()
}
