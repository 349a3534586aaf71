package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/marmos91/dittows/internal/logger"
	"github.com/marmos91/dittows/pkg/process"
	"github.com/marmos91/dittows/pkg/session"
	"github.com/marmos91/dittows/pkg/settings"
	"github.com/marmos91/dittows/pkg/tree"
	"github.com/marmos91/dittows/pkg/workspace"
)

// command is one subcommand of the CLI.
type command struct {
	name    string
	usage   string
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

// commands is kept in help order.
var commands []command

func init() {
	commands = []command{
		{"tree", "tree", "print the file tree", cmdTree},
		{"paths", "paths", "list every path in pre-order", cmdPaths},
		{"cat", "cat PATH", "print a file", cmdCat},
		{"touch", "touch NAME [--in DIR]", "create an empty file", cmdCreate(tree.KindFile)},
		{"mkdir", "mkdir NAME [--in DIR]", "create a directory", cmdCreate(tree.KindDirectory)},
		{"upload", "upload FILE... [--in DIR]", "import local files", cmdUpload},
		{"rm", "rm PATH...", "select and delete entries", cmdRemove},
		{"edit", "edit [PATH]", "replace file content with stdin", cmdEdit},
		{"open", "open PATH", "open a file as the active tab", cmdOpen},
		{"close", "close PATH", "close a tab", cmdClose},
		{"tabs", "tabs", "list open tabs", cmdTabs},
		{"mv", "mv SRC DSTDIR", "move an entry into a directory", cmdMove},
		{"rename", "rename PATH NAME", "rename an entry", cmdRename},
		{"view", "view NAME", "switch view (ide, processes, settings, profile)", cmdView},
		{"settings", "settings", "print project settings", cmdSettings},
		{"set-name", "set-name NAME", "set the project name", cmdSetName},
		{"env-set", "env-set KEY VALUE", "set an environment variable", cmdEnvSet},
		{"env-rm", "env-rm KEY", "remove an environment variable", cmdEnvRemove},
		{"ssh-add", "ssh-add NAME KEY", "authorize an SSH public key", cmdSSHAdd},
		{"ssh-rm", "ssh-rm ID", "remove an SSH key", cmdSSHRemove},
		{"signin", "signin EMAIL [--remember]", "sign in", cmdSignIn},
		{"signout", "signout", "sign out and reset the session", cmdSignOut},
		{"run", "run", "run the active file and wait for it", cmdRun},
		{"serve-metrics", "serve-metrics", "serve /metrics until interrupted", cmdServeMetrics},
	}
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

// parseArgs parses command flags and enforces an argument count range.
// maxArgs < 0 means unbounded.
func parseArgs(flagSet *pflag.FlagSet, args []string, minArgs, maxArgs int, usage string) ([]string, error) {
	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}
	rest := flagSet.Args()
	if len(rest) < minArgs || (maxArgs >= 0 && len(rest) > maxArgs) {
		return nil, fmt.Errorf("usage: dittows %s", usage)
	}
	return rest, nil
}

func newFlagSet(e *env, name string) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("dittows "+name, pflag.ContinueOnError)
	flagSet.SetOutput(e.stderr)
	return flagSet
}

// resolve maps a user supplied path onto the workspace. Relative paths are
// taken from the root.
func resolve(e *env, p string) string {
	root := e.ws.Snapshot().Tree.RootPath()
	if p == "" || p == "." {
		return root
	}
	if strings.HasPrefix(p, "/") {
		return path.Clean(p)
	}
	return path.Join(root, p)
}

// ============================================================================
// Tree
// ============================================================================

func cmdTree(_ context.Context, e *env, args []string) error {
	if _, err := parseArgs(newFlagSet(e, "tree"), args, 0, 0, "tree"); err != nil {
		return err
	}
	snap := e.ws.Snapshot()
	printTree(e.stdout, snap.Tree.Root(), snap.Session)
	return nil
}

func cmdPaths(_ context.Context, e *env, args []string) error {
	if _, err := parseArgs(newFlagSet(e, "paths"), args, 0, 0, "paths"); err != nil {
		return err
	}
	for _, p := range e.ws.Snapshot().Tree.Paths() {
		fmt.Fprintln(e.stdout, p)
	}
	return nil
}

func cmdCat(_ context.Context, e *env, args []string) error {
	rest, err := parseArgs(newFlagSet(e, "cat"), args, 1, 1, "cat PATH")
	if err != nil {
		return err
	}
	p := resolve(e, rest[0])
	node := e.ws.Snapshot().Tree.Find(p)
	if node == nil {
		return tree.NewError(tree.ErrNotFound, "no such file", p)
	}
	if !node.IsFile() {
		return fmt.Errorf("%s is a directory", p)
	}
	_, err = io.WriteString(e.stdout, node.Content)
	return err
}

func cmdCreate(kind tree.Kind) func(context.Context, *env, []string) error {
	return func(ctx context.Context, e *env, args []string) error {
		name := "touch"
		if kind == tree.KindDirectory {
			name = "mkdir"
		}

		var dir string
		flagSet := newFlagSet(e, name)
		flagSet.StringVar(&dir, "in", "", "parent directory (default: workspace root)")
		rest, err := parseArgs(flagSet, args, 1, 1, name+" NAME [--in DIR]")
		if err != nil {
			return err
		}

		var snap workspace.Snapshot
		if dir == "" {
			snap, err = e.ws.CreateEntry(ctx, kind, rest[0])
		} else {
			snap, err = e.ws.CreateEntryIn(ctx, resolve(e, dir), kind, rest[0])
		}
		if err != nil {
			return err
		}

		parent := snap.Tree.RootPath()
		if dir != "" {
			parent = resolve(e, dir)
		}
		fmt.Fprintf(e.stdout, "Created %s %s\n", kind, tree.ChildPath(parent, strings.TrimSpace(rest[0])))
		return nil
	}
}

func cmdUpload(ctx context.Context, e *env, args []string) error {
	var dir string
	flagSet := newFlagSet(e, "upload")
	flagSet.StringVar(&dir, "in", "", "parent directory (default: workspace root)")
	rest, err := parseArgs(flagSet, args, 1, -1, "upload FILE... [--in DIR]")
	if err != nil {
		return err
	}

	candidates := make([]tree.Candidate, 0, len(rest))
	for _, local := range rest {
		data, err := os.ReadFile(local)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", local, err)
		}
		candidates = append(candidates, tree.Candidate{
			Name:    filepath.Base(local),
			Content: string(data),
		})
	}

	var report workspace.UploadReport
	if dir == "" {
		_, report, err = e.ws.UploadEntries(ctx, candidates)
	} else {
		_, report, err = e.ws.UploadEntriesIn(ctx, resolve(e, dir), candidates)
	}
	if err != nil {
		return err
	}

	for _, p := range report.Added {
		fmt.Fprintf(e.stdout, "Uploaded %s\n", p)
	}
	for _, s := range report.Skipped {
		fmt.Fprintf(e.stdout, "Skipped %s (%s)\n", s.Name, s.Reason)
	}
	return nil
}

func cmdRemove(ctx context.Context, e *env, args []string) error {
	rest, err := parseArgs(newFlagSet(e, "rm"), args, 1, -1, "rm PATH...")
	if err != nil {
		return err
	}

	if _, err := e.ws.ClearSelection(ctx); err != nil {
		return err
	}
	for _, p := range rest {
		if _, err := e.ws.SelectPath(ctx, resolve(e, p), true); err != nil {
			return err
		}
	}

	before := e.ws.Snapshot().Tree.Len()
	snap, err := e.ws.DeleteSelection(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Removed %d entries\n", before-snap.Tree.Len())
	return nil
}

func cmdEdit(ctx context.Context, e *env, args []string) error {
	rest, err := parseArgs(newFlagSet(e, "edit"), args, 0, 1, "edit [PATH]")
	if err != nil {
		return err
	}

	data, err := io.ReadAll(e.stdin)
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}

	if len(rest) == 0 {
		snap, err := e.ws.EditActiveFile(ctx, string(data))
		if err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "Wrote %d bytes to %s\n", len(data), snap.Session.ActivePath())
		return nil
	}

	p := resolve(e, rest[0])
	if !e.ws.Snapshot().Tree.IsFile(p) {
		return tree.NewError(tree.ErrNotFound, "no such file", p)
	}
	if _, err := e.ws.EditFile(ctx, p, string(data)); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Wrote %d bytes to %s\n", len(data), p)
	return nil
}

// ============================================================================
// Tabs
// ============================================================================

func cmdOpen(ctx context.Context, e *env, args []string) error {
	rest, err := parseArgs(newFlagSet(e, "open"), args, 1, 1, "open PATH")
	if err != nil {
		return err
	}
	snap, err := e.ws.SelectPath(ctx, resolve(e, rest[0]), false)
	if err != nil {
		return err
	}
	printTabs(e.stdout, snap.Session)
	return nil
}

func cmdClose(ctx context.Context, e *env, args []string) error {
	rest, err := parseArgs(newFlagSet(e, "close"), args, 1, 1, "close PATH")
	if err != nil {
		return err
	}
	snap, err := e.ws.CloseTab(ctx, resolve(e, rest[0]))
	if err != nil {
		return err
	}
	printTabs(e.stdout, snap.Session)
	return nil
}

func cmdTabs(_ context.Context, e *env, args []string) error {
	if _, err := parseArgs(newFlagSet(e, "tabs"), args, 0, 0, "tabs"); err != nil {
		return err
	}
	printTabs(e.stdout, e.ws.Snapshot().Session)
	return nil
}

func cmdMove(ctx context.Context, e *env, args []string) error {
	rest, err := parseArgs(newFlagSet(e, "mv"), args, 2, 2, "mv SRC DSTDIR")
	if err != nil {
		return err
	}
	src, dst := resolve(e, rest[0]), resolve(e, rest[1])
	if _, err := e.ws.MoveEntry(ctx, src, dst); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Moved %s to %s\n", src, tree.ChildPath(dst, path.Base(src)))
	return nil
}

func cmdRename(ctx context.Context, e *env, args []string) error {
	rest, err := parseArgs(newFlagSet(e, "rename"), args, 2, 2, "rename PATH NAME")
	if err != nil {
		return err
	}
	p := resolve(e, rest[0])
	if _, err := e.ws.RenameEntry(ctx, p, rest[1]); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Renamed %s to %s\n", p, tree.ChildPath(path.Dir(p), strings.TrimSpace(rest[1])))
	return nil
}

func cmdView(ctx context.Context, e *env, args []string) error {
	rest, err := parseArgs(newFlagSet(e, "view"), args, 1, 1, "view NAME")
	if err != nil {
		return err
	}
	snap, err := e.ws.SetView(ctx, session.View(rest[0]))
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "View: %s\n", snap.Session.View())
	return nil
}

// ============================================================================
// Settings
// ============================================================================

func cmdSettings(_ context.Context, e *env, args []string) error {
	if _, err := parseArgs(newFlagSet(e, "settings"), args, 0, 0, "settings"); err != nil {
		return err
	}
	printSettings(e.stdout, e.ws.Snapshot().Settings)
	return nil
}

// updateSettings applies fn and prints the resulting settings.
func updateSettings(ctx context.Context, e *env, fn func(settings.Settings) settings.Settings) error {
	snap, err := e.ws.UpdateSettings(ctx, fn)
	if err != nil {
		return err
	}
	printSettings(e.stdout, snap.Settings)
	return nil
}

func cmdSetName(ctx context.Context, e *env, args []string) error {
	rest, err := parseArgs(newFlagSet(e, "set-name"), args, 1, 1, "set-name NAME")
	if err != nil {
		return err
	}
	return updateSettings(ctx, e, func(s settings.Settings) settings.Settings {
		return s.WithProjectName(strings.TrimSpace(rest[0]))
	})
}

func cmdEnvSet(ctx context.Context, e *env, args []string) error {
	rest, err := parseArgs(newFlagSet(e, "env-set"), args, 2, 2, "env-set KEY VALUE")
	if err != nil {
		return err
	}
	return updateSettings(ctx, e, func(s settings.Settings) settings.Settings {
		return s.SetEnvVar(rest[0], rest[1])
	})
}

func cmdEnvRemove(ctx context.Context, e *env, args []string) error {
	rest, err := parseArgs(newFlagSet(e, "env-rm"), args, 1, 1, "env-rm KEY")
	if err != nil {
		return err
	}
	if _, ok := e.ws.Snapshot().Settings.Env(rest[0]); !ok {
		return fmt.Errorf("environment variable %s is not set", rest[0])
	}
	return updateSettings(ctx, e, func(s settings.Settings) settings.Settings {
		return s.RemoveEnvVar(rest[0])
	})
}

func cmdSSHAdd(ctx context.Context, e *env, args []string) error {
	rest, err := parseArgs(newFlagSet(e, "ssh-add"), args, 2, 2, "ssh-add NAME KEY")
	if err != nil {
		return err
	}
	return updateSettings(ctx, e, func(s settings.Settings) settings.Settings {
		next, _ := s.AddSSHKey(rest[0], rest[1])
		return next
	})
}

func cmdSSHRemove(ctx context.Context, e *env, args []string) error {
	rest, err := parseArgs(newFlagSet(e, "ssh-rm"), args, 1, 1, "ssh-rm ID")
	if err != nil {
		return err
	}
	return updateSettings(ctx, e, func(s settings.Settings) settings.Settings {
		return s.RemoveSSHKey(rest[0])
	})
}

// ============================================================================
// Session
// ============================================================================

func cmdSignIn(ctx context.Context, e *env, args []string) error {
	var remember bool
	flagSet := newFlagSet(e, "signin")
	flagSet.BoolVar(&remember, "remember", false, "keep the session for later invocations")
	rest, err := parseArgs(flagSet, args, 1, 1, "signin EMAIL [--remember]")
	if err != nil {
		return err
	}

	snap, err := e.ws.SignIn(ctx, rest[0], remember)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Signed in as %s\n", snap.User)
	if !remember {
		fmt.Fprintln(e.stdout, "Session not remembered; pass --remember to keep it")
	}
	return nil
}

func cmdSignOut(ctx context.Context, e *env, args []string) error {
	if _, err := parseArgs(newFlagSet(e, "signout"), args, 0, 0, "signout"); err != nil {
		return err
	}
	if _, err := e.ws.SignOut(ctx); err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, "Signed out")
	return nil
}

// ============================================================================
// Processes
// ============================================================================

// pollInterval is how often run checks the simulated process.
const pollInterval = 10 * time.Millisecond

func cmdRun(ctx context.Context, e *env, args []string) error {
	if _, err := parseArgs(newFlagSet(e, "run"), args, 0, 0, "run"); err != nil {
		return err
	}

	snap, err := e.ws.RunActiveFile(ctx)
	if err != nil {
		return err
	}
	started := snap.Processes[0]
	fmt.Fprintf(e.stdout, "Starting %s (%s)\n", started.Command, started.ID)

	p, err := waitRunning(ctx, e.ws, started.ID, e.cfg.Workspace.RunDelay+time.Second)
	if err != nil {
		return err
	}
	printProcess(e.stdout, p)
	return nil
}

// waitRunning polls until process id leaves StatusStarting.
func waitRunning(ctx context.Context, ws *workspace.Workspace, id string, timeout time.Duration) (process.Process, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		for _, p := range ws.Snapshot().Processes {
			if p.ID == id && p.Status != process.StatusStarting {
				return p, nil
			}
		}

		select {
		case <-ctx.Done():
			return process.Process{}, fmt.Errorf("process %s did not start: %w", id, ctx.Err())
		case <-ticker.C:
		}
	}
}

func cmdServeMetrics(ctx context.Context, e *env, args []string) error {
	if _, err := parseArgs(newFlagSet(e, "serve-metrics"), args, 0, 0, "serve-metrics"); err != nil {
		return err
	}
	if e.metrics.Server == nil {
		return fmt.Errorf("metrics are disabled (set metrics.enabled in the config)")
	}

	logger.Info("Serving metrics until interrupted")
	return e.metrics.Server.Start(ctx)
}
