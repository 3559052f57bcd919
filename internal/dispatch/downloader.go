// Package dispatch hands sliced chunk manifests to the outside world.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultCommandTimeout bounds one downloader command run. Chunk downloads
// of an hour of video can legitimately take a while.
const DefaultCommandTimeout = 30 * time.Minute

// CommandDownloader implements archive.Downloader. It writes each chunk
// manifest under a root directory and, when a command is configured, runs it
// against the written manifest. Re-dispatching the same chunk overwrites the
// previous attempt, which keeps retries after a crash safe.
type CommandDownloader struct {
	root    string
	command []string
	timeout time.Duration
	log     *slog.Logger
}

// NewCommandDownloader returns a downloader rooted at root. command is the
// external tool invocation with {manifest} and {output} placeholders; an
// empty command means manifest-only mode (nothing is executed).
func NewCommandDownloader(root string, command []string, timeout time.Duration, log *slog.Logger) *CommandDownloader {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &CommandDownloader{root: root, command: command, timeout: timeout, log: log}
}

// Dispatch implements archive.Downloader.
func (d *CommandDownloader) Dispatch(ctx context.Context, manifest string, destinationHint string) error {
	manifestPath := filepath.Join(d.root, filepath.FromSlash(destinationHint)+".m3u8")
	dir := filepath.Dir(manifestPath)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create destination %s: %w", dir, err)
	}
	if err := os.WriteFile(manifestPath, []byte(manifest), 0o644); err != nil {
		return fmt.Errorf("write chunk manifest: %w", err)
	}
	if err := d.writeMetadata(dir, destinationHint); err != nil {
		return err
	}

	if len(d.command) == 0 {
		d.log.Info("chunk manifest written", slog.String("manifest", manifestPath))
		return nil
	}

	output := strings.TrimSuffix(manifestPath, ".m3u8") + ".mp4"
	args := substituteArgs(d.command, manifestPath, output)

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	d.log.Info("running downloader command",
		slog.String("command", strings.Join(args, " ")),
		slog.String("output", output))

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if combined, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("downloader command: %w: %s", err, strings.TrimSpace(string(combined)))
	}
	return nil
}

// writeMetadata drops a small sidecar next to the chunks once per recording
// folder.
func (d *CommandDownloader) writeMetadata(dir, destinationHint string) error {
	metaPath := filepath.Join(dir, "metadata.md")
	if _, err := os.Stat(metaPath); err == nil {
		return nil
	}

	var b strings.Builder
	b.WriteString("```\n")
	fmt.Fprintf(&b, "Destination: %s\n", destinationHint)
	fmt.Fprintf(&b, "Archived: %s\n", time.Now().UTC().Format(time.RFC3339))
	b.WriteString("```\n")

	if err := os.WriteFile(metaPath, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write metadata sidecar: %w", err)
	}
	return nil
}

// substituteArgs replaces the {manifest} and {output} placeholders in the
// configured command.
func substituteArgs(command []string, manifestPath, outputPath string) []string {
	args := make([]string, 0, len(command))
	for _, arg := range command {
		arg = strings.ReplaceAll(arg, "{manifest}", manifestPath)
		arg = strings.ReplaceAll(arg, "{output}", outputPath)
		args = append(args, arg)
	}
	return args
}
