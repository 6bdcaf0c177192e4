package media

//go:generate $MOCKGEN -source=player.go -destination=mocks/player_mock.go

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
)

// Player renders a local video. It is a black box receiving a file URI.
type Player interface {
	// Open hands uri to the player.
	Open(ctx context.Context, uri string) error
}

// ExecPlayer opens videos with an external command. The URI is appended as the last argument.
type ExecPlayer struct {
	// command is the program followed by its fixed arguments.
	command []string
}

// ErrEmptyPlayerCommand indicates that no player command is available for this system.
var ErrEmptyPlayerCommand = errors.New("player command is empty")

// NewExecPlayer creates a player running command, or the system opener if command is empty.
func NewExecPlayer(command []string) *ExecPlayer {
	if len(command) == 0 {
		command = defaultPlayerCommand(runtime.GOOS)
	}

	return &ExecPlayer{command: slices.Clone(command)}
}

// Open runs the player and waits for it to exit.
func (p *ExecPlayer) Open(ctx context.Context, uri string) error {
	if len(p.command) == 0 {
		return ErrEmptyPlayerCommand
	}

	args := append(slices.Clone(p.command[1:]), uri)

	//nolint:gosec // The command comes from the user's own configuration.
	output, err := exec.CommandContext(ctx, p.command[0], args...).CombinedOutput()
	if err != nil {
		if details := strings.TrimSpace(string(output)); details != "" {
			return fmt.Errorf("%w: %s", err, details)
		}

		return err
	}

	return nil
}

// defaultPlayerCommand returns the program opening files with their default application.
func defaultPlayerCommand(goos string) []string {
	switch goos {
	case "darwin":
		return []string{"open"}
	case "windows":
		return []string{"rundll32", "url.dll,FileProtocolHandler"}
	default:
		return []string{"xdg-open"}
	}
}

// FileURI returns the file URI of path.
func FileURI(path string) string {
	if absolutePath, err := filepath.Abs(path); err == nil {
		path = absolutePath
	}

	path = filepath.ToSlash(path)
	if !strings.HasPrefix(path, "/") {
		// Windows drive letters.
		path = "/" + path
	}

	return (&url.URL{Scheme: "file", Path: path}).String()
}
