package share

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"sync"

	"go.uber.org/zap"
)

// Opener opens a link in a new browsing context
type Opener interface {
	Open(ctx context.Context, link string) error
}

// LogOpener only records the link; the HTTP client opens it
type LogOpener struct {
	logger *zap.Logger
}

// NewLogOpener creates a LogOpener
func NewLogOpener(logger *zap.Logger) *LogOpener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogOpener{logger: logger}
}

// Open logs the link
func (o *LogOpener) Open(_ context.Context, link string) error {
	o.logger.Debug("Share link ready", zap.String("url", link))
	return nil
}

// CommandOpener launches the desktop's URL handler
type CommandOpener struct {
	logger *zap.Logger
}

// NewCommandOpener creates a CommandOpener
func NewCommandOpener(logger *zap.Logger) *CommandOpener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandOpener{logger: logger}
}

// Open starts the platform opener without waiting for it
func (o *CommandOpener) Open(ctx context.Context, link string) error {
	name, args := openCommand(runtime.GOOS, link)
	cmd := exec.CommandContext(ctx, name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to run %s: %w", name, err)
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			o.logger.Warn("URL handler exited with error", zap.String("command", name), zap.Error(err))
		}
	}()
	return nil
}

func openCommand(goos, link string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{link}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", link}
	default:
		return "xdg-open", []string{link}
	}
}

// RecordingOpener remembers every link it was asked to open
type RecordingOpener struct {
	mu    sync.Mutex
	links []string
	Err   error
}

// Open records link, returning Err if set
func (o *RecordingOpener) Open(_ context.Context, link string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Err != nil {
		return o.Err
	}
	o.links = append(o.links, link)
	return nil
}

// Links returns the recorded links
func (o *RecordingOpener) Links() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.links...)
}
