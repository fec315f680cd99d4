package shell

import (
	"errors"
	"fmt"

	"github.com/thereceipt/quickreceipt/internal/view"
	"go.uber.org/zap"
)

// Breakpoint is the viewport width at which the inline preview appears
const Breakpoint = 768

// CaptureState is the layout the user currently sees
type CaptureState int

const (
	DesktopInline CaptureState = iota
	MobileModalClosed
	MobileModalOpen
)

func (c CaptureState) String() string {
	switch c {
	case DesktopInline:
		return "desktop_inline"
	case MobileModalClosed:
		return "mobile_modal_closed"
	case MobileModalOpen:
		return "mobile_modal_open"
	default:
		return fmt.Sprintf("capture_state(%d)", int(c))
	}
}

// MarshalText encodes the state by name
func (c CaptureState) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Instance names
const (
	InlineInstance    = "inline"
	ModalInstance     = "modal"
	OffscreenInstance = "offscreen"
)

// CaptureState derives the state from the viewport and modal flags
func (s *Shell) CaptureState() CaptureState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.captureStateLocked()
}

func (s *Shell) captureStateLocked() CaptureState {
	switch {
	case s.desktop:
		return DesktopInline
	case s.previewOpen:
		return MobileModalOpen
	default:
		return MobileModalClosed
	}
}

// SelectCaptureSource returns the instance to export from in state.
// The visible instance wins when it can be captured; the off-screen copy
// is always mounted and laid out, so the result is never nil.
func (s *Shell) SelectCaptureSource(state CaptureState) *view.Instance {
	var visible *view.Instance
	switch state {
	case DesktopInline:
		visible = s.inline
	case MobileModalOpen:
		visible = s.modal
	}

	if visible.Capturable() {
		return visible
	}
	return s.offscreen
}

// CaptureSource selects for the current state
func (s *Shell) CaptureSource() *view.Instance {
	return s.SelectCaptureSource(s.CaptureState())
}

// liveSource picks the capture instance when the pipeline captures, after
// the settle delay, so closing or hiding the chosen preview in between
// falls back to the off-screen copy.
type liveSource struct {
	shell *Shell
}

func (l liveSource) Capture() (*view.Document, error) {
	src := l.shell.CaptureSource()
	l.shell.logger.Debug("Capturing", zap.String("source", src.Name()))
	doc, err := src.Capture()
	if err != nil && src != l.shell.offscreen &&
		(errors.Is(err, view.ErrDetached) || errors.Is(err, view.ErrNotLaidOut)) {
		return l.shell.offscreen.Capture()
	}
	return doc, err
}

// SetViewport applies a new viewport width
func (s *Shell) SetViewport(width int) CaptureState {
	s.mu.Lock()
	s.viewportWidth = width
	s.desktop = width >= Breakpoint
	if s.desktop {
		// The modal only exists on narrow layouts
		s.previewOpen = false
	}
	s.applyLayoutLocked()
	state := s.captureStateLocked()
	s.mu.Unlock()

	s.logger.Debug("Viewport changed", zap.Int("width", width), zap.Stringer("state", state))
	s.publish()
	return state
}

// OpenPreview shows the mobile preview modal. It has no effect on desktop.
func (s *Shell) OpenPreview() CaptureState {
	return s.setPreview(true)
}

// ClosePreview hides the mobile preview modal
func (s *Shell) ClosePreview() CaptureState {
	return s.setPreview(false)
}

func (s *Shell) setPreview(open bool) CaptureState {
	s.mu.Lock()
	if !s.desktop {
		s.previewOpen = open
	}
	s.applyLayoutLocked()
	state := s.captureStateLocked()
	s.mu.Unlock()

	s.publish()
	return state
}

// applyLayoutLocked mounts and hides instances to match the state.
// The inline pane stays mounted on narrow screens but is not laid out.
func (s *Shell) applyLayoutLocked() {
	s.inline.Mount()
	s.inline.SetHidden(!s.desktop)

	if !s.desktop && s.previewOpen {
		s.modal.Mount()
	} else {
		s.modal.Unmount()
	}

	s.offscreen.Mount()
}
