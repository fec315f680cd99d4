package share

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordingNotifier struct{ messages []string }

func (n *recordingNotifier) Set(message string) { n.messages = append(n.messages, message) }

func TestComposeMessage(t *testing.T) {
	msg := ComposeMessage("Acme", "John Doe", 24.48, "USD")
	assert.Equal(t, "Hello John Doe, here is your receipt for $24.48 from Acme. Please find the attached PDF.", msg)
}

func TestComposeMessage_Placeholders(t *testing.T) {
	msg := ComposeMessage("", "", 12.5, "USD")
	assert.Contains(t, msg, "from our company.")
	assert.True(t, strings.HasPrefix(msg, "Hello, here is"))
	assert.NotContains(t, msg, "from .")

	msg = ComposeMessage("  ", " Jane ", 1, "USD")
	assert.Equal(t, "Hello Jane, here is your receipt for $1.00 from our company. Please find the attached PDF.", msg)
}

func TestComposeMessage_InvalidCurrency(t *testing.T) {
	msg := ComposeMessage("Acme", "Jane", 12.5, "U")
	assert.Contains(t, msg, "for U 12.50 from")
}

func TestEncodeURIComponent(t *testing.T) {
	tests := map[string]string{
		"a b":         "a%20b",
		"A&B=C":       "A%26B%3DC",
		"it's (ok)!*": "it's%20(ok)!*",
		"$24.48":      "%2424.48",
		"a+b":         "a%2Bb",
		"café":        "caf%C3%A9",
		"-_.~":        "-_.~",
	}
	for in, want := range tests {
		assert.Equal(t, want, EncodeURIComponent(in), in)
	}
}

func TestBuildLink_RoundTrips(t *testing.T) {
	msg := ComposeMessage("Ben & Jerry's", "John Doe", 24.48, "USD")
	link := BuildLink(DefaultLinkTemplate, msg)

	assert.True(t, strings.HasPrefix(link, "https://wa.me/?text="))
	assert.Contains(t, link, "Ben%20%26%20Jerry's")

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, msg, u.Query().Get("text"))
}

func TestComposer_Share(t *testing.T) {
	opener := &RecordingOpener{}
	notifier := &recordingNotifier{}
	c := NewComposer("", opener, notifier, zaptest.NewLogger(t))

	handoff, err := c.Share(context.Background(), "hi there", "Receipt-A-2024-01-15.pdf")
	require.NoError(t, err)

	assert.Equal(t, "https://wa.me/?text=hi%20there", handoff.URL)
	assert.Equal(t, []string{handoff.URL}, opener.Links())
	assert.Equal(t, []string{MsgAttach}, notifier.messages)
	assert.Equal(t, "Receipt-A-2024-01-15.pdf", handoff.FileName)
}

func TestComposer_OpenFailure(t *testing.T) {
	opener := &RecordingOpener{Err: errors.New("no browser")}
	notifier := &recordingNotifier{}
	c := NewComposer("", opener, notifier, nil)

	_, err := c.Share(context.Background(), "hi", "x.pdf")
	assert.Error(t, err)
	assert.Empty(t, notifier.messages)
}

func TestOpenCommand(t *testing.T) {
	name, args := openCommand("linux", "https://x")
	assert.Equal(t, "xdg-open", name)
	assert.Equal(t, []string{"https://x"}, args)

	name, _ = openCommand("darwin", "https://x")
	assert.Equal(t, "open", name)
}

func TestQRCode(t *testing.T) {
	png, err := QRCode("https://wa.me/?text=hi", 128)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	s, err := QRTerminal("https://wa.me/?text=hi")
	require.NoError(t, err)
	assert.NotEmpty(t, s)
}
