package link

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLauncher struct {
	opened []string
	err    error
}

func (l *recordingLauncher) OpenURL(url string) error {
	l.opened = append(l.opened, url)
	return l.err
}

func TestOpen_LaunchesValidURL(t *testing.T) {
	l := &recordingLauncher{}
	o := NewOpener(l, nil)

	o.Open("  https://meet.example.com/abc-defg-hij ")
	require.Len(t, l.opened, 1)
	assert.Equal(t, "https://meet.example.com/abc-defg-hij", l.opened[0])
}

func TestOpen_MalformedURLIsSilent(t *testing.T) {
	l := &recordingLauncher{}
	o := NewOpener(l, nil)

	for _, bad := range []string{"", "   ", "not a url", "://missing-scheme", "http://[::1", "/relative/path", "https://"} {
		assert.NotPanics(t, func() { o.Open(bad) }, bad)
	}
	assert.Empty(t, l.opened, "无效链接不应交给系统")
}

func TestOpen_LauncherFailureIsSwallowed(t *testing.T) {
	l := &recordingLauncher{err: errors.New("xdg-open not found")}
	o := NewOpener(l, nil)

	assert.NotPanics(t, func() { o.Open("https://example.com") })
	assert.Len(t, l.opened, 1)
}

func TestValidate(t *testing.T) {
	valid := []string{
		"https://example.com/path?q=1",
		"mailto:someone@example.com",
		"zoommtg://zoom.us/join?confno=123",
		"file:///tmp/agenda.pdf",
	}
	for _, raw := range valid {
		_, err := Validate(raw)
		assert.NoError(t, err, raw)
	}

	_, err := Validate("example.com")
	assert.Error(t, err)
}

func TestLauncherFunc(t *testing.T) {
	var got string
	f := LauncherFunc(func(url string) error {
		got = url
		return nil
	})
	require.NoError(t, f.OpenURL("https://example.com"))
	assert.Equal(t, "https://example.com", got)
}
