package app

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	osc52 "github.com/aymanbagabas/go-osc52/v2"
)

var clipboardWriteAll = clipboard.WriteAll
var clipboardWriteOSC52 = writeOSC52Clipboard

// copyTextToClipboard tries the system clipboard first and falls back
// to OSC52 for terminals reached over SSH or inside multiplexers.
func copyTextToClipboard(text string) error {
	err := clipboardWriteAll(text)
	if err == nil {
		return nil
	}
	if oscErr := clipboardWriteOSC52(text); oscErr == nil {
		return nil
	}
	return err
}

func (m *Model) copyLastReply() {
	reply := m.lastReply()
	if reply == "" {
		m.showToast(toastLevelWarning, "Nothing to copy")
		return
	}
	if err := copyTextToClipboard(reply); err != nil {
		m.showToast(toastLevelError, "Copy failed: "+err.Error())
		return
	}
	m.showToast(toastLevelInfo, "Copied reply")
}

func writeOSC52Clipboard(text string) error {
	tty, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("open /dev/tty: %w", err)
	}
	defer tty.Close()

	seq := osc52.New(text)
	term := strings.ToLower(os.Getenv("TERM"))
	switch {
	case os.Getenv("TMUX") != "":
		seq = seq.Tmux()
	case strings.HasPrefix(term, "screen"):
		seq = seq.Screen()
	}
	if _, err := seq.WriteTo(tty); err != nil {
		return errors.New("osc52 write failed: " + err.Error())
	}
	return nil
}
