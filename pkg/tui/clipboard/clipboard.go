// Package clipboard copies text out of the terminal UI.
package clipboard

import (
	"os/exec"
	"strings"
	"sync"

	sysclip "github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea/v2"
	cblog "github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

var (
	command   string // ui.copy_command
	commandMu sync.RWMutex

	writeSystem = sysclip.WriteAll
	writeOSC52  = termenv.Copy
)

// SetCopyCommand sets the command that receives copied text on stdin.
// "" goes back to the system clipboard.
func SetCopyCommand(cmd string) {
	commandMu.Lock()
	defer commandMu.Unlock()
	command = strings.TrimSpace(cmd)
}

func copyCommand() string {
	commandMu.RLock()
	defer commandMu.RUnlock()
	return command
}

// CopyMsg is sent after a clipboard copy operation completes.
type CopyMsg struct {
	Success bool
	Text    string
	// Method is "command", "system" or "osc52". OSC 52 has no
	// acknowledgment, so Success is optimistic for it.
	Method string
}

// CopyCmd copies text: the configured command first, then the system
// clipboard, then an OSC 52 escape sequence.
func CopyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return Copy(text)
	}
}

// Copy is the synchronous version of CopyCmd
func Copy(text string) CopyMsg {
	if text == "" {
		return CopyMsg{Success: false}
	}

	if custom := copyCommand(); custom != "" {
		if err := runCommand(custom, text); err != nil {
			cblog.Warn("Copy command failed", "cmd", custom, "err", err)
			return CopyMsg{Success: false, Text: text, Method: "command"}
		}
		return CopyMsg{Success: true, Text: text, Method: "command"}
	}

	if err := writeSystem(text); err == nil {
		cblog.Debug("Copied to clipboard", "len", len(text))
		return CopyMsg{Success: true, Text: text, Method: "system"}
	}

	cblog.Debug("System clipboard unavailable, using OSC 52")
	writeOSC52(text)
	return CopyMsg{Success: true, Text: text, Method: "osc52"}
}

func runCommand(command, text string) error {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return exec.ErrNotFound
	}
	cmd := exec.Command(parts[0], parts[1:]...)
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}
