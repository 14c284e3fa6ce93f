package ui

import (
	"log"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

const urlPlaceholder = "{url}"

// Opener hands selected URLs to an external command such as xdg-open
type Opener struct {
	command []string
}

// NewOpener parses command. The URL replaces {url} or is appended when absent.
func NewOpener(command string) *Opener {
	return &Opener{command: strings.Fields(command)}
}

// Enabled reports whether a command is configured
func (o *Opener) Enabled() bool {
	return len(o.command) > 0
}

func (o *Opener) args(url string) []string {
	args := make([]string, 0, len(o.command))
	replaced := false
	for _, arg := range o.command[1:] {
		if strings.Contains(arg, urlPlaceholder) {
			arg = strings.ReplaceAll(arg, urlPlaceholder, url)
			replaced = true
		}
		args = append(args, arg)
	}
	if !replaced {
		args = append(args, url)
	}
	return args
}

// Open starts the command in the background; the terminal stays with the UI
func (o *Opener) Open(url string) tea.Cmd {
	return func() tea.Msg {
		cmd := exec.Command(o.command[0], o.args(url)...)
		if err := cmd.Start(); err != nil {
			return openedMsg{url: url, err: err}
		}
		go func() {
			if err := cmd.Wait(); err != nil {
				log.Printf("Open command for %s exited: %v", url, err)
			}
		}()
		return openedMsg{url: url}
	}
}
