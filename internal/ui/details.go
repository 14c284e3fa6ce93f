package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/noborus/ov/oviewer"

	"searchbox/internal/domain"
)

// DetailsOps shows item details in the ov pager
type DetailsOps struct {
	program *tea.Program // reference to Bubble Tea program for terminal management
}

// NewDetailsOps creates a new details instance
func NewDetailsOps() *DetailsOps {
	return &DetailsOps{}
}

// SetProgram sets the program reference for terminal management
func (d *DetailsOps) SetProgram(p *tea.Program) {
	d.program = p
}

// ShowInPager shows content using ov pager
func (d *DetailsOps) ShowInPager(content string) error {
	if d.program == nil {
		return fmt.Errorf("program not set")
	}

	// Release terminal control to run ov
	if err := d.program.ReleaseTerminal(); err != nil {
		return err
	}

	// Ensure terminal is restored even if ov fails
	defer func() {
		// Small delay to ensure ov has fully exited before restoring terminal
		time.Sleep(100 * time.Millisecond)
		_ = d.program.RestoreTerminal()
	}()

	root, err := oviewer.NewRoot(strings.NewReader(content))
	if err != nil {
		return err
	}

	// Configure ov to not write on exit (to avoid messing with our screen)
	config := oviewer.NewConfig()
	config.IsWriteOnExit = false
	config.IsWriteOriginal = false
	root.SetConfig(config)

	return root.Run()
}

// renderDetails renders everything known about an item
func renderDetails(ref domain.ItemRef, item domain.Item, url string) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		MarginBottom(1)

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("220"))

	var b strings.Builder

	name := item.Name
	if name == "" {
		name = item.ObjectID
	}
	b.WriteString(titleStyle.Render(name))
	b.WriteString("\n")

	field := func(label, value string) {
		if value == "" {
			return
		}
		// Pad before styling so escape codes don't count toward the column
		b.WriteString(fmt.Sprintf("  %s %s\n", keyStyle.Render(fmt.Sprintf("%-12s", label)), value))
	}

	field("Source", ref.SourceID)
	field("Object ID", item.ObjectID)
	field("Brand", item.Brand)
	field("Categories", strings.Join(item.Categories, ", "))
	field("Image", item.Image)
	field("URL", url)

	if len(item.Extra) > 0 {
		keys := make([]string, 0, len(item.Extra))
		for k := range item.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString("\n")
		for _, k := range keys {
			field(k, fmt.Sprint(item.Extra[k]))
		}
	}

	return b.String()
}
