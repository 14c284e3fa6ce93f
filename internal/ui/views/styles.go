package views

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all the style definitions for the UI
type Styles struct {
	Title         lipgloss.Style
	Label         lipgloss.Style
	Dim           lipgloss.Style
	Section       lipgloss.Style
	Item          lipgloss.Style
	ActiveItem    lipgloss.Style
	Highlight     lipgloss.Style
	Meta          lipgloss.Style
	Empty         lipgloss.Style
	Help          lipgloss.Style
	Scroll        lipgloss.Style
	Status        lipgloss.Style
	StatusError   lipgloss.Style
	StatusWarning lipgloss.Style
	StatusLoading lipgloss.Style
	StatusSuccess lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title:         lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
		Label:         lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Dim:           lipgloss.NewStyle().Faint(true),
		Section:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Item:          lipgloss.NewStyle().PaddingLeft(2),
		ActiveItem:    lipgloss.NewStyle().PaddingLeft(2).Background(lipgloss.Color("238")),
		Highlight:     lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		Meta:          lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Empty:         lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true),
		Help:          lipgloss.NewStyle().Faint(true),
		Scroll:        lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true),
		Status:        lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")), // red
		StatusWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // yellow
		StatusLoading: lipgloss.NewStyle().Foreground(lipgloss.Color("241")), // gray
		StatusSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("78")),  // green
	}
}
