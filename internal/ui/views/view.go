package views

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"searchbox/internal/bridge"
	"searchbox/internal/domain"
)

const (
	markOpen  = "<mark>"
	markClose = "</mark>"
)

// FooterTarget is the target of the status and help lines, outside the search box
const FooterTarget bridge.Target = "footer"

// ViewState contains all the state needed for rendering
type ViewState struct {
	Width         int
	Height        int
	Title         string
	Input         string // rendered text input
	State         domain.State
	Status        string // data-status of the panel binding
	StatusMessage string
	Help          string
	Elements      bridge.Elements
}

// Frame is a rendered screen plus what each row shows, for pointer hit testing
type Frame struct {
	Content string
	Targets []bridge.Target
	Items   map[int]domain.ItemRef
}

// At returns the target drawn on row y
func (f Frame) At(y int) bridge.Target {
	if y < 0 || y >= len(f.Targets) {
		return ""
	}
	return f.Targets[y]
}

// ItemAt returns the item drawn on row y
func (f Frame) ItemAt(y int) (domain.ItemRef, bool) {
	ref, ok := f.Items[y]
	return ref, ok
}

// ItemTarget is the target of an item row inside panel
func ItemTarget(panel bridge.Target, ref domain.ItemRef) bridge.Target {
	return bridge.Target(string(panel) + "/" + ref.SourceID + "/" + ref.ObjectID)
}

// Renderer handles all view rendering
type Renderer struct {
	styles *Styles
}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{styles: NewStyles()}
}

type row struct {
	text   string
	target bridge.Target
	ref    *domain.ItemRef
	active bool
}

// Render produces the complete view
func (r *Renderer) Render(vs ViewState) Frame {
	var rows []row
	add := func(text string, target bridge.Target) {
		rows = append(rows, row{text: text, target: target})
	}

	add(r.renderTitle(vs), vs.Elements.Form)
	add(vs.Input, vs.Elements.Input)
	add("", vs.Elements.Form)

	footer := r.renderFooter(vs)

	if vs.State.IsOpen {
		panel := r.renderPanel(vs)
		available := len(panel)
		if vs.Height > 0 {
			available = vs.Height - len(rows) - len(footer)
		}
		rows = append(rows, r.window(panel, available, vs.Elements.Panel)...)
	}

	for _, line := range footer {
		add(line, FooterTarget)
	}

	frame := Frame{
		Targets: make([]bridge.Target, len(rows)),
		Items:   make(map[int]domain.ItemRef),
	}
	lines := make([]string, len(rows))
	clip := lipgloss.NewStyle()
	if vs.Width > 0 {
		clip = clip.MaxWidth(vs.Width)
	}
	for i, rw := range rows {
		lines[i] = clip.Render(rw.text)
		frame.Targets[i] = rw.target
		if rw.ref != nil {
			frame.Items[i] = *rw.ref
		}
	}
	frame.Content = strings.Join(lines, "\n")
	return frame
}

func (r *Renderer) renderTitle(vs ViewState) string {
	logo := r.styles.Title.Render("searchbox")
	label := r.styles.Label.Render(vs.Title)
	left := logo + "  " + label

	indicator := r.renderIndicator(vs.Status)
	if indicator == "" || vs.Width == 0 {
		if indicator != "" {
			return left + "  " + indicator
		}
		return left
	}

	padding := vs.Width - lipgloss.Width(left) - lipgloss.Width(indicator)
	if padding < 2 {
		padding = 2
	}
	return left + strings.Repeat(" ", padding) + indicator
}

func (r *Renderer) renderIndicator(status string) string {
	switch domain.Status(status) {
	case domain.StatusLoading:
		spinner := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
		frame := int(time.Now().UnixMilli()/80) % len(spinner)
		return r.styles.StatusLoading.Render(fmt.Sprintf("%s Searching", spinner[frame]))
	case domain.StatusStalled:
		return r.styles.StatusWarning.Render("… Still searching")
	case domain.StatusError:
		return r.styles.StatusError.Render("✗ Search failed")
	}
	return ""
}

// renderPanel returns one row per section header, item, fault or notice
func (r *Renderer) renderPanel(vs ViewState) []row {
	var rows []row
	s := vs.State

	for _, c := range s.Collections {
		id := c.SourceID()
		fault := s.Faults[id]
		if len(c.Items) == 0 && fault == nil {
			continue
		}

		rows = append(rows, row{
			text:   r.styles.Section.Render(id),
			target: vs.Elements.Panel,
		})
		if fault != nil {
			rows = append(rows, row{
				text:   r.styles.Item.Render(r.styles.StatusError.Render("⚠ " + faultText(fault))),
				target: vs.Elements.Panel,
			})
			continue
		}
		for _, item := range c.Items {
			ref := domain.ItemRef{SourceID: id, ObjectID: item.ObjectID}
			active := s.IsActive(ref)
			rows = append(rows, row{
				text:   r.renderItem(item, active),
				target: ItemTarget(vs.Elements.Panel, ref),
				ref:    &ref,
				active: active,
			})
		}
	}

	if len(rows) == 0 {
		var notice string
		switch s.Status {
		case domain.StatusLoading, domain.StatusStalled:
			notice = "Searching…"
		default:
			if s.Query.IsEmpty() {
				notice = "Start typing to search"
			} else {
				notice = fmt.Sprintf("No results for %q", string(s.Query))
			}
		}
		rows = append(rows, row{text: r.styles.Empty.Render(notice), target: vs.Elements.Panel})
	}
	return rows
}

func (r *Renderer) renderItem(item domain.Item, active bool) string {
	// Highlighted is escaped markup, Name is plain text
	name := r.RenderHighlight(item.Highlighted)
	if item.Highlighted == "" {
		name = item.Name
		if name == "" {
			name = item.ObjectID
		}
	}

	var line strings.Builder
	if active {
		line.WriteString("▸ ")
	} else {
		line.WriteString("  ")
	}
	line.WriteString(name)

	var meta []string
	if item.Brand != "" {
		meta = append(meta, item.Brand)
	}
	if cat := item.Category(); cat != "" {
		meta = append(meta, cat)
	}
	if len(meta) > 0 {
		line.WriteString("  ")
		line.WriteString(r.styles.Meta.Render(strings.Join(meta, " · ")))
	}

	if active {
		return r.styles.ActiveItem.Render(line.String())
	}
	return r.styles.Item.Render(line.String())
}

// window keeps the active row visible when the panel does not fit
func (r *Renderer) window(rows []row, available int, panel bridge.Target) []row {
	if available <= 0 {
		return nil
	}
	if len(rows) <= available {
		return rows
	}
	if available == 1 {
		return []row{{text: r.styles.Scroll.Render(fmt.Sprintf("… %d more", len(rows))), target: panel}}
	}

	visible := available - 1 // last row tells how many are hidden
	active := 0
	for i, rw := range rows {
		if rw.active {
			active = i
			break
		}
	}

	start := 0
	if active >= visible {
		start = active - visible + 1
	}
	end := start + visible
	if end > len(rows) {
		end = len(rows)
	}

	out := append([]row{}, rows[start:end]...)
	hidden := len(rows) - (end - start)
	out = append(out, row{text: r.styles.Scroll.Render(fmt.Sprintf("… %d more", hidden)), target: panel})
	return out
}

func (r *Renderer) renderFooter(vs ViewState) []string {
	var lines []string
	if vs.StatusMessage != "" {
		lines = append(lines, r.styles.Status.Render(vs.StatusMessage))
	} else if vs.State.IsOpen && vs.State.Status == domain.StatusIdle {
		if n := vs.State.TotalItems(); n > 0 {
			lines = append(lines, r.styles.StatusSuccess.Render(fmt.Sprintf("%d results", n)))
		}
	}
	if vs.Help != "" {
		lines = append(lines, r.styles.Help.Render(vs.Help))
	}
	return lines
}

// RenderHighlight styles the <mark> parts of a highlighted value
func (r *Renderer) RenderHighlight(value string) string {
	var out strings.Builder
	for _, seg := range SplitHighlight(value) {
		if seg.Marked {
			out.WriteString(r.styles.Highlight.Render(seg.Text))
		} else {
			out.WriteString(seg.Text)
		}
	}
	return out.String()
}

// Segment is a run of text that is either matched or not
type Segment struct {
	Text   string
	Marked bool
}

// SplitHighlight splits a value carrying <mark>...</mark> tags into segments.
// Entities are unescaped; an unterminated mark runs to the end.
func SplitHighlight(value string) []Segment {
	var segs []Segment
	rest := value
	for rest != "" {
		before, after, found := strings.Cut(rest, markOpen)
		if before != "" {
			segs = append(segs, Segment{Text: html.UnescapeString(before)})
		}
		if !found {
			break
		}
		marked, tail, _ := strings.Cut(after, markClose)
		if marked != "" {
			segs = append(segs, Segment{Text: html.UnescapeString(marked), Marked: true})
		}
		rest = tail
	}
	return segs
}

func faultText(err error) string {
	var fe *domain.SourceFetchError
	if errors.As(err, &fe) && fe.Err != nil {
		return fe.Err.Error()
	}
	return err.Error()
}
