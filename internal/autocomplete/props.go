package autocomplete

import (
	"strconv"

	"searchbox/internal/domain"
)

// MaxQueryLength is the maxlength advertised on the input binding
const MaxQueryLength = 512

// Props is what a renderer attaches to one element: attributes verbatim, and the
// handlers it should call when the matching interaction happens. Nil handlers are unused.
type Props struct {
	Attrs map[string]string

	OnInput      func(value string)
	OnKeyDown    func(key Key) bool
	OnFocus      func()
	OnBlur       func()
	OnClick      func()
	OnMouseMove  func()
	OnMouseLeave func()
	OnSubmit     func()
	OnReset      func()
}

// Attr returns an attribute value, "" when absent
func (p Props) Attr(name string) string {
	return p.Attrs[name]
}

func (c *Controller) labelID() string { return c.opts.ID + "-label" }
func (c *Controller) inputID() string { return c.opts.ID + "-input" }
func (c *Controller) listID() string  { return c.opts.ID + "-list" }

// ItemID returns the element id of an item binding
func (c *Controller) ItemID(ref domain.ItemRef) string {
	return c.opts.ID + "-item-" + ref.SourceID + "-" + ref.ObjectID
}

// RootProps binds the element wrapping input and panel
func (c *Controller) RootProps() Props {
	s := c.Snapshot()
	attrs := map[string]string{
		"role":            "combobox",
		"aria-expanded":   strconv.FormatBool(s.IsOpen),
		"aria-haspopup":   "listbox",
		"aria-labelledby": c.labelID(),
	}
	if s.IsOpen {
		attrs["aria-controls"] = c.listID()
	}
	return Props{Attrs: attrs}
}

// FormProps binds the search form
func (c *Controller) FormProps() Props {
	return Props{
		Attrs: map[string]string{
			"role":       "search",
			"action":     "",
			"novalidate": "",
		},
		OnSubmit: func() {
			if _, ok := c.SelectActive(); !ok {
				c.Submit()
			}
		},
		OnReset: c.Reset,
	}
}

// LabelProps binds the input's label
func (c *Controller) LabelProps() Props {
	return Props{
		Attrs: map[string]string{
			"id":  c.labelID(),
			"for": c.inputID(),
		},
	}
}

// InputProps binds the text input
func (c *Controller) InputProps() Props {
	s := c.Snapshot()
	attrs := map[string]string{
		"id":                c.inputID(),
		"type":              "search",
		"value":             string(s.Query),
		"placeholder":       c.opts.Placeholder,
		"aria-autocomplete": "both",
		"aria-labelledby":   c.labelID(),
		"autocomplete":      "off",
		"autocorrect":       "off",
		"autocapitalize":    "off",
		"spellcheck":        "false",
		"maxlength":         strconv.Itoa(MaxQueryLength),
		"enterkeyhint":      "search",
	}
	if s.IsOpen {
		attrs["aria-controls"] = c.listID()
		if s.ActiveItemID != nil {
			attrs["aria-activedescendant"] = c.ItemID(*s.ActiveItemID)
			attrs["enterkeyhint"] = "go"
		}
	}
	return Props{
		Attrs:     attrs,
		OnInput:   func(value string) { c.Type(value) },
		OnKeyDown: c.HandleKey,
		OnFocus:   c.Focus,
		OnBlur:    c.Blur,
		OnClick: func() {
			if !c.Snapshot().IsOpen {
				c.Focus()
			}
		},
	}
}

// PanelProps binds the results panel
func (c *Controller) PanelProps() Props {
	s := c.Snapshot()
	return Props{
		Attrs: map[string]string{
			"data-status": string(s.Status),
		},
		OnMouseLeave: c.ClearActive,
	}
}

// ListProps binds the list of one collection
func (c *Controller) ListProps() Props {
	return Props{
		Attrs: map[string]string{
			"id":              c.listID(),
			"role":            "listbox",
			"aria-labelledby": c.labelID(),
		},
	}
}

// ItemProps binds one item
func (c *Controller) ItemProps(ref domain.ItemRef) Props {
	s := c.Snapshot()
	return Props{
		Attrs: map[string]string{
			"id":            c.ItemID(ref),
			"role":          "option",
			"aria-selected": strconv.FormatBool(s.IsActive(ref)),
		},
		OnMouseMove: func() { c.SetActive(ref) },
		OnClick:     func() { c.Select(ref) },
	}
}
