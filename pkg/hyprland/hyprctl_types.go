package hyprland

import (
	"strings"
)

// Keyboard is a keyboard device as reported by hyprctl.
type Keyboard struct {
	Name         string
	Main         bool
	Layouts      []string
	Variants     []string
	ActiveKeymap string
	// ActiveLayoutIndex is -1 when the compositor does not report it.
	ActiveLayoutIndex int
}

type keyboard struct {
	Name              string `json:"name"`
	Layout            string `json:"layout"`
	Variant           string `json:"variant"`
	Options           string `json:"options"`
	ActiveKeymap      string `json:"active_keymap"`
	ActiveLayoutIndex *int   `json:"active_layout_index"`
	Main              bool   `json:"main"`
}

type devices struct {
	Keyboards []keyboard `json:"keyboards"`
}

func (k keyboard) ToKeyboard() Keyboard {
	layouts := strings.Split(k.Layout, ",")
	variants := strings.Split(k.Variant, ",")
	for len(variants) < len(layouts) {
		variants = append(variants, "")
	}

	idx := -1
	if k.ActiveLayoutIndex != nil {
		idx = *k.ActiveLayoutIndex
	}

	return Keyboard{
		Name:              k.Name,
		Main:              k.Main,
		Layouts:           layouts,
		Variants:          variants,
		ActiveKeymap:      k.ActiveKeymap,
		ActiveLayoutIndex: idx,
	}
}
