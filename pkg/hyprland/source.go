package hyprland

import (
	"errors"
	"fmt"
	"strings"

	"codeberg.org/miketth/kblayout/pkg/xkblayouts"
)

var ErrKeyboardNotFound = errors.New("keyboard not found")

type KeyboardLister interface {
	GetKeyboards() ([]Keyboard, error)
}

// Source reports the active layout group of one Hyprland keyboard.
type Source struct {
	keyboards KeyboardLister
	registry  *xkblayouts.XkbConfigRegistry
	device    string

	// keyed by layoutKey, so a reordered layout list starts afresh
	layoutIdxCache map[string]map[string]int
}

// NewSource watches device, or the main keyboard when device is empty.
// registry may be nil when the compositor reports active_layout_index.
func NewSource(keyboards KeyboardLister, registry *xkblayouts.XkbConfigRegistry, device string) *Source {
	return &Source{
		keyboards:      keyboards,
		registry:       registry,
		device:         device,
		layoutIdxCache: make(map[string]map[string]int),
	}
}

func (s *Source) keyboard() (Keyboard, error) {
	keyboards, err := s.keyboards.GetKeyboards()
	if err != nil {
		return Keyboard{}, fmt.Errorf("get keyboards: %w", err)
	}

	return selectKeyboard(keyboards, s.device)
}

func selectKeyboard(keyboards []Keyboard, device string) (Keyboard, error) {
	if device != "" {
		for _, k := range keyboards {
			if k.Name == device {
				return k, nil
			}
		}
		return Keyboard{}, fmt.Errorf("%w: %q", ErrKeyboardNotFound, device)
	}

	for _, k := range keyboards {
		if k.Main {
			return k, nil
		}
	}
	if len(keyboards) > 0 {
		return keyboards[0], nil
	}

	return Keyboard{}, fmt.Errorf("%w: no keyboards", ErrKeyboardNotFound)
}

func (s *Source) CurrentGroup() (int, error) {
	kb, err := s.keyboard()
	if err != nil {
		return 0, err
	}

	if kb.ActiveLayoutIndex >= 0 {
		return kb.ActiveLayoutIndex, nil
	}

	return s.getLayoutIndexForDevice(kb)
}

// getLayoutIndexForDevice maps the pretty keymap name hyprctl reports back
// to the position of that layout in the keyboard's layout list.
func (s *Source) getLayoutIndexForDevice(kb Keyboard) (int, error) {
	key := layoutKey(kb)
	if idx, ok := s.layoutIdxCache[key][kb.ActiveKeymap]; ok {
		return idx, nil
	}

	if s.registry == nil {
		return -1, fmt.Errorf("keymap %q: no layout registry to resolve it", kb.ActiveKeymap)
	}

	layoutCode, variantCode := s.registry.GetLayoutAndVariantFromPrettyName(kb.ActiveKeymap)
	if layoutCode == "" {
		return -1, fmt.Errorf("layout %q not found", kb.ActiveKeymap)
	}

	for i := range kb.Layouts {
		if kb.Layouts[i] == layoutCode && kb.Variants[i] == variantCode {
			if s.layoutIdxCache[key] == nil {
				s.layoutIdxCache[key] = make(map[string]int)
			}

			s.layoutIdxCache[key][kb.ActiveKeymap] = i
			return i, nil
		}
	}

	return -1, fmt.Errorf("layout %q not found for keyboard %q", kb.ActiveKeymap, kb.Name)
}

func layoutKey(kb Keyboard) string {
	return kb.Name + "\x00" + strings.Join(kb.Layouts, ",") + "\x00" + strings.Join(kb.Variants, ",")
}

func (s *Source) GroupLayout(group int) (string, string, error) {
	kb, err := s.keyboard()
	if err != nil {
		return "", "", err
	}

	if group < 0 || group >= len(kb.Layouts) {
		return "", "", fmt.Errorf("group %d out of range for keyboard %q", group, kb.Name)
	}

	return kb.Layouts[group], kb.Variants[group], nil
}

// GroupName describes group the way hyprctl names keymaps, e.g.
// "English (US)". Without a registry it is the layout code.
func (s *Source) GroupName(group int) (string, error) {
	layout, variant, err := s.GroupLayout(group)
	if err != nil {
		return "", err
	}
	if s.registry == nil {
		return layout, nil
	}
	return s.registry.Describe(layout, variant), nil
}
