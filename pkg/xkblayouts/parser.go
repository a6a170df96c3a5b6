package xkblayouts

import (
	"encoding/xml"
	"fmt"
	"os"
)

func ParseLayouts(path string) (*XkbConfigRegistry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	registry := &XkbConfigRegistry{}
	err = xml.NewDecoder(file).Decode(registry)
	if err != nil {
		return nil, fmt.Errorf("decode xml: %w", err)
	}

	return registry, nil
}

func (r *XkbConfigRegistry) GetLayoutPrettyName(layout, variant string) string {
	for _, l := range r.LayoutList.Layout {
		if l.ConfigItem.Name != layout {
			continue
		}

		if variant == "" {
			return l.ConfigItem.Description
		}

		for _, v := range l.VariantList.Variant {
			if v.ConfigItem.Name == variant {
				return v.ConfigItem.Description
			}
		}
	}

	return ""
}

func (r *XkbConfigRegistry) GetLayoutAndVariantFromPrettyName(prettyName string) (string, string) {
	for _, l := range r.LayoutList.Layout {
		if l.ConfigItem.Description == prettyName {
			return l.ConfigItem.Name, ""
		}

		for _, v := range l.VariantList.Variant {
			if v.ConfigItem.Description == prettyName {
				return l.ConfigItem.Name, v.ConfigItem.Name
			}
		}
	}

	return "", ""
}

// Describe returns the human-readable name of a layout, falling back to the
// plain layout when the variant is unknown and to the code itself when the
// layout is unknown.
func (r *XkbConfigRegistry) Describe(layout, variant string) string {
	if name := r.GetLayoutPrettyName(layout, variant); name != "" {
		return name
	}
	if variant != "" {
		if name := r.GetLayoutPrettyName(layout, ""); name != "" {
			return name
		}
	}
	return layout
}

// ShortName returns the registry short description ("en", "ru") of a
// layout, preferring the variant's own when it has one.
func (r *XkbConfigRegistry) ShortName(layout, variant string) string {
	for _, l := range r.LayoutList.Layout {
		if l.ConfigItem.Name != layout {
			continue
		}

		for _, v := range l.VariantList.Variant {
			if variant != "" && v.ConfigItem.Name == variant && v.ConfigItem.ShortDescription != "" {
				return v.ConfigItem.ShortDescription
			}
		}

		if l.ConfigItem.ShortDescription != "" {
			return l.ConfigItem.ShortDescription
		}
	}

	return layout
}
