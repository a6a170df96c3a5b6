package xkblayouts

// GroupLayoutSource reports the layout code and variant of each keyboard
// group.
type GroupLayoutSource interface {
	CurrentGroup() (int, error)
	GroupLayout(group int) (layout string, variant string, err error)
}

type NameStyle int

const (
	// StyleDescription names "us" as "English (US)".
	StyleDescription NameStyle = iota
	// StyleShort names "us" as "en".
	StyleShort
	// StyleCode names "us" as "us" and needs no registry.
	StyleCode
)

// DescriptionSource names groups by their layout code, or through the
// registry.
type DescriptionSource struct {
	source   GroupLayoutSource
	registry *XkbConfigRegistry
	style    NameStyle
}

func NewDescriptionSource(source GroupLayoutSource, registry *XkbConfigRegistry, style NameStyle) *DescriptionSource {
	return &DescriptionSource{
		source:   source,
		registry: registry,
		style:    style,
	}
}

func (s *DescriptionSource) CurrentGroup() (int, error) {
	return s.source.CurrentGroup()
}

func (s *DescriptionSource) GroupName(group int) (string, error) {
	layout, variant, err := s.source.GroupLayout(group)
	if err != nil {
		return "", err
	}

	switch s.style {
	case StyleCode:
		return layout, nil
	case StyleShort:
		return s.registry.ShortName(layout, variant), nil
	default:
		return s.registry.Describe(layout, variant), nil
	}
}
