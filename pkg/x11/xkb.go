package x11

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

const rulesNamesAtom = "_XKB_RULES_NAMES"

var (
	ErrGroupOutOfRange = errors.New("group out of range")
	ErrNoXkb           = errors.New("XKEYBOARD extension not available")
)

// initXkb registers the extension opcode and event code on the connection
// and negotiates protocol 1.0.
func (d *Display) initXkb() error {
	reply, err := xproto.QueryExtension(d.conn, uint16(len(xkbExtension)), xkbExtension).Reply()
	switch {
	case err != nil:
		return fmt.Errorf("query extension: %w", err)
	case !reply.Present:
		return ErrNoXkb
	}

	d.conn.ExtLock.Lock()
	d.conn.Extensions[xkbExtension] = reply.MajorOpcode
	d.conn.ExtLock.Unlock()
	xgb.NewEventFuncs[int(reply.FirstEvent)] = newXkbEvent

	cookie := d.conn.NewCookie(true, true)
	d.conn.NewRequest(useExtensionRequest(reply.MajorOpcode, 1, 0), cookie)
	buf, err := cookie.Reply()
	if err != nil {
		return fmt.Errorf("use extension: %w", err)
	}

	version, err := parseUseExtensionReply(buf)
	if err != nil {
		return err
	}
	if !version.Supported {
		return fmt.Errorf("server xkb %d.%d is not supported", version.ServerMajor, version.ServerMinor)
	}

	return nil
}

// selectXkbEvents subscribes to every state notification of the core
// keyboard, so any group change wakes the event loop.
func (d *Display) selectXkbEvents() error {
	cookie := d.conn.NewCookie(true, false)
	d.conn.NewRequest(selectEventsRequest(xkbOpcode(d.conn), xkbUseCoreKbd, xkbEventStateNotify), cookie)
	return cookie.Check()
}

// CurrentGroup returns the effective keyboard group of the core keyboard.
func (d *Display) CurrentGroup() (int, error) {
	cookie := d.conn.NewCookie(true, true)
	d.conn.NewRequest(getStateRequest(xkbOpcode(d.conn), xkbUseCoreKbd), cookie)
	buf, err := cookie.Reply()
	if err != nil {
		return 0, fmt.Errorf("xkb get state: %w", err)
	}
	return parseGetStateReply(buf)
}

// GroupLayout returns the layout code and variant configured for group.
func (d *Display) GroupLayout(group int) (string, string, error) {
	names, err := d.rulesNames()
	if err != nil {
		return "", "", err
	}
	return names.Group(group)
}

// GroupName returns the keymap's name for group, e.g. "English (US)".
// Groups without a name fall back to their layout code from
// _XKB_RULES_NAMES.
func (d *Display) GroupName(group int) (string, error) {
	atom, ok, err := d.groupNameAtom(group)
	if err != nil {
		return "", err
	}

	if ok {
		reply, err := xproto.GetAtomName(d.conn, atom).Reply()
		if err != nil {
			return "", fmt.Errorf("get atom name %d: %w", atom, err)
		}
		if reply.Name != "" {
			return reply.Name, nil
		}
	}

	layout, _, err := d.GroupLayout(group)
	if err != nil {
		return "", fmt.Errorf("group %d has no name: %w", group, err)
	}
	return layout, nil
}

func (d *Display) groupNameAtom(group int) (xproto.Atom, bool, error) {
	cookie := d.conn.NewCookie(true, true)
	d.conn.NewRequest(getNamesRequest(xkbOpcode(d.conn), xkbUseCoreKbd, xkbNameGroupNames), cookie)
	buf, err := cookie.Reply()
	if err != nil {
		return 0, false, fmt.Errorf("xkb get names: %w", err)
	}
	return groupNameAtom(buf, group)
}

func (d *Display) rulesNames() (RulesNames, error) {
	reply, err := xproto.GetProperty(d.conn, false, d.screen.Root, d.rulesAtom,
		xproto.AtomString, 0, 1024).Reply()
	if err != nil {
		return RulesNames{}, fmt.Errorf("get %s: %w", rulesNamesAtom, err)
	}
	if reply.Format != 8 || len(reply.Value) == 0 {
		return RulesNames{}, fmt.Errorf("%s is not set on the root window", rulesNamesAtom)
	}

	return ParseRulesNames(reply.Value), nil
}

func internAtom(conn *xgb.Conn, name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("intern atom %s: %w", name, err)
	}
	return reply.Atom, nil
}

// RulesNames is the content of the _XKB_RULES_NAMES root property as
// written by setxkbmap and the X server.
type RulesNames struct {
	Rules    string
	Model    string
	Layouts  []string
	Variants []string
	Options  string
}

// ParseRulesNames splits the NUL separated property value.
func ParseRulesNames(data []byte) RulesNames {
	fields := bytes.Split(bytes.TrimRight(data, "\x00"), []byte{0})

	field := func(i int) string {
		if i < len(fields) {
			return string(fields[i])
		}
		return ""
	}

	return RulesNames{
		Rules:    field(0),
		Model:    field(1),
		Layouts:  splitList(field(2)),
		Variants: splitList(field(3)),
		Options:  field(4),
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// Group returns the layout and variant of group. A missing variant is
// reported as an empty string.
func (n RulesNames) Group(group int) (string, string, error) {
	if group < 0 || group >= len(n.Layouts) {
		return "", "", fmt.Errorf("%w: group %d, %d layouts configured", ErrGroupOutOfRange, group, len(n.Layouts))
	}

	variant := ""
	if group < len(n.Variants) {
		variant = n.Variants[group]
	}

	return strings.TrimSpace(n.Layouts[group]), strings.TrimSpace(variant), nil
}
