package x11

import (
	"fmt"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// XKEYBOARD wire encoding. xgb ships no binding for the extension, so the
// few requests the overlay needs are built here the way the generated xgb
// extension packages build theirs.

const xkbExtension = "XKEYBOARD"

const (
	xkbUseExtension = 0
	xkbSelectEvents = 1
	xkbGetState     = 4
	xkbGetNames     = 17
)

const (
	xkbUseCoreKbd uint16 = 0x0100

	xkbEventStateNotify uint16 = 1 << 2

	xkbNameGroupNames uint32 = 1 << 12
)

// xkbStateNotify is the xkbType byte of a StateNotify event.
const xkbStateNotify = 2

const xkbMaxGroups = 4

func xkbOpcode(c *xgb.Conn) byte {
	c.ExtLock.RLock()
	defer c.ExtLock.RUnlock()
	return c.Extensions[xkbExtension]
}

func xkbHeader(buf []byte, opcode, minor byte) {
	buf[0] = opcode
	buf[1] = minor
	xgb.Put16(buf[2:], uint16(len(buf)/4))
}

func useExtensionRequest(opcode byte, major, minor uint16) []byte {
	buf := make([]byte, 8)
	xkbHeader(buf, opcode, xkbUseExtension)
	xgb.Put16(buf[4:], major)
	xgb.Put16(buf[6:], minor)
	return buf
}

// selectEventsRequest selects every event of which on device. No per-event
// details follow because affectWhich and selectAll are the same mask.
func selectEventsRequest(opcode byte, device, which uint16) []byte {
	buf := make([]byte, 16)
	xkbHeader(buf, opcode, xkbSelectEvents)
	xgb.Put16(buf[4:], device)
	xgb.Put16(buf[6:], which)  // affectWhich
	xgb.Put16(buf[8:], 0)      // clear
	xgb.Put16(buf[10:], which) // selectAll
	xgb.Put16(buf[12:], 0)     // affectMap
	xgb.Put16(buf[14:], 0)     // map
	return buf
}

func getStateRequest(opcode byte, device uint16) []byte {
	buf := make([]byte, 8)
	xkbHeader(buf, opcode, xkbGetState)
	xgb.Put16(buf[4:], device)
	return buf
}

func getNamesRequest(opcode byte, device uint16, which uint32) []byte {
	buf := make([]byte, 12)
	xkbHeader(buf, opcode, xkbGetNames)
	xgb.Put16(buf[4:], device)
	xgb.Put32(buf[8:], which)
	return buf
}

type useExtensionReply struct {
	Supported   bool
	ServerMajor uint16
	ServerMinor uint16
}

func parseUseExtensionReply(buf []byte) (useExtensionReply, error) {
	if len(buf) < 12 {
		return useExtensionReply{}, fmt.Errorf("short UseExtension reply: %d bytes", len(buf))
	}
	return useExtensionReply{
		Supported:   buf[1] != 0,
		ServerMajor: xgb.Get16(buf[8:]),
		ServerMinor: xgb.Get16(buf[10:]),
	}, nil
}

// parseGetStateReply returns the effective group.
func parseGetStateReply(buf []byte) (int, error) {
	if len(buf) < 13 {
		return 0, fmt.Errorf("short GetState reply: %d bytes", len(buf))
	}
	return int(buf[12]), nil
}

// groupNameAtom picks the name atom of group out of a GetNames reply that
// was asked for group names only. The value list holds one atom per bit set
// in the group mask, lowest group first. ok is false when the group has no
// name.
func groupNameAtom(buf []byte, group int) (atom xproto.Atom, ok bool, err error) {
	if len(buf) < 32 {
		return 0, false, fmt.Errorf("short GetNames reply: %d bytes", len(buf))
	}
	if xgb.Get32(buf[8:])&xkbNameGroupNames == 0 {
		return 0, false, nil
	}
	if group < 0 || group >= xkbMaxGroups {
		return 0, false, nil
	}

	mask := int(buf[15])
	if mask&(1<<group) == 0 {
		return 0, false, nil
	}

	offset := 32 + 4*xgb.PopCount(mask&((1<<group)-1))
	if len(buf) < offset+4 {
		return 0, false, fmt.Errorf("GetNames reply truncated at group %d", group)
	}

	atom = xproto.Atom(xgb.Get32(buf[offset:]))
	return atom, atom != 0, nil
}

// xkbEvent is any event of the extension. They share one event code and are
// told apart by XkbType.
type xkbEvent struct {
	XkbType  byte
	Sequence uint16
	Device   byte
	// Group is only meaningful for StateNotify.
	Group byte

	buf []byte
}

func newXkbEvent(buf []byte) xgb.Event {
	ev := xkbEvent{buf: buf}
	if len(buf) < 32 {
		return ev
	}
	ev.XkbType = buf[1]
	ev.Sequence = xgb.Get16(buf[2:])
	ev.Device = buf[8]
	if ev.XkbType == xkbStateNotify {
		ev.Group = buf[13]
	}
	return ev
}

func (e xkbEvent) Bytes() []byte {
	return e.buf
}

func (e xkbEvent) String() string {
	if e.XkbType == xkbStateNotify {
		return fmt.Sprintf("XkbStateNotify {Sequence: %d, Device: %d, Group: %d}", e.Sequence, e.Device, e.Group)
	}
	return fmt.Sprintf("XkbEvent {XkbType: %d, Sequence: %d}", e.XkbType, e.Sequence)
}
