package hyprland

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
)

// Hyprctl talks to the Hyprland request socket, like the hyprctl tool.
type Hyprctl struct{}

func NewHyprctl() (*Hyprctl, error) {
	if _, err := getSocketPath(Hyperctl); err != nil {
		return nil, err
	}
	return &Hyprctl{}, nil
}

func (c *Hyprctl) GetKeyboards() ([]Keyboard, error) {
	conn, err := c.makeRequest("devices", "j")
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	return decodeKeyboards(conn)
}

func decodeKeyboards(r io.Reader) ([]Keyboard, error) {
	var devs devices
	if err := json.NewDecoder(r).Decode(&devs); err != nil {
		return nil, fmt.Errorf("unmarshal devices: %w", err)
	}

	out := make([]Keyboard, 0, len(devs.Keyboards))
	for _, k := range devs.Keyboards {
		out = append(out, k.ToKeyboard())
	}

	return out, nil
}

func (c *Hyprctl) makeRequest(request string, args string) (net.Conn, error) {
	conn, err := connect(Hyperctl)
	if err != nil {
		return nil, fmt.Errorf("connect to hyprctl socket: %w", err)
	}

	_, err = conn.Write([]byte(fmt.Sprintf("%s/%s", args, request)))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("write to hyprctl socket: %w", err)
	}

	return conn, nil
}
