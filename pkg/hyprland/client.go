package hyprland

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"

	"codeberg.org/miketth/kblayout/pkg/indicator"
)

// Client listens on the Hyprland event socket (socket2).
type Client struct {
	conn   net.Conn
	reader *bufio.Reader

	events    chan indicator.Event
	once      sync.Once
	done      chan struct{}
	closeOnce sync.Once
}

func Connect() (*Client, error) {
	conn, err := connect(Socket2)
	if err != nil {
		return nil, err
	}

	return newClient(conn), nil
}

func newClient(conn net.Conn) *Client {
	return &Client{
		conn:   conn,
		reader: bufio.NewReader(conn),
		done:   make(chan struct{}),
	}
}

func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

func (c *Client) ReadLine() (string, error) {
	str, err := c.reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read from hypr socket: %w", err)
	}
	return strings.TrimSuffix(str, "\n"), nil
}

// Events forwards keyboard layout changes. Other Hyprland events are
// dropped.
func (c *Client) Events() <-chan indicator.Event {
	c.once.Do(func() {
		c.events = make(chan indicator.Event)
		go c.readEvents()
	})
	return c.events
}

func (c *Client) readEvents() {
	defer close(c.events)

	for {
		line, err := c.ReadLine()
		if err != nil {
			select {
			case <-c.done:
			case c.events <- indicator.Event{Err: err}:
			}
			return
		}

		ev, ok := parseEvent(line)
		if !ok {
			continue
		}

		select {
		case c.events <- ev:
		case <-c.done:
			return
		}
	}
}

func parseEvent(line string) (indicator.Event, bool) {
	evType, _, found := strings.Cut(line, ">>")
	if !found {
		return indicator.Event{}, false
	}

	switch evType {
	case "activelayout":
		return indicator.Event{Kind: indicator.EventLayout}, true
	}

	return indicator.Event{}, false
}
