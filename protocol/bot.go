package protocol

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// BotConn is the bot's side of the engine connection.
type BotConn struct {
	lr *lineReader
	w  *bufio.Writer
}

// NewBotConn reads frames from r and writes commands to w.
func NewBotConn(r io.Reader, w io.Writer) *BotConn {
	return &BotConn{lr: &lineReader{r: bufio.NewReader(r)}, w: bufio.NewWriter(w)}
}

// ReadInit reads the startup block.
func (c *BotConn) ReadInit() (*Init, error) {
	raw, err := c.lr.readLine()
	if err != nil {
		return nil, fmt.Errorf("reading constants: %w", err)
	}
	setup := &Init{}
	if err := json.Unmarshal([]byte(raw), &setup.Constants); err != nil {
		return nil, fmt.Errorf("parsing constants: %w", err)
	}

	hdr, err := c.lr.ints(2)
	if err != nil {
		return nil, fmt.Errorf("reading players: %w", err)
	}
	setup.NumPlayers, setup.MyID = hdr[0], hdr[1]
	for i := 0; i < setup.NumPlayers; i++ {
		v, err := c.lr.ints(3)
		if err != nil {
			return nil, fmt.Errorf("reading shipyard %d: %w", i, err)
		}
		setup.Shipyards = append(setup.Shipyards, Shipyard{Player: v[0], Pos: at(v[1], v[2])})
	}

	wh, err := c.lr.ints(2)
	if err != nil {
		return nil, fmt.Errorf("reading map size: %w", err)
	}
	width, height := wh[0], wh[1]
	setup.Dim = at(width, height)
	setup.Halite = make([][]int, height)
	for y := 0; y < height; y++ {
		if setup.Halite[y], err = c.lr.ints(width); err != nil {
			return nil, fmt.Errorf("reading map row %d: %w", y, err)
		}
	}
	return setup, nil
}

// ReadFrame reads one turn for numPlayers players.
func (c *BotConn) ReadFrame(numPlayers int) (*Frame, error) {
	t, err := c.lr.ints(1)
	if err != nil {
		return nil, fmt.Errorf("reading turn: %w", err)
	}
	fr := &Frame{Turn: t[0], Players: make([]PlayerFrame, 0, numPlayers)}
	for i := 0; i < numPlayers; i++ {
		p, err := c.readPlayer()
		if err != nil {
			return nil, fmt.Errorf("turn %d player block %d: %w", fr.Turn, i, err)
		}
		fr.Players = append(fr.Players, p)
	}

	n, err := c.lr.ints(1)
	if err != nil {
		return nil, fmt.Errorf("turn %d update count: %w", fr.Turn, err)
	}
	fr.Updates = make([]CellUpdate, 0, n[0])
	for i := 0; i < n[0]; i++ {
		v, err := c.lr.ints(3)
		if err != nil {
			return nil, fmt.Errorf("turn %d update %d: %w", fr.Turn, i, err)
		}
		fr.Updates = append(fr.Updates, CellUpdate{Pos: at(v[0], v[1]), Halite: v[2]})
	}
	return fr, nil
}

func (c *BotConn) readPlayer() (PlayerFrame, error) {
	h, err := c.lr.ints(4)
	if err != nil {
		return PlayerFrame{}, err
	}
	p := PlayerFrame{ID: h[0], Halite: h[3]}
	for i := 0; i < h[1]; i++ {
		v, err := c.lr.ints(4)
		if err != nil {
			return p, fmt.Errorf("ship %d: %w", i, err)
		}
		p.Ships = append(p.Ships, ShipFrame{ID: v[0], Pos: at(v[1], v[2]), Cargo: v[3]})
	}
	for i := 0; i < h[2]; i++ {
		v, err := c.lr.ints(3)
		if err != nil {
			return p, fmt.Errorf("dropoff %d: %w", i, err)
		}
		p.Dropoffs = append(p.Dropoffs, DropoffFrame{ID: v[0], Pos: at(v[1], v[2])})
	}
	return p, nil
}

// SendName answers the startup block.
func (c *BotConn) SendName(name string) error {
	return c.sendLine(name)
}

// SendCommands writes one turn's commands. An empty list still sends the
// line the engine waits for.
func (c *BotConn) SendCommands(cmds []Command) error {
	return c.sendLine(FormatCommands(cmds))
}

func (c *BotConn) sendLine(s string) error {
	if _, err := c.w.WriteString(s + "\n"); err != nil {
		return err
	}
	return c.w.Flush()
}
