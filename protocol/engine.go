package protocol

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// EngineConn is the host's side of a bot connection, used by the local
// arena to drive bots running as separate processes.
type EngineConn struct {
	lr *lineReader
	w  *bufio.Writer
}

// NewEngineConn reads bot output from r and writes frames to w.
func NewEngineConn(r io.Reader, w io.Writer) *EngineConn {
	return &EngineConn{lr: &lineReader{r: bufio.NewReader(r)}, w: bufio.NewWriter(w)}
}

// WriteInit sends the startup block.
func (c *EngineConn) WriteInit(setup *Init) error {
	consts, err := json.Marshal(setup.Constants)
	if err != nil {
		return fmt.Errorf("encoding constants: %w", err)
	}
	var b strings.Builder
	b.Write(consts)
	fmt.Fprintf(&b, "\n%d %d\n", setup.NumPlayers, setup.MyID)
	for _, s := range setup.Shipyards {
		x, y := xy(s.Pos)
		fmt.Fprintf(&b, "%d %d %d\n", s.Player, x, y)
	}
	fmt.Fprintf(&b, "%d %d\n", setup.Dim.Col, setup.Dim.Row)
	for _, row := range setup.Halite {
		writeInts(&b, row)
	}
	return c.flush(b.String())
}

// WriteFrame sends one turn.
func (c *EngineConn) WriteFrame(fr *Frame) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%d\n", fr.Turn)
	for _, p := range fr.Players {
		fmt.Fprintf(&b, "%d %d %d %d\n", p.ID, len(p.Ships), len(p.Dropoffs), p.Halite)
		for _, s := range p.Ships {
			x, y := xy(s.Pos)
			fmt.Fprintf(&b, "%d %d %d %d\n", s.ID, x, y, s.Cargo)
		}
		for _, d := range p.Dropoffs {
			x, y := xy(d.Pos)
			fmt.Fprintf(&b, "%d %d %d\n", d.ID, x, y)
		}
	}
	fmt.Fprintf(&b, "%d\n", len(fr.Updates))
	for _, u := range fr.Updates {
		x, y := xy(u.Pos)
		fmt.Fprintf(&b, "%d %d %d\n", x, y, u.Halite)
	}
	return c.flush(b.String())
}

// ReadName reads the bot's name line.
func (c *EngineConn) ReadName() (string, error) {
	return c.lr.readLine()
}

// ReadCommands reads and parses one command line.
func (c *EngineConn) ReadCommands() ([]Command, error) {
	line, err := c.lr.readLine()
	if err != nil {
		return nil, err
	}
	return ParseCommands(line)
}

func (c *EngineConn) flush(s string) error {
	if _, err := c.w.WriteString(s); err != nil {
		return err
	}
	return c.w.Flush()
}

func writeInts(b *strings.Builder, vs []int) {
	for i, v := range vs {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(v))
	}
	b.WriteByte('\n')
}
