package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pthm-cable/fleet/components"
)

// lineReader reads whitespace-separated integers line by line.
type lineReader struct {
	r    *bufio.Reader
	line int
}

func (lr *lineReader) readLine() (string, error) {
	s, err := lr.r.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || s == "") {
		return "", fmt.Errorf("line %d: %w", lr.line+1, err)
	}
	lr.line++
	return strings.TrimRight(s, "\r\n"), nil
}

// ints reads one line holding exactly n integers.
func (lr *lineReader) ints(n int) ([]int, error) {
	s, err := lr.readLine()
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(s)
	if len(fields) != n {
		return nil, fmt.Errorf("line %d: got %d fields, want %d: %q", lr.line, len(fields), n, s)
	}
	out := make([]int, n)
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("line %d field %d: %w", lr.line, i+1, err)
		}
		out[i] = v
	}
	return out, nil
}

// FormatCommands renders commands as one engine line, without the newline.
func FormatCommands(cmds []Command) string {
	parts := make([]string, 0, len(cmds))
	for _, c := range cmds {
		switch c.Kind {
		case CmdMove:
			parts = append(parts, fmt.Sprintf("m %d %s", c.Ship, c.Dir.Wire()))
		case CmdConvert:
			parts = append(parts, fmt.Sprintf("c %d", c.Ship))
		case CmdSpawn:
			parts = append(parts, "g")
		}
	}
	return strings.Join(parts, " ")
}

// ParseCommands is the inverse of FormatCommands.
func ParseCommands(line string) ([]Command, error) {
	fields := strings.Fields(line)
	var out []Command
	for i := 0; i < len(fields); i++ {
		switch fields[i] {
		case "g":
			out = append(out, Spawn())
		case "c":
			if i+1 >= len(fields) {
				return nil, fmt.Errorf("convert: missing ship id")
			}
			id, err := strconv.Atoi(fields[i+1])
			if err != nil {
				return nil, fmt.Errorf("convert: %w", err)
			}
			out = append(out, Convert(id))
			i++
		case "m":
			if i+2 >= len(fields) {
				return nil, fmt.Errorf("move: want ship id and direction")
			}
			id, err := strconv.Atoi(fields[i+1])
			if err != nil {
				return nil, fmt.Errorf("move: %w", err)
			}
			d, ok := components.ParseDirection(fields[i+2])
			if !ok {
				return nil, fmt.Errorf("move: unknown direction %q", fields[i+2])
			}
			out = append(out, Move(id, d))
			i += 2
		default:
			return nil, fmt.Errorf("unknown command %q", fields[i])
		}
	}
	return out, nil
}

// xy converts a coordinate to the engine's (x, y) order.
func xy(c components.Coord) (int, int) { return c.Col, c.Row }

// at converts engine (x, y) to a coordinate.
func at(x, y int) components.Coord { return components.Coord{Row: y, Col: x} }
