package telemetry

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// ReplayShip is a ship in a replay frame.
type ReplayShip struct {
	Owner int `json:"o"`
	ID    int `json:"id"`
	Row   int `json:"r"`
	Col   int `json:"c"`
	Cargo int `json:"h"`
}

// ReplayDropoff is a dropoff in a replay frame. The shipyard has ID -1.
type ReplayDropoff struct {
	Owner int `json:"o"`
	ID    int `json:"id"`
	Row   int `json:"r"`
	Col   int `json:"c"`
}

// ReplayFrame is the full arena state after one turn.
type ReplayFrame struct {
	Turn     int             `json:"turn"`
	Rows     int             `json:"rows"`
	Cols     int             `json:"cols"`
	Halite   []int           `json:"halite"` // row-major
	Ships    []ReplayShip    `json:"ships"`
	Dropoffs []ReplayDropoff `json:"dropoffs"`
	Scores   []int           `json:"scores"`
}

// ReplayWriter writes one JSON frame per line through a zstd encoder.
type ReplayWriter struct {
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// NewReplayWriter creates path and prepares it for frames.
func NewReplayWriter(path string) (*ReplayWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating replay: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("creating replay encoder: %w", err)
	}
	return &ReplayWriter{f: f, enc: enc, w: bufio.NewWriterSize(enc, 64*1024)}, nil
}

// Write appends a frame. A nil writer discards it.
func (r *ReplayWriter) Write(fr ReplayFrame) error {
	if r == nil {
		return nil
	}
	b, err := json.Marshal(fr)
	if err != nil {
		return fmt.Errorf("marshaling frame %d: %w", fr.Turn, err)
	}
	if _, err := r.w.Write(b); err != nil {
		return err
	}
	return r.w.WriteByte('\n')
}

// Close flushes the buffer and the encoder, then closes the file.
func (r *ReplayWriter) Close() error {
	if r == nil {
		return nil
	}
	var firstErr error
	if err := r.w.Flush(); err != nil {
		firstErr = err
	}
	if err := r.enc.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := r.f.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// ReadReplay decodes every frame from a replay stream.
func ReadReplay(src io.Reader) ([]ReplayFrame, error) {
	dec, err := zstd.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("opening replay: %w", err)
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	var frames []ReplayFrame
	for sc.Scan() {
		var fr ReplayFrame
		if err := json.Unmarshal(sc.Bytes(), &fr); err != nil {
			return nil, fmt.Errorf("frame %d: %w", len(frames), err)
		}
		frames = append(frames, fr)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading replay: %w", err)
	}
	return frames, nil
}

// ReadReplayFile opens path and decodes it.
func ReadReplayFile(path string) ([]ReplayFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadReplay(f)
}
