package testdata

import (
	"bufio"
	"bytes"
	"embed"
	"fmt"

	"github.com/ayusman/vitruvius/internal/sensor"
)

//go:embed sessions/*.jsonl
var sessionsFS embed.FS

// LoadSession loads a recorded pose service session by name, one frame per
// line, 33ms apart.
func LoadSession(name string) ([]sensor.Frame, error) {
	data, err := sessionsFS.ReadFile("sessions/" + name + ".jsonl")
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", name, err)
	}

	var frames []sensor.Frame
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		bodies, err := sensor.DecodeBodies(line)
		if err != nil {
			return nil, fmt.Errorf("decode session %s frame %d: %w", name, len(frames), err)
		}
		frames = append(frames, sensor.Frame{
			Timestamp: int64(len(frames)) * 33,
			Bodies:    bodies,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return frames, nil
}

// Sessions lists the names of the recorded sessions.
func Sessions() ([]string, error) {
	entries, err := sessionsFS.ReadDir("sessions")
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name()[:len(entry.Name())-len(".jsonl")])
	}
	return names, nil
}
