// Package snapshot saves and loads the world together with Karol.
//
// The file format is a JSON object {"world": ..., "karol": ...}. Loading
// validates the document against an embedded JSON schema before decoding.
// Paths ending in .zst are zstd-compressed.
package snapshot

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/vovakirdan/tui-karol/internal/robot"
	"github.com/vovakirdan/tui-karol/internal/world"
)

// Version is written into new snapshots.
const Version = 1

// ErrInvalid wraps schema violations and inconsistent snapshots.
var ErrInvalid = errors.New("snapshot: invalid")

//go:embed schema.json
var schemaJSON string

var schema = jsonschema.MustCompileString("karol-snapshot.schema.json", schemaJSON)

// Snapshot is the persisted world and robot state.
type Snapshot struct {
	Version int         `json:"version,omitempty"`
	World   world.State `json:"world"`
	Karol   robot.State `json:"karol"`
}

// Capture records the world Karol is bound to and Karol's position.
func Capture(k *robot.Karol) Snapshot {
	return Snapshot{
		Version: Version,
		World:   k.World().Serialize(),
		Karol:   k.Serialize(),
	}
}

// Apply replaces Karol's world and position with s. Either both succeed
// or neither changes.
func (s Snapshot) Apply(k *robot.Karol) error {
	w := k.World()
	oldWorld, oldKarol := w.Clone(), k.Serialize()
	if err := w.Deserialize(s.World); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := k.Deserialize(s.Karol); err != nil {
		w.CopyFrom(oldWorld)
		//nolint:errcheck // the previous state was valid
		k.Deserialize(oldKarol)
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Marshal encodes s as indented JSON.
func Marshal(s Snapshot) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Unmarshal validates data against the snapshot schema and decodes it.
func Unmarshal(data []byte) (Snapshot, error) {
	var s Snapshot
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return s, fmt.Errorf("snapshot: decode: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return s, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("snapshot: decode: %w", err)
	}
	return s, nil
}

func compressed(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".zst")
}

// Save writes s to path, creating parent directories.
func Save(path string, s Snapshot) error {
	data, err := Marshal(s)
	if err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	defer f.Close()

	if !compressed(path) {
		if _, err := f.Write(data); err != nil {
			return fmt.Errorf("snapshot: write: %w", err)
		}
		return nil
	}

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	bw := bufio.NewWriter(enc)
	if _, err := bw.Write(data); err != nil {
		enc.Close()
		return fmt.Errorf("snapshot: write: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return fmt.Errorf("snapshot: write: %w", err)
	}
	return enc.Close()
}

// Load reads and validates the snapshot at path.
func Load(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: %w", err)
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if compressed(path) {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return Snapshot{}, fmt.Errorf("snapshot: %w", err)
		}
		defer dec.Close()
		r = dec
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: read: %w", err)
	}
	return Unmarshal(buf.Bytes())
}
