// Package gobsnap wraps the canonical binary GameState encoding
// (internal/snapshot) with zstd compression for the on-disk artifact a
// node writes periodically for fast re-sync.
package gobsnap

import (
	"bufio"
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/smartmonsters/alifecore/internal/entities"
	"github.com/smartmonsters/alifecore/internal/snapshot"
)

// WriteFile zstd-compresses the canonical encoding of g and writes it
// to path.
func WriteFile(path string, g *entities.GameState) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("gobsnap: create %s: %w", path, err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	enc, err := zstd.NewWriter(bw)
	if err != nil {
		return fmt.Errorf("gobsnap: new zstd writer: %w", err)
	}
	if err := snapshot.EncodeGameState(enc, g); err != nil {
		enc.Close()
		return fmt.Errorf("gobsnap: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("gobsnap: close zstd writer: %w", err)
	}
	return bw.Flush()
}

// ReadFile decompresses and decodes the GameState stored at path.
func ReadFile(path string) (*entities.GameState, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gobsnap: open %s: %w", path, err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("gobsnap: new zstd reader: %w", err)
	}
	defer dec.Close()

	g, err := snapshot.DecodeGameState(dec)
	if err != nil {
		return nil, fmt.Errorf("gobsnap: decode: %w", err)
	}
	return g, nil
}
