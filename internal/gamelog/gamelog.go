// Package gamelog writes one JSONL record per processed block to
// zstd-compressed shards. Shards are keyed by height window rather than
// wall clock, so re-processing the same blocks always lands records in
// the same shard no matter when the node runs. The core itself never
// logs; the host feeds it each StepResult after PerformStep returns.
package gamelog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/smartmonsters/alifecore/internal/entities"
)

// ShardSpan is the number of consecutive heights per shard file.
const ShardSpan = 1000

// StepRecord is the shape of one log line.
type StepRecord struct {
	Height        int32    `json:"height"`
	Hash          string   `json:"hash"`
	KilledPlayers []string `json:"killed_players,omitempty"`
	BountyCount   int      `json:"bounty_count"`
	BountyTotal   int64    `json:"bounty_total"`
	TaxAmount     int64    `json:"tax_amount"`
	Players       int      `json:"players"`
	GameFund      int64    `json:"game_fund"`
	RecordedAt    string   `json:"recorded_at"`
}

// NewStepRecord summarises a processed step for logging.
func NewStepRecord(state *entities.GameState, result *entities.StepResult) StepRecord {
	var bountyTotal int64
	for _, b := range result.Bounties {
		bountyTotal += b.Loot.Amount
	}
	return StepRecord{
		Height:        state.Height,
		Hash:          fmt.Sprintf("%x", state.HashBlock),
		KilledPlayers: result.KilledPlayers,
		BountyCount:   len(result.Bounties),
		BountyTotal:   bountyTotal,
		TaxAmount:     result.TaxAmount,
		Players:       len(state.Players),
		GameFund:      state.GameFund,
		RecordedAt:    time.Now().UTC().Format(time.RFC3339),
	}
}

// Writer appends JSONL records to height-windowed zstd shards under
// dir: record heights [0,ShardSpan) land in <prefix>-00000000.jsonl.zst,
// [ShardSpan,2*ShardSpan) in the next shard, and so on. Each record is
// flushed through the compressor as it is written, so a crash loses at
// most the record in flight.
type Writer struct {
	dir    string
	prefix string

	mu        sync.Mutex
	shardBase int32 // first height of the open shard, -1 when none
	enc       *zstd.Encoder
	f         *os.File
}

// NewWriter returns a writer for shards under dir. The first shard file
// is created on the first Write.
func NewWriter(dir, prefix string) *Writer {
	return &Writer{dir: dir, prefix: prefix, shardBase: -1}
}

// Write appends one record to the shard owning its height, switching
// shards when the record crosses a window boundary.
func (w *Writer) Write(rec StepRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	base := rec.Height - rec.Height%ShardSpan
	if base < 0 {
		base = 0
	}
	if w.enc == nil || base != w.shardBase {
		if err := w.openShard(base); err != nil {
			return err
		}
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if _, err := w.enc.Write(append(b, '\n')); err != nil {
		return err
	}
	return w.enc.Flush()
}

// Close finishes the open shard.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeShard()
}

func (w *Writer) openShard(base int32) error {
	if err := w.closeShard(); err != nil {
		return err
	}
	path := filepath.Join(w.dir, fmt.Sprintf("%s-%08d.jsonl.zst", w.prefix, base))
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.shardBase = base
	return nil
}

func (w *Writer) closeShard() error {
	if w.enc == nil {
		w.shardBase = -1
		return nil
	}
	err := w.enc.Close()
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	w.enc = nil
	w.f = nil
	w.shardBase = -1
	return err
}
