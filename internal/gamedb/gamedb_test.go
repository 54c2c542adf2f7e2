package gamedb

import (
	"path/filepath"
	"testing"

	"github.com/smartmonsters/alifecore/internal/gamelog"
)

func TestRecordAndQuery(t *testing.T) {
	ix, err := Open(filepath.Join(t.TempDir(), "index.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer ix.Close()

	if ix.Session() == "" {
		t.Fatal("empty session id")
	}

	recs := []gamelog.StepRecord{
		{Height: 10, Hash: "aa", Players: 3},
		{Height: 11, Hash: "bb", KilledPlayers: []string{"x", "y"}, BountyCount: 1, BountyTotal: 5, TaxAmount: 1, Players: 1, GameFund: 9},
		{Height: 12, Hash: "cc", Players: 1},
	}
	for _, r := range recs {
		if err := ix.RecordStep(r); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	rows, err := ix.SinceHeight(11)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Height != 11 || rows[0].Killed != 2 || rows[0].BountyTotal != 5 {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[1].Height != 12 || rows[1].Hash != "cc" {
		t.Errorf("row 1 = %+v", rows[1])
	}
	for _, r := range rows {
		if r.Session != ix.Session() {
			t.Errorf("row session %q != %q", r.Session, ix.Session())
		}
	}
}

func TestSessionsDoNotCollide(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.sqlite")

	ix1, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := ix1.RecordStep(gamelog.StepRecord{Height: 5, Hash: "aa"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := ix1.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	ix2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer ix2.Close()
	if err := ix2.RecordStep(gamelog.StepRecord{Height: 5, Hash: "aa"}); err != nil {
		t.Fatalf("record same height in new session: %v", err)
	}

	rows, err := ix2.SinceHeight(0)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want one per session", len(rows))
	}
	if rows[0].Session == rows[1].Session {
		t.Error("two Open calls shared a session id")
	}
}

func TestOpenEmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("empty path accepted")
	}
}
