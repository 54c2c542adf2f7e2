// gamed-snapshot inspects and verifies the compressed GameState
// snapshot files a node writes for fast re-sync.
package main

import (
	"bytes"
	"crypto/sha256"
	"flag"
	"fmt"
	"os"

	"github.com/smartmonsters/alifecore/internal/gobsnap"
	"github.com/smartmonsters/alifecore/internal/snapshot"
)

func main() {
	var (
		snapPath = flag.String("snapshot", "", "path to .snap.zst")
		verify   = flag.Bool("verify", false, "re-encode and check the canonical digest round-trips")
		rewrite  = flag.String("rewrite", "", "write the decoded state back out to this path")
	)
	flag.Parse()

	if *snapPath == "" {
		fmt.Fprintln(os.Stderr, "missing -snapshot")
		os.Exit(2)
	}

	g, err := gobsnap.ReadFile(*snapPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}

	fmt.Printf("snapshot height=%d hash=%x players=%d loot=%d hearts=%d banks=%d fund=%d disaster=%d\n",
		g.Height, g.HashBlock, len(g.Players), len(g.Loot), len(g.Hearts), len(g.Banks),
		g.GameFund, g.DisasterHeight)

	if *verify {
		var buf1, buf2 bytes.Buffer
		if err := snapshot.EncodeGameState(&buf1, g); err != nil {
			fmt.Fprintln(os.Stderr, "encode:", err)
			os.Exit(1)
		}
		g2, err := snapshot.DecodeGameState(bytes.NewReader(buf1.Bytes()))
		if err != nil {
			fmt.Fprintln(os.Stderr, "re-decode:", err)
			os.Exit(1)
		}
		if err := snapshot.EncodeGameState(&buf2, g2); err != nil {
			fmt.Fprintln(os.Stderr, "re-encode:", err)
			os.Exit(1)
		}
		d1 := sha256.Sum256(buf1.Bytes())
		d2 := sha256.Sum256(buf2.Bytes())
		if d1 != d2 {
			fmt.Fprintf(os.Stderr, "digest mismatch: %x vs %x\n", d1, d2)
			os.Exit(1)
		}
		fmt.Printf("verify ok digest=%x size=%d\n", d1, buf1.Len())
	}

	if *rewrite != "" {
		if err := gobsnap.WriteFile(*rewrite, g); err != nil {
			fmt.Fprintln(os.Stderr, "rewrite:", err)
			os.Exit(1)
		}
		fmt.Println("rewrote", *rewrite)
	}
}
