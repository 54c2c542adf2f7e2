package chainparams

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestLoadBuiltins(t *testing.T) {
	for _, kind := range []string{"main", "test", "regtest"} {
		p, err := Load(kind)
		if err != nil {
			t.Fatalf("Load(%q): %v", kind, err)
		}
		if len(p.NameCoinAmountSchedule) == 0 {
			t.Errorf("%s: empty name-coin schedule", kind)
		}
		if p.SubsidyHalvingInterval <= 0 {
			t.Errorf("%s: bad halving interval", kind)
		}
	}
}

func TestLoadUnknownKind(t *testing.T) {
	if _, err := Load("bogus"); err == nil {
		t.Fatal("unknown chain accepted")
	}
}

func TestNameCoinAmountSchedule(t *testing.T) {
	p, err := Load("main")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// main.yaml: 1000000 from 0, 300000 from 100000, 100000 from 300000.
	cases := []struct {
		height int32
		want   int64
	}{
		{0, 1000000},
		{99999, 1000000},
		{100000, 300000},
		{299999, 300000},
		{300000, 100000},
		{1000000, 100000},
	}
	for _, tc := range cases {
		if got := p.NameCoinAmount(tc.height); got != tc.want {
			t.Errorf("NameCoinAmount(%d) = %d, want %d", tc.height, got, tc.want)
		}
	}
}

func TestForkInEffect(t *testing.T) {
	p, err := Load("test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// test.yaml: life_steal at 500.
	if p.ForkInEffect(ForkLifeSteal, 499) {
		t.Error("fork active before its height")
	}
	if !p.ForkInEffect(ForkLifeSteal, 500) {
		t.Error("fork inactive at its height")
	}
	if !p.ForkInEffect(ForkLifeSteal, 501) {
		t.Error("fork inactive after its height")
	}
}

func TestGetBlockSubsidy(t *testing.T) {
	p, err := Load("regtest")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// regtest.yaml: initial 5000000000, halving every 150.
	if got := p.GetBlockSubsidy(0); got != 5000000000 {
		t.Errorf("subsidy(0) = %d", got)
	}
	if got := p.GetBlockSubsidy(150); got != 2500000000 {
		t.Errorf("subsidy(150) = %d", got)
	}
	if got := p.GetBlockSubsidy(150 * 100); got != 0 {
		t.Errorf("subsidy far out = %d, want 0", got)
	}
}

func TestGenesis(t *testing.T) {
	p, err := Load("main")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	g := p.Genesis()
	if g.Height != 0 {
		t.Errorf("genesis height = %d, want 0", g.Height)
	}
	if len(g.Players) != 0 {
		t.Errorf("genesis has %d players, want 0", len(g.Players))
	}
}

const validYAML = `
kind: regtest
subsidy_halving_interval: 10
initial_subsidy: 100
pow_target_spacing: 1
name_coin_amount_schedule:
  - activation_height: 0
    amount: 5
spawn_area_kill_threshold: 2
disaster_base_probability_permille: 1
poison_life_blocks: 2
forks:
  life_steal: 0
`

func TestLoadFile(t *testing.T) {
	fsys := fstest.MapFS{"p.yaml": &fstest.MapFile{Data: []byte(validYAML)}}
	p, err := LoadFile(fsys, "p.yaml")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if p.Kind != Reg {
		t.Errorf("kind = %v, want Reg", p.Kind)
	}
	if p.NameCoinAmount(0) != 5 {
		t.Errorf("unit = %d, want 5", p.NameCoinAmount(0))
	}
}

func TestLoadFileSchemaRejections(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(string) string
	}{
		{"missing kind", func(s string) string { return strings.Replace(s, "kind: regtest\n", "", 1) }},
		{"bad probability", func(s string) string {
			return strings.Replace(s, "disaster_base_probability_permille: 1", "disaster_base_probability_permille: 5000", 1)
		}},
		{"empty schedule", func(s string) string {
			return strings.Replace(s,
				"name_coin_amount_schedule:\n  - activation_height: 0\n    amount: 5",
				"name_coin_amount_schedule: []", 1)
		}},
		{"unknown fork", func(s string) string { return strings.Replace(s, "life_steal", "time_travel", 1) }},
		{"schedule not starting at zero", func(s string) string {
			return strings.Replace(s, "activation_height: 0", "activation_height: 10", 1)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fsys := fstest.MapFS{"p.yaml": &fstest.MapFile{Data: []byte(tc.mutate(validYAML))}}
			if _, err := LoadFile(fsys, "p.yaml"); err == nil {
				t.Fatal("invalid config accepted")
			}
		})
	}
}
