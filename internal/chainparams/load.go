package chainparams

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml data/schema.json
var embedded embed.FS

var schemaOnce *jsonschema.Schema

func loadSchema() (*jsonschema.Schema, error) {
	if schemaOnce != nil {
		return schemaOnce, nil
	}
	b, err := embedded.ReadFile("data/schema.json")
	if err != nil {
		return nil, fmt.Errorf("chainparams: read schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("chainparams.schema.json", bytesReader(b)); err != nil {
		return nil, fmt.Errorf("chainparams: add schema resource: %w", err)
	}
	s, err := c.Compile("chainparams.schema.json")
	if err != nil {
		return nil, fmt.Errorf("chainparams: compile schema: %w", err)
	}
	schemaOnce = s
	return s, nil
}

// yamlDoc mirrors data/schema.json's shape for decoding; validation
// against the schema happens on the generic map form, not this struct,
// so a YAML file with unknown-but-harmless keys still round-trips.
type yamlDoc struct {
	Kind                            string               `yaml:"kind"`
	SubsidyHalvingInterval          int32                `yaml:"subsidy_halving_interval"`
	InitialSubsidy                  int64                `yaml:"initial_subsidy"`
	PowTargetSpacing                int32                `yaml:"pow_target_spacing"`
	PowLimits                       []yamlPowLimit       `yaml:"pow_limits"`
	NameCoinAmountSchedule          []yamlNameCoinStep   `yaml:"name_coin_amount_schedule"`
	SpawnAreaKillThreshold          int32                `yaml:"spawn_area_kill_threshold"`
	DisasterBaseProbabilityPermille int32                `yaml:"disaster_base_probability_permille"`
	PoisonLifeBlocks                int32                `yaml:"poison_life_blocks"`
	Forks                           map[string]int32      `yaml:"forks"`
}

type yamlPowLimit struct {
	Algo          string `yaml:"algo"`
	LimitHex      string `yaml:"limit_hex"`
	AuxpowChainID int32  `yaml:"auxpow_chain_id"`
}

type yamlNameCoinStep struct {
	ActivationHeight int32 `yaml:"activation_height"`
	Amount           int64 `yaml:"amount"`
}

var forkNames = map[string]ForkKind{
	"life_steal":     ForkLifeSteal,
	"poison_refund":  ForkPoisonRefund,
	"melee_ranged":   ForkMeleeRanged,
	"hearts_removed": ForkHeartsRemoved,
}

var kindNames = map[string]Kind{
	"main":    Main,
	"test":    Test,
	"regtest": Reg,
}

func decodeAndValidate(raw []byte) (*ChainParams, error) {
	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("chainparams: parse yaml: %w", err)
	}
	asJSON, err := json.Marshal(convertMapKeys(generic))
	if err != nil {
		return nil, fmt.Errorf("chainparams: re-marshal for validation: %w", err)
	}
	var asAny any
	if err := json.Unmarshal(asJSON, &asAny); err != nil {
		return nil, fmt.Errorf("chainparams: decode for validation: %w", err)
	}
	schema, err := loadSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(asAny); err != nil {
		return nil, fmt.Errorf("chainparams: schema validation failed: %w", err)
	}

	var doc yamlDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("chainparams: decode yaml: %w", err)
	}

	kind, ok := kindNames[doc.Kind]
	if !ok {
		return nil, fmt.Errorf("chainparams: unknown kind %q", doc.Kind)
	}

	p := &ChainParams{
		Kind:                             kind,
		SubsidyHalvingInterval:           doc.SubsidyHalvingInterval,
		InitialSubsidy:                   doc.InitialSubsidy,
		PowTargetSpacing:                 doc.PowTargetSpacing,
		SpawnAreaKillThreshold:           doc.SpawnAreaKillThreshold,
		DisasterBaseProbabilityPermille:  doc.DisasterBaseProbabilityPermille,
		PoisonLifeBlocks:                 doc.PoisonLifeBlocks,
		forkHeights:                      make(map[ForkKind]int32, len(doc.Forks)),
	}
	for _, pl := range doc.PowLimits {
		p.PowLimits = append(p.PowLimits, PowLimit{Algo: pl.Algo, LimitHex: pl.LimitHex, AuxpowChainID: pl.AuxpowChainID})
	}
	for _, st := range doc.NameCoinAmountSchedule {
		p.NameCoinAmountSchedule = append(p.NameCoinAmountSchedule, NameCoinAmountStep{ActivationHeight: st.ActivationHeight, Amount: st.Amount})
	}
	for name, height := range doc.Forks {
		fk, ok := forkNames[name]
		if !ok {
			return nil, fmt.Errorf("chainparams: unknown fork %q", name)
		}
		p.forkHeights[fk] = height
	}
	if len(p.NameCoinAmountSchedule) == 0 || p.NameCoinAmountSchedule[0].ActivationHeight != 0 {
		return nil, fmt.Errorf("chainparams: name_coin_amount_schedule must start at height 0")
	}
	return p, nil
}

// Load reads one of the three built-in chain-parameter records (kind is
// one of "main", "test", "regtest") and validates it against the
// embedded JSON Schema before returning it.
func Load(kind string) (*ChainParams, error) {
	raw, err := embedded.ReadFile("data/" + kind + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("chainparams: unknown built-in chain %q: %w", kind, err)
	}
	return decodeAndValidate(raw)
}

// LoadFile decodes and validates an operator-supplied chain-parameter
// YAML file from an arbitrary filesystem, for a custom chain.
func LoadFile(fsys fs.FS, path string) (*ChainParams, error) {
	raw, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("chainparams: read %s: %w", path, err)
	}
	return decodeAndValidate(raw)
}

// convertMapKeys recursively converts map[string]interface{} trees
// decoded by yaml.v3 (which may produce map[interface{}]interface{} in
// some code paths) into JSON-marshalable map[string]interface{}.
func convertMapKeys(v any) any {
	switch vv := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(vv))
		for k, val := range vv {
			out[k] = convertMapKeys(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(vv))
		for k, val := range vv {
			out[fmt.Sprint(k)] = convertMapKeys(val)
		}
		return out
	case []any:
		out := make([]any, len(vv))
		for i, val := range vv {
			out[i] = convertMapKeys(val)
		}
		return out
	default:
		return v
	}
}
