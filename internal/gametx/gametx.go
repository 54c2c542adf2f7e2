// Package gametx builds the game-generated transactions a block must
// contain after a step: one transaction destroying the name-coins of
// killed players, and one paying out collected bounties. Both carry
// informational scriptSigs acting as a coinbase for the game, encoded
// with the small-integer opcode table below; the table is a frozen wire
// contract and must never be renumbered.
package gametx

import (
	"fmt"
	"sort"

	"github.com/smartmonsters/alifecore/internal/entities"
)

// Opcodes for the scriptSig of game-generated transactions.
const (
	// GameOpKilledBy: victim GAMEOP_KILLED_BY killer1 ... killerN.
	// N = 0 means the player was killed for staying in the spawn area.
	GameOpKilledBy = 1

	// GameOpCollectedBounty: player GAMEOP_COLLECTED_BOUNTY chIdx
	// firstBlock lastBlock collectedFirstBlock collectedLastBlock.
	// Inputs and outputs correspond pairwise; the dummy input holds
	// the info for its output.
	GameOpCollectedBounty = 2

	// GameOpKilledPoison: victim GAMEOP_KILLED_POISON.
	GameOpKilledPoison = 3

	// GameOpRefund: player GAMEOP_REFUND chIdx height. chIdx is 0
	// today but kept on the wire for extensibility.
	GameOpRefund = 4
)

// OutPoint references a transaction output by hash and index.
type OutPoint struct {
	Hash  [32]byte
	Index uint32
}

// NameData is what the host's name-coin view knows about a live name:
// the outpoint of its latest update and the script paying to it.
type NameData struct {
	UpdateOutpoint OutPoint
	Address        []byte
}

// NameCoinView is the read-only view the builder resolves player names
// against. A missing name for a killed or paid player means the block
// is internally inconsistent.
type NameCoinView interface {
	GetName(name string) (NameData, bool)
}

// TxIn is one transaction input.
type TxIn struct {
	PrevOut   OutPoint
	ScriptSig []byte
}

// TxOut is one transaction output.
type TxOut struct {
	Value        int64
	ScriptPubKey []byte
}

// Transaction is a game-generated transaction. GameTx is always true
// here; the flag exempts it from the normal version and fee checks.
type Transaction struct {
	GameTx bool
	In     []TxIn
	Out    []TxOut
}

// Build produces the ordered game transactions for a step result: the
// kill transaction first (if anyone died), the bounty transaction
// second (if anything was collected). It fails if any referenced name
// is absent from the view.
func Build(result *entities.StepResult, view NameCoinView) ([]*Transaction, error) {
	var txs []*Transaction

	kills, err := buildKillTx(result, view)
	if err != nil {
		return nil, err
	}
	if kills != nil {
		txs = append(txs, kills)
	}

	bounties, err := buildBountyTx(result, view)
	if err != nil {
		return nil, err
	}
	if bounties != nil {
		txs = append(txs, bounties)
	}
	return txs, nil
}

// buildKillTx spends every killed player's name outpoint with no
// outputs, destroying the coins. The scriptSig records the first kill
// reason per the canonical reason ordering.
func buildKillTx(result *entities.StepResult, view NameCoinView) (*Transaction, error) {
	if len(result.KilledPlayers) == 0 {
		return nil, nil
	}

	victims := append([]string(nil), result.KilledPlayers...)
	sort.Strings(victims)

	tx := &Transaction{GameTx: true}
	for _, victim := range victims {
		data, ok := view.GetName(victim)
		if !ok {
			return nil, fmt.Errorf("gametx: killed player %s not in name view", victim)
		}

		reasons := result.KilledBy[victim]
		if len(reasons) == 0 {
			return nil, fmt.Errorf("gametx: no kill reason for %s", victim)
		}
		first := reasons[0]

		var script scriptBuilder
		script.pushData([]byte(victim))
		switch first.Reason {
		case entities.KilledDestruct:
			script.pushInt(GameOpKilledBy)
			for _, info := range reasons {
				if info.Reason != entities.KilledDestruct {
					break
				}
				for _, killer := range info.Killers {
					script.pushData([]byte(killerString(killer)))
				}
			}
		case entities.KilledSpawn:
			script.pushInt(GameOpKilledBy)
		case entities.KilledPoison:
			script.pushInt(GameOpKilledPoison)
		}

		tx.In = append(tx.In, TxIn{PrevOut: data.UpdateOutpoint, ScriptSig: script.bytes()})
	}
	return tx, nil
}

// buildBountyTx pays every collected bounty with one input/output pair.
// Outputs pay the bounty's captured address when set, otherwise the
// name's own address from the view.
func buildBountyTx(result *entities.StepResult, view NameCoinView) (*Transaction, error) {
	if len(result.Bounties) == 0 {
		return nil, nil
	}

	tx := &Transaction{GameTx: true}
	for _, b := range result.Bounties {
		data, ok := view.GetName(b.Player)
		if !ok {
			return nil, fmt.Errorf("gametx: bounty for player %s not in name view", b.Player)
		}

		out := TxOut{Value: b.Loot.Amount}
		if b.Address != "" {
			out.ScriptPubKey = addressScript(b.Address)
		} else {
			out.ScriptPubKey = data.Address
		}
		tx.Out = append(tx.Out, out)

		var script scriptBuilder
		script.pushData([]byte(b.Player))
		if b.Loot.IsRefund() {
			script.pushInt(GameOpRefund)
			script.pushInt(int64(b.CharacterIdx))
			script.pushInt(int64(b.Loot.RefundHeight()))
		} else {
			script.pushInt(GameOpCollectedBounty)
			script.pushInt(int64(b.CharacterIdx))
			script.pushInt(int64(b.Loot.FirstBlock))
			script.pushInt(int64(b.Loot.LastBlock))
			script.pushInt(int64(b.Loot.CollectedFirstBlock))
			script.pushInt(int64(b.Loot.CollectedLastBlock))
		}
		tx.In = append(tx.In, TxIn{ScriptSig: script.bytes()})
	}
	return tx, nil
}

// killerString renders a killer character id the way the original wire
// format does: the bare player name for the general, name.index for
// spawned characters.
func killerString(id entities.CharacterID) string {
	if id.Index == 0 {
		return id.PlayerName
	}
	return fmt.Sprintf("%s.%d", id.PlayerName, id.Index)
}

// addressScript wraps a validated address string into a script payload.
// Real script construction for the address type is the host's concern;
// the builder only guarantees the bytes identify the destination.
func addressScript(addr string) []byte {
	var b scriptBuilder
	b.pushData([]byte(addr))
	return b.bytes()
}
