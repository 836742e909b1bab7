// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
)

// UnlockingParams are the parameters of the proof that spends one of the
// standard locking script templates.  The set of variants is closed and
// mirrors ScriptTemplateMatch.
type UnlockingParams interface {
	// Class returns the class of locking script the parameters spend.
	Class() ScriptClass

	unlockingParams()
}

// PubKeyUnlock spends a pay-to-pubkey output.
type PubKeyUnlock struct {
	Sig []byte
}

// PubKeyHashUnlock spends a pay-to-pubkey-hash output.
type PubKeyHashUnlock struct {
	Sig    []byte
	PubKey []byte
}

// MultiSigUnlock spends a bare multisig output.  Sigs are in the order of the
// public keys they sign for and may contain empty placeholders.
type MultiSigUnlock struct {
	Sigs [][]byte
}

// ColdStakeUnlock spends a cold-stake output.  Staker selects the branch
// guarded by OP_CHECKCOLDSTAKEVERIFY.
type ColdStakeUnlock struct {
	Sig    []byte
	PubKey []byte
	Staker bool
}

// ScriptHashUnlock spends a pay-to-script-hash output.  Inner holds the
// unlocking parameters of the redeem script when it is itself standard and is
// nil otherwise, in which case Pushes carries the raw items that precede the
// redeem script.
type ScriptHashUnlock struct {
	RedeemScript []byte
	Inner        UnlockingParams
	Pushes       [][]byte
}

// WitnessPubKeyHashUnlock spends a version 0 pay-to-witness-pubkey-hash
// output.  It lives entirely in the witness.
type WitnessPubKeyHashUnlock struct {
	Sig    []byte
	PubKey []byte
}

// WitnessScriptHashUnlock spends a version 0 pay-to-witness-script-hash
// output.  Items are the witness elements that precede the witness script.
type WitnessScriptHashUnlock struct {
	WitnessScript []byte
	Items         [][]byte
}

func (PubKeyUnlock) unlockingParams()            {}
func (PubKeyHashUnlock) unlockingParams()        {}
func (MultiSigUnlock) unlockingParams()          {}
func (ColdStakeUnlock) unlockingParams()         {}
func (ScriptHashUnlock) unlockingParams()        {}
func (WitnessPubKeyHashUnlock) unlockingParams() {}
func (WitnessScriptHashUnlock) unlockingParams() {}

// Class returns PubKeyTy.
func (PubKeyUnlock) Class() ScriptClass { return PubKeyTy }

// Class returns PubKeyHashTy.
func (PubKeyHashUnlock) Class() ScriptClass { return PubKeyHashTy }

// Class returns MultiSigTy.
func (MultiSigUnlock) Class() ScriptClass { return MultiSigTy }

// Class returns ColdStakeTy.
func (ColdStakeUnlock) Class() ScriptClass { return ColdStakeTy }

// Class returns ScriptHashTy.
func (ScriptHashUnlock) Class() ScriptClass { return ScriptHashTy }

// Class returns WitnessV0PubKeyHashTy.
func (WitnessPubKeyHashUnlock) Class() ScriptClass { return WitnessV0PubKeyHashTy }

// Class returns WitnessV0ScriptHashTy.
func (WitnessScriptHashUnlock) Class() ScriptClass { return WitnessV0ScriptHashTy }

// GenerateUnlockingScript builds the signature script and witness that carry
// the passed unlocking parameters.  Witness spends return an empty signature
// script and legacy spends return a nil witness.
func GenerateUnlockingScript(params UnlockingParams) ([]byte, wire.TxWitness, error) {
	switch p := params.(type) {
	case PubKeyUnlock:
		script, err := NewScriptBuilder().AddData(p.Sig).Script()
		return script, nil, err

	case PubKeyHashUnlock:
		script, err := NewScriptBuilder().AddData(p.Sig).
			AddData(p.PubKey).Script()
		return script, nil, err

	case MultiSigUnlock:
		// The extra leading item is consumed by OP_CHECKMULTISIG.
		builder := NewScriptBuilder().AddOp(OP_0)
		for _, sig := range p.Sigs {
			builder.AddData(sig)
		}
		script, err := builder.Script()
		return script, nil, err

	case ColdStakeUnlock:
		branch := byte(OP_FALSE)
		if p.Staker {
			branch = OP_TRUE
		}
		script, err := NewScriptBuilder().AddData(p.Sig).AddOp(branch).
			AddData(p.PubKey).Script()
		return script, nil, err

	case ScriptHashUnlock:
		builder := NewScriptBuilder()
		switch {
		case p.Inner != nil:
			inner, _, err := GenerateUnlockingScript(p.Inner)
			if err != nil {
				return nil, nil, err
			}
			builder.AddOps(inner)

		default:
			for _, push := range p.Pushes {
				builder.AddData(push)
			}
		}
		script, err := builder.AddData(p.RedeemScript).Script()
		return script, nil, err

	case WitnessPubKeyHashUnlock:
		return nil, wire.TxWitness{p.Sig, p.PubKey}, nil

	case WitnessScriptHashUnlock:
		witness := make(wire.TxWitness, 0, len(p.Items)+1)
		witness = append(witness, p.Items...)
		witness = append(witness, p.WitnessScript)
		return nil, witness, nil
	}

	str := fmt.Sprintf("unsupported unlocking parameters %T", params)
	return nil, nil, AssertError(str)
}

// ExtractUnlockingParams recovers the unlocking parameters from a signature
// script and witness that spend the passed locking script.  When the locking
// script is nil the template is inferred from the shape of the proof alone.
// False is returned when the proof does not have the shape of any template or
// does not commit to the data the locking script requires.
func ExtractUnlockingParams(sigScript []byte, witness wire.TxWitness,
	lockingScript []byte) (UnlockingParams, bool) {

	if lockingScript == nil {
		return inferUnlockingParams(sigScript, witness)
	}

	pushes, err := PushedData(sigScript)
	if err != nil || !IsPushOnlyScript(sigScript) {
		return nil, false
	}

	switch m := MatchScriptTemplate(lockingScript).(type) {
	case PubKeyMatch:
		if len(pushes) != 1 || len(witness) != 0 {
			return nil, false
		}
		return PubKeyUnlock{Sig: pushes[0]}, true

	case PubKeyHashMatch:
		if len(pushes) != 2 || len(witness) != 0 {
			return nil, false
		}
		if !bytes.Equal(btcutil.Hash160(pushes[1]), m.Hash) {
			return nil, false
		}
		return PubKeyHashUnlock{Sig: pushes[0], PubKey: pushes[1]}, true

	case MultiSigMatch:
		if len(witness) != 0 {
			return nil, false
		}
		return extractMultiSigUnlock(sigScript, m)

	case ColdStakeMatch:
		if len(witness) != 0 {
			return nil, false
		}
		params, ok := extractColdStakeUnlock(sigScript)
		if !ok {
			return nil, false
		}
		want := m.OwnerHash
		if params.Staker {
			want = m.StakerHash
		}
		if !bytes.Equal(btcutil.Hash160(params.PubKey), want) {
			return nil, false
		}
		return params, true

	case ScriptHashMatch:
		if len(pushes) == 0 {
			return nil, false
		}
		redeemScript := pushes[len(pushes)-1]
		if !bytes.Equal(btcutil.Hash160(redeemScript), m.Hash) {
			return nil, false
		}
		return extractScriptHashUnlock(sigScript, pushes, witness,
			redeemScript)

	case WitnessPubKeyHashMatch:
		if len(sigScript) != 0 || len(witness) != 2 {
			return nil, false
		}
		if !bytes.Equal(btcutil.Hash160(witness[1]), m.Hash) {
			return nil, false
		}
		return WitnessPubKeyHashUnlock{
			Sig:    witness[0],
			PubKey: witness[1],
		}, true

	case WitnessScriptHashMatch:
		if len(sigScript) != 0 || len(witness) == 0 {
			return nil, false
		}
		witnessScript := witness[len(witness)-1]
		hash := sha256.Sum256(witnessScript)
		if !bytes.Equal(hash[:], m.Hash) {
			return nil, false
		}
		return WitnessScriptHashUnlock{
			WitnessScript: witnessScript,
			Items:         witness[:len(witness)-1],
		}, true
	}

	return nil, false
}

// extractScriptHashUnlock builds the pay-to-script-hash parameters for the
// passed redeem script, recursing into the redeem script's own template when
// it is standard.
func extractScriptHashUnlock(sigScript []byte, pushes [][]byte,
	witness wire.TxWitness, redeemScript []byte) (UnlockingParams, bool) {

	params := ScriptHashUnlock{
		RedeemScript: redeemScript,
		Pushes:       pushes[:len(pushes)-1],
	}

	// A nested witness program carries its proof in the witness and
	// nothing besides the program push in the signature script.
	if isWitnessProgramScript(redeemScript) {
		if len(params.Pushes) != 0 {
			return nil, false
		}
		inner, ok := ExtractUnlockingParams(nil, witness, redeemScript)
		if ok {
			params.Inner = inner
		}
		return params, true
	}

	inner, ok := ExtractUnlockingParams(withoutFinalOpcode(sigScript), nil,
		redeemScript)
	if ok {
		params.Inner = inner
	}
	return params, true
}

// withoutFinalOpcode returns the passed script with its final opcode removed.
// The script must parse.
func withoutFinalOpcode(script []byte) []byte {
	var lastStart int32
	tokenizer := MakeScriptTokenizer(script)
	for {
		start := tokenizer.ByteIndex()
		if !tokenizer.Next() {
			break
		}
		lastStart = start
	}
	return script[:lastStart]
}

// extractMultiSigUnlock recovers the signatures from a multisig signature
// script, which must start with the empty dummy item and push no more
// signatures than the script requires.
func extractMultiSigUnlock(sigScript []byte, m MultiSigMatch) (UnlockingParams, bool) {
	tokenizer := MakeScriptTokenizer(sigScript)
	if !tokenizer.Next() || tokenizer.Opcode() != OP_0 {
		return nil, false
	}

	var sigs [][]byte
	for tokenizer.Next() {
		sigs = append(sigs, tokenizer.Data())
	}
	if tokenizer.Err() != nil || len(sigs) > m.Required {
		return nil, false
	}
	return MultiSigUnlock{Sigs: sigs}, true
}

// extractColdStakeUnlock recovers the cold-stake spending parameters from a
// signature script of the form <sig> <OP_1|OP_0> <pubkey>.
func extractColdStakeUnlock(sigScript []byte) (ColdStakeUnlock, bool) {
	tokenizer := MakeScriptTokenizer(sigScript)
	if !tokenizer.Next() {
		return ColdStakeUnlock{}, false
	}
	sig := tokenizer.Data()

	if !tokenizer.Next() {
		return ColdStakeUnlock{}, false
	}
	var staker bool
	switch tokenizer.Opcode() {
	case OP_TRUE:
		staker = true
	case OP_FALSE:
	default:
		return ColdStakeUnlock{}, false
	}

	if !tokenizer.Next() || !isStrictPubKeyEncoding(tokenizer.Data()) {
		return ColdStakeUnlock{}, false
	}
	pubKey := tokenizer.Data()
	if !tokenizer.Done() || tokenizer.Err() != nil {
		return ColdStakeUnlock{}, false
	}

	return ColdStakeUnlock{Sig: sig, PubKey: pubKey, Staker: staker}, true
}

// inferUnlockingParams guesses the template a proof spends from its shape.
func inferUnlockingParams(sigScript []byte, witness wire.TxWitness) (UnlockingParams, bool) {
	if len(sigScript) == 0 {
		switch {
		case len(witness) == 2 && isStrictPubKeyEncoding(witness[1]):
			return WitnessPubKeyHashUnlock{
				Sig:    witness[0],
				PubKey: witness[1],
			}, true

		case len(witness) > 0:
			witnessScript := witness[len(witness)-1]
			if checkScriptParses(witnessScript) != nil {
				return nil, false
			}
			return WitnessScriptHashUnlock{
				WitnessScript: witnessScript,
				Items:         witness[:len(witness)-1],
			}, true
		}
		return nil, false
	}

	if !IsPushOnlyScript(sigScript) {
		return nil, false
	}
	if params, ok := extractColdStakeUnlock(sigScript); ok {
		return params, true
	}

	pushes, err := PushedData(sigScript)
	if err != nil {
		return nil, false
	}
	if len(pushes) == 0 {
		return nil, false
	}

	last := pushes[len(pushes)-1]
	switch {
	case sigScript[0] == OP_0:
		if len(pushes) == 1 && isWitnessProgramScript(last) {
			break
		}
		return MultiSigUnlock{Sigs: pushes[1:]}, true

	case len(pushes) == 1 && !isWitnessProgramScript(last):
		return PubKeyUnlock{Sig: last}, true

	case len(pushes) == 2 && isStrictPubKeyEncoding(last):
		return PubKeyHashUnlock{Sig: pushes[0], PubKey: last}, true
	}

	// Anything else is treated as a redeem script spend when the final
	// push is itself a standard locking script.
	if _, ok := MatchScriptTemplate(last).(NonStandardMatch); ok {
		return nil, false
	}
	return extractScriptHashUnlock(sigScript, pushes, witness, last)
}
