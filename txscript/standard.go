// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2015-2016 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

const (
	// MaxDataCarrierSize is the largest push a null data script may carry.
	MaxDataCarrierSize = 80

	pubKeyHashLen = 20

	// Program sizes of the two version 0 witness templates.
	payToWitnessPubKeyHashDataSize = 20
	payToWitnessScriptHashDataSize = 32

	// maxStandardMultiSigKeys bounds the keys multiSigScript lays out, which
	// is the most a small integer can count.
	maxStandardMultiSigKeys = 16
)

// ScriptClass names the template a locking script matches.
type ScriptClass byte

const (
	NonStandardTy ScriptClass = iota
	PubKeyTy
	PubKeyHashTy
	WitnessV0PubKeyHashTy
	ScriptHashTy
	WitnessV0ScriptHashTy
	MultiSigTy
	NullDataTy
	ColdStakeTy

	// WitnessUnknownTy is a witness program of a version or size with no
	// template, spendable by anyone until a soft fork gives it meaning.
	WitnessUnknownTy
)

var scriptClassToName = []string{
	NonStandardTy:         "nonstandard",
	PubKeyTy:              "pubkey",
	PubKeyHashTy:          "pubkeyhash",
	WitnessV0PubKeyHashTy: "witness_v0_keyhash",
	ScriptHashTy:          "scripthash",
	WitnessV0ScriptHashTy: "witness_v0_scripthash",
	MultiSigTy:            "multisig",
	NullDataTy:            "nulldata",
	ColdStakeTy:           "coldstake",
	WitnessUnknownTy:      "witness_unknown",
}

// String returns the class name, or "Invalid" for an unknown class.
func (t ScriptClass) String() string {
	if int(t) < len(scriptClassToName) {
		return scriptClassToName[t]
	}
	return "Invalid"
}

// A scriptShape is the exact layout of a fixed-size template.  Entries from 0
// to 0xff are opcodes that must appear as is, and a negative entry -n is a
// direct push of exactly n bytes whose data is captured.
type scriptShape []int

var (
	pubKeyCompressedShape   = scriptShape{-33, OP_CHECKSIG}
	pubKeyUncompressedShape = scriptShape{-65, OP_CHECKSIG}
	pubKeyHashShape         = scriptShape{OP_DUP, OP_HASH160, -20,
		OP_EQUALVERIFY, OP_CHECKSIG}
	scriptHashShape        = scriptShape{OP_HASH160, -20, OP_EQUAL}
	witnessPubKeyHashShape = scriptShape{OP_0, -payToWitnessPubKeyHashDataSize}
	witnessScriptHashShape = scriptShape{OP_0, -payToWitnessScriptHashDataSize}
	coldStakeShape         = scriptShape{OP_DUP, OP_HASH160, OP_ROT, OP_IF,
		OP_CHECKCOLDSTAKEVERIFY, -pubKeyHashLen, OP_ELSE, -pubKeyHashLen,
		OP_ENDIF, OP_EQUALVERIFY, OP_CHECKSIG}
)

// match returns the captured pushes when script has exactly this layout.
func (s scriptShape) match(script []byte) ([][]byte, bool) {
	var captures [][]byte
	offset := 0
	for _, want := range s {
		if offset >= len(script) {
			return nil, false
		}
		if want >= 0 {
			if script[offset] != byte(want) {
				return nil, false
			}
			offset++
			continue
		}

		size := -want
		end := offset + 1 + size
		if script[offset] != byte(size) || end > len(script) {
			return nil, false
		}
		captures = append(captures, script[offset+1:end])
		offset = end
	}
	return captures, offset == len(script)
}

// capture returns the first push of script when it has this layout and nil
// otherwise.
func (s scriptShape) capture(script []byte) []byte {
	captures, ok := s.match(script)
	if !ok {
		return nil
	}
	return captures[0]
}

// fill lays out the shape around the passed data, one item per push.
func (s scriptShape) fill(data ...[]byte) ([]byte, error) {
	var script []byte
	for _, want := range s {
		if want >= 0 {
			script = append(script, byte(want))
			continue
		}
		if len(data) == 0 || len(data[0]) != -want {
			return nil, AssertError(fmt.Sprintf("template push of %d "+
				"bytes given wrong sized data", -want))
		}
		script = append(script, byte(-want))
		script = append(script, data[0]...)
		data = data[1:]
	}
	return script, nil
}

// extractPubKey returns the key of a pay-to-pubkey script.  Compressed keys
// start with 0x02 or 0x03 and uncompressed ones with 0x04.
func extractPubKey(script []byte) []byte {
	if key := pubKeyCompressedShape.capture(script); key != nil &&
		(key[0] == 0x02 || key[0] == 0x03) {

		return key
	}
	if key := pubKeyUncompressedShape.capture(script); key != nil &&
		key[0] == 0x04 {

		return key
	}
	return nil
}

func extractPubKeyHash(script []byte) []byte {
	return pubKeyHashShape.capture(script)
}

func extractScriptHash(script []byte) []byte {
	return scriptHashShape.capture(script)
}

func extractWitnessPubKeyHash(script []byte) []byte {
	return witnessPubKeyHashShape.capture(script)
}

func extractWitnessScriptHash(script []byte) []byte {
	return witnessScriptHashShape.capture(script)
}

// extractColdStakeHashes returns the staker and owner key hashes of a
// cold-stake delegation script, or nil for both.
func extractColdStakeHashes(script []byte) ([]byte, []byte) {
	hashes, ok := coldStakeShape.match(script)
	if !ok {
		return nil, nil
	}
	return hashes[0], hashes[1]
}

// isStrictPubKeyEncoding reports whether pubKey is a compressed or
// uncompressed secp256k1 key.  Hybrid keys are rejected.
func isStrictPubKeyEncoding(pubKey []byte) bool {
	switch len(pubKey) {
	case 33:
		return pubKey[0] == 0x02 || pubKey[0] == 0x03
	case 65:
		return pubKey[0] == 0x04
	}
	return false
}

// parseMultiSig decodes a bare multisig script of the form
// m <pubkey>... n OP_CHECKMULTISIG and returns m and the keys.  It requires
// strictly encoded keys, n equal to the number of keys and 1 <= m <= n.
func parseMultiSig(script []byte) (int, [][]byte, bool) {
	if len(script) < 3 || script[len(script)-1] != OP_CHECKMULTISIG {
		return 0, nil, false
	}

	var ops []byte
	var pushes [][]byte
	tokenizer := MakeScriptTokenizer(script[:len(script)-1])
	for tokenizer.Next() {
		ops = append(ops, tokenizer.Opcode())
		pushes = append(pushes, tokenizer.Data())
	}
	if tokenizer.Err() != nil || len(ops) < 3 {
		return 0, nil, false
	}

	m, n := ops[0], ops[len(ops)-1]
	if m == OP_0 || !isSmallInt(m) || !isSmallInt(n) {
		return 0, nil, false
	}
	keys := pushes[1 : len(pushes)-1]
	for _, key := range keys {
		if !isStrictPubKeyEncoding(key) {
			return 0, nil, false
		}
	}
	required := asSmallInt(m)
	if asSmallInt(n) != len(keys) || required > len(keys) {
		return 0, nil, false
	}
	return required, keys, true
}

// IsMultisigScript returns whether or not the passed script is a standard
// multisignature script.
func IsMultisigScript(script []byte) bool {
	_, _, ok := parseMultiSig(script)
	return ok
}

// IsMultisigSigScript guesses whether a signature script redeems a
// pay-to-script-hash multisig output by treating its final push as the redeem
// script.  The guess needs no previous output and is rarely wrong.
func IsMultisigSigScript(script []byte) bool {
	if len(script) < 4 || script[len(script)-1] != OP_CHECKMULTISIG {
		return false
	}
	return IsMultisigScript(finalOpcodeData(script))
}

// isNullDataScript reports whether script is a lone OP_RETURN or an OP_RETURN
// followed by one push of at most MaxDataCarrierSize bytes.
func isNullDataScript(script []byte) bool {
	switch {
	case len(script) == 0 || script[0] != OP_RETURN:
		return false
	case len(script) == 1:
		return true
	}

	tokenizer := MakeScriptTokenizer(script[1:])
	if !tokenizer.Next() || !tokenizer.Done() {
		return false
	}
	op := tokenizer.Opcode()
	return (op <= OP_PUSHDATA4 || isSmallInt(op)) &&
		len(tokenizer.Data()) <= MaxDataCarrierSize
}

// typeOfScript returns the class of the first template script matches.
func typeOfScript(script []byte) ScriptClass {
	switch {
	case extractPubKey(script) != nil:
		return PubKeyTy
	case extractPubKeyHash(script) != nil:
		return PubKeyHashTy
	case extractWitnessPubKeyHash(script) != nil:
		return WitnessV0PubKeyHashTy
	case extractScriptHash(script) != nil:
		return ScriptHashTy
	case extractWitnessScriptHash(script) != nil:
		return WitnessV0ScriptHashTy
	case IsMultisigScript(script):
		return MultiSigTy
	case isNullDataScript(script):
		return NullDataTy
	case coldStakeShape.capture(script) != nil:
		return ColdStakeTy
	case isWitnessProgramScript(script):
		return WitnessUnknownTy
	}
	return NonStandardTy
}

// GetScriptClass returns the class of the script passed.
//
// NonStandardTy will be returned when the script does not parse.
func GetScriptClass(script []byte) ScriptClass {
	return typeOfScript(script)
}

// ScriptTemplateMatch is the structural classification of a locking script
// together with the parameters extracted from it.  The set of variants is
// closed; use a type switch over the concrete match types.
type ScriptTemplateMatch interface {
	// Class returns the script class of the match.
	Class() ScriptClass

	// Script regenerates the locking script from the extracted
	// parameters.
	Script() ([]byte, error)

	templateMatch()
}

// PubKeyMatch is a pay-to-pubkey script.
type PubKeyMatch struct {
	PubKey []byte
}

// PubKeyHashMatch is a pay-to-pubkey-hash script.
type PubKeyHashMatch struct {
	Hash []byte
}

// ScriptHashMatch is a pay-to-script-hash script.
type ScriptHashMatch struct {
	Hash []byte
}

// MultiSigMatch is a bare multisig script requiring Required signatures from
// PubKeys in order.
type MultiSigMatch struct {
	Required int
	PubKeys  [][]byte
}

// WitnessPubKeyHashMatch is a version 0 pay-to-witness-pubkey-hash script.
type WitnessPubKeyHashMatch struct {
	Hash []byte
}

// WitnessScriptHashMatch is a version 0 pay-to-witness-script-hash script.
type WitnessScriptHashMatch struct {
	Hash []byte
}

// NullDataMatch is a provably prunable OP_RETURN script with its optional
// pushed data.
type NullDataMatch struct {
	Data []byte
}

// ColdStakeMatch is a cold-stake delegation script.  StakerHash may only
// spend into a coin-stake that keeps the delegation, OwnerHash may spend
// freely.
type ColdStakeMatch struct {
	StakerHash []byte
	OwnerHash  []byte
}

// NonStandardMatch is any script that matches no template.
type NonStandardMatch struct {
	Raw []byte
}

func (PubKeyMatch) templateMatch()            {}
func (PubKeyHashMatch) templateMatch()        {}
func (ScriptHashMatch) templateMatch()        {}
func (MultiSigMatch) templateMatch()          {}
func (WitnessPubKeyHashMatch) templateMatch() {}
func (WitnessScriptHashMatch) templateMatch() {}
func (NullDataMatch) templateMatch()          {}
func (ColdStakeMatch) templateMatch()         {}
func (NonStandardMatch) templateMatch()       {}

// Class returns PubKeyTy.
func (m PubKeyMatch) Class() ScriptClass { return PubKeyTy }

// Class returns PubKeyHashTy.
func (m PubKeyHashMatch) Class() ScriptClass { return PubKeyHashTy }

// Class returns ScriptHashTy.
func (m ScriptHashMatch) Class() ScriptClass { return ScriptHashTy }

// Class returns MultiSigTy.
func (m MultiSigMatch) Class() ScriptClass { return MultiSigTy }

// Class returns WitnessV0PubKeyHashTy.
func (m WitnessPubKeyHashMatch) Class() ScriptClass { return WitnessV0PubKeyHashTy }

// Class returns WitnessV0ScriptHashTy.
func (m WitnessScriptHashMatch) Class() ScriptClass { return WitnessV0ScriptHashTy }

// Class returns NullDataTy.
func (m NullDataMatch) Class() ScriptClass { return NullDataTy }

// Class returns ColdStakeTy.
func (m ColdStakeMatch) Class() ScriptClass { return ColdStakeTy }

// Class returns NonStandardTy.
func (m NonStandardMatch) Class() ScriptClass { return NonStandardTy }

// Script returns a pay-to-pubkey script for the key.
func (m PubKeyMatch) Script() ([]byte, error) {
	return payToPubKeyScript(m.PubKey)
}

// Script returns a pay-to-pubkey-hash script for the hash.
func (m PubKeyHashMatch) Script() ([]byte, error) {
	return payToPubKeyHashScript(m.Hash)
}

// Script returns a pay-to-script-hash script for the hash.
func (m ScriptHashMatch) Script() ([]byte, error) {
	return payToScriptHashScript(m.Hash)
}

// Script returns a bare multisig script for the keys.
func (m MultiSigMatch) Script() ([]byte, error) {
	return multiSigScript(m.PubKeys, m.Required)
}

// Script returns a pay-to-witness-pubkey-hash script for the hash.
func (m WitnessPubKeyHashMatch) Script() ([]byte, error) {
	return payToWitnessPubKeyHashScript(m.Hash)
}

// Script returns a pay-to-witness-script-hash script for the hash.
func (m WitnessScriptHashMatch) Script() ([]byte, error) {
	return payToWitnessScriptHashScript(m.Hash)
}

// Script returns a null data script carrying the data.
func (m NullDataMatch) Script() ([]byte, error) {
	return NullDataScript(m.Data)
}

// Script returns a cold-stake script for the two hashes.
func (m ColdStakeMatch) Script() ([]byte, error) {
	return ColdStakeScript(m.StakerHash, m.OwnerHash)
}

// Script returns the raw script unchanged.
func (m NonStandardMatch) Script() ([]byte, error) {
	return m.Raw, nil
}

// MatchScriptTemplate classifies the passed locking script and extracts the
// parameters of the matching template.  Matching only inspects the exact
// opcode shape and never executes the script.
func MatchScriptTemplate(script []byte) ScriptTemplateMatch {
	switch typeOfScript(script) {
	case PubKeyTy:
		return PubKeyMatch{PubKey: extractPubKey(script)}

	case PubKeyHashTy:
		return PubKeyHashMatch{Hash: extractPubKeyHash(script)}

	case WitnessV0PubKeyHashTy:
		return WitnessPubKeyHashMatch{Hash: extractWitnessPubKeyHash(script)}

	case ScriptHashTy:
		return ScriptHashMatch{Hash: extractScriptHash(script)}

	case WitnessV0ScriptHashTy:
		return WitnessScriptHashMatch{Hash: extractWitnessScriptHash(script)}

	case MultiSigTy:
		required, keys, _ := parseMultiSig(script)
		return MultiSigMatch{Required: required, PubKeys: keys}

	case NullDataTy:
		if len(script) > 1 && script[1] >= OP_1 && script[1] <= OP_16 {
			return NullDataMatch{Data: []byte{byte(asSmallInt(script[1]))}}
		}
		return NullDataMatch{Data: finalOpcodeData(script[1:])}

	case ColdStakeTy:
		staker, owner := extractColdStakeHashes(script)
		return ColdStakeMatch{StakerHash: staker, OwnerHash: owner}
	}

	return NonStandardMatch{Raw: script}
}

// Destination identifies who a locking script pays by the hash committed to
// in the script.
type Destination struct {
	Class ScriptClass
	Hash  []byte
}

// GetDestination returns the key hash, script hash, witness key hash or
// witness script hash the passed locking script pays to.  Pay-to-pubkey
// scripts resolve to the hash of their key.  False is returned for every other
// script.
func GetDestination(script []byte) (Destination, bool) {
	switch m := MatchScriptTemplate(script).(type) {
	case PubKeyMatch:
		return Destination{
			Class: PubKeyHashTy,
			Hash:  btcutil.Hash160(m.PubKey),
		}, true

	case PubKeyHashMatch:
		return Destination{Class: PubKeyHashTy, Hash: m.Hash}, true

	case ScriptHashMatch:
		return Destination{Class: ScriptHashTy, Hash: m.Hash}, true

	case WitnessPubKeyHashMatch:
		return Destination{Class: WitnessV0PubKeyHashTy, Hash: m.Hash}, true

	case WitnessScriptHashMatch:
		return Destination{Class: WitnessV0ScriptHashTy, Hash: m.Hash}, true
	}

	return Destination{}, false
}

// Address encodes the destination as an address for the passed network.
func (d Destination) Address(params *chaincfg.Params) (btcutil.Address, error) {
	switch d.Class {
	case PubKeyHashTy:
		return btcutil.NewAddressPubKeyHash(d.Hash, params)
	case ScriptHashTy:
		return btcutil.NewAddressScriptHashFromHash(d.Hash, params)
	case WitnessV0PubKeyHashTy:
		return btcutil.NewAddressWitnessPubKeyHash(d.Hash, params)
	case WitnessV0ScriptHashTy:
		return btcutil.NewAddressWitnessScriptHash(d.Hash, params)
	}

	str := fmt.Sprintf("no address form for script class %v", d.Class)
	return nil, scriptError(ErrUnsupportedAddress, str)
}

// WitnessWrap converts a pay-to-pubkey or pay-to-pubkey-hash script into the
// equivalent version 0 pay-to-witness-pubkey-hash script.
func WitnessWrap(script []byte) ([]byte, error) {
	switch m := MatchScriptTemplate(script).(type) {
	case PubKeyMatch:
		return payToWitnessPubKeyHashScript(btcutil.Hash160(m.PubKey))
	case PubKeyHashMatch:
		return payToWitnessPubKeyHashScript(m.Hash)
	}

	return nil, AssertError("only pay-to-pubkey and pay-to-pubkey-hash " +
		"scripts can be witness wrapped")
}

// CalcMultiSigStats returns the number of keys and the number of required
// signatures of a bare multisig script.
func CalcMultiSigStats(script []byte) (int, int, error) {
	required, keys, ok := parseMultiSig(script)
	if !ok {
		str := fmt.Sprintf("script %x is not a multisig script", script)
		return 0, 0, scriptError(ErrNotMultisigScript, str)
	}
	return len(keys), required, nil
}

func payToPubKeyHashScript(pubKeyHash []byte) ([]byte, error) {
	return pubKeyHashShape.fill(pubKeyHash)
}

func payToWitnessPubKeyHashScript(pubKeyHash []byte) ([]byte, error) {
	return witnessPubKeyHashShape.fill(pubKeyHash)
}

func payToScriptHashScript(scriptHash []byte) ([]byte, error) {
	return scriptHashShape.fill(scriptHash)
}

func payToWitnessScriptHashScript(scriptHash []byte) ([]byte, error) {
	return witnessScriptHashShape.fill(scriptHash)
}

// payToPubKeyScript picks the compressed or uncompressed layout by key size.
func payToPubKeyScript(serializedPubKey []byte) ([]byte, error) {
	if len(serializedPubKey) == 65 {
		return pubKeyUncompressedShape.fill(serializedPubKey)
	}
	return pubKeyCompressedShape.fill(serializedPubKey)
}

// PayToAddrScript returns the locking script paying to addr.  Typed nil
// addresses and address types with no locking script form are rejected with
// ErrUnsupportedAddress.
func PayToAddrScript(addr btcutil.Address) ([]byte, error) {
	switch a := addr.(type) {
	case *btcutil.AddressPubKeyHash:
		if a != nil {
			return payToPubKeyHashScript(a.ScriptAddress())
		}
	case *btcutil.AddressScriptHash:
		if a != nil {
			return payToScriptHashScript(a.ScriptAddress())
		}
	case *btcutil.AddressPubKey:
		if a != nil {
			return payToPubKeyScript(a.ScriptAddress())
		}
	case *btcutil.AddressWitnessPubKeyHash:
		if a != nil {
			return payToWitnessPubKeyHashScript(a.ScriptAddress())
		}
	case *btcutil.AddressWitnessScriptHash:
		if a != nil {
			return payToWitnessScriptHashScript(a.ScriptAddress())
		}
	default:
		str := fmt.Sprintf("no locking script form for address type %T",
			addr)
		return nil, scriptError(ErrUnsupportedAddress, str)
	}
	return nil, scriptError(ErrUnsupportedAddress,
		"no locking script for a nil address")
}

// NullDataScript returns OP_RETURN followed by a push of data.  Data longer
// than MaxDataCarrierSize fails with ErrTooMuchNullData.
func NullDataScript(data []byte) ([]byte, error) {
	if len(data) > MaxDataCarrierSize {
		str := fmt.Sprintf("%d bytes of null data exceeds the limit of %d",
			len(data), MaxDataCarrierSize)
		return nil, scriptError(ErrTooMuchNullData, str)
	}
	return NewScriptBuilder().AddOp(OP_RETURN).AddData(data).Script()
}

// multiSigScript lays out m <pubkey>... n OP_CHECKMULTISIG.  More than
// maxStandardMultiSigKeys keys is an AssertError and a threshold outside
// [1, n] is ErrTooManyRequiredSigs.
func multiSigScript(pubKeys [][]byte, nrequired int) ([]byte, error) {
	if len(pubKeys) == 0 || len(pubKeys) > maxStandardMultiSigKeys {
		return nil, AssertError(fmt.Sprintf("multisig over %d keys",
			len(pubKeys)))
	}
	if nrequired < 1 || nrequired > len(pubKeys) {
		str := fmt.Sprintf("%d of %d keys cannot be required",
			nrequired, len(pubKeys))
		return nil, scriptError(ErrTooManyRequiredSigs, str)
	}

	builder := NewScriptBuilder().AddInt64(int64(nrequired))
	for _, key := range pubKeys {
		builder.AddData(key)
	}
	return builder.AddInt64(int64(len(pubKeys))).
		AddOp(OP_CHECKMULTISIG).Script()
}

// MultiSigScript returns a bare multisig script requiring nrequired of the
// passed keys.
func MultiSigScript(pubKeys []*btcutil.AddressPubKey, nrequired int) ([]byte, error) {
	keys := make([][]byte, len(pubKeys))
	for i, key := range pubKeys {
		keys[i] = key.ScriptAddress()
	}
	return multiSigScript(keys, nrequired)
}

// ColdStakeScript returns a cold-stake delegation script.  The staker key
// hash may only spend the output into a coin-stake transaction accepted by the
// cold-stake policy while the owner key hash may spend it freely.
func ColdStakeScript(stakerHash, ownerHash []byte) ([]byte, error) {
	return coldStakeShape.fill(stakerHash, ownerHash)
}

// ExtractPkScriptAddrs returns the type of script, addresses and required
// signatures associated with the passed PkScript.  Note that it only works for
// 'standard' transaction script types.  Any data such as public keys which are
// invalid are omitted from the results.
func ExtractPkScriptAddrs(pkScript []byte,
	chainParams *chaincfg.Params) (ScriptClass, []btcutil.Address, int, error) {

	switch m := MatchScriptTemplate(pkScript).(type) {
	case PubKeyMatch:
		addr, err := btcutil.NewAddressPubKey(m.PubKey, chainParams)
		if err != nil {
			return PubKeyTy, nil, 0, nil
		}
		return PubKeyTy, []btcutil.Address{addr}, 1, nil

	case MultiSigMatch:
		var addrs []btcutil.Address
		for _, pubkey := range m.PubKeys {
			addr, err := btcutil.NewAddressPubKey(pubkey, chainParams)
			if err == nil {
				addrs = append(addrs, addr)
			}
		}
		return MultiSigTy, addrs, m.Required, nil

	case ColdStakeMatch:
		var addrs []btcutil.Address
		for _, hash := range [][]byte{m.StakerHash, m.OwnerHash} {
			addr, err := btcutil.NewAddressPubKeyHash(hash, chainParams)
			if err == nil {
				addrs = append(addrs, addr)
			}
		}
		return ColdStakeTy, addrs, 1, nil

	case NullDataMatch:
		return NullDataTy, nil, 0, nil

	case NonStandardMatch:
		if isWitnessProgramScript(pkScript) {
			return WitnessUnknownTy, nil, 0, nil
		}
		return NonStandardTy, nil, 0, nil
	}

	dest, _ := GetDestination(pkScript)
	addr, err := dest.Address(chainParams)
	if err != nil {
		return dest.Class, nil, 0, nil
	}
	return dest.Class, []btcutil.Address{addr}, 1, nil
}
