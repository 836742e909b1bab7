// Copyright (c) 2013-2018 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"fmt"
	"sort"
	"strings"
)

// ScriptFlags selects the optional verification rules an Engine enforces on
// top of the base consensus rules.
type ScriptFlags uint32

const (
	// ScriptBip16 evaluates the redeem script of pay-to-script-hash
	// outputs (BIP0016).
	ScriptBip16 ScriptFlags = 1 << iota

	// ScriptStrictMultiSig requires the extra item consumed by
	// OP_CHECKMULTISIG to be empty (BIP0147).
	ScriptStrictMultiSig

	// ScriptDiscourageUpgradableNops fails scripts that execute OP_NOP1
	// through OP_NOP10.  It is a policy rule and never part of consensus.
	ScriptDiscourageUpgradableNops

	// ScriptVerifyCheckLockTimeVerify turns OP_NOP2 into
	// OP_CHECKLOCKTIMEVERIFY (BIP0065).
	ScriptVerifyCheckLockTimeVerify

	// ScriptVerifyCheckSequenceVerify turns OP_NOP3 into
	// OP_CHECKSEQUENCEVERIFY (BIP0112).
	ScriptVerifyCheckSequenceVerify

	// ScriptVerifyCleanStack requires exactly one item to remain once the
	// final script completes.  It is only valid together with ScriptBip16
	// or ScriptVerifyWitness.
	ScriptVerifyCleanStack

	// ScriptVerifyDERSignatures requires strict DER signature encoding
	// (BIP0066).
	ScriptVerifyDERSignatures

	// ScriptVerifyLowS requires the S value of every signature to be in the
	// lower half of the curve order.
	ScriptVerifyLowS

	// ScriptVerifyMinimalData requires minimal push encodings and minimally
	// encoded numeric operands.
	ScriptVerifyMinimalData

	// ScriptVerifyNullFail requires every signature passed to a failing
	// signature check to be empty.
	ScriptVerifyNullFail

	// ScriptVerifySigPushOnly requires signature scripts to consist of
	// pushes only.
	ScriptVerifySigPushOnly

	// ScriptVerifyStrictEncoding requires strict signature, hash type and
	// public key encodings.
	ScriptVerifyStrictEncoding

	// ScriptVerifyWitness verifies native and nested witness programs
	// (BIP0141).  It requires ScriptBip16.
	ScriptVerifyWitness

	// ScriptVerifyDiscourageUpgradeableWitnessProgram fails witness
	// programs of versions that have no defined semantics.
	ScriptVerifyDiscourageUpgradeableWitnessProgram

	// ScriptVerifyMinimalIf requires the OP_IF and OP_NOTIF operand of
	// version 0 witness scripts to be empty or exactly [0x01].
	ScriptVerifyMinimalIf

	// ScriptVerifyWitnessPubKeyType requires compressed public keys in
	// version 0 witness scripts.
	ScriptVerifyWitnessPubKeyType

	// ScriptVerifyCheckColdStakeVerify turns OP_NOP10 into
	// OP_CHECKCOLDSTAKEVERIFY, which consults the engine's ColdStakePolicy.
	ScriptVerifyCheckColdStakeVerify
)

// StandardVerifyFlags is the rule set applied to transactions before they are
// relayed or mined.  It is stricter than consensus.
const StandardVerifyFlags = ScriptBip16 |
	ScriptVerifyDERSignatures |
	ScriptVerifyStrictEncoding |
	ScriptVerifyMinimalData |
	ScriptStrictMultiSig |
	ScriptDiscourageUpgradableNops |
	ScriptVerifyCleanStack |
	ScriptVerifyNullFail |
	ScriptVerifyCheckLockTimeVerify |
	ScriptVerifyCheckSequenceVerify |
	ScriptVerifyLowS |
	ScriptVerifyWitness |
	ScriptVerifyDiscourageUpgradeableWitnessProgram |
	ScriptVerifyMinimalIf |
	ScriptVerifyWitnessPubKeyType

// scriptFlagNames maps the textual flag names used by the command line and
// the test vectors to the flag each one enables.
var scriptFlagNames = map[string]ScriptFlags{
	"P2SH":                                  ScriptBip16,
	"NULLDUMMY":                             ScriptStrictMultiSig,
	"DISCOURAGE_UPGRADABLE_NOPS":            ScriptDiscourageUpgradableNops,
	"CHECKLOCKTIMEVERIFY":                   ScriptVerifyCheckLockTimeVerify,
	"CHECKSEQUENCEVERIFY":                   ScriptVerifyCheckSequenceVerify,
	"CLEANSTACK":                            ScriptVerifyCleanStack,
	"DERSIG":                                ScriptVerifyDERSignatures,
	"LOW_S":                                 ScriptVerifyLowS,
	"MINIMALDATA":                           ScriptVerifyMinimalData,
	"NULLFAIL":                              ScriptVerifyNullFail,
	"SIGPUSHONLY":                           ScriptVerifySigPushOnly,
	"STRICTENC":                             ScriptVerifyStrictEncoding,
	"WITNESS":                               ScriptVerifyWitness,
	"DISCOURAGE_UPGRADABLE_WITNESS_PROGRAM": ScriptVerifyDiscourageUpgradeableWitnessProgram,
	"MINIMALIF":                             ScriptVerifyMinimalIf,
	"WITNESS_PUBKEYTYPE":                    ScriptVerifyWitnessPubKeyType,
	"CHECKCOLDSTAKEVERIFY":                  ScriptVerifyCheckColdStakeVerify,
}

// ParseScriptFlags parses a comma separated list of flag names such as
// "P2SH,STRICTENC".  Names are case insensitive.  "NONE" adds nothing and
// "STANDARD" adds StandardVerifyFlags.
func ParseScriptFlags(flagStr string) (ScriptFlags, error) {
	var flags ScriptFlags
	for _, name := range strings.Split(flagStr, ",") {
		name = strings.ToUpper(strings.TrimSpace(name))
		switch name {
		case "", "NONE":
			continue
		case "STANDARD":
			flags |= StandardVerifyFlags
			continue
		}

		flag, ok := scriptFlagNames[name]
		if !ok {
			return 0, fmt.Errorf("invalid script flag %q", name)
		}
		flags |= flag
	}
	return flags, nil
}

// String returns the sorted, comma separated names of the set flags.
func (flags ScriptFlags) String() string {
	if flags == 0 {
		return "NONE"
	}

	names := make([]string, 0, len(scriptFlagNames))
	for name, flag := range scriptFlagNames {
		if flags&flag == flag {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}
