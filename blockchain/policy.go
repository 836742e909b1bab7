// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/coldstake/coldstaked/txscript"
)

const (
	// MaxStandardTxVersion is the highest transaction version relayed.
	MaxStandardTxVersion = 2

	// maxStandardSigScriptSize fits a 15-of-15 multisig redeem script with
	// compressed keys together with its signatures.
	maxStandardSigScriptSize = 1650

	// maxStandardMultiSigKeys is the most keys a bare multisig output may
	// carry.
	maxStandardMultiSigKeys = 3
)

// checkPkScriptStandard fails output scripts of no recognized form and bare
// multisig scripts with more than maxStandardMultiSigKeys keys.
func checkPkScriptStandard(pkScript []byte) error {
	switch m := txscript.MatchScriptTemplate(pkScript).(type) {
	case txscript.MultiSigMatch:
		if len(m.PubKeys) > maxStandardMultiSigKeys {
			return fmt.Errorf("multi-signature script with %d public "+
				"keys which is more than the allowed max of %d",
				len(m.PubKeys), maxStandardMultiSigKeys)
		}

	case txscript.NonStandardMatch:
		if txscript.GetScriptClass(pkScript) != txscript.WitnessUnknownTy {
			return fmt.Errorf("non-standard script form")
		}
	}
	return nil
}

// CheckTransactionStandard applies the relay policy on top of consensus.  A
// standard transaction has a version in [1, MaxStandardTxVersion], push only
// signature scripts of bounded size, outputs of recognized forms and at most
// one null data output.
func CheckTransactionStandard(tx *btcutil.Tx) error {
	msgTx := tx.MsgTx()
	if msgTx.Version < 1 || msgTx.Version > MaxStandardTxVersion {
		str := fmt.Sprintf("transaction version %d is not in the valid "+
			"range of %d-%d", msgTx.Version, 1, MaxStandardTxVersion)
		return ruleError(ErrNonStandard, str)
	}

	for i, txIn := range msgTx.TxIn {
		if n := len(txIn.SignatureScript); n > maxStandardSigScriptSize {
			str := fmt.Sprintf("transaction input %d: signature script "+
				"size is larger than max allowed: %d > %d bytes", i, n,
				maxStandardSigScriptSize)
			return ruleError(ErrNonStandard, str)
		}
		if !txscript.IsPushOnlyScript(txIn.SignatureScript) {
			str := fmt.Sprintf("transaction input %d: signature script "+
				"is not push only", i)
			return ruleError(ErrNonStandard, str)
		}
	}

	numNullData := 0
	for i, txOut := range msgTx.TxOut {
		if err := checkPkScriptStandard(txOut.PkScript); err != nil {
			str := fmt.Sprintf("transaction output %d: %v", i, err)
			return ruleError(ErrNonStandard, str)
		}
		if txscript.GetScriptClass(txOut.PkScript) == txscript.NullDataTy {
			numNullData++
		}
	}
	if numNullData > 1 {
		return ruleError(ErrNonStandard, "more than one transaction "+
			"output in a nulldata script")
	}
	return nil
}
