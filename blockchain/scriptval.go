// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"context"
	"fmt"
	"runtime"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/coldstake/coldstaked/txscript"
	"golang.org/x/sync/errgroup"
)

// inputRef names one input to validate.  sigHashes is shared by every input
// of the same transaction.
type inputRef struct {
	tx        *btcutil.Tx
	idx       int
	sigHashes *txscript.TxSigHashes
}

// scriptValidator runs the script engine over inputs against one view.
type scriptValidator struct {
	view     *UtxoViewpoint
	flags    txscript.ScriptFlags
	sigCache *txscript.SigCache
	policy   txscript.ColdStakePolicy
}

// validate executes the scripts of a single input.  Engine setup failures are
// ErrScriptMalformed and execution failures ErrScriptValidation, both
// wrapping the script error.
func (v *scriptValidator) validate(in inputRef) error {
	txIn := in.tx.MsgTx().TxIn[in.idx]
	entry := v.view.LookupEntry(txIn.PreviousOutPoint)
	if entry == nil {
		return missingTxOut(in.tx, in.idx)
	}

	pkScript := entry.PkScript()
	fail := func(code ErrorCode, verb string, err error) error {
		return RuleError{
			ErrorCode: code,
			Description: fmt.Sprintf("failed to %s input %s:%d which "+
				"references output %v - %v (input witness %x, "+
				"input script bytes %x, prev output script bytes "+
				"%x)", verb, in.tx.Hash(), in.idx,
				txIn.PreviousOutPoint, err, txIn.Witness,
				txIn.SignatureScript, pkScript),
			Err: err,
		}
	}

	vm, err := txscript.NewEngine(pkScript, in.tx.MsgTx(), in.idx, v.flags,
		v.sigCache, in.sigHashes, entry.Amount(),
		txscript.WithColdStakePolicy(v.policy))
	if err != nil {
		return fail(ErrScriptMalformed, "parse", err)
	}
	if err := vm.Execute(); err != nil {
		return fail(ErrScriptValidation, "validate", err)
	}

	log.Tracef("Validated input %s:%d", in.tx.Hash(), in.idx)
	return nil
}

// validateAll validates inputs on up to three goroutines per CPU and returns
// the first failure.  Inputs not yet started are skipped once one fails.
func (v *scriptValidator) validateAll(inputs []inputRef) error {
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(runtime.NumCPU() * 3)
	for _, in := range inputs {
		in := in
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			return v.validate(in)
		})
	}
	return g.Wait()
}

func witnessActive(flags txscript.ScriptFlags) bool {
	return flags&txscript.ScriptVerifyWitness == txscript.ScriptVerifyWitness
}

// txSigHashes returns the BIP0143 midstate of tx, taken from or added to
// hashCache when one is given.  It is nil when tx has no witness or witness
// validation is off, since nothing would use it.
func txSigHashes(tx *btcutil.Tx, flags txscript.ScriptFlags,
	hashCache *txscript.HashCache) *txscript.TxSigHashes {

	switch {
	case !witnessActive(flags) || !tx.MsgTx().HasWitness():
		return nil
	case hashCache == nil:
		return txscript.NewTxSigHashes(tx.MsgTx())
	}
	if sigHashes, ok := hashCache.GetSigHashes(tx.Hash()); ok {
		return sigHashes
	}
	return hashCache.AddSigHashes(tx.MsgTx())
}

// appendInputs adds every non-coinbase input of tx to inputs.
func appendInputs(inputs []inputRef, tx *btcutil.Tx, flags txscript.ScriptFlags,
	hashCache *txscript.HashCache) []inputRef {

	sigHashes := txSigHashes(tx, flags, hashCache)
	for idx, txIn := range tx.MsgTx().TxIn {
		if txIn.PreviousOutPoint.Index == wire.MaxPrevOutIndex {
			continue
		}
		inputs = append(inputs, inputRef{tx, idx, sigHashes})
	}
	return inputs
}

// ValidateTransactionScripts validates the scripts for the passed transaction
// using multiple goroutines.  The view must contain every output the
// transaction spends.  Both caches and the cold-stake policy are optional.
func ValidateTransactionScripts(tx *btcutil.Tx, utxoView *UtxoViewpoint,
	flags txscript.ScriptFlags, sigCache *txscript.SigCache,
	hashCache *txscript.HashCache, policy txscript.ColdStakePolicy) error {

	v := &scriptValidator{utxoView, flags, sigCache, policy}
	return v.validateAll(appendInputs(nil, tx, flags, hashCache))
}

// CheckBlockScripts executes and validates the scripts for all of the passed
// transactions, in block order, as a single batch.  The view must contain
// every output the transactions spend, including outputs created by earlier
// transactions in the list.  The midstates computed along the way are purged
// from the hash cache once the batch completes.
func CheckBlockScripts(txs []*btcutil.Tx, utxoView *UtxoViewpoint,
	flags txscript.ScriptFlags, sigCache *txscript.SigCache,
	hashCache *txscript.HashCache, policy txscript.ColdStakePolicy) error {

	var inputs []inputRef
	for _, tx := range txs {
		inputs = appendInputs(inputs, tx, flags, hashCache)
	}

	v := &scriptValidator{utxoView, flags, sigCache, policy}
	if err := v.validateAll(inputs); err != nil {
		return err
	}

	if hashCache != nil {
		for _, tx := range txs {
			if tx.MsgTx().HasWitness() {
				hashCache.PurgeSigHashes(tx.Hash())
			}
		}
	}

	log.Debugf("Validated %d inputs of %d transactions", len(inputs),
		len(txs))
	return nil
}
