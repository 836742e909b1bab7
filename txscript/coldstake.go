// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/wire"
)

// ColdStakePolicy decides whether a transaction may spend an output through
// the staker branch of a cold-stake script.  It is consulted by
// OP_CHECKCOLDSTAKEVERIFY when ScriptVerifyCheckColdStakeVerify is set.
//
// Returning an error fails the script.  Errors that are not already script
// errors are reported with ErrCheckColdStakeVerify.
type ColdStakePolicy interface {
	CheckColdStake(tx *wire.MsgTx, txIdx int, prevScript []byte) error
}

// ColdStakePolicyFunc is an adapter to allow the use of ordinary functions as
// a ColdStakePolicy.
type ColdStakePolicyFunc func(tx *wire.MsgTx, txIdx int, prevScript []byte) error

// CheckColdStake calls f(tx, txIdx, prevScript).
func (f ColdStakePolicyFunc) CheckColdStake(tx *wire.MsgTx, txIdx int,
	prevScript []byte) error {

	return f(tx, txIdx, prevScript)
}

var (
	// ErrNotCoinStake is returned by the stake output policy when the
	// spending transaction is not a coin-stake.
	ErrNotCoinStake = errors.New("spending transaction is not a coin-stake")

	// ErrStakeOutputMismatch is returned by the stake output policy when a
	// coin-stake output does not return to the delegated script.
	ErrStakeOutputMismatch = errors.New("coin-stake output does not pay " +
		"to the delegated script")
)

// stakeOutputPolicy is the default cold-stake policy.  See
// NewStakeOutputPolicy.
type stakeOutputPolicy struct {
	isCoinStake func(*wire.MsgTx) bool
}

// NewStakeOutputPolicy returns the default cold-stake policy.  It accepts a
// spend when isCoinStake classifies the spending transaction as a coin-stake
// and every output other than the empty coin-stake marker and null data
// outputs pays back to the script being spent.  This keeps delegated coins
// under the same delegation while the staker uses them.
func NewStakeOutputPolicy(isCoinStake func(*wire.MsgTx) bool) ColdStakePolicy {
	return &stakeOutputPolicy{isCoinStake: isCoinStake}
}

// CheckColdStake implements the ColdStakePolicy interface.
func (p *stakeOutputPolicy) CheckColdStake(tx *wire.MsgTx, txIdx int,
	prevScript []byte) error {

	if p.isCoinStake == nil || !p.isCoinStake(tx) {
		return ErrNotCoinStake
	}

	for i, txOut := range tx.TxOut {
		if len(txOut.PkScript) == 0 || isNullDataScript(txOut.PkScript) {
			continue
		}
		if !bytes.Equal(txOut.PkScript, prevScript) {
			return fmt.Errorf("output %d: %w", i, ErrStakeOutputMismatch)
		}
	}

	log.Tracef("cold-stake spend of input %d accepted by stake output "+
		"policy", txIdx)
	return nil
}

// IsCoinStakeTx reports whether the transaction has the shape of a
// coin-stake: at least one input that is not a coinbase and at least two
// outputs, the first of which is empty.
func IsCoinStakeTx(tx *wire.MsgTx) bool {
	if len(tx.TxIn) == 0 || len(tx.TxOut) < 2 {
		return false
	}
	if tx.TxIn[0].PreviousOutPoint.Index == wire.MaxPrevOutIndex {
		return false
	}
	first := tx.TxOut[0]
	return first.Value == 0 && len(first.PkScript) == 0
}
