// Copyright (c) 2017-2018 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/coldstake/coldstaked/txscript"
)

// SequenceLock is the last block height and past median time at which the
// relative locks of a transaction still hold.  The transaction may be mined
// in a block above BlockHeight whose predecessor's median time is past
// Seconds.  Either field is -1 when no input locks on it.
type SequenceLock struct {
	Seconds     int64
	BlockHeight int32
}

// IsCoinBaseTx reports whether msgTx is a coinbase: a single input spending
// the null outpoint.
func IsCoinBaseTx(msgTx *wire.MsgTx) bool {
	if len(msgTx.TxIn) != 1 {
		return false
	}
	prevOut := msgTx.TxIn[0].PreviousOutPoint
	return prevOut.Index == wire.MaxPrevOutIndex &&
		prevOut.Hash == chainhash.Hash{}
}

// IsFinalizedTransaction reports whether the absolute lock time of tx allows
// it in a block at blockHeight with past median time blockTime.  A
// transaction whose inputs all have final sequence numbers is always final.
func IsFinalizedTransaction(tx *btcutil.Tx, blockHeight int32,
	blockTime time.Time) bool {

	msgTx := tx.MsgTx()
	if txscript.LockTime(msgTx.LockTime).IsFinalAt(blockHeight,
		blockTime.Unix()) {

		return true
	}
	for _, txIn := range msgTx.TxIn {
		if !txscript.Sequence(txIn.Sequence).IsFinal() {
			return false
		}
	}
	return true
}

// CalcSequenceLock folds the BIP0068 relative locks of every input of tx into
// one SequenceLock, measuring each from the height and median time recorded
// for the spent output in view.  Outputs at UnminedHeight count as confirmed
// at nextHeight.  Relative locks only bind transactions of version 2 and up,
// and only when csvActive is set.
func CalcSequenceLock(tx *btcutil.Tx, view *UtxoViewpoint, nextHeight int32,
	csvActive bool) (*SequenceLock, error) {

	lock := &SequenceLock{Seconds: -1, BlockHeight: -1}
	msgTx := tx.MsgTx()
	if IsCoinBaseTx(msgTx) || !csvActive || uint32(msgTx.Version) < 2 {
		return lock, nil
	}

	entries, err := view.inputEntries(tx)
	if err != nil {
		return lock, err
	}
	for i, entry := range entries {
		seq := txscript.Sequence(msgTx.TxIn[i].Sequence)
		if !seq.IsRelativeLock() {
			continue
		}

		// A lock of n is satisfied n blocks or seconds after the
		// output confirmed, so the last locked point is one less.
		if seq.IsSeconds() {
			until := entry.MedianTime().Unix() + seq.Seconds() - 1
			if until > lock.Seconds {
				lock.Seconds = until
			}
			continue
		}

		height := entry.BlockHeight()
		if height == UnminedHeight {
			height = nextHeight
		}
		until := int64(height) + int64(seq.Value()) - 1
		if until > int64(lock.BlockHeight) {
			lock.BlockHeight = int32(until)
		}
	}
	return lock, nil
}

// LockTimeToSequence returns the BIP0068 sequence number encoding a relative
// lock of locktime blocks, or seconds when isSeconds is set.  Seconds are
// truncated to the 512 second granularity.
func LockTimeToSequence(isSeconds bool, locktime uint32) (uint32, error) {
	if !isSeconds {
		if locktime > wire.SequenceLockTimeMask {
			return 0, fmt.Errorf("max relative block height a "+
				"sequence number can represent is %d",
				wire.SequenceLockTimeMask)
		}
		return locktime, nil
	}

	const maxSeconds = wire.SequenceLockTimeMask <<
		wire.SequenceLockTimeGranularity
	if locktime > maxSeconds {
		return 0, fmt.Errorf("max relative seconds a sequence number "+
			"can represent is %d", maxSeconds)
	}
	return wire.SequenceLockTimeIsSeconds |
		locktime>>wire.SequenceLockTimeGranularity, nil
}

// SequenceLockActive reports whether a block at blockHeight whose predecessor
// has past median time medianTimePast is beyond sequenceLock.
func SequenceLockActive(sequenceLock *SequenceLock, blockHeight int32,
	medianTimePast time.Time) bool {

	return sequenceLock.Seconds < medianTimePast.Unix() &&
		sequenceLock.BlockHeight < blockHeight
}

// CheckTransactionLocks fails with ErrUnfinalizedTx or ErrSequenceLockNotMet
// when the absolute or relative locks of tx keep it out of a block at
// blockHeight whose predecessor has past median time medianTime.
func CheckTransactionLocks(tx *btcutil.Tx, view *UtxoViewpoint,
	blockHeight int32, medianTime time.Time, csvActive bool) error {

	if !IsFinalizedTransaction(tx, blockHeight, medianTime) {
		str := fmt.Sprintf("transaction %v is locked until %v, beyond "+
			"height %d and time %v", tx.Hash(),
			txscript.LockTime(tx.MsgTx().LockTime), blockHeight,
			medianTime.Unix())
		return ruleError(ErrUnfinalizedTx, str)
	}

	lock, err := CalcSequenceLock(tx, view, blockHeight, csvActive)
	if err != nil {
		return err
	}
	if !SequenceLockActive(lock, blockHeight, medianTime) {
		str := fmt.Sprintf("transaction %v has relative locks until "+
			"height %d and time %d", tx.Hash(), lock.BlockHeight,
			lock.Seconds)
		return ruleError(ErrSequenceLockNotMet, str)
	}
	return nil
}
