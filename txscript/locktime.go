// Copyright (c) 2015-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"fmt"

	"github.com/btcsuite/btcd/wire"
)

const (
	// LockTimeThreshold is the number below which a lock time is
	// interpreted to be a block number.  Since an average of one block
	// is generated per 10 minutes, this allows blocks for about 9,512
	// years.
	LockTimeThreshold = 5e8 // Tue Nov 5 00:53:20 1985 UTC

	// SequenceLockTimeGranularity is the defined time based granularity
	// for seconds-based relative time locks.  When converting from seconds
	// to a sequence number, the value is right shifted by this amount,
	// therefore the granularity of relative time locks in 512 or 2^9
	// seconds.
	SequenceLockTimeGranularity = wire.SequenceLockTimeGranularity
)

// LockTime is the absolute lock time of a transaction.  Values below
// LockTimeThreshold are block heights and values at or above it are unix
// timestamps.
type LockTime uint32

// IsHeight returns whether the lock time is expressed as a block height.
func (l LockTime) IsHeight() bool {
	return l < LockTimeThreshold
}

// SameKind returns whether both lock times are expressed in the same unit.
func (l LockTime) SameKind(other LockTime) bool {
	return l.IsHeight() == other.IsHeight()
}

// Satisfies returns whether the lock time, when used as the current
// transaction lock time, satisfies the required lock time.  Lock times of
// differing kinds never satisfy each other.
func (l LockTime) Satisfies(required LockTime) bool {
	return l.SameKind(required) && required <= l
}

// IsFinalAt returns whether the lock time has passed given the block height
// and time the transaction is being evaluated against.  Zero lock times are
// always final.
func (l LockTime) IsFinalAt(blockHeight int32, blockTime int64) bool {
	if l == 0 {
		return true
	}

	var limit int64
	if l.IsHeight() {
		limit = int64(blockHeight)
	} else {
		limit = blockTime
	}
	return int64(l) < limit
}

// String returns the lock time along with its unit.
func (l LockTime) String() string {
	if l.IsHeight() {
		return fmt.Sprintf("height %d", uint32(l))
	}
	return fmt.Sprintf("time %d", uint32(l))
}

// Sequence is the sequence number of a transaction input as interpreted by the
// relative lock time rules.
type Sequence uint32

// IsFinal returns whether the sequence number is the maximum value, which
// disables the absolute lock time of the input.
func (s Sequence) IsFinal() bool {
	return uint32(s) == wire.MaxTxInSequenceNum
}

// IsRelativeLock returns whether the sequence number encodes a relative lock
// time, which is the case when the disable bit is clear.
func (s Sequence) IsRelativeLock() bool {
	return uint32(s)&wire.SequenceLockTimeDisabled == 0
}

// IsSeconds returns whether a relative lock is expressed in units of 512
// seconds rather than blocks.
func (s Sequence) IsSeconds() bool {
	return uint32(s)&wire.SequenceLockTimeIsSeconds != 0
}

// Value returns the 16-bit magnitude of the relative lock.
func (s Sequence) Value() uint32 {
	return uint32(s) & wire.SequenceLockTimeMask
}

// Masked returns the sequence with every bit that is not part of the relative
// lock consensus rules cleared.
func (s Sequence) Masked() uint32 {
	return uint32(s) & (wire.SequenceLockTimeIsSeconds |
		wire.SequenceLockTimeMask)
}

// Seconds returns the duration of a time based relative lock in seconds.
func (s Sequence) Seconds() int64 {
	return int64(s.Value()) << SequenceLockTimeGranularity
}
