// Copyright (c) 2015-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func TestLockTime(t *testing.T) {
	t.Parallel()

	height := LockTime(LockTimeThreshold - 1)
	timestamp := LockTime(LockTimeThreshold)

	require.True(t, height.IsHeight())
	require.False(t, timestamp.IsHeight())
	require.False(t, height.SameKind(timestamp))
	require.True(t, LockTime(0).SameKind(height))

	require.True(t, LockTime(100).Satisfies(100))
	require.True(t, LockTime(101).Satisfies(100))
	require.False(t, LockTime(99).Satisfies(100))
	require.False(t, timestamp.Satisfies(100))
	require.False(t, height.Satisfies(timestamp))

	require.True(t, LockTime(0).IsFinalAt(0, 0))
	require.True(t, LockTime(100).IsFinalAt(101, 0))
	require.False(t, LockTime(100).IsFinalAt(100, 0))
	require.True(t, LockTime(LockTimeThreshold+10).IsFinalAt(0,
		LockTimeThreshold+11))
	require.False(t, LockTime(LockTimeThreshold+10).IsFinalAt(1<<30,
		LockTimeThreshold+10))

	require.Equal(t, "height 100", LockTime(100).String())
	require.Equal(t, "time 500000000", timestamp.String())
}

func TestSequence(t *testing.T) {
	t.Parallel()

	require.True(t, Sequence(wire.MaxTxInSequenceNum).IsFinal())
	require.False(t, Sequence(wire.MaxTxInSequenceNum-1).IsFinal())

	disabled := Sequence(wire.SequenceLockTimeDisabled | 10)
	require.False(t, disabled.IsRelativeLock())

	blocks := Sequence(10)
	require.True(t, blocks.IsRelativeLock())
	require.False(t, blocks.IsSeconds())
	require.Equal(t, uint32(10), blocks.Value())

	seconds := Sequence(wire.SequenceLockTimeIsSeconds | 5)
	require.True(t, seconds.IsRelativeLock())
	require.True(t, seconds.IsSeconds())
	require.Equal(t, uint32(5), seconds.Value())
	require.Equal(t, int64(5*512), seconds.Seconds())

	// Bits outside the relative lock rules are ignored.
	require.Equal(t, uint32(0x0040ffff), Sequence(0x7fffffff).Masked())
	require.Equal(t, uint32(0xffff), Sequence(0x0031ffff).Value())
}
