// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/btcsuite/btclog"
	"github.com/stretchr/testify/require"
)

// TestUseLogger ensures a caller provided logger receives package output and
// that deferred closures are only evaluated when the level is enabled.
func TestUseLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := btclog.NewBackend(&buf).Logger("TXSC")
	logger.SetLevel(btclog.LevelDebug)

	UseLogger(logger)
	defer DisableLog()

	var calls int
	closure := newLogClosure(func() string {
		calls++
		return "expensive"
	})

	log.Tracef("%v", closure)
	require.Zero(t, calls)

	log.Debugf("%v", closure)
	require.Equal(t, 1, calls)
	require.Contains(t, buf.String(), "TXSC: expensive")
	require.Equal(t, "expensive", fmt.Sprint(closure))
}
