// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/coldstake/coldstaked/blockchain"
	"github.com/coldstake/coldstaked/internal/limits"
	"github.com/coldstake/coldstaked/internal/log"
	"github.com/coldstake/coldstaked/internal/version"
	"github.com/coldstake/coldstaked/txscript"
)

const (
	// prevOutDbName is the name of the previous output store inside the
	// data directory.
	prevOutDbName = "prevouts"

	// hashCacheMaxSize is the number of sighash midstates kept around.
	hashCacheMaxSize = 100
)

// verifier checks transactions against a utxo view under one set of script
// flags.
type verifier struct {
	params    *chaincfg.Params
	flags     txscript.ScriptFlags
	csvActive bool
	standard  bool
	sigCache  *txscript.SigCache
	hashCache *txscript.HashCache
	policy    txscript.ColdStakePolicy
}

// newVerifier returns a verifier for the passed configuration.  The coin-stake
// output policy is installed whenever OP_CHECKCOLDSTAKEVERIFY is enabled.
func newVerifier(cfg *config) *verifier {
	v := &verifier{
		params:    cfg.params,
		flags:     cfg.scriptFlags,
		csvActive: !cfg.NoCSV,
		standard:  !cfg.AcceptNonStd,
		sigCache:  txscript.NewSigCache(cfg.SigCacheMaxSize),
		hashCache: txscript.NewHashCache(hashCacheMaxSize),
	}
	if v.flags&txscript.ScriptVerifyCheckColdStakeVerify != 0 {
		v.policy = txscript.NewStakeOutputPolicy(txscript.IsCoinStakeTx)
	}
	return v
}

// logInputs describes every output the transaction spends.
func (v *verifier) logInputs(tx *btcutil.Tx, view *blockchain.UtxoViewpoint) {
	for i, txIn := range tx.MsgTx().TxIn {
		entry := view.LookupEntry(txIn.PreviousOutPoint)
		if entry == nil {
			log.VrfyLog.Warnf("Input %d spends unknown output %v", i,
				txIn.PreviousOutPoint)
			continue
		}

		class, addrs, reqSigs, _ := txscript.ExtractPkScriptAddrs(
			entry.PkScript(), v.params)
		log.VrfyLog.Infof("Input %d spends %v: %v paying %v to %v "+
			"(%d required signatures)", i, txIn.PreviousOutPoint,
			class, btcutil.Amount(entry.Amount()), addrs, reqSigs)
	}
}

// verify runs every transaction level check against the passed view for a
// block at the given height whose predecessor has the given past median time.
func (v *verifier) verify(tx *btcutil.Tx, view *blockchain.UtxoViewpoint,
	height int32, medianTime time.Time) error {

	if blockchain.IsCoinBaseTx(tx.MsgTx()) {
		return errors.New("coinbase transactions spend no outputs")
	}
	if err := blockchain.CheckTransactionSanity(tx); err != nil {
		return err
	}
	if v.standard {
		if err := blockchain.CheckTransactionStandard(tx); err != nil {
			return err
		}
	}
	v.logInputs(tx, view)

	err := blockchain.CheckTransactionLocks(tx, view, height, medianTime,
		v.csvActive)
	if err != nil {
		return err
	}

	cost, err := blockchain.CheckTransactionSigOpCost(tx, view, v.flags)
	if err != nil {
		return err
	}
	log.VrfyLog.Debugf("Transaction %v: weight %d, virtual size %d, sig "+
		"op cost %d", tx.Hash(), blockchain.GetTransactionWeight(tx),
		blockchain.GetTxVirtualSize(tx), cost)

	err = blockchain.ValidateTransactionScripts(tx, view, v.flags,
		v.sigCache, v.hashCache, v.policy)
	if err != nil {
		return err
	}

	log.VrfyLog.Infof("All %d inputs of transaction %v verified",
		len(tx.MsgTx().TxIn), tx.Hash())
	return nil
}

// nextHeight returns the height of the block after the highest confirmed
// output in the view.
func nextHeight(view *blockchain.UtxoViewpoint) int32 {
	var height int32
	for _, entry := range view.Entries() {
		entryHeight := entry.BlockHeight()
		if entryHeight != blockchain.UnminedHeight && entryHeight > height {
			height = entryHeight
		}
	}
	return height + 1
}

// decodeTx decodes a hex encoded transaction, with or without witness data.
func decodeTx(txHex string) (*btcutil.Tx, error) {
	serialized, err := hex.DecodeString(strings.TrimSpace(txHex))
	if err != nil {
		return nil, fmt.Errorf("malformed transaction hex: %w", err)
	}
	tx, err := btcutil.NewTxFromBytes(serialized)
	if err != nil {
		return nil, fmt.Errorf("malformed transaction: %w", err)
	}
	return tx, nil
}

// assembleScript assembles the passed script template and writes its
// encoding, disassembly, and standard form to w.
func assembleScript(w io.Writer, scriptTmpl string, scriptParams []string,
	chainParams *chaincfg.Params) error {

	params, err := parseScriptParams(scriptParams)
	if err != nil {
		return err
	}
	script, err := txscript.ScriptTemplate(scriptTmpl,
		txscript.WithScriptTemplateParams(params))
	if err != nil {
		return err
	}
	disasm, err := txscript.DisasmString(script)
	if err != nil {
		return err
	}
	class, addrs, _, err := txscript.ExtractPkScriptAddrs(script,
		chainParams)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "hex:       %x\n", script)
	fmt.Fprintf(w, "asm:       %s\n", disasm)
	fmt.Fprintf(w, "class:     %v\n", class)
	for _, addr := range addrs {
		fmt.Fprintf(w, "address:   %v\n", addr)
	}
	return nil
}

// run verifies the configured transaction.  Previous outputs come from the
// prevouts file and, unless disabled, the store, which receives the outputs
// of the transaction once it verified.
func run(cfg *config) error {
	tx, err := decodeTx(cfg.Tx)
	if err != nil {
		return err
	}

	view := blockchain.NewUtxoViewpoint()
	if cfg.PrevOuts != "" {
		n, err := loadPrevOuts(cfg.PrevOuts, view)
		if err != nil {
			return err
		}
		log.VrfyLog.Debugf("Loaded %d previous outputs from %s", n,
			cfg.PrevOuts)
	}

	var store *blockchain.PrevOutStore
	if !cfg.NoStore {
		store, err = blockchain.OpenPrevOutStore(filepath.Join(cfg.DataDir,
			prevOutDbName))
		if err != nil {
			return err
		}
		defer store.Close()

		err = view.FetchInputUtxos(store, []*btcutil.Tx{tx})
		if err != nil {
			return err
		}
	}

	height := cfg.Height
	if height == 0 {
		height = nextHeight(view)
	}
	medianTime := time.Now()
	if cfg.MedianTime != 0 {
		medianTime = time.Unix(cfg.MedianTime, 0)
	}
	log.VrfyLog.Infof("Verifying transaction %v at height %d and median "+
		"time %v", tx.Hash(), height, medianTime.Unix())

	if err := newVerifier(cfg).verify(tx, view, height, medianTime); err != nil {
		return err
	}
	if store == nil {
		return nil
	}

	// Record the spend so later transactions can build on the outputs.
	if err := view.ConnectTransaction(tx, height, medianTime); err != nil {
		return err
	}
	return store.SaveView(view)
}

// realMain is the real main function for the utility.  It is necessary to work
// around the fact that deferred functions do not run when os.Exit() is called.
func realMain() error {
	// Load configuration and parse command line.
	cfg, _, err := loadConfig(os.Args[1:])
	if err != nil {
		return err
	}
	if cfg.ShowVersion {
		fmt.Printf("%s version %s (Go version %s %s/%s)\n",
			filepath.Base(os.Args[0]), version.String(),
			runtime.Version(), runtime.GOOS, runtime.GOARCH)
		return nil
	}

	if cfg.Script != "" {
		return assembleScript(os.Stdout, cfg.Script, cfg.ScriptParams,
			cfg.params)
	}

	// Setup logging.
	err = log.InitLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	defer log.LogRotator.Close()

	if err := run(cfg); err != nil {
		log.VrfyLog.Errorf("%v", err)
		return err
	}
	return nil
}

func main() {
	// Up some limits.
	if err := limits.SetLimits(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to set limits: %v\n", err)
		os.Exit(1)
	}

	// Work around defer not working after os.Exit()
	if err := realMain(); err != nil {
		os.Exit(1)
	}
}
