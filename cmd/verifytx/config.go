// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
	"github.com/coldstake/coldstaked/internal/log"
	"github.com/coldstake/coldstaked/txscript"
	flags "github.com/jessevdk/go-flags"
)

const (
	defaultLogLevel        = "info"
	defaultLogFilename     = "verifytx.log"
	defaultScriptFlags     = "standard"
	defaultSigCacheMaxSize = 100000
)

var (
	verifytxHomeDir = btcutil.AppDataDir("verifytx", false)
	defaultDataDir  = filepath.Join(verifytxHomeDir, "data")
	defaultLogDir   = filepath.Join(verifytxHomeDir, "logs")
)

// scriptFlagNames are the names --flags accepts.
var scriptFlagNames = map[string]txscript.ScriptFlags{
	"P2SH":                                  txscript.ScriptBip16,
	"STRICTENC":                             txscript.ScriptVerifyStrictEncoding,
	"DERSIG":                                txscript.ScriptVerifyDERSignatures,
	"LOW_S":                                 txscript.ScriptVerifyLowS,
	"SIGPUSHONLY":                           txscript.ScriptVerifySigPushOnly,
	"MINIMALDATA":                           txscript.ScriptVerifyMinimalData,
	"NULLDUMMY":                             txscript.ScriptStrictMultiSig,
	"DISCOURAGE_UPGRADABLE_NOPS":            txscript.ScriptDiscourageUpgradableNops,
	"CLEANSTACK":                            txscript.ScriptVerifyCleanStack,
	"MINIMALIF":                             txscript.ScriptVerifyMinimalIf,
	"NULLFAIL":                              txscript.ScriptVerifyNullFail,
	"CHECKLOCKTIMEVERIFY":                   txscript.ScriptVerifyCheckLockTimeVerify,
	"CHECKSEQUENCEVERIFY":                   txscript.ScriptVerifyCheckSequenceVerify,
	"WITNESS":                               txscript.ScriptVerifyWitness,
	"DISCOURAGE_UPGRADABLE_WITNESS_PROGRAM": txscript.ScriptVerifyDiscourageUpgradeableWitnessProgram,
	"WITNESS_PUBKEYTYPE":                    txscript.ScriptVerifyWitnessPubKeyType,
	"CHECKCOLDSTAKEVERIFY":                  txscript.ScriptVerifyCheckColdStakeVerify,
}

// config holds the verifytx command line.  The unexported fields are derived
// from the options by loadConfig.
type config struct {
	ShowVersion     bool     `short:"V" long:"version" description:"Display version information and exit"`
	DataDir         string   `short:"b" long:"datadir" description:"Directory of the previous output store"`
	NoStore         bool     `long:"nostore" description:"Neither load previous outputs from nor save them to the store"`
	LogDir          string   `long:"logdir" description:"Directory to log output"`
	DebugLevel      string   `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems"`
	RegressionTest  bool     `long:"regtest" description:"Use the regression test network"`
	SimNet          bool     `long:"simnet" description:"Use the simulation test network"`
	TestNet3        bool     `long:"testnet" description:"Use the test network"`
	Flags           string   `long:"flags" description:"Comma separated script verification flags, or 'standard' for the standard set"`
	Height          int32    `long:"height" description:"Height of the block the transaction is checked for -- 0 uses the block after the highest previous output"`
	MedianTime      int64    `long:"mediantime" description:"Past median time, in unix seconds, the transaction is checked against -- 0 uses the current time"`
	NoCSV           bool     `long:"nocsv" description:"Do not enforce relative lock times"`
	PrevOuts        string   `short:"p" long:"prevouts" description:"JSON file describing the previous outputs spent by the transaction"`
	Tx              string   `short:"t" long:"tx" description:"Hex encoded transaction to verify"`
	ColdStake       bool     `long:"coldstake" description:"Enable OP_CHECKCOLDSTAKEVERIFY with the coin-stake output policy"`
	AcceptNonStd    bool     `long:"acceptnonstd" description:"Skip the relay standardness checks and only apply consensus rules"`
	SigCacheMaxSize uint     `long:"sigcachemaxsize" description:"The maximum number of entries in the signature verification cache"`
	Script          string   `long:"script" description:"Assemble the passed script template, print it and exit"`
	ScriptParams    []string `long:"scriptparam" description:"Template parameter of --script as <name>=<hex>"`

	params      *chaincfg.Params
	scriptFlags txscript.ScriptFlags
}

// cleanAndExpandPath expands environment variables and a leading ~ in path
// and cleans the result.
func cleanAndExpandPath(path string) string {
	if rest, ok := strings.CutPrefix(path, "~"); ok {
		path = filepath.Dir(verifytxHomeDir) + rest
	}
	return filepath.Clean(os.ExpandEnv(path))
}

// netName names the per network subdirectory.  Testnet version 3 uses
// "testnet" rather than its parameter name.
func netName(chainParams *chaincfg.Params) string {
	if chainParams.Net == wire.TestNet3 {
		return "testnet"
	}
	return chainParams.Name
}

// parseScriptFlags converts a comma separated list of flag names into script
// flags.  The name "standard" selects txscript.StandardVerifyFlags and may be
// combined with further names.  Names are case insensitive.
func parseScriptFlags(names string) (txscript.ScriptFlags, error) {
	var result txscript.ScriptFlags
	for _, name := range strings.Split(names, ",") {
		name = strings.ToUpper(strings.TrimSpace(name))
		if name == "" || name == "NONE" {
			continue
		}
		if name == "STANDARD" {
			result |= txscript.StandardVerifyFlags
			continue
		}
		flag, ok := scriptFlagNames[name]
		if !ok {
			return 0, fmt.Errorf("unknown script flag %q", name)
		}
		result |= flag
	}
	return result, nil
}

// parseScriptParams converts the <name>=<hex> template parameters into the
// byte slices the script template sees.
func parseScriptParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("script parameter %q is not of the "+
				"form <name>=<hex>", pair)
		}
		data, err := hex.DecodeString(strings.TrimPrefix(value, "0x"))
		if err != nil {
			return nil, fmt.Errorf("script parameter %q: %w", name, err)
		}
		params[name] = data
	}
	return params, nil
}

// selectNetwork returns the parameters of the network chosen by the flags,
// mainnet when none is.
func (cfg *config) selectNetwork() (*chaincfg.Params, error) {
	chosen := &chaincfg.MainNetParams
	n := 0
	for _, net := range []struct {
		set    bool
		params *chaincfg.Params
	}{
		{cfg.TestNet3, &chaincfg.TestNet3Params},
		{cfg.RegressionTest, &chaincfg.RegressionNetParams},
		{cfg.SimNet, &chaincfg.SimNetParams},
	} {
		if net.set {
			chosen = net.params
			n++
		}
	}
	if n > 1 {
		return nil, errors.New("the testnet, regtest, and simnet params " +
			"can't be used together -- choose one of the three")
	}
	return chosen, nil
}

// validate derives the unexported fields and checks the options fit
// together.
func (cfg *config) validate() error {
	var err error
	if cfg.params, err = cfg.selectNetwork(); err != nil {
		return err
	}
	if err := log.ParseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		return err
	}
	if cfg.scriptFlags, err = parseScriptFlags(cfg.Flags); err != nil {
		return err
	}
	if cfg.ColdStake {
		cfg.scriptFlags |= txscript.ScriptVerifyCheckColdStakeVerify
	}

	network := netName(cfg.params)
	cfg.DataDir = filepath.Join(cleanAndExpandPath(cfg.DataDir), network)
	cfg.LogDir = filepath.Join(cleanAndExpandPath(cfg.LogDir), network)

	switch {
	case cfg.Script != "":
		return nil
	case cfg.Tx == "":
		return errors.New("a transaction must be given with --tx")
	case cfg.PrevOuts == "" && cfg.NoStore:
		return errors.New("the previous outputs must be given with " +
			"--prevouts when --nostore is used")
	case cfg.PrevOuts == "":
		return nil
	}

	cfg.PrevOuts = cleanAndExpandPath(cfg.PrevOuts)
	if _, err := os.Stat(cfg.PrevOuts); err != nil {
		return fmt.Errorf("the specified previous outputs file: %w", err)
	}
	return nil
}

// loadConfig parses args over the defaults.  Invalid options are reported on
// stderr together with the usage.  Only --version is honored when it is
// given.
func loadConfig(args []string) (*config, []string, error) {
	cfg := config{
		DataDir:         defaultDataDir,
		LogDir:          defaultLogDir,
		DebugLevel:      defaultLogLevel,
		Flags:           defaultScriptFlags,
		SigCacheMaxSize: defaultSigCacheMaxSize,
		params:          &chaincfg.MainNetParams,
	}

	parser := flags.NewParser(&cfg, flags.Default)
	remainingArgs, err := parser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if !errors.As(err, &flagsErr) || flagsErr.Type != flags.ErrHelp {
			parser.WriteHelp(os.Stderr)
		}
		return nil, nil, err
	}
	if cfg.ShowVersion {
		return &cfg, remainingArgs, nil
	}

	if err := cfg.validate(); err != nil {
		err = fmt.Errorf("loadConfig: %w", err)
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, nil, err
	}
	return &cfg, remainingArgs, nil
}
