// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package log owns the logging backend of verifytx and hands a subsystem
// logger to each package that logs.
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/btcsuite/btclog"
	"github.com/coldstake/coldstaked/blockchain"
	"github.com/coldstake/coldstaked/txscript"
	"github.com/jrick/logrotate/rotator"
)

// logWriter copies everything to standard output and, once InitLogRotator
// has run, to the rotating log file.
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	os.Stdout.Write(p)
	if LogRotator != nil {
		LogRotator.Write(p)
	}
	return len(p), nil
}

var (
	backendLog = btclog.NewBackend(logWriter{})

	// LogRotator receives log output after InitLogRotator.  Close it on
	// shutdown.
	LogRotator *rotator.Rotator

	// VrfyLog logs the verifytx command itself.
	VrfyLog = backendLog.Logger("VRFY")
)

// SubsystemLoggers holds every logger by the tag it prints.
var SubsystemLoggers = map[string]btclog.Logger{
	"VRFY": VrfyLog,
	"CHAN": backendLog.Logger("CHAN"),
	"TXSC": backendLog.Logger("TXSC"),
}

func init() {
	blockchain.UseLogger(SubsystemLoggers["CHAN"])
	txscript.UseLogger(SubsystemLoggers["TXSC"])
}

// InitLogRotator starts writing logs to logFile, creating its directory.
// Rolled files of 10 MiB are kept next to it, three at most.
func InitLogRotator(logFile string) error {
	if err := os.MkdirAll(filepath.Dir(logFile), 0700); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		return fmt.Errorf("failed to create file rotator: %w", err)
	}
	LogRotator = r
	return nil
}

// SetLogLevels sets every subsystem to level, or to info when level is not
// one btclog knows.
func SetLogLevels(level string) {
	lvl, _ := btclog.LevelFromString(level)
	for _, logger := range SubsystemLoggers {
		logger.SetLevel(lvl)
	}
}

// SupportedSubsystems returns the subsystem tags in sorted order.
func SupportedSubsystems() []string {
	tags := make([]string, 0, len(SubsystemLoggers))
	for tag := range SubsystemLoggers {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// ValidLogLevel reports whether btclog knows logLevel.
func ValidLogLevel(logLevel string) bool {
	_, ok := btclog.LevelFromString(logLevel)
	return ok
}

// ParseAndSetDebugLevels applies a --debuglevel value.  It is either one
// level for every subsystem or a comma separated list of subsystem=level
// pairs.  Nothing is changed when any part of it is invalid.
func ParseAndSetDebugLevels(debugLevel string) error {
	if !strings.ContainsAny(debugLevel, ",=") {
		if !ValidLogLevel(debugLevel) {
			return fmt.Errorf("the specified debug level [%v] is "+
				"invalid", debugLevel)
		}
		SetLogLevels(debugLevel)
		return nil
	}

	levels := make(map[string]btclog.Level)
	for _, pair := range strings.Split(debugLevel, ",") {
		tag, level, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("the specified debug level contains an "+
				"invalid subsystem/level pair [%v]", pair)
		}
		if _, ok := SubsystemLoggers[tag]; !ok {
			return fmt.Errorf("the specified subsystem [%v] is invalid "+
				"-- supported subsystems %v", tag,
				SupportedSubsystems())
		}
		lvl, ok := btclog.LevelFromString(level)
		if !ok {
			return fmt.Errorf("the specified debug level [%v] is "+
				"invalid", level)
		}
		levels[tag] = lvl
	}

	for tag, lvl := range levels {
		SubsystemLoggers[tag].SetLevel(lvl)
	}
	return nil
}
