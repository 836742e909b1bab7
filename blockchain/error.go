// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"errors"
	"fmt"
)

// AssertError is an inconsistency in data the package wrote itself, such as
// a stored entry that no longer decodes.
type AssertError string

func (e AssertError) Error() string {
	return "assertion failed: " + string(e)
}

// ErrorCode identifies the rule a RuleError reports broken.
type ErrorCode int

const (
	// Context free transaction checks.
	ErrNoTxInputs ErrorCode = iota
	ErrNoTxOutputs
	ErrBadTxOutValue
	ErrDuplicateTxInputs

	// ErrBadTxInput is a non-coinbase input spending the null outpoint.
	ErrBadTxInput

	// ErrMissingTxOut is an input spending an output that is not in the
	// view or that an earlier transaction already spent.
	ErrMissingTxOut

	// Absolute and relative lock times.
	ErrUnfinalizedTx
	ErrSequenceLockNotMet

	// ErrScriptMalformed is an engine that could not be set up for an
	// input and ErrScriptValidation one whose scripts failed.  Both wrap
	// the script error.
	ErrScriptMalformed
	ErrScriptValidation

	ErrTooManySigOps

	// ErrNonStandard is a valid transaction the relay policy refuses.
	ErrNonStandard

	numErrorCodes
)

var errorCodeStrings = [numErrorCodes]string{
	"ErrNoTxInputs", "ErrNoTxOutputs", "ErrBadTxOutValue",
	"ErrDuplicateTxInputs", "ErrBadTxInput", "ErrMissingTxOut",
	"ErrUnfinalizedTx", "ErrSequenceLockNotMet", "ErrScriptMalformed",
	"ErrScriptValidation", "ErrTooManySigOps", "ErrNonStandard",
}

func (e ErrorCode) String() string {
	if e >= 0 && e < numErrorCodes {
		return errorCodeStrings[e]
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// RuleError is a transaction breaking a validation or relay rule.  Err holds
// the script error behind script failures.
type RuleError struct {
	ErrorCode   ErrorCode
	Description string
	Err         error
}

func (e RuleError) Error() string {
	return e.Description
}

func (e RuleError) Unwrap() error {
	return e.Err
}

func ruleError(c ErrorCode, desc string) RuleError {
	return RuleError{ErrorCode: c, Description: desc}
}

// IsErrorCode reports whether err, or an error it wraps, is a RuleError with
// code c.
func IsErrorCode(err error, c ErrorCode) bool {
	var ruleErr RuleError
	return errors.As(err, &ruleErr) && ruleErr.ErrorCode == c
}
