// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/btcsuite/btcd/btcutil"
)

// ScriptTemplateOption configures ScriptTemplate.
type ScriptTemplateOption func(*templateConfig)

type templateConfig struct {
	params map[string]any
	funcs  template.FuncMap
}

// WithScriptTemplateParams makes params available to the template as its
// dot value.
func WithScriptTemplateParams(params map[string]any) ScriptTemplateOption {
	return func(cfg *templateConfig) {
		for name, value := range params {
			cfg.params[name] = value
		}
	}
}

// WithCustomTemplateFunc registers fn under name, replacing a built in helper
// of the same name.
func WithCustomTemplateFunc(name string, fn any) ScriptTemplateOption {
	return func(cfg *templateConfig) {
		cfg.funcs[name] = fn
	}
}

// ScriptTemplate renders scriptTmpl with Go's text/template and assembles the
// result into a script.  A cold-stake script reads:
//
//	OP_DUP OP_HASH160 OP_ROT OP_IF OP_CHECKCOLDSTAKEVERIFY
//	{{ hex (hash160 .StakerKey) }} OP_ELSE {{ hex (hash160 .OwnerKey) }}
//	OP_ENDIF OP_EQUALVERIFY OP_CHECKSIG
//
// The rendered text is split on whitespace.  OP_ tokens are opcodes.  Tokens
// with the 0x prefix are pushed as raw bytes, 'quoted' tokens as text, and
// decimal integers as script numbers.  Anything else must be bare hex.
//
// The helpers hex, hex_str, unhex, hash160, sha256 and range_iter are always
// available.
func ScriptTemplate(scriptTmpl string, opts ...ScriptTemplateOption) ([]byte, error) {
	cfg := &templateConfig{
		params: make(map[string]any),
		funcs: template.FuncMap{
			"hex":        hexEncode,
			"hex_str":    hex.EncodeToString,
			"unhex":      hexDecode,
			"hash160":    btcutil.Hash160,
			"sha256":     sha256Sum,
			"range_iter": rangeIter,
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	tmpl, err := template.New("script").Funcs(cfg.funcs).Parse(scriptTmpl)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	var rendered bytes.Buffer
	if err := tmpl.Execute(&rendered, cfg.params); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}

	b := NewScriptBuilder()
	words := bufio.NewScanner(&rendered)
	words.Split(bufio.ScanWords)
	for words.Scan() {
		if err := addTemplateToken(b, words.Text()); err != nil {
			return nil, err
		}
	}
	if err := words.Err(); err != nil {
		return nil, fmt.Errorf("error reading script: %w", err)
	}
	return b.Script()
}

// addTemplateToken appends the opcode or push one rendered token stands for.
func addTemplateToken(b *ScriptBuilder, token string) error {
	if strings.HasPrefix(token, "OP_") {
		op, ok := OpcodeByName[token]
		if !ok {
			return fmt.Errorf("unknown opcode: %s", token)
		}
		b.AddOp(op)
		return nil
	}

	if n := len(token); n >= 2 && token[0] == '\'' && token[n-1] == '\'' {
		b.AddData([]byte(token[1 : n-1]))
		return nil
	}

	if isDecimal(token) {
		val, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %s", token)
		}
		b.AddInt64(val)
		return nil
	}

	data, err := hexDecode(token)
	if err != nil {
		return fmt.Errorf("invalid hex data: %s", token)
	}
	b.AddData(data)
	return nil
}

// isDecimal reports whether s is an optionally signed run of digits.
func isDecimal(s string) bool {
	if s != "" && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	return s != "" && strings.Trim(s, "0123456789") == ""
}

func rangeIter(start, end int) []int {
	var ints []int
	for i := start; i < end; i++ {
		ints = append(ints, i)
	}
	return ints
}

// hexEncode prefixes the hex with 0x so the token is pushed as data even
// when every digit is decimal.
func hexEncode(data []byte) string {
	return "0x" + hex.EncodeToString(data)
}

func hexDecode(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}

