// Copyright (c) 2024 The Chaincore Authors
// See the file LICENSE for licensing terms.

// Package log re-homes go-ethereum's log15-style term/JSON record
// formatting for this module, grounded on the teacher's own
// CorethTermFormat/CorethJSONFormat. Unlike the teacher's version this
// file is self-contained: it does not assume a handful of package-private
// helpers (escapeMessage, locationTrims, termTimeFormat, ...) exist in a
// sibling file, since none of this module's other files define them.
package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/log"
)

const (
	termTimeFormat = "2006-01-02T15:04:05-0700"
	termMsgJust    = 40
	errorKey       = "LOG_ERROR"
)

// locationTrims are stripped from the front of a call-site location
// string before it is printed, so log lines don't repeat this module's
// own path prefix on every line.
var locationTrims = []string{
	"github.com/ethermind/chaincore/",
}

// TermFormat is a terminal-friendly log.Format prefixed with alias (the
// component name: "importer", "flush", "prune", ...), grounded on the
// teacher's CorethTermFormat.
func TermFormat(alias string) log.Format {
	prefix := fmt.Sprintf("<%s>", alias)
	return log.FormatFunc(func(r *log.Record) []byte {
		msg := escapeMessage(r.Msg)
		b := &bytes.Buffer{}
		lvl := r.Lvl.AlignedString()

		location := fmt.Sprintf("%+v", r.Call)
		for _, trim := range locationTrims {
			location = strings.TrimPrefix(location, trim)
		}

		fmt.Fprintf(b, "[%s] %s %s %s %s ", r.Time.Format(termTimeFormat), lvl, prefix, location, msg)
		length := utf8.RuneCountInString(msg)
		if len(r.Ctx) > 0 && length < termMsgJust {
			b.Write(bytes.Repeat([]byte{' '}, termMsgJust-length))
		}
		logfmt(b, r.Ctx)
		return b.Bytes()
	})
}

// JSONFormat is a structured JSON log.Format, grounded on the teacher's
// CorethJSONFormat.
func JSONFormat(alias string) log.Format {
	return log.FormatFunc(func(r *log.Record) []byte {
		props := make(map[string]interface{}, 5+len(r.Ctx)/2)
		props["timestamp"] = r.Time
		props["level"] = r.Lvl.String()
		props[r.KeyNames.Msg] = r.Msg
		props["logger"] = alias
		props["caller"] = fmt.Sprintf("%+v", r.Call)
		for i := 0; i < len(r.Ctx); i += 2 {
			k, ok := r.Ctx[i].(string)
			if !ok {
				props[errorKey] = fmt.Sprintf("%+v is not a string key", r.Ctx[i])
				continue
			}
			var v interface{}
			if i+1 < len(r.Ctx) {
				v = r.Ctx[i+1]
			}
			props[k] = formatJSONValue(v)
		}

		b, err := json.Marshal(props)
		if err != nil {
			b, _ = json.Marshal(map[string]string{errorKey: err.Error()})
		}
		return append(b, '\n')
	})
}

// escapeMessage quotes msg if it contains characters that would break the
// term format's space-delimited layout.
func escapeMessage(msg string) string {
	if needsQuoting(msg) {
		return strconv.Quote(msg)
	}
	return msg
}

func needsQuoting(s string) bool {
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
			r == '-' || r == '.' || r == '_' || r == '/' || r == '@' || r == '^' || r == '+' ||
			r == ' ' || r == ':' || r == ',' || r == '=') {
			return true
		}
	}
	return false
}

// logfmt writes ctx (a flat key, value, key, value, ... slice, as
// go-ethereum's log.Record carries it) in logfmt style: key=value pairs
// separated by spaces, values quoted only when they need it.
func logfmt(buf *bytes.Buffer, ctx []interface{}) {
	for i := 0; i < len(ctx); i += 2 {
		if i != 0 {
			buf.WriteByte(' ')
		}
		k, ok := ctx[i].(string)
		if !ok {
			k = fmt.Sprintf("%+v", ctx[i])
		}
		buf.WriteString(k)
		buf.WriteByte('=')

		var v interface{}
		if i+1 < len(ctx) {
			v = ctx[i+1]
		}
		buf.WriteString(formatLogfmtValue(v))
	}
	buf.WriteByte('\n')
}

func formatLogfmtValue(v interface{}) string {
	if v == nil {
		return "nil"
	}
	switch x := v.(type) {
	case string:
		if needsQuoting(x) {
			return strconv.Quote(x)
		}
		return x
	case error:
		return strconv.Quote(x.Error())
	case fmt.Stringer:
		return strconv.Quote(x.String())
	}

	value := fmt.Sprintf("%+v", v)
	if needsQuoting(value) {
		return strconv.Quote(value)
	}
	return value
}

// formatJSONValue coerces v into something encoding/json can marshal
// deterministically, falling back to its string representation for types
// (errors, byte slices as hex-ish blobs) json.Marshal would otherwise
// render awkwardly or fail on.
func formatJSONValue(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	switch x := v.(type) {
	case error:
		return x.Error()
	case fmt.Stringer:
		return x.String()
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		return nil
	}
	if _, err := json.Marshal(v); err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return v
}
