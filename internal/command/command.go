// Package command turns decoded wire values into typed commands and
// executes them against the store. Parsing validates everything up
// front; execution never re-checks an argument.
package command

import (
	"strconv"
	"strings"
	"time"

	"github.com/midnightkv/midnight/internal/resp"
)

// Command is one parsed, validated client command. The implementation
// set is closed: Execute dispatches over it with a single type switch,
// so adding a verb means adding a struct here and an arm there.
type Command interface {
	// Name returns the verb in its canonical uppercase spelling
	Name() string
}

type Ping struct {
	Message []byte // nil when PING was called without an argument
}

type Echo struct {
	Message []byte
}

type Get struct {
	Key string
}

type Set struct {
	Key   string
	Value []byte
	TTL   time.Duration // 0 means the entry never expires
}

type Del struct {
	Keys []string
}

type Exists struct {
	Keys []string
}

type TTL struct {
	Key    string
	Millis bool // report milliseconds (PTTL) instead of seconds
}

func (Ping) Name() string   { return "PING" }
func (Echo) Name() string   { return "ECHO" }
func (Get) Name() string    { return "GET" }
func (Set) Name() string    { return "SET" }
func (Del) Name() string    { return "DEL" }
func (Exists) Name() string { return "EXISTS" }
func (c TTL) Name() string {
	if c.Millis {
		return "PTTL"
	}
	return "TTL"
}

// normalizeKey uppercases the raw key bytes, making the whole keyspace
// case-insensitive
func normalizeKey(b []byte) string {
	return strings.ToUpper(string(b))
}

// Parse converts one decoded wire value into a command, or fails with an
// error whose message is suitable for an -ERR reply
func Parse(v resp.Value) (Command, error) {
	if v.Type != resp.TypeArray || v.IsNull {
		return nil, ErrNotAnArray
	}
	if len(v.Array) == 0 {
		return nil, ErrEmptyCommand
	}

	first := v.Array[0]
	if first.Type != resp.TypeBulkString || first.IsNull {
		return nil, ErrCommandNotBulkString
	}

	verb := strings.ToUpper(string(first.String))
	args := v.Array[1:]

	switch verb {
	case "PING":
		return parsePing(args)
	case "ECHO":
		return parseEcho(args)
	case "GET":
		return parseGet(args)
	case "SET":
		return parseSet(args)
	case "DEL":
		return parseKeyList(args, "DEL", func(keys []string) Command { return Del{Keys: keys} })
	case "EXISTS":
		return parseKeyList(args, "EXISTS", func(keys []string) Command { return Exists{Keys: keys} })
	case "TTL":
		return parseTTL(args, false)
	case "PTTL":
		return parseTTL(args, true)
	default:
		return nil, &UnknownCommandError{Name: verb}
	}
}

// bulkArg extracts the i-th argument if it is a non-null bulk string
func bulkArg(args []resp.Value, i int) ([]byte, bool) {
	if args[i].Type != resp.TypeBulkString || args[i].IsNull {
		return nil, false
	}
	return args[i].String, true
}

func parsePing(args []resp.Value) (Command, error) {
	switch len(args) {
	case 0:
		return Ping{}, nil
	case 1:
		msg, ok := bulkArg(args, 0)
		if !ok {
			return nil, &InvalidArgumentError{Command: "PING", Reason: "argument must be a bulk string"}
		}
		return Ping{Message: msg}, nil
	default:
		return nil, &WrongArgCountError{Command: "PING", Expected: "0 or 1"}
	}
}

func parseEcho(args []resp.Value) (Command, error) {
	if len(args) != 1 {
		return nil, &WrongArgCountError{Command: "ECHO", Expected: "1"}
	}

	msg, ok := bulkArg(args, 0)
	if !ok {
		return nil, &InvalidArgumentError{Command: "ECHO", Reason: "argument must be a bulk string"}
	}
	return Echo{Message: msg}, nil
}

func parseGet(args []resp.Value) (Command, error) {
	if len(args) != 1 {
		return nil, &WrongArgCountError{Command: "GET", Expected: "1"}
	}

	key, ok := bulkArg(args, 0)
	if !ok {
		return nil, &InvalidArgumentError{Command: "GET", Reason: "key must be a bulk string"}
	}
	return Get{Key: normalizeKey(key)}, nil
}

func parseSet(args []resp.Value) (Command, error) {
	if len(args) < 2 {
		return nil, &WrongArgCountError{Command: "SET", Expected: "at least 2"}
	}

	key, ok := bulkArg(args, 0)
	if !ok {
		return nil, &InvalidArgumentError{Command: "SET", Reason: "key must be a bulk string"}
	}
	value, ok := bulkArg(args, 1)
	if !ok {
		return nil, &InvalidArgumentError{Command: "SET", Reason: "value must be a bulk string"}
	}

	cmd := Set{Key: normalizeKey(key), Value: value}

	seenPX := false
	for i := 2; i < len(args); i++ {
		option, ok := bulkArg(args, i)
		if !ok {
			return nil, &InvalidArgumentError{Command: "SET", Reason: "option must be a bulk string"}
		}

		if !strings.EqualFold(string(option), "PX") {
			return nil, &InvalidArgumentError{Command: "SET", Reason: "unknown option " + string(option)}
		}
		if seenPX {
			return nil, &InvalidArgumentError{Command: "SET", Reason: "PX specified more than once"}
		}

		i++
		if i >= len(args) {
			return nil, &InvalidArgumentError{Command: "SET", Reason: "PX requires a value"}
		}
		raw, ok := bulkArg(args, i)
		if !ok {
			return nil, &InvalidArgumentError{Command: "SET", Reason: "PX value must be a bulk string"}
		}

		ms, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return nil, &InvalidArgumentError{Command: "SET", Reason: "PX value is not an integer"}
		}
		if ms <= 0 {
			return nil, &InvalidArgumentError{Command: "SET", Reason: "PX milliseconds must be positive"}
		}

		cmd.TTL = time.Duration(ms) * time.Millisecond
		seenPX = true
	}

	return cmd, nil
}

func parseKeyList(args []resp.Value, verb string, build func([]string) Command) (Command, error) {
	if len(args) == 0 {
		return nil, &WrongArgCountError{Command: verb, Expected: "at least 1"}
	}

	keys := make([]string, len(args))
	for i := range args {
		key, ok := bulkArg(args, i)
		if !ok {
			return nil, &InvalidArgumentError{Command: verb, Reason: "keys must be bulk strings"}
		}
		keys[i] = normalizeKey(key)
	}

	return build(keys), nil
}

func parseTTL(args []resp.Value, millis bool) (Command, error) {
	verb := "TTL"
	if millis {
		verb = "PTTL"
	}

	if len(args) != 1 {
		return nil, &WrongArgCountError{Command: verb, Expected: "1"}
	}

	key, ok := bulkArg(args, 0)
	if !ok {
		return nil, &InvalidArgumentError{Command: verb, Reason: "key must be a bulk string"}
	}
	return TTL{Key: normalizeKey(key), Millis: millis}, nil
}
