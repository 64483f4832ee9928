package command

import (
	"math"
	"time"

	"github.com/midnightkv/midnight/internal/resp"
	"github.com/midnightkv/midnight/internal/store"
)

// Execute runs cmd against st and returns the reply value. Arguments
// were validated during Parse, so every arm is straight-line
func Execute(cmd Command, st *store.Store) resp.Value {
	switch c := cmd.(type) {
	case Ping:
		if c.Message == nil {
			return resp.MakeSimpleString("PONG")
		}
		return resp.MakeBulkBytes(c.Message)

	case Echo:
		return resp.MakeBulkBytes(c.Message)

	case Get:
		value, ok := st.Get(c.Key)
		if !ok {
			return resp.MakeNilBulkString()
		}
		return resp.MakeBulkBytes(value)

	case Set:
		st.Set(c.Key, c.Value, c.TTL)
		return resp.MakeSimpleString("OK")

	case Del:
		var removed int64
		for _, key := range c.Keys {
			if st.Delete(key) {
				removed++
			}
		}
		return resp.MakeInteger(removed)

	case Exists:
		var found int64
		for _, key := range c.Keys {
			if st.Exists(key) {
				found++
			}
		}
		return resp.MakeInteger(found)

	case TTL:
		remaining, status := st.TTL(c.Key)
		if status != store.ExpActive {
			return resp.MakeInteger(int64(status))
		}
		if c.Millis {
			return resp.MakeInteger(ceilDiv(remaining, time.Millisecond))
		}
		return resp.MakeInteger(ceilDiv(remaining, time.Second))
	}

	// Unreachable while the Command set stays closed
	return resp.MakeError("ERR unhandled command")
}

// ceilDiv rounds the remaining lifetime up to whole units, so a key a
// hair from expiry still reports 1 rather than 0
func ceilDiv(d, unit time.Duration) int64 {
	return int64(math.Ceil(float64(d) / float64(unit)))
}
