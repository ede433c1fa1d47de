// Package msgtype provides concrete message types standing in for a
// .msg IDL code generator: each type supplies a type name, an MD5
// schema signature, and a msgpack-based encoder/decoder pair,
// satisfying wire.Codec[T]. Real deployments would generate these from
// .msg files; this package is the fixture used by tests, the CLI demo,
// and round-trip verification.
package msgtype

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/tenzoki/rosnode/internal/wire"
)

// Chat is a single free-text field, used for the loopback chat scenario.
type Chat struct {
	Text string `msgpack:"text"`
}

// Num is a single integer field, used for the counting/fan-out scenarios.
type Num struct {
	Value int64 `msgpack:"value"`
}

const chatSchema = "string text"
const numSchema = "int64 value"

var chatMD5 = schemaMD5(chatSchema)
var numMD5 = schemaMD5(numSchema)

func schemaMD5(schema string) string {
	sum := md5.Sum([]byte(schema))
	return hex.EncodeToString(sum[:])
}

// ChatCodec is the wire.Codec for Chat.
var ChatCodec = wire.Codec[Chat]{
	TypeName: "msgtype/Chat",
	MD5Sum:   chatMD5,
	Encode: func(v Chat) ([]byte, error) {
		b, err := msgpack.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("msgtype: encode Chat: %w", err)
		}
		return b, nil
	},
	Decode: func(b []byte) (Chat, error) {
		var v Chat
		if err := msgpack.Unmarshal(b, &v); err != nil {
			return v, fmt.Errorf("msgtype: decode Chat: %w", err)
		}
		return v, nil
	},
}

// NumCodec is the wire.Codec for Num.
var NumCodec = wire.Codec[Num]{
	TypeName: "msgtype/Num",
	MD5Sum:   numMD5,
	Encode: func(v Num) ([]byte, error) {
		b, err := msgpack.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("msgtype: encode Num: %w", err)
		}
		return b, nil
	},
	Decode: func(b []byte) (Num, error) {
		var v Num
		if err := msgpack.Unmarshal(b, &v); err != nil {
			return v, fmt.Errorf("msgtype: decode Num: %w", err)
		}
		return v, nil
	},
}
