package utils

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// SixID is a compact 6-byte identifier. It is stored in MongoDB as BinData
// with custom subtype 0x80 and rendered to clients as 10 characters of
// Crockford Base32.
type SixID [6]byte

// SixIDHookFunc lets tests override random ID generation.
type SixIDHookFunc func() (id SixID, override bool)

// NewSixIDHook, when set, is consulted by NewSixID before generating a random ID.
var NewSixIDHook SixIDHookFunc

// bsonSubtypeSixID is the custom BSON binary subtype used for SixID values.
const bsonSubtypeSixID = 0x80

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var crockfordValues [256]int8

func init() {
	for i := range crockfordValues {
		crockfordValues[i] = -1
	}
	for i := 0; i < len(crockford); i++ {
		c := crockford[i]
		crockfordValues[c] = int8(i)
		if c >= 'A' && c <= 'Z' {
			crockfordValues[c+32] = int8(i) // lowercase
		}
	}
	// Crockford leniency: visually ambiguous characters decode to their digit.
	crockfordValues['O'], crockfordValues['o'] = 0, 0
	crockfordValues['I'], crockfordValues['i'] = 1, 1
	crockfordValues['L'], crockfordValues['l'] = 1, 1
}

// NewSixID returns a new random SixID.
func NewSixID() SixID {
	if NewSixIDHook != nil {
		if id, override := NewSixIDHook(); override {
			return id
		}
	}
	var id SixID
	if _, err := rand.Read(id[:]); err != nil {
		// crypto/rand failing is unrecoverable for ID generation
		panic(fmt.Sprintf("sixid: crypto/rand unavailable: %v", err))
	}
	return id
}

// IsZero reports whether the ID is the zero value.
func (id SixID) IsZero() bool {
	return id == SixID{}
}

// String encodes the 48 ID bits as 10 Crockford Base32 characters,
// most significant bits first.
func (id SixID) String() string {
	var buf [10]byte
	// 48 bits fit in a uint64; consume 5 bits per output character,
	// padding the low end with 2 zero bits (48 + 2 = 50 = 10 * 5).
	v := uint64(id[0])<<40 | uint64(id[1])<<32 | uint64(id[2])<<24 |
		uint64(id[3])<<16 | uint64(id[4])<<8 | uint64(id[5])
	v <<= 2
	for i := 9; i >= 0; i-- {
		buf[i] = crockford[v&0x1F]
		v >>= 5
	}
	return string(buf[:])
}

// ParseSixID decodes a 10-character Crockford Base32 string into a SixID.
// Hyphens and spaces are ignored; decoding is case-insensitive and maps
// the usual confusable characters (O->0, I/L->1).
func ParseSixID(s string) (SixID, error) {
	cleaned := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '-' || s[i] == ' ' {
			continue
		}
		cleaned = append(cleaned, s[i])
	}
	if len(cleaned) != 10 {
		return SixID{}, errors.New("sixid: encoded value must be 10 characters")
	}

	var v uint64
	for _, c := range cleaned {
		d := crockfordValues[c]
		if d < 0 {
			return SixID{}, fmt.Errorf("sixid: invalid character %q", c)
		}
		v = v<<5 | uint64(d)
	}
	v >>= 2 // drop the padding bits

	var id SixID
	for i := 5; i >= 0; i-- {
		id[i] = byte(v)
		v >>= 8
	}
	return id, nil
}

// MarshalJSON renders the ID as its Crockford Base32 string.
func (id SixID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON parses the ID from its Crockford Base32 string.
func (id *SixID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseSixID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// MarshalBSONValue stores the ID as BinData subtype 0x80.
func (id SixID) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bsontype.Binary, bsoncore.AppendBinary(nil, bsonSubtypeSixID, id[:]), nil
}

// UnmarshalBSONValue restores the ID from BinData subtype 0x80.
func (id *SixID) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	if t == bsontype.Null {
		*id = SixID{}
		return nil
	}
	if t != bsontype.Binary {
		return fmt.Errorf("sixid: cannot decode BSON type %s", t)
	}
	subtype, raw, _, ok := bsoncore.ReadBinary(data)
	if !ok {
		return errors.New("sixid: malformed BSON binary value")
	}
	if subtype != bsonSubtypeSixID || len(raw) != 6 {
		return errors.New("sixid: unexpected binary subtype or length")
	}
	copy((*id)[:], raw)
	return nil
}
