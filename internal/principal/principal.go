// Package principal implements the opaque identity values handed out by the
// identity provider. The portal never interprets them beyond parsing and
// printing the textual form.
package principal

import (
	"crypto/sha256"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"strings"
)

// MaxLength is the maximum number of raw bytes in a principal.
const MaxLength = 29

var (
	ErrEmpty     = errors.New("principal: empty text")
	ErrMalformed = errors.New("principal: malformed text")
	ErrChecksum  = errors.New("principal: checksum mismatch")
	ErrTooLong   = errors.New("principal: too long")
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Principal is comparable and usable as a map key. The zero value means "no identity".
type Principal struct {
	text string
}

// Anonymous is the principal used by unauthenticated callers.
var Anonymous = FromBytes([]byte{0x04})

// FromBytes builds a principal from its raw form. Inputs longer than MaxLength are truncated.
func FromBytes(raw []byte) Principal {
	if len(raw) > MaxLength {
		raw = raw[:MaxLength]
	}
	return Principal{text: encode(raw)}
}

// SelfAuthenticating derives the principal owned by a public key.
func SelfAuthenticating(publicKey []byte) Principal {
	sum := sha256.Sum224(publicKey)
	raw := append(sum[:], 0x02)
	return FromBytes(raw)
}

// Parse decodes the textual form and fails on anything that does not round-trip.
func Parse(s string) (Principal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Principal{}, ErrEmpty
	}
	compact := strings.ToUpper(strings.ReplaceAll(s, "-", ""))
	data, err := encoding.DecodeString(compact)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(data) < 4 {
		return Principal{}, ErrMalformed
	}
	raw := data[4:]
	if len(raw) > MaxLength {
		return Principal{}, ErrTooLong
	}
	if binary.BigEndian.Uint32(data[:4]) != crc32.ChecksumIEEE(raw) {
		return Principal{}, ErrChecksum
	}
	p := Principal{text: encode(raw)}
	if p.text != strings.ToLower(s) {
		return Principal{}, ErrMalformed
	}
	return p, nil
}

// MustParse is Parse for package-level fixtures.
func MustParse(s string) Principal {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

func encode(raw []byte) string {
	buf := make([]byte, 4, 4+len(raw))
	binary.BigEndian.PutUint32(buf, crc32.ChecksumIEEE(raw))
	buf = append(buf, raw...)
	flat := strings.ToLower(encoding.EncodeToString(buf))
	var b strings.Builder
	for i := 0; i < len(flat); i += 5 {
		if i > 0 {
			b.WriteByte('-')
		}
		b.WriteString(flat[i:min(i+5, len(flat))])
	}
	return b.String()
}

func (p Principal) String() string { return p.text }

// IsZero reports whether p carries no identity at all.
func (p Principal) IsZero() bool { return p.text == "" }

func (p Principal) IsAnonymous() bool { return p == Anonymous }

// Authenticated reports whether p identifies a logged-in caller.
func (p Principal) Authenticated() bool { return !p.IsZero() && !p.IsAnonymous() }

// Bytes returns the raw form.
func (p Principal) Bytes() []byte {
	if p.text == "" {
		return nil
	}
	data, err := encoding.DecodeString(strings.ToUpper(strings.ReplaceAll(p.text, "-", "")))
	if err != nil || len(data) < 4 {
		return nil
	}
	return data[4:]
}

func (p Principal) MarshalText() ([]byte, error) { return []byte(p.text), nil }

func (p *Principal) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*p = Principal{}
		return nil
	}
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
