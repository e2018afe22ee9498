package answerlock

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	bin "github.com/saylorsolutions/binmap"
)

const (
	magicBytes        uint16 = 0x2aa2
	magicBytesInverse uint16 = 0xa22a
)

var ErrMalformedEnvelope = errors.New("malformed envelope")

// Envelope is the self-describing bundle exchanged between sender and
// recipient: the derivation parameters in the clear, plus the tagged
// ciphertext. It carries everything needed to attempt decryption except
// the answer.
type Envelope struct {
	Iterations uint64
	Salt       Salt
	Tag        Tag
	Ciphertext []byte
}

func (e *Envelope) validate() error {
	if e == nil {
		return fmt.Errorf("%w: nil envelope", ErrMalformedEnvelope)
	}
	if e.Iterations == 0 {
		return fmt.Errorf("%w: iteration count cannot be 0", ErrMalformedEnvelope)
	}
	if len(e.Salt) != SaltSize {
		return fmt.Errorf("%w: salt must be %d bytes, got %d", ErrMalformedEnvelope, SaltSize, len(e.Salt))
	}
	if len(e.Tag) != TagSize {
		return fmt.Errorf("%w: tag must be %d bytes, got %d", ErrMalformedEnvelope, TagSize, len(e.Tag))
	}
	return nil
}

// Fields renders the text wire form: the iteration count in decimal, the
// salt in hex, and the tag concatenated with the ciphertext as one hex field.
func (e *Envelope) Fields() []string {
	body := make([]byte, 0, len(e.Tag)+len(e.Ciphertext))
	body = append(body, e.Tag...)
	body = append(body, e.Ciphertext...)
	return []string{
		strconv.FormatUint(e.Iterations, 10),
		hex.EncodeToString(e.Salt),
		hex.EncodeToString(body),
	}
}

// ParseFields is the inverse of Fields.
// Anything that doesn't parse is ErrMalformedEnvelope, never a password
// failure: the two must stay distinguishable for the caller.
func ParseFields(fields []string) (*Envelope, error) {
	if len(fields) != 3 {
		return nil, fmt.Errorf("%w: want 3 fields, got %d", ErrMalformedEnvelope, len(fields))
	}
	iterations, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil || iterations == 0 {
		return nil, fmt.Errorf("%w: bad iteration count %q", ErrMalformedEnvelope, fields[0])
	}
	salt, err := hex.DecodeString(fields[1])
	if err != nil || len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: salt field must be %d hex-encoded bytes", ErrMalformedEnvelope, SaltSize)
	}
	body, err := hex.DecodeString(fields[2])
	if err != nil || len(body) < TagSize {
		return nil, fmt.Errorf("%w: body field must hex-decode to at least %d bytes", ErrMalformedEnvelope, TagSize)
	}
	return &Envelope{
		Iterations: iterations,
		Salt:       Salt(salt),
		Tag:        Tag(body[:TagSize]),
		Ciphertext: body[TagSize:],
	}, nil
}

// The binary form leads with fixed-width numeric fields so the byte
// payloads after them can be sized before reading.
type envelopeHeader struct {
	iterations uint64
	saltSize   uint8
	tagSize    uint8
	textSize   uint64
}

func (h *envelopeHeader) mapper() bin.Mapper {
	return bin.MapSequence(
		bin.Int(&h.iterations),
		bin.Byte(&h.saltSize),
		bin.Byte(&h.tagSize),
		bin.Int(&h.textSize),
	)
}

// MarshalBinary encodes the envelope in a compact binary form for storage:
// magic bytes, header, then salt, tag, and ciphertext back to back.
func (e *Envelope) MarshalBinary() ([]byte, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}
	var (
		buf    bytes.Buffer
		endian = binary.BigEndian
	)
	if err := binary.Write(&buf, endian, magicBytes); err != nil {
		return nil, err
	}
	header := envelopeHeader{
		iterations: e.Iterations,
		saltSize:   SaltSize,
		tagSize:    TagSize,
		textSize:   uint64(len(e.Ciphertext)),
	}
	if err := header.mapper().Write(&buf, endian); err != nil {
		return nil, err
	}
	for _, field := range [][]byte{e.Salt, e.Tag, e.Ciphertext} {
		if err := binary.Write(&buf, endian, field); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary is the inverse of MarshalBinary, accepting either byte
// order based on the magic bytes.
func (e *Envelope) UnmarshalBinary(data []byte) error {
	var (
		magic  uint16
		endian binary.ByteOrder = binary.BigEndian
	)
	r := bytes.NewReader(data)
	if err := binary.Read(r, endian, &magic); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	switch magic {
	case magicBytes:
	case magicBytesInverse:
		endian = binary.LittleEndian
	default:
		return fmt.Errorf("%w: bad magic bytes %#04x", ErrMalformedEnvelope, magic)
	}
	var header envelopeHeader
	if err := header.mapper().Read(r, endian); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if header.saltSize != SaltSize || header.tagSize != TagSize {
		return fmt.Errorf("%w: unexpected field sizes in header", ErrMalformedEnvelope)
	}
	if header.textSize > uint64(r.Len()) {
		return fmt.Errorf("%w: ciphertext length %d exceeds remaining data", ErrMalformedEnvelope, header.textSize)
	}
	var (
		salt = make(Salt, header.saltSize)
		tag  = make(Tag, header.tagSize)
		text = make([]byte, header.textSize)
	)
	for _, field := range [][]byte{salt, tag, text} {
		if err := binary.Read(r, endian, field); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
		}
	}
	e.Iterations = header.iterations
	e.Salt = salt
	e.Tag = tag
	e.Ciphertext = text
	return nil
}
