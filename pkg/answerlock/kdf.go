package answerlock

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"
)

const (
	// SaltSize is the length of the random salt mixed into every derivation.
	SaltSize = 16
	// KeySize is the length of a derived key, sized for AES-256.
	KeySize = 256 / 8

	// DefaultTargetDuration is how long Calibrate stretches the secret by default.
	DefaultTargetDuration = 15 * time.Second
	// DefaultMaxIterations bounds the iteration count Replay will accept from an envelope.
	DefaultMaxIterations uint64 = 1 << 31

	// Iterations between deadline and context checks in the stretch loops.
	stretchBatch = 64
)

var (
	ErrEmptySecret    = errors.New("cannot use an empty secret")
	ErrIterationCount = errors.New("iteration count out of range")
	ErrSaltSize       = errors.New("salt has the wrong length")
)

// Key is an AES key derived from a secret. It is never part of an Envelope.
type Key []byte

// Salt is a slice of secure random bytes mixed into key derivation.
// It travels in the clear so the recipient can derive the same Key.
type Salt []byte

// StretchFunc is the hash primitive repeated by the Deriver.
// It must be deterministic and return a fixed KeySize-byte digest.
type StretchFunc func(data, salt []byte) []byte

func sha256Stretch(data, salt []byte) []byte {
	h := sha256.New()
	h.Write(data)
	h.Write(salt)
	return h.Sum(nil)
}

// Deriver stretches secrets into keys, either against a wall-clock budget
// (Calibrate, sender side) or by replaying a known iteration count
// (Replay, recipient side).
type Deriver struct {
	target        time.Duration
	maxIterations uint64
	random        io.Reader
	stretch       StretchFunc
}

type DeriverOpt = func(*Deriver) error

// SetTargetDuration sets the wall-clock budget for Calibrate.
// Longer budgets mean proportionally more work for anyone guessing answers.
func SetTargetDuration(target time.Duration) DeriverOpt {
	return func(d *Deriver) error {
		if target <= 0 {
			return errors.New("target duration must be positive")
		}
		d.target = target
		return nil
	}
}

// SetMaxIterations sets the largest iteration count Replay will accept.
// Envelope iteration counts are untrusted, so this bounds how much CPU a
// hostile envelope can burn.
func SetMaxIterations(iterations uint64) DeriverOpt {
	return func(d *Deriver) error {
		if iterations == 0 {
			return errors.New("max iterations cannot be 0")
		}
		d.maxIterations = iterations
		return nil
	}
}

// SetRandSource overrides the source of salt bytes from the default of crypto/rand.
// Intended for tests that need reproducible salts.
func SetRandSource(r io.Reader) DeriverOpt {
	return func(d *Deriver) error {
		if r == nil {
			return errors.New("random source cannot be nil")
		}
		d.random = r
		return nil
	}
}

// SetStretchFunc swaps the stretch hash.
// Only use this option if you know what you're doing. Both parties must
// agree on it, and it must emit KeySize bytes.
func SetStretchFunc(fn StretchFunc) DeriverOpt {
	return func(d *Deriver) error {
		if fn == nil {
			return errors.New("stretch function cannot be nil")
		}
		d.stretch = fn
		return nil
	}
}

// NewDeriver creates a new Deriver using the options provided as zero or more DeriverOpt.
// By default it calibrates for DefaultTargetDuration, clamps replay at
// DefaultMaxIterations, and stretches with SHA-256.
func NewDeriver(opts ...DeriverOpt) (*Deriver, error) {
	d := &Deriver{
		target:        DefaultTargetDuration,
		maxIterations: DefaultMaxIterations,
		random:        rand.Reader,
		stretch:       sha256Stretch,
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Calibrate generates a fresh salt and stretches the secret until the
// target duration has elapsed, returning the iteration count it reached
// alongside the salt and key. Feeding the same count and salt back through
// Replay with the same secret reproduces the key exactly.
//
// The loop checks ctx between batches, so a cancelled context aborts a
// calibration that the host no longer wants to pay for.
func (d *Deriver) Calibrate(ctx context.Context, secret string) (iterations uint64, salt Salt, key Key, err error) {
	if secret == "" {
		return 0, nil, nil, ErrEmptySecret
	}
	salt = make(Salt, SaltSize)
	if _, err = io.ReadFull(d.random, salt); err != nil {
		return 0, nil, nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	start := time.Now()
	digest := d.stretch([]byte(secret), salt)
	iterations = 1
	for time.Since(start) < d.target && iterations < d.maxIterations {
		if err := ctx.Err(); err != nil {
			return 0, nil, nil, err
		}
		for i := 0; i < stretchBatch && iterations < d.maxIterations; i++ {
			digest = d.stretch(digest, salt)
			iterations++
		}
	}
	return iterations, salt, Key(digest), nil
}

// Replay stretches the secret exactly iterations times with the given salt.
// It is byte-for-byte deterministic: no clock, no randomness.
// Iteration counts outside [1, max] are rejected with ErrIterationCount
// before any work is done, since they arrive from untrusted envelopes.
func (d *Deriver) Replay(ctx context.Context, iterations uint64, salt Salt, secret string) (Key, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrSaltSize, SaltSize, len(salt))
	}
	if iterations == 0 || iterations > d.maxIterations {
		return nil, fmt.Errorf("%w: %d is not within [1, %d]", ErrIterationCount, iterations, d.maxIterations)
	}

	digest := d.stretch([]byte(secret), salt)
	for n := uint64(1); n < iterations; n++ {
		if n%stretchBatch == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		digest = d.stretch(digest, salt)
	}
	return Key(digest), nil
}
