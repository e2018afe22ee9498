package answerlock

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/crypto/hkdf"
)

// ErrWrongPassword reports that decryption produced bytes that don't decode
// as text, which is what ciphertext looks like under the wrong key.
var ErrWrongPassword = errors.New("wrong password")

// Locker encrypts and decrypts messages under answer-derived keys.
// It holds no state between calls, so a single Locker is safe to share
// across goroutines.
type Locker struct {
	deriver *Deriver
}

// NewLocker creates a Locker whose Deriver is configured with the given options.
func NewLocker(opts ...DeriverOpt) (*Locker, error) {
	d, err := NewDeriver(opts...)
	if err != nil {
		return nil, err
	}
	return &Locker{deriver: d}, nil
}

// Encrypt calibrates a key from the secret, encrypts the message with
// AES-256-CTR, and tags the ciphertext with the same secret.
// The returned Envelope carries everything the recipient needs except the
// answer itself. Expect this call to occupy a CPU for the Deriver's full
// target duration.
func (l *Locker) Encrypt(ctx context.Context, message, secret string) (*Envelope, error) {
	iterations, salt, key, err := l.deriver.Calibrate(ctx, secret)
	if err != nil {
		return nil, err
	}
	ciphertext, err := ctrTransform(key, salt, []byte(message))
	if err != nil {
		return nil, err
	}
	return &Envelope{
		Iterations: iterations,
		Salt:       salt,
		Tag:        ComputeTag(ciphertext, secret),
		Ciphertext: ciphertext,
	}, nil
}

// Decrypt replays the envelope's derivation with the supplied password and
// reverses the CTR transform. Three outcomes are possible:
//   - The output isn't valid text: the password is wrong, ErrWrongPassword.
//   - The output is text: a Result is returned with TagValid reporting
//     whether the recomputed tag matched, true or false.
//   - The envelope itself is unusable (bad salt length, iteration count out
//     of range): the wrapped validation error, distinct from a wrong password.
func (l *Locker) Decrypt(ctx context.Context, password string, env *Envelope) (*Result, error) {
	if err := env.validate(); err != nil {
		return nil, err
	}
	key, err := l.deriver.Replay(ctx, env.Iterations, env.Salt, password)
	if err != nil {
		return nil, err
	}
	plaintext, err := ctrTransform(key, env.Salt, env.Ciphertext)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(plaintext) {
		return nil, ErrWrongPassword
	}
	return &Result{
		Message:  string(plaintext),
		TagValid: env.Tag.Equal(ComputeTag(env.Ciphertext, password)),
	}, nil
}

// ctrTransform runs the symmetric CTR keystream over in.
// The initial counter block is derived from the salt, so a counter value
// never repeats under a given key as long as salts stay unique.
func ctrTransform(key Key, salt Salt, in []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	iv, err := counterBlock(salt)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(in))
	cipher.NewCTR(block, iv).XORKeyStream(out, in)
	return out, nil
}

func counterBlock(salt Salt) ([]byte, error) {
	hk := hkdf.New(sha256.New, salt, nil, []byte("answerlock ctr block"))
	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(hk, iv); err != nil {
		return nil, fmt.Errorf("failed to derive counter block: %w", err)
	}
	return iv, nil
}
