// AngelaMos | 2026
// security.go

package core

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var ErrMalformedHash = errors.New("malformed password hash")

// Argon2Params are the argon2id cost settings written into every new hash.
type Argon2Params struct {
	MemoryKiB uint32
	Time      uint32
	Threads   uint8
	KeyLen    uint32
	SaltLen   uint32
}

var DefaultArgon2 = Argon2Params{
	MemoryKiB: 64 * 1024,
	Time:      1,
	Threads:   4,
	KeyLen:    32,
	SaltLen:   16,
}

func (p Argon2Params) withDefaults() Argon2Params {
	if p.MemoryKiB == 0 {
		p.MemoryKiB = DefaultArgon2.MemoryKiB
	}
	if p.Time == 0 {
		p.Time = DefaultArgon2.Time
	}
	if p.Threads == 0 {
		p.Threads = DefaultArgon2.Threads
	}
	if p.KeyLen == 0 {
		p.KeyLen = DefaultArgon2.KeyLen
	}
	if p.SaltLen == 0 {
		p.SaltLen = DefaultArgon2.SaltLen
	}
	return p
}

// PasswordHasher hashes and checks passwords in PHC string form:
// $argon2id$v=19$m=<kib>,t=<time>,p=<threads>$<salt>$<key>
type PasswordHasher struct {
	params Argon2Params
	decoy  []byte
}

func NewPasswordHasher(params Argon2Params) *PasswordHasher {
	params = params.withDefaults()
	return &PasswordHasher{
		params: params,
		decoy:  make([]byte, params.SaltLen),
	}
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt,
		h.params.Time, h.params.MemoryKiB, h.params.Threads, h.params.KeyLen)

	return phcHash{params: h.params, salt: salt, key: key}.String(), nil
}

// Check reports whether password matches encoded. An empty encoded hash
// still costs one derivation, so unknown and invited-but-unset accounts
// answer in the same time as real ones. rehash is a fresh hash when the
// stored one was made with other cost settings.
func (h *PasswordHasher) Check(password, encoded string) (ok bool, rehash string, err error) {
	if encoded == "" {
		argon2.IDKey([]byte(password), h.decoy,
			h.params.Time, h.params.MemoryKiB, h.params.Threads, h.params.KeyLen)
		return false, "", nil
	}

	stored, err := parsePHC(encoded)
	if err != nil {
		return false, "", err
	}

	key := argon2.IDKey([]byte(password), stored.salt,
		stored.params.Time, stored.params.MemoryKiB, stored.params.Threads, stored.params.KeyLen)
	if subtle.ConstantTimeCompare(stored.key, key) != 1 {
		return false, "", nil
	}

	if stored.params.MemoryKiB == h.params.MemoryKiB &&
		stored.params.Time == h.params.Time &&
		stored.params.Threads == h.params.Threads &&
		stored.params.KeyLen == h.params.KeyLen {
		return true, "", nil
	}

	fresh, err := h.Hash(password)
	if err != nil {
		//nolint:nilerr // the password matched; the upgrade is retried next login
		return true, "", nil
	}
	return true, fresh, nil
}

type phcHash struct {
	params Argon2Params
	salt   []byte
	key    []byte
}

func (p phcHash) String() string {
	enc := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.params.MemoryKiB, p.params.Time, p.params.Threads,
		enc.EncodeToString(p.salt),
		enc.EncodeToString(p.key),
	)
}

func parsePHC(encoded string) (phcHash, error) {
	var out phcHash

	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" {
		return out, ErrMalformedHash
	}
	if fields[1] != "argon2id" {
		return out, fmt.Errorf("%w: algorithm %q", ErrMalformedHash, fields[1])
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil || version != argon2.Version {
		return out, fmt.Errorf("%w: version %q", ErrMalformedHash, fields[2])
	}

	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d",
		&out.params.MemoryKiB, &out.params.Time, &out.params.Threads); err != nil {
		return out, fmt.Errorf("%w: params %q", ErrMalformedHash, fields[3])
	}

	var err error
	if out.salt, err = base64.RawStdEncoding.DecodeString(fields[4]); err != nil {
		return out, fmt.Errorf("%w: salt", ErrMalformedHash)
	}
	if out.key, err = base64.RawStdEncoding.DecodeString(fields[5]); err != nil {
		return out, fmt.Errorf("%w: key", ErrMalformedHash)
	}

	//nolint:gosec // G115: argon2 keys are a few dozen bytes
	out.params.KeyLen = uint32(len(out.key))
	return out, nil
}

// NewOpaqueToken returns n random bytes, URL-safe encoded. Used for refresh
// and invitation tokens, which are only ever stored as HashToken digests.
func NewOpaqueToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
