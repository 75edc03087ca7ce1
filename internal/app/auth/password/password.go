package password

import (
	"sync"

	customErrors "github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/auth/errors"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
)

var DefaultParams = &argon2id.Params{
	Memory:      64 * 1024, // 64 MiB
	Iterations:  2,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

type Hasher interface {
	Hash(plain string) (string, error)
	Compare(plain, hash string) (bool, error)
	// CompareDummy burns the same work as Compare for users that do not exist.
	CompareDummy(plain string)
}

type Argon2idHasher struct {
	params *argon2id.Params
	pepper string

	dummyOnce sync.Once
	dummyHash string
}

func NewArgon2id(pepper string, params *argon2id.Params) *Argon2idHasher {
	if params == nil {
		params = DefaultParams
	}
	return &Argon2idHasher{params: params, pepper: pepper}
}

func (h *Argon2idHasher) Hash(plain string) (string, error) {
	hash, err := argon2id.CreateHash(plain+h.pepper, h.params)
	if err != nil {
		return "", customErrors.WrapInternal(err, "hash password")
	}
	return hash, nil
}

func (h *Argon2idHasher) Compare(plain, hash string) (bool, error) {
	ok, err := argon2id.ComparePasswordAndHash(plain+h.pepper, hash)
	if err != nil {
		return false, customErrors.WrapInternal(err, "compare password")
	}
	return ok, nil
}

func (h *Argon2idHasher) CompareDummy(plain string) {
	h.dummyOnce.Do(func() {
		h.dummyHash, _ = argon2id.CreateHash(uuid.NewString(), h.params)
	})
	if h.dummyHash == "" {
		return
	}
	_, _ = argon2id.ComparePasswordAndHash(plain+h.pepper, h.dummyHash)
}
