package session

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

const keySize = 32

var ErrEmptySecret = errors.New("session: empty secret")

// deriveKey expands secret into a keySize key bound to info, so the
// signing and cookie-encryption keys never coincide.
func deriveKey(secret []byte, info string) ([]byte, error) {
	key := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(info)), key); err != nil {
		return nil, err
	}
	return key, nil
}

type keys struct {
	sign    []byte
	encrypt []byte
}

func deriveKeys(secret string) (*keys, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	sign, err := deriveKey([]byte(secret), "whib session signing")
	if err != nil {
		return nil, err
	}
	enc, err := deriveKey([]byte(secret), "whib cookie encryption")
	if err != nil {
		return nil, err
	}
	return &keys{sign: sign, encrypt: enc}, nil
}

// encodedEncryptionKey is the form fiber's encryptcookie middleware expects.
func (k *keys) encodedEncryptionKey() string {
	return base64.StdEncoding.EncodeToString(k.encrypt)
}
