package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// Keyring guarda chaves AES-256 por versão, para permitir rotação sem
// re-criptografar tudo de uma vez.
type Keyring map[string][]byte

func (k Keyring) key(version string) ([]byte, error) {
	key, ok := k[version]
	if !ok {
		return nil, fmt.Errorf("key version %q not found", version)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key %q must be 32 bytes for AES-256 (got %d)", version, len(key))
	}
	return key, nil
}

func (k Keyring) gcm(version string) (cipher.AEAD, error) {
	key, err := k.key(version)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (k Keyring) Encrypt(plaintext []byte, version string) (ciphertext, nonce []byte, err error) {
	gcm, err := k.gcm(version)
	if err != nil {
		return nil, nil, err
	}
	nonce = make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, err
	}
	return gcm.Seal(nil, nonce, plaintext, nil), nonce, nil
}

func (k Keyring) Decrypt(ciphertext, nonce []byte, version string) ([]byte, error) {
	gcm, err := k.gcm(version)
	if err != nil {
		return nil, err
	}
	return gcm.Open(nil, nonce, ciphertext, nil)
}

// ParseKeyring lê "v1:<base64>,v2:<base64>" do ambiente. Aceita base64 com ou
// sem padding (painéis de deploy costumam cortar o "=" final).
func ParseKeyring(env string) (Keyring, error) {
	out := make(Keyring)
	for _, part := range strings.Split(env, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ver, b64, ok := strings.Cut(part, ":")
		if !ok || ver == "" {
			continue
		}
		key, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(strings.TrimSpace(b64), "="))
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", ver, err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("key %q must be 32 bytes for AES-256 (got %d)", ver, len(key))
		}
		out[strings.TrimSpace(ver)] = key
	}
	return out, nil
}

func SHA256Hex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
