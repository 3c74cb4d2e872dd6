// Package members — password.go хеширует и проверяет пароли по Argon2id.
// Формат хеша: $argon2id$v=19$m=65536,t=3,p=2$<salt_base64>$<hash_base64>
package members

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// argonParams — параметры Argon2id.
type argonParams struct {
	memory      uint32 // КБ
	iterations  uint32
	parallelism uint8
	saltLength  int
	keyLength   uint32
}

var hashParams = argonParams{
	memory:      65536, // 64 MB
	iterations:  3,
	parallelism: 2,
	saltLength:  16,
	keyLength:   32,
}

var errMalformedHash = errors.New("некорректный формат хеша Argon2id")

// HashPassword возвращает Argon2id-хеш пароля в стандартном формате.
func HashPassword(password string) (string, error) {
	p := hashParams
	salt := make([]byte, p.saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("ошибка генерации соли: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, p.iterations, p.memory, p.parallelism, p.keyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.memory, p.iterations, p.parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash)), nil
}

// VerifyPassword проверяет пароль по хешу. Битый хеш — всегда false.
func VerifyPassword(password, encodedHash string) bool {
	p, salt, expected, err := decodeHash(encodedHash)
	if err != nil {
		return false
	}
	computed := argon2.IDKey([]byte(password), salt, p.iterations, p.memory, p.parallelism, uint32(len(expected)))

	// Сравниваем в постоянном времени
	return subtle.ConstantTimeCompare(computed, expected) == 1
}

// CheckHash проверяет, что строка — разбираемый Argon2id-хеш.
func CheckHash(encodedHash string) error {
	_, _, _, err := decodeHash(encodedHash)
	return err
}

func decodeHash(encodedHash string) (argonParams, []byte, []byte, error) {
	var p argonParams
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, errMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, errMalformedHash
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.iterations, &p.parallelism); err != nil {
		return p, nil, nil, fmt.Errorf("%w: %v", errMalformedHash, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, fmt.Errorf("%w: соль: %v", errMalformedHash, err)
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(hash) == 0 {
		return p, nil, nil, fmt.Errorf("%w: хеш", errMalformedHash)
	}
	return p, salt, hash, nil
}
