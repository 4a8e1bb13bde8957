package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"
)

type Params struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	KeyLen      uint32
}

var Default = Params{Memory: 64 * 1024, Time: 3, Parallelism: 1, KeyLen: 32}

// Hash deriva un argon2id del password con un salt aleatorio fresco.
// Retorna (hash, salt) por separado porque el esquema los persiste en
// columnas distintas; los parámetros viajan dentro del hash:
// $argon2id$v=19$m=...,t=...,p=...$<dkB64>
func Hash(p Params, plain string) (hash, salt string, err error) {
	if plain == "" {
		return "", "", fmt.Errorf("empty password")
	}
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	dk := argon2.IDKey([]byte(plain), raw, p.Time, p.Memory, p.Parallelism, p.KeyLen)
	hash = fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s",
		p.Memory, p.Time, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(dk),
	)
	return hash, base64.RawStdEncoding.EncodeToString(raw), nil
}

// Verify compara el password contra (hash, salt) almacenados.
// Cualquier hash o salt malformado verifica false, nunca panic.
func Verify(plain, hash, salt string) bool {
	if plain == "" || hash == "" || salt == "" {
		return false
	}
	var v int
	var m, t, p int
	var dkB64 string
	n, _ := fmt.Sscanf(hash, "$argon2id$v=%d$m=%d,t=%d,p=%d$%s", &v, &m, &t, &p, &dkB64)
	if n != 5 || v != 19 || m <= 0 || t <= 0 || p <= 0 || p > 255 {
		return false
	}
	raw, err := base64.RawStdEncoding.DecodeString(salt)
	if err != nil {
		return false
	}
	dkStored, err := base64.RawStdEncoding.DecodeString(dkB64)
	if err != nil || len(dkStored) == 0 {
		return false
	}
	key := argon2.IDKey([]byte(plain), raw, uint32(t), uint32(m), uint8(p), uint32(len(dkStored)))
	return subtle.ConstantTimeCompare(key, dkStored) == 1
}
