package impl

import (
	"bytes"
	"encoding/json"
	"testing"

	"disbroad/internal/domain"
)

func hashedCredential(t *testing.T, svc *PasswordServiceImpl, password string) *domain.PasswordCredential {
	t.Helper()
	hash, salt, paramsJSON, algo, ver, err := svc.Hash(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return &domain.PasswordCredential{
		Algo:        algo,
		Hash:        hash,
		Salt:        salt,
		ParamsJSON:  paramsJSON,
		PasswordVer: ver,
	}
}

func TestPasswordServiceHashAndVerify(t *testing.T) {
	svc := NewPasswordServiceArgon2id()
	cred := hashedCredential(t, svc, "Str0ng!pass")

	rehash, ok := svc.Verify("Str0ng!pass", cred)
	if !ok {
		t.Fatalf("expected password to verify")
	}
	if rehash {
		t.Fatalf("fresh hash should not need rehash")
	}

	if _, ok := svc.Verify("wrong-password", cred); ok {
		t.Fatalf("expected wrong password to fail")
	}
}

func TestPasswordServiceHashEmptyPassword(t *testing.T) {
	svc := NewPasswordServiceArgon2id()
	if _, _, _, _, _, err := svc.Hash(""); err != ErrEmptyPassword {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
}

func TestPasswordServiceHashUsesFreshSalt(t *testing.T) {
	svc := NewPasswordServiceArgon2id()
	a := hashedCredential(t, svc, "Str0ng!pass")
	b := hashedCredential(t, svc, "Str0ng!pass")
	if bytes.Equal(a.Salt, b.Salt) {
		t.Fatalf("expected distinct salts")
	}
	if bytes.Equal(a.Hash, b.Hash) {
		t.Fatalf("expected distinct hashes")
	}
}

func TestPasswordServiceRehashOnStaleParams(t *testing.T) {
	svc := NewPasswordServiceArgon2id()
	cred := hashedCredential(t, svc, "Str0ng!pass")

	// Re-encode the stored params with cheaper costs, simulating a hash from
	// an older deployment.
	stale := Argon2Params{Time: 1, Memory: 16 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}
	staleJSON, err := json.Marshal(stale)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	weak := NewPasswordServiceArgon2id()
	weak.cur = stale
	hash, salt, _, algo, _, err := weak.Hash("Str0ng!pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	cred.Hash = hash
	cred.Salt = salt
	cred.Algo = algo
	cred.ParamsJSON = staleJSON

	rehash, ok := svc.Verify("Str0ng!pass", cred)
	if !ok {
		t.Fatalf("stale hash should still verify")
	}
	if !rehash {
		t.Fatalf("stale params should request a rehash")
	}
}

func TestPasswordServiceUnknownAlgoFails(t *testing.T) {
	svc := NewPasswordServiceArgon2id()
	cred := hashedCredential(t, svc, "Str0ng!pass")
	cred.Algo = "bcrypt"

	if _, ok := svc.Verify("Str0ng!pass", cred); ok {
		t.Fatalf("unknown algorithm must not verify")
	}
}
