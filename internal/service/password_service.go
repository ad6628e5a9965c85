package service

// PasswordService hashes and verifies passwords. Verify reports whether the
// stored hash predates the current cost policy so callers can rehash on a
// successful login.
type PasswordService interface {
	Hash(password string) (hash, salt, paramsJSON []byte, algo string, ver int, err error)
	Verify(password string, cred interface{ GetAlgo() string; GetHash() []byte; GetSalt() []byte; GetParamsJSON() []byte; GetPasswordVer() int }) (rehashNeeded bool, ok bool)
}
