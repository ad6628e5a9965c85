package ws

import (
	"bytes"
	"crypto/md5"
	"crypto/rand"
	"crypto/rsa"
	"errors"
)

// ErrAuthenticationFailed reports a failed owner challenge on the admin socket.
var ErrAuthenticationFailed = errors.New("owner authentication failed")

// Handshake gates the admin socket with a challenge-response round: a random
// challenge is encrypted with the owner's RSA public key and the client must
// answer with the MD5 digest of the plaintext. MD5 is the agreed wire format
// with existing admin clients, not a security boundary on its own.
func Handshake(conn *Conn, pub *rsa.PublicKey) error {
	challenge := make([]byte, 32)
	if _, err := rand.Read(challenge); err != nil {
		return err
	}
	ciphertext, err := rsa.EncryptPKCS1v15(rand.Reader, pub, challenge)
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(opBinary, ciphertext); err != nil {
		return err
	}
	opcode, reply, err := conn.ReadMessage()
	if err != nil {
		return err
	}
	expected := md5.Sum(challenge)
	if opcode != opBinary || !bytes.Equal(reply, expected[:]) {
		_ = conn.WriteJSON(map[string]string{"message": "Authentication failed."})
		_ = conn.Close()
		return ErrAuthenticationFailed
	}
	return conn.WriteJSON(map[string]string{"message": "Authenticated."})
}
