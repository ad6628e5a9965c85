package ws

import (
	"crypto/md5"
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/stretchr/testify/require"
)

func ownerKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func TestHandshakeAccepted(t *testing.T) {
	key := ownerKey(t)
	server, client := connPair()
	defer server.conn.Close()
	defer client.conn.Close()

	errc := make(chan error, 1)
	go func() { errc <- Handshake(server, &key.PublicKey) }()

	opcode, ciphertext, err := client.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, byte(opBinary), opcode)

	challenge, err := rsa.DecryptPKCS1v15(rand.Reader, key, ciphertext)
	require.NoError(t, err)
	require.Len(t, challenge, 32)

	digest := md5.Sum(challenge)
	require.NoError(t, client.WriteMessage(opBinary, digest[:]))

	reply := readReply(t, client)
	require.Equal(t, "Authenticated.", reply["message"])
	require.NoError(t, <-errc)
}

func TestHandshakeRejectsWrongDigest(t *testing.T) {
	key := ownerKey(t)
	server, client := connPair()
	defer server.conn.Close()
	defer client.conn.Close()

	errc := make(chan error, 1)
	go func() { errc <- Handshake(server, &key.PublicKey) }()

	_, _, err := client.ReadMessage()
	require.NoError(t, err)

	bogus := make([]byte, md5.Size)
	require.NoError(t, client.WriteMessage(opBinary, bogus))

	reply := readReply(t, client)
	require.Equal(t, "Authentication failed.", reply["message"])

	// The server hangs up after a failed challenge.
	_, _, err = client.ReadMessage()
	require.Error(t, err)
	require.ErrorIs(t, <-errc, ErrAuthenticationFailed)
}

func TestHandshakeRejectsTextReply(t *testing.T) {
	key := ownerKey(t)
	server, client := connPair()
	defer server.conn.Close()
	defer client.conn.Close()

	errc := make(chan error, 1)
	go func() { errc <- Handshake(server, &key.PublicKey) }()

	_, ciphertext, err := client.ReadMessage()
	require.NoError(t, err)

	challenge, err := rsa.DecryptPKCS1v15(rand.Reader, key, ciphertext)
	require.NoError(t, err)
	digest := md5.Sum(challenge)

	// Right digest, wrong frame type.
	require.NoError(t, client.WriteMessage(opText, digest[:]))

	reply := readReply(t, client)
	require.Equal(t, "Authentication failed.", reply["message"])
	_, _, err = client.ReadMessage()
	require.Error(t, err)
	require.ErrorIs(t, <-errc, ErrAuthenticationFailed)
}
