package segment

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanq16/danzo-hls/internal/hls"
	"github.com/tanq16/danzo-hls/internal/httpclient"
	"github.com/tanq16/danzo-hls/internal/keycache"
)

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	pad := make([]byte, padLen)
	for i := range pad {
		pad[i] = byte(padLen)
	}
	return append(data, pad...)
}

func encryptCBC(key, iv, plaintext []byte) []byte {
	block, err := aes.NewCipher(key)
	if err != nil {
		panic(err)
	}
	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)
	return ciphertext
}

func TestFetchPlaintextSegment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello segment"))
	}))
	defer srv.Close()

	client, err := httpclient.New(httpclient.Config{})
	require.NoError(t, err)
	keys := keycache.New(client, nil)
	f := NewFetcher(client, keys, nil)

	seg := hls.Segment{Index: 0, AbsoluteIndex: 0, URI: srv.URL, Encryption: hls.KeyInfo{Method: hls.EncryptionNone}}
	data, err := f.Fetch(context.Background(), seg)
	require.NoError(t, err)
	assert.Equal(t, "hello segment", string(data))
}

func TestFetchAES128ImplicitIV(t *testing.T) {
	key := []byte("0123456789ABCDEF")
	plaintext := []byte("the quick brown fox jumps over the lazy dog")
	absoluteIndex := 7

	iv := make([]byte, 16)
	binary.BigEndian.PutUint64(iv[8:], uint64(absoluteIndex))
	ciphertext := encryptCBC(key, iv, plaintext)

	var keyRequests int
	keySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keyRequests++
		w.Write(key)
	}))
	defer keySrv.Close()

	segSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(ciphertext)
	}))
	defer segSrv.Close()

	client, err := httpclient.New(httpclient.Config{})
	require.NoError(t, err)
	keys := keycache.New(client, nil)
	f := NewFetcher(client, keys, nil)

	seg := hls.Segment{
		Index: 0, AbsoluteIndex: absoluteIndex, URI: segSrv.URL,
		Encryption: hls.KeyInfo{Method: hls.EncryptionAES128, KeyURI: keySrv.URL},
	}
	data, err := f.Fetch(context.Background(), seg)
	require.NoError(t, err)
	assert.Equal(t, plaintext, data)
	assert.Equal(t, 1, keyRequests)
}

func TestFetchAES128ExplicitIV(t *testing.T) {
	key := []byte("FEDCBA9876543210")
	iv := []byte("ABCDEF0123456789")
	plaintext := []byte("explicit iv plaintext payload!!")
	ciphertext := encryptCBC(key, iv, plaintext)

	keySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(key)
	}))
	defer keySrv.Close()
	segSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(ciphertext)
	}))
	defer segSrv.Close()

	client, err := httpclient.New(httpclient.Config{})
	require.NoError(t, err)
	keys := keycache.New(client, nil)
	f := NewFetcher(client, keys, nil)

	seg := hls.Segment{
		Index: 0, AbsoluteIndex: 0, URI: segSrv.URL,
		Encryption: hls.KeyInfo{Method: hls.EncryptionAES128, KeyURI: keySrv.URL, IV: iv},
	}
	data, err := f.Fetch(context.Background(), seg)
	require.NoError(t, err)
	assert.Equal(t, plaintext, data)
}

func TestFetchUnsupportedEncryptionMethod(t *testing.T) {
	segSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("irrelevant"))
	}))
	defer segSrv.Close()

	client, err := httpclient.New(httpclient.Config{})
	require.NoError(t, err)
	keys := keycache.New(client, nil)
	f := NewFetcher(client, keys, nil)

	seg := hls.Segment{
		Index: 0, URI: segSrv.URL,
		Encryption: hls.KeyInfo{Method: hls.EncryptionMethod(-1), KeyURI: "SAMPLE-AES"},
	}
	_, err = f.Fetch(context.Background(), seg)
	assert.Error(t, err)
}
