package envelope

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

// The ciphertext layout is the OpenSSL passphrase format produced by the
// original client builds (CryptoJS.AES.encrypt with a string key):
// base64("Salted__" || salt[8] || AES-256-CBC ciphertext), with the key
// and IV derived from the passphrase via EVP_BytesToKey over MD5. Kept
// byte-compatible so existing .medsecure files still open.

const opensslSaltHeader = "Salted__"

var errBadCiphertext = errors.New("bad ciphertext")

func encryptWithPassphrase(passphrase string, plaintext []byte) (string, error) {
	salt := make([]byte, 8)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key, iv := evpBytesToKey(passphrase, salt, 32, aes.BlockSize)
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	out := make([]byte, len(opensslSaltHeader)+len(salt)+len(padded))
	copy(out, opensslSaltHeader)
	copy(out[len(opensslSaltHeader):], salt)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[len(opensslSaltHeader)+len(salt):], padded)

	return base64.StdEncoding.EncodeToString(out), nil
}

func decryptWithPassphrase(passphrase, encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errBadCiphertext
	}
	if len(raw) < len(opensslSaltHeader)+8 || !bytes.HasPrefix(raw, []byte(opensslSaltHeader)) {
		return nil, errBadCiphertext
	}

	salt := raw[len(opensslSaltHeader) : len(opensslSaltHeader)+8]
	body := raw[len(opensslSaltHeader)+8:]
	if len(body) == 0 || len(body)%aes.BlockSize != 0 {
		return nil, errBadCiphertext
	}

	key, iv := evpBytesToKey(passphrase, salt, 32, aes.BlockSize)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	plaintext := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, body)

	return pkcs7Unpad(plaintext, aes.BlockSize)
}

// evpBytesToKey derives key material the way OpenSSL's EVP_BytesToKey
// does with MD5 and a single iteration.
func evpBytesToKey(passphrase string, salt []byte, keyLen, ivLen int) (key, iv []byte) {
	var derived, prev []byte
	for len(derived) < keyLen+ivLen {
		h := md5.New()
		h.Write(prev)
		h.Write([]byte(passphrase))
		h.Write(salt)
		prev = h.Sum(nil)
		derived = append(derived, prev...)
	}
	return derived[:keyLen], derived[keyLen : keyLen+ivLen]
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+n)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errBadCiphertext
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, errBadCiphertext
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errBadCiphertext
		}
	}
	return data[:len(data)-n], nil
}
