package secure

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"fmt"
)

// saltLength is the number of alphanumeric characters in a login salt.
const saltLength = 12

const saltAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateSalt returns a random 12-character alphanumeric salt for the login
// password hash.
func GenerateSalt() (string, error) {
	buf := make([]byte, saltLength)
	if _, err := rand.Read(buf); err != nil {
		return "", NewCryptoError("failed to generate salt", err)
	}
	out := make([]byte, saltLength)
	for i, b := range buf {
		out[i] = saltAlphabet[int(b)%len(saltAlphabet)]
	}
	return string(out), nil
}

// GenerateSessionSecret returns a fresh random 32-byte AES key and 16-byte IV
// for one connection.
func GenerateSessionSecret() (key, iv []byte, err error) {
	key = make([]byte, 32)
	iv = make([]byte, aes.BlockSize)
	if _, err := rand.Read(key); err != nil {
		return nil, nil, NewCryptoError("failed to generate session key", err)
	}
	if _, err := rand.Read(iv); err != nil {
		return nil, nil, NewCryptoError("failed to generate session IV", err)
	}
	return key, iv, nil
}

// HashPassword computes the bridge's login password hash. The construction is
// two nested SHA-256 rounds over hex digests:
//
//	inner = hex(SHA256(deviceID || authKey))
//	hash  = hex(SHA256(salt || inner))
//
// The inner digest is hashed as its ASCII hex representation, not as raw
// bytes. The bridge computes exactly this, so the nesting must be reproduced
// bit for bit or authentication fails.
func HashPassword(deviceID, authKey, salt []byte) string {
	inner := sha256.New()
	inner.Write(deviceID)
	inner.Write(authKey)
	innerHex := hex.EncodeToString(inner.Sum(nil))

	outer := sha256.New()
	outer.Write(salt)
	outer.Write([]byte(innerHex))
	return hex.EncodeToString(outer.Sum(nil))
}

// EncryptSecret RSA-encrypts the session secret blob "hex(key):::hex(iv)"
// with PKCS#1 v1.5 and returns it base64-encoded, ready for the SECRET
// handshake message.
func EncryptSecret(pub *rsa.PublicKey, key, iv []byte) (string, error) {
	blob := hex.EncodeToString(key) + ":::" + hex.EncodeToString(iv)
	ct, err := rsa.EncryptPKCS1v15(rand.Reader, pub, []byte(blob))
	if err != nil {
		return "", NewCryptoError("failed to RSA-encrypt session secret", err)
	}
	return base64.StdEncoding.EncodeToString(ct), nil
}

// ParsePublicKey parses the RSA public key the bridge sends during the
// handshake. The bridge delivers it PEM-encoded; both PKIX and PKCS#1 body
// formats have been observed across firmware versions.
func ParsePublicKey(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, NewCryptoError("public key is not PEM-encoded", nil)
	}

	if key, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, NewCryptoError("public key is not RSA", nil)
		}
		return rsaKey, nil
	}

	rsaKey, err := x509.ParsePKCS1PublicKey(block.Bytes)
	if err != nil {
		return nil, NewCryptoError("failed to parse RSA public key", err)
	}
	return rsaKey, nil
}

// pad right-pads data with zero bytes to the AES block size. Data that is
// already block-aligned gains a full extra block. This is the bridge's own
// padding scheme (not PKCS#7); interop depends on it.
func pad(data []byte) []byte {
	padSize := aes.BlockSize - (len(data) % aes.BlockSize)
	padded := make([]byte, len(data)+padSize)
	copy(padded, data)
	return padded
}

// unpad strips trailing zero bytes. This is lossy for plaintexts that
// legitimately end in NUL, which JSON text never does; a documented protocol
// limitation, not something to fix here.
func unpad(data []byte) []byte {
	end := len(data)
	for end > 0 && data[end-1] == 0 {
		end--
	}
	return data[:end]
}

// encryptCBC encrypts one record. The same IV is reused for every record in
// the session: a protocol weakness, but the bridge decrypts each record as
// an independent CBC stream starting from the session IV, so per-record IVs
// would break interop. Do not "improve" this.
func encryptCBC(key, iv, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, NewCryptoError("failed to initialize AES cipher", err)
	}
	if len(plaintext)%aes.BlockSize != 0 {
		return nil, NewCryptoError(fmt.Sprintf("plaintext length %d is not block-aligned", len(plaintext)), nil)
	}
	ct := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, plaintext)
	return ct, nil
}

// decryptCBC decrypts one record, starting from the fixed session IV like
// encryptCBC does.
func decryptCBC(key, iv, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, NewCryptoError("failed to initialize AES cipher", err)
	}
	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, NewCryptoError(fmt.Sprintf("ciphertext length %d is not block-aligned", len(ciphertext)), nil)
	}
	pt := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(pt, ciphertext)
	return pt, nil
}
