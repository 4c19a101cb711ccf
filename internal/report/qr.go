package report

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/skip2/go-qrcode"
)

// QRGenerator renders booking references as PNG QR codes. With a secret the
// reference is AES-CFB encrypted first so only the issuer can read it back.
type QRGenerator struct {
	secret []byte
}

func NewQRGenerator(secret string) *QRGenerator {
	if secret == "" {
		return &QRGenerator{}
	}
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &QRGenerator{secret: hashed[:]}
}

// Reference is the payload printed on a receipt.
func Reference(transactionID int64) string {
	return fmt.Sprintf("BOOKING-%d", transactionID)
}

// Payload is the text the QR code for transactionID carries.
func (q *QRGenerator) Payload(transactionID int64) (string, error) {
	ref := Reference(transactionID)
	if q.secret == nil {
		return ref, nil
	}
	return encryptAES([]byte(ref), q.secret)
}

func (q *QRGenerator) Generate(transactionID int64) ([]byte, error) {
	payload, err := q.Payload(transactionID)
	if err != nil {
		return nil, fmt.Errorf("encrypt booking reference: %w", err)
	}
	return qrcode.Encode(payload, qrcode.Medium, 256)
}

// Decode turns a scanned payload back into the booking reference.
func (q *QRGenerator) Decode(payload string) (string, error) {
	if q.secret == nil {
		return payload, nil
	}
	plain, err := decryptAES(payload, q.secret)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func encryptAES(data []byte, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	ciphertext := make([]byte, aes.BlockSize+len(data))
	iv := ciphertext[:aes.BlockSize]
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ciphertext[aes.BlockSize:], data)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

func decryptAES(encoded string, key []byte) ([]byte, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < aes.BlockSize {
		return nil, errors.New("ciphertext too short")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	iv, data := ciphertext[:aes.BlockSize], ciphertext[aes.BlockSize:]
	cipher.NewCFBDecrypter(block, iv).XORKeyStream(data, data)
	return data, nil
}
