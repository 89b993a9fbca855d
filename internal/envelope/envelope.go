package envelope

// Package envelope implements the MedSecure file-wrapping format:
//
//	MEDSECURE_2024_ENCRYPTED_FILE::<ciphertext>
//
// The ciphertext seals a JSON payload {metadata, fileData} where fileData
// is the base64-encoded file content and metadata carries the original
// name, mime type, size, encryption timestamp, and a second copy of the
// platform signature. The signature is checked twice on decode: as the
// envelope prefix before any crypto work, and inside the decrypted
// metadata to catch payloads that decrypt to plausible JSON but were not
// produced by this platform.

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// Magic is the platform marker, used both as the envelope prefix and
	// as the metadata signature.
	Magic = "MEDSECURE_2024_ENCRYPTED_FILE"

	// FileSuffix is the conventional extension for envelope files.
	FileSuffix = ".medsecure"

	separator = "::"
)

var (
	// ErrNotThisPlatform means the input does not carry the envelope prefix.
	ErrNotThisPlatform = errors.New("file was not encrypted by this platform")
	// ErrDecryptionFailed means the cipher rejected the ciphertext. The
	// cipher mode carries no authentication tag, so this also covers some
	// tampered inputs.
	ErrDecryptionFailed = errors.New("decryption failed")
	// ErrMalformedPayload means the decrypted text is not a valid payload.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrSignatureMismatch means the payload decrypted and parsed but its
	// metadata signature is not the platform marker.
	ErrSignatureMismatch = errors.New("invalid file signature")
)

// FileMetadata describes the file sealed inside an envelope.
// JSON field names are part of the wire format.
type FileMetadata struct {
	OriginalName string `json:"originalName"`
	MimeType     string `json:"mimeType"`
	Size         int64  `json:"size"`
	EncryptedAt  string `json:"encryptedAt"`
	Signature    string `json:"signature"`
}

// payload is the plaintext sealed inside the ciphertext.
type payload struct {
	Metadata FileMetadata `json:"metadata"`
	FileData string       `json:"fileData"`
}

// DecodedFile is the result of a successful Decode.
type DecodedFile struct {
	Metadata FileMetadata
	Data     []byte
}

// Codec encodes and decodes envelopes with a pre-shared key.
// Both operations are pure transforms; the codec performs no I/O.
type Codec struct {
	key string
	now func() time.Time
}

// NewCodec returns a codec using the given pre-shared key.
func NewCodec(key string) *Codec {
	return &Codec{key: key, now: time.Now}
}

// Encode wraps the given file bytes and metadata into an envelope string.
// The round trip Decode(Encode(data, name, mime)) reproduces data, name,
// mime, and len(data) exactly, including for empty input.
func (c *Codec) Encode(data []byte, name, mimeType string) (string, error) {
	p := payload{
		Metadata: FileMetadata{
			OriginalName: name,
			MimeType:     mimeType,
			Size:         int64(len(data)),
			EncryptedAt:  c.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
			Signature:    Magic,
		},
		FileData: base64.StdEncoding.EncodeToString(data),
	}

	plaintext, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	ciphertext, err := encryptWithPassphrase(c.key, plaintext)
	if err != nil {
		return "", fmt.Errorf("encrypt payload: %w", err)
	}

	return Magic + separator + ciphertext, nil
}

// Decode validates and unwraps an envelope string. Checks run cheapest
// first: prefix, then decryption, then payload shape, then the inner
// signature. Every failure is terminal; there is no partial result.
func (c *Codec) Decode(envelope string) (*DecodedFile, error) {
	if !strings.HasPrefix(envelope, Magic+separator) {
		return nil, ErrNotThisPlatform
	}

	ciphertext := envelope[len(Magic+separator):]
	plaintext, err := decryptWithPassphrase(c.key, ciphertext)
	if err != nil || len(plaintext) == 0 {
		return nil, fmt.Errorf("%w: file may be corrupted or tampered with", ErrDecryptionFailed)
	}

	var p payload
	if err := json.Unmarshal(plaintext, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if p.Metadata.Signature != Magic {
		return nil, ErrSignatureMismatch
	}

	data, err := base64.StdEncoding.DecodeString(p.FileData)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid file data encoding", ErrMalformedPayload)
	}

	return &DecodedFile{Metadata: p.Metadata, Data: data}, nil
}
