package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"medsecure/internal/envelope"
	"medsecure/internal/model"
	"medsecure/internal/storage"
)

// vaultKeyPrefix namespaces envelope objects inside the bucket.
const vaultKeyPrefix = "vault/"

// presignExpiry bounds how long a vault download link stays valid.
const presignExpiry = 15 * time.Minute

// EncryptResult is the outcome of a successful encryption.
type EncryptResult struct {
	// Envelope is the full wire-format string, ready to be saved as a
	// .medsecure file.
	Envelope string `json:"envelope"`
	// FileName is the suggested download name (original name + suffix).
	FileName string `json:"file_name"`
	// VaultKey locates the stored copy of the envelope.
	VaultKey string                `json:"vault_key"`
	Metadata envelope.FileMetadata `json:"metadata"`
}

// FileService wraps the envelope codec with the role gate, vault
// persistence, and audit emission.
type FileService interface {
	// Encrypt wraps the file into an envelope, stores a copy in the
	// vault, and audits the operation. Requires the authorized or admin
	// role.
	Encrypt(ctx context.Context, actor model.Identity, data []byte, fileName, mimeType string) (*EncryptResult, error)

	// Decrypt unwraps an uploaded envelope string and audits the
	// operation. Requires the authorized or admin role. Codec failures
	// are returned verbatim and emit no audit entry.
	Decrypt(ctx context.Context, actor model.Identity, env string) (*envelope.DecodedFile, error)

	// DecryptVaultKey fetches a stored envelope from the vault and
	// decrypts it. Requires the authorized or admin role.
	DecryptVaultKey(ctx context.Context, actor model.Identity, key string) (*envelope.DecodedFile, error)

	// PresignDownload returns a time-limited URL for a stored envelope.
	// Requires the authorized or admin role.
	PresignDownload(ctx context.Context, actor model.Identity, key string) (string, error)
}

type fileService struct {
	codec *envelope.Codec
	vault storage.Vault
	audit AuditService
}

// NewFileService constructs a new FileService.
func NewFileService(codec *envelope.Codec, vault storage.Vault, audit AuditService) FileService {
	return &fileService{codec: codec, vault: vault, audit: audit}
}

func (s *fileService) Encrypt(ctx context.Context, actor model.Identity, data []byte, fileName, mimeType string) (*EncryptResult, error) {
	if !actor.Role.CanUseVault() {
		return nil, ErrAccessDenied
	}

	env, err := s.codec.Encode(data, fileName, mimeType)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}

	key := vaultKeyPrefix + uuid.New().String() + envelope.FileSuffix
	_, err = s.vault.Put(ctx, key, strings.NewReader(env), int64(len(env)), map[string]string{
		"original-filename": fileName,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: store envelope: %v", ErrStoreUnavailable, err)
	}

	s.audit.Record(ctx, &actor.UserID, "File encrypted: "+fileName, map[string]any{
		"originalFileName": fileName,
		"fileSize":         int64(len(data)),
		"vaultKey":         key,
		"action":           "file_encryption",
	})

	return &EncryptResult{
		Envelope: env,
		FileName: fileName + envelope.FileSuffix,
		VaultKey: key,
		Metadata: envelope.FileMetadata{
			OriginalName: fileName,
			MimeType:     mimeType,
			Size:         int64(len(data)),
			Signature:    envelope.Magic,
		},
	}, nil
}

func (s *fileService) Decrypt(ctx context.Context, actor model.Identity, env string) (*envelope.DecodedFile, error) {
	if !actor.Role.CanUseVault() {
		return nil, ErrAccessDenied
	}

	decoded, err := s.codec.Decode(env)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &actor.UserID, "File decrypted: "+decoded.Metadata.OriginalName, map[string]any{
		"originalFileName": decoded.Metadata.OriginalName,
		"fileSize":         decoded.Metadata.Size,
		"action":           "file_decryption",
	})

	return decoded, nil
}

func (s *fileService) DecryptVaultKey(ctx context.Context, actor model.Identity, key string) (*envelope.DecodedFile, error) {
	if !actor.Role.CanUseVault() {
		return nil, ErrAccessDenied
	}
	if !strings.HasPrefix(key, vaultKeyPrefix) {
		return nil, ErrNotFound
	}

	rc, _, err := s.vault.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch envelope: %v", ErrStoreUnavailable, err)
	}
	defer rc.Close()

	env, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: read envelope: %v", ErrStoreUnavailable, err)
	}

	decoded, err := s.codec.Decode(string(env))
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &actor.UserID, "File decrypted: "+decoded.Metadata.OriginalName, map[string]any{
		"originalFileName": decoded.Metadata.OriginalName,
		"fileSize":         decoded.Metadata.Size,
		"vaultKey":         key,
		"action":           "file_decryption",
	})

	return decoded, nil
}

func (s *fileService) PresignDownload(ctx context.Context, actor model.Identity, key string) (string, error) {
	if !actor.Role.CanUseVault() {
		return "", ErrAccessDenied
	}
	if !strings.HasPrefix(key, vaultKeyPrefix) {
		return "", ErrNotFound
	}

	u, err := s.vault.PresignGet(ctx, key, presignExpiry)
	if err != nil {
		return "", fmt.Errorf("%w: presign: %v", ErrStoreUnavailable, err)
	}
	return u, nil
}
