package services

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/yoockh/cinedesk/internal/storage"
	"github.com/yoockh/cinedesk/internal/utils"
)

const (
	MsgStoragePathRequired = "storagePath is required"
	MsgSignFailed          = "Failed to generate signed URL"
)

type FileService interface {
	// SignURL returns a download URL for storagePath valid for expiresIn
	// seconds; zero or negative means one hour.
	SignURL(ctx context.Context, storagePath string, expiresIn int64) (string, error)
}

// URLSigner is satisfied by *storage.Gateway.
type URLSigner interface {
	SignURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
}

type fileService struct {
	signer URLSigner
}

func NewFileService(signer URLSigner) FileService {
	return &fileService{signer: signer}
}

func (s *fileService) SignURL(ctx context.Context, storagePath string, expiresIn int64) (string, error) {
	const op = "FileService.SignURL"

	if strings.TrimSpace(storagePath) == "" {
		return "", utils.E(utils.CodeInvalidArgument, op, MsgStoragePathRequired, nil)
	}
	if s.signer == nil {
		return "", utils.E(utils.CodeInternal, op, MsgSignFailed, storage.ErrNotConfigured)
	}

	expiry := storage.DefaultExpiry
	switch {
	case expiresIn > int64(math.MaxInt64/time.Second):
		// upper bound is enforced by the storage service, just avoid overflow
		expiry = time.Duration(math.MaxInt64)
	case expiresIn > 0:
		expiry = time.Duration(expiresIn) * time.Second
	}

	u, err := s.signer.SignURL(ctx, storagePath, expiry)
	if err != nil {
		return "", utils.E(utils.CodeInternal, op, MsgSignFailed, err)
	}
	return u, nil
}
