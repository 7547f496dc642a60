package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/cinedesk/internal/models"
	"github.com/yoockh/cinedesk/internal/repositories"
	mongorepo "github.com/yoockh/cinedesk/internal/repositories/mongo"
	"github.com/yoockh/cinedesk/internal/utils"
)

const (
	MsgTokenRequired   = "Token is required"
	MsgInvalidShare    = "Invalid or expired share link"
	MsgFilesFailed     = "Failed to fetch files"
	MsgProjectRequired = "projectId is required"
)

// AccessMeta describes the caller of a share link for the audit trail.
type AccessMeta struct {
	ClientIP  string
	RequestID string
}

type ShareService interface {
	// Resolve turns a share token into its project and file list. Unknown,
	// expired and revoked tokens are indistinguishable to the caller.
	Resolve(ctx context.Context, token string, meta AccessMeta) (*models.SharedProjectView, error)
	RecentAccess(ctx context.Context, projectID string, limit int64) ([]models.ShareAccess, error)
}

type ShareServiceOptions struct {
	// Audit is optional; nil disables the access trail.
	Audit    mongorepo.ShareAccessRepository
	AuditTTL time.Duration
	Logger   logrus.FieldLogger
}

type shareService struct {
	shares   repositories.ShareRepository
	audit    mongorepo.ShareAccessRepository
	auditTTL time.Duration
	log      logrus.FieldLogger
}

func NewShareService(shares repositories.ShareRepository, opts ShareServiceOptions) ShareService {
	if opts.AuditTTL <= 0 {
		opts.AuditTTL = 90 * 24 * time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	return &shareService{
		shares:   shares,
		audit:    opts.Audit,
		auditTTL: opts.AuditTTL,
		log:      opts.Logger,
	}
}

// shareLookup carries state between the resolve and list steps.
type shareLookup struct {
	token   string
	project *models.SharedProject
	files   []models.SharedFile
}

type shareStep func(ctx context.Context, l *shareLookup) error

func (s *shareService) Resolve(ctx context.Context, token string, meta AccessMeta) (*models.SharedProjectView, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, utils.E(utils.CodeInvalidArgument, "ShareService.Resolve", MsgTokenRequired, nil)
	}

	l := &shareLookup{token: token}
	for _, step := range []shareStep{s.resolveProject, s.listFiles} {
		if err := step(ctx, l); err != nil {
			s.record(ctx, l, meta, err)
			return nil, err
		}
	}
	s.record(ctx, l, meta, nil)

	return &models.SharedProjectView{Project: *l.project, Files: l.files}, nil
}

func (s *shareService) resolveProject(ctx context.Context, l *shareLookup) error {
	const op = "ShareService.resolveProject"

	p, err := s.shares.ProjectByToken(ctx, l.token)
	if err != nil {
		// unknown, expired, revoked and backend failures all read as an invalid link
		return utils.E(utils.CodeNotFound, op, MsgInvalidShare, err)
	}
	if p == nil {
		return utils.E(utils.CodeNotFound, op, MsgInvalidShare, utils.ErrNotFound)
	}
	l.project = p
	return nil
}

func (s *shareService) listFiles(ctx context.Context, l *shareLookup) error {
	const op = "ShareService.listFiles"

	files, err := s.shares.FilesByToken(ctx, l.token)
	if err != nil {
		return utils.E(utils.CodeInternal, op, MsgFilesFailed, err)
	}
	if files == nil {
		files = []models.SharedFile{}
	}
	l.files = files
	return nil
}

func (s *shareService) record(ctx context.Context, l *shareLookup, meta AccessMeta, stepErr error) {
	if s.audit == nil {
		return
	}

	now := time.Now().UTC()
	entry := &models.ShareAccess{
		TokenHash:  TokenHash(l.token),
		Outcome:    models.ShareOutcomeResolved,
		FileCount:  len(l.files),
		ClientIP:   meta.ClientIP,
		RequestID:  meta.RequestID,
		AccessedAt: now,
		ExpiresAt:  now.Add(s.auditTTL),
	}
	if l.project != nil {
		entry.ProjectID = l.project.ID
	}
	switch {
	case stepErr == nil:
	case l.project == nil:
		entry.Outcome = models.ShareOutcomeInvalid
	default:
		entry.Outcome = models.ShareOutcomeFilesFailed
	}

	// the caller may hang up right after the response; keep the write alive
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.audit.Insert(actx, entry); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"op":         "ShareService.record",
			"token_hash": entry.TokenHash,
			"outcome":    entry.Outcome,
		}).Warn("share access audit failed")
	}
}

func (s *shareService) RecentAccess(ctx context.Context, projectID string, limit int64) ([]models.ShareAccess, error) {
	const op = "ShareService.RecentAccess"

	if strings.TrimSpace(projectID) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, MsgProjectRequired, nil)
	}
	if s.audit == nil {
		return []models.ShareAccess{}, nil
	}

	rows, err := s.audit.ListByProject(ctx, projectID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "Failed to fetch share access log", err)
	}
	if rows == nil {
		rows = []models.ShareAccess{}
	}
	return rows, nil
}

// TokenHash is the stable, non-reversible identifier stored instead of the
// raw share token.
func TokenHash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}
