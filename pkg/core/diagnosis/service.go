// Package diagnosis runs plant diagnoses and keeps each user's history.
package diagnosis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"farmer_assist/pkg/core/blob"
	"farmer_assist/pkg/core/flow"
	"farmer_assist/pkg/core/i18n"
	"farmer_assist/pkg/core/llm"
	"farmer_assist/pkg/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxImageBytes caps the decoded size of an uploaded photo.
const MaxImageBytes = 4 << 20

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

var (
	ErrImageTooLarge = fmt.Errorf("%w: image exceeds 4MB", flow.ErrInvalidInput)
	ErrNotImage      = fmt.Errorf("%w: photo must be an image", flow.ErrInvalidInput)
	ErrNoUser        = errors.New("user id is required")
)

// Analyzer is satisfied by *flow.Runner.
type Analyzer interface {
	AnalyzePlantImage(ctx context.Context, in flow.AnalyzePlantImageInput) (flow.AnalyzePlantImageOutput, error)
}

// Repo is satisfied by store.DiagnosisRepo and store.MemoryDiagnosisRepo.
type Repo interface {
	Create(ctx context.Context, d *models.Diagnosis) error
	ListByUser(ctx context.Context, appID, userID string, limit int) ([]models.Diagnosis, error)
}

type Request struct {
	PhotoDataURI string `json:"photoDataUri,omitempty"`
	TextQuery    string `json:"textQuery,omitempty"`
	Language     string `json:"language,omitempty"`
}

type Result struct {
	Diagnosis string            `json:"diagnosis"`
	Record    *models.Diagnosis `json:"record,omitempty"`
	Saved     bool              `json:"saved"`
}

type Service struct {
	appID    string
	analyzer Analyzer
	repo     Repo
	blobs    blob.Store // optional
	now      func() time.Time
	logger   *zap.Logger
}

func NewService(appID string, analyzer Analyzer, repo Repo, blobs blob.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		appID:    appID,
		analyzer: analyzer,
		repo:     repo,
		blobs:    blobs,
		now:      time.Now,
		logger:   logger.Named("diagnosis"),
	}
}

// Diagnose analyzes the photo and/or question and records the result in the
// user's history. A storage failure does not fail the call: the diagnosis is
// returned with Saved=false.
func (s *Service) Diagnose(ctx context.Context, userID string, req Request) (*Result, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	req.TextQuery = strings.TrimSpace(req.TextQuery)
	if req.TextQuery == "" && req.PhotoDataURI == "" {
		return nil, flow.ErrNoInput
	}

	var photo *llm.Media
	if req.PhotoDataURI != "" {
		m, err := checkPhoto(req.PhotoDataURI)
		if err != nil {
			return nil, err
		}
		photo = &m
	}

	lang, _ := i18n.Resolve(req.Language)
	out, err := s.analyzer.AnalyzePlantImage(ctx, flow.AnalyzePlantImageInput{
		PhotoDataURI: req.PhotoDataURI,
		TextQuery:    req.TextQuery,
		Language:     lang.Code,
	})
	if err != nil {
		return nil, err
	}

	rec := &models.Diagnosis{
		ID:        uuid.New().String(),
		AppID:     s.appID,
		UserID:    userID,
		Query:     req.TextQuery,
		Language:  lang.Code,
		Diagnosis: out.Diagnosis,
		CreatedAt: s.now().UTC(),
	}
	res := &Result{Diagnosis: out.Diagnosis, Record: rec}

	if photo != nil {
		rec.ImageURL = req.PhotoDataURI
		if s.blobs != nil {
			key := fmt.Sprintf("%s/%s/%s.%s", s.appID, userID, rec.ID, photo.Extension())
			url, err := s.blobs.Put(ctx, key, *photo)
			if err != nil {
				s.logger.Warn("photo upload failed, keeping inline image", zap.String("id", rec.ID), zap.Error(err))
			} else {
				rec.ImageURL = url
			}
		}
	}

	if s.repo == nil {
		return res, nil
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		s.logger.Error("failed to save diagnosis", zap.String("user", userID), zap.Error(err))
		return res, nil
	}
	res.Saved = true
	return res, nil
}

// History returns the user's past diagnoses, newest first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]models.Diagnosis, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if s.repo == nil {
		return []models.Diagnosis{}, nil
	}
	return s.repo.ListByUser(ctx, s.appID, userID, limit)
}

func checkPhoto(uri string) (llm.Media, error) {
	m, err := llm.ParseDataURI(uri)
	if err != nil {
		return llm.Media{}, fmt.Errorf("%w: %w", flow.ErrInvalidInput, err)
	}
	if !m.IsImage() {
		return llm.Media{}, ErrNotImage
	}
	if len(m.Data) > MaxImageBytes {
		return llm.Media{}, ErrImageTooLarge
	}
	return m, nil
}
