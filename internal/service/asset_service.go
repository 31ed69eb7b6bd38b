package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"femiforge/media-api/internal/domain"
	"femiforge/media-api/internal/repository"
	"femiforge/media-api/internal/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// --- Error Definitions ---
var (
	ErrAssetNotFound    = errors.New("asset not found")
	ErrAccessDenied     = errors.New("not authorized to modify or delete this asset")
	ErrValidationFailed = errors.New("asset validation failed")
)

// UploadInput carries the parsed fields of an upload command. Payload slots
// that do not apply to the kind are left nil by the HTTP layer.
type UploadInput struct {
	Title       string
	Description string
	Category    string
	Date        *time.Time

	// Video fields.
	VideoType string
	VideoID   string
	Duration  int

	// Binary payloads. Photo: Image. Video: Thumbnail always, Video when
	// VideoType is "upload".
	Image     *Payload
	Thumbnail *Payload
	Video     *Payload
}

// UpdateInput is a partial patch: nil means "leave unchanged". Featured is a
// pointer so an explicit false is distinguishable from an omitted field.
type UpdateInput struct {
	Title       *string
	Description *string
	Category    *string
	Date        *time.Time
	Featured    *bool

	VideoType *string
	VideoID   *string
	Duration  *int

	Image     *Payload
	Thumbnail *Payload
	Video     *Payload
}

// AssetPage is one page of a listing plus the total match count.
type AssetPage struct {
	Items    []domain.Asset
	Total    int64
	Page     int
	PageSize int
}

// Pages returns the total page count for this page size.
func (p AssetPage) Pages() int64 {
	if p.PageSize < 1 {
		return 0
	}
	return (p.Total + int64(p.PageSize) - 1) / int64(p.PageSize)
}

// UploadLimits caps payload sizes per slot, in bytes. Zero disables a cap.
type UploadLimits struct {
	MaxPhotoBytes     int64
	MaxVideoBytes     int64
	MaxThumbnailBytes int64
}

// AssetService is the lifecycle manager coupling asset records to their
// binary artifacts across create, update and delete.
type AssetService interface {
	List(ctx context.Context, kind domain.AssetKind, filter repository.AssetFilter, page repository.Pagination) (*AssetPage, error)
	// Get returns the asset and records one view.
	Get(ctx context.Context, kind domain.AssetKind, id primitive.ObjectID) (*domain.Asset, error)
	Upload(ctx context.Context, kind domain.AssetKind, input UploadInput, callerID primitive.ObjectID) (*domain.Asset, error)
	Update(ctx context.Context, kind domain.AssetKind, id primitive.ObjectID, callerID primitive.ObjectID, callerRole domain.Role, patch UpdateInput) (*domain.Asset, error)
	Delete(ctx context.Context, kind domain.AssetKind, id primitive.ObjectID, callerID primitive.ObjectID, callerRole domain.Role) error
	RecordView(ctx context.Context, kind domain.AssetKind, id primitive.ObjectID) error
	Stats(ctx context.Context, kind domain.AssetKind) (*repository.AssetStats, error)
}

// assetService implements the AssetService interface.
type assetService struct {
	assetRepo repository.AssetRepository
	artifacts storage.ArtifactStore
	limits    UploadLimits
	logger    *zap.Logger
}

// NewAssetService creates a new instance of assetService.
func NewAssetService(assetRepo repository.AssetRepository, artifacts storage.ArtifactStore, limits UploadLimits, logger *zap.Logger) AssetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &assetService{
		assetRepo: assetRepo,
		artifacts: artifacts,
		limits:    limits,
		logger:    logger,
	}
}

// List returns one page of assets of the given kind.
func (s *assetService) List(ctx context.Context, kind domain.AssetKind, filter repository.AssetFilter, page repository.Pagination) (*AssetPage, error) {
	page = page.Normalize()
	items, total, err := s.assetRepo.List(ctx, kind, filter, page)
	if err != nil {
		return nil, err
	}
	return &AssetPage{
		Items:    items,
		Total:    total,
		Page:     page.Page,
		PageSize: page.PageSize,
	}, nil
}

// Get fetches a single asset and records the view. The increment happens at
// the store layer so concurrent reads never lose counts.
func (s *assetService) Get(ctx context.Context, kind domain.AssetKind, id primitive.ObjectID) (*domain.Asset, error) {
	asset, err := s.assetRepo.GetByID(ctx, kind, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssetNotFound
		}
		return nil, err
	}

	if err := s.RecordView(ctx, kind, id); err != nil {
		return nil, err
	}
	asset.Views++

	return asset, nil
}

// RecordView increments the view counter by exactly 1.
func (s *assetService) RecordView(ctx context.Context, kind domain.AssetKind, id primitive.ObjectID) error {
	err := s.assetRepo.IncrementViews(ctx, kind, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrAssetNotFound
	}
	return err
}

// Upload validates the command, persists the binary payloads, then the
// record. If the record insert fails, every artifact saved by this call is
// removed again before the error is surfaced.
func (s *assetService) Upload(ctx context.Context, kind domain.AssetKind, input UploadInput, callerID primitive.ObjectID) (*domain.Asset, error) {
	if callerID == primitive.NilObjectID {
		return nil, errors.New("caller ID is required to upload an asset")
	}

	// All validation happens before the first storage write, so a rejected
	// command leaves no partial state behind.
	asset, err := s.validateUpload(kind, input)
	if err != nil {
		return nil, err
	}

	// Persist payloads in a fixed order: thumbnail before video, so a
	// mid-sequence failure has saved at most the artifacts before it.
	var saved []string
	cleanup := func() {
		for _, locator := range saved {
			if err := s.artifacts.Delete(ctx, locator); err != nil {
				s.logger.Error("upload rollback: failed to delete artifact",
					zap.String("locator", locator), zap.Error(err))
			}
		}
	}

	switch kind {
	case domain.KindPhoto:
		locator, err := s.artifacts.Save(ctx, storage.RootPhotos, "image", input.Image.FileName, input.Image.Data)
		if err != nil {
			return nil, err
		}
		saved = append(saved, locator)
		asset.ImageURL = locator

	case domain.KindVideo:
		locator, err := s.artifacts.Save(ctx, storage.RootThumbnails, "thumbnail", input.Thumbnail.FileName, input.Thumbnail.Data)
		if err != nil {
			return nil, err
		}
		saved = append(saved, locator)
		asset.ThumbnailURL = locator

		if asset.VideoType == domain.VideoTypeUpload {
			locator, err := s.artifacts.Save(ctx, storage.RootVideos, "video", input.Video.FileName, input.Video.Data)
			if err != nil {
				cleanup()
				return nil, err
			}
			saved = append(saved, locator)
			asset.VideoURL = locator
		}
	}

	asset.UploadedBy = callerID
	if _, err := s.assetRepo.Create(ctx, asset); err != nil {
		cleanup()
		return nil, err
	}

	return asset, nil
}

// Update applies a partial patch to an existing asset, optionally replacing
// artifacts. New artifacts are saved before the record update and the old
// ones deleted only after it, so the record never points at a missing file.
func (s *assetService) Update(ctx context.Context, kind domain.AssetKind, id primitive.ObjectID, callerID primitive.ObjectID, callerRole domain.Role, patch UpdateInput) (*domain.Asset, error) {
	asset, err := s.assetRepo.GetByID(ctx, kind, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssetNotFound
		}
		return nil, err
	}

	if callerRole != domain.RoleAdmin && asset.UploadedBy != callerID {
		return nil, ErrAccessDenied
	}

	if err := applyPatch(asset, patch); err != nil {
		return nil, err
	}
	if err := s.checkPatchPayloads(kind, asset, patch); err != nil {
		return nil, err
	}

	// Save replacement artifacts up front, remembering what they displace.
	var saved []string
	var oldLocators []string

	saveNew := func(root, field string, p *Payload, target *string) error {
		locator, err := s.artifacts.Save(ctx, root, field, p.FileName, p.Data)
		if err != nil {
			return err
		}
		saved = append(saved, locator)
		if *target != "" {
			oldLocators = append(oldLocators, *target)
		}
		*target = locator
		return nil
	}

	rollback := func() {
		for _, locator := range saved {
			if err := s.artifacts.Delete(ctx, locator); err != nil {
				s.logger.Error("update rollback: failed to delete artifact",
					zap.String("locator", locator), zap.Error(err))
			}
		}
	}

	switch kind {
	case domain.KindPhoto:
		if patch.Image != nil {
			if err := saveNew(storage.RootPhotos, "image", patch.Image, &asset.ImageURL); err != nil {
				return nil, err
			}
		}
	case domain.KindVideo:
		if patch.Thumbnail != nil {
			if err := saveNew(storage.RootThumbnails, "thumbnail", patch.Thumbnail, &asset.ThumbnailURL); err != nil {
				return nil, err
			}
		}
		if patch.Video != nil && asset.VideoType == domain.VideoTypeUpload {
			if err := saveNew(storage.RootVideos, "video", patch.Video, &asset.VideoURL); err != nil {
				rollback()
				return nil, err
			}
		}
	}

	if err := s.assetRepo.Update(ctx, asset); err != nil {
		rollback()
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssetNotFound
		}
		return nil, err
	}

	// The record is durable; dropping the displaced artifacts is best
	// effort. A failure here leaves an orphan file, never a dangling
	// reference, and must stay visible in the logs for reconciliation.
	for _, locator := range oldLocators {
		if err := s.artifacts.Delete(ctx, locator); err != nil {
			s.logger.Warn("failed to delete replaced artifact",
				zap.String("locator", locator), zap.Error(err))
		}
	}

	return asset, nil
}

// Delete removes the record first and the owned artifacts after. Once the
// record is gone the asset is unreachable, so artifact deletion failures are
// logged and swallowed rather than reported to the caller.
func (s *assetService) Delete(ctx context.Context, kind domain.AssetKind, id primitive.ObjectID, callerID primitive.ObjectID, callerRole domain.Role) error {
	asset, err := s.assetRepo.GetByID(ctx, kind, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAssetNotFound
		}
		return err
	}

	if callerRole != domain.RoleAdmin && asset.UploadedBy != callerID {
		return ErrAccessDenied
	}

	if err := s.assetRepo.Delete(ctx, kind, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAssetNotFound
		}
		return err
	}

	for _, locator := range asset.Locators() {
		if err := s.artifacts.Delete(ctx, locator); err != nil {
			s.logger.Warn("failed to delete artifact for removed asset",
				zap.String("locator", locator), zap.String("assetId", id.Hex()), zap.Error(err))
		}
	}
	return nil
}

// Stats returns the aggregate usage statistics for one kind.
func (s *assetService) Stats(ctx context.Context, kind domain.AssetKind) (*repository.AssetStats, error) {
	return s.assetRepo.Stats(ctx, kind)
}

// --- Validation helpers ---

// validateUpload checks every field and payload requirement for the kind and
// builds the unsaved record. Nothing is written before this passes.
func (s *assetService) validateUpload(kind domain.AssetKind, input UploadInput) (*domain.Asset, error) {
	asset := &domain.Asset{
		Kind:        kind,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Views:       0,
	}

	if asset.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidationFailed)
	}
	if len(asset.Title) > domain.MaxTitleLength {
		return nil, fmt.Errorf("%w: title cannot exceed %d characters", ErrValidationFailed, domain.MaxTitleLength)
	}
	if asset.Description == "" {
		return nil, fmt.Errorf("%w: description is required", ErrValidationFailed)
	}
	if len(asset.Description) > domain.MaxDescriptionLength {
		return nil, fmt.Errorf("%w: description cannot exceed %d characters", ErrValidationFailed, domain.MaxDescriptionLength)
	}

	category, err := domain.ParseCategory(input.Category)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	asset.Category = category

	if input.Date != nil {
		asset.Date = *input.Date
	}

	switch kind {
	case domain.KindPhoto:
		if input.Image == nil {
			return nil, fmt.Errorf("%w: please upload an image file", ErrValidationFailed)
		}
		if err := checkPayload(input.Image, PayloadImage, s.limits.MaxPhotoBytes); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}

	case domain.KindVideo:
		videoType, err := domain.ParseVideoType(input.VideoType)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}
		asset.VideoType = videoType

		if videoType == domain.VideoTypeYouTube {
			if strings.TrimSpace(input.VideoID) == "" {
				return nil, fmt.Errorf("%w: YouTube video ID is required for YouTube videos", ErrValidationFailed)
			}
			asset.VideoID = strings.TrimSpace(input.VideoID)
		} else {
			if input.Video == nil {
				return nil, fmt.Errorf("%w: video file is required for uploaded videos", ErrValidationFailed)
			}
			if err := checkPayload(input.Video, PayloadVideo, s.limits.MaxVideoBytes); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
			}
			// Placeholder token; uploaded videos have no external identity.
			asset.VideoID = fmt.Sprintf("uploaded_%d", time.Now().UnixMilli())
		}

		if input.Thumbnail == nil {
			return nil, fmt.Errorf("%w: thumbnail image is required", ErrValidationFailed)
		}
		if err := checkPayload(input.Thumbnail, PayloadImage, s.limits.MaxThumbnailBytes); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}

		if input.Duration < 0 {
			return nil, fmt.Errorf("%w: duration cannot be negative", ErrValidationFailed)
		}
		asset.Duration = input.Duration

	default:
		return nil, fmt.Errorf("%w: invalid asset kind %q", ErrValidationFailed, kind)
	}

	return asset, nil
}

// applyPatch copies the provided scalar fields onto the record. Omitted
// fields are untouched; Featured honors an explicit false.
func applyPatch(asset *domain.Asset, patch UpdateInput) error {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" || len(title) > domain.MaxTitleLength {
			return fmt.Errorf("%w: title must be 1-%d characters", ErrValidationFailed, domain.MaxTitleLength)
		}
		asset.Title = title
	}
	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		if description == "" || len(description) > domain.MaxDescriptionLength {
			return fmt.Errorf("%w: description must be 1-%d characters", ErrValidationFailed, domain.MaxDescriptionLength)
		}
		asset.Description = description
	}
	if patch.Category != nil {
		category, err := domain.ParseCategory(*patch.Category)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}
		asset.Category = category
	}
	if patch.Date != nil {
		asset.Date = *patch.Date
	}
	if patch.Featured != nil {
		asset.Featured = *patch.Featured
	}

	if asset.Kind == domain.KindVideo {
		if patch.VideoType != nil {
			videoType, err := domain.ParseVideoType(*patch.VideoType)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrValidationFailed, err)
			}
			asset.VideoType = videoType
		}
		if patch.VideoID != nil && strings.TrimSpace(*patch.VideoID) != "" {
			asset.VideoID = strings.TrimSpace(*patch.VideoID)
		}
		if patch.Duration != nil {
			if *patch.Duration < 0 {
				return fmt.Errorf("%w: duration cannot be negative", ErrValidationFailed)
			}
			asset.Duration = *patch.Duration
		}
	}
	return nil
}

// checkPatchPayloads validates replacement payloads before anything is
// written.
func (s *assetService) checkPatchPayloads(kind domain.AssetKind, asset *domain.Asset, patch UpdateInput) error {
	switch kind {
	case domain.KindPhoto:
		if patch.Image != nil {
			if err := checkPayload(patch.Image, PayloadImage, s.limits.MaxPhotoBytes); err != nil {
				return fmt.Errorf("%w: %v", ErrValidationFailed, err)
			}
		}
	case domain.KindVideo:
		if patch.Thumbnail != nil {
			if err := checkPayload(patch.Thumbnail, PayloadImage, s.limits.MaxThumbnailBytes); err != nil {
				return fmt.Errorf("%w: %v", ErrValidationFailed, err)
			}
		}
		if patch.Video != nil && asset.VideoType == domain.VideoTypeUpload {
			if err := checkPayload(patch.Video, PayloadVideo, s.limits.MaxVideoBytes); err != nil {
				return fmt.Errorf("%w: %v", ErrValidationFailed, err)
			}
		}
	}
	return nil
}
