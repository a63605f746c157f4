package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=./mocks/service_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"messbook/config"
	"messbook/infras/otel"
	"messbook/infras/s3"
	"messbook/internal/domains/listing/model"
	"messbook/internal/domains/listing/model/dto"
	"messbook/internal/domains/listing/repository"
	"messbook/permissions"
	"messbook/shared"
	"messbook/shared/cache"
	"messbook/shared/constant"
	gDto "messbook/shared/dto"
	"messbook/shared/failure"
	gRepo "messbook/shared/repository"
	"messbook/shared/validator"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	cacheGetListing      = "listing:get"
	cacheGetAllListing   = "listing:gets"
	cacheCountAllListing = "listing:count"
)

const (
	imageDirectory = "listings"
	imageField     = "images"
	maxImages      = 10
	maxImageSizeMB = 5
)

var imageMimetypes = []string{"image/png", "image/jpg", "image/jpeg", "image/webp"}

type Listing interface {
	Create(ctx context.Context, principal permissions.Principal, req dto.CreateListingRequest) (dto.ListingResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter dto.ListingFilter) (dto.GetListingsResponse, error)
	Get(ctx context.Context, id string) (dto.ListingResponse, error)
	Update(ctx context.Context, principal permissions.Principal, id string, req dto.UpdateListingRequest) error
	Delete(ctx context.Context, principal permissions.Principal, id string) error
	UpdateRating(ctx context.Context, id string, req dto.UpdateRatingRequest) error
	UploadImages(ctx context.Context, principal permissions.Principal, id string, files []*multipart.FileHeader) ([]string, error)
}

type serviceImpl struct {
	repo  repository.Listing
	cfg   *config.Config
	cache cache.RedisCache
	s3    s3.S3
	otel  otel.Otel
}

func New(repo repository.Listing, cfg *config.Config, cache cache.RedisCache, s3 s3.S3, otel otel.Otel) Listing {
	return &serviceImpl{
		repo:  repo,
		cfg:   cfg,
		cache: cache,
		s3:    s3,
		otel:  otel,
	}
}

func (s *serviceImpl) Create(ctx context.Context, principal permissions.Principal, req dto.CreateListingRequest) (res dto.ListingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	if !principal.CanCreateListing() {
		return res, failure.ForbiddenError
	}

	listing := req.ToModel(principal.UserID)

	if err = s.repo.Insert(ctx, listing); err != nil {
		log.Error().Err(err).Msg("failed to create listing")

		return res, fmt.Errorf("failed to create listing: %w", err)
	}

	res.FromModel(listing)

	go s.invalidateLists(context.WithoutCancel(ctx))

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter dto.ListingFilter) (res dto.GetListingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	filterGroup := filter.ToFilterGroup()

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllListing, req, filterGroup)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for listings")

		return res, nil
	}

	total, err := s.count(ctx, filterGroup)
	if err != nil {
		return res, err
	}

	models, err := s.repo.GetAll(ctx, req, filterGroup)
	if err != nil {
		log.Error().Err(err).Msg("failed to get listings")

		return res, fmt.Errorf("failed to get listings: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save listings to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) count(ctx context.Context, filter gDto.FilterGroup) (int, error) {
	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountAllListing, gDto.QueryParams{}, filter)

	var total int
	if err := s.cache.Get(ctx, cacheKey, &total); err == nil {
		return total, nil
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count listings")

		return 0, fmt.Errorf("failed to count listings: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, total, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save listing count to cache")
		}
	}()

	return total, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.ListingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetListing, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for listing")

		return res, nil
	}

	listing, err := s.getActive(ctx, id)
	if err != nil {
		return res, err
	}

	res.FromModel(listing)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save listing to cache")
		}
	}()

	return res, nil
}

// getActive loads a listing; a soft-deleted one is reported as not found.
func (s *serviceImpl) getActive(ctx context.Context, id string) (model.Listing, error) {
	listing, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if errors.Is(err, gRepo.ErrNotFound) || (err == nil && !listing.IsActive) {
		return listing, failure.NotFound("listing not found") // nolint:wrapcheck
	}

	if err != nil {
		log.Error().Err(err).Msg("failed to get listing")

		return listing, fmt.Errorf("failed to get listing: %w", err)
	}

	return listing, nil
}

// getManaged loads an active listing the principal is allowed to modify.
func (s *serviceImpl) getManaged(ctx context.Context, principal permissions.Principal, id string) (model.Listing, error) {
	listing, err := s.getActive(ctx, id)
	if err != nil {
		return listing, err
	}

	if !principal.CanManageListing(listing.OwnerID) {
		return listing, failure.ForbiddenError
	}

	return listing, nil
}

func (s *serviceImpl) Update(ctx context.Context, principal permissions.Principal, id string, req dto.UpdateListingRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer scope.TraceIfError(err)

	if _, err = s.getManaged(ctx, principal, id); err != nil {
		return err
	}

	req.Normalize()

	updatedFields := shared.TransformFields(req, principal.UserID)

	if _, err = s.repo.Update(ctx, updatedFields, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to update listing")

		return fmt.Errorf("failed to update listing: %w", err)
	}

	go s.invalidate(context.WithoutCancel(ctx), id)

	return nil
}

func (s *serviceImpl) Delete(ctx context.Context, principal permissions.Principal, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Delete")
	defer scope.End()
	defer scope.TraceIfError(err)

	if _, err = s.getManaged(ctx, principal, id); err != nil {
		return err
	}

	inactive := false
	updatedFields := shared.TransformFields(dto.DeleteListingRequest{IsActive: &inactive}, principal.UserID)

	if _, err = s.repo.Update(ctx, updatedFields, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to delete listing")

		return fmt.Errorf("failed to delete listing: %w", err)
	}

	log.Info().Str("listing_id", id).Str("by", principal.UserID).Msg("listing deactivated")

	go s.invalidate(context.WithoutCancel(ctx), id)

	return nil
}

func (s *serviceImpl) UpdateRating(ctx context.Context, id string, req dto.UpdateRatingRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".UpdateRating")
	defer scope.End()
	defer scope.TraceIfError(err)

	if req.Rating == nil || *req.Rating < 0 || *req.Rating > 5 {
		return failure.BadRequestFromString("rating must be between 0 and 5") // nolint:wrapcheck
	}

	filter := shared.FilterByID(id, model.FieldID, model.TableName)
	filter.Filters = append(filter.Filters, gDto.Filter{Field: model.FieldIsActive, Value: true, Operator: gDto.FilterOperatorEq})

	affected, err := s.repo.Update(ctx, map[string]any{model.FieldRating: *req.Rating}, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to update listing rating")

		return fmt.Errorf("failed to update listing rating: %w", err)
	}

	if affected == 0 {
		return failure.NotFound("listing not found") // nolint:wrapcheck
	}

	go s.invalidate(context.WithoutCancel(ctx), id)

	return nil
}

func (s *serviceImpl) UploadImages(ctx context.Context, principal permissions.Principal, id string, files []*multipart.FileHeader) (images []string, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".UploadImages")
	defer scope.End()
	defer scope.TraceIfError(err)

	if err = validator.ValidateFiles(imageField, files, maxImages, maxImageSizeMB, imageMimetypes...); err != nil {
		return nil, err
	}

	listing, err := s.getManaged(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	if len(listing.Images)+len(files) > maxImages {
		return nil, failure.BadRequestFromString(fmt.Sprintf("a listing can have at most %d images", maxImages)) // nolint:wrapcheck
	}

	directory := imageDirectory + "/" + id
	uploaded := make([]string, 0, len(files))

	for _, file := range files {
		fileName := uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))

		url, err := s.s3.UploadFile(ctx, directory, fileName, file)
		if err != nil {
			log.Error().Err(err).Str("file", file.Filename).Msg("failed to upload listing image")
			s.deleteObjects(context.WithoutCancel(ctx), uploaded)

			return nil, failure.UpstreamFailure("failed to upload listing image", err) // nolint:wrapcheck
		}

		uploaded = append(uploaded, url)
	}

	images = append(append([]string{}, listing.Images...), uploaded...)

	updatedFields := shared.TransformFields(dto.UpdateImagesRequest{Images: images}, principal.UserID)

	if _, err = s.repo.Update(ctx, updatedFields, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to save listing images")
		s.deleteObjects(context.WithoutCancel(ctx), uploaded)

		return nil, fmt.Errorf("failed to save listing images: %w", err)
	}

	go s.invalidate(context.WithoutCancel(ctx), id)

	return images, nil
}

func (s *serviceImpl) deleteObjects(ctx context.Context, urls []string) {
	for _, url := range urls {
		if err := s.s3.DeleteObject(ctx, url); err != nil {
			log.Error().Err(err).Str("url", url).Msg("failed to delete orphaned listing image")
		}
	}
}

func (s *serviceImpl) invalidate(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, shared.BuildCacheKey(cacheGetListing, id)); err != nil {
		log.Error().Err(err).Msg("failed to delete listing from cache")
	}

	s.invalidateLists(ctx)
}

func (s *serviceImpl) invalidateLists(ctx context.Context) {
	shared.InvalidateCaches(ctx, s.cache, cacheGetAllListing)
	shared.InvalidateCaches(ctx, s.cache, cacheCountAllListing)
}
