// internal/service/ad/ad_service.go
package ad

import (
	"context"
	"errors"
	"fmt"
	"time"

	"motormart-service/internal/domain/ad"
	"motormart-service/internal/domain/auth"
	"motormart-service/internal/domain/notification"
	"motormart-service/internal/domain/pricing"
	xerrors "motormart-service/internal/pkg/errors"
	"motormart-service/internal/pkg/storage"

	"go.uber.org/zap"
)

// QuotaError carries the entitlement snapshot that refused a posting.
type QuotaError struct {
	Entitlement *pricing.Entitlement
}

func (e *QuotaError) Error() string {
	return "ad posting quota exhausted"
}

func (e *QuotaError) Unwrap() error {
	return xerrors.ErrQuotaExceeded
}

type EntitlementChecker interface {
	CanPost(ctx context.Context, userID, vehicleTypeID int64) (bool, *pricing.Entitlement, error)
}

type Classifier interface {
	ValidateClassification(ctx context.Context, typeID int64, brandID, modelID *int64) error
	ValidateAttributeValues(ctx context.Context, typeID int64, values map[int64]string) error
}

type ObjectStore interface {
	PresignPut(ctx context.Context, key, contentType string) (*storage.PresignedUpload, error)
	Delete(ctx context.Context, key string) error
}

type Notifier interface {
	Notify(ctx context.Context, userID int64, typ notification.NotificationType, title, message string, metadata map[string]interface{})
}

type UserReader interface {
	FindByID(ctx context.Context, id int64) (*auth.User, error)
}

type Config struct {
	LifetimeDays    int
	RequireApproval bool
	Currency        string
}

type AdService struct {
	repo         ad.Repository
	users        UserReader
	entitlements EntitlementChecker
	classifier   Classifier
	objects      ObjectStore
	notifier     Notifier
	cfg          Config
	logger       *zap.Logger
	now          func() time.Time
}

func NewAdService(
	repo ad.Repository,
	users UserReader,
	entitlements EntitlementChecker,
	classifier Classifier,
	objects ObjectStore,
	notifier Notifier,
	cfg Config,
	logger *zap.Logger,
) *AdService {
	if cfg.LifetimeDays <= 0 {
		cfg.LifetimeDays = 30
	}
	if cfg.Currency == "" {
		cfg.Currency = "LKR"
	}
	return &AdService{
		repo:         repo,
		users:        users,
		entitlements: entitlements,
		classifier:   classifier,
		objects:      objects,
		notifier:     notifier,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *AdService) expiryFrom(t time.Time) time.Time {
	return t.AddDate(0, 0, s.cfg.LifetimeDays)
}

// ========== Posting ==========

// Create posts a new ad after checking the account, the classification and the
// poster's quota. The ad and its usage ledger row are written together.
func (s *AdService) Create(ctx context.Context, userID int64, req *ad.CreateAdRequest) (*ad.AdInfo, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Status != auth.StatusActive {
		return nil, fmt.Errorf("%w: account is not active", xerrors.ErrForbidden)
	}

	if !req.Price.IsPositive() {
		return nil, xerrors.Invalid("price must be greater than zero")
	}
	if err := s.classifier.ValidateClassification(ctx, req.VehicleTypeID, req.BrandID, req.ModelID); err != nil {
		return nil, err
	}
	values, err := attributeValues(req.Attributes)
	if err != nil {
		return nil, err
	}
	if err := s.classifier.ValidateAttributeValues(ctx, req.VehicleTypeID, values); err != nil {
		return nil, err
	}

	allowed, ent, err := s.entitlements.CanPost(ctx, userID, req.VehicleTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to check entitlement: %w", err)
	}
	if !allowed {
		return nil, &QuotaError{Entitlement: ent}
	}

	now := s.now()
	currency := req.Currency
	if currency == "" {
		currency = s.cfg.Currency
	}

	a := &ad.CarAd{
		UserID:        userID,
		VehicleTypeID: req.VehicleTypeID,
		BrandID:       req.BrandID,
		ModelID:       req.ModelID,
		Title:         req.Title,
		Description:   req.Description,
		Price:         req.Price.Round(2),
		Currency:      currency,
		Location:      req.Location,
		ContactPhone:  req.ContactPhone,
		IsNegotiable:  req.IsNegotiable,
		Status:        ad.StatusActive,
		ExpiryDate:    s.expiryFrom(now),
	}
	if s.cfg.RequireApproval {
		a.Status = ad.StatusPending
	} else {
		a.PublishedAt = &now
	}

	usage := &ad.UsageEntry{
		UserID:        userID,
		VehicleTypeID: req.VehicleTypeID,
		Reason:        ad.UsagePost,
	}
	if ent != nil && ent.Subscription != nil {
		usage.SubscriptionID = &ent.Subscription.ID
	}

	bundle := &ad.Bundle{
		Ad:         a,
		Details:    detailsFrom(&req.Details),
		Images:     buildImages(req.Images),
		Attributes: attributeRows(req.Attributes),
	}
	if err := s.repo.CreateWithUsage(ctx, bundle, usage); err != nil {
		return nil, fmt.Errorf("failed to create ad: %w", err)
	}

	s.logger.Info("ad created",
		zap.Int64("ad_id", a.ID),
		zap.Int64("user_id", userID),
		zap.Int64("vehicle_type_id", a.VehicleTypeID),
		zap.String("status", string(a.Status)),
	)

	return s.repo.FindByID(ctx, a.ID)
}

// Update edits an owner's ad. Images and attributes are replaced only when sent.
// A rejected ad goes back to review once edited.
func (s *AdService) Update(ctx context.Context, userID, id int64, req *ad.UpdateAdRequest) (*ad.AdInfo, error) {
	info, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if info.Status == ad.StatusSold {
		return nil, fmt.Errorf("%w: sold ads cannot be edited", xerrors.ErrConflict)
	}

	a := info.CarAd
	if req.BrandID != nil || req.ModelID != nil {
		if req.BrandID != nil {
			a.BrandID = req.BrandID
		}
		if req.ModelID != nil {
			a.ModelID = req.ModelID
		}
		if err := s.classifier.ValidateClassification(ctx, a.VehicleTypeID, a.BrandID, a.ModelID); err != nil {
			return nil, err
		}
	}
	if req.Title != nil {
		a.Title = *req.Title
	}
	if req.Description != nil {
		a.Description = *req.Description
	}
	if req.Price != nil {
		if !req.Price.IsPositive() {
			return nil, xerrors.Invalid("price must be greater than zero")
		}
		a.Price = req.Price.Round(2)
	}
	if req.Location != nil {
		a.Location = *req.Location
	}
	if req.ContactPhone != nil {
		a.ContactPhone = req.ContactPhone
	}
	if req.IsNegotiable != nil {
		a.IsNegotiable = *req.IsNegotiable
	}

	bundle := &ad.Bundle{Ad: &a}
	if req.Details != nil {
		bundle.Details = detailsFrom(req.Details)
	}

	replaceAttrs := req.Attributes != nil
	if replaceAttrs {
		values, err := attributeValues(req.Attributes)
		if err != nil {
			return nil, err
		}
		if err := s.classifier.ValidateAttributeValues(ctx, a.VehicleTypeID, values); err != nil {
			return nil, err
		}
		bundle.Attributes = attributeRows(req.Attributes)
	}

	replaceImgs := req.Images != nil
	var dropped []string
	if replaceImgs {
		bundle.Images = buildImages(req.Images)
		dropped = droppedKeys(info.Images, bundle.Images)
	}

	if err := s.repo.Update(ctx, bundle, replaceImgs, replaceAttrs); err != nil {
		return nil, fmt.Errorf("failed to update ad: %w", err)
	}

	if info.Status == ad.StatusRejected {
		if err := s.repo.UpdateStatus(ctx, id, ad.StatusPending, nil); err != nil {
			return nil, fmt.Errorf("failed to resubmit ad: %w", err)
		}
	}

	s.deleteObjects(ctx, dropped)
	return s.repo.FindByID(ctx, id)
}

// MarkSold closes an active ad.
func (s *AdService) MarkSold(ctx context.Context, userID, id int64) error {
	info, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if info.Status != ad.StatusActive {
		return fmt.Errorf("%w: only active ads can be marked sold", xerrors.ErrConflict)
	}
	if err := s.repo.UpdateStatus(ctx, id, ad.StatusSold, nil); err != nil {
		return fmt.Errorf("failed to mark ad sold: %w", err)
	}
	s.logger.Info("ad marked sold", zap.Int64("ad_id", id), zap.Int64("user_id", userID))
	return nil
}

// Renew reactivates an expired ad; it consumes quota like a new posting.
func (s *AdService) Renew(ctx context.Context, userID, id int64) (*ad.AdInfo, error) {
	info, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if info.Status != ad.StatusExpired {
		return nil, fmt.Errorf("%w: only expired ads can be renewed", xerrors.ErrConflict)
	}

	allowed, ent, err := s.entitlements.CanPost(ctx, userID, info.VehicleTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to check entitlement: %w", err)
	}
	if !allowed {
		return nil, &QuotaError{Entitlement: ent}
	}

	usage := &ad.UsageEntry{
		UserID:        userID,
		VehicleTypeID: info.VehicleTypeID,
		Reason:        ad.UsageRenew,
	}
	if ent != nil && ent.Subscription != nil {
		usage.SubscriptionID = &ent.Subscription.ID
	}

	if err := s.repo.Renew(ctx, id, s.expiryFrom(s.now()), usage); err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: ad is no longer expired", xerrors.ErrConflict)
		}
		return nil, fmt.Errorf("failed to renew ad: %w", err)
	}

	s.logger.Info("ad renewed", zap.Int64("ad_id", id), zap.Int64("user_id", userID))
	return s.repo.FindByID(ctx, id)
}

// Delete soft-deletes an ad. Stored images are removed best-effort.
func (s *AdService) Delete(ctx context.Context, userID, id int64, isAdmin bool) error {
	info, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if info.Status == ad.StatusDeleted {
		return xerrors.ErrNotFound
	}
	if info.UserID != userID && !isAdmin {
		return xerrors.ErrForbidden
	}

	if err := s.repo.UpdateStatus(ctx, id, ad.StatusDeleted, nil); err != nil {
		return fmt.Errorf("failed to delete ad: %w", err)
	}

	s.deleteObjects(ctx, droppedKeys(info.Images, nil))
	s.logger.Info("ad deleted", zap.Int64("ad_id", id), zap.Int64("by", userID))
	return nil
}

// PresignImageUpload hands out a direct upload URL for one ad image.
func (s *AdService) PresignImageUpload(ctx context.Context, userID int64, req *ad.PresignRequest) (*storage.PresignedUpload, error) {
	key, err := storage.ImageKey(userID, req.ContentType)
	if err != nil {
		return nil, xerrors.Invalid("%s", err.Error())
	}

	upload, err := s.objects.PresignPut(ctx, key, req.ContentType)
	if err != nil {
		if errors.Is(err, storage.ErrDisabled) {
			return nil, fmt.Errorf("%w: image uploads are not configured", xerrors.ErrFeatureUnavailable)
		}
		return nil, err
	}
	return upload, nil
}

// ========== Reads ==========

// Get returns an ad. Non-active ads are only visible to the owner and admins;
// views by anyone else on an active ad are counted.
func (s *AdService) Get(ctx context.Context, id, viewerID int64, isAdmin bool) (*ad.AdInfo, error) {
	info, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	isOwner := viewerID != 0 && viewerID == info.UserID
	if info.Status == ad.StatusDeleted && !isAdmin {
		return nil, xerrors.ErrNotFound
	}
	if info.Status != ad.StatusActive && !isOwner && !isAdmin {
		return nil, xerrors.ErrNotFound
	}

	if info.Status == ad.StatusActive && !isOwner {
		if err := s.repo.IncrementViews(ctx, id); err != nil {
			s.logger.Warn("failed to count ad view", zap.Int64("ad_id", id), zap.Error(err))
		} else {
			info.ViewCount++
		}
	}
	return info, nil
}

// List is the public search over active ads.
func (s *AdService) List(ctx context.Context, filters *ad.ListFilters) (*ad.AdListResponse, error) {
	filters.UserID = nil
	filters.Status = nil
	return s.list(ctx, filters, true)
}

func (s *AdService) ListMine(ctx context.Context, userID int64, filters *ad.ListFilters) (*ad.AdListResponse, error) {
	filters.UserID = &userID
	return s.list(ctx, filters, false)
}

// ListAll is the admin listing across every status.
func (s *AdService) ListAll(ctx context.Context, filters *ad.ListFilters) (*ad.AdListResponse, error) {
	return s.list(ctx, filters, false)
}

func (s *AdService) list(ctx context.Context, filters *ad.ListFilters, activeOnly bool) (*ad.AdListResponse, error) {
	filters.Normalize()

	ads, total, err := s.repo.List(ctx, filters, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list ads: %w", err)
	}

	totalPages := int(total) / filters.PageSize
	if int(total)%filters.PageSize > 0 {
		totalPages++
	}

	return &ad.AdListResponse{
		Ads:        ads,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: totalPages,
	}, nil
}

// Featured returns active ads with a running boost.
func (s *AdService) Featured(ctx context.Context, limit int) ([]ad.AdInfo, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.repo.ListFeatured(ctx, limit)
}

// ========== Moderation ==========

func (s *AdService) Approve(ctx context.Context, adminID, id int64) error {
	info, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if info.Status != ad.StatusPending && info.Status != ad.StatusRejected {
		return fmt.Errorf("%w: ad is %s", xerrors.ErrConflict, info.Status)
	}

	if err := s.repo.UpdateStatus(ctx, id, ad.StatusActive, nil); err != nil {
		return fmt.Errorf("failed to approve ad: %w", err)
	}

	s.logger.Info("ad approved", zap.Int64("ad_id", id), zap.Int64("admin_id", adminID))
	s.notifier.Notify(ctx, info.UserID, notification.TypeAd,
		"Ad approved",
		fmt.Sprintf("Your ad %q is now live.", info.Title),
		map[string]interface{}{"ad_id": id, "status": ad.StatusActive})
	return nil
}

func (s *AdService) Reject(ctx context.Context, adminID, id int64, reason string) error {
	info, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if info.Status != ad.StatusPending && info.Status != ad.StatusActive {
		return fmt.Errorf("%w: ad is %s", xerrors.ErrConflict, info.Status)
	}

	if err := s.repo.UpdateStatus(ctx, id, ad.StatusRejected, &reason); err != nil {
		return fmt.Errorf("failed to reject ad: %w", err)
	}

	s.logger.Info("ad rejected",
		zap.Int64("ad_id", id),
		zap.Int64("admin_id", adminID),
		zap.String("reason", reason))
	s.notifier.Notify(ctx, info.UserID, notification.TypeModeration,
		"Ad rejected",
		fmt.Sprintf("Your ad %q was rejected: %s", info.Title, reason),
		map[string]interface{}{"ad_id": id, "status": ad.StatusRejected})
	return nil
}

// ========== Helpers ==========

func (s *AdService) owned(ctx context.Context, userID, id int64) (*ad.AdInfo, error) {
	info, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if info.Status == ad.StatusDeleted {
		return nil, xerrors.ErrNotFound
	}
	if info.UserID != userID {
		return nil, fmt.Errorf("%w: not the owner of this ad", xerrors.ErrForbidden)
	}
	return info, nil
}

func (s *AdService) deleteObjects(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.objects.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrDisabled) {
			s.logger.Warn("failed to delete ad image", zap.String("key", key), zap.Error(err))
		}
	}
}

// buildImages keeps input order and guarantees exactly one primary image.
func buildImages(inputs []ad.ImageInput) []ad.AdImage {
	images := make([]ad.AdImage, 0, len(inputs))
	primary := -1
	for i, in := range inputs {
		if in.IsPrimary && primary < 0 {
			primary = i
		}
		images = append(images, ad.AdImage{
			URL:       in.URL,
			ObjectKey: in.ObjectKey,
			SortOrder: i,
		})
	}
	if len(images) > 0 {
		if primary < 0 {
			primary = 0
		}
		images[primary].IsPrimary = true
	}
	return images
}

// droppedKeys lists object keys present in before but absent from after.
func droppedKeys(before []ad.AdImage, after []ad.AdImage) []string {
	kept := make(map[string]bool, len(after))
	for _, img := range after {
		if img.ObjectKey != nil {
			kept[*img.ObjectKey] = true
		}
	}
	var out []string
	for _, img := range before {
		if img.ObjectKey != nil && *img.ObjectKey != "" && !kept[*img.ObjectKey] {
			out = append(out, *img.ObjectKey)
		}
	}
	return out
}

func attributeValues(inputs []ad.AttributeInput) (map[int64]string, error) {
	values := make(map[int64]string, len(inputs))
	for _, in := range inputs {
		if _, dup := values[in.AttributeID]; dup {
			return nil, xerrors.Invalid("attribute %d given more than once", in.AttributeID)
		}
		values[in.AttributeID] = in.Value
	}
	return values, nil
}

func attributeRows(inputs []ad.AttributeInput) []ad.AdAttributeValue {
	rows := make([]ad.AdAttributeValue, 0, len(inputs))
	for _, in := range inputs {
		rows = append(rows, ad.AdAttributeValue{AttributeID: in.AttributeID, Value: in.Value})
	}
	return rows
}

func detailsFrom(in *ad.DetailsInput) *ad.CarDetails {
	return &ad.CarDetails{
		Year:           in.Year,
		Mileage:        in.Mileage,
		FuelType:       in.FuelType,
		Transmission:   in.Transmission,
		BodyType:       in.BodyType,
		Color:          in.Color,
		EngineCapacity: in.EngineCapacity,
		Condition:      in.Condition,
	}
}
