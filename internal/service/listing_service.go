package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hsawaji/flema-backend/internal/model"
	"github.com/hsawaji/flema-backend/internal/repository"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("not found")

type ListingWithImages struct {
	Listing model.Listing
	Images  []model.ListingImage
}

type ListingService interface {
	Create(ctx context.Context, sellerUID, title, description string, price uint, condition model.ListingCondition, categoryID uint64, imageURLs []string) (*model.Listing, error)
	Get(ctx context.Context, id uint64) (*ListingWithImages, error)
	List(ctx context.Context, limit, offset int, categoryID uint64) ([]model.Listing, int64, error)
	ListBySeller(ctx context.Context, sellerUID string) ([]model.Listing, error)
	Update(ctx context.Context, id uint64, sellerUID, title, description string, price uint, condition model.ListingCondition, categoryID uint64, imageURLs []string) (*model.Listing, error)
}

type listingService struct {
	repo repository.ListingRepository
}

func NewListingService(repo repository.ListingRepository) ListingService {
	return &listingService{repo: repo}
}

func validateListingFields(title, description string, condition model.ListingCondition) error {
	if title == "" || len(title) > 120 {
		return fmt.Errorf("%w: invalid title", ErrValidation)
	}
	if description == "" {
		return fmt.Errorf("%w: invalid description", ErrValidation)
	}
	if !condition.Valid() {
		return fmt.Errorf("%w: unknown condition %q", ErrValidation, condition)
	}
	return nil
}

func (s *listingService) Create(ctx context.Context, sellerUID, title, description string, price uint, condition model.ListingCondition, categoryID uint64, imageURLs []string) (*model.Listing, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if sellerUID == "" {
		return nil, fmt.Errorf("%w: seller is required", ErrValidation)
	}
	if err := validateListingFields(title, description, condition); err != nil {
		return nil, err
	}
	for _, u := range imageURLs {
		if strings.HasPrefix(strings.TrimSpace(u), "data:") {
			return nil, fmt.Errorf("%w: imageUrls must be URLs, not data URIs", ErrValidation)
		}
	}

	listing := &model.Listing{
		SellerUID:   sellerUID,
		Title:       title,
		Description: description,
		Price:       price,
		Condition:   condition,
		CategoryID:  categoryID,
	}
	if err := s.repo.Create(ctx, listing, imageURLs); err != nil {
		return nil, err
	}
	return listing, nil
}

func (s *listingService) Get(ctx context.Context, id uint64) (*ListingWithImages, error) {
	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	images, err := s.repo.ListImages(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ListingWithImages{Listing: *listing, Images: images}, nil
}

func (s *listingService) List(ctx context.Context, limit, offset int, categoryID uint64) ([]model.Listing, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset, categoryID)
}

func (s *listingService) ListBySeller(ctx context.Context, sellerUID string) ([]model.Listing, error) {
	return s.repo.ListBySeller(ctx, sellerUID)
}

func (s *listingService) Update(ctx context.Context, id uint64, sellerUID, title, description string, price uint, condition model.ListingCondition, categoryID uint64, imageURLs []string) (*model.Listing, error) {
	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if listing.SellerUID != sellerUID {
		return nil, ErrForbidden
	}
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if err := validateListingFields(title, description, condition); err != nil {
		return nil, err
	}

	listing.Title = title
	listing.Description = description
	listing.Price = price
	listing.Condition = condition
	listing.CategoryID = categoryID
	if err := s.repo.Update(ctx, listing, imageURLs); err != nil {
		return nil, err
	}
	return listing, nil
}
