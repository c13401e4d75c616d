package repository

import (
	"context"
	"errors"

	"github.com/hsawaji/flema-backend/internal/model"
	"gorm.io/gorm"
)

var ErrDBNotReady = errors.New("database not initialized")

type ListingRepository interface {
	Create(ctx context.Context, listing *model.Listing, imageURLs []string) error
	FindByID(ctx context.Context, id uint64) (*model.Listing, error)
	List(ctx context.Context, limit, offset int, categoryID uint64) ([]model.Listing, int64, error)
	ListBySeller(ctx context.Context, sellerUID string) ([]model.Listing, error)
	Update(ctx context.Context, listing *model.Listing, imageURLs []string) error
	ListImages(ctx context.Context, listingID uint64) ([]model.ListingImage, error)
	SetDB(db *gorm.DB)
}

type listingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) SetDB(db *gorm.DB) {
	r.db = db
}

func (r *listingRepository) Create(ctx context.Context, listing *model.Listing, imageURLs []string) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(listing).Error; err != nil {
			return err
		}
		return insertImages(tx, listing.ID, imageURLs)
	})
}

func (r *listingRepository) FindByID(ctx context.Context, id uint64) (*model.Listing, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var listing model.Listing
	if err := r.db.WithContext(ctx).First(&listing, id).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *listingRepository) List(ctx context.Context, limit, offset int, categoryID uint64) ([]model.Listing, int64, error) {
	if r.db == nil {
		return nil, 0, ErrDBNotReady
	}
	var (
		listings []model.Listing
		total    int64
	)
	q := r.db.WithContext(ctx).Model(&model.Listing{})
	if categoryID != 0 {
		q = q.Where("category_id = ?", categoryID)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&listings).Error; err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

func (r *listingRepository) ListBySeller(ctx context.Context, sellerUID string) ([]model.Listing, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var listings []model.Listing
	if err := r.db.WithContext(ctx).
		Where("seller_uid = ?", sellerUID).
		Order("created_at desc").
		Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

// Update rewrites the listing row and replaces its image set wholesale.
func (r *listingRepository) Update(ctx context.Context, listing *model.Listing, imageURLs []string) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(listing).Error; err != nil {
			return err
		}
		if err := tx.Where("listing_id = ?", listing.ID).Delete(&model.ListingImage{}).Error; err != nil {
			return err
		}
		return insertImages(tx, listing.ID, imageURLs)
	})
}

func (r *listingRepository) ListImages(ctx context.Context, listingID uint64) ([]model.ListingImage, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var images []model.ListingImage
	if err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("position ASC").
		Find(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

func insertImages(tx *gorm.DB, listingID uint64, imageURLs []string) error {
	for i, u := range imageURLs {
		img := model.ListingImage{ListingID: listingID, ImageURL: u, Position: i}
		if err := tx.Create(&img).Error; err != nil {
			return err
		}
	}
	return nil
}
