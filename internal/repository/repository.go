package repository

import (
	"context"
	"time"

	"femiforge/media-api/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// AssetFilter narrows a listing. Nil fields are not applied.
type AssetFilter struct {
	Category  *domain.Category
	VideoType *domain.VideoType // video kind only
	Featured  *bool             // only Featured=true is ever filtered on
}

// Pagination is 1-indexed. Zero values fall back to the defaults.
type Pagination struct {
	Page     int
	PageSize int
}

const (
	DefaultPage     = 1
	DefaultPageSize = 20
)

// Normalize replaces out-of-range values with the defaults.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	return p
}

// CategoryCount is one bucket of the per-category stats breakdown.
type CategoryCount struct {
	Category domain.Category `bson:"_id" json:"category"`
	Count    int64           `bson:"count" json:"count"`
}

// VideoTypeCount is one bucket of the per-videoType stats breakdown.
type VideoTypeCount struct {
	VideoType domain.VideoType `bson:"_id" json:"videoType"`
	Count     int64            `bson:"count" json:"count"`
}

// AssetSummary is the projection used for the recent-uploads stats list.
type AssetSummary struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Title     string             `bson:"title" json:"title"`
	Category  domain.Category    `bson:"category" json:"category"`
	VideoType domain.VideoType   `bson:"videoType,omitempty" json:"videoType,omitempty"`
	Views     int64              `bson:"views" json:"views"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// AssetStats is the aggregate view over all records of one kind.
type AssetStats struct {
	TotalCount    int64            `json:"totalCount"`
	TotalViews    int64            `json:"totalViews"`
	ByCategory    []CategoryCount  `json:"byCategory"`
	ByVideoType   []VideoTypeCount `json:"byVideoType,omitempty"` // video kind only
	RecentUploads []AssetSummary   `json:"recentUploads"`
}

// AssetRepository defines the interface for interacting with asset records.
type AssetRepository interface {
	Create(ctx context.Context, asset *domain.Asset) (primitive.ObjectID, error)
	GetByID(ctx context.Context, kind domain.AssetKind, id primitive.ObjectID) (*domain.Asset, error)
	// Update persists the mutable fields of the asset. UploadedBy, Kind and
	// CreatedAt are never rewritten.
	Update(ctx context.Context, asset *domain.Asset) error
	Delete(ctx context.Context, kind domain.AssetKind, id primitive.ObjectID) error
	// List returns one page ordered by createdAt descending (ties broken by
	// id descending) together with the total match count.
	List(ctx context.Context, kind domain.AssetKind, filter AssetFilter, page Pagination) ([]domain.Asset, int64, error)
	// IncrementViews adds 1 to the view counter as a single atomic update.
	IncrementViews(ctx context.Context, kind domain.AssetKind, id primitive.ObjectID) error
	Stats(ctx context.Context, kind domain.AssetKind) (*AssetStats, error)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	TouchLastLogin(ctx context.Context, id primitive.ObjectID) error
}
