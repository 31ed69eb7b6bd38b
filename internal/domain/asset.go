package domain

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssetKind distinguishes the two catalog entry types.
type AssetKind string

const (
	KindPhoto AssetKind = "photo"
	KindVideo AssetKind = "video"
)

// Category is the closed set of catalog categories.
type Category string

const (
	CategoryWorkshops Category = "workshops"
	CategoryEvents    Category = "events"
	CategoryCommunity Category = "community"
	CategorySuccess   Category = "success"
	CategoryTraining  Category = "training"
)

// Categories lists every valid category.
var Categories = []Category{
	CategoryWorkshops,
	CategoryEvents,
	CategoryCommunity,
	CategorySuccess,
	CategoryTraining,
}

// ParseCategory normalizes the input to lowercase and checks it against
// the closed category set.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("invalid category %q", s)
}

// VideoType distinguishes externally hosted videos from uploaded files.
type VideoType string

const (
	VideoTypeYouTube VideoType = "youtube"
	VideoTypeUpload  VideoType = "upload"
)

// ParseVideoType validates a video type string.
func ParseVideoType(s string) (VideoType, error) {
	t := VideoType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case VideoTypeYouTube, VideoTypeUpload:
		return t, nil
	}
	return "", fmt.Errorf("invalid video type %q", s)
}

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
)

// Asset is the durable record for one catalog entry, photo or video.
// Kind-specific fields are omitempty so photos carry no video fields and
// vice versa.
type Asset struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Kind        AssetKind          `bson:"kind" json:"kind"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Category    Category           `bson:"category" json:"category"`
	Date        time.Time          `bson:"date" json:"date"`
	UploadedBy  primitive.ObjectID `bson:"uploadedBy" json:"uploadedBy"`
	Views       int64              `bson:"views" json:"views"`
	Featured    bool               `bson:"featured" json:"featured"`

	// Photo only.
	ImageURL string `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`

	// Video only.
	VideoType    VideoType `bson:"videoType,omitempty" json:"videoType,omitempty"`
	VideoID      string    `bson:"videoId,omitempty" json:"videoId,omitempty"`
	VideoURL     string    `bson:"videoUrl,omitempty" json:"videoUrl,omitempty"`
	ThumbnailURL string    `bson:"thumbnailUrl,omitempty" json:"thumbnailUrl,omitempty"`
	Duration     int       `bson:"duration,omitempty" json:"duration,omitempty"` // seconds

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// EmbedURL returns the public embed reference for YouTube-hosted videos.
// It is derived on read and never stored.
func (a *Asset) EmbedURL() string {
	if a.Kind == KindVideo && a.VideoType == VideoTypeYouTube && a.VideoID != "" {
		return "https://www.youtube.com/embed/" + a.VideoID
	}
	return ""
}

// Locators returns every artifact locator owned by this record, in the
// order they should be cleaned up on delete.
func (a *Asset) Locators() []string {
	var locs []string
	if a.ImageURL != "" {
		locs = append(locs, a.ImageURL)
	}
	if a.ThumbnailURL != "" {
		locs = append(locs, a.ThumbnailURL)
	}
	if a.VideoType == VideoTypeUpload && a.VideoURL != "" {
		locs = append(locs, a.VideoURL)
	}
	return locs
}

// Validate checks the record against the kind-specific required field set.
func (a *Asset) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if len(a.Title) > MaxTitleLength {
		return fmt.Errorf("title cannot exceed %d characters", MaxTitleLength)
	}
	if strings.TrimSpace(a.Description) == "" {
		return fmt.Errorf("description is required")
	}
	if len(a.Description) > MaxDescriptionLength {
		return fmt.Errorf("description cannot exceed %d characters", MaxDescriptionLength)
	}
	if _, err := ParseCategory(string(a.Category)); err != nil {
		return err
	}
	if a.Views < 0 {
		return fmt.Errorf("views cannot be negative")
	}
	switch a.Kind {
	case KindPhoto:
		if a.ImageURL == "" {
			return fmt.Errorf("image is required")
		}
	case KindVideo:
		if _, err := ParseVideoType(string(a.VideoType)); err != nil {
			return err
		}
		if a.VideoID == "" {
			return fmt.Errorf("video ID is required")
		}
		if a.ThumbnailURL == "" {
			return fmt.Errorf("thumbnail is required")
		}
		if a.VideoType == VideoTypeUpload && a.VideoURL == "" {
			return fmt.Errorf("video file is required for uploaded videos")
		}
		if a.Duration < 0 {
			return fmt.Errorf("duration cannot be negative")
		}
	default:
		return fmt.Errorf("invalid asset kind %q", a.Kind)
	}
	return nil
}
