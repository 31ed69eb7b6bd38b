package mongo

import (
	"context"
	"errors"
	"time"

	"femiforge/media-api/internal/domain"
	"femiforge/media-api/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const assetCollectionName = "assets"

// mongoAssetRepository implements repository.AssetRepository. Photos and
// videos share one collection, discriminated by the kind field.
type mongoAssetRepository struct {
	collection *mongo.Collection
}

// NewMongoAssetRepository creates a new Asset repository backed by MongoDB.
func NewMongoAssetRepository(db *mongo.Database) repository.AssetRepository {
	return &mongoAssetRepository{
		collection: db.Collection(assetCollectionName),
	}
}

// Create inserts a new asset record.
func (r *mongoAssetRepository) Create(ctx context.Context, asset *domain.Asset) (primitive.ObjectID, error) {
	if err := asset.Validate(); err != nil {
		return primitive.NilObjectID, err
	}
	if asset.UploadedBy == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("uploadedBy is required")
	}

	asset.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	asset.CreatedAt = now
	asset.UpdatedAt = now
	if asset.Date.IsZero() {
		asset.Date = now
	}

	result, err := r.collection.InsertOne(ctx, asset)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves an asset of the given kind by its ID.
func (r *mongoAssetRepository) GetByID(ctx context.Context, kind domain.AssetKind, id primitive.ObjectID) (*domain.Asset, error) {
	var asset domain.Asset
	filter := bson.M{"_id": id, "kind": kind}

	err := r.collection.FindOne(ctx, filter).Decode(&asset)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &asset, nil
}

// Update rewrites the mutable fields of an existing asset.
// UploadedBy, Kind and CreatedAt are never part of the update document,
// so ownership cannot be reassigned through this path.
func (r *mongoAssetRepository) Update(ctx context.Context, asset *domain.Asset) error {
	if asset.ID == primitive.NilObjectID {
		return errors.New("asset ID is required for update")
	}
	if err := asset.Validate(); err != nil {
		return err
	}

	asset.UpdatedAt = time.Now().UTC()
	set := bson.M{
		"title":       asset.Title,
		"description": asset.Description,
		"category":    asset.Category,
		"date":        asset.Date,
		"featured":    asset.Featured,
		"updatedAt":   asset.UpdatedAt,
	}
	switch asset.Kind {
	case domain.KindPhoto:
		set["imageUrl"] = asset.ImageURL
	case domain.KindVideo:
		set["videoType"] = asset.VideoType
		set["videoId"] = asset.VideoID
		set["videoUrl"] = asset.VideoURL
		set["thumbnailUrl"] = asset.ThumbnailURL
		set["duration"] = asset.Duration
	}

	filter := bson.M{"_id": asset.ID, "kind": asset.Kind}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes an asset record. Ownership is checked by the service layer
// before this is called.
func (r *mongoAssetRepository) Delete(ctx context.Context, kind domain.AssetKind, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "kind": kind})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// List returns one page of assets plus the total match count. Most recent
// first; _id breaks createdAt ties so paging is deterministic.
func (r *mongoAssetRepository) List(ctx context.Context, kind domain.AssetKind, filter repository.AssetFilter, page repository.Pagination) ([]domain.Asset, int64, error) {
	page = page.Normalize()

	query := bson.M{"kind": kind}
	if filter.Category != nil {
		query["category"] = *filter.Category
	}
	if filter.VideoType != nil {
		query["videoType"] = *filter.VideoType
	}
	if filter.Featured != nil && *filter.Featured {
		query["featured"] = true
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	skip := int64(page.Page-1) * int64(page.PageSize)
	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skip).
		SetLimit(int64(page.PageSize))

	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	assets := []domain.Asset{}
	if err = cursor.All(ctx, &assets); err != nil {
		return nil, 0, err
	}
	return assets, total, nil
}

// IncrementViews bumps the view counter by 1 in a single atomic update so
// concurrent reads never lose increments.
func (r *mongoAssetRepository) IncrementViews(ctx context.Context, kind domain.AssetKind, id primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "kind": kind},
		bson.M{
			"$inc": bson.M{"views": 1},
			"$set": bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Stats aggregates the usage statistics for one asset kind.
func (r *mongoAssetRepository) Stats(ctx context.Context, kind domain.AssetKind) (*repository.AssetStats, error) {
	stats := &repository.AssetStats{
		ByCategory:    []repository.CategoryCount{},
		RecentUploads: []repository.AssetSummary{},
	}
	match := bson.M{"kind": kind}

	total, err := r.collection.CountDocuments(ctx, match)
	if err != nil {
		return nil, err
	}
	stats.TotalCount = total

	// Total views across all records of this kind; empty result means 0.
	viewsPipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": nil, "totalViews": bson.M{"$sum": "$views"}}}},
	}
	cursor, err := r.collection.Aggregate(ctx, viewsPipeline)
	if err != nil {
		return nil, err
	}
	var viewsResult []struct {
		TotalViews int64 `bson:"totalViews"`
	}
	if err = cursor.All(ctx, &viewsResult); err != nil {
		return nil, err
	}
	if len(viewsResult) > 0 {
		stats.TotalViews = viewsResult[0].TotalViews
	}

	categoryPipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
	}
	cursor, err = r.collection.Aggregate(ctx, categoryPipeline)
	if err != nil {
		return nil, err
	}
	if err = cursor.All(ctx, &stats.ByCategory); err != nil {
		return nil, err
	}

	if kind == domain.KindVideo {
		typePipeline := mongo.Pipeline{
			{{Key: "$match", Value: match}},
			{{Key: "$group", Value: bson.M{"_id": "$videoType", "count": bson.M{"$sum": 1}}}},
		}
		cursor, err = r.collection.Aggregate(ctx, typePipeline)
		if err != nil {
			return nil, err
		}
		if err = cursor.All(ctx, &stats.ByVideoType); err != nil {
			return nil, err
		}
	}

	recentOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(5).
		SetProjection(bson.M{"title": 1, "category": 1, "videoType": 1, "views": 1, "createdAt": 1})
	cursor, err = r.collection.Find(ctx, match, recentOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	if err = cursor.All(ctx, &stats.RecentUploads); err != nil {
		return nil, err
	}

	return stats, nil
}

// EnsureAssetIndexes creates the indexes backing listing and stats queries.
func EnsureAssetIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "kind", Value: 1}, {Key: "createdAt", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "kind", Value: 1}, {Key: "category", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "kind", Value: 1}, {Key: "featured", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
