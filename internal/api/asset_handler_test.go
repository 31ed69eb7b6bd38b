package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"femiforge/media-api/internal/domain"
	"femiforge/media-api/internal/repository"
	"femiforge/media-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testJWTSecret = "handler-test-secret"

// --- Mock services ---

type mockAssetService struct {
	mock.Mock
}

func (m *mockAssetService) List(ctx context.Context, kind domain.AssetKind, filter repository.AssetFilter, page repository.Pagination) (*service.AssetPage, error) {
	args := m.Called(ctx, kind, filter, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AssetPage), args.Error(1)
}

func (m *mockAssetService) Get(ctx context.Context, kind domain.AssetKind, id primitive.ObjectID) (*domain.Asset, error) {
	args := m.Called(ctx, kind, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Asset), args.Error(1)
}

func (m *mockAssetService) Upload(ctx context.Context, kind domain.AssetKind, input service.UploadInput, callerID primitive.ObjectID) (*domain.Asset, error) {
	args := m.Called(ctx, kind, input, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Asset), args.Error(1)
}

func (m *mockAssetService) Update(ctx context.Context, kind domain.AssetKind, id primitive.ObjectID, callerID primitive.ObjectID, callerRole domain.Role, patch service.UpdateInput) (*domain.Asset, error) {
	args := m.Called(ctx, kind, id, callerID, callerRole, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Asset), args.Error(1)
}

func (m *mockAssetService) Delete(ctx context.Context, kind domain.AssetKind, id primitive.ObjectID, callerID primitive.ObjectID, callerRole domain.Role) error {
	args := m.Called(ctx, kind, id, callerID, callerRole)
	return args.Error(0)
}

func (m *mockAssetService) RecordView(ctx context.Context, kind domain.AssetKind, id primitive.ObjectID) error {
	args := m.Called(ctx, kind, id)
	return args.Error(0)
}

func (m *mockAssetService) Stats(ctx context.Context, kind domain.AssetKind) (*repository.AssetStats, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.AssetStats), args.Error(1)
}

type mockAuthService struct {
	mock.Mock
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*domain.User), args.Error(2)
}

func (m *mockAuthService) GetUserByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockAuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	args := m.Called(ctx, email, password)
	return args.Error(0)
}

// --- Helpers ---

func newTestRouter(t *testing.T, assetSvc service.AssetService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupRoutes(router, testJWTSecret, new(mockAuthService), assetSvc, t.TempDir())
	return router
}

func signToken(t *testing.T, userID primitive.ObjectID, role domain.Role) string {
	t.Helper()
	claims := &jwtClaims{
		UserID: userID.Hex(),
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.Hex(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

func doRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func samplePhoto() *domain.Asset {
	return &domain.Asset{
		ID:          primitive.NewObjectID(),
		Kind:        domain.KindPhoto,
		Title:       "Spring workshop",
		Description: "d",
		Category:    domain.CategoryWorkshops,
		UploadedBy:  primitive.NewObjectID(),
		ImageURL:    "photos/image-1-aa.jpg",
		CreatedAt:   time.Now().UTC(),
	}
}

// --- Tests ---

func TestListPhotosEnvelope(t *testing.T) {
	svc := new(mockAssetService)
	router := newTestRouter(t, svc)

	items := []domain.Asset{*samplePhoto(), *samplePhoto()}
	svc.On("List", mock.Anything, domain.KindPhoto, repository.AssetFilter{}, repository.Pagination{Page: 1, PageSize: 2}).
		Return(&service.AssetPage{Items: items, Total: 5, Page: 1, PageSize: 2}, nil)

	w := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/photos?page=1&limit=2", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success     bool            `json:"success"`
		Count       int             `json:"count"`
		Total       int64           `json:"total"`
		Pages       int64           `json:"pages"`
		CurrentPage int             `json:"currentPage"`
		Data        json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 2, body.Count)
	assert.EqualValues(t, 5, body.Total)
	assert.EqualValues(t, 3, body.Pages)
	assert.Equal(t, 1, body.CurrentPage)
}

func TestListRejectsBadCategory(t *testing.T) {
	router := newTestRouter(t, new(mockAssetService))
	w := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/photos?category=sports", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetInvalidIDIsBadRequest(t *testing.T) {
	router := newTestRouter(t, new(mockAssetService))
	w := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/photos/not-an-id", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetNotFound(t *testing.T) {
	svc := new(mockAssetService)
	router := newTestRouter(t, svc)
	id := primitive.NewObjectID()

	svc.On("Get", mock.Anything, domain.KindPhoto, id).Return(nil, service.ErrAssetNotFound)

	w := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/photos/"+id.Hex(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetYouTubeVideoIncludesEmbedURL(t *testing.T) {
	svc := new(mockAssetService)
	router := newTestRouter(t, svc)

	video := &domain.Asset{
		ID:           primitive.NewObjectID(),
		Kind:         domain.KindVideo,
		Title:        "Talk",
		Description:  "d",
		Category:     domain.CategoryTraining,
		UploadedBy:   primitive.NewObjectID(),
		VideoType:    domain.VideoTypeYouTube,
		VideoID:      "abc123",
		ThumbnailURL: "thumbnails/thumbnail-1-aa.png",
	}
	svc.On("Get", mock.Anything, domain.KindVideo, video.ID).Return(video, nil)

	w := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/videos/"+video.ID.Hex(), nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			EmbedURL string `json:"embedUrl"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "https://www.youtube.com/embed/abc123", body.Data.EmbedURL)
}

func TestUploadRequiresAuthentication(t *testing.T) {
	router := newTestRouter(t, new(mockAssetService))
	w := doRequest(router, httptest.NewRequest(http.MethodPost, "/api/v1/photos", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUploadRejectsViewerRole(t *testing.T) {
	router := newTestRouter(t, new(mockAssetService))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/photos", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, primitive.NewObjectID(), domain.RoleViewer))

	w := doRequest(router, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUploadPhotoMultipart(t *testing.T) {
	svc := new(mockAssetService)
	router := newTestRouter(t, svc)
	admin := primitive.NewObjectID()

	created := samplePhoto()
	svc.On("Upload", mock.Anything, domain.KindPhoto, mock.MatchedBy(func(input service.UploadInput) bool {
		return input.Title == "Spring workshop" &&
			input.Category == "workshops" &&
			input.Image != nil &&
			input.Image.FileName == "sunset.jpg"
	}), admin).Return(created, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "Spring workshop"))
	require.NoError(t, mw.WriteField("description", "Highlights"))
	require.NoError(t, mw.WriteField("category", "workshops"))
	part, err := mw.CreateFormFile("image", "sunset.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/photos", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+signToken(t, admin, domain.RoleAdmin))

	w := doRequest(router, req)
	assert.Equal(t, http.StatusCreated, w.Code)
	svc.AssertExpectations(t)
}

func TestDeleteForbiddenByOwnership(t *testing.T) {
	svc := new(mockAssetService)
	router := newTestRouter(t, svc)
	caller := primitive.NewObjectID()
	id := primitive.NewObjectID()

	svc.On("Delete", mock.Anything, domain.KindPhoto, id, caller, domain.RoleAdmin).
		Return(service.ErrAccessDenied)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/photos/"+id.Hex(), nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, caller, domain.RoleAdmin))

	w := doRequest(router, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateFeaturedFalseReachesService(t *testing.T) {
	svc := new(mockAssetService)
	router := newTestRouter(t, svc)
	caller := primitive.NewObjectID()
	updated := samplePhoto()
	id := updated.ID

	svc.On("Update", mock.Anything, domain.KindPhoto, id, caller, domain.RoleAdmin, mock.MatchedBy(func(patch service.UpdateInput) bool {
		return patch.Featured != nil && !*patch.Featured && patch.Title == nil
	})).Return(updated, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("featured", "false"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/v1/photos/"+id.Hex(), &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+signToken(t, caller, domain.RoleAdmin))

	w := doRequest(router, req)
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestStatsRouteIsAdminOnly(t *testing.T) {
	svc := new(mockAssetService)
	router := newTestRouter(t, svc)

	// Anonymous.
	w := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/videos/stats/totals", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Viewer.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos/stats/totals", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, primitive.NewObjectID(), domain.RoleViewer))
	w = doRequest(router, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Admin.
	svc.On("Stats", mock.Anything, domain.KindVideo).
		Return(&repository.AssetStats{TotalCount: 2, TotalViews: 9}, nil)
	req = httptest.NewRequest(http.MethodGet, "/api/v1/videos/stats/totals", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, primitive.NewObjectID(), domain.RoleAdmin))
	w = doRequest(router, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
