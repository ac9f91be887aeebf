package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/go-chi/httplog/v2"
	"github.com/mbochenko/shortly/internal/database"
	"github.com/mbochenko/shortly/internal/identity"
	"github.com/mbochenko/shortly/internal/models"
	"github.com/mbochenko/shortly/pkg/response"
	"github.com/mbochenko/shortly/pkg/shortcode"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockLinkService struct {
	mock.Mock
}

func (s *MockLinkService) Shorten(ctx context.Context, originalURL, customAlias string, expiresInMinutes *int, ownerID *int64) (*models.Link, error) {
	args := s.Called(ctx, originalURL, customAlias, expiresInMinutes, ownerID)
	link, _ := args.Get(0).(*models.Link)
	return link, args.Error(1)
}

func (s *MockLinkService) Redirect(ctx context.Context, shortCode string) (string, error) {
	args := s.Called(ctx, shortCode)
	return args.String(0), args.Error(1)
}

func (s *MockLinkService) Update(ctx context.Context, shortCode string, ownerID *int64, newURL string) (*models.Link, error) {
	args := s.Called(ctx, shortCode, ownerID, newURL)
	link, _ := args.Get(0).(*models.Link)
	return link, args.Error(1)
}

func (s *MockLinkService) Delete(ctx context.Context, shortCode string, ownerID *int64) error {
	args := s.Called(ctx, shortCode, ownerID)
	return args.Error(0)
}

func (s *MockLinkService) Stats(ctx context.Context, shortCode string, ownerID *int64) (*models.StatsView, error) {
	args := s.Called(ctx, shortCode, ownerID)
	view, _ := args.Get(0).(*models.StatsView)
	return view, args.Error(1)
}

func (s *MockLinkService) Search(ctx context.Context, originalURL string) (*models.SearchResult, error) {
	args := s.Called(ctx, originalURL)
	res, _ := args.Get(0).(*models.SearchResult)
	return res, args.Error(1)
}

type HandlersTestSuite struct {
	suite.Suite
	logger      *httplog.Logger
	linkSvcMock *MockLinkService
	server      *httptest.Server
	e           *httpexpect.Expect
}

func (suite *HandlersTestSuite) SetupSuite() {
	suite.logger = httplog.NewLogger("", httplog.Options{Writer: io.Discard})
}

func (suite *HandlersTestSuite) SetupSubTest() {
	suite.linkSvcMock = new(MockLinkService)
	router := NewRouter(suite.logger, suite.linkSvcMock, identity.HeaderProvider{})
	suite.server = httptest.NewServer(router)
	suite.e = httpexpect.WithConfig(httpexpect.Config{
		BaseURL:  suite.server.URL,
		Reporter: httpexpect.NewAssertReporter(suite.T()),
		Client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	})
}

func (suite *HandlersTestSuite) TearDownSubTest() {
	suite.linkSvcMock.AssertExpectations(suite.T())
	suite.server.Close()
}

func intPtr(n int) *int       { return &n }
func int64Ptr(n int64) *int64 { return &n }

func (suite *HandlersTestSuite) TestPing() {
	const path = "/ping"

	suite.Run("success", func() {
		suite.e.GET(path).
			Expect().
			Status(http.StatusOK).
			Text().IsEqual("pong\n")
	})
}

func (suite *HandlersTestSuite) TestShorten() {
	const path = "/links/shorten"

	suite.Run("empty request body", func() {
		suite.e.POST(path).
			Expect().
			Status(http.StatusBadRequest).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.EmptyRequestBodyResponse.Message)
	})

	suite.Run("invalid request body", func() {
		suite.e.POST(path).
			WithJSON("invalid body").
			Expect().
			Status(http.StatusBadRequest).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.BadRequestResponse.Message)
	})

	suite.Run("malformed url", func() {
		suite.e.POST(path).
			WithJSON(map[string]string{
				"original_url": "invalid url",
			}).
			Expect().
			Status(http.StatusBadRequest).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			ContainsKey("message").
			ContainsKey("details")
	})

	suite.Run("invalid alias", func() {
		suite.linkSvcMock.
			On("Shorten", mock.Anything, "https://example.com", "a!", (*int)(nil), (*int64)(nil)).
			Times(1).
			Return(nil, shortcode.ErrInvalidAlias)

		suite.e.POST(path).
			WithJSON(map[string]string{
				"original_url": "https://example.com",
				"custom_alias": "a!",
			}).
			Expect().
			Status(http.StatusBadRequest).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			ContainsKey("details")

		suite.linkSvcMock.AssertNumberOfCalls(suite.T(), "Shorten", 1)
	})

	suite.Run("alias conflict", func() {
		suite.linkSvcMock.
			On("Shorten", mock.Anything, "https://example.com", "shortlink", (*int)(nil), (*int64)(nil)).
			Times(1).
			Return(nil, database.ErrShortCodeExists)

		suite.e.POST(path).
			WithJSON(map[string]string{
				"original_url": "https://example.com",
				"custom_alias": "shortlink",
			}).
			Expect().
			Status(http.StatusConflict).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.ConflictResponse.Message)

		suite.linkSvcMock.AssertNumberOfCalls(suite.T(), "Shorten", 1)
	})

	suite.Run("malformed owner header", func() {
		suite.e.POST(path).
			WithHeader(identity.DefaultOwnerHeader, "not-a-number").
			WithJSON(map[string]string{
				"original_url": "https://example.com",
			}).
			Expect().
			Status(http.StatusBadRequest).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.BadRequestResponse.Message)
	})

	suite.Run("server error", func() {
		suite.linkSvcMock.
			On("Shorten", mock.Anything, "https://example.com", "", (*int)(nil), (*int64)(nil)).
			Times(1).
			Return(nil, errors.New("unknown error"))

		suite.e.POST(path).
			WithJSON(map[string]string{
				"original_url": "https://example.com",
			}).
			Expect().
			Status(http.StatusInternalServerError).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.ServerErrorResponse.Message)

		suite.linkSvcMock.AssertNumberOfCalls(suite.T(), "Shorten", 1)
	})

	suite.Run("success anonymous with custom alias", func() {
		suite.linkSvcMock.
			On("Shorten", mock.Anything, "https://example.com", "shortlink", (*int)(nil), (*int64)(nil)).
			Times(1).
			Return(&models.Link{
				ID:          1,
				OriginalURL: "https://example.com",
				ShortCode:   "shortlink",
			}, nil)

		suite.e.POST(path).
			WithJSON(map[string]string{
				"original_url": "https://example.com",
				"custom_alias": "shortlink",
			}).
			Expect().
			Status(http.StatusCreated).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusSuccess).
			ContainsKey("message").
			Value("data").Object().
			HasValue("short_code", "shortlink").
			HasValue("original_url", "https://example.com")

		suite.linkSvcMock.AssertNumberOfCalls(suite.T(), "Shorten", 1)
	})

	suite.Run("success with owner and expiry", func() {
		expiresAt := time.Date(2025, 6, 15, 13, 30, 0, 0, time.UTC)

		suite.linkSvcMock.
			On("Shorten", mock.Anything, "https://example.com", "", intPtr(90), int64Ptr(7)).
			Times(1).
			Return(&models.Link{
				ID:          1,
				OriginalURL: "https://example.com",
				ShortCode:   "aB3x9Z",
				ExpiresAt:   &expiresAt,
				OwnerID:     int64Ptr(7),
			}, nil)

		suite.e.POST(path).
			WithHeader(identity.DefaultOwnerHeader, "7").
			WithJSON(map[string]any{
				"original_url":       "https://example.com",
				"expires_in_minutes": 90,
			}).
			Expect().
			Status(http.StatusCreated).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusSuccess).
			Value("data").Object().
			HasValue("short_code", "aB3x9Z").
			HasValue("owner_id", 7).
			ContainsKey("expires_at")

		suite.linkSvcMock.AssertNumberOfCalls(suite.T(), "Shorten", 1)
	})
}

func (suite *HandlersTestSuite) TestRedirect() {
	const path = "/links/%s"

	suite.Run("not found", func() {
		suite.linkSvcMock.
			On("Redirect", mock.Anything, "abc123").
			Times(1).
			Return("", database.ErrLinkNotFound)

		suite.e.GET(fmt.Sprintf(path, "abc123")).
			Expect().
			Status(http.StatusNotFound).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.ResourceNotFoundResponse.Message)

		suite.linkSvcMock.AssertNumberOfCalls(suite.T(), "Redirect", 1)
	})

	suite.Run("server error", func() {
		suite.linkSvcMock.
			On("Redirect", mock.Anything, "abc123").
			Times(1).
			Return("", errors.New("unknown error"))

		suite.e.GET(fmt.Sprintf(path, "abc123")).
			Expect().
			Status(http.StatusInternalServerError).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.ServerErrorResponse.Message)

		suite.linkSvcMock.AssertNumberOfCalls(suite.T(), "Redirect", 1)
	})

	suite.Run("success", func() {
		suite.linkSvcMock.
			On("Redirect", mock.Anything, "abc123").
			Times(1).
			Return("https://example.com", nil)

		suite.e.GET(fmt.Sprintf(path, "abc123")).
			Expect().
			Status(http.StatusFound).
			Header("Location").IsEqual("https://example.com")

		suite.linkSvcMock.AssertNumberOfCalls(suite.T(), "Redirect", 1)
	})
}

func (suite *HandlersTestSuite) TestUpdate() {
	const path = "/links/%s"

	suite.Run("empty request body", func() {
		suite.e.PUT(fmt.Sprintf(path, "abc123")).
			Expect().
			Status(http.StatusBadRequest).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.EmptyRequestBodyResponse.Message)
	})

	suite.Run("malformed url", func() {
		suite.e.PUT(fmt.Sprintf(path, "abc123")).
			WithJSON(map[string]string{
				"new_url": "invalid url",
			}).
			Expect().
			Status(http.StatusBadRequest).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			ContainsKey("details")
	})

	suite.Run("not found or not owned", func() {
		suite.linkSvcMock.
			On("Update", mock.Anything, "abc123", (*int64)(nil), "https://new.example.com").
			Times(1).
			Return(nil, database.ErrLinkNotFound)

		suite.e.PUT(fmt.Sprintf(path, "abc123")).
			WithJSON(map[string]string{
				"new_url": "https://new.example.com",
			}).
			Expect().
			Status(http.StatusNotFound).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.ResourceNotFoundResponse.Message)

		suite.linkSvcMock.AssertNumberOfCalls(suite.T(), "Update", 1)
	})

	suite.Run("success", func() {
		suite.linkSvcMock.
			On("Update", mock.Anything, "abc123", int64Ptr(7), "https://new.example.com").
			Times(1).
			Return(&models.Link{
				ID:          1,
				OriginalURL: "https://new.example.com",
				ShortCode:   "abc123",
				OwnerID:     int64Ptr(7),
			}, nil)

		suite.e.PUT(fmt.Sprintf(path, "abc123")).
			WithHeader(identity.DefaultOwnerHeader, "7").
			WithJSON(map[string]string{
				"new_url": "https://new.example.com",
			}).
			Expect().
			Status(http.StatusOK).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusSuccess).
			Value("data").Object().
			HasValue("short_code", "abc123").
			HasValue("original_url", "https://new.example.com")

		suite.linkSvcMock.AssertNumberOfCalls(suite.T(), "Update", 1)
	})
}

func (suite *HandlersTestSuite) TestDelete() {
	const path = "/links/%s"

	suite.Run("not found or not owned", func() {
		suite.linkSvcMock.
			On("Delete", mock.Anything, "abc123", (*int64)(nil)).
			Times(1).
			Return(database.ErrLinkNotFound)

		suite.e.DELETE(fmt.Sprintf(path, "abc123")).
			Expect().
			Status(http.StatusNotFound).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.ResourceNotFoundResponse.Message)

		suite.linkSvcMock.AssertNumberOfCalls(suite.T(), "Delete", 1)
	})

	suite.Run("success", func() {
		suite.linkSvcMock.
			On("Delete", mock.Anything, "abc123", int64Ptr(7)).
			Times(1).
			Return(nil)

		suite.e.DELETE(fmt.Sprintf(path, "abc123")).
			WithHeader(identity.DefaultOwnerHeader, "7").
			Expect().
			Status(http.StatusNoContent).
			NoContent()

		suite.linkSvcMock.AssertNumberOfCalls(suite.T(), "Delete", 1)
	})
}

func (suite *HandlersTestSuite) TestStats() {
	const path = "/links/%s/stats"

	suite.Run("not found or not owned", func() {
		suite.linkSvcMock.
			On("Stats", mock.Anything, "abc123", int64Ptr(7)).
			Times(1).
			Return(nil, database.ErrLinkNotFound)

		suite.e.GET(fmt.Sprintf(path, "abc123")).
			WithHeader(identity.DefaultOwnerHeader, "7").
			Expect().
			Status(http.StatusNotFound).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.ResourceNotFoundResponse.Message)

		suite.linkSvcMock.AssertNumberOfCalls(suite.T(), "Stats", 1)
	})

	suite.Run("success", func() {
		lastAccessed := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

		suite.linkSvcMock.
			On("Stats", mock.Anything, "abc123", int64Ptr(7)).
			Times(1).
			Return(&models.StatsView{
				ID:           1,
				ShortCode:    "abc123",
				OriginalURL:  "https://example.com",
				OwnerID:      int64Ptr(7),
				AccessCount:  42,
				LastAccessed: &lastAccessed,
			}, nil)

		suite.e.GET(fmt.Sprintf(path, "abc123")).
			WithHeader(identity.DefaultOwnerHeader, "7").
			Expect().
			Status(http.StatusOK).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusSuccess).
			Value("data").Object().
			HasValue("short_code", "abc123").
			HasValue("access_count", 42).
			HasValue("expires_at", nil).
			HasValue("last_accessed", "2025-06-15T12:00:00Z")

		suite.linkSvcMock.AssertNumberOfCalls(suite.T(), "Stats", 1)
	})
}

func (suite *HandlersTestSuite) TestSearch() {
	const path = "/links/search"

	suite.Run("missing query parameter", func() {
		suite.e.GET(path).
			Expect().
			Status(http.StatusBadRequest).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.BadRequestResponse.Message)
	})

	suite.Run("not found", func() {
		suite.linkSvcMock.
			On("Search", mock.Anything, "https://example.com").
			Times(1).
			Return(nil, database.ErrLinkNotFound)

		suite.e.GET(path).
			WithQuery("original_url", "https://example.com").
			Expect().
			Status(http.StatusNotFound).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.ResourceNotFoundResponse.Message)

		suite.linkSvcMock.AssertNumberOfCalls(suite.T(), "Search", 1)
	})

	suite.Run("success", func() {
		suite.linkSvcMock.
			On("Search", mock.Anything, "https://example.com").
			Times(1).
			Return(&models.SearchResult{
				ShortCode:   "abc123",
				OriginalURL: "https://example.com",
			}, nil)

		suite.e.GET(path).
			WithQuery("original_url", "https://example.com").
			Expect().
			Status(http.StatusOK).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusSuccess).
			Value("data").Object().
			HasValue("short_code", "abc123").
			HasValue("original_url", "https://example.com")

		suite.linkSvcMock.AssertNumberOfCalls(suite.T(), "Search", 1)
	})
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}
