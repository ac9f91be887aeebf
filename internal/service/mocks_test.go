package service

import (
	"context"
	"time"

	"github.com/mbochenko/shortly/internal/models"
	"github.com/stretchr/testify/mock"
)

type MockLinkRepository struct {
	mock.Mock
}

func (r *MockLinkRepository) Create(ctx context.Context, originalURL, shortCode string, expiresAt *time.Time, ownerID *int64) (*models.Link, error) {
	args := r.Called(ctx, originalURL, shortCode, expiresAt, ownerID)
	link, _ := args.Get(0).(*models.Link)
	return link, args.Error(1)
}

func (r *MockLinkRepository) GetByShortCode(ctx context.Context, shortCode string) (*models.Link, error) {
	args := r.Called(ctx, shortCode)
	link, _ := args.Get(0).(*models.Link)
	return link, args.Error(1)
}

func (r *MockLinkRepository) GetByShortCodeAndOwner(ctx context.Context, shortCode string, ownerID *int64) (*models.Link, error) {
	args := r.Called(ctx, shortCode, ownerID)
	link, _ := args.Get(0).(*models.Link)
	return link, args.Error(1)
}

func (r *MockLinkRepository) GetByOriginalURL(ctx context.Context, originalURL string) (*models.Link, error) {
	args := r.Called(ctx, originalURL)
	link, _ := args.Get(0).(*models.Link)
	return link, args.Error(1)
}

func (r *MockLinkRepository) UpdateURL(ctx context.Context, shortCode string, ownerID *int64, newURL string) (*models.Link, error) {
	args := r.Called(ctx, shortCode, ownerID, newURL)
	link, _ := args.Get(0).(*models.Link)
	return link, args.Error(1)
}

func (r *MockLinkRepository) Delete(ctx context.Context, shortCode string, ownerID *int64) error {
	args := r.Called(ctx, shortCode, ownerID)
	return args.Error(0)
}

func (r *MockLinkRepository) BumpStats(ctx context.Context, id int64, accessedAt time.Time) (*models.Link, error) {
	args := r.Called(ctx, id, accessedAt)
	link, _ := args.Get(0).(*models.Link)
	return link, args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (c *MockCache) Get(ctx context.Context, key string) (string, error) {
	args := c.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (c *MockCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	args := c.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (c *MockCache) Invalidate(ctx context.Context, keys ...string) error {
	args := c.Called(ctx, keys)
	return args.Error(0)
}
