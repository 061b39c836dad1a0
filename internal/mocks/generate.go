// Package mocks provides mock implementations for testing the collection engine.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the core port interfaces. The mocks are generated with go:generate
// directives and committed alongside them.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	fetcher := mocks.NewMockPageFetcher(ctrl)
//	fetcher.EXPECT().FetchPosts(gomock.Any(), gomock.Any()).Return(page, nil)
package mocks

// Mock for the upstream record source.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=page_fetcher_mock.go github.com/trendit/collector-go/internal/core PageFetcher

// Mock for the best-effort mirror store.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=mirror_store_mock.go github.com/trendit/collector-go/internal/core MirrorStore

// Mock for the job store.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=job_repository_mock.go github.com/trendit/collector-go/internal/core JobRepository
