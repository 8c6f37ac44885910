// Package mocks provides mock implementations for testing the tickerwatch services.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the
// interfaces in internal/core. The mocks are generated using go:generate directives
// and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockStore := mocks.NewMockScheduleStore(ctrl)
//	mockStore.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(true, nil)
package mocks

// Generate mock for ScheduleStore interface from internal/core package.
// This creates MockScheduleStore with methods for all ScheduleStore interface methods:
// Insert, Get, List, UpdateStatus, UpdateRunTime, Delete
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=schedule_store_mock.go github.com/tickerwatch/tickerwatch/internal/core ScheduleStore

// Generate mocks for the record stores from internal/core package.
// This creates MockPriceStore (UpsertBatch) and MockScrapeStore (InsertBatch).
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=record_stores_mock.go github.com/tickerwatch/tickerwatch/internal/core PriceStore,ScrapeStore

// Generate mocks for the external data sources from internal/core package.
// This creates MockAggregatesAPI (FetchDay), MockScreenerAPI (FetchSnapshot)
// and MockKeyProvider (APIKey).
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=sources_mock.go github.com/tickerwatch/tickerwatch/internal/core AggregatesAPI,ScreenerAPI,KeyProvider

// Generate mock for Cache interface from internal/core package.
// This creates MockCache with methods for all Cache interface methods:
// Get, Set, Delete
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=cache_mock.go github.com/tickerwatch/tickerwatch/internal/core Cache
