package system

import (
	"context"

	"gorm.io/gorm"

	"docintel/src/core/llm"
	"docintel/src/storage/weaviate"
)

// ComponentStatus represents the status of system components
type ComponentStatus string

const (
	StatusUp   ComponentStatus = "up"
	StatusDown ComponentStatus = "down"
)

// HealthStatus represents system health status
type HealthStatus struct {
	Status     string `json:"status"`
	Components struct {
		Postgres ComponentStatus `json:"postgres"`
		Weaviate ComponentStatus `json:"weaviate"`
		LLM      ComponentStatus `json:"llm"`
	} `json:"components"`
}

// Service checks the health of the system's dependencies.
type Service struct {
	db          *gorm.DB
	weaviateSDK *weaviate.SDK
	provider    llm.Provider
}

func NewService(db *gorm.DB, weaviateSDK *weaviate.SDK, provider llm.Provider) *Service {
	return &Service{
		db:          db,
		weaviateSDK: weaviateSDK,
		provider:    provider,
	}
}

func (s *Service) CheckHealth(ctx context.Context) (*HealthStatus, error) {
	status := &HealthStatus{Status: "healthy"}
	status.Components.Postgres = StatusDown
	status.Components.Weaviate = StatusDown
	status.Components.LLM = StatusDown

	// Check Postgres
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.PingContext(ctx); err == nil {
			status.Components.Postgres = StatusUp
		}
	}

	// Check Weaviate
	if ready, err := s.weaviateSDK.Ready(ctx); err == nil && ready {
		status.Components.Weaviate = StatusUp
	}

	// Check the LLM provider with a minimal embedding call
	if _, err := s.provider.Embed(ctx, "ping"); err == nil {
		status.Components.LLM = StatusUp
	}

	if status.Components.Postgres == StatusDown ||
		status.Components.Weaviate == StatusDown ||
		status.Components.LLM == StatusDown {
		status.Status = "unhealthy"
	}

	return status, nil
}
