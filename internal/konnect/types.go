package konnect

import (
	"fmt"
	"time"
)

// GitHubIntegration is the integration_name of GitHub integration instances.
const GitHubIntegration = "github"

// Service is a Service Catalog entity.
type Service struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name,omitempty"`
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
	CreatedAt   time.Time         `json:"created_at,omitzero"`
	UpdatedAt   time.Time         `json:"updated_at,omitzero"`
}

// IntegrationInstance is a configured connection to an external integration.
type IntegrationInstance struct {
	ID              string    `json:"id"`
	Name            string    `json:"name,omitempty"`
	DisplayName     string    `json:"display_name,omitempty"`
	IntegrationName string    `json:"integration_name"`
	Authorized      bool      `json:"authorized,omitempty"`
	CreatedAt       time.Time `json:"created_at,omitzero"`
	UpdatedAt       time.Time `json:"updated_at,omitzero"`
}

// IsGitHub reports whether the instance belongs to the GitHub integration.
func (i IntegrationInstance) IsGitHub() bool {
	return i.IntegrationName == GitHubIntegration
}

// PageMeta is the pagination block of list responses.
type PageMeta struct {
	Number int `json:"number"`
	Size   int `json:"size"`
	Total  int `json:"total"`
}

type listMeta struct {
	Page *PageMeta `json:"page,omitempty"`
}

type listResponse[T any] struct {
	Data []T      `json:"data"`
	Meta listMeta `json:"meta"`
}

// StatusError is returned for any response whose status is not the one the
// operation expects.
type StatusError struct {
	Op     string // "list services", "delete service", ...
	ID     string
	Status int
}

func (e *StatusError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s %s: status %d", e.Op, e.ID, e.Status)
}
