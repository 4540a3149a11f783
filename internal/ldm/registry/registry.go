// Package registry tracks the providers and consumers authorized to write
// and read the LDM, and the permissions granted to each.
package registry

import (
	"fmt"
	"time"

	"github.com/openv2x/openv2x/internal/ldm/model"
	"github.com/openv2x/openv2x/pkg/geo"
	"github.com/openv2x/openv2x/pkg/its"
)

// Registry holds the active provider and consumer registrations. It is an
// owned object, never a process-wide singleton, so multiple LDM instances do
// not interfere.
//
// The Registry carries no lock of its own: the LDM guards it together with
// the storage backend under one logical lock, so a scan can never observe a
// provider's data after that provider was deregistered mid-scan.
type Registry struct {
	providers map[string]*model.Provider
	consumers map[string]*model.Consumer
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		providers: make(map[string]*model.Provider),
		consumers: make(map[string]*model.Consumer),
	}
}

// RegisterProvider records a provider registration.
func (r *Registry) RegisterProvider(applicationID string, permissions its.TagSet, defaultValidity time.Duration) error {
	if applicationID == "" || len(permissions) == 0 {
		return fmt.Errorf("%w: application id and permissions are required", model.ErrInvalidParameters)
	}
	if defaultValidity <= 0 {
		return fmt.Errorf("%w: default validity must be positive", model.ErrInvalidParameters)
	}
	if _, ok := r.providers[applicationID]; ok {
		return fmt.Errorf("provider %s: %w", applicationID, model.ErrDuplicateRegistration)
	}

	r.providers[applicationID] = &model.Provider{
		ApplicationID:   applicationID,
		Permissions:     permissions,
		DefaultValidity: defaultValidity,
	}
	return nil
}

// DeregisterProvider removes a provider registration. Objects it already
// published remain stored until they expire or leave the maintenance area.
func (r *Registry) DeregisterProvider(applicationID string) error {
	if _, ok := r.providers[applicationID]; !ok {
		return fmt.Errorf("provider %s: %w", applicationID, model.ErrNotRegistered)
	}
	delete(r.providers, applicationID)
	return nil
}

// Provider returns the active registration for the given application id.
func (r *Registry) Provider(applicationID string) (*model.Provider, bool) {
	p, ok := r.providers[applicationID]
	return p, ok
}

// RegisterConsumer records a consumer registration. A nil area of interest
// means the consumer's queries are scoped only by the area of maintenance.
func (r *Registry) RegisterConsumer(applicationID string, permissions its.TagSet, areaOfInterest geo.Area) error {
	if applicationID == "" || len(permissions) == 0 {
		return fmt.Errorf("%w: application id and permissions are required", model.ErrInvalidParameters)
	}
	if _, ok := r.consumers[applicationID]; ok {
		return fmt.Errorf("consumer %s: %w", applicationID, model.ErrDuplicateRegistration)
	}

	r.consumers[applicationID] = &model.Consumer{
		ApplicationID:  applicationID,
		Permissions:    permissions,
		AreaOfInterest: areaOfInterest,
	}
	return nil
}

// DeregisterConsumer removes a consumer registration. The LDM cancels the
// consumer's live subscriptions as part of the same operation.
func (r *Registry) DeregisterConsumer(applicationID string) error {
	if _, ok := r.consumers[applicationID]; !ok {
		return fmt.Errorf("consumer %s: %w", applicationID, model.ErrNotRegistered)
	}
	delete(r.consumers, applicationID)
	return nil
}

// Consumer returns the active registration for the given application id.
func (r *Registry) Consumer(applicationID string) (*model.Consumer, bool) {
	c, ok := r.consumers[applicationID]
	return c, ok
}

// AuthorizeConsumer checks that the application id is a registered consumer
// permitted to read every one of the given type tags.
func (r *Registry) AuthorizeConsumer(applicationID string, tags []its.TypeTag) (*model.Consumer, error) {
	c, ok := r.consumers[applicationID]
	if !ok {
		return nil, fmt.Errorf("consumer %s: %w", applicationID, model.ErrNotRegistered)
	}
	for _, tag := range tags {
		if !c.Permissions.Has(tag) {
			return nil, fmt.Errorf("consumer %s, type %s: %w", applicationID, tag, model.ErrPermissionDenied)
		}
	}
	return c, nil
}

// Providers returns all active provider registrations.
func (r *Registry) Providers() []*model.Provider {
	out := make([]*model.Provider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}
	return out
}

// Consumers returns all active consumer registrations.
func (r *Registry) Consumers() []*model.Consumer {
	out := make([]*model.Consumer, 0, len(r.consumers))
	for _, c := range r.consumers {
		out = append(out, c)
	}
	return out
}
