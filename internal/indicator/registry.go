// Package indicator keeps one tray indicator per attached device in sync
// with scan results.
package indicator

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/shelepuginivan/yubikey-indicator/internal/device"
)

// Icon names looked up in the icons directory.
const (
	IconNone = "icon-yubikey-none"
	IconKey  = "icon-yubikey"
	IconU2F  = "icon-yubikey-u2f"
)

// Name of the indicator shown when no device is attached. Device indicators
// are named NamePrefix followed by the descriptor key.
const (
	NamePrefix = "YubikeyIndicator"
	NoKeyName  = NamePrefix + "None"
)

type Status int

const (
	StatusPassive Status = iota
	StatusActive
)

func (s Status) String() string {
	if s == StatusActive {
		return "active"
	}

	return "passive"
}

// Spec describes an indicator to create. Model is empty for the no-key
// indicator.
type Spec struct {
	Name  string
	Icon  string
	Model string
}

// Indicator is a tray icon with its menu.
type Indicator interface {
	SetStatus(status Status) error
	Close() error
}

// Factory creates indicators.
type Factory interface {
	New(spec Spec) (Indicator, error)
}

// Entry is an indicator of a present device.
type Entry struct {
	Descriptor device.Descriptor
	Indicator  Indicator
}

// Registry maps descriptor keys to indicators and owns the no-key indicator.
//
// Registry is not safe for concurrent use; it is driven from a single event
// loop.
type Registry struct {
	factory     Factory
	entries     map[string]*Entry
	noKey       Indicator
	noKeyStatus Status
	log         zerolog.Logger
}

// New creates the no-key indicator and returns an empty [Registry]. The
// no-key indicator starts active.
func New(factory Factory, log zerolog.Logger) (*Registry, error) {
	noKey, err := factory.New(Spec{Name: NoKeyName, Icon: IconNone})
	if err != nil {
		return nil, fmt.Errorf("create no-key indicator: %w", err)
	}

	if err := noKey.SetStatus(StatusActive); err != nil {
		log.Warn().Err(err).Msg("failed to activate no-key indicator")
	}

	return &Registry{
		factory:     factory,
		entries:     make(map[string]*Entry),
		noKey:       noKey,
		noKeyStatus: StatusActive,
		log:         log,
	}, nil
}

// IconFor returns the icon of a device model: the U2F icon for models that
// mention U2F in any case, the generic key icon otherwise.
func IconFor(model string) string {
	if strings.Contains(strings.ToLower(model), "u2f") {
		return IconU2F
	}

	return IconKey
}

// Reconcile makes the registry match found: indicators are created for new
// keys and closed for keys that disappeared. The no-key indicator is active
// iff found is empty.
//
// Reconcile is idempotent. An indicator that fails to be created is retried
// on the next call.
func (r *Registry) Reconcile(found []device.Descriptor) {
	present := make(map[string]struct{}, len(found))

	for _, desc := range found {
		key := desc.Key()
		present[key] = struct{}{}

		if _, ok := r.entries[key]; ok {
			continue
		}

		r.add(key, desc)
	}

	for key, entry := range r.entries {
		if _, ok := present[key]; ok {
			continue
		}

		r.log.Debug().
			Str("key", key).
			Str("model", entry.Descriptor.Model).
			Str("path", entry.Descriptor.Path).
			Msg("device removed")

		if err := entry.Indicator.Close(); err != nil {
			r.log.Warn().Err(err).Str("key", key).Msg("failed to close indicator")
		}

		delete(r.entries, key)
	}

	status := StatusPassive
	if len(found) == 0 {
		status = StatusActive
	}

	if err := r.noKey.SetStatus(status); err != nil {
		r.log.Warn().Err(err).Stringer("status", status).Msg("failed to update no-key indicator")
		return
	}

	r.noKeyStatus = status
}

func (r *Registry) add(key string, desc device.Descriptor) {
	spec := Spec{
		Name:  NamePrefix + key,
		Icon:  IconFor(desc.Model),
		Model: desc.Model,
	}

	ind, err := r.factory.New(spec)
	if err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("failed to create indicator")
		return
	}

	if err := ind.SetStatus(StatusActive); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("failed to activate indicator")
	}

	r.entries[key] = &Entry{Descriptor: desc, Indicator: ind}

	r.log.Debug().
		Str("key", key).
		Str("model", desc.Model).
		Str("source", string(desc.Source)).
		Str("path", desc.Path).
		Msg("device added")
}

// Keys returns keys of present devices in ascending order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.entries))
	for key := range r.entries {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

// NoKeyStatus returns the last status applied to the no-key indicator.
func (r *Registry) NoKeyStatus() Status {
	return r.noKeyStatus
}

// Close closes every indicator including the no-key one. The registry must
// not be used afterwards.
func (r *Registry) Close() error {
	var errs []error

	for key, entry := range r.entries {
		if err := entry.Indicator.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", key, err))
		}

		delete(r.entries, key)
	}

	if err := r.noKey.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close %s: %w", NoKeyName, err))
	}

	return errors.Join(errs...)
}
