package device

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Scanner resolves attached devices of one vendor into descriptors.
type Scanner struct {
	enum     Enumerator
	vendorID uint16
	models   []Model
	log      zerolog.Logger
}

type Option func(*Scanner)

// WithVendorID overrides the vendor ID devices are matched against.
func WithVendorID(vendorID uint16) Option {
	return func(s *Scanner) {
		s.vendorID = vendorID
	}
}

// WithModels overrides the fallback model table.
func WithModels(models []Model) Option {
	return func(s *Scanner) {
		s.models = models
	}
}

// WithLogger sets the logger used for diagnostics. Scanner is silent by
// default.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Scanner) {
		s.log = log
	}
}

// NewScanner returns a [Scanner] matching Yubico devices.
func NewScanner(enum Enumerator, opts ...Option) *Scanner {
	s := &Scanner{
		enum:     enum,
		vendorID: YubicoVendorID,
		models:   Models,
		log:      zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Scan returns descriptors of attached devices in enumeration order.
//
// The model of a device is its product string when it can be read, or the
// name from the model table otherwise. Devices that can be identified in
// neither way are left out, and slots are only assigned to devices that are
// reported. Scan never fails: enumeration errors yield no descriptors.
func (s *Scanner) Scan() []Descriptor {
	devices, err := s.enum.Devices(s.vendorID)
	if err != nil {
		s.log.Debug().Err(err).Uint16("vendor_id", s.vendorID).Msg("enumeration failed")
		return nil
	}

	found := make([]Descriptor, 0, len(devices))

	for _, dev := range devices {
		desc := Descriptor{
			Slot:      len(found),
			ProductID: dev.ProductID,
			Path:      dev.Path,
		}

		product, err := s.enum.ProductString(dev)
		if err == nil && product != "" {
			desc.Model = product
			desc.Source = SourceHardware
			found = append(found, desc)

			continue
		}

		model, ok := LookupModel(s.models, dev.ProductID)
		if !ok {
			s.log.Debug().
				Err(err).
				Str("path", dev.Path).
				Str("product_id", fmt.Sprintf("0x%04x", dev.ProductID)).
				Msg("skipping unidentified device")

			continue
		}

		desc.Model = model
		desc.Source = SourceTable
		found = append(found, desc)
	}

	return found
}
