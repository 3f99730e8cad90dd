package device

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errPermission = errors.New("permission denied")

type fakeEnumerator struct {
	devices  []Device
	products map[string]string
	err      error
	vendorID uint16
}

func (f *fakeEnumerator) Devices(vendorID uint16) ([]Device, error) {
	f.vendorID = vendorID
	return f.devices, f.err
}

func (f *fakeEnumerator) ProductString(dev Device) (string, error) {
	product, ok := f.products[dev.Path]
	if !ok {
		return "", errPermission
	}

	return product, nil
}

func yubikey(path string, productID uint16) Device {
	return Device{
		Path:       path,
		Interfaces: []string{path},
		VendorID:   YubicoVendorID,
		ProductID:  productID,
	}
}

func TestScanUsesProductString(t *testing.T) {
	enum := &fakeEnumerator{
		devices:  []Device{yubikey("1-1", 0x0407)},
		products: map[string]string{"1-1": "YubiKey OTP+FIDO+CCID"},
	}

	found := NewScanner(enum).Scan()

	require.Len(t, found, 1)
	assert.Equal(t, YubicoVendorID, enum.vendorID)
	assert.Equal(t, Descriptor{
		Slot:      0,
		Model:     "YubiKey OTP+FIDO+CCID",
		ProductID: 0x0407,
		Path:      "1-1",
		Source:    SourceHardware,
	}, found[0])
}

func TestScanFallsBackToModelTable(t *testing.T) {
	tests := []struct {
		productID uint16
		model     string
	}{
		{productID: 0x0010, model: "YubiKey"},
		{productID: 0x0111, model: "YubiKey NEO"},
		{productID: 0x0120, model: "Yubikey Touch U2F Security Key"},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			enum := &fakeEnumerator{devices: []Device{yubikey("1-1", tt.productID)}}

			found := NewScanner(enum).Scan()

			require.Len(t, found, 1)
			assert.Equal(t, tt.model, found[0].Model)
			assert.Equal(t, SourceTable, found[0].Source)
		})
	}
}

func TestScanTreatsEmptyProductStringAsFailure(t *testing.T) {
	enum := &fakeEnumerator{
		devices:  []Device{yubikey("1-1", 0x0111)},
		products: map[string]string{"1-1": ""},
	}

	found := NewScanner(enum).Scan()

	require.Len(t, found, 1)
	assert.Equal(t, "YubiKey NEO", found[0].Model)
}

func TestScanSkipsUnidentifiedDevices(t *testing.T) {
	enum := &fakeEnumerator{
		devices: []Device{
			yubikey("1-1", 0x0010),
			yubikey("1-2", 0xbeef),
			yubikey("1-3", 0x0120),
		},
	}

	found := NewScanner(enum).Scan()

	require.Len(t, found, 2)
	assert.Equal(t, "0-YubiKey", found[0].Key())
	assert.Equal(t, "1-Yubikey Touch U2F Security Key", found[1].Key())
}

func TestScanAssignsSlotsInOrder(t *testing.T) {
	enum := &fakeEnumerator{
		devices: []Device{
			yubikey("1-1", 0x0010),
			yubikey("1-2", 0x0010),
		},
	}

	found := NewScanner(enum).Scan()

	require.Len(t, found, 2)
	assert.Equal(t, "0-YubiKey", found[0].Key())
	assert.Equal(t, "1-YubiKey", found[1].Key())
}

func TestScanEnumerationError(t *testing.T) {
	enum := &fakeEnumerator{err: errors.New("hidapi unavailable")}

	assert.Empty(t, NewScanner(enum).Scan())
}

func TestScanOptions(t *testing.T) {
	enum := &fakeEnumerator{devices: []Device{yubikey("1-1", 0x0001)}}

	found := NewScanner(enum,
		WithVendorID(0x20a0),
		WithModels([]Model{{Name: "Nitrokey", ProductIDs: []uint16{0x0001}}}),
	).Scan()

	assert.Equal(t, uint16(0x20a0), enum.vendorID)
	require.Len(t, found, 1)
	assert.Equal(t, "Nitrokey", found[0].Model)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "0-YubiKey", Key(0, "YubiKey"))
	assert.Equal(t, Key(1, "YubiKey NEO"), Descriptor{Slot: 1, Model: "YubiKey NEO", Path: "x"}.Key())
	assert.NotEqual(t, Key(1, "YubiKey"), Key(0, "YubiKey"))
	assert.NotEqual(t, Key(0, "YubiKey"), Key(0, "YubiKey NEO"))
}

func TestLookupModel(t *testing.T) {
	name, ok := LookupModel(Models, 0x0120)
	assert.True(t, ok)
	assert.Equal(t, "Yubikey Touch U2F Security Key", name)

	_, ok = LookupModel(Models, 0x0407)
	assert.False(t, ok)
}
