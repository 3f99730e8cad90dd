package device

import (
	"errors"
	"testing"

	"github.com/google/gousb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUSBDevice struct {
	product string
	err     error
	closed  bool
}

func (d *fakeUSBDevice) Product() (string, error) {
	return d.product, d.err
}

func (d *fakeUSBDevice) Close() error {
	d.closed = true
	return nil
}

// fakeUSBBus holds attached devices by descriptor. Devices listed in
// devices can be opened; the others fail with openErr.
type fakeUSBBus struct {
	descs   []*gousb.DeviceDesc
	devices map[*gousb.DeviceDesc]*fakeUSBDevice
	openErr error
	listErr error
}

func (b *fakeUSBBus) open(match func(desc *gousb.DeviceDesc) bool) ([]usbDevice, error) {
	if b.listErr != nil {
		return nil, b.listErr
	}

	var (
		opened []usbDevice
		err    error
	)

	for _, desc := range b.descs {
		if !match(desc) {
			continue
		}

		dev, ok := b.devices[desc]
		if !ok {
			err = b.openErr
			continue
		}

		opened = append(opened, dev)
	}

	return opened, err
}

func (b *fakeUSBBus) Close() error {
	return nil
}

func usbDesc(bus int, path []int, vendor, product gousb.ID) *gousb.DeviceDesc {
	return &gousb.DeviceDesc{Bus: bus, Path: path, Vendor: vendor, Product: product}
}

func TestUSBDevicesFiltersVendor(t *testing.T) {
	bus := &fakeUSBBus{descs: []*gousb.DeviceDesc{
		usbDesc(1, []int{2}, 0x1050, 0x0404),
		usbDesc(1, []int{3}, 0x046d, 0xc52b),
		usbDesc(2, []int{1, 4}, 0x1050, 0x0112),
	}}
	e := &USBEnumerator{bus: bus}

	devices, err := e.Devices(YubicoVendorID)

	require.NoError(t, err)
	assert.Equal(t, []Device{
		{Path: "1-2", VendorID: YubicoVendorID, ProductID: 0x0404},
		{Path: "2-1.4", VendorID: YubicoVendorID, ProductID: 0x0112},
	}, devices)
}

func TestUSBDevicesError(t *testing.T) {
	e := &USBEnumerator{bus: &fakeUSBBus{listErr: errors.New("libusb: io error")}}

	_, err := e.Devices(YubicoVendorID)
	assert.ErrorContains(t, err, "enumerate vendor 0x1050")
}

func TestUSBProductString(t *testing.T) {
	ccid := usbDesc(1, []int{2}, 0x1050, 0x0112)
	dev := &fakeUSBDevice{product: "Yubikey NEO CCID"}
	e := &USBEnumerator{bus: &fakeUSBBus{
		descs:   []*gousb.DeviceDesc{usbDesc(1, []int{3}, 0x1050, 0x0010), ccid},
		devices: map[*gousb.DeviceDesc]*fakeUSBDevice{ccid: dev},
	}}

	product, err := e.ProductString(Device{Path: "1-2", VendorID: YubicoVendorID, ProductID: 0x0112})

	require.NoError(t, err)
	assert.Equal(t, "Yubikey NEO CCID", product)
	assert.True(t, dev.closed)
}

func TestUSBProductStringOpenFails(t *testing.T) {
	e := &USBEnumerator{bus: &fakeUSBBus{
		descs:   []*gousb.DeviceDesc{usbDesc(1, []int{2}, 0x1050, 0x0404)},
		openErr: errPermission,
	}}

	_, err := e.ProductString(Device{Path: "1-2", VendorID: YubicoVendorID})
	assert.ErrorIs(t, err, errPermission)
}

func TestUSBProductStringUnplugged(t *testing.T) {
	e := &USBEnumerator{bus: &fakeUSBBus{}}

	_, err := e.ProductString(Device{Path: "1-2", VendorID: YubicoVendorID})
	assert.ErrorIs(t, err, errNotAttached)
}

// A key exposing only CCID has no HID interface but is still found and
// named from the model table when its product string cannot be read.
func TestScanFindsKeyWithoutHIDInterface(t *testing.T) {
	e := &USBEnumerator{bus: &fakeUSBBus{
		descs:   []*gousb.DeviceDesc{usbDesc(1, []int{2}, 0x1050, 0x0111)},
		openErr: errPermission,
	}}

	found := NewScanner(e).Scan()

	require.Len(t, found, 1)
	assert.Equal(t, "YubiKey NEO", found[0].Model)
	assert.Equal(t, SourceTable, found[0].Source)
	assert.Equal(t, "1-2", found[0].Path)
}
