package device

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/gousb"
)

var errNotAttached = errors.New("device is no longer attached")

type usbDevice interface {
	Product() (string, error)
	Close() error
}

// usbBus opens devices whose descriptors match.
type usbBus interface {
	open(match func(desc *gousb.DeviceDesc) bool) ([]usbDevice, error)
	Close() error
}

type libusb struct {
	ctx *gousb.Context
}

func (l libusb) open(match func(desc *gousb.DeviceDesc) bool) ([]usbDevice, error) {
	devs, err := l.ctx.OpenDevices(match)

	opened := make([]usbDevice, len(devs))
	for i, d := range devs {
		opened[i] = d
	}

	return opened, err
}

func (l libusb) Close() error {
	return l.ctx.Close()
}

// USBEnumerator is an [Enumerator] backed by libusb. Unlike
// [HIDEnumerator] it sees every USB device of the vendor, including keys
// that only expose CCID.
type USBEnumerator struct {
	bus usbBus
}

// NewUSBEnumerator initializes libusb. Call [USBEnumerator.Close] to
// release it.
func NewUSBEnumerator() *USBEnumerator {
	return &USBEnumerator{bus: libusb{ctx: gousb.NewContext()}}
}

// Close releases the libusb context.
func (e *USBEnumerator) Close() error {
	return e.bus.Close()
}

// Devices returns attached devices with the given vendor ID. Devices are
// listed from their descriptors without being opened.
func (e *USBEnumerator) Devices(vendorID uint16) ([]Device, error) {
	var devices []Device

	_, err := e.bus.open(func(desc *gousb.DeviceDesc) bool {
		if uint16(desc.Vendor) == vendorID {
			devices = append(devices, Device{
				Path:      usbPath(desc),
				VendorID:  uint16(desc.Vendor),
				ProductID: uint16(desc.Product),
			})
		}

		return false
	})
	if err != nil {
		return nil, fmt.Errorf("enumerate vendor 0x%04x: %w", vendorID, err)
	}

	return devices, nil
}

// ProductString opens dev and reads its product string descriptor.
func (e *USBEnumerator) ProductString(dev Device) (string, error) {
	opened, err := e.bus.open(func(desc *gousb.DeviceDesc) bool {
		return uint16(desc.Vendor) == dev.VendorID && usbPath(desc) == dev.Path
	})
	defer func() {
		for _, d := range opened {
			d.Close()
		}
	}()

	if len(opened) == 0 {
		if err == nil {
			err = errNotAttached
		}

		return "", fmt.Errorf("open %s: %w", dev.Path, err)
	}

	product, err := opened[0].Product()
	if err != nil {
		return "", fmt.Errorf("read product string of %s: %w", dev.Path, err)
	}

	return product, nil
}

// usbPath returns the sysfs name of a device, "<bus>-<port>.<port>...".
func usbPath(desc *gousb.DeviceDesc) string {
	ports := make([]string, len(desc.Path))
	for i, port := range desc.Path {
		ports[i] = strconv.Itoa(port)
	}

	return strconv.Itoa(desc.Bus) + "-" + strings.Join(ports, ".")
}
