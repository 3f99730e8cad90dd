package device

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sstallion/go-hid"
)

var errNoInterfaces = errors.New("device has no HID interfaces")

// HIDEnumerator is an [Enumerator] backed by hidapi.
//
// hidapi reports every HID interface separately; a YubiKey with OTP and FIDO
// enabled shows up twice. Interfaces are grouped into physical devices by
// their USB device in sysfs so that each key is reported once.
type HIDEnumerator struct {
	sysfsRoot string

	// readProduct reads the product string of one HID interface.
	readProduct func(path string) (string, error)
}

// NewHIDEnumerator initializes hidapi. Call [HIDEnumerator.Close] to release
// it.
func NewHIDEnumerator() (*HIDEnumerator, error) {
	if err := hid.Init(); err != nil {
		return nil, fmt.Errorf("init hidapi: %w", err)
	}

	return &HIDEnumerator{sysfsRoot: "/sys", readProduct: readProductString}, nil
}

// Close finalizes hidapi.
func (e *HIDEnumerator) Close() error {
	return hid.Exit()
}

// Devices returns attached devices with the given vendor ID.
func (e *HIDEnumerator) Devices(vendorID uint16) ([]Device, error) {
	var infos []hid.DeviceInfo

	err := hid.Enumerate(vendorID, 0, func(info *hid.DeviceInfo) error {
		infos = append(infos, *info)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enumerate vendor 0x%04x: %w", vendorID, err)
	}

	return groupInterfaces(infos, e.physicalPath), nil
}

// ProductString opens the HID interfaces of dev in order and returns the
// first product string that can be read.
func (e *HIDEnumerator) ProductString(dev Device) (string, error) {
	read := e.readProduct
	if read == nil {
		read = readProductString
	}

	lastErr := errNoInterfaces

	for _, path := range dev.Interfaces {
		product, err := read(path)
		if err == nil && product != "" {
			return product, nil
		}

		if err != nil {
			lastErr = err
		}
	}

	return "", lastErr
}

func readProductString(path string) (string, error) {
	d, err := hid.OpenPath(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer d.Close()

	product, err := d.GetProductStr()
	if err != nil {
		return "", fmt.Errorf("read product string of %s: %w", path, err)
	}

	return product, nil
}

// groupInterfaces merges HID interfaces that resolve to the same physical
// path, keeping first-seen order.
func groupInterfaces(infos []hid.DeviceInfo, physicalPath func(string) string) []Device {
	devices := make([]Device, 0, len(infos))
	index := make(map[string]int, len(infos))

	for _, info := range infos {
		path := physicalPath(info.Path)

		if idx, ok := index[path]; ok {
			devices[idx].Interfaces = append(devices[idx].Interfaces, info.Path)
			continue
		}

		index[path] = len(devices)
		devices = append(devices, Device{
			Path:       path,
			Interfaces: []string{info.Path},
			VendorID:   info.VendorID,
			ProductID:  info.ProductID,
		})
	}

	return devices
}

// physicalPath resolves a hidraw node to the sysfs directory of its USB
// device:
//
//	/dev/hidraw3
//	  -> /sys/class/hidraw/hidraw3/device
//	  -> /sys/devices/.../usb1/1-2/1-2:1.0/0003:1050:0407.0004
//	  -> /sys/devices/.../usb1/1-2
//
// Paths that cannot be resolved are returned unchanged, so each such
// interface counts as a device of its own.
func (e *HIDEnumerator) physicalPath(hidPath string) string {
	if !strings.HasPrefix(hidPath, "/dev/hidraw") {
		return hidPath
	}

	link := filepath.Join(e.sysfsRoot, "class", "hidraw", filepath.Base(hidPath), "device")

	resolved, err := filepath.EvalSymlinks(link)
	if err != nil {
		return hidPath
	}

	// HID device -> USB interface -> USB device.
	return filepath.Dir(filepath.Dir(resolved))
}
