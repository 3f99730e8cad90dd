// Package device finds YubiKeys attached over USB and resolves their model
// names.
package device

import "fmt"

// YubicoVendorID is the USB vendor ID assigned to Yubico.
const YubicoVendorID uint16 = 0x1050

// Source tells where the model name of a [Descriptor] came from.
type Source string

const (
	// The product string was read from the device.
	SourceHardware Source = "hardware"

	// The product string could not be read and the product ID was found in
	// the model table.
	SourceTable Source = "table"
)

// Descriptor is a device found during one scan.
//
// Only Slot and Model identify the descriptor; see [Descriptor.Key]. Slot is
// the position of the device among the identified devices of this scan, not
// a persistent identity: the same physical key may get another slot once a
// device in front of it is unplugged.
type Descriptor struct {
	Slot  int
	Model string

	ProductID uint16
	Path      string
	Source    Source
}

// Key returns the identity of the descriptor across scans, "<slot>-<model>".
func (d Descriptor) Key() string {
	return Key(d.Slot, d.Model)
}

// Key builds a descriptor key from its parts.
func Key(slot int, model string) string {
	return fmt.Sprintf("%d-%s", slot, model)
}

// Device is a physical USB device as reported by an [Enumerator].
type Device struct {
	// Physical location of the device, its sysfs USB name such as "1-2.4"
	// or the sysfs directory of the USB device.
	Path string

	// HID interface paths of the device in enumeration order. Only set by
	// [HIDEnumerator].
	Interfaces []string

	VendorID  uint16
	ProductID uint16
}

// Enumerator lists attached devices and reads their product strings.
type Enumerator interface {
	// Devices returns attached devices with the given vendor ID in
	// enumeration order.
	Devices(vendorID uint16) ([]Device, error)

	// ProductString reads the product string descriptor from the device.
	ProductString(dev Device) (string, error)
}
