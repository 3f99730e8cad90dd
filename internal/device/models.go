package device

// Model is a named YubiKey variant with the product IDs it enumerates as.
type Model struct {
	Name       string
	ProductIDs []uint16
}

// Models is the fallback table used when the product string of a device
// cannot be read.
var Models = []Model{
	{Name: "YubiKey", ProductIDs: []uint16{0x0010}},
	{Name: "YubiKey NEO", ProductIDs: []uint16{0x0111}},
	{Name: "Yubikey Touch U2F Security Key", ProductIDs: []uint16{0x0120}},
}

// LookupModel returns the name of the first model in models that lists
// productID.
func LookupModel(models []Model, productID uint16) (string, bool) {
	for _, model := range models {
		for _, id := range model.ProductIDs {
			if id == productID {
				return model.Name, true
			}
		}
	}

	return "", false
}
