package domain

// Barcode lengths accepted for EAN-8, UPC-E, UPC-A and EAN-13 codes
const (
	MinBarcodeLength = 8
	MaxBarcodeLength = 13
)

// IsValidBarcode reports whether code is 8 to 13 ASCII digits
func IsValidBarcode(code string) bool {
	if len(code) < MinBarcodeLength || len(code) > MaxBarcodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
