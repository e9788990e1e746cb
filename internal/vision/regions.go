package vision

// FieldType identifies a named data region on the canonical card.
type FieldType int

const (
	FieldTCKN FieldType = iota
	FieldSurname
	FieldName
	FieldMRZ
	FieldPhoto
	FieldSerial
	FieldBirthDate
	// FieldExpiry has no standalone rectangle; the expiry date is read from
	// the MRZ text, not cropped from the card image.
	FieldExpiry
)

// String returns the lowercase field name used in stored records and logs.
func (f FieldType) String() string {
	switch f {
	case FieldTCKN:
		return "tckn"
	case FieldSurname:
		return "surname"
	case FieldName:
		return "name"
	case FieldMRZ:
		return "mrz"
	case FieldPhoto:
		return "photo"
	case FieldSerial:
		return "serial"
	case FieldBirthDate:
		return "birthdate"
	case FieldExpiry:
		return "expiry"
	default:
		return "unknown"
	}
}

// RegionDefinition describes a field rectangle in normalized [0,1]
// card-relative coordinates plus its binarization hints. BlockSize 0 means
// "use a global Otsu threshold"; any other value is coerced odd and >=3
// before use.
type RegionDefinition struct {
	X, Y          float64
	Width, Height float64
	Invert        bool
	BlockSize     int
	ConstantC     int
}

// Front-side field rectangles, measured against sample TCKK cards. The
// per-field block sizes and constants were tuned for each print style
// (digits, names, dates).
var frontRegions = map[FieldType]RegionDefinition{
	FieldTCKN:      {X: 0.03, Y: 0.20, Width: 0.28, Height: 0.12, BlockSize: 15, ConstantC: 8},
	FieldSurname:   {X: 0.03, Y: 0.38, Width: 0.55, Height: 0.10, BlockSize: 21, ConstantC: 5},
	FieldName:      {X: 0.03, Y: 0.48, Width: 0.55, Height: 0.10, BlockSize: 21, ConstantC: 5},
	FieldBirthDate: {X: 0.03, Y: 0.58, Width: 0.40, Height: 0.10, BlockSize: 17, ConstantC: 6},
	FieldSerial:    {X: 0.03, Y: 0.68, Width: 0.35, Height: 0.10, BlockSize: 15, ConstantC: 7},
	FieldPhoto:     {X: 0.68, Y: 0.18, Width: 0.28, Height: 0.45},
}

// backMRZRegion spans the full-width MRZ strip in the bottom 28% of the
// back side. Only the MRZ is consumed from the back today, so every
// back-side lookup resolves here regardless of the requested field.
var backMRZRegion = RegionDefinition{X: 0, Y: 0.72, Width: 1.0, Height: 0.28, Invert: true, BlockSize: 11, ConstantC: 4}

// Auxiliary rectangles from the physical TCKK layout. HologramZone is where
// reflections concentrate on the front; ChipZone is the contact chip on the
// back. BarcodeZone is the vertical barcode strip, currently unused.
var (
	HologramZone = RegionDefinition{X: 0.65, Y: 0.70, Width: 0.32, Height: 0.25}
	ChipZone     = RegionDefinition{X: 0.02, Y: 0.05, Width: 0.20, Height: 0.25}
	BarcodeZone  = RegionDefinition{X: 0.88, Y: 0.05, Width: 0.10, Height: 0.60}
)

// Individual MRZ line strips inside the bottom block, for line-by-line
// processing when the full-strip read fails.
var (
	MRZLine1 = RegionDefinition{X: 0.02, Y: 0.73, Width: 0.96, Height: 0.08, Invert: true, BlockSize: 11, ConstantC: 4}
	MRZLine2 = RegionDefinition{X: 0.02, Y: 0.81, Width: 0.96, Height: 0.08, Invert: true, BlockSize: 11, ConstantC: 4}
	MRZLine3 = RegionDefinition{X: 0.02, Y: 0.89, Width: 0.96, Height: 0.08, Invert: true, BlockSize: 11, ConstantC: 4}
)

// lookupRegion returns the rectangle and preprocessing hints for a field.
// Unknown front-side fields fall back to the TCKN rectangle.
func lookupRegion(field FieldType, isBackSide bool) RegionDefinition {
	if isBackSide {
		return backMRZRegion
	}
	if def, ok := frontRegions[field]; ok {
		return def
	}
	return frontRegions[FieldTCKN]
}
