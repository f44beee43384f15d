package jobs

import (
	"encoding/json"
	"fmt"
	"strings"
)

// GarmentType identifies which body region a garment covers.
type GarmentType string

const (
	GarmentUpper GarmentType = "upper"
	GarmentLower GarmentType = "lower"
	GarmentFull  GarmentType = "full"
)

var allGarmentTypes = []GarmentType{GarmentUpper, GarmentLower, GarmentFull}

// AllGarmentTypes returns the ordered list of known garment types.
func AllGarmentTypes() []GarmentType {
	cp := make([]GarmentType, len(allGarmentTypes))
	copy(cp, allGarmentTypes)
	return cp
}

// ParseGarmentType converts a string into a known GarmentType.
func ParseGarmentType(value string) (GarmentType, bool) {
	normalized := GarmentType(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case GarmentUpper, GarmentLower, GarmentFull:
		return normalized, true
	default:
		return "", false
	}
}

// Output formats accepted for try-off extraction artifacts.
const (
	FormatPNG  = "png"
	FormatJPG  = "jpg"
	FormatWebP = "webp"
)

// TryOnOptions configures a try-on job. Unknown option keys are ignored during
// decoding; missing keys take the documented defaults.
type TryOnOptions struct {
	PreserveBackground bool        `json:"preserve_background"`
	AdjustSize         bool        `json:"adjust_size"`
	GarmentType        GarmentType `json:"garment_type"`
}

// DefaultTryOnOptions returns the documented try-on defaults.
func DefaultTryOnOptions() TryOnOptions {
	return TryOnOptions{
		PreserveBackground: false,
		AdjustSize:         true,
		GarmentType:        GarmentUpper,
	}
}

// DecodeTryOnOptions merges raw option values over the defaults and validates
// the result.
func DecodeTryOnOptions(raw map[string]any) (TryOnOptions, error) {
	opts := DefaultTryOnOptions()
	if err := decodeInto(raw, &opts); err != nil {
		return TryOnOptions{}, err
	}
	if opts.GarmentType == "" {
		opts.GarmentType = GarmentUpper
	}
	normalized, ok := ParseGarmentType(string(opts.GarmentType))
	if !ok {
		return TryOnOptions{}, fmt.Errorf("garment_type: unknown value %q", opts.GarmentType)
	}
	opts.GarmentType = normalized
	return opts, nil
}

// TryOffOptions configures a try-off job.
type TryOffOptions struct {
	ExtractAll   bool          `json:"extract_all"`
	GarmentTypes []GarmentType `json:"garment_types"`
	OutputFormat string        `json:"output_format"`
}

// DefaultTryOffOptions returns the documented try-off defaults.
func DefaultTryOffOptions() TryOffOptions {
	return TryOffOptions{
		ExtractAll:   true,
		GarmentTypes: AllGarmentTypes(),
		OutputFormat: FormatPNG,
	}
}

// DecodeTryOffOptions merges raw option values over the defaults and validates
// the result. Duplicate garment types are collapsed preserving first
// occurrence order.
func DecodeTryOffOptions(raw map[string]any) (TryOffOptions, error) {
	opts := DefaultTryOffOptions()
	if err := decodeInto(raw, &opts); err != nil {
		return TryOffOptions{}, err
	}

	if len(opts.GarmentTypes) == 0 {
		opts.GarmentTypes = AllGarmentTypes()
	}
	seen := make(map[GarmentType]struct{}, len(opts.GarmentTypes))
	deduped := make([]GarmentType, 0, len(opts.GarmentTypes))
	for _, gt := range opts.GarmentTypes {
		normalized, ok := ParseGarmentType(string(gt))
		if !ok {
			return TryOffOptions{}, fmt.Errorf("garment_types: unknown value %q", gt)
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		deduped = append(deduped, normalized)
	}
	opts.GarmentTypes = deduped

	opts.OutputFormat = strings.ToLower(strings.TrimSpace(opts.OutputFormat))
	switch opts.OutputFormat {
	case "":
		opts.OutputFormat = FormatPNG
	case FormatPNG, FormatJPG, FormatWebP:
	default:
		return TryOffOptions{}, fmt.Errorf("output_format: unsupported value %q", opts.OutputFormat)
	}
	return opts, nil
}

// decodeInto round-trips a raw option map through JSON so unknown keys are
// dropped and known keys overwrite the prefilled defaults in target.
func decodeInto(raw map[string]any, target any) error {
	if len(raw) == 0 {
		return nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode options: %w", err)
	}
	return nil
}
