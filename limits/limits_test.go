package limits

import (
	"errors"
	"testing"
)

// TestMaxFrameBytesCalculation verifies that MaxFrameBytes holds a full
// RGBA frame at the maximum dimension.
func TestMaxFrameBytesCalculation(t *testing.T) {
	expected := MaxFrameDimension * MaxFrameDimension * 4
	if MaxFrameBytes != expected {
		t.Errorf("MaxFrameBytes = %d, want %d", MaxFrameBytes, expected)
	}
}

// TestValidateDimensions tests the dimension validation function
func TestValidateDimensions(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantErr       error
	}{
		{name: "zero width", width: 0, height: 10, wantErr: ErrFrameEmpty},
		{name: "negative height", width: 10, height: -1, wantErr: ErrFrameEmpty},
		{name: "valid small", width: 2, height: 2, wantErr: nil},
		{name: "valid max", width: MaxFrameDimension, height: MaxFrameDimension, wantErr: nil},
		{name: "width too large", width: MaxFrameDimension + 1, height: 1, wantErr: ErrFrameTooLarge},
		{name: "height too large", width: 1, height: MaxFrameDimension + 1, wantErr: ErrFrameTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDimensions(tt.width, tt.height)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDimensions() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && err != nil {
				t.Errorf("ValidateDimensions() unexpected error = %v", err)
			}
		})
	}
}

// TestValidatePayload tests the payload validation function
func TestValidatePayload(t *testing.T) {
	tests := []struct {
		name           string
		size, required int
		wantErr        error
	}{
		{name: "empty payload", size: 0, required: 16, wantErr: ErrFrameEmpty},
		{name: "exact payload", size: 16, required: 16, wantErr: nil},
		{name: "padded payload", size: 20, required: 16, wantErr: nil},
		{name: "truncated payload", size: 15, required: 16, wantErr: ErrFrameTruncated},
		{name: "oversized payload", size: MaxFrameBytes + 1, required: 16, wantErr: ErrFrameTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePayload(tt.size, tt.required)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidatePayload() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidatePayload() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestValidateCeiling verifies the accepted in-flight ceiling range
func TestValidateCeiling(t *testing.T) {
	for _, ceiling := range []int{1, DefaultInFlightCeiling, MaxInFlightCeiling} {
		if err := ValidateCeiling(ceiling); err != nil {
			t.Errorf("ValidateCeiling(%d) = %v, want nil", ceiling, err)
		}
	}
	for _, ceiling := range []int{-1, 0, MaxInFlightCeiling + 1} {
		if err := ValidateCeiling(ceiling); !errors.Is(err, ErrInvalidCeiling) {
			t.Errorf("ValidateCeiling(%d) = %v, want ErrInvalidCeiling", ceiling, err)
		}
	}
}

// TestConstantConsistency verifies internal consistency of the limits
func TestConstantConsistency(t *testing.T) {
	if DefaultInFlightCeiling < 1 || DefaultInFlightCeiling > MaxInFlightCeiling {
		t.Errorf("DefaultInFlightCeiling (%d) outside [1, %d]", DefaultInFlightCeiling, MaxInFlightCeiling)
	}
	if MaxFrameBytes <= MaxFrameDimension {
		t.Errorf("MaxFrameBytes (%d) should be > MaxFrameDimension (%d)", MaxFrameBytes, MaxFrameDimension)
	}
}
