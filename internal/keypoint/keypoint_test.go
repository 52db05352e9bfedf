package keypoint

import "testing"

func TestFullResolutionCoordinates(t *testing.T) {
	tests := []struct {
		name         string
		k            Keypoint
		wantU, wantV float32
	}{
		{"octave 0", Keypoint{U: 10.5, V: 3, Scale: 0}, 10.5, 3},
		{"octave 1", Keypoint{U: 10.5, V: 3, Scale: 1}, 21, 6},
		{"octave 2 fractional scale", Keypoint{U: 4, V: 2.25, Scale: 2.7}, 16, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.k.FrU(); got != tt.wantU {
				t.Errorf("FrU: got %v, want %v", got, tt.wantU)
			}
			if got := tt.k.FrV(); got != tt.wantV {
				t.Errorf("FrV: got %v, want %v", got, tt.wantV)
			}
		})
	}
}
