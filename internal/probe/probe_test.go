package probe

import "testing"

func TestScanInt3EmptyRange(t *testing.T) {
	if got := ScanInt3(nil); got != 0 {
		t.Errorf("ScanInt3(nil) = %d, want 0", got)
	}
	if got := ScanInt3([]byte{}); got != 0 {
		t.Errorf("ScanInt3(empty) = %d, want 0", got)
	}
}

func TestScanInt3CountsOccurrences(t *testing.T) {
	data := []byte{0x90, 0xCC, 0x90, 0xCC, 0xCC, 0x90}
	if got := ScanInt3(data); got != 3 {
		t.Errorf("ScanInt3 = %d, want 3", got)
	}
}

func TestScanInt3NoFalsePositives(t *testing.T) {
	data := []byte{0x48, 0x89, 0xe5, 0x90, 0x5d, 0xc3}
	if got := ScanInt3(data); got != 0 {
		t.Errorf("ScanInt3 = %d, want 0", got)
	}
}

func TestScanInt3ShapeDistinguishesPaddingFromScattered(t *testing.T) {
	padding := make([]byte, 20)
	for i := range padding {
		padding[i] = 0xCC
	}
	shape := ScanInt3Shape(padding)
	if !shape.IsAlignmentPadding() {
		t.Errorf("20 contiguous 0xCC bytes should classify as alignment padding, got %+v", shape)
	}

	scattered := []byte{0x90, 0xCC, 0x90, 0x90, 0xCC, 0x90, 0x90, 0x90, 0xCC, 0x90}
	shape = ScanInt3Shape(scattered)
	if shape.IsAlignmentPadding() {
		t.Errorf("scattered single-byte 0xCC should not classify as alignment padding, got %+v", shape)
	}
	if shape.Total != 3 {
		t.Errorf("Total = %d, want 3", shape.Total)
	}
	if shape.LargestRun != 1 {
		t.Errorf("LargestRun = %d, want 1", shape.LargestRun)
	}
}

func TestScanInt3ShapeTrailingRun(t *testing.T) {
	data := []byte{0x90, 0x90, 0xCC, 0xCC, 0xCC, 0xCC}
	shape := ScanInt3Shape(data)
	if shape.LargestRun != 4 {
		t.Errorf("LargestRun = %d, want 4", shape.LargestRun)
	}
	if shape.Clusters != 1 {
		t.Errorf("Clusters = %d, want 1", shape.Clusters)
	}
}
