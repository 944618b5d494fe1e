package version

import "testing"

func TestVersionComparisons(t *testing.T) {
	if !IsVersionGreaterThan("0.2.0", "0.1.9") {
		t.Error("0.2.0 should be greater than 0.1.9")
	}
	if IsVersionGreaterThan("0.1.0", "0.1.0") {
		t.Error("Equal versions are not strictly greater")
	}
	if !IsVersionGreaterOrEqualThan("0.1.0", "0.1.0") {
		t.Error("Equal versions compare greater-or-equal")
	}
}

func TestGetMinorVersion(t *testing.T) {
	if got := GetMinorVersion("1.2.3"); got != "1.2" {
		t.Errorf("Unexpected minor version: %q", got)
	}
	if got := GetMinorVersion("1"); got != "1" {
		t.Errorf("Unexpected minor version: %q", got)
	}
}

func TestSortVersions(t *testing.T) {
	versions := []string{"0.10.0", "0.2.0", "0.2.1"}
	SortVersions(versions)
	if versions[0] != "0.2.0" || versions[2] != "0.10.0" {
		t.Errorf("Unexpected order: %v", versions)
	}
}
