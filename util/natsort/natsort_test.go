package natsort

import (
	"reflect"
	"testing"
)

func TestNumericRunsCompareByValue(t *testing.T) {
	names := []string{"page10.jpg", "page2.jpg", "page1.jpg"}
	Sort(names)
	want := []string{"page1.jpg", "page2.jpg", "page10.jpg"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("got %v, want %v", names, want)
	}
}

func TestCaseFold(t *testing.T) {
	names := []string{"Page2.jpg", "page10.jpg", "PAGE1.jpg"}
	Sort(names)
	want := []string{"PAGE1.jpg", "Page2.jpg", "page10.jpg"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("got %v, want %v", names, want)
	}
}

func TestMixedPadding(t *testing.T) {
	names := []string{"100.png", "3.png", "20.png", "1.png"}
	Sort(names)
	want := []string{"1.png", "3.png", "20.png", "100.png"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("got %v, want %v", names, want)
	}
}

func TestLessIsStrict(t *testing.T) {
	if Less("a.jpg", "a.jpg") {
		t.Error("Less must be false for equal inputs")
	}
	if Less("10.jpg", "2.jpg") {
		t.Error("10 must not sort before 2")
	}
}
