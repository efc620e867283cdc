package logattr

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestAttrs(t *testing.T) {
	if k := Version("main").Key; k != KeyVersion {
		t.Errorf("Expected key %q but got %q", KeyVersion, k)
	}
	if v := Slug("intro").Value.String(); v != "intro" {
		t.Errorf("Expected %q but got %q", "intro", v)
	}
	if v := Status(404).Value.Int64(); v != 404 {
		t.Errorf("Expected 404 but got %d", v)
	}
	if v := Duration(1500 * time.Microsecond).Value.Float64(); math.Abs(v-1.5) > 1e-9 {
		t.Errorf("Expected 1.5ms but got %v", v)
	}
	if v := Error(errors.New("boom")).Value.String(); v != "boom" {
		t.Errorf("Expected %q but got %q", "boom", v)
	}
	if v := Error(nil).Value.String(); v != "" {
		t.Errorf("Expected empty error but got %q", v)
	}
}
