package testutil

import (
	"strings"
	"testing"
)

func TestDBNameFor(t *testing.T) {
	if got := DBNameFor("TestList/filter by city"); got != "stratagate_test_TestList_filter_by_city" {
		t.Errorf("DBNameFor() = %q", got)
	}

	long := DBNameFor(strings.Repeat("x", 200))
	if len(long) != maxDBName {
		t.Errorf("len = %d, want %d", len(long), maxDBName)
	}
	if !strings.HasPrefix(long, TestDBName+"_") {
		t.Errorf("prefix lost: %q", long)
	}
}
