package telemetry

import "testing"

func TestParseStatus(t *testing.T) {
	for _, st := range Statuses {
		got, err := ParseStatus(string(st))
		if err != nil {
			t.Errorf("ParseStatus(%q) returned error: %v", st, err)
		}
		if got != st {
			t.Errorf("ParseStatus(%q) = %q", st, got)
		}
	}
	if len(Statuses) != 10 {
		t.Errorf("expected 10 statuses, got %d", len(Statuses))
	}
}

func TestParseStatusRejectsUnknown(t *testing.T) {
	for _, bad := range []string{"", "flying", "in flight", "IN FLIGHT", "Exploded"} {
		if _, err := ParseStatus(bad); err == nil {
			t.Errorf("ParseStatus(%q) should fail", bad)
		}
	}
}

func TestRecordTableName(t *testing.T) {
	orig := TableName
	TableName = "custom"
	defer func() { TableName = orig }()
	if (Record{}).TableName() != "custom" {
		t.Errorf("expected custom table name, got %s", (Record{}).TableName())
	}
}
