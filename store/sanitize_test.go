package store

import (
	"testing"

	"deviceloan/models"
)

func TestSanitizeFillsBlanks(t *testing.T) {
	m, err := Sanitize(map[string]any{
		"id":          "dev-1",
		"borrowNotes": "",
		"dueDate":     nil,
	})
	if err != nil {
		t.Fatal(err)
	}
	if m["id"] != "dev-1" {
		t.Fatalf("id = %v", m["id"])
	}
	if m["borrowNotes"] != models.NotSpecified {
		t.Fatalf("borrowNotes = %v", m["borrowNotes"])
	}
	if m["dueDate"] != models.NotSpecified {
		t.Fatalf("nil dueDate = %v", m["dueDate"])
	}
}

func TestSanitizeExceptionsStayBlank(t *testing.T) {
	m, err := Sanitize(models.Device{ID: "dev-1", SerialNumber: ""})
	if err != nil {
		t.Fatal(err)
	}
	// A blank serial is meaningful; the placeholder would corrupt lookups.
	if m["serialNumber"] != "" {
		t.Fatalf("serialNumber = %v", m["serialNumber"])
	}
	if m["status"] != models.NotSpecified {
		t.Fatalf("status = %v", m["status"])
	}

	m, err = Sanitize(map[string]any{"id": "dev-1", "appleId": ""})
	if err != nil {
		t.Fatal(err)
	}
	if m["appleId"] != "" {
		t.Fatalf("appleId = %v", m["appleId"])
	}
}

func TestSanitizeLeavesNestedValues(t *testing.T) {
	m, err := Sanitize(map[string]any{
		"id":          "req-1",
		"accessories": []string{"Case", "Stylus"},
		"device":      map[string]any{"name": ""},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := m["accessories"].([]any); !ok {
		t.Fatalf("accessories = %T", m["accessories"])
	}
	nested, ok := m["device"].(map[string]any)
	if !ok || nested["name"] != "" {
		t.Fatalf("nested values must pass through untouched: %v", m["device"])
	}
}

func TestSanitizeRejectsNonObjects(t *testing.T) {
	if _, err := Sanitize([]string{"not", "an", "object"}); err == nil {
		t.Fatal("want error for non-object payload")
	}
}
