package stac

import (
	"encoding/json"
	"testing"
)

func TestNewItemCollection(t *testing.T) {
	ic := NewItemCollection(nil)
	ic.SetMatched(42)
	ic.AddLink("self", "https://cmr.example.com/search", "application/json")

	data, err := json.Marshal(ic)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}

	if decoded["type"] != "FeatureCollection" {
		t.Errorf("type = %v, want FeatureCollection", decoded["type"])
	}
	if features, ok := decoded["features"].([]any); !ok || len(features) != 0 {
		t.Errorf("features = %v, want empty array", decoded["features"])
	}
	if decoded["numberMatched"] != float64(42) {
		t.Errorf("numberMatched = %v, want 42", decoded["numberMatched"])
	}
	if links, ok := decoded["links"].([]any); !ok || len(links) != 1 {
		t.Errorf("links = %v, want one link", decoded["links"])
	}
}

func TestNewItem(t *testing.T) {
	item := NewItem("ATL08_20190828_09290402_006_02.h5", "ATL08_006")
	if item.Version != Version {
		t.Errorf("Version = %s, want %s", item.Version, Version)
	}
	if item.Properties == nil || item.Assets == nil {
		t.Error("NewItem() should initialize properties and assets")
	}

	ic := NewItemCollection([]*Item{item})
	if ic.NumberReturned != 1 {
		t.Errorf("NumberReturned = %d, want 1", ic.NumberReturned)
	}
}
