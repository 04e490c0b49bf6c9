package feed

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewEnvelope_Empty(t *testing.T) {
	env := NewEnvelope[ManifestEntry](Page{HasNextPage: false}, nil)
	if env.Next != "" || env.More {
		t.Errorf("unexpected continuation: %+v", env)
	}
	data, err := json.Marshal(env)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"more":false,"next":"","objects":[]}` {
		t.Errorf("json = %s", data)
	}
}

func TestNewEnvelope_LastCursor(t *testing.T) {
	t1 := time.UnixMilli(1000).UTC()
	t2 := time.UnixMilli(2000).UTC()
	page := Page{
		Edges: []Edge{
			{Cursor: "a", Node: Node{UpdatedAt: t1}},
			{Cursor: "b", Node: Node{UpdatedAt: t2}},
		},
		HasNextPage: true,
	}
	env := NewEnvelope(page, []string{"x", "y"})
	if env.Next != "b" || !env.More {
		t.Errorf("unexpected continuation: %+v", env)
	}
	if !env.DateAddedFirst.Equal(t1) || !env.DateAddedLast.Equal(t2) {
		t.Errorf("unexpected date bounds: %v %v", env.DateAddedFirst, env.DateAddedLast)
	}
}

func TestNewManifestEntry(t *testing.T) {
	e := NewManifestEntry(Node{
		InternalID: "i1",
		StandardID: "indicator--8e2e2d2b-17d4-4cbf-938f-98ee46b3cd3f",
		UpdatedAt:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	if e.ID != "indicator--8e2e2d2b-17d4-4cbf-938f-98ee46b3cd3f" {
		t.Errorf("ID = %q", e.ID)
	}
	if e.DateAdded != "2024-01-02T03:04:05.000Z" || e.Version != e.DateAdded {
		t.Errorf("dates = %q / %q", e.DateAdded, e.Version)
	}
	if e.MediaType != "application/stix+json;version=2.1" {
		t.Errorf("MediaType = %q", e.MediaType)
	}
}

func TestFilterSchema_EntityTypeTargetsParentTypes(t *testing.T) {
	f, ok := FilterSchema()["entity_type"]
	if !ok || f.Name != FieldParentTypes {
		t.Errorf("entity_type -> %+v", f)
	}
}
