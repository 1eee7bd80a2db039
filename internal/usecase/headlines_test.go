package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestHeadlineIngestorHandle(t *testing.T) {
	ing := NewHeadlineIngestor("news.headlines", 30*time.Minute, 60, nil)

	payload := []byte(`{"source":"reuters","title":"Stocks rally on strong earnings","published_at":"2026-01-05T10:00:00Z"}`)
	if err := ing.Handle(context.Background(), payload); err != nil {
		t.Fatalf("handle: %v", err)
	}

	got := ing.Headlines(context.Background())
	if len(got) != 1 {
		t.Fatalf("expected 1 headline, got %d", len(got))
	}
	if got[0].Source != "reuters" || got[0].Title != "Stocks rally on strong earnings" {
		t.Fatalf("unexpected headline %+v", got[0])
	}
}

func TestHeadlineIngestorRejectsMalformed(t *testing.T) {
	ing := NewHeadlineIngestor("news.headlines", 30*time.Minute, 60, nil)

	if err := ing.Handle(context.Background(), []byte(`not json`)); err == nil {
		t.Fatal("expected unmarshal error")
	}
	if got := ing.Headlines(context.Background()); len(got) != 0 {
		t.Fatalf("expected empty window, got %d", len(got))
	}
}

func TestHeadlineIngestorSkipsEmptyTitle(t *testing.T) {
	ing := NewHeadlineIngestor("news.headlines", 30*time.Minute, 60, nil)

	if err := ing.Handle(context.Background(), []byte(`{"source":"x","title":""}`)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if got := ing.Headlines(context.Background()); len(got) != 0 {
		t.Fatalf("expected empty window, got %d", len(got))
	}
}

func TestHeadlineIngestorWindowEviction(t *testing.T) {
	ing := NewHeadlineIngestor("news.headlines", 30*time.Minute, 60, nil)

	base := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	now := base
	ing.now = func() time.Time { return now }

	if err := ing.Handle(context.Background(), []byte(`{"source":"a","title":"old headline"}`)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	now = base.Add(20 * time.Minute)
	if err := ing.Handle(context.Background(), []byte(`{"source":"b","title":"recent headline"}`)); err != nil {
		t.Fatalf("handle: %v", err)
	}

	now = base.Add(35 * time.Minute)
	got := ing.Headlines(context.Background())
	if len(got) != 1 {
		t.Fatalf("expected 1 headline after eviction, got %d", len(got))
	}
	if got[0].Title != "recent headline" {
		t.Fatalf("wrong survivor: %q", got[0].Title)
	}
}

func TestHeadlineIngestorCapsSize(t *testing.T) {
	ing := NewHeadlineIngestor("news.headlines", 30*time.Minute, 3, nil)

	for i := 0; i < 5; i++ {
		payload := []byte(fmt.Sprintf(`{"source":"s","title":"headline number %d"}`, i))
		if err := ing.Handle(context.Background(), payload); err != nil {
			t.Fatalf("handle %d: %v", i, err)
		}
	}

	got := ing.Headlines(context.Background())
	if len(got) != 3 {
		t.Fatalf("expected cap of 3, got %d", len(got))
	}
	if got[0].Title != "headline number 2" || got[2].Title != "headline number 4" {
		t.Fatalf("expected newest 3 kept, got %+v", got)
	}
}
