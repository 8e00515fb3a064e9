package eventbus

import (
	"context"
	"testing"

	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
)

func TestHubDeliversToEverySubscriber(t *testing.T) {
	hub := NewHub(4, nil)
	first, cancelFirst := hub.Subscribe()
	second, cancelSecond := hub.Subscribe()
	defer cancelSecond()

	event := domain.Event{Kind: domain.EventDocumentsLoaded, Models: 3}
	if err := hub.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if got := <-first; got.Kind != domain.EventDocumentsLoaded || got.Models != 3 {
		t.Fatalf("unexpected event %+v", got)
	}
	if got := <-second; got.Models != 3 {
		t.Fatalf("unexpected event %+v", got)
	}

	cancelFirst()
	cancelFirst()
	if _, ok := <-first; ok {
		t.Fatalf("expected closed channel after cancel")
	}
	if hub.Subscribers() != 1 {
		t.Fatalf("expected one subscriber, got %d", hub.Subscribers())
	}
}

func TestHubDropsWhenSubscriberIsFull(t *testing.T) {
	hub := NewHub(1, nil)
	ch, cancel := hub.Subscribe()
	defer cancel()

	_ = hub.Publish(context.Background(), domain.Event{Kind: domain.EventDocumentsLoaded})
	_ = hub.Publish(context.Background(), domain.Event{Kind: domain.EventLoadFailed})

	if got := <-ch; got.Kind != domain.EventDocumentsLoaded {
		t.Fatalf("expected first event to be kept, got %+v", got)
	}
	select {
	case got := <-ch:
		t.Fatalf("expected second event to be dropped, got %+v", got)
	default:
	}
}
