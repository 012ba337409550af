package pubsub

import (
	"context"
	"testing"

	"github.com/angelmondragon/packfinderz-settlement/pkg/config"
)

func TestResourceName(t *testing.T) {
	cases := []struct {
		project, kind, name, want string
	}{
		{"proj", "topics", "pf-settlement-events", "projects/proj/topics/pf-settlement-events"},
		{"proj", "subscriptions", " audit ", "projects/proj/subscriptions/audit"},
		{"proj", "topics", "projects/other/topics/t", "projects/other/topics/t"},
		{"", "topics", "t", ""},
		{"proj", "topics", "", ""},
	}
	for _, tc := range cases {
		if got := ResourceName(tc.project, tc.kind, tc.name); got != tc.want {
			t.Errorf("ResourceName(%q,%q,%q) = %q, want %q", tc.project, tc.kind, tc.name, got, tc.want)
		}
	}
}

func TestNewClientValidatesConfig(t *testing.T) {
	ctx := context.Background()
	if _, err := NewClient(ctx, config.GCPConfig{}, config.PubSubConfig{SettlementTopic: "t"}, nil); err != errProjectIDRequired {
		t.Fatalf("expected project id error, got %v", err)
	}
	if _, err := NewClient(ctx, config.GCPConfig{ProjectID: "p"}, config.PubSubConfig{}, nil); err != errTopicRequired {
		t.Fatalf("expected topic error, got %v", err)
	}
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	if c.Publisher("t") != nil {
		t.Fatal("nil client must not return a publisher")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error on nil client")
	}
}
