package cache

import (
	"context"
	"fmt"
	"time"

	"dajtovon/internal/observability"
)

const (
	StatsKeyPrefix    = "content:%s:stats"
	WSTicketKeyPrefix = "ws_ticket:%s"
)

const (
	StatsTTL    = 60 * time.Second
	WSTicketTTL = 30 * time.Second
)

func StatsKey(contentID string) string {
	return fmt.Sprintf(StatsKeyPrefix, contentID)
}

func WSTicketKey(ticket string) string {
	return fmt.Sprintf(WSTicketKeyPrefix, ticket)
}

// InvalidateStats drops the cached stats document of a content item.
func InvalidateStats(ctx context.Context, contentID string) {
	Invalidate(ctx, StatsKey(contentID))
}

// StoreTicket saves a single-use WebSocket ticket bound to identity.
func StoreTicket(ctx context.Context, ticket, identity string, ttl time.Duration) (err error) {
	if client == nil {
		return ErrUnavailable
	}
	ctx, span := observability.TraceRedisOperation(ctx, "set_ticket")
	defer func() { observability.EndSpan(span, err) }()

	return client.Set(ctx, WSTicketKey(ticket), identity, ttl).Err()
}

// ConsumeTicket atomically reads and deletes a ticket. It returns "" when the
// ticket is unknown, expired or already used.
func ConsumeTicket(ctx context.Context, ticket string) (_ string, err error) {
	if client == nil {
		return "", ErrUnavailable
	}
	ctx, span := observability.TraceRedisOperation(ctx, "consume_ticket")
	defer func() { observability.EndSpan(span, err) }()

	identity, err := client.GetDel(ctx, WSTicketKey(ticket)).Result()
	if isNil(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return identity, nil
}
