package matchpublisherv1

import "context"

// MatchPublisher publishes a fill event to the fill-reporting topic.
type MatchPublisher interface {
	PublishMatchEvent(ctx context.Context, event *FillEvent) error
}
