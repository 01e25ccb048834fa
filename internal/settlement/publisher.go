package settlement

import (
	"context"
	"encoding/json"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/nmoreau/galleria-backend/internal/collection"
	"github.com/nmoreau/galleria-backend/pkg/logger"
	pkgpubsub "github.com/nmoreau/galleria-backend/pkg/pubsub"
)

const publishTimeout = 10 * time.Second

type pubsubPublisher struct {
	client *pkgpubsub.Client
	logg   *logger.Logger
}

// NewPubSubPublisher emits collection.updated events on the configured topic.
// Publish failures are logged and dropped; consumers fall back to the cache
// TTL.
func NewPubSubPublisher(client *pkgpubsub.Client, logg *logger.Logger) EventPublisher {
	if client == nil {
		return nil
	}
	return &pubsubPublisher{client: client, logg: logg}
}

func (p *pubsubPublisher) PublishCollectionUpdated(ctx context.Context, event collection.UpdatedEvent) {
	pub := p.client.CollectionPublisher()
	if pub == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logg.Warn(ctx, "marshal collection event failed: "+err.Error())
		return
	}

	msg := &gcppubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"event_type": "collection.updated",
			"artwork_id": event.ArtworkID.String(),
		},
	}

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	result := pub.Publish(publishCtx, msg)
	go func() {
		defer cancel()
		if _, err := result.Get(publishCtx); err != nil {
			p.logg.Warn(publishCtx, "publish collection event failed: "+err.Error())
		}
	}()
}
