package rabbitmq

import (
	"github.com/streadway/amqp"

	"github.com/inspec-ai/account-service/internal/models"
)

// Publisher pushes decision events onto the account exchange.
type Publisher struct {
	ch *amqp.Channel
}

// NewPublisher wraps an open channel.
func NewPublisher(ch *amqp.Channel) *Publisher {
	return &Publisher{ch: ch}
}

// PublishDecision sends one decision event to the decision queue.
func (p *Publisher) PublishDecision(e models.DecisionEvent) error {
	return PublishMessage(p.ch, Exchange, DecisionRoutingKey, e)
}
