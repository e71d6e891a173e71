// Package kafka consumes chat commands from the gateway's command topic.
// Each message is one user-issued command for one room; commands are
// processed in arrival order per partition, no batching.
package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/bitefight-arena/internal/config"
	"github.com/bitefight-arena/internal/domain"
)

// Command types understood from the chat gateway.
const (
	CommandStart = "start"
	CommandJoin  = "join"
	CommandBegin = "begin"
	CommandStop  = "stop"
)

// ChatCommand is one user command relayed by the chat gateway.
type ChatCommand struct {
	Type   string        `json:"type"`
	RoomID string        `json:"room_id"`
	Player domain.Player `json:"player"`
}

// CommandHandler executes chat commands against the game.
type CommandHandler interface {
	StartLobby(ctx context.Context, roomID string, host domain.Player) (domain.LobbyInfo, error)
	Join(ctx context.Context, roomID string, player domain.Player) (int, error)
	Begin(ctx context.Context, roomID string) error
	Stop(ctx context.Context, roomID, reason string) error
}

// Consumer consumes chat commands from Kafka
type Consumer struct {
	config        *config.KafkaConfig
	handler       CommandHandler
	logger        *slog.Logger
	consumerGroup sarama.ConsumerGroup
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	ready         chan bool
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(cfg *config.KafkaConfig, handler CommandHandler, logger *slog.Logger) (*Consumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_0_0_0
	saramaConfig.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaConfig.Consumer.Return.Errors = true

	consumerGroup, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaConfig)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Consumer{
		config:        cfg,
		handler:       handler,
		logger:        logger,
		consumerGroup: consumerGroup,
		ctx:           ctx,
		cancel:        cancel,
		ready:         make(chan bool),
	}, nil
}

// Start begins consuming commands from Kafka
func (c *Consumer) Start() error {
	c.logger.Info("starting Kafka consumer",
		"brokers", c.config.Brokers,
		"topic", c.config.Topic,
		"group_id", c.config.GroupID,
	)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			handler := &consumerGroupHandler{
				consumer: c,
				ready:    c.ready,
			}

			if err := c.consumerGroup.Consume(c.ctx, []string{c.config.Topic}, handler); err != nil {
				if err == sarama.ErrClosedConsumerGroup {
					return
				}
				c.logger.Error("error from consumer", "error", err)
			}

			// Check if context was cancelled
			if c.ctx.Err() != nil {
				return
			}

			c.ready = make(chan bool)
		}
	}()

	// Wait until consumer is ready
	<-c.ready
	c.logger.Info("Kafka consumer ready")

	// Handle errors in separate goroutine
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-c.ctx.Done():
				return
			case err, ok := <-c.consumerGroup.Errors():
				if !ok {
					return
				}
				c.logger.Error("consumer group error", "error", err)
			}
		}
	}()

	return nil
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() error {
	c.logger.Info("stopping Kafka consumer")
	c.cancel()
	c.wg.Wait()
	return c.consumerGroup.Close()
}

// dispatch runs one command against the game. Errors are expected here,
// users mistype commands constantly; they are logged, never fatal.
func (c *Consumer) dispatch(cmd ChatCommand) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	switch cmd.Type {
	case CommandStart:
		_, err = c.handler.StartLobby(ctx, cmd.RoomID, cmd.Player)
	case CommandJoin:
		_, err = c.handler.Join(ctx, cmd.RoomID, cmd.Player)
	case CommandBegin:
		err = c.handler.Begin(ctx, cmd.RoomID)
	case CommandStop:
		err = c.handler.Stop(ctx, cmd.RoomID, "stopped from chat")
	default:
		c.logger.Debug("ignoring unknown command", "type", cmd.Type)
		return
	}
	if err != nil {
		c.logger.Info("command rejected",
			"type", cmd.Type,
			"room_id", cmd.RoomID,
			"player_id", cmd.Player.ID,
			"error", err,
		)
	}
}

// consumerGroupHandler implements sarama.ConsumerGroupHandler
type consumerGroupHandler struct {
	consumer *Consumer
	ready    chan bool
}

// Setup is called at the beginning of a new session
func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	close(h.ready)
	return nil
}

// Cleanup is called at the end of a session
func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim processes commands from a topic partition
func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case <-session.Context().Done():
			return nil

		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			var cmd ChatCommand
			if err := json.Unmarshal(message.Value, &cmd); err != nil {
				h.consumer.logger.Warn("failed to unmarshal command",
					"error", err,
					"offset", message.Offset,
					"partition", message.Partition,
				)
				session.MarkMessage(message, "")
				continue
			}

			if cmd.RoomID == "" || cmd.Type == "" {
				h.consumer.logger.Warn("invalid command",
					"type", cmd.Type,
					"room_id", cmd.RoomID,
				)
				session.MarkMessage(message, "")
				continue
			}

			h.consumer.dispatch(cmd)
			session.MarkMessage(message, "")
		}
	}
}
