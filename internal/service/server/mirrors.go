package server

import (
	"context"

	"github.com/go-redis/redis/v8"

	"github.com/oshokin/site-environment/internal/config"
	"github.com/oshokin/site-environment/internal/logger"
	"github.com/oshokin/site-environment/internal/mqtt"
	"github.com/oshokin/site-environment/internal/persistence"
	"github.com/oshokin/site-environment/internal/repository/document"
	"github.com/oshokin/site-environment/internal/service/common"
	"github.com/oshokin/site-environment/internal/version"
)

// mirrorSet holds the optional secondary stores of one run.
type mirrorSet struct {
	redisClient *redis.Client
	redisRepo   *document.RedisRepository
	publisher   mqtt.Publisher
}

// buildMirrors connects every configured mirror. A mirror that cannot be set
// up is logged and skipped.
func buildMirrors(ctx context.Context, cfg *config.Config, id *common.Identity, opts *Options) *mirrorSet {
	m := new(mirrorSet)

	if cfg.Redis.Enabled() {
		m.redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		m.redisRepo = document.NewRedisRepository(m.redisClient, cfg.Redis.Key, cfg.Redis.TTL)

		removeCtx, cancel := context.WithTimeout(ctx, cfg.WriteTimeout)
		if err := m.redisRepo.Remove(removeCtx); err != nil {
			logger.WarnKV(ctx, "Could not remove stale Redis document", "key", m.redisRepo.Key(), "error", err)
		}

		cancel()

		logger.InfoKV(ctx, "Mirroring document to Redis", "addr", cfg.Redis.Addr, "key", m.redisRepo.Key())
	}

	if cfg.MQTT.Enabled() {
		newPublisher := opts.NewPublisher
		if newPublisher == nil {
			newPublisher = func(o mqtt.Options) (mqtt.Publisher, error) {
				return mqtt.NewRealPublisher(o)
			}
		}

		clientID := cfg.MQTT.ClientID
		if clientID == "" {
			clientID = id.ClientID(version.Name)
		}

		publisher, err := newPublisher(mqtt.Options{
			Broker:   cfg.MQTT.Broker,
			ClientID: clientID,
			Topic:    cfg.MQTT.Topic,
			QoS:      cfg.MQTT.QoS,
			Retained: cfg.MQTT.Retained,
		})
		if err != nil {
			logger.WarnKV(ctx, "MQTT publisher disabled", "broker", cfg.MQTT.Broker, "error", err)
		} else {
			m.publisher = publisher

			logger.InfoKV(ctx, "Publishing document over MQTT",
				"broker", cfg.MQTT.Broker, "topic", cfg.MQTT.Topic, "client_id", clientID)
		}
	}

	return m
}

// writerOptions registers the connected mirrors with a persistence.Writer.
func (m *mirrorSet) writerOptions() []persistence.Option {
	opts := make([]persistence.Option, 0, 2)

	if m.redisRepo != nil {
		opts = append(opts, persistence.WithMirror("redis", m.redisRepo))
	}

	if m.publisher != nil {
		opts = append(opts, persistence.WithMirror("mqtt", persistence.SaverFunc(m.publisher.Publish)))
	}

	return opts
}

// close withdraws mirrored documents and releases connections.
func (m *mirrorSet) close(ctx context.Context) {
	if m.redisRepo != nil {
		if err := m.redisRepo.Remove(ctx); err != nil {
			logger.WarnKV(ctx, "Could not remove Redis document", "key", m.redisRepo.Key(), "error", err)
		}

		_ = m.redisClient.Close()
	}

	if m.publisher != nil {
		if err := m.publisher.Clear(ctx); err != nil {
			logger.WarnKV(ctx, "Could not clear retained MQTT document", "error", err)
		}

		_ = m.publisher.Close()
	}
}
