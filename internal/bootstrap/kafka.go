package bootstrap

import (
	"github.com/kedr891/skin-portfolio/config"
	"github.com/kedr891/skin-portfolio/pkg/kafka"
)

type Producers struct {
	SkinDiscovered *kafka.Producer
	GroupValuation *kafka.Producer
}

// InitProducers - пустой Producers, если брокеры не заданы
func InitProducers(cfg *config.Config) (*Producers, error) {
	if !cfg.KafkaEnabled() {
		return &Producers{}, nil
	}

	discoveryProducer, err := kafka.NewProducer(
		cfg.Kafka.Brokers,
		cfg.Kafka.TopicSkinDiscovered,
		kafka.WithBatchSize(20),
	)
	if err != nil {
		return nil, err
	}

	valuationProducer, err := kafka.NewProducer(
		cfg.Kafka.Brokers,
		cfg.Kafka.TopicGroupValuation,
	)
	if err != nil {
		discoveryProducer.Close()
		return nil, err
	}

	return &Producers{
		SkinDiscovered: discoveryProducer,
		GroupValuation: valuationProducer,
	}, nil
}

func (p *Producers) Close() {
	if p.SkinDiscovered != nil {
		p.SkinDiscovered.Close()
	}
	if p.GroupValuation != nil {
		p.GroupValuation.Close()
	}
}
