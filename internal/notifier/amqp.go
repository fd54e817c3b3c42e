package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const defaultAMQPQueue = "screening_batches"

// AMQPConfig 批次事件发布配置，URL 含凭据，只从环境变量或文件读取。
type AMQPConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	URL     string `mapstructure:"url" yaml:"-"`
	URLFile string `mapstructure:"url-file" yaml:"url_file"`
	Queue   string `mapstructure:"queue" yaml:"queue"`
}

// AMQPChannel 抽象发布所需的 channel 方法。
type AMQPChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPPublisher 把批次摘要作为 JSON 事件发布到队列。
type AMQPPublisher struct {
	channel AMQPChannel
	queue   string
	closer  func() error
}

// DialAMQPPublisher 建立连接并声明持久化队列。
func DialAMQPPublisher(cfg AMQPConfig) (*AMQPPublisher, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("amqp url required")
	}
	queue := cfg.Queue
	if queue == "" {
		queue = defaultAMQPQueue
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}

	p := NewAMQPPublisher(ch, queue)
	p.closer = func() error {
		_ = ch.Close()
		return conn.Close()
	}
	return p, nil
}

// NewAMQPPublisher 使用已有 channel 创建 publisher。
func NewAMQPPublisher(ch AMQPChannel, queue string) *AMQPPublisher {
	if queue == "" {
		queue = defaultAMQPQueue
	}
	return &AMQPPublisher{channel: ch, queue: queue}
}

func (*AMQPPublisher) Name() string { return "amqp" }

func (p *AMQPPublisher) Report(ctx context.Context, s Summary) error {
	body, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    s.RunID,
		Timestamp:    s.FinishedAt,
		Type:         "screening.batch.finished",
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish summary: %w", err)
	}
	return nil
}

// Close 关闭连接，只对 Dial 创建的 publisher 生效。
func (p *AMQPPublisher) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer()
}
