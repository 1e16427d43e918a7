// pkg/messaging/nats.go
package messaging

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// StreamName 情绪数据流
	StreamName = "SENTIMENT_STREAM"

	SubjectStage         = "sentiment.stage"
	SubjectLadder        = "sentiment.ladder"
	SubjectPremium       = "sentiment.premium"
	SubjectBacktestSaved = "backtest.saved"
)

// NATSClient NATS JetStream客户端
type NATSClient struct {
	conn      *nats.Conn
	jetStream jetstream.JetStream
	natsURL   string
	ctx       context.Context
	cancel    context.CancelFunc
	consumers map[string]jetstream.ConsumeContext
	mu        sync.RWMutex
}

// MessageHandler 消息处理函数
type MessageHandler func(subject string, data []byte) error

// NewNATSClient 连接NATS并确保情绪数据流存在
func NewNATSClient(natsURL string) (*NATSClient, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("sentiment-radar"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("[messaging] NATS连接断开: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Println("[messaging] NATS重新连接成功")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("连接NATS失败: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("创建JetStream失败: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	client := &NATSClient{
		conn:      nc,
		jetStream: js,
		natsURL:   natsURL,
		ctx:       ctx,
		cancel:    cancel,
		consumers: make(map[string]jetstream.ConsumeContext),
	}

	if err := client.CreateStream(StreamConfig()); err != nil {
		log.Printf("[messaging] 警告: %v", err)
	}
	return client, nil
}

// StreamConfig 情绪数据流配置，保留7天
func StreamConfig() jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{"sentiment.*", "backtest.*"},
		Description: "情绪周期与回测数据流",
		Retention:   jetstream.LimitsPolicy,
		MaxMsgs:     50000,
		MaxBytes:    100 * 1024 * 1024,
		MaxAge:      7 * 24 * time.Hour,
	}
}

// Encode []byte 和 string 原样发送，其余按JSON编码
func Encode(data interface{}) ([]byte, error) {
	switch v := data.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	case nil:
		return nil, errors.New("消息内容为空")
	default:
		payload, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("序列化数据失败: %w", err)
		}
		return payload, nil
	}
}

// Decode 解析JSON消息
func Decode(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// Publish 发布消息到指定主题
func (c *NATSClient) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := Encode(data)
	if err != nil {
		return err
	}

	if _, err := c.jetStream.Publish(ctx, subject, payload); err != nil {
		return fmt.Errorf("发布消息到 %s 失败: %w", subject, err)
	}
	log.Printf("[messaging] 发布消息到主题: %s, 数据大小: %d bytes", subject, len(payload))
	return nil
}

// Subscribe 以持久消费者订阅主题，只接收订阅之后的新消息
func (c *NATSClient) Subscribe(consumerName, filterSubject string, handler MessageHandler) error {
	consumer, err := c.jetStream.CreateOrUpdateConsumer(c.ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       consumerName,
		Description:   fmt.Sprintf("%s 消费者", consumerName),
		FilterSubject: filterSubject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
		ReplayPolicy:  jetstream.ReplayInstantPolicy,
	})
	if err != nil {
		return fmt.Errorf("创建消费者 %s 失败: %w", consumerName, err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		if err := handler(msg.Subject(), msg.Data()); err != nil {
			log.Printf("[messaging] 消费者 %s 处理消息失败: %v", consumerName, err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("启动消费者 %s 失败: %w", consumerName, err)
	}

	c.mu.Lock()
	if old, ok := c.consumers[consumerName]; ok {
		old.Stop()
	}
	c.consumers[consumerName] = cc
	c.mu.Unlock()

	log.Printf("[messaging] 已订阅 %s (Consumer: %s)", filterSubject, consumerName)
	return nil
}

// CreateStream 创建或更新Stream
func (c *NATSClient) CreateStream(config jetstream.StreamConfig) error {
	if _, err := c.jetStream.CreateOrUpdateStream(c.ctx, config); err != nil {
		return fmt.Errorf("创建Stream %s 失败: %w", config.Name, err)
	}
	log.Printf("[messaging] Stream %s 设置成功", config.Name)
	return nil
}

// Close 停止消费者并关闭连接
func (c *NATSClient) Close() error {
	c.cancel()

	c.mu.Lock()
	for name, cc := range c.consumers {
		cc.Stop()
		delete(c.consumers, name)
	}
	c.mu.Unlock()

	if c.conn != nil {
		if err := c.conn.Drain(); err != nil {
			c.conn.Close()
		}
	}
	log.Println("[messaging] NATS连接已关闭")
	return nil
}

// IsConnected 检查连接状态
func (c *NATSClient) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

// NopPublisher 未配置NATS时使用，丢弃所有消息
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	return nil
}
