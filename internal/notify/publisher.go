package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/libreria-pagine/turni/backend/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel 是 *amqp.Channel 中发布消息的部分
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Publisher struct {
	ch      Channel
	queue   string
	timeout time.Duration
}

func NewPublisher(ch Channel, queue string, timeout time.Duration) *Publisher {
	return &Publisher{
		ch:      ch,
		queue:   queue,
		timeout: timeout,
	}
}

// DeclareQueue 声明持久化的邮件队列，api 和 mail worker 启动时都会调用
func DeclareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		name,  // 队列名称
		true,  // 是否持久化
		false, // 是否自动删除，设置为 false 可以避免没有消费者的时候自动删除队列
		false, // 是否独占
		false, // 是否不等待
		nil,   // 额外参数
	)
}

func (p *Publisher) Publish(ctx context.Context, msg domain.MailMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.ch.PublishWithContext(
		ctx,
		"",
		p.queue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

/**
 * PlanMessages 为每个关联了排班表员工的在职用户生成一封排班通知
 * 没有任何班次的员工也会收到邮件，total 为 0
 */
func PlanMessages(month domain.Month, users []*domain.User, shifts []*domain.Shift) []domain.MailMessage {
	messages := make([]domain.MailMessage, 0, len(users))
	for _, user := range users {
		if !user.IsActive || user.WorkerName == "" {
			continue
		}

		data := domain.ShiftPlanGeneratedMailData{
			FullName:   user.FullName,
			Month:      month.String(),
			Mornings:   make([]string, 0),
			Afternoons: make([]string, 0),
		}
		for _, shift := range shifts {
			if shift.MorningShift == user.WorkerName {
				data.Mornings = append(data.Mornings, shift.Date)
			}
			if shift.AfternoonShift == user.WorkerName {
				data.Afternoons = append(data.Afternoons, shift.Date)
			}
		}
		data.Total = len(data.Mornings) + len(data.Afternoons)

		messages = append(messages, domain.MailMessage{
			Type: domain.MailTypeShiftPlanGenerated,
			To:   user.Email,
			Data: data,
		})
	}

	return messages
}
