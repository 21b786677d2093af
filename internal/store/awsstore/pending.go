package awsstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	awsclients "github.com/imrishuroy/go-payment-relay/internal/aws"
	"github.com/imrishuroy/go-payment-relay/internal/payments"
)

// sqsMaxReceive is the SQS ceiling on messages per receive call.
const sqsMaxReceive = 10

// PendingQueue implements store.PendingQueue on an SQS queue.
type PendingQueue struct {
	client   awsclients.SQSAPI
	queueURL string
}

func NewPendingQueue(client awsclients.SQSAPI, queueURL string) *PendingQueue {
	return &PendingQueue{client: client, queueURL: queueURL}
}

func (q *PendingQueue) Push(ctx context.Context, p payments.PendingPayment) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal pending payment: %w", err)
	}
	bodyStr := string(body)

	_, err = q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    &q.queueURL,
		MessageBody: &bodyStr,
	})
	if err != nil {
		return wrapAWS("send pending message", err)
	}
	return nil
}

// PopBatch receives and deletes up to max messages. Receipt-handle deletion
// keeps the pop atomic per message: two sweepers cannot both consume one.
func (q *PendingQueue) PopBatch(ctx context.Context, max int) ([]payments.PendingPayment, error) {
	if max > sqsMaxReceive {
		max = sqsMaxReceive
	}
	out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            &q.queueURL,
		MaxNumberOfMessages: int32(max),
	})
	if err != nil {
		return nil, wrapAWS("receive pending messages", err)
	}

	batch := make([]payments.PendingPayment, 0, len(out.Messages))
	for _, msg := range out.Messages {
		var p payments.PendingPayment
		if msg.Body == nil {
			continue
		}
		if err := json.Unmarshal([]byte(*msg.Body), &p); err != nil {
			log.Printf("awsstore: dropping malformed pending entry: %v", err)
		} else {
			batch = append(batch, p)
		}
		_, derr := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
			QueueUrl:      &q.queueURL,
			ReceiptHandle: msg.ReceiptHandle,
		})
		if derr != nil {
			// The entry was already captured; a failed delete only means a
			// later duplicate receive, which the ledger absorbs.
			log.Printf("awsstore: delete pending message: %v", derr)
		}
	}
	return batch, nil
}

func (q *PendingQueue) Purge(ctx context.Context) error {
	_, err := q.client.PurgeQueue(ctx, &sqs.PurgeQueueInput{QueueUrl: &q.queueURL})
	if err != nil {
		return wrapAWS("purge pending queue", err)
	}
	return nil
}
