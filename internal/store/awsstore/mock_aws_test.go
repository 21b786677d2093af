package awsstore

import (
	"context"
	"strconv"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dyntypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// mockDynamoDB keeps items keyed "processor|correlation_id" and understands
// the one query shape the ledger issues: key condition "#p = :p" plus an
// optional requested_at range filter.
type mockDynamoDB struct {
	mu    sync.Mutex
	items map[string]map[string]dyntypes.AttributeValue
}

func newMockDynamoDB() *mockDynamoDB {
	return &mockDynamoDB{items: map[string]map[string]dyntypes.AttributeValue{}}
}

func itemKey(item map[string]dyntypes.AttributeValue) string {
	p := item["processor"].(*dyntypes.AttributeValueMemberS).Value
	id := item["correlation_id"].(*dyntypes.AttributeValueMemberS).Value
	return p + "|" + id
}

func (m *mockDynamoDB) PutItem(_ context.Context, params *dyn.PutItemInput, _ ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[itemKey(params.Item)] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamoDB) Query(_ context.Context, params *dyn.QueryInput, _ ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wantProcessor := params.ExpressionAttributeValues[":p"].(*dyntypes.AttributeValueMemberS).Value
	bound := func(name string) (int64, bool) {
		av, ok := params.ExpressionAttributeValues[name]
		if !ok {
			return 0, false
		}
		n, _ := strconv.ParseInt(av.(*dyntypes.AttributeValueMemberN).Value, 10, 64)
		return n, true
	}
	from, hasFrom := bound(":from")
	to, hasTo := bound(":to")

	out := &dyn.QueryOutput{}
	for _, item := range m.items {
		if item["processor"].(*dyntypes.AttributeValueMemberS).Value != wantProcessor {
			continue
		}
		at, _ := strconv.ParseInt(item["requested_at"].(*dyntypes.AttributeValueMemberN).Value, 10, 64)
		if hasFrom && at < from {
			continue
		}
		if hasTo && at > to {
			continue
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}

func (m *mockDynamoDB) Scan(_ context.Context, params *dyn.ScanInput, _ ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := &dyn.ScanOutput{}
	for _, item := range m.items {
		out.Items = append(out.Items, map[string]dyntypes.AttributeValue{
			"processor":      item["processor"],
			"correlation_id": item["correlation_id"],
		})
	}
	return out, nil
}

func (m *mockDynamoDB) BatchWriteItem(_ context.Context, params *dyn.BatchWriteItemInput, _ ...func(*dyn.Options)) (*dyn.BatchWriteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, requests := range params.RequestItems {
		for _, req := range requests {
			if req.DeleteRequest != nil {
				delete(m.items, itemKey(req.DeleteRequest.Key))
			}
		}
	}
	return &dyn.BatchWriteItemOutput{}, nil
}

func (m *mockDynamoDB) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// mockSQS is a FIFO slice of message bodies. Receiving pops messages and
// hands out receipt handles; deletes are counted so tests can assert the
// backing acknowledged every message it consumed.
type mockSQS struct {
	mu      sync.Mutex
	bodies  []string
	nextID  int
	deleted int
	purged  bool
}

func newMockSQS() *mockSQS {
	return &mockSQS{}
}

func (m *mockSQS) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bodies = append(m.bodies, *params.MessageBody)
	return &sqs.SendMessageOutput{}, nil
}

func (m *mockSQS) ReceiveMessage(_ context.Context, params *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := int(params.MaxNumberOfMessages)
	if n > len(m.bodies) {
		n = len(m.bodies)
	}
	out := &sqs.ReceiveMessageOutput{}
	for i := 0; i < n; i++ {
		body := m.bodies[i]
		m.nextID++
		handle := "rh-" + strconv.Itoa(m.nextID)
		out.Messages = append(out.Messages, sqstypes.Message{
			Body:          &body,
			ReceiptHandle: &handle,
		})
	}
	m.bodies = m.bodies[n:]
	return out, nil
}

func (m *mockSQS) DeleteMessage(_ context.Context, _ *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted++
	return &sqs.DeleteMessageOutput{}, nil
}

func (m *mockSQS) PurgeQueue(_ context.Context, _ *sqs.PurgeQueueInput, _ ...func(*sqs.Options)) (*sqs.PurgeQueueOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bodies = nil
	m.purged = true
	return &sqs.PurgeQueueOutput{}, nil
}

func (m *mockSQS) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bodies)
}
