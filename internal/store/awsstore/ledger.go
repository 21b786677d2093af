// Package awsstore backs the ledger with DynamoDB and the pending queue with
// SQS. It exists for deployments without Redis; both backings satisfy the
// interfaces in package store.
package awsstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	awsclients "github.com/imrishuroy/go-payment-relay/internal/aws"
	"github.com/imrishuroy/go-payment-relay/internal/payments"
)

// ledgerItem is the shape persisted in the ledger table, keyed
// (processor, correlation_id). Amount travels as a string so DynamoDB never
// coerces it through a float.
type ledgerItem struct {
	Processor     string `dynamodbav:"processor"`      // PK
	CorrelationID string `dynamodbav:"correlation_id"` // SK
	Amount        string `dynamodbav:"amount"`
	RequestedAt   int64  `dynamodbav:"requested_at"` // unix millis
}

// Ledger implements store.Ledger on a DynamoDB table.
type Ledger struct {
	client awsclients.DynamoDBAPI
	table  string
}

func NewLedger(client awsclients.DynamoDBAPI, table string) *Ledger {
	return &Ledger{client: client, table: table}
}

// Record writes the entry keyed by (processor, correlation id). A plain
// overwrite put: re-recording the same settlement replaces the item with
// identical contents, so retries cannot double count.
func (l *Ledger) Record(ctx context.Context, e payments.LedgerEntry) error {
	item, err := attributevalue.MarshalMap(ledgerItem{
		Processor:     string(e.Processor),
		CorrelationID: e.CorrelationID.String(),
		Amount:        e.Amount.String(),
		RequestedAt:   e.RequestedAt.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("marshal ledger item: %w", err)
	}

	_, err = l.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &l.table,
		Item:      item,
	})
	if err != nil {
		return wrapAWS("put ledger item", err)
	}
	return nil
}

func (l *Ledger) Summarize(ctx context.Context, from, to *time.Time) (payments.SummaryResponse, error) {
	resp := payments.NewSummaryResponse()

	var err error
	if resp.Default, err = l.summarizeProcessor(ctx, payments.ProcessorDefault, from, to); err != nil {
		return resp, err
	}
	if resp.Fallback, err = l.summarizeProcessor(ctx, payments.ProcessorFallback, from, to); err != nil {
		return resp, err
	}
	return resp, nil
}

func (l *Ledger) summarizeProcessor(ctx context.Context, p payments.Processor, from, to *time.Time) (payments.Summary, error) {
	summary := payments.Summary{TotalAmount: decimal.Zero}

	input := &dyn.QueryInput{
		TableName:                &l.table,
		KeyConditionExpression:   strPtr("#p = :p"),
		ExpressionAttributeNames: map[string]string{"#p": "processor"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p": &types.AttributeValueMemberS{Value: string(p)},
		},
	}
	// requested_at bounds are inclusive on both ends.
	switch {
	case from != nil && to != nil:
		input.FilterExpression = strPtr("requested_at BETWEEN :from AND :to")
		input.ExpressionAttributeValues[":from"] = millisAttr(*from)
		input.ExpressionAttributeValues[":to"] = millisAttr(*to)
	case from != nil:
		input.FilterExpression = strPtr("requested_at >= :from")
		input.ExpressionAttributeValues[":from"] = millisAttr(*from)
	case to != nil:
		input.FilterExpression = strPtr("requested_at <= :to")
		input.ExpressionAttributeValues[":to"] = millisAttr(*to)
	}

	for {
		out, err := l.client.Query(ctx, input)
		if err != nil {
			return payments.Summary{}, wrapAWS(fmt.Sprintf("query ledger (%s)", p), err)
		}
		for _, raw := range out.Items {
			var item ledgerItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return payments.Summary{}, fmt.Errorf("unmarshal ledger item: %w", err)
			}
			amount, err := decimal.NewFromString(item.Amount)
			if err != nil {
				return payments.Summary{}, fmt.Errorf("parse ledger amount %q: %w", item.Amount, err)
			}
			summary.TotalRequests++
			summary.TotalAmount = summary.TotalAmount.Add(amount)
		}
		if out.LastEvaluatedKey == nil {
			return summary, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// Purge scans the key attributes and batch-deletes everything, 25 at a time
// (the BatchWriteItem ceiling).
func (l *Ledger) Purge(ctx context.Context) error {
	scan := &dyn.ScanInput{
		TableName:                &l.table,
		ProjectionExpression:     strPtr("#p, correlation_id"),
		ExpressionAttributeNames: map[string]string{"#p": "processor"},
	}

	for {
		out, err := l.client.Scan(ctx, scan)
		if err != nil {
			return wrapAWS("scan ledger for purge", err)
		}

		for start := 0; start < len(out.Items); start += 25 {
			end := min(start+25, len(out.Items))
			requests := make([]types.WriteRequest, 0, end-start)
			for _, key := range out.Items[start:end] {
				requests = append(requests, types.WriteRequest{
					DeleteRequest: &types.DeleteRequest{Key: key},
				})
			}
			_, err := l.client.BatchWriteItem(ctx, &dyn.BatchWriteItemInput{
				RequestItems: map[string][]types.WriteRequest{l.table: requests},
			})
			if err != nil {
				return wrapAWS("batch delete ledger items", err)
			}
		}

		if out.LastEvaluatedKey == nil {
			return nil
		}
		scan.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func millisAttr(t time.Time) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(t.UnixMilli(), 10)}
}

func strPtr(s string) *string { return &s }
