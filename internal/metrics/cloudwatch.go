package metrics

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	awsclients "github.com/imrishuroy/go-payment-relay/internal/aws"
	"github.com/imrishuroy/go-payment-relay/internal/payments"
)

// CloudWatch publishes settlement counters under the configured namespace.
// Publish failures are logged and swallowed: metrics never block or fail the
// settlement path.
type CloudWatch struct {
	client    awsclients.CloudWatchAPI
	namespace string
}

func NewCloudWatch(client awsclients.CloudWatchAPI, namespace string) *CloudWatch {
	return &CloudWatch{client: client, namespace: namespace}
}

func (c *CloudWatch) PaymentSettled(ctx context.Context, p payments.Processor) {
	c.put(ctx, "PaymentsSettled", []cwtypes.Dimension{{
		Name:  strPtr("Processor"),
		Value: strPtr(string(p)),
	}})
}

func (c *CloudWatch) RetryQueued(ctx context.Context) {
	c.put(ctx, "RetriesQueued", nil)
}

func (c *CloudWatch) put(ctx context.Context, name string, dims []cwtypes.Dimension) {
	now := time.Now()
	one := 1.0
	_, err := c.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: &c.namespace,
		MetricData: []cwtypes.MetricDatum{{
			MetricName: &name,
			Dimensions: dims,
			Timestamp:  &now,
			Unit:       cwtypes.StandardUnitCount,
			Value:      &one,
		}},
	})
	if err != nil {
		log.Printf("metrics: put %s: %v", name, err)
	}
}

func strPtr(s string) *string { return &s }
