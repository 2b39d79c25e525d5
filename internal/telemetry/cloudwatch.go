// Package telemetry publishes request and checkout metrics to CloudWatch.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/lucascsr96/SynkCamp/internal/checkout"
	"github.com/lucascsr96/SynkCamp/internal/config"
	"github.com/lucascsr96/SynkCamp/internal/types"
)

const defaultPutTimeout = 2 * time.Second

// eventTypeOther replaces any webhook event type not listed in
// trackedEventTypes, keeping the EventType dimension bounded.
const eventTypeOther = "other"

var trackedEventTypes = map[string]bool{
	checkout.EventTypeCheckoutCompleted: true,
	"unknown":                           true,
}

// CloudWatchClient is the subset of the CloudWatch SDK client used here.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Collector is everything the service records. It satisfies
// core.MetricsCollector and checkout.Recorder.
type Collector interface {
	RecordRequest(ctx context.Context, method, endpoint, status string, duration time.Duration)
	RecordCheckout(ctx context.Context, success bool)
	RecordWebhookOutcome(ctx context.Context, eventType string, outcome string)
}

// CloudWatchCollector publishes metrics with PutMetricData. Inside a batch
// started by StartBatch, observations are held and sent in one call when the
// batch is flushed; outside one, each observation is sent on its own.
// Publishing failures are logged and never surface to the caller.
//
// Metrics emitted:
//   - APIRequestCount, APILatency: Dims {Method, Endpoint, Status}
//   - CheckoutSessionCreated / CheckoutSessionFailed: no dims
//   - WebhookOutcome: Dims {EventType, Outcome}; EventType is
//     checkout.session.completed, unknown or other
type CloudWatchCollector struct {
	client     CloudWatchClient
	namespace  string
	logger     *slog.Logger
	putTimeout time.Duration
}

var _ Collector = (*CloudWatchCollector)(nil)

// NewCloudWatchCollector creates a collector publishing under namespace.
func NewCloudWatchCollector(client CloudWatchClient, namespace string, logger *slog.Logger) *CloudWatchCollector {
	if namespace == "" {
		namespace = types.DefaultMetricNamespace
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchCollector{
		client:     client,
		namespace:  namespace,
		logger:     logger,
		putTimeout: defaultPutTimeout,
	}
}

// New returns a CloudWatch collector when METRICS_ENABLED is set and a
// NoopCollector otherwise.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Collector, error) {
	if !cfg.Metrics.Enabled {
		return NoopCollector{}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, err
	}
	client := cloudwatch.NewFromConfig(awsCfg, func(o *cloudwatch.Options) {
		if cfg.AWS.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
		}
	})
	return NewCloudWatchCollector(client, cfg.Metrics.Namespace, logger), nil
}

type batchKey struct{}

type batch struct {
	mu   sync.Mutex
	data []cwtypes.MetricDatum
}

// StartBatch implements core.MetricsBatcher.
func (c *CloudWatchCollector) StartBatch(ctx context.Context) (context.Context, func()) {
	b := &batch{}
	batchCtx := context.WithValue(ctx, batchKey{}, b)
	return batchCtx, func() {
		b.mu.Lock()
		data := b.data
		b.data = nil
		b.mu.Unlock()
		if len(data) > 0 {
			c.put(batchCtx, data, "batch_size", len(data))
		}
	}
}

// RecordRequest implements core.MetricsCollector.
func (c *CloudWatchCollector) RecordRequest(ctx context.Context, method, endpoint, status string, duration time.Duration) {
	dims := []cwtypes.Dimension{
		dim(types.DimMethod, method),
		dim(types.DimEndpoint, endpoint),
		dim(types.DimStatus, status),
	}
	c.record(ctx, []cwtypes.MetricDatum{
		{
			MetricName: aws.String(types.MetricAPIRequestCount),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: dims,
		},
		{
			MetricName: aws.String(types.MetricAPILatency),
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       cwtypes.StandardUnitMilliseconds,
			Dimensions: dims,
		},
	}, "endpoint", endpoint, "status", status)
}

// RecordCheckout counts session creation results.
func (c *CloudWatchCollector) RecordCheckout(ctx context.Context, success bool) {
	name := types.MetricCheckoutCreated
	if !success {
		name = types.MetricCheckoutFailed
	}
	c.record(ctx, []cwtypes.MetricDatum{
		{
			MetricName: aws.String(name),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
		},
	}, "metric", name)
}

// RecordWebhookOutcome counts webhook deliveries by event type and outcome.
func (c *CloudWatchCollector) RecordWebhookOutcome(ctx context.Context, eventType string, outcome string) {
	if !trackedEventTypes[eventType] {
		eventType = eventTypeOther
	}
	c.record(ctx, []cwtypes.MetricDatum{
		{
			MetricName: aws.String(types.MetricWebhookOutcome),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: []cwtypes.Dimension{
				dim(types.DimEventType, eventType),
				dim(types.DimOutcome, outcome),
			},
		},
	}, "event_type", eventType, "outcome", outcome)
}

// record adds data to the batch carried by ctx, or publishes it immediately
// when there is none.
func (c *CloudWatchCollector) record(ctx context.Context, data []cwtypes.MetricDatum, attrs ...any) {
	if b, ok := ctx.Value(batchKey{}).(*batch); ok {
		b.mu.Lock()
		b.data = append(b.data, data...)
		b.mu.Unlock()
		return
	}
	c.put(ctx, data, attrs...)
}

// put publishes data on a context detached from the request, so a finished
// request does not cancel its own metrics.
func (c *CloudWatchCollector) put(ctx context.Context, data []cwtypes.MetricDatum, attrs ...any) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.putTimeout)
	defer cancel()

	_, err := c.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(c.namespace),
		MetricData: data,
	})
	if err != nil {
		c.logger.WarnContext(ctx, "failed to publish metric", append(attrs, "error", err)...)
	}
}

func dim(name, value string) cwtypes.Dimension {
	return cwtypes.Dimension{Name: aws.String(name), Value: aws.String(value)}
}

// NoopCollector discards everything.
type NoopCollector struct{}

var _ Collector = NoopCollector{}

func (NoopCollector) RecordRequest(context.Context, string, string, string, time.Duration) {}
func (NoopCollector) RecordCheckout(context.Context, bool)                                 {}
func (NoopCollector) RecordWebhookOutcome(context.Context, string, string)                 {}
