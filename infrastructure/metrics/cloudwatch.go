package metrics

import (
	"context"
	"time"

	"github.com/Anidipta/Node-Learner/domain/events"
	"github.com/Anidipta/Node-Learner/pkg/extensions"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// Emitter ships operational metrics to CloudWatch
type Emitter struct {
	namespace string
	client    *cloudwatch.Client
	logger    *zap.Logger
}

// NewEmitter creates a new CloudWatch metrics emitter. A nil client
// disables emission, which keeps local runs free of AWS calls.
func NewEmitter(namespace string, client *cloudwatch.Client, logger *zap.Logger) *Emitter {
	return &Emitter{
		namespace: namespace,
		client:    client,
		logger:    logger,
	}
}

// RecordCommandExecution records latency and count for a command execution
func (m *Emitter) RecordCommandExecution(ctx context.Context, commandName string, duration time.Duration, err error) {
	if m.client == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "failure"
	}

	dimensions := []types.Dimension{
		{
			Name:  aws.String("CommandName"),
			Value: aws.String(commandName),
		},
		{
			Name:  aws.String("Status"),
			Value: aws.String(status),
		},
	}

	metricData := []types.MetricDatum{
		{
			MetricName: aws.String("CommandExecution"),
			Dimensions: dimensions,
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       types.StandardUnitMilliseconds,
			Timestamp:  aws.Time(time.Now()),
		},
		{
			MetricName: aws.String("CommandCount"),
			Dimensions: dimensions,
			Value:      aws.Float64(1),
			Unit:       types.StandardUnitCount,
			Timestamp:  aws.Time(time.Now()),
		},
	}

	m.put(ctx, metricData)
}

// RecordLatency records latency for any operation
func (m *Emitter) RecordLatency(ctx context.Context, operation string, latency time.Duration) {
	if m.client == nil {
		return
	}

	m.put(ctx, []types.MetricDatum{
		{
			MetricName: aws.String("OperationLatency"),
			Dimensions: []types.Dimension{
				{
					Name:  aws.String("Operation"),
					Value: aws.String(operation),
				},
			},
			Value:     aws.Float64(float64(latency.Milliseconds())),
			Unit:      types.StandardUnitMilliseconds,
			Timestamp: aws.Time(time.Now()),
		},
	})
}

// RecordError records error occurrences
func (m *Emitter) RecordError(ctx context.Context, errorType string, errorCode string) {
	if m.client == nil {
		return
	}

	m.put(ctx, []types.MetricDatum{
		{
			MetricName: aws.String("Errors"),
			Dimensions: []types.Dimension{
				{
					Name:  aws.String("ErrorType"),
					Value: aws.String(errorType),
				},
				{
					Name:  aws.String("ErrorCode"),
					Value: aws.String(errorCode),
				},
			},
			Value:     aws.Float64(1),
			Unit:      types.StandardUnitCount,
			Timestamp: aws.Time(time.Now()),
		},
	})
}

// RecordBusinessMetric records custom business metrics
func (m *Emitter) RecordBusinessMetric(ctx context.Context, metricName string, value float64, unit types.StandardUnit, dimensions map[string]string) {
	if m.client == nil {
		return
	}

	var cwDimensions []types.Dimension
	for name, val := range dimensions {
		cwDimensions = append(cwDimensions, types.Dimension{
			Name:  aws.String(name),
			Value: aws.String(val),
		})
	}

	m.put(ctx, []types.MetricDatum{
		{
			MetricName: aws.String(metricName),
			Dimensions: cwDimensions,
			Value:      aws.Float64(value),
			Unit:       unit,
			Timestamp:  aws.Time(time.Now()),
		},
	})
}

func (m *Emitter) put(ctx context.Context, data []types.MetricDatum) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		// Metric loss never fails the operation that produced it.
		m.logger.Warn("Failed to send metrics to CloudWatch", zap.Error(err))
	}
}

// CloudWatchPlugin feeds hook-point notifications into the emitter
type CloudWatchPlugin struct {
	emitter *Emitter
}

// NewCloudWatchPlugin creates the plugin wrapping an emitter
func NewCloudWatchPlugin(emitter *Emitter) *CloudWatchPlugin {
	return &CloudWatchPlugin{emitter: emitter}
}

// Name returns the plugin name
func (p *CloudWatchPlugin) Name() string { return "cloudwatch-metrics" }

// Version returns the plugin version
func (p *CloudWatchPlugin) Version() string { return "1.0.0" }

// Initialize initializes the plugin
func (p *CloudWatchPlugin) Initialize(ctx context.Context) error { return nil }

// Shutdown gracefully shuts down the plugin
func (p *CloudWatchPlugin) Shutdown(ctx context.Context) error { return nil }

// RegisterHooks subscribes the emitter to command and domain-event hook points
func (p *CloudWatchPlugin) RegisterHooks(manager *extensions.HookManager) error {
	manager.Register(extensions.HookAfterCommandExecute, p.onCommandExecuted)
	manager.Register(extensions.HookCommandFailed, p.onCommandFailed)
	manager.Register(extensions.HookSessionStarted, p.onDomainEvent)
	manager.Register(extensions.HookSessionEnded, p.onDomainEvent)
	manager.Register(extensions.HookSessionRecorded, p.onDomainEvent)
	manager.Register(extensions.HookGraphExpanded, p.onDomainEvent)
	manager.Register(extensions.HookConceptRemoved, p.onDomainEvent)
	manager.Register(extensions.HookTreeSaved, p.onDomainEvent)
	return nil
}

func (p *CloudWatchPlugin) onCommandExecuted(ctx context.Context, data interface{}) error {
	hookData, ok := data.(*extensions.HookData)
	if !ok {
		return nil
	}

	duration, _ := hookData.Metadata["duration"].(time.Duration)
	execErr, _ := hookData.Metadata["error"].(error)
	p.emitter.RecordCommandExecution(ctx, hookData.Operation, duration, execErr)
	return nil
}

func (p *CloudWatchPlugin) onCommandFailed(ctx context.Context, data interface{}) error {
	hookData, ok := data.(*extensions.HookData)
	if !ok {
		return nil
	}

	p.emitter.RecordError(ctx, "command", hookData.Operation)
	return nil
}

func (p *CloudWatchPlugin) onDomainEvent(ctx context.Context, data interface{}) error {
	hookData, ok := data.(*extensions.HookData)
	if !ok {
		return nil
	}

	switch event := hookData.Payload.(type) {
	case events.SessionStarted:
		p.emitter.RecordBusinessMetric(ctx, "SessionsStarted", 1, types.StandardUnitCount, nil)
	case events.SessionEnded:
		p.emitter.RecordBusinessMetric(ctx, "SessionsEnded", 1, types.StandardUnitCount, nil)
		p.emitter.RecordBusinessMetric(ctx, "SessionTimeSpent", float64(event.TimeSpentSecs), types.StandardUnitSeconds, nil)
	case events.SessionRecorded:
		p.emitter.RecordBusinessMetric(ctx, "SessionsRecorded", 1, types.StandardUnitCount, nil)
	case events.GraphExpanded:
		p.emitter.RecordBusinessMetric(ctx, "ConceptsAdded", float64(len(event.NewLabels)), types.StandardUnitCount,
			map[string]string{"Mode": event.Mode})
	case events.ConceptRemoved:
		p.emitter.RecordBusinessMetric(ctx, "ConceptsRemoved", float64(len(event.RemovedLabels)), types.StandardUnitCount, nil)
	case events.TreeSaved:
		p.emitter.RecordBusinessMetric(ctx, "TreesSaved", 1, types.StandardUnitCount, nil)
	}
	return nil
}
