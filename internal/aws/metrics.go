package aws

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// MetricsRecorder publishes counters to CloudWatch under a single namespace.
type MetricsRecorder struct {
	client    CloudWatchAPI
	namespace string
}

func NewMetricsRecorder(client CloudWatchAPI, namespace string) *MetricsRecorder {
	return &MetricsRecorder{client: client, namespace: namespace}
}

// Count adds 1 to the named metric with the given dimensions.
func (m *MetricsRecorder) Count(ctx context.Context, name string, dimensions map[string]string) error {
	dims := make([]cwtypes.Dimension, 0, len(dimensions))
	for k, v := range dimensions {
		dims = append(dims, cwtypes.Dimension{Name: sdkaws.String(k), Value: sdkaws.String(v)})
	}

	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: &m.namespace,
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: sdkaws.String(name),
				Dimensions: dims,
				Unit:       cwtypes.StandardUnitCount,
				Value:      sdkaws.Float64(1),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("put metric %s: %w", name, err)
	}
	return nil
}
