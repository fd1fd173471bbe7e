package aws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
)

// ErrFunctionFailed is returned when the invoked function reports an unhandled error.
var ErrFunctionFailed = errors.New("lambda function error")

// Invoker calls other Lambda functions synchronously with JSON payloads.
type Invoker struct {
	client LambdaAPI
}

func NewInvoker(client LambdaAPI) *Invoker {
	return &Invoker{client: client}
}

// InvokeJSON sends in as the request payload and decodes the response payload into out.
// out may be nil when the caller does not need the response.
func (i *Invoker) InvokeJSON(ctx context.Context, functionName string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := i.client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   &functionName,
		InvocationType: lambdatypes.InvocationTypeRequestResponse,
		Payload:        payload,
	})
	if err != nil {
		return fmt.Errorf("invoke %s: %w", functionName, err)
	}
	if resp.FunctionError != nil {
		return fmt.Errorf("%w: %s: %s", ErrFunctionFailed, functionName, *resp.FunctionError)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("invoke %s: unexpected status %d", functionName, resp.StatusCode)
	}

	if out == nil || len(resp.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Payload, out); err != nil {
		return fmt.Errorf("unmarshal %s response: %w", functionName, err)
	}
	return nil
}
