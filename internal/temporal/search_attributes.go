package temporal

import (
	"context"
	"errors"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/operatorservice/v1"
	"go.temporal.io/api/serviceerror"
	"go.uber.org/zap"
)

// Operator exposes the cluster's operator service. client.Client satisfies it.
type Operator interface {
	OperatorService() operatorservice.OperatorServiceClient
}

// EnsureSearchAttribute registers name as a keyword search attribute in
// namespace. An existing attribute is fine; any other failure is logged and
// never returned.
func EnsureSearchAttribute(ctx context.Context, op Operator, namespace, name string, logger *zap.Logger) {
	logger = logger.With(zap.String("namespace", namespace), zap.String("search_attribute", name))

	_, err := op.OperatorService().AddSearchAttributes(ctx, &operatorservice.AddSearchAttributesRequest{
		Namespace: namespace,
		SearchAttributes: map[string]enumspb.IndexedValueType{
			name: enumspb.INDEXED_VALUE_TYPE_KEYWORD,
		},
	})

	var exists *serviceerror.AlreadyExists
	switch {
	case err == nil:
		logger.Info("registered search attribute")
	case errors.As(err, &exists):
		logger.Debug("search attribute already registered")
	default:
		logger.Warn("failed to register search attribute, query dispatch may find no subscribers", zap.Error(err))
	}
}
