package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys used across the service.
const (
	DBSystemKey    = attribute.Key("db.system")
	DBOperationKey = attribute.Key("db.operation")

	RideIDKey      = attribute.Key("ride.id")
	DriverIDKey    = attribute.Key("driver.id")
	PassengerIDKey = attribute.Key("passenger.id")
	FareAmountKey  = attribute.Key("fare.amount")
	VehicleTypeKey = attribute.Key("vehicle.type")
)

// TraceDBQuery wraps a database operation with a client span.
func TraceDBQuery(ctx context.Context, tracerName, operation string, fn func(ctx context.Context) error) error {
	ctx, span := StartSpan(ctx, tracerName, fmt.Sprintf("db.%s", operation),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	span.SetAttributes(
		DBSystemKey.String("postgresql"),
		DBOperationKey.String(operation),
	)

	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return err
}

// TraceOperation wraps an internal operation with a span.
func TraceOperation(ctx context.Context, tracerName, name string, fn func(ctx context.Context) error) error {
	ctx, span := StartSpan(ctx, tracerName, name)
	defer span.End()

	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return err
}
