package tracing

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/salesdesk/internal/observability/context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// GinMiddleware instruments inbound HTTP requests.
func GinMiddleware() gin.HandlerFunc {
	tracer := otel.Tracer("salesdesk/http")
	return func(c *gin.Context) {
		ctx := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		ctx, span := tracer.Start(ctx, "HTTP "+strings.ToUpper(c.Request.Method), trace.WithSpanKind(trace.SpanKindServer))

		requestID := obscontext.RequestIDFromContext(ctx)
		if requestID != "" {
			member, err := baggage.NewMember("request_id", requestID)
			if err == nil {
				bag, bagErr := baggage.New(member)
				if bagErr == nil {
					ctx = baggage.ContextWithBaggage(ctx, bag)
				}
			}
			span.SetAttributes(attribute.String("request_id", requestID))
		}

		c.Request = c.Request.WithContext(ctx)
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		span.SetName("HTTP " + strings.ToUpper(c.Request.Method) + " " + route)
		span.SetAttributes(SafeAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", c.Writer.Status()),
			attribute.Int64("http.server_duration_ms", time.Since(start).Milliseconds()),
		)...)
		span.SetAttributes(SafeAttributes(routeAttributes(route, c.Params)...)...)

		if status := c.Writer.Status(); status >= http.StatusInternalServerError {
			if lastErr := c.Errors.Last(); lastErr != nil {
				if safeErr := SafeError(lastErr.Err); safeErr != nil {
					span.RecordError(safeErr)
				}
			}
			span.SetStatus(codes.Error, "request error")
		}
		span.End()
	}
}

var routeResources = map[string]string{
	"leads":            "salesdesk.lead_id",
	"sales-employees":  "salesdesk.sales_employee_id",
	"product-groups":   "salesdesk.product_group_id",
	"allocation-rules": "salesdesk.allocation_rule_id",
}

// routeAttributes names the path ids after the resource they address.
func routeAttributes(route string, params gin.Params) []attribute.KeyValue {
	resource := strings.SplitN(strings.TrimPrefix(route, "/"), "/", 2)[0]
	attrs := make([]attribute.KeyValue, 0, 2)
	if key, ok := routeResources[resource]; ok {
		if id := strings.TrimSpace(params.ByName("id")); id != "" {
			attrs = append(attrs, attribute.String(key, id))
		}
	}
	if id := strings.TrimSpace(params.ByName("productGroupId")); id != "" {
		attrs = append(attrs, attribute.String("salesdesk.product_group_id", id))
	}
	return attrs
}

// AnnotateAssignment records an allocation result on the active span.
func AnnotateAssignment(ctx context.Context, leadID, salesEmployeeID, method, outcome string) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(SafeAttributes(
		attribute.String("salesdesk.lead_id", leadID),
		attribute.String("salesdesk.sales_employee_id", salesEmployeeID),
		attribute.String("salesdesk.assignment_method", method),
		attribute.String("salesdesk.assignment_outcome", outcome),
	)...)
}
