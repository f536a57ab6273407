package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

var allowedMD = map[string]bool{
	"content-type":  true,
	"user-agent":    true,
	"x-trace-id":    true,
	"x-request-id":  true,
	"traceparent":   true,
	"authorization": true,
}

// MetadataAttrs converts gRPC metadata into grpc.header.* attributes.
func MetadataAttrs(md metadata.MD) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(md))
	for k, vs := range md {
		lower := strings.ToLower(k)
		if !allowedMD[lower] {
			continue
		}
		v := strings.Join(vs, ", ")
		if lower == "authorization" {
			v = "***"
		}
		attrs = append(attrs, slog.String("grpc.header."+lower, v))
	}
	return attrs
}

// msgAttrs flattens a message under prefix. Proto messages go through protojson,
// plain structs (JSON codec messages) through encoding/json.
func msgAttrs(prefix string, m any) []slog.Attr {
	if m == nil {
		return nil
	}
	var (
		b   []byte
		err error
	)
	if pm, ok := m.(proto.Message); ok {
		b, err = protojson.Marshal(pm)
	} else {
		b, err = json.Marshal(m)
	}
	if err != nil {
		return []slog.Attr{slog.String(prefix, redactIfNeeded(fmt.Sprintf("%v", m)))}
	}
	return jsonAttrsWithPrefix(prefix, b)
}

func jsonAttrsWithPrefix(prefix string, b []byte) []slog.Attr {
	var data any
	if err := json.Unmarshal(b, &data); err != nil {
		return []slog.Attr{slog.String(prefix, string(b))}
	}
	attrs := make([]slog.Attr, 0, 8)
	flattenJSON(prefix, data, &attrs)
	return attrs
}

// LogGRPCRequest builds attributes for a unary call. fullMethod is "/package.Service/Method".
func LogGRPCRequest(ctx context.Context, fullMethod string, md metadata.MD, req any, direction string) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("grpc.direction", direction),
		slog.String("grpc.method", fullMethod),
	}
	attrs = append(attrs, MetadataAttrs(md)...)
	attrs = append(attrs, msgAttrs("grpc.request", req)...)
	return attrs
}

func LogGRPCResponse(ctx context.Context, fullMethod string, md metadata.MD, code codes.Code, resp any, duration time.Duration, direction string) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("grpc.direction", direction),
		slog.String("grpc.method", fullMethod),
		slog.String("grpc.code", code.String()),
		slog.Int64("grpc.duration_ms", duration.Milliseconds()),
	}
	attrs = append(attrs, MetadataAttrs(md)...)
	attrs = append(attrs, msgAttrs("grpc.response", resp)...)
	return attrs
}
