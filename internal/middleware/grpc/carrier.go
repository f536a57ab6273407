package middleware_grpc

import (
	"strings"

	"google.golang.org/grpc/metadata"
)

// MetadataCarrier lets the OpenTelemetry propagator read and write gRPC metadata.
type MetadataCarrier metadata.MD

func (c MetadataCarrier) Get(key string) string {
	if v := metadata.MD(c).Get(key); len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c MetadataCarrier) Set(key, value string) {
	metadata.MD(c).Set(strings.ToLower(key), value)
}

func (c MetadataCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}
