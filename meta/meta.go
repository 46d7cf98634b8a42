// Package meta carries per-request metadata through context.Context so that
// logs and error responses can be correlated with the request that caused them.
package meta

import "context"

// ContextKey is a type for keys used in context values for metadata.
type ContextKey string

const (
	// TraceID correlates logs, spans and error responses of one request.
	TraceID ContextKey = "trace_id"

	// IPAddress contains the client's IP address.
	IPAddress ContextKey = "ip_address"

	// UserAgent contains the user agent string from the request.
	UserAgent ContextKey = "user_agent"

	// RemoteAddr contains the network address that sent the request.
	RemoteAddr ContextKey = "remote_addr"

	// Referer contains the address of the page that linked to the request.
	Referer ContextKey = "referer"

	// ServiceName identifies the name of current running service.
	ServiceName ContextKey = "service_name"

	// ServiceVersion indicates the version of the service.
	ServiceVersion ContextKey = "service_version"

	// VideoID is the record id a request operates on, when there is one.
	VideoID ContextKey = "video_id"
)

//nolint:gochecknoglobals // fixed list of keys extracted for log enrichment
var knownKeys = []ContextKey{
	TraceID,
	IPAddress,
	UserAgent,
	RemoteAddr,
	Referer,
	ServiceName,
	ServiceVersion,
	VideoID,
}

// InjectMetaToContext adds metadata from the provided map to the context.
// Empty values are skipped.
func InjectMetaToContext(ctx context.Context, data map[ContextKey]string) context.Context {
	for k, v := range data {
		if v != "" {
			ctx = context.WithValue(ctx, k, v) //nolint:fatcontext // allow due to finite number of keys
		}
	}
	return ctx
}

// ExtractMetaFromContext returns every known, non-empty string value stored in ctx.
func ExtractMetaFromContext(ctx context.Context) map[ContextKey]string {
	data := make(map[ContextKey]string)
	for _, k := range knownKeys {
		if v, ok := ctx.Value(k).(string); ok && v != "" {
			data[k] = v
		}
	}
	return data
}

// Get returns the string stored under key, or "" when absent.
func Get(ctx context.Context, key ContextKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}
