package metrics

import (
	"strconv"
	"time"

	obserrors "github.com/edukit/admin-dashboard/internal/observability/errors"
	"github.com/edukit/admin-dashboard/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// PlatformRequest describes one round trip to the platform API.
type PlatformRequest struct {
	Method   string
	Route    string // path template, e.g. "/admin/learners"
	Status   int    // 0 when no response was received
	Retried  bool
	Duration time.Duration
	Err      error
}

// EmitPlatformRequest emits request count and latency for a platform call.
func EmitPlatformRequest(sink statsd.Sink, in PlatformRequest) {
	if sink == nil {
		return
	}
	tags := map[string]string{
		"method":  in.Method,
		"route":   in.Route,
		"status":  strconv.Itoa(in.Status),
		"retried": strconv.FormatBool(in.Retried),
		"result":  resultOf(in.Err),
	}
	if class := obserrors.Classify(in.Err); class != "" {
		tags["error_class"] = class
	}
	sink.Count("platform.request", 1, tags)
	if in.Duration > 0 {
		sink.Timing("platform.request.duration", in.Duration, CloneTags(tags))
	}
}

// EmitRefresh records the outcome of an access-token refresh.
func EmitRefresh(sink statsd.Sink, duration time.Duration, err error) {
	if sink == nil {
		return
	}
	tags := map[string]string{"result": resultOf(err)}
	sink.Count("platform.refresh", 1, tags)
	sink.Timing("platform.refresh.duration", duration, CloneTags(tags))
}

// Mutation describes an admin state change.
type Mutation struct {
	Entity string
	Action string
	Err    error
}

// EmitMutation counts admin mutations by entity, action and outcome.
func EmitMutation(sink statsd.Sink, in Mutation) {
	if sink == nil {
		return
	}
	tags := map[string]string{
		"entity": in.Entity,
		"action": in.Action,
		"result": resultOf(in.Err),
	}
	if class := obserrors.Classify(in.Err); class != "" {
		tags["error_class"] = class
	}
	sink.Count("admin.mutation", 1, tags)
}

// EmitStaleDiscard counts list responses dropped because a newer query superseded them.
func EmitStaleDiscard(sink statsd.Sink, entity string) {
	if sink == nil {
		return
	}
	sink.Count("list.stale_discard", 1, map[string]string{"entity": entity})
}

func resultOf(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
