// Package metrics defines the Prometheus collectors of the image library.
// Collectors are registered with the default registry at init and served by
// the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "imagelib"

// Result label values.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// BlobDeletesTotal counts object deletions issued against the blob store.
// Labels:
//   - kind: "image", "cover" or "profile"
//   - result: "ok" or "failed"
var BlobDeletesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "blob_deletes_total",
		Help:      "Total number of blob store deletions, by object kind and result.",
	},
	[]string{"kind", "result"},
)

// ImageUploadsTotal counts per-file upload outcomes.
var ImageUploadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "image_uploads_total",
		Help:      "Total number of image uploads, by result.",
	},
	[]string{"result"},
)

// AlbumDeletesTotal counts cascading album deletions.
// Label:
//   - result: "ok", or "failed" when blob cleanup left the album in place
var AlbumDeletesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "album_deletes_total",
		Help:      "Total number of cascading album deletions, by result.",
	},
	[]string{"result"},
)

// HTTPRequestDuration tracks request latency per route.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route", "status"},
)

// Result maps an error to a result label value.
func Result(err error) string {
	if err != nil {
		return ResultFailed
	}
	return ResultOK
}
