// Package metrics records s4 activity as Prometheus counters.
//
// A nil *Recorder is valid and records nothing.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "s4"

// Upload outcomes used as the "outcome" label of s4_uploads_total.
// OutcomeAbortFailed marks a session whose abort request failed, so the
// upload may still be open on the service.
const (
	OutcomeCompleted   = "completed"
	OutcomeAborted     = "aborted"
	OutcomeSinglePut   = "single_put"
	OutcomeFailed      = "completion_failed"
	OutcomeAbortFailed = "abort_failed"
)

// Recorder holds the s4 counters.
type Recorder struct {
	pagesFetched     prometheus.Counter
	objectsListed    prometheus.Counter
	objectsRetrieved prometheus.Counter
	partsUploaded    prometheus.Counter
	bytesUploaded    prometheus.Counter
	uploads          *prometheus.CounterVec
}

// New creates a Recorder and registers its collectors on reg. A nil reg
// leaves the collectors unregistered. Collectors already registered by
// another Recorder on the same registry are shared.
func New(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		pagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_pages_fetched_total",
			Help:      "Number of listing pages fetched.",
		}),
		objectsListed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_objects_total",
			Help:      "Number of object records received from listing pages.",
		}),
		objectsRetrieved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_retrieved_total",
			Help:      "Number of objects retrieved.",
		}),
		partsUploaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parts_uploaded_total",
			Help:      "Number of multipart parts uploaded.",
		}),
		bytesUploaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_uploaded_total",
			Help:      "Number of bytes accepted by the service.",
		}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Number of finished uploads by outcome.",
		}, []string{"outcome"}),
	}
	if reg == nil {
		return r, nil
	}

	var err error
	if r.pagesFetched, err = register(reg, r.pagesFetched); err != nil {
		return nil, err
	}
	if r.objectsListed, err = register(reg, r.objectsListed); err != nil {
		return nil, err
	}
	if r.objectsRetrieved, err = register(reg, r.objectsRetrieved); err != nil {
		return nil, err
	}
	if r.partsUploaded, err = register(reg, r.partsUploaded); err != nil {
		return nil, err
	}
	if r.bytesUploaded, err = register(reg, r.bytesUploaded); err != nil {
		return nil, err
	}
	if r.uploads, err = register(reg, r.uploads); err != nil {
		return nil, err
	}
	return r, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// PageFetched records one listing page holding n records.
func (r *Recorder) PageFetched(n int) {
	if r == nil {
		return
	}
	r.pagesFetched.Inc()
	r.objectsListed.Add(float64(n))
}

// ObjectRetrieved records one object retrieval.
func (r *Recorder) ObjectRetrieved() {
	if r == nil {
		return
	}
	r.objectsRetrieved.Inc()
}

// PartUploaded records one accepted part of size bytes.
func (r *Recorder) PartUploaded(size int64) {
	if r == nil {
		return
	}
	r.partsUploaded.Inc()
	r.bytesUploaded.Add(float64(size))
}

// SinglePut records an object uploaded with one put.
func (r *Recorder) SinglePut(size int64) {
	if r == nil {
		return
	}
	r.bytesUploaded.Add(float64(size))
	r.uploads.WithLabelValues(OutcomeSinglePut).Inc()
}

// UploadFinished records the outcome of a multipart session.
func (r *Recorder) UploadFinished(outcome string) {
	if r == nil {
		return
	}
	r.uploads.WithLabelValues(outcome).Inc()
}
