package service

import "time"

// Observer receives pipeline and audit outcomes, typically for metrics
type Observer interface {
	ObservePipeline(operation, code string, duration time.Duration)
	ObserveAuditFlush(sink, outcome string, records int, err error)
}

type nopObserver struct{}

func (nopObserver) ObservePipeline(string, string, time.Duration) {}

func (nopObserver) ObserveAuditFlush(string, string, int, error) {}
