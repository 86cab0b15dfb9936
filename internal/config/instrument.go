package config

import (
	"context"
	"time"

	"github.com/MrWong99/echodiff/internal/observe"
	"github.com/MrWong99/echodiff/pkg/asr"
	"github.com/MrWong99/echodiff/pkg/audio"
	"go.opentelemetry.io/otel/metric"
)

// meteredProvider wraps an [asr.Provider] and records request counts,
// error counts, and transcription latency under the provider's name.
type meteredProvider struct {
	name    string
	inner   asr.Provider
	metrics *observe.Metrics
}

var _ asr.Provider = (*meteredProvider)(nil)

func newMeteredProvider(name string, inner asr.Provider) *meteredProvider {
	return &meteredProvider{
		name:    name,
		inner:   inner,
		metrics: observe.DefaultMetrics(),
	}
}

func (p *meteredProvider) Transcribe(ctx context.Context, clip audio.Clip) (asr.Result, error) {
	start := time.Now()
	res, err := p.inner.Transcribe(ctx, clip)

	status := "ok"
	if err != nil {
		status = "error"
		p.metrics.RecordProviderError(ctx, p.name)
	}
	p.metrics.RecordProviderRequest(ctx, p.name, status)
	p.metrics.TranscribeDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(observe.Attr("provider", p.name)))
	return res, err
}

func (p *meteredProvider) Close() error {
	return p.inner.Close()
}
