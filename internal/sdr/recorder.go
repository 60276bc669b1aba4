package sdr

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
)

// Recorder runs one timed capture on a configured session.
type Recorder struct {
	session *Session
	logger  *slog.Logger
}

// NewRecorder creates a recorder that logs through the session logger.
func NewRecorder(session *Session) *Recorder {
	return &Recorder{
		session: session,
		logger:  session.logger,
	}
}

// Record allocates a buffer sized for the configured duration, starts
// reception and waits until the duration elapses or ctx is done. It then
// stops the stream, closes the buffer and returns whatever was collected.
//
// A stop failure is returned together with the collected capture. The
// session is left in the stopped state; closing it is up to the caller.
func (r *Recorder) Record(ctx context.Context) (RawCapture, error) {
	cfg := r.session.Config()

	buf, err := NewSampleBuffer(CapacityFor(cfg.SampleRate, cfg.CaptureDuration),
		WithDropHandler(func(err error) {
			r.logger.Debug(err.Error())
		}),
	)
	if err != nil {
		return RawCapture{}, fmt.Errorf("creating sample buffer: %w", err)
	}

	r.logger.Info(fmt.Sprintf("recording for %s", cfg.CaptureDuration),
		slog.String("capacity", humanize.Comma(int64(buf.Cap()))),
		slog.String("memory", humanize.IBytes(uint64(buf.Cap())*8)),
	)

	if err = r.session.StartReceive(buf); err != nil {
		return RawCapture{}, err
	}

	started := time.Now()
	timer := time.NewTimer(cfg.CaptureDuration)
	defer timer.Stop()

	interrupted := false
	select {
	case <-timer.C:
	case <-ctx.Done():
		interrupted = true
		r.logger.Warn("recording interrupted", slog.Duration("elapsed", time.Since(started)))
	}

	stopErr := r.session.StopReceive()
	buf.Close()

	capture, err := buf.Drain()
	if err != nil {
		return RawCapture{}, fmt.Errorf("draining sample buffer: %w", err)
	}

	capture.SampleRate = cfg.SampleRate
	capture.CenterFrequency = cfg.CenterFrequency
	capture.Interrupted = interrupted

	r.report(buf.Stats(), buf.Cap())

	return capture, stopErr
}

func (r *Recorder) report(stats BufferStats, capacity int) {
	r.logger.Info("capture finished",
		slog.String("samples", humanize.Comma(int64(stats.Accepted))),
		slog.String("capacity", humanize.Comma(int64(capacity))),
		slog.String("size", humanize.IBytes(stats.Accepted*8)),
		slog.Uint64("chunks", stats.Chunks),
	)

	if stats.Dropped > 0 {
		r.logger.Warn(fmt.Sprintf("buffer full, %s samples dropped", humanize.Comma(int64(stats.Dropped))))
	}
	if stats.DroppedChunks > 0 {
		msg := fmt.Sprintf("%d malformed chunks dropped", stats.DroppedChunks)
		if stats.LastConversion != nil {
			msg += ": " + stats.LastConversion.Error()
		}
		r.logger.Warn(msg)
	}
}
