// Package task implements the K0s tracking-efficiency QA task: per-event V0
// selection, daughter hit-status classification, and histogram filling.
package task

import (
	"context"
	"time"

	"github.com/okian/k0sqa/internal/domain/model"
	"github.com/okian/k0sqa/internal/domain/selection"
	"github.com/okian/k0sqa/internal/histogram"
	"github.com/okian/k0sqa/pkg/logger"
	"github.com/okian/k0sqa/pkg/metrics"
)

// Histogram bucket names. They follow the upstream QA task's registry layout
// so downstream tooling keyed on those names keeps working.
const (
	HistEventCounter = "h_EventCounter"

	Hist5DITSStatus = "h5_RpTmassITSStatus"
	Hist5DIBStatus  = "h5_RpTmassIBStatus"

	HistRadius       = "Test/h_R"
	HistPt           = "Test/h_pT"
	HistMass         = "Test/h_mass"
	HistNegITSStatus = "Test/h_negITSStatus"
	HistPosITSStatus = "Test/h_posITSStatus"
	HistNegIBStatus  = "Test/h_negIBStatus"
	HistPosIBStatus  = "Test/h_posIBStatus"
	HistNegIBHits    = "Test/h_negIBhits"
	HistPosIBHits    = "Test/h_posIBhits"
)

// Event counter bin labels.
const (
	CounterTotal    = "Total"
	CounterSelected = "Selected"
)

// Axis specifications, matching the upstream task.
var (
	axisRadius = histogram.Axis{Bins: 100, Min: 0, Max: 10, Title: "R (cm)"}
	axisPt     = histogram.Axis{Bins: 200, Min: 0, Max: 10, Title: "pT (GeV/c)"}
	axisMass   = histogram.Axis{Bins: 200, Min: 0.4, Max: 0.6, Title: "m (GeV/c^2)"}
	axisStatus = histogram.Axis{Bins: 2, Min: -0.5, Max: 1.5}
	axisNHits  = histogram.Axis{Bins: 4, Min: -0.5, Max: 3.5}
)

// Task is the per-event filter-and-histogram accumulator. It holds no mutable
// state beyond the injected sink, so concurrent ProcessEvent calls are safe
// as long as the sink is.
type Task struct {
	sel            *selection.Selector
	sink           histogram.Sink
	eventSelection bool
	log            logger.Logger
}

// New creates a Task writing into the given sink.
func New(sink histogram.Sink, opts ...Option) *Task {
	t := &Task{
		sel:            selection.New(),
		sink:           sink,
		eventSelection: true,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Book registers every histogram the task fills.
func (t *Task) Book(b histogram.Booker) error {
	if err := b.BookCounter(HistEventCounter, CounterTotal, CounterSelected); err != nil {
		return err
	}

	if err := b.BookSparse(Hist5DITSStatus, axisRadius, axisPt, axisMass, axisStatus, axisStatus); err != nil {
		return err
	}
	if err := b.BookSparse(Hist5DIBStatus, axisRadius, axisPt, axisMass, axisStatus, axisStatus); err != nil {
		return err
	}

	oneDim := []struct {
		name string
		axis histogram.Axis
	}{
		{HistRadius, axisRadius},
		{HistPt, axisPt},
		{HistMass, axisMass},
		{HistNegITSStatus, axisStatus},
		{HistPosITSStatus, axisStatus},
		{HistNegIBStatus, axisStatus},
		{HistPosIBStatus, axisStatus},
		{HistNegIBHits, axisNHits},
		{HistPosIBHits, axisNHits},
	}
	for _, h := range oneDim {
		if err := b.Book1D(h.name, h.axis); err != nil {
			return err
		}
	}
	return nil
}

// ProcessEvent runs the selection over one event record and fills the
// histograms for every accepted candidate. Sink errors indicate a booking
// mismatch and are returned as-is.
func (t *Task) ProcessEvent(ctx context.Context, rec model.EventRecord) error {
	start := time.Now()
	defer func() {
		metrics.RecordEventProcessingLatency(float64(time.Since(start).Microseconds()) / 1e3)
	}()

	metrics.RecordEventRead()
	if err := t.sink.FillLabel(HistEventCounter, CounterTotal); err != nil {
		return err
	}
	if t.eventSelection && !rec.Collision.Sel8 {
		return nil
	}
	metrics.RecordEventSelected()
	if err := t.sink.FillLabel(HistEventCounter, CounterSelected); err != nil {
		return err
	}

	for _, v0 := range rec.V0s {
		metrics.RecordV0Seen()

		posTrack, okPos := rec.TrackByID(v0.PosTrackID)
		negTrack, okNeg := rec.TrackByID(v0.NegTrackID)
		if !okPos || !okNeg {
			// Fail closed on broken references.
			metrics.RecordDaughterUnresolved()
			if t.log != nil {
				t.log.Debug(ctx, "dropping V0 with unresolved daughter",
					logger.String("pos", v0.PosTrackID),
					logger.String("neg", v0.NegTrackID),
				)
			}
			continue
		}

		if reason := t.sel.RejectionReason(v0, posTrack, negTrack, rec.Collision); reason != "" {
			metrics.RecordV0Rejected(reason)
			continue
		}
		metrics.RecordV0Accepted()

		if err := t.recordV0(v0, posTrack, negTrack); err != nil {
			return err
		}
	}
	return nil
}

// recordV0 classifies the daughters and fills all per-candidate histograms.
func (t *Task) recordV0(v0 model.V0, posTrack, negTrack model.Track) error {
	radius := v0.Radius()
	pt := v0.Pt()
	mass := v0.MK0Short

	if err := t.sink.Fill1(HistRadius, radius); err != nil {
		return err
	}
	if err := t.sink.Fill1(HistPt, pt); err != nil {
		return err
	}
	if err := t.sink.Fill1(HistMass, mass); err != nil {
		return err
	}

	neg := selection.ClassifyDaughter(negTrack)
	pos := selection.ClassifyDaughter(posTrack)

	if err := t.sink.Fill1(HistNegITSStatus, statusValue(neg.HasITS)); err != nil {
		return err
	}
	if err := t.sink.Fill1(HistPosITSStatus, statusValue(pos.HasITS)); err != nil {
		return err
	}
	if err := t.sink.FillN(Hist5DITSStatus, radius, pt, mass, statusValue(neg.HasITS), statusValue(pos.HasITS)); err != nil {
		return err
	}

	if err := t.sink.Fill1(HistNegIBStatus, statusValue(neg.HasInnerBarrel)); err != nil {
		return err
	}
	if err := t.sink.Fill1(HistPosIBStatus, statusValue(pos.HasInnerBarrel)); err != nil {
		return err
	}
	if err := t.sink.Fill1(HistNegIBHits, float64(neg.InnerBarrelHits)); err != nil {
		return err
	}
	if err := t.sink.Fill1(HistPosIBHits, float64(pos.InnerBarrelHits)); err != nil {
		return err
	}
	return t.sink.FillN(Hist5DIBStatus, radius, pt, mass, statusValue(neg.HasInnerBarrel), statusValue(pos.HasInnerBarrel))
}

// statusValue maps a hit-status boolean onto the 2-bin status axis.
func statusValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
