// Package histogram provides the named-bucket accumulation sink the analysis
// task fills: uniformly binned one-dimensional histograms, sparse N-dimensional
// histograms keyed by bin tuple, and labeled counters.
package histogram

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/okian/k0sqa/pkg/logger"
)

// Axis describes a uniform binning.
type Axis struct {
	Bins  int
	Min   float64
	Max   float64
	Title string
}

// FindBin returns the bin index for x in [0, Bins) and whether x is in range.
func (a Axis) FindBin(x float64) (int, bool) {
	if !(x >= a.Min && x < a.Max) {
		// The upper edge belongs to the last bin.
		if x == a.Max {
			return a.Bins - 1, true
		}
		return 0, false
	}
	bin := int(float64(a.Bins) * (x - a.Min) / (a.Max - a.Min))
	if bin >= a.Bins {
		bin = a.Bins - 1
	}
	return bin, true
}

// BinCenter returns the center of bin i.
func (a Axis) BinCenter(i int) float64 {
	width := (a.Max - a.Min) / float64(a.Bins)
	return a.Min + (float64(i)+0.5)*width
}

// BinEdges returns the lower and upper edge of bin i.
func (a Axis) BinEdges(i int) (float64, float64) {
	width := (a.Max - a.Min) / float64(a.Bins)
	return a.Min + float64(i)*width, a.Min + float64(i+1)*width
}

// h1 is a uniformly binned one-dimensional histogram with under/overflow.
type h1 struct {
	axis    Axis
	counts  []float64
	under   float64
	over    float64
	entries int64
}

func (h *h1) fill(x float64) {
	h.entries++
	bin, ok := h.axis.FindBin(x)
	if !ok {
		if x < h.axis.Min {
			h.under++
		} else {
			h.over++
		}
		return
	}
	h.counts[bin]++
}

// sparseND is an N-dimensional histogram that allocates only touched cells.
type sparseND struct {
	axes    []Axis
	cells   map[string]float64
	entries int64
}

// key encodes a bin-index tuple. Out-of-range coordinates yield ok=false and
// the fill is dropped, matching sparse-histogram semantics upstream.
func (h *sparseND) key(coords []float64) (string, bool) {
	var sb strings.Builder
	for i, ax := range h.axes {
		bin, ok := ax.FindBin(coords[i])
		if !ok {
			return "", false
		}
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(bin))
	}
	return sb.String(), true
}

func (h *sparseND) fill(coords []float64) {
	k, ok := h.key(coords)
	if !ok {
		return
	}
	h.entries++
	h.cells[k]++
}

// labelCounter is a counter histogram with named bins.
type labelCounter struct {
	labels []string
	counts map[string]float64
}

// Sink is the write-side interface handed to the analysis task. Increments
// are atomic with respect to concurrent fillers.
type Sink interface {
	// Fill1 adds one entry to a one-dimensional histogram.
	Fill1(name string, x float64) error

	// FillN adds one entry to a sparse N-dimensional histogram.
	FillN(name string, coords ...float64) error

	// FillLabel increments one named bin of a labeled counter.
	FillLabel(name, label string) error
}

// Booker is the registration-side interface used when a task books its output.
type Booker interface {
	Book1D(name string, axis Axis) error
	BookSparse(name string, axes ...Axis) error
	BookCounter(name string, labels ...string) error
}

// Registry implements Booker and Sink. A single mutex guards both booking
// and filling; workers share one Registry per run.
type Registry struct {
	mu       sync.Mutex
	h1s      map[string]*h1
	sparses  map[string]*sparseND
	counters map[string]*labelCounter
	log      logger.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		h1s:      make(map[string]*h1),
		sparses:  make(map[string]*sparseND),
		counters: make(map[string]*labelCounter),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Book1D registers a one-dimensional histogram.
func (r *Registry) Book1D(name string, axis Axis) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.booked(name) {
		return wrapName(ErrAlreadyBooked, name)
	}
	if axis.Bins <= 0 || axis.Max <= axis.Min {
		return wrapName(ErrInvalidAxis, name)
	}
	r.h1s[name] = &h1{axis: axis, counts: make([]float64, axis.Bins)}
	return nil
}

// BookSparse registers a sparse N-dimensional histogram.
func (r *Registry) BookSparse(name string, axes ...Axis) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.booked(name) {
		return wrapName(ErrAlreadyBooked, name)
	}
	if len(axes) == 0 {
		return wrapName(ErrInvalidAxis, name)
	}
	for _, ax := range axes {
		if ax.Bins <= 0 || ax.Max <= ax.Min {
			return wrapName(ErrInvalidAxis, name)
		}
	}
	r.sparses[name] = &sparseND{axes: append([]Axis(nil), axes...), cells: make(map[string]float64)}
	return nil
}

// BookCounter registers a labeled counter.
func (r *Registry) BookCounter(name string, labels ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.booked(name) {
		return wrapName(ErrAlreadyBooked, name)
	}
	if len(labels) == 0 {
		return wrapName(ErrInvalidAxis, name)
	}
	r.counters[name] = &labelCounter{
		labels: append([]string(nil), labels...),
		counts: make(map[string]float64, len(labels)),
	}
	return nil
}

func (r *Registry) booked(name string) bool {
	if _, ok := r.h1s[name]; ok {
		return true
	}
	if _, ok := r.sparses[name]; ok {
		return true
	}
	_, ok := r.counters[name]
	return ok
}

// Fill1 adds one entry to a one-dimensional histogram.
func (r *Registry) Fill1(name string, x float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.h1s[name]
	if !ok {
		return wrapName(ErrNotBooked, name)
	}
	h.fill(x)
	return nil
}

// FillN adds one entry to a sparse N-dimensional histogram.
func (r *Registry) FillN(name string, coords ...float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.sparses[name]
	if !ok {
		return wrapName(ErrNotBooked, name)
	}
	if len(coords) != len(h.axes) {
		return wrapName(ErrDimensionMismatch, name)
	}
	h.fill(coords)
	return nil
}

// FillLabel increments one named bin of a labeled counter.
func (r *Registry) FillLabel(name, label string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.counters[name]
	if !ok {
		return wrapName(ErrNotBooked, name)
	}
	for _, l := range c.labels {
		if l == label {
			c.counts[label]++
			return nil
		}
	}
	return wrapName(ErrUnknownLabel, name+"/"+label)
}

// H1Snapshot is a point-in-time copy of a one-dimensional histogram.
type H1Snapshot struct {
	Name     string
	Axis     Axis
	Counts   []float64
	Under    float64
	Over     float64
	Entries  int64
}

// SparseCell is one populated cell of a sparse histogram.
type SparseCell struct {
	Bins   []int
	Weight float64
}

// SparseSnapshot is a point-in-time copy of a sparse histogram.
type SparseSnapshot struct {
	Name    string
	Axes    []Axis
	Cells   []SparseCell
	Entries int64
}

// CounterSnapshot is a point-in-time copy of a labeled counter.
type CounterSnapshot struct {
	Name   string
	Labels []string
	Counts map[string]float64
}

// Histogram1D returns a snapshot of the named one-dimensional histogram.
func (r *Registry) Histogram1D(name string) (H1Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.h1s[name]
	if !ok {
		return H1Snapshot{}, wrapName(ErrNotBooked, name)
	}
	return H1Snapshot{
		Name:    name,
		Axis:    h.axis,
		Counts:  append([]float64(nil), h.counts...),
		Under:   h.under,
		Over:    h.over,
		Entries: h.entries,
	}, nil
}

// Sparse returns a snapshot of the named sparse histogram. Cells are sorted
// by key for deterministic iteration.
func (r *Registry) Sparse(name string) (SparseSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.sparses[name]
	if !ok {
		return SparseSnapshot{}, wrapName(ErrNotBooked, name)
	}

	keys := make([]string, 0, len(h.cells))
	for k := range h.cells {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cells := make([]SparseCell, 0, len(keys))
	for _, k := range keys {
		parts := strings.Split(k, ",")
		bins := make([]int, len(parts))
		for i, p := range parts {
			bins[i], _ = strconv.Atoi(p)
		}
		cells = append(cells, SparseCell{Bins: bins, Weight: h.cells[k]})
	}
	return SparseSnapshot{
		Name:    name,
		Axes:    append([]Axis(nil), h.axes...),
		Cells:   cells,
		Entries: h.entries,
	}, nil
}

// Counter returns a snapshot of the named labeled counter.
func (r *Registry) Counter(name string) (CounterSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.counters[name]
	if !ok {
		return CounterSnapshot{}, wrapName(ErrNotBooked, name)
	}
	counts := make(map[string]float64, len(c.counts))
	for k, v := range c.counts {
		counts[k] = v
	}
	return CounterSnapshot{
		Name:   name,
		Labels: append([]string(nil), c.labels...),
		Counts: counts,
	}, nil
}

// CounterValue returns the count of one label of a counter.
func (r *Registry) CounterValue(name, label string) (float64, error) {
	snap, err := r.Counter(name)
	if err != nil {
		return 0, err
	}
	return snap.Counts[label], nil
}

// Names1D lists the booked one-dimensional histograms, sorted.
func (r *Registry) Names1D() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sortedKeys(r.h1s)
}

// NamesSparse lists the booked sparse histograms, sorted.
func (r *Registry) NamesSparse() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sortedKeys(r.sparses)
}

// NamesCounter lists the booked counters, sorted.
func (r *Registry) NamesCounter() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sortedKeys(r.counters)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LogSummary logs entry counts of every booked bucket at debug level.
func (r *Registry) LogSummary(ctx context.Context) {
	if r.log == nil {
		return
	}
	for _, name := range r.Names1D() {
		snap, err := r.Histogram1D(name)
		if err != nil {
			continue
		}
		r.log.Debug(ctx, "histogram", logger.String("name", name), logger.Int64("entries", snap.Entries))
	}
	for _, name := range r.NamesSparse() {
		snap, err := r.Sparse(name)
		if err != nil {
			continue
		}
		r.log.Debug(ctx, "sparse histogram", logger.String("name", name),
			logger.Int64("entries", snap.Entries), logger.Int("cells", len(snap.Cells)))
	}
}
