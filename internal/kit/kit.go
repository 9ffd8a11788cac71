// Package kit materializes a validated drum-font Value tree into a
// playable Kit: paths resolved, velocity layers bounded and sorted,
// samples loaded into In-Memory Wave templates, and the note map
// populated.
package kit

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/bflamig/dfxplay/internal/fontparser"
	"github.com/bflamig/dfxplay/internal/framebuffer"
	"github.com/bflamig/dfxplay/internal/memwave"
	"github.com/bflamig/dfxplay/internal/robinmgr"
	"github.com/bflamig/dfxplay/internal/soundfile"
)

// Robin is one recording file within a velocity layer.
type Robin struct {
	FName      string
	StartFrame int
	EndFrame   int // 0 means "to end of file"
	Peak       float64
	HasPeak    bool
	RMS        float64
	HasRMS     bool
	FullPath   string
	Template   *memwave.Wave
}

// VelocityLayer is one intensity band of a drum, with its resolved
// velocity bounds and an ordered, round-robin-cycled list of Robins.
type VelocityLayer struct {
	Code     int
	MinVel   int
	MaxVel   int
	FMin     float64
	FMax     float64
	Path     string
	Robins   []*Robin
	RobinMgr *robinmgr.Manager
}

// Choose returns the next Robin per strict round-robin rotation. Panics
// if RobinMgr is nil; callers must set it (Build does, for every layer
// it constructs).
func (l *VelocityLayer) Choose() *Robin {
	return l.Robins[l.RobinMgr.Choose()]
}

// Covers reports whether the fractional velocity v (0..1) falls within
// this layer's resolved bounds.
func (l *VelocityLayer) Covers(v float64) bool {
	return v >= l.FMin && v <= l.FMax
}

// Drum is one playable instrument: a MIDI note and its sorted
// velocity layers.
type Drum struct {
	Name           string
	Note           int
	Path           string
	CumulativePath string
	Layers         []*VelocityLayer
}

// LayerForVelocity selects the layer covering fractional velocity v
// via linear scan over the (small, sorted) layer list.
func (d *Drum) LayerForVelocity(v float64) *VelocityLayer {
	for _, l := range d.Layers {
		if l.Covers(v) {
			return l
		}
	}
	if len(d.Layers) > 0 {
		return d.Layers[len(d.Layers)-1]
	}
	return nil
}

// Kit is a collection of Drums mapped to MIDI notes.
type Kit struct {
	Name           string
	Path           string
	CumulativePath string
	Drums          []*Drum
	NoteMap        [128]*Drum
}

// Font is one or more Kits plus the originally parsed tree, retained
// for error reporting.
type Font struct {
	Kits       []*Kit
	Root       *fontparser.Value
	AuNaturale bool
}

// Options configures kit materialization.
type Options struct {
	OutputRate float64
	// IncludeLoader resolves an `include` filename to a drum-scoped
	// sub-document's parsed+validated body. Nil disables includes.
	IncludeLoader IncludeLoader
}

// Build walks root (already schema-validated) and produces a Font with
// every robin's sample loaded and aliased into a playback template at
// opts.OutputRate.
func Build(root *fontparser.Value, fontPath string, opts Options) (*Font, []error) {
	var errs []error
	top := root
	if root.Kind == fontparser.VNameValue {
		top = root.Child
	}

	font := &Font{Root: root, AuNaturale: true}
	if auNat, ok := top.Get("au_naturale"); ok {
		font.AuNaturale = auNat.Kind == fontparser.VTrue
	}

	fontDir := filepath.Dir(fontPath)

	for _, kitMember := range top.Members {
		if kitMember.Name == "au_naturale" {
			continue
		}
		k, kerrs := buildKit(kitMember.Name, kitMember.Child, fontDir, font.AuNaturale, opts)
		errs = append(errs, kerrs...)
		if k != nil {
			font.Kits = append(font.Kits, k)
		}
	}

	return font, errs
}

func buildKit(name string, v *fontparser.Value, fontDir string, auNaturale bool, opts Options) (*Kit, []error) {
	var errs []error
	k := &Kit{Name: name}

	if pathVal, ok := v.Get("path"); ok {
		k.Path = pathVal.Str
	}
	k.CumulativePath = filepath.Join(fontDir, k.Path)

	if kitAuNat, ok := v.Get("au_naturale"); ok {
		auNaturale = kitAuNat.Kind == fontparser.VTrue
	}

	instruments, ok := v.Get("instruments")
	if !ok {
		return k, errs
	}

	for _, drumMember := range instruments.Members {
		drum, derrs := buildDrum(drumMember.Name, drumMember.Child, k.CumulativePath, auNaturale, opts)
		errs = append(errs, derrs...)
		if drum == nil {
			continue
		}
		k.Drums = append(k.Drums, drum)
		if drum.Note < 0 || drum.Note > 127 {
			errs = append(errs, fmt.Errorf("kit %q: drum %q: note %d out of range", name, drum.Name, drum.Note))
			continue
		}
		if k.NoteMap[drum.Note] != nil {
			errs = append(errs, fmt.Errorf("kit %q: note %d already mapped to %q, cannot also map %q",
				name, drum.Note, k.NoteMap[drum.Note].Name, drum.Name))
			continue
		}
		k.NoteMap[drum.Note] = drum
	}

	return k, errs
}

func buildDrum(name string, v *fontparser.Value, kitPath string, auNaturale bool, opts Options) (*Drum, []error) {
	var errs []error
	d := &Drum{Name: name}

	if pathVal, ok := v.Get("path"); ok {
		d.Path = pathVal.Str
	}
	d.CumulativePath = filepath.Join(kitPath, d.Path)

	if noteVal, ok := v.Get("note"); ok {
		d.Note = int(noteVal.Num.X())
	}

	velocities, hasVelocities := v.Get("velocities")
	if !hasVelocities {
		includeVal, hasInclude := v.Get("include")
		if !hasInclude || opts.IncludeLoader == nil {
			errs = append(errs, fmt.Errorf("drum %q: no velocities and no usable include", name))
			return d, errs
		}
		body, berr := opts.IncludeLoader(name, includeVal.Str, d.CumulativePath)
		if berr != nil {
			return d, append(errs, berr)
		}
		velocities, hasVelocities = body.Get("velocities")
		if !hasVelocities {
			return d, append(errs, fmt.Errorf("drum %q: included file has no velocities", name))
		}
	}

	for _, layerMember := range velocities.Elements {
		layer, lerrs := buildVelocityLayer(layerMember, d.CumulativePath, auNaturale, opts)
		errs = append(errs, lerrs...)
		if layer != nil {
			d.Layers = append(d.Layers, layer)
		}
	}

	sort.Slice(d.Layers, func(i, j int) bool { return d.Layers[i].Code < d.Layers[j].Code })
	resolveLayerBounds(d.Layers)

	return d, errs
}

func resolveLayerBounds(layers []*VelocityLayer) {
	if len(layers) == 0 {
		return
	}
	for i, l := range layers {
		if i == 0 {
			l.MinVel = 0
		} else {
			l.MinVel = l.Code
		}
	}
	for i := 0; i < len(layers)-1; i++ {
		layers[i].MaxVel = layers[i+1].MinVel - 1
	}
	layers[len(layers)-1].MaxVel = 127

	for _, l := range layers {
		l.FMin = float64(l.MinVel) / 127.0
		l.FMax = float64(l.MaxVel) / 127.0
	}
}

func buildVelocityLayer(layerMember *fontparser.Value, drumPath string, auNaturale bool, opts Options) (*VelocityLayer, []error) {
	var errs []error
	code, ok := parseVelocityCode(layerMember.Name)
	if !ok {
		return nil, append(errs, fmt.Errorf("malformed velocity layer name %q", layerMember.Name))
	}
	l := &VelocityLayer{Code: code}

	v := layerMember.Child
	layerPath := drumPath
	if pathVal, ok := v.Get("path"); ok {
		l.Path = pathVal.Str
		layerPath = filepath.Join(drumPath, l.Path)
	}

	robins, ok := v.Get("robins")
	if !ok {
		return l, errs
	}

	for _, robinMember := range robins.Elements {
		r, rerr := buildRobin(robinMember, layerPath, auNaturale, opts)
		if rerr != nil {
			errs = append(errs, rerr)
			continue
		}
		l.Robins = append(l.Robins, r)
	}
	l.RobinMgr = robinmgr.New(len(l.Robins))

	return l, errs
}

func parseVelocityCode(name string) (int, bool) {
	if len(name) < 2 || name[0] != 'v' {
		return 0, false
	}
	n := 0
	for i := 1; i < len(name); i++ {
		if name[i] < '0' || name[i] > '9' {
			return 0, false
		}
		n = n*10 + int(name[i]-'0')
	}
	return n, true
}

func buildRobin(robinMember *fontparser.Value, layerPath string, auNaturale bool, opts Options) (*Robin, error) {
	v := robinMember.Child
	r := &Robin{}

	if fnameVal, ok := v.Get("fname"); ok {
		r.FName = fnameVal.Str
	}
	r.FullPath = filepath.Join(layerPath, r.FName)

	if offsetVal, ok := v.Get("offset"); ok {
		r.StartFrame = int(offsetVal.Num.X())
	}
	if peakVal, ok := v.Get("peak"); ok {
		r.Peak = peakVal.Num.X()
		r.HasPeak = true
	}
	if rmsVal, ok := v.Get("rms"); ok {
		r.RMS = rmsVal.Num.X()
		r.HasRMS = true
	}

	scaleCode := 1.0
	if !auNaturale && r.HasPeak && r.Peak > 0 {
		scaleCode = 1.0 / r.Peak
	}

	reader, err := soundfile.Open(r.FullPath)
	if err != nil {
		return nil, fmt.Errorf("robin %q: %w", r.FullPath, err)
	}
	defer reader.Close()

	buf := framebuffer.New()
	if err := reader.Read(buf, r.StartFrame, r.EndFrame, scaleCode); err != nil {
		return nil, fmt.Errorf("robin %q: %w", r.FullPath, err)
	}

	w := memwave.New()
	w.AliasSamples(buf)
	w.SetRate(opts.OutputRate)
	w.Reset()
	r.Template = w

	return r, nil
}
