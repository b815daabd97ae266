package loader

import (
	"bytes"
	"fmt"

	"github.com/google/pprof/profile"

	"github.com/matzehuels/stackgraph/pkg/callgraph"
	"github.com/matzehuels/stackgraph/pkg/errors"
)

// ParsePprof decodes a pprof profile (gzipped or raw protobuf, or one of the
// legacy text formats the pprof package understands) into a [Profile].
//
// Each sample becomes one stack. Locations are leaf-first and every inlined
// line of a location becomes its own frame, innermost first. The sample's
// weights hold one entry per sample type plus "calls", which copies the value
// selected by [Options.SampleType]. Samples without locations are skipped.
func ParsePprof(data []byte, opts Options) (*Profile, error) {
	pp, err := profile.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedProfile, err, "parse pprof profile")
	}
	return FromPprof(pp, opts)
}

// FromPprof converts an already decoded pprof profile.
func FromPprof(pp *profile.Profile, opts Options) (*Profile, error) {
	if len(pp.SampleType) == 0 {
		return nil, errors.New(errors.ErrCodeMalformedProfile, "pprof profile declares no sample types")
	}
	idx, err := sampleIndex(pp, opts.SampleType)
	if err != nil {
		return nil, err
	}

	label := opts.threadLabel()
	p := &Profile{Format: FormatPprof, Samples: make([]Sample, 0, len(pp.Sample))}
	for i, s := range pp.Sample {
		if len(s.Location) == 0 {
			continue
		}
		if len(s.Value) != len(pp.SampleType) {
			return nil, errors.New(errors.ErrCodeMalformedProfile,
				"sample %d has %d values for %d sample types", i, len(s.Value), len(pp.SampleType))
		}

		w := make(callgraph.Weights, len(pp.SampleType)+1)
		for j, st := range pp.SampleType {
			if s.Value[j] < 0 {
				return nil, errors.New(errors.ErrCodeMalformedProfile,
					"sample %d has negative %s value; diff profiles are not supported", i, st.Type)
			}
			w[st.Type] += s.Value[j]
		}
		w[callgraph.DimCalls] = s.Value[idx]

		thread := ""
		if vals := s.Label[label]; len(vals) > 0 {
			thread = vals[0]
		}
		p.Samples = append(p.Samples, Sample{Frames: sampleFrames(s, thread), Weights: w})
	}
	return p, nil
}

func sampleFrames(s *profile.Sample, thread string) []callgraph.Frame {
	frames := make([]callgraph.Frame, 0, len(s.Location))
	for _, loc := range s.Location {
		if len(loc.Line) == 0 {
			// Unsymbolized: fall back to the mapping and address.
			path := ""
			if loc.Mapping != nil {
				path = loc.Mapping.File
			}
			frames = append(frames, callgraph.Frame{
				Thread: thread,
				Path:   path,
				Func:   fmt.Sprintf("0x%x", loc.Address),
			})
			continue
		}
		for _, line := range loc.Line {
			f := callgraph.Frame{Thread: thread, Line: int(line.Line)}
			if fn := line.Function; fn != nil {
				f.Path = fn.Filename
				f.Func = fn.Name
			}
			frames = append(frames, f)
		}
	}
	return frames
}

func sampleIndex(pp *profile.Profile, name string) (int, error) {
	if name != "" {
		for i, st := range pp.SampleType {
			if st.Type == name {
				return i, nil
			}
		}
		return 0, errors.New(errors.ErrCodeInvalidInput, "sample type %q not in profile", name)
	}
	if pp.DefaultSampleType != "" {
		for i, st := range pp.SampleType {
			if st.Type == pp.DefaultSampleType {
				return i, nil
			}
		}
	}
	return len(pp.SampleType) - 1, nil
}
