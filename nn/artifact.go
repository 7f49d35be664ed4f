package nn

import (
	"bufio"
	"encoding/json"
	"io"
	"math/rand/v2"
	"os"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
)

// ArtifactFormat tags the artifact layout.
const ArtifactFormat = "algo-anomaly/nn/v1"

// Artifact is the portable form of a Sequential model.
type Artifact struct {
	Format string            `json:"format"`
	Input  []int             `json:"input"`
	Layers []LayerSpec       `json:"layers"`
	Params []ParamState      `json:"params"`
	Meta   map[string]string `json:"meta,omitempty"`

	// Extra carries caller-defined payloads stored next to the model, such
	// as the preprocessing a prediction must repeat.
	Extra map[string]json.RawMessage `json:"extra,omitempty"`
}

// SetExtra stores v as JSON under key.
func (a *Artifact) SetExtra(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "nn: encode extra %q", key)
	}
	if a.Extra == nil {
		a.Extra = map[string]json.RawMessage{}
	}
	a.Extra[key] = b
	return nil
}

// DecodeExtra decodes the payload stored under key into v.
func (a Artifact) DecodeExtra(key string, v any) error {
	b, ok := a.Extra[key]
	if !ok {
		return errors.Wrapf(ErrArtifact, "missing extra %q", key)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return errors.Wrapf(ErrArtifact, "extra %q: %v", key, err)
	}
	return nil
}

// ParamState is the stored value of one parameter. Params are listed in
// layer order, then in the order each layer declares them.
type ParamState struct {
	Layer int       `json:"layer"`
	Name  string    `json:"name"`
	Value []float64 `json:"value"`
}

// Artifact captures the architecture and every parameter of m.
func (m *Sequential) Artifact(meta map[string]string) Artifact {
	a := Artifact{
		Format: ArtifactFormat,
		Input:  m.InputShape(),
		Meta:   meta,
	}
	for i, l := range m.layers {
		a.Layers = append(a.Layers, l.spec())
		for _, p := range l.params() {
			a.Params = append(a.Params, ParamState{
				Layer: i,
				Name:  p.Name,
				Value: append([]float64(nil), p.Value...),
			})
		}
	}
	return a
}

// FromArtifact rebuilds a model from a and loads its parameters.
func FromArtifact(a Artifact) (*Sequential, error) {
	if a.Format != ArtifactFormat {
		return nil, errors.Wrapf(ErrArtifact, "format %q, want %q", a.Format, ArtifactFormat)
	}

	layers := make([]Layer, len(a.Layers))
	for i, s := range a.Layers {
		l, err := layerFromSpec(s)
		if err != nil {
			return nil, errors.Wrapf(err, "layer %d", i)
		}
		layers[i] = l
	}

	// Initial weights are overwritten below.
	m, err := NewSequential(a.Input, rand.New(rand.NewPCG(0, 0)), layers...)
	if err != nil {
		return nil, errors.Wrapf(ErrArtifact, "rebuild: %v", err)
	}

	var params []*Param
	var owner []int
	for i, l := range m.layers {
		for _, p := range l.params() {
			params = append(params, p)
			owner = append(owner, i)
		}
	}
	if len(params) != len(a.Params) {
		return nil, errors.Wrapf(ErrArtifact, "%d params stored, model has %d", len(a.Params), len(params))
	}
	for i, p := range params {
		st := a.Params[i]
		if st.Layer != owner[i] || st.Name != p.Name || len(st.Value) != len(p.Value) {
			return nil, errors.Wrapf(ErrArtifact, "param %d: stored %d/%s[%d], model %d/%s[%d]",
				i, st.Layer, st.Name, len(st.Value), owner[i], p.Name, len(p.Value))
		}
		copy(p.Value, st.Value)
	}
	return m, nil
}

func layerFromSpec(s LayerSpec) (Layer, error) {
	switch s.Kind {
	case KindConv1D:
		act, err := ParseActivation(s.Activation)
		if err != nil {
			return nil, err
		}
		return NewConv1D(s.Units, s.Kernel, act), nil
	case KindBatchNorm:
		return &BatchNorm{momentum: s.Momentum, epsilon: s.Epsilon}, nil
	case KindMaxPool1D:
		return NewMaxPool1D(s.Pool), nil
	case KindDropout:
		return NewDropout(s.Rate), nil
	case KindLSTM:
		return NewLSTM(s.Units, s.L2), nil
	case KindDense:
		act, err := ParseActivation(s.Activation)
		if err != nil {
			return nil, err
		}
		return NewDense(s.Units, act, s.L2), nil
	default:
		return nil, errors.Wrapf(ErrArtifact, "unknown layer kind %q", s.Kind)
	}
}

// WriteArtifact encodes a as snappy framed JSON.
func WriteArtifact(w io.Writer, a Artifact) error {
	sz := snappy.NewBufferedWriter(w)
	if err := json.NewEncoder(sz).Encode(a); err != nil {
		return errors.Wrap(err, "nn: encode artifact")
	}
	return errors.Wrap(sz.Close(), "nn: flush artifact")
}

// ReadArtifact decodes an artifact written by WriteArtifact.
func ReadArtifact(r io.Reader) (Artifact, error) {
	var a Artifact
	if err := json.NewDecoder(snappy.NewReader(r)).Decode(&a); err != nil {
		return Artifact{}, errors.Wrapf(ErrArtifact, "decode: %v", err)
	}
	return a, nil
}

// SaveArtifact writes a to path.
func SaveArtifact(path string, a Artifact) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "nn: create %s", path)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteArtifact(f, a)
}

// LoadArtifact reads path and rebuilds the model it holds.
func LoadArtifact(path string) (*Sequential, Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Artifact{}, errors.Wrapf(ErrArtifact, "open %s: %v", path, err)
	}
	defer f.Close()

	a, err := ReadArtifact(bufio.NewReader(f))
	if err != nil {
		return nil, Artifact{}, err
	}
	m, err := FromArtifact(a)
	if err != nil {
		return nil, Artifact{}, err
	}
	return m, a, nil
}
