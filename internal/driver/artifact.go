package driver

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"stateful/internal/ast"
	"stateful/internal/diag"
	"stateful/internal/mir"
	"stateful/internal/statemachine"
	"stateful/internal/version"
)

// Current schema version, increment when Artifact or the mir/statemachine
// wire form changes.
const artifactSchemaVersion uint16 = 1

// Artifact is what a renderer receives for one function: the block graph
// with its local table, the machine and, when requested, the resume layer
// (Machine.Resume). Failed functions carry only diagnostics.
type Artifact struct {
	Name        string
	Kind        ast.FuncKind
	Graph       *mir.Func             `msgpack:",omitempty"`
	Machine     *statemachine.Machine `msgpack:",omitempty"`
	Diagnostics []diag.Diagnostic     `msgpack:",omitempty"`
}

// Failed reports whether lowering produced no machine.
func (a *Artifact) Failed() bool { return a.Machine == nil }

type bundle struct {
	Schema    uint16
	Tool      string
	Artifacts []Artifact
}

// ArtifactOf converts a lowering result.
func ArtifactOf(r *Result) Artifact {
	a := Artifact{Name: r.Name, Graph: r.Func, Machine: r.Machine}
	if r.Func != nil {
		a.Kind = r.Func.Kind
	}
	if r.Bag != nil {
		a.Diagnostics = r.Bag.Items()
	}
	return a
}

// EncodeArtifacts writes arts as one msgpack bundle.
func EncodeArtifacts(w io.Writer, arts []Artifact) error {
	enc := msgpack.NewEncoder(w)
	return enc.Encode(&bundle{
		Schema:    artifactSchemaVersion,
		Tool:      "stateful " + version.Version,
		Artifacts: arts,
	})
}

// DecodeArtifacts reads a bundle written by EncodeArtifacts.
func DecodeArtifacts(r io.Reader) ([]Artifact, error) {
	var b bundle
	if err := msgpack.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode artifacts: %w", err)
	}
	if b.Schema != artifactSchemaVersion {
		return nil, fmt.Errorf("decode artifacts: schema %d, want %d", b.Schema, artifactSchemaVersion)
	}
	return b.Artifacts, nil
}
