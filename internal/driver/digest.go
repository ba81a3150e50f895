package driver

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/vmihailenco/msgpack/v5"

	"stateful/internal/ast"
)

// Digest identifies the lowering input of one function.
type Digest [sha256.Size]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// IsZero reports whether d was never computed.
func (d Digest) IsZero() bool { return d == Digest{} }

// digestInput is everything that can change a lowering result.
type digestInput struct {
	Schema    uint16
	Resumable bool
	Yield     string
	Await     string
	Func      *ast.Func
}

// FuncDigest hashes fn together with the options that affect lowering. It
// reports false when the classifier is not a marker table, since arbitrary
// classifiers cannot be fingerprinted.
func FuncDigest(fn *ast.Func, opts Options) (Digest, bool) {
	in := digestInput{Schema: artifactSchemaVersion, Resumable: opts.Resumable, Func: fn}
	switch c := opts.Classifier.(type) {
	case nil:
		in.Yield, in.Await = ast.DefaultMarkers.Yield, ast.DefaultMarkers.Await
	case ast.Markers:
		in.Yield, in.Await = c.Yield, c.Await
	default:
		return Digest{}, false
	}
	data, err := msgpack.Marshal(&in)
	if err != nil {
		return Digest{}, false
	}
	return combineDigest(data), true
}

// combineDigest hashes the parts in order.
func combineDigest(parts ...[]byte) Digest {
	h := sha256.New()
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
