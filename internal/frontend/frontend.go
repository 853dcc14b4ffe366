// Package frontend defines the probe-then-parse contract every input
// format implements and a Registry that dispatches a raw file to the
// right one, mirroring original_source's objfile_frontend.h/
// archive_frontend.h registration pattern and the probe-chain idiom
// from aclements-go-obj's obj.Open ("if isElf, f, err := openElf(r);
// isElf { return f, err }").
package frontend

import (
	"io"

	"github.com/xyproto/weld/internal/diag"
	"github.com/xyproto/weld/internal/object"
)

// Resolver is how an object front end publishes a non-local symbol
// declaration into the global namespace. Implementations apply the
// merge rule table (kept in the root weld package, not duplicated
// per front end) and report a multiple-definition error when the
// table says to. Resolve always returns the symbol that should be
// stored in the object's own local table, per §4.4's "local table
// always stores the survivor" rule.
type Resolver interface {
	Resolve(name string, incoming *object.Symbol) (survivor *object.Symbol, err error)
}

// ObjectFrontEnd recognizes and parses one object file format.
type ObjectFrontEnd interface {
	// Name identifies the frontend for diagnostics, e.g. "elf64".
	Name() string
	// Probe reports whether r looks like this frontend's format. It
	// must not consume r permanently; implementations should seek back
	// to the start before returning, or operate only on a bounded
	// peek.
	Probe(r io.ReaderAt, size int64) (bool, error)
	// Parse fully parses r (known to belong to this frontend, since
	// Probe already returned true) into an object.ObjectFile, assigning
	// it id, publishing non-local symbols through resolver and
	// reporting diagnostics through sink.
	Parse(r io.ReaderAt, size int64, path string, id int, resolver Resolver, sink *diag.Sink) (*object.ObjectFile, error)
}

// ArchiveMember is one entry extracted from an archive: its raw bytes
// and the name it was stored under.
type ArchiveMember struct {
	Name string
	Data []byte
}

// ArchiveFrontEnd recognizes and parses one archive container format.
type ArchiveFrontEnd interface {
	Name() string
	Probe(r io.ReaderAt, size int64) (bool, error)
	// Parse returns the archive's members in file order together with
	// the symbol -> member-index index recovered from its ranlib
	// table (member index is an index into the returned members
	// slice).
	Parse(r io.ReaderAt, size int64, path string) (members []ArchiveMember, symbolIndex map[string]int, err error)
}

// Registry holds the known front ends and dispatches a file to
// whichever one claims it. Archives are probed before objects, since
// an archive's magic is cheaper to check and a malformed object probe
// must never be allowed to accidentally match archive bytes.
type Registry struct {
	archives []ArchiveFrontEnd
	objects  []ObjectFrontEnd
}

// NewRegistry returns an empty registry; call RegisterArchive and
// RegisterObject to populate it.
func NewRegistry() *Registry {
	return &Registry{}
}

// RegisterArchive adds an archive frontend to the probe chain.
func (reg *Registry) RegisterArchive(fe ArchiveFrontEnd) {
	reg.archives = append(reg.archives, fe)
}

// RegisterObject adds an object frontend to the probe chain.
func (reg *Registry) RegisterObject(fe ObjectFrontEnd) {
	reg.objects = append(reg.objects, fe)
}

// Kind reports what ProbeAll determined a file to be.
type Kind int

const (
	KindUnknown Kind = iota
	KindObject
	KindArchive
)

// ProbeAll runs every registered frontend against r in archive-then-
// object order and reports which one (if any) claimed it.
func (reg *Registry) ProbeAll(r io.ReaderAt, size int64) (Kind, any, error) {
	for _, fe := range reg.archives {
		ok, err := fe.Probe(r, size)
		if err != nil {
			return KindUnknown, nil, err
		}
		if ok {
			return KindArchive, fe, nil
		}
	}

	for _, fe := range reg.objects {
		ok, err := fe.Probe(r, size)
		if err != nil {
			return KindUnknown, nil, err
		}
		if ok {
			return KindObject, fe, nil
		}
	}

	return KindUnknown, nil, nil
}
