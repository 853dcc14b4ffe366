package archive

import (
	"io"

	"github.com/xyproto/weld/internal/frontend"
)

// FrontEnd implements frontend.ArchiveFrontEnd for System-V ar files.
type FrontEnd struct{}

// New returns the ar archive front end.
func New() *FrontEnd { return &FrontEnd{} }

func (FrontEnd) Name() string { return "ar" }

func (FrontEnd) Probe(r io.ReaderAt, size int64) (bool, error) {
	if size < int64(len(magic)) {
		return false, nil
	}
	buf := make([]byte, len(magic))
	if _, err := r.ReadAt(buf, 0); err != nil {
		return false, err
	}
	return Probe(buf), nil
}

func (FrontEnd) Parse(r io.ReaderAt, size int64, path string) ([]frontend.ArchiveMember, map[string]int, error) {
	raw := make([]byte, size)
	if _, err := r.ReadAt(raw, 0); err != nil && err != io.EOF {
		return nil, nil, err
	}

	a, err := Parse(path, raw)
	if err != nil {
		return nil, nil, err
	}

	members := make([]frontend.ArchiveMember, len(a.Members))
	for i, m := range a.Members {
		members[i] = frontend.ArchiveMember{Name: m.Name, Data: a.Data(m)}
	}

	symbolIndex := map[string]int{}
	for name, off := range a.SymbolToOffset {
		member, ok := a.MemberAtOffset(off)
		if !ok {
			continue
		}
		for i, m := range a.Members {
			if m == member {
				symbolIndex[name] = i
				break
			}
		}
	}

	return members, symbolIndex, nil
}
