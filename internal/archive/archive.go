// Package archive implements the System-V `ar` front end (C5):
// probing, 60-byte member header parsing, the ranlib symbol index, and
// the "//" long-names table. It hands out member bytes only; parsing a
// member into an object file is left to the caller. Grounded on
// original_source/src/frontends/ar.c line-for-line, down to the
// long-name-table-offset-vs-inline-name branch in get_member_name.
package archive

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/xyproto/weld/internal/byteio"
)

const (
	magic        = "!<arch>\n"
	headerSize   = 60
	headerEnding = "`\n"

	ranlibName1 = "/ "
	ranlibName2 = "__.SYMDEF"
	longNames   = "//"
	sym64Name   = "/SYM64/"
	bsdPrefix   = "#1/"
)

// Member is one regular (non-special) archive member: its name, and
// its byte range within the archive.
type Member struct {
	Name   string
	Offset int64
	Size   int64
}

// Archive is the result of parsing one ar file: its ordered regular
// members and the ranlib symbol index mapping a defined symbol name to
// the byte offset of the member that defines it.
type Archive struct {
	Path       string
	raw        []byte
	Members    []Member
	SymbolToOffset map[string]int64
}

// Probe reports whether raw begins with the ar magic.
func Probe(raw []byte) bool {
	return len(raw) >= len(magic) && string(raw[:len(magic)]) == magic
}

// Parse fully parses an ar archive's regular members and its ranlib
// index. A missing ranlib index is a fatal error per §4.5: "member-by-
// member search without an index is not supported."
func Parse(path string, raw []byte) (*Archive, error) {
	if !Probe(raw) {
		return nil, errors.New("ar: bad magic")
	}

	a := &Archive{Path: path, raw: raw, SymbolToOffset: map[string]int64{}}

	var longNameTable []byte
	haveIndex := false

	pos := int64(len(magic))
	for pos+headerSize <= int64(len(raw)) {
		hdr := raw[pos : pos+headerSize]
		if string(hdr[58:60]) != headerEnding {
			return nil, errors.Errorf("ar: malformed header terminator at offset %d", pos)
		}

		name16 := string(hdr[0:16])
		sizeStr := strings.TrimSpace(string(hdr[48:58]))
		size, err := strconv.ParseInt(sizeStr, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "ar: bad member size at offset %d", pos)
		}

		dataOff := pos + headerSize
		if dataOff+size > int64(len(raw)) {
			return nil, errors.Errorf("ar: member at offset %d overruns archive", pos)
		}
		data := raw[dataOff : dataOff+size]

		switch {
		case strings.HasPrefix(name16, ranlibName1), strings.HasPrefix(name16, ranlibName2):
			if err := a.parseRanlib(data); err != nil {
				return nil, errors.Wrap(err, "ar: ranlib index")
			}
			haveIndex = true

		case strings.HasPrefix(name16, longNames):
			longNameTable = data

		case strings.HasPrefix(name16, sym64Name):
			return nil, errors.New("ar: SYM64 64-bit symbol index is unsupported")

		case strings.HasPrefix(name16, bsdPrefix):
			return nil, errors.New("ar: BSD-style (#1/) long names are unsupported")

		default:
			a.Members = append(a.Members, Member{
				Name:   memberName(name16, longNameTable),
				Offset: dataOff,
				Size:   size,
			})
		}

		pos = dataOff + size
		if pos%2 != 0 {
			pos++
		}
	}

	if !haveIndex {
		return nil, errors.New("ar: missing ranlib symbol index")
	}

	// The ranlib index stores byte offsets into the archive, pointing
	// at member headers; they are kept as-is in SymbolToOffset and
	// mapped back to a Member by MemberAtOffset.
	return a, nil
}

// parseRanlib decodes the "/ " ranlib symbol index: a big-endian uint32
// count N, N big-endian uint32 offsets, then N NUL-terminated names, in
// that order.
func (a *Archive) parseRanlib(data []byte) error {
	if len(data) < 4 {
		return errors.New("truncated count")
	}
	n := int(byteio.ReadBE32(data[0:4]))
	offsetsEnd := 4 + n*4
	if offsetsEnd > len(data) {
		return errors.New("truncated offset table")
	}

	offsets := make([]uint32, n)
	for i := 0; i < n; i++ {
		offsets[i] = byteio.ReadBE32(data[4+i*4 : 8+i*4])
	}

	names := data[offsetsEnd:]
	pos := 0
	for i := 0; i < n; i++ {
		start := pos
		for pos < len(names) && names[pos] != 0 {
			pos++
		}
		if pos >= len(names) {
			return errors.New("truncated name table")
		}
		name := string(names[start:pos])
		pos++ // skip NUL
		a.SymbolToOffset[name] = int64(offsets[i])
	}

	return nil
}

// memberName resolves a 16-byte packed member name: either an inline
// name terminated by '/', or (if it begins with '/' followed by ASCII
// decimal) an offset into the long-names table terminated by '/'.
func memberName(raw16 string, longNameTable []byte) string {
	if len(raw16) > 0 && raw16[0] == '/' && len(longNameTable) > 0 {
		digits := strings.TrimRight(raw16[1:], " ")
		if off, err := strconv.Atoi(digits); err == nil && off >= 0 && off < len(longNameTable) {
			end := off
			for end < len(longNameTable) && longNameTable[end] != '/' {
				end++
			}
			return string(longNameTable[off:end])
		}
	}
	if idx := strings.IndexByte(raw16, '/'); idx >= 0 {
		return raw16[:idx]
	}
	return strings.TrimRight(raw16, " ")
}

// MemberAtOffset returns the Member whose header begins at byte offset
// off within the archive (the form ranlib offsets are stored in), or
// false if none matches.
func (a *Archive) MemberAtOffset(off int64) (Member, bool) {
	for _, m := range a.Members {
		if m.Offset-headerSize == off {
			return m, true
		}
	}
	return Member{}, false
}

// Data returns the raw bytes belonging to member m.
func (a *Archive) Data(m Member) []byte {
	return a.raw[m.Offset : m.Offset+m.Size]
}
