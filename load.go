package weld

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"

	"github.com/xyproto/weld/internal/elfobj"
	"github.com/xyproto/weld/internal/frontend"
	"github.com/xyproto/weld/internal/symtab"
)

// AddInput probes data (the contents of a file named path) against
// every registered front end, archives first, and attaches the result
// to the context: an archive becomes a new archiveEntry, an object is
// parsed immediately and queued onto the unprocessed list.
func (c *Context) AddInput(path string, data []byte) error {
	r := bytes.NewReader(data)
	size := int64(len(data))

	kind, fe, err := c.registry.ProbeAll(r, size)
	if err != nil {
		return errors.Wrapf(err, "probing %s", path)
	}

	switch kind {
	case frontend.KindArchive:
		return c.addArchive(path, r, size, fe.(frontend.ArchiveFrontEnd))
	case frontend.KindObject:
		return c.addObjectFile(path, r, size, fe.(frontend.ObjectFrontEnd))
	default:
		return fmt.Errorf("%s: unrecognized format", path)
	}
}

func (c *Context) addArchive(path string, r *bytes.Reader, size int64, fe frontend.ArchiveFrontEnd) error {
	members, symbolIndex, err := fe.Parse(r, size, path)
	if err != nil {
		return errors.Wrapf(err, "parsing archive %s", path)
	}

	idx := symtab.NewArchiveIndex()
	for name, memberID := range symbolIndex {
		idx.Add(name, memberID)
	}

	entry := &archiveEntry{
		path:         path,
		index:        idx,
		materialized: map[int]int{},
		members:      members,
	}
	c.archives = append(c.archives, entry)
	return nil
}

func (c *Context) addObjectFile(path string, r *bytes.Reader, size int64, fe frontend.ObjectFrontEnd) error {
	if m, err := elfobj.Machine(r, size); err == nil {
		c.noteMachine(m)
	}

	id := c.allocObjectID()
	resolver := &contextResolver{ctx: c}
	obj, err := fe.Parse(r, size, path, id, resolver, c.sink)
	if err != nil {
		return errors.Wrapf(err, "parsing %s", path)
	}
	obj.FromArchive = -1
	c.addObject(obj)
	return nil
}
