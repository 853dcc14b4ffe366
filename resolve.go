package weld

import (
	"bytes"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/xyproto/weld/internal/elfobj"
	"github.com/xyproto/weld/internal/object"
)

// ResolveGlobals runs the archive demand-loading fixpoint of §4.6: it
// repeatedly scans every unprocessed file's non-local symbols for
// still-undefined (non-weak) globals, and for each one asks every
// attached archive whether it has a not-yet-materialized member that
// defines it. A hit materializes that member (parsing it through the
// ELF front end, exactly as if it had been given on the command line),
// queues the new object, and moves the current file to the processed
// list without scanning the rest of its symbols. Once no
// file makes progress, any undefined non-weak global that remains is
// reported as a single aggregated error.
func (c *Context) ResolveGlobals() error {
	for len(c.unprocessed) > 0 {
		madeProgress := false

		for len(c.unprocessed) > 0 {
			id := c.unprocessed[0]
			c.unprocessed = c.unprocessed[1:]
			obj := c.objectByID(id)

			progressed, err := c.scanForDemandLoad(obj)
			if err != nil {
				return err
			}
			if progressed {
				madeProgress = true
			}

			c.processed = append(c.processed, id)
		}

		if !madeProgress {
			break
		}
	}

	return c.checkUnresolved()
}

// scanForDemandLoad looks for an undefined non-weak global in obj's
// local table that some attached archive can satisfy. On the first
// match it materializes that member, queues the resulting object back
// onto the unprocessed list (ahead of whatever is already queued,
// mirroring "add obj to unprocessed" in §4.6's pseudocode), and stops
// scanning obj early, matching the "break out to next file" step.
func (c *Context) scanForDemandLoad(obj *object.ObjectFile) (bool, error) {
	for _, sym := range obj.Locals {
		if sym == nil || sym.Binding == object.BindLocal {
			continue
		}
		if sym.State != object.StateUndefined || sym.Binding == object.BindWeak {
			continue
		}

		for _, ae := range c.archives {
			memberID, ok := ae.index.Lookup(sym.Name)
			if !ok {
				continue
			}
			if _, already := ae.materialized[memberID]; already {
				continue
			}

			newObj, err := c.materialize(ae, memberID)
			if err != nil {
				return false, errors.Wrapf(err, "materializing %s from %s", sym.Name, ae.path)
			}
			c.unprocessed = append([]int{newObj.ID}, c.unprocessed...)
			return true, nil
		}
	}
	return false, nil
}

func (c *Context) materialize(ae *archiveEntry, memberID int) (*object.ObjectFile, error) {
	member := ae.members[memberID]
	id := c.allocObjectID()

	r := bytes.NewReader(member.Data)
	size := int64(len(member.Data))
	fe := elfobj.New()

	ok, err := fe.Probe(r, size)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s: member %s is not a recognized object format", ae.path, member.Name)
	}

	if m, err := elfobj.Machine(r, size); err == nil {
		c.noteMachine(m)
	}

	resolver := &contextResolver{ctx: c}
	path := ae.path + "(" + member.Name + ")"
	obj, err := fe.Parse(r, size, path, id, resolver, c.sink)
	if err != nil {
		return nil, err
	}
	obj.FromArchive = memberID

	ae.materialized[memberID] = id
	c.objects = append(c.objects, obj)
	return obj, nil
}

func (c *Context) checkUnresolved() error {
	var result *multierror.Error
	for _, name := range c.Globals.Undefined() {
		sym := c.Globals.Lookup(name)
		if sym == nil || sym.Binding == object.BindWeak {
			continue
		}
		result = multierror.Append(result, fmt.Errorf("undefined reference to %q", name))
	}
	if result != nil {
		return result.ErrorOrNil()
	}
	return nil
}
