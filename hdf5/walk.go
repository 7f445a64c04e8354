package hdf5

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// WalkFunc is called for each object during traversal. obj is either
// *Group or *Dataset; err is set when the object could not be opened.
// Returning ErrStopWalk ends the walk without an error; any other non-nil
// error ends it and is returned by Walk.
type WalkFunc func(path string, obj interface{}, err error) error

// ErrStopWalk can be returned from a walk callback to stop walking early.
var ErrStopWalk = errors.New("walk stopped")

// Walk traverses the hierarchy below g depth-first in native member order,
// calling fn for g itself and then for every group and dataset beneath it.
//
//	hdf5.Walk(f.Root(), func(path string, obj interface{}, err error) error {
//	    if ds, ok := obj.(*hdf5.Dataset); ok {
//	        fmt.Println(path, ds.Shape())
//	    }
//	    return err
//	})
func Walk(g *Group, fn WalkFunc) error {
	err := walkGroup(g, fn)
	if errors.Is(err, ErrStopWalk) {
		return nil
	}
	return err
}

func walkGroup(g *Group, fn WalkFunc) error {
	if err := fn(g.Path(), g, nil); err != nil {
		return err
	}

	children, err := g.Children()
	if err != nil {
		return errors.Wrapf(err, "listing %s", g.Path())
	}

	for _, c := range children {
		p := childPath(g.Path(), c.Name)
		switch c.Kind {
		case KindGroup:
			sub, err := g.OpenGroup(c.Name)
			if err != nil {
				if err := fn(p, nil, err); err != nil {
					return err
				}
				continue
			}
			if err := walkGroup(sub, fn); err != nil {
				return err
			}
		case KindDataset:
			ds, err := g.OpenDataset(c.Name)
			if err != nil {
				ds = nil
			}
			if err := fn(p, ds, err); err != nil {
				return err
			}
		}
	}
	return nil
}

// AttrInfo describes one attribute visited by WalkAttrs.
type AttrInfo struct {
	// Path is the full attribute path, e.g. "/read_1/Raw@read_id".
	Path       string
	ObjectPath string
	ObjectKind ObjectKind
	Name       string
	Attr       *Attribute

	// Value is the decoded value, nil when Err is set.
	Value interface{}
	Err   error
}

// WalkAttrsFunc is the callback for WalkAttrs.
type WalkAttrsFunc func(info AttrInfo) error

// WalkAttrs visits every attribute on every group and dataset in the file.
// Objects that cannot be opened are skipped.
func (f *File) WalkAttrs(fn WalkAttrsFunc) error {
	if f.closed {
		return ErrClosed
	}
	err := Walk(f.root, func(p string, obj interface{}, err error) error {
		if err != nil {
			f.log.Debug("skipping object in attribute walk", zap.String("path", p), zap.Error(err))
			return nil
		}
		var (
			names []string
			get   func(string) *Attribute
			kind  ObjectKind
		)
		switch o := obj.(type) {
		case *Group:
			names, get, kind = o.Attrs(), o.Attr, KindGroup
		case *Dataset:
			names, get, kind = o.Attrs(), o.Attr, KindDataset
		default:
			return nil
		}
		for _, name := range names {
			info := AttrInfo{
				Path:       JoinAttrPath(p, name),
				ObjectPath: p,
				ObjectKind: kind,
				Name:       name,
				Attr:       get(name),
			}
			if info.Attr != nil {
				info.Value, info.Err = info.Attr.Value()
			}
			if err := fn(info); err != nil {
				return err
			}
		}
		return nil
	})
	return err
}
