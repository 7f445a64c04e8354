package hdf5

import (
	"path"

	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-fast5/internal/message"
	"github.com/robert-malhotra/go-fast5/internal/object"
)

// node is an object in the pending write tree. Object headers are written
// bottom-up when the file is flushed, so that every group header is written
// after the addresses of all of its members are known.
type node interface {
	nodeName() string
	commit() (uint64, error)
}

func (g *Group) nodeName() string { return g.Name() }

// CreateGroup creates a new subgroup with the given name.
func (g *Group) CreateGroup(name string) (*Group, error) {
	if err := g.checkNewChild(name); err != nil {
		return nil, err
	}

	child := &Group{
		file:   g.file,
		path:   childPath(g.path, name),
		parent: g,
		dirty:  true,
	}
	g.children = append(g.children, child)
	g.markDirty()
	return child, nil
}

// RequireGroup returns the named subgroup, creating it if it does not exist
// yet in this session.
func (g *Group) RequireGroup(name string) (*Group, error) {
	if existing := g.pendingChild(name); existing != nil {
		grp, ok := existing.(*Group)
		if !ok {
			return nil, errors.Wrapf(ErrNotGroup, "%s", childPath(g.path, name))
		}
		return grp, nil
	}
	return g.CreateGroup(name)
}

// SetAttr attaches an attribute to the group, replacing any attribute of the
// same name created earlier in this session.
func (g *Group) SetAttr(name string, value interface{}) error {
	if !g.file.writable || g.header != nil {
		return ErrReadOnly
	}
	msg, err := g.file.createAttributeMessage(name, value)
	if err != nil {
		return errors.Wrapf(err, "attribute %q on %s", name, g.path)
	}
	g.attrs = upsertAttr(g.attrs, msg)
	g.markDirty()
	return nil
}

// checkNewChild validates that name can be added to this group.
func (g *Group) checkNewChild(name string) error {
	if !g.file.writable || g.header != nil {
		return ErrReadOnly
	}
	if g.file.closed {
		return ErrClosed
	}
	if name == "" || name == "." || name == ".." {
		return errors.Wrapf(ErrInvalidPath, "name %q", name)
	}
	for _, r := range name {
		if r == '/' {
			return errors.Wrapf(ErrInvalidPath, "name %q contains '/'", name)
		}
	}
	if g.pendingChild(name) != nil {
		return errors.Wrapf(ErrExists, "%s", childPath(g.path, name))
	}
	return nil
}

func (g *Group) pendingChild(name string) node {
	for _, c := range g.children {
		if c.nodeName() == name {
			return c
		}
	}
	return nil
}

// markDirty flags this group and all of its ancestors for rewriting.
func (g *Group) markDirty() {
	for cur := g; cur != nil; cur = cur.parent {
		cur.dirty = true
	}
}

// commit writes the headers of all dirty members and then this group's
// header, returning the header address.
func (g *Group) commit() (uint64, error) {
	if !g.dirty && g.addr != 0 {
		return g.addr, nil
	}

	links := make([]*message.Link, 0, len(g.children))
	for _, c := range g.children {
		addr, err := c.commit()
		if err != nil {
			return 0, err
		}
		links = append(links, message.NewHardLink(c.nodeName(), addr))
	}

	messages := object.NewGroupHeader(links)
	for _, a := range g.attrs {
		messages = append(messages, a)
	}

	addr, err := g.file.writeHeader(messages, object.MinGroupChunkSize)
	if err != nil {
		return 0, errors.Wrapf(err, "writing group header %s", g.path)
	}
	g.addr = addr
	g.dirty = false
	return addr, nil
}

func childPath(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return path.Join(parent, name)
}

func upsertAttr(attrs []*message.Attribute, msg *message.Attribute) []*message.Attribute {
	for i, a := range attrs {
		if a.Name == msg.Name {
			attrs[i] = msg
			return attrs
		}
	}
	return append(attrs, msg)
}
