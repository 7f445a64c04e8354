package hdf5

import (
	"path"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/robert-malhotra/go-fast5/internal/btree"
	"github.com/robert-malhotra/go-fast5/internal/heap"
	"github.com/robert-malhotra/go-fast5/internal/message"
	"github.com/robert-malhotra/go-fast5/internal/object"
)

// Group represents an HDF5 group. Groups opened from disk are backed by
// their object header; groups created in a writable session are backed by
// the pending write tree until the file is flushed.
type Group struct {
	file   *File
	path   string
	header *object.Header
	addr   uint64

	// Write support fields
	parent   *Group
	children []node
	attrs    []*message.Attribute
	dirty    bool
}

// ObjectKind distinguishes the two kinds of link targets a group can hold.
type ObjectKind int

const (
	KindGroup ObjectKind = iota
	KindDataset
)

func (k ObjectKind) String() string {
	if k == KindDataset {
		return "dataset"
	}
	return "group"
}

// Child describes one immediate member of a group.
type Child struct {
	Name string
	Kind ObjectKind
}

// linkResolution holds the result of resolving a link.
type linkResolution struct {
	address   uint64
	isDataset bool
}

// Name returns the group name (last component of path).
func (g *Group) Name() string {
	if g.path == "/" {
		return "/"
	}
	return path.Base(g.path)
}

// Path returns the full path to this group.
func (g *Group) Path() string {
	return g.path
}

// OpenGroup opens a subgroup by relative path.
func (g *Group) OpenGroup(relativePath string) (*Group, error) {
	obj, err := g.open(relativePath)
	if err != nil {
		return nil, err
	}

	group, ok := obj.(*Group)
	if !ok {
		return nil, errors.Wrapf(ErrNotGroup, "%s", relativePath)
	}
	return group, nil
}

// OpenDataset opens a dataset by relative path.
func (g *Group) OpenDataset(relativePath string) (*Dataset, error) {
	obj, err := g.open(relativePath)
	if err != nil {
		return nil, err
	}

	dataset, ok := obj.(*Dataset)
	if !ok {
		return nil, errors.Wrapf(ErrNotDataset, "%s", relativePath)
	}
	return dataset, nil
}

// HasChild reports whether a link with the given name exists in this group.
func (g *Group) HasChild(name string) bool {
	if g.header == nil {
		return g.pendingChild(name) != nil
	}
	_, err := g.findChild(name, make(map[string]bool))
	return err == nil
}

// open opens an object by relative path.
func (g *Group) open(relativePath string) (interface{}, error) {
	parts := SplitPath(relativePath)
	if len(parts) == 0 {
		return g, nil
	}

	current := g
	visited := make(map[string]bool)

	for i, name := range parts {
		last := i == len(parts)-1

		// Objects created in this session have no header on disk yet.
		if current.header == nil {
			child := current.pendingChild(name)
			if child == nil {
				return nil, errors.Wrapf(ErrNotFound, "finding %q", name)
			}
			if last {
				return child, nil
			}
			next, ok := child.(*Group)
			if !ok {
				return nil, errors.Wrapf(ErrNotGroup, "%q", path.Join(current.path, name))
			}
			current = next
			continue
		}

		res, err := current.findChild(name, visited)
		if err != nil {
			return nil, errors.Wrapf(err, "finding %q", name)
		}

		fullPath := path.Join(current.path, name)
		if last {
			if res.isDataset {
				return current.file.openDatasetAt(res.address, fullPath)
			}
			return current.file.openGroupAt(res.address, fullPath)
		}

		if res.isDataset {
			return nil, errors.Wrapf(ErrNotGroup, "%q", fullPath)
		}

		next, err := current.file.openGroupAt(res.address, fullPath)
		if err != nil {
			return nil, err
		}
		current = next
	}

	return current, nil
}

// findChild finds a child by name and resolves it to an object address.
func (g *Group) findChild(name string, visited map[string]bool) (*linkResolution, error) {
	for _, msg := range g.header.GetMessages(message.TypeLink) {
		link := msg.(*message.Link)
		if link.Name == name {
			return g.resolveLink(link, visited)
		}
	}

	symTable := g.symbolTable()
	if symTable == nil {
		return nil, ErrNotFound
	}

	entries, err := g.groupEntries(symTable)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.Name != name {
			continue
		}
		if entry.SoftLink != "" {
			return g.resolveSoft(entry.SoftLink, visited)
		}
		isDataset, err := g.isDataset(entry.Address)
		if err != nil {
			return nil, err
		}
		return &linkResolution{address: entry.Address, isDataset: isDataset}, nil
	}

	return nil, ErrNotFound
}

// resolveLink resolves a link message to the target object's address.
func (g *Group) resolveLink(link *message.Link, visited map[string]bool) (*linkResolution, error) {
	switch {
	case link.IsHard():
		isDataset, err := g.isDataset(link.ObjectAddress)
		if err != nil {
			return nil, err
		}
		return &linkResolution{address: link.ObjectAddress, isDataset: isDataset}, nil
	case link.IsSoft():
		return g.resolveSoft(link.SoftLinkValue, visited)
	case link.IsExternal():
		return nil, errors.Wrapf(ErrUnsupported, "external link %q", link.Name)
	default:
		return nil, errors.Newf("unknown link type: %d", link.LinkType)
	}
}

func (g *Group) resolveSoft(target string, visited map[string]bool) (*linkResolution, error) {
	if len(visited) >= MaxLinkDepth {
		return nil, ErrLinkDepth
	}
	if visited[target] {
		return nil, errors.Newf("circular soft link detected: %s", target)
	}
	visited[target] = true
	return g.file.findByAbsolutePath(target, visited)
}

// symbolTable returns the v1 symbol table for this group, falling back to the
// superblock scratch pad for the root group. Returns nil for v2 groups.
func (g *Group) symbolTable() *message.SymbolTable {
	if msg := g.header.GetMessage(message.TypeSymbolTable); msg != nil {
		return msg.(*message.SymbolTable)
	}
	if g.path == "/" && g.file.superblock.RootGroupBTreeAddress != 0 {
		return &message.SymbolTable{
			BTreeAddress:     g.file.superblock.RootGroupBTreeAddress,
			LocalHeapAddress: g.file.superblock.RootGroupLocalHeapAddress,
		}
	}
	return nil
}

// groupEntries lists the members of a v1 group using its symbol table.
func (g *Group) groupEntries(symTable *message.SymbolTable) ([]btree.GroupEntry, error) {
	localHeap, err := heap.ReadLocalHeap(g.file.reader, symTable.LocalHeapAddress)
	if err != nil {
		return nil, errors.Wrap(err, "reading local heap")
	}
	entries, err := btree.ReadGroupEntries(g.file.reader, symTable.BTreeAddress, localHeap)
	if err != nil {
		return nil, errors.Wrap(err, "reading B-tree")
	}
	return entries, nil
}

// isDataset checks if an object at the given address is a dataset.
func (g *Group) isDataset(address uint64) (bool, error) {
	header, err := object.Read(g.file.reader, address)
	if err != nil {
		return false, err
	}

	// A dataset has a dataspace message
	return header.GetMessage(message.TypeDataspace) != nil, nil
}

// Members returns the names of all members in native storage order: link
// message order for v2 groups, B-tree (name) order for v1 groups.
func (g *Group) Members() ([]string, error) {
	if g.header == nil {
		names := make([]string, 0, len(g.children))
		for _, c := range g.children {
			names = append(names, c.nodeName())
		}
		return names, nil
	}

	var names []string
	for _, msg := range g.header.GetMessages(message.TypeLink) {
		names = append(names, msg.(*message.Link).Name)
	}
	if len(names) > 0 {
		return names, nil
	}

	symTable := g.symbolTable()
	if symTable == nil {
		return nil, nil
	}
	entries, err := g.groupEntries(symTable)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		names = append(names, entry.Name)
	}
	return names, nil
}

// Children enumerates the immediate members of this group with their kind,
// in the same order as Members. Members whose target cannot be resolved are
// reported to the diagnostic sink and left out.
func (g *Group) Children() ([]Child, error) {
	names, err := g.Members()
	if err != nil {
		return nil, err
	}

	children := make([]Child, 0, len(names))
	for _, name := range names {
		if g.header == nil {
			kind := KindGroup
			if _, ok := g.pendingChild(name).(*Dataset); ok {
				kind = KindDataset
			}
			children = append(children, Child{Name: name, Kind: kind})
			continue
		}

		res, err := g.findChild(name, make(map[string]bool))
		if err != nil {
			g.file.log.Warn("skipping unresolvable member",
				zap.String("group", g.path), zap.String("name", name), zap.Error(err))
			continue
		}
		kind := KindGroup
		if res.isDataset {
			kind = KindDataset
		}
		children = append(children, Child{Name: name, Kind: kind})
	}
	return children, nil
}

// NumObjects returns the number of objects in this group.
func (g *Group) NumObjects() (int, error) {
	members, err := g.Members()
	if err != nil {
		return 0, err
	}
	return len(members), nil
}

// Attrs returns the attribute names for this group.
func (g *Group) Attrs() []string {
	return attrNames(g.header, g.attrs)
}

// Attr returns an attribute by name, or nil if not found.
func (g *Group) Attr(name string) *Attribute {
	return findAttr(g.file, g.header, g.attrs, name)
}

// HasAttr returns true if the group has an attribute with the given name.
func (g *Group) HasAttr(name string) bool {
	return g.Attr(name) != nil
}

func attrNames(header *object.Header, pending []*message.Attribute) []string {
	var names []string
	if header != nil {
		for _, msg := range header.GetMessages(message.TypeAttribute) {
			names = append(names, msg.(*message.Attribute).Name)
		}
	}
	for _, a := range pending {
		names = append(names, a.Name)
	}
	return names
}

func findAttr(f *File, header *object.Header, pending []*message.Attribute, name string) *Attribute {
	if header != nil {
		for _, msg := range header.GetMessages(message.TypeAttribute) {
			attr := msg.(*message.Attribute)
			if attr.Name == name {
				return &Attribute{msg: attr, reader: f.reader}
			}
		}
	}
	for _, a := range pending {
		if a.Name == name {
			return &Attribute{msg: a, reader: f.reader}
		}
	}
	return nil
}
