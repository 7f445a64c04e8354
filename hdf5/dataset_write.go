package hdf5

import (
	"reflect"

	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-fast5/internal/dtype"
	"github.com/robert-malhotra/go-fast5/internal/heap"
	"github.com/robert-malhotra/go-fast5/internal/layout"
	"github.com/robert-malhotra/go-fast5/internal/message"
	"github.com/robert-malhotra/go-fast5/internal/object"
)

func (d *Dataset) nodeName() string { return d.Name() }

// CreateDataset creates a new dataset holding data. The datatype and
// dimensions are inferred from the Go value, which must be a slice (or
// nested slices) of a numeric type or strings.
func (g *Group) CreateDataset(name string, data interface{}, opts ...DatasetOption) (*Dataset, error) {
	if err := g.checkNewChild(name); err != nil {
		return nil, err
	}

	options := defaultDatasetOptions()
	for _, opt := range opts {
		opt(options)
	}

	dataVal := reflect.ValueOf(data)
	if dataVal.Kind() == reflect.Ptr {
		dataVal = dataVal.Elem()
	}

	dims, elemType := inferDimensionsAndType(dataVal)
	datatype, err := dtype.GoTypeToDatatype(elemType)
	if err != nil {
		return nil, errors.Wrap(err, "creating datatype")
	}

	rawData, err := dtype.Encode(datatype, data)
	if err != nil {
		return nil, errors.Wrap(err, "encoding data")
	}
	if want := dtype.DataSize(datatype, product(dims)); uint64(len(rawData)) != want {
		return nil, errors.Wrapf(ErrSizeMismatch, "dims %v need %d bytes, data has %d", dims, want, len(rawData))
	}

	dataLayout, pipeline, err := g.file.writeData(rawData, dims, datatype, options)
	if err != nil {
		return nil, err
	}

	ds, err := g.addDataset(name, message.NewDataspace(dims, options.maxDims), datatype, dataLayout, options)
	if err != nil {
		return nil, err
	}
	ds.pipeline = pipeline
	return ds, nil
}

// CreateDatasetWithType creates a contiguous dataset with explicit
// dimensions and datatype. Its storage is reserved immediately and filled by
// a later call to Write.
func (g *Group) CreateDatasetWithType(name string, dims []uint64, dt *message.Datatype, opts ...DatasetOption) (*Dataset, error) {
	if err := g.checkNewChild(name); err != nil {
		return nil, err
	}

	options := defaultDatasetOptions()
	for _, opt := range opts {
		opt(options)
	}

	dataSize := dtype.DataSize(dt, product(dims))
	dataAddr := g.file.allocate(int64(dataSize))

	ds, err := g.addDataset(name, message.NewDataspace(dims, options.maxDims), dt,
		message.NewContiguousLayout(dataAddr, dataSize), options)
	if err != nil {
		return nil, err
	}
	ds.dataAddr = dataAddr
	ds.dataSize = dataSize
	return ds, nil
}

// addDataset registers a dataset whose data is already on disk in the
// pending write tree.
func (g *Group) addDataset(name string, space *message.Dataspace, dt *message.Datatype, dl *message.DataLayout, options *datasetOptions) (*Dataset, error) {
	ds := &Dataset{
		file:      g.file,
		path:      childPath(g.path, name),
		dataspace: space,
		datatype:  dt,
		parent:    g,
		layoutMsg: dl,
		dirty:     true,
	}
	for _, attr := range options.attributes {
		if err := ds.SetAttr(attr.name, attr.value); err != nil {
			return nil, err
		}
	}

	g.children = append(g.children, ds)
	g.markDirty()
	return ds, nil
}

// writeData writes encoded dataset values to the file and returns the layout
// message describing where they went, plus the filter pipeline message when
// the chunks were filtered.
func (f *File) writeData(rawData []byte, dims []uint64, datatype *message.Datatype, options *datasetOptions) (*message.DataLayout, *message.FilterPipeline, error) {
	pipeline := options.pipeline(datatype.Size)
	chunks := options.chunks
	if chunks == nil && !pipeline.Empty() {
		chunks = make([]uint64, len(dims))
		for i, d := range dims {
			chunks[i] = max(d, 1)
		}
	}
	if chunks == nil {
		dataAddr := f.allocate(int64(len(rawData)))
		if err := f.writer.At(int64(dataAddr)).WriteBytes(rawData); err != nil {
			return nil, nil, errors.Wrap(err, "writing data")
		}
		return message.NewContiguousLayout(dataAddr, uint64(len(rawData))), nil, nil
	}

	chunkDims := make([]uint32, len(chunks))
	for i, c := range chunks {
		if c == 0 || c > 0xFFFFFFFF {
			return nil, nil, errors.Wrapf(ErrUnsupported, "chunk dimension %d", c)
		}
		chunkDims[i] = uint32(c)
	}
	dl, err := layout.NewChunkWriter(f.writer, f.allocate, chunkDims, datatype.Size, pipeline).Write(rawData, dims)
	if err != nil {
		return nil, nil, errors.Wrap(err, "writing chunks")
	}
	return dl, pipeline.Message(), nil
}

// Write fills a dataset created with CreateDatasetWithType.
func (d *Dataset) Write(data interface{}) error {
	if !d.file.writable {
		return ErrReadOnly
	}
	if d.dataAddr == 0 {
		return errors.Wrapf(ErrUnsupported, "dataset %s was not created for writing", d.path)
	}

	rawData, err := dtype.Encode(d.datatype, data)
	if err != nil {
		return errors.Wrap(err, "encoding data")
	}
	if uint64(len(rawData)) != d.dataSize {
		return errors.Wrapf(ErrSizeMismatch, "expected %d bytes, got %d", d.dataSize, len(rawData))
	}

	if err := d.file.writer.At(int64(d.dataAddr)).WriteBytes(rawData); err != nil {
		return errors.Wrap(err, "writing data")
	}
	return nil
}

// SetAttr attaches an attribute to a dataset created in this session.
func (d *Dataset) SetAttr(name string, value interface{}) error {
	if !d.file.writable || d.header != nil {
		return ErrReadOnly
	}
	msg, err := d.file.createAttributeMessage(name, value)
	if err != nil {
		return errors.Wrapf(err, "attribute %q on %s", name, d.path)
	}
	d.attrs = upsertAttr(d.attrs, msg)
	d.dirty = true
	if d.parent != nil {
		d.parent.markDirty()
	}
	return nil
}

// commit writes the dataset's object header.
func (d *Dataset) commit() (uint64, error) {
	if !d.dirty && d.addr != 0 {
		return d.addr, nil
	}
	messages := object.NewDatasetHeader(d.dataspace, d.datatype, d.layoutMsg)
	if d.pipeline != nil {
		messages = append(messages, d.pipeline)
	}
	for _, a := range d.attrs {
		messages = append(messages, a)
	}
	addr, err := d.file.writeHeader(messages, 0)
	if err != nil {
		return 0, errors.Wrapf(err, "writing dataset header %s", d.path)
	}
	d.addr = addr
	d.dirty = false
	return addr, nil
}

func product(dims []uint64) uint64 {
	n := uint64(1)
	for _, d := range dims {
		n *= d
	}
	return n
}

// inferDimensionsAndType infers the dimensions and element type from a Go value.
func inferDimensionsAndType(val reflect.Value) ([]uint64, reflect.Type) {
	var dims []uint64
	current := val

	for {
		switch current.Kind() {
		case reflect.Slice, reflect.Array:
			dims = append(dims, uint64(current.Len()))
			if current.Len() == 0 {
				return dims, current.Type().Elem()
			}
			current = current.Index(0)
		default:
			if len(dims) == 0 {
				dims = []uint64{1}
			}
			return dims, current.Type()
		}
	}
}

// VarLenString marks an attribute value to be stored as a variable-length
// string in the global heap instead of a fixed-length string.
type VarLenString string

// createAttributeMessage creates an attribute message from a name and value.
// Strings become fixed-length null-terminated ASCII unless wrapped in
// VarLenString; numbers keep their Go width and signedness.
func (f *File) createAttributeMessage(name string, value interface{}) (*message.Attribute, error) {
	if name == "" {
		return nil, errors.Wrap(ErrInvalidPath, "empty attribute name")
	}
	if s, ok := value.(VarLenString); ok {
		return f.createVarLenStringAttribute(name, string(s))
	}
	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return nil, errors.New("nil attribute value")
	}
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
		value = val.Interface()
	}

	if val.Kind() == reflect.String {
		return createStringAttribute(name, []string{val.String()}, nil), nil
	}
	if val.Kind() == reflect.Slice && val.Type().Elem().Kind() == reflect.String {
		if val.Len() == 0 {
			return nil, errors.New("empty string array not supported")
		}
		strs := make([]string, val.Len())
		for i := range strs {
			strs[i] = val.Index(i).String()
		}
		return createStringAttribute(name, strs, []uint64{uint64(len(strs))}), nil
	}

	var (
		dims     []uint64
		elemType reflect.Type
	)
	switch val.Kind() {
	case reflect.Slice, reflect.Array:
		dims = []uint64{uint64(val.Len())}
		elemType = val.Type().Elem()
	default:
		elemType = val.Type()
	}

	datatype, err := dtype.GoTypeToDatatype(elemType)
	if err != nil {
		return nil, errors.Wrapf(err, "unsupported attribute type %v", elemType)
	}

	dataspace := message.NewScalarDataspace()
	if dims != nil {
		dataspace = message.NewDataspace(dims, nil)
	}

	data, err := dtype.Encode(datatype, value)
	if err != nil {
		return nil, errors.Wrap(err, "encoding attribute value")
	}

	return message.NewAttribute(name, datatype, dataspace, data), nil
}

// createStringAttribute encodes strings as fixed-length, null-terminated
// ASCII. A nil dims produces a scalar attribute.
func createStringAttribute(name string, strs []string, dims []uint64) *message.Attribute {
	maxLen := 0
	for _, s := range strs {
		if len(s) > maxLen {
			maxLen = len(s)
		}
	}
	strLen := maxLen + 1

	data := make([]byte, len(strs)*strLen)
	for i, s := range strs {
		copy(data[i*strLen:], s)
	}

	dataspace := message.NewScalarDataspace()
	if dims != nil {
		dataspace = message.NewDataspace(dims, nil)
	}
	datatype := message.NewStringDatatype(uint32(strLen), message.PadNullTerm, message.CharsetASCII)
	return message.NewAttribute(name, datatype, dataspace, data)
}

// createVarLenStringAttribute writes s into its own global heap collection
// and returns a scalar attribute referencing it.
func (f *File) createVarLenStringAttribute(name, s string) (*message.Attribute, error) {
	var coll heap.Collection
	coll.AddString(s)
	ids, err := coll.Write(f.writer, f.allocate)
	if err != nil {
		return nil, errors.Wrap(err, "writing global heap")
	}

	// A 4-byte sequence length, then the heap ID.
	ref := f.writer.Config().AppendUint(nil, uint64(len(s)), 4)
	ref = ids[0].Append(ref, f.writer.Config())

	datatype := message.NewVarLenStringDatatype(message.CharsetASCII)
	return message.NewAttribute(name, datatype, message.NewScalarDataspace(), ref), nil
}

// SetAttrRaw attaches an attribute with an explicit datatype and pre-encoded
// bytes. It exists for producers that must reproduce encodings the typed
// setters never emit, such as opaque or big-endian values.
func (g *Group) SetAttrRaw(name string, dt *message.Datatype, data []byte) error {
	if !g.file.writable || g.header != nil {
		return ErrReadOnly
	}
	if name == "" {
		return errors.Wrap(ErrInvalidPath, "empty attribute name")
	}
	if uint64(len(data)) != uint64(dt.Size) {
		return errors.Wrapf(ErrSizeMismatch, "attribute %q: datatype size %d, data %d bytes", name, dt.Size, len(data))
	}
	g.attrs = upsertAttr(g.attrs, message.NewAttribute(name, dt, message.NewScalarDataspace(), data))
	g.markDirty()
	return nil
}
