package hdf5

import (
	"path"
	"reflect"

	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-fast5/internal/dtype"
	"github.com/robert-malhotra/go-fast5/internal/filter"
	"github.com/robert-malhotra/go-fast5/internal/layout"
	"github.com/robert-malhotra/go-fast5/internal/message"
	"github.com/robert-malhotra/go-fast5/internal/object"
)

// Dataset represents an HDF5 dataset.
type Dataset struct {
	file      *File
	path      string
	header    *object.Header
	dataspace *message.Dataspace
	datatype  *message.Datatype
	layout    layout.Layout
	pipeline  *message.FilterPipeline

	// Write support fields
	parent    *Group
	layoutMsg *message.DataLayout
	attrs     []*message.Attribute
	addr      uint64
	dirty     bool
	dataAddr  uint64
	dataSize  uint64
}

// StorageInfo describes how a dataset is laid out on disk.
type StorageInfo struct {
	Layout  string
	Filters []string

	// Decodable is false when a mandatory filter has no decoder here.
	Decodable bool
}

// newDataset creates a Dataset from an object header.
func newDataset(f *File, path string, header *object.Header) (*Dataset, error) {
	ds := &Dataset{
		file:      f,
		path:      path,
		header:    header,
		dataspace: header.Dataspace(),
		datatype:  header.Datatype(),
	}
	if ds.dataspace == nil {
		return nil, errors.New("dataset missing dataspace message")
	}
	if ds.datatype == nil {
		return nil, errors.New("dataset missing datatype message")
	}

	layoutMsg := header.DataLayout()
	if layoutMsg == nil {
		return nil, errors.New("dataset missing layout message")
	}
	ds.layoutMsg = layoutMsg
	ds.pipeline = header.FilterPipeline()

	var err error
	ds.layout, err = layout.New(layoutMsg, ds.dataspace, ds.datatype, ds.pipeline, f.reader)
	if err != nil {
		return nil, errors.Wrap(err, "creating layout")
	}

	return ds, nil
}

// Name returns the dataset name (last component of path).
func (d *Dataset) Name() string {
	return path.Base(d.path)
}

// Path returns the full path to this dataset.
func (d *Dataset) Path() string {
	return d.path
}

// Shape returns the dimensions of the dataset.
func (d *Dataset) Shape() []uint64 {
	if d.dataspace.IsScalar() {
		return nil
	}
	return d.dataspace.Dimensions
}

// Rank returns the number of dimensions.
func (d *Dataset) Rank() int {
	return d.dataspace.Rank
}

// NumElements returns the total number of elements.
func (d *Dataset) NumElements() uint64 {
	return d.dataspace.NumElements()
}

// IsScalar returns true if the dataset is a scalar (single value).
func (d *Dataset) IsScalar() bool {
	return d.dataspace.IsScalar()
}

// DtypeSize returns the size of each element in bytes.
func (d *Dataset) DtypeSize() int {
	return int(d.datatype.Size)
}

// DtypeClass returns the datatype class.
func (d *Dataset) DtypeClass() message.DatatypeClass {
	return d.datatype.Class
}

// GoType returns the Go type that corresponds to this dataset's datatype.
func (d *Dataset) GoType() (reflect.Type, error) {
	return dtype.GoType(d.datatype)
}

// Storage reports the layout class and the filter pipeline of the dataset.
func (d *Dataset) Storage() StorageInfo {
	info := StorageInfo{Layout: "unknown", Decodable: true}
	if d.layoutMsg != nil {
		info.Layout = d.layoutMsg.Class.String()
	}
	if d.pipeline != nil {
		for _, fi := range d.pipeline.Filters {
			info.Filters = append(info.Filters, filter.Name(fi.ID))
			if !fi.IsOptional() && !filter.Supported(fi.ID) {
				info.Decodable = false
			}
		}
	}
	return info
}

// Read reads all data from the dataset into dest.
// dest should be a pointer to a slice of the appropriate type.
func (d *Dataset) Read(dest interface{}) error {
	raw, err := d.ReadRaw()
	if err != nil {
		return err
	}
	return dtype.Convert(d.datatype, raw, d.dataspace.NumElements(), dest)
}

// ReadRaw reads all data from the dataset as raw bytes.
func (d *Dataset) ReadRaw() ([]byte, error) {
	if d.layout == nil {
		return nil, errors.Wrapf(ErrUnsupported, "dataset %s has not been flushed", d.path)
	}
	raw, err := d.layout.Read()
	if err != nil {
		return nil, errors.Wrap(err, "reading data")
	}
	return raw, nil
}

func readAs[T any](d *Dataset) ([]T, error) {
	var result []T
	err := d.Read(&result)
	return result, err
}

// ReadFloat64 reads the dataset as float64 values.
func (d *Dataset) ReadFloat64() ([]float64, error) { return readAs[float64](d) }

// ReadFloat32 reads the dataset as float32 values.
func (d *Dataset) ReadFloat32() ([]float32, error) { return readAs[float32](d) }

// ReadInt64 reads the dataset as int64 values.
func (d *Dataset) ReadInt64() ([]int64, error) { return readAs[int64](d) }

// ReadInt32 reads the dataset as int32 values.
func (d *Dataset) ReadInt32() ([]int32, error) { return readAs[int32](d) }

// ReadInt16 reads the dataset as int16 values.
func (d *Dataset) ReadInt16() ([]int16, error) { return readAs[int16](d) }

// ReadUint16 reads the dataset as uint16 values.
func (d *Dataset) ReadUint16() ([]uint16, error) { return readAs[uint16](d) }

// ReadString reads the dataset as string values.
func (d *Dataset) ReadString() ([]string, error) { return readAs[string](d) }

// Attrs returns the attribute names for this dataset.
func (d *Dataset) Attrs() []string {
	return attrNames(d.header, d.attrs)
}

// Attr returns an attribute by name, or nil if not found.
func (d *Dataset) Attr(name string) *Attribute {
	return findAttr(d.file, d.header, d.attrs, name)
}

// HasAttr returns true if the dataset has an attribute with the given name.
func (d *Dataset) HasAttr(name string) bool {
	return d.Attr(name) != nil
}
