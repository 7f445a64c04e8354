package superblock

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/cockroachdb/errors"

	binpkg "github.com/robert-malhotra/go-fast5/internal/binary"
)

// Signature opens every superblock.
var Signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

// searchOffsets are where a superblock may start when a user block
// precedes it.
var searchOffsets = []int64{0, 512, 1024, 2048}

var (
	ErrNotHDF5            = errors.New("not an HDF5 file: signature not found")
	ErrUnsupportedVersion = errors.New("unsupported superblock version")
	ErrInvalidSuperblock  = errors.New("invalid superblock structure")
)

// Superblock holds the file-wide metadata needed to read the rest of the
// file.
type Superblock struct {
	Version    uint8
	OffsetSize uint8
	LengthSize uint8

	// FileConsistencyFlags is only stored by versions 2 and 3.
	FileConsistencyFlags uint8

	BaseAddress                uint64
	SuperblockExtensionAddress uint64
	EOFAddress                 uint64
	RootGroupAddress           uint64

	// Versions 0 and 1.
	GroupLeafNodeK            uint16
	GroupInternalNodeK        uint16
	IndexedStorageK           uint16
	RootGroupBTreeAddress     uint64
	RootGroupLocalHeapAddress uint64

	// FileOffset is where the signature was found.
	FileOffset int64
}

// Read finds the signature at one of the search offsets and decodes the
// superblock that follows.
func Read(r io.ReaderAt) (*Superblock, error) {
	sig := make([]byte, len(Signature)+1)
	for _, offset := range searchOffsets {
		if _, err := r.ReadAt(sig, offset); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, errors.Wrapf(err, "reading signature at %d", offset)
		}
		if !bytes.Equal(sig[:len(Signature)], Signature) {
			continue
		}

		sb := &Superblock{Version: sig[len(Signature)], FileOffset: offset}
		var err error
		switch sb.Version {
		case 0, 1:
			err = sb.readV0(r)
		case 2, 3:
			err = sb.readV2(r)
		default:
			return nil, errors.Wrapf(ErrUnsupportedVersion, "version %d", sb.Version)
		}
		if err != nil {
			return nil, err
		}
		return sb, nil
	}
	return nil, ErrNotHDF5
}

// ReaderConfig returns the metadata encoding the superblock declares.
func (sb *Superblock) ReaderConfig() binpkg.Config {
	return binpkg.Config{
		ByteOrder:  binary.LittleEndian,
		OffsetSize: int(sb.OffsetSize),
		LengthSize: int(sb.LengthSize),
	}
}

func (sb *Superblock) checkSizes() error {
	for _, n := range []uint8{sb.OffsetSize, sb.LengthSize} {
		if n != 2 && n != 4 && n != 8 {
			return errors.Wrapf(ErrInvalidSuperblock, "field width %d", n)
		}
	}
	return nil
}

// readAddresses decodes consecutive offsets into dst.
func readAddresses(br *binpkg.Reader, dst ...*uint64) error {
	for _, d := range dst {
		v, err := br.ReadOffset()
		if err != nil {
			return errors.Wrap(err, "superblock truncated")
		}
		*d = v
	}
	return nil
}

// readV0 decodes versions 0 and 1. The root group is reached through a
// symbol table entry whose scratch pad may cache the B-tree and local heap
// addresses.
func (sb *Superblock) readV0(r io.ReaderAt) error {
	br := binpkg.NewReader(r, binpkg.DefaultConfig()).At(sb.FileOffset + 9)
	fixed, err := br.ReadBytes(15)
	if err != nil {
		return errors.Wrap(err, "superblock truncated")
	}
	sb.OffsetSize, sb.LengthSize = fixed[4], fixed[5]
	if err := sb.checkSizes(); err != nil {
		return err
	}
	le := binary.LittleEndian
	sb.GroupLeafNodeK = le.Uint16(fixed[7:])
	sb.GroupInternalNodeK = le.Uint16(fixed[9:])
	if sb.Version == 1 {
		k, err := br.ReadUint16()
		if err != nil {
			return errors.Wrap(err, "superblock truncated")
		}
		sb.IndexedStorageK = k
		br.Skip(2)
	}

	br = binpkg.NewReader(r, sb.ReaderConfig()).At(br.Pos())
	var freeSpace, driver, linkName uint64
	if err := readAddresses(br, &sb.BaseAddress, &freeSpace, &sb.EOFAddress, &driver, &linkName, &sb.RootGroupAddress); err != nil {
		return err
	}
	cacheType, err := br.ReadUint32()
	if err != nil {
		return errors.Wrap(err, "superblock truncated")
	}
	br.Skip(4)
	if cacheType == 1 {
		return readAddresses(br, &sb.RootGroupBTreeAddress, &sb.RootGroupLocalHeapAddress)
	}
	return nil
}

// readV2 decodes versions 2 and 3 and verifies the checksum.
func (sb *Superblock) readV2(r io.ReaderAt) error {
	br := binpkg.NewReader(r, binpkg.DefaultConfig()).At(sb.FileOffset + 9)
	fixed, err := br.ReadBytes(3)
	if err != nil {
		return errors.Wrap(err, "superblock truncated")
	}
	sb.OffsetSize, sb.LengthSize, sb.FileConsistencyFlags = fixed[0], fixed[1], fixed[2]
	if err := sb.checkSizes(); err != nil {
		return err
	}

	br = binpkg.NewReader(r, sb.ReaderConfig()).At(br.Pos())
	if err := readAddresses(br, &sb.BaseAddress, &sb.SuperblockExtensionAddress, &sb.EOFAddress, &sb.RootGroupAddress); err != nil {
		return err
	}
	stored, err := br.ReadUint32()
	if err != nil {
		return errors.Wrap(err, "superblock truncated")
	}
	body, err := br.At(sb.FileOffset).ReadBytes(sb.Size() - 4)
	if err != nil {
		return err
	}
	if sum := binpkg.Lookup3Checksum(body); sum != stored {
		return errors.Wrapf(ErrInvalidSuperblock, "checksum %#08x, stored %#08x", sum, stored)
	}
	return nil
}
