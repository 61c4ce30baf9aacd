package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/annel0/voxelcore/internal/packed"
	"github.com/annel0/voxelcore/internal/vec"
	"github.com/annel0/voxelcore/internal/world"
	"github.com/annel0/voxelcore/internal/world/block"
	"github.com/klauspost/compress/zstd"
)

// Формат снимка колонны до сжатия:
//
//	"VXC1" | x int32 | z int32 | height u8 | default u16 | sections u8
//	для каждой секции: y u8 | palette u32 | palette * u16 | packed.Array
//
// Все числа little-endian. Результат сжимается zstd.
const columnMagic = "VXC1"

var (
	ErrCorruptSnapshot  = errors.New("storage: corrupt snapshot")
	ErrSnapshotTooLarge = errors.New("storage: snapshot exceeds size limit")
)

// ColumnCodec сериализует колонны блоков со сжатием zstd.
// Безопасен для одновременного использования.
type ColumnCodec struct {
	compressor   *zstd.Encoder
	decompressor *zstd.Decoder
	maxBytes     int
}

// NewColumnCodec создаёт кодек с уровнем zstd level (1..4, иначе SpeedDefault).
// maxBytes ограничивает размер распакованного снимка; 0 - без ограничения.
func NewColumnCodec(level int, maxBytes int) (*ColumnCodec, error) {
	if level < int(zstd.SpeedFastest) || level > int(zstd.SpeedBestCompression) {
		level = int(zstd.SpeedDefault)
	}
	compressor, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevel(level)))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}

	opts := []zstd.DOption{zstd.WithDecoderConcurrency(0)}
	if maxBytes > 0 {
		opts = append(opts, zstd.WithDecoderMaxMemory(uint64(maxBytes)))
	}
	decompressor, err := zstd.NewReader(nil, opts...)
	if err != nil {
		compressor.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	return &ColumnCodec{
		compressor:   compressor,
		decompressor: decompressor,
		maxBytes:     maxBytes,
	}, nil
}

// Close освобождает ресурсы zstd
func (c *ColumnCodec) Close() {
	c.compressor.Close()
	c.decompressor.Close()
}

// EncodeColumn сериализует и сжимает колонну
func (c *ColumnCodec) EncodeColumn(col *world.Column[block.BlockID]) ([]byte, error) {
	raw, err := AppendColumn(nil, col)
	if err != nil {
		return nil, err
	}
	if c.maxBytes > 0 && len(raw) > c.maxBytes {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrSnapshotTooLarge, len(raw), c.maxBytes)
	}
	return c.compressor.EncodeAll(raw, make([]byte, 0, len(raw)/4)), nil
}

// DecodeColumn распаковывает и восстанавливает колонну
func (c *ColumnCodec) DecodeColumn(data []byte) (*world.Column[block.BlockID], error) {
	raw, err := c.decompressor.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	return ReadColumn(raw)
}

// AppendColumn дописывает к b несжатое представление колонны
func AppendColumn(b []byte, col *world.Column[block.BlockID]) ([]byte, error) {
	sections := col.Sections()

	b = append(b, columnMagic...)
	b = binary.LittleEndian.AppendUint32(b, uint32(int32(col.Coords().X)))
	b = binary.LittleEndian.AppendUint32(b, uint32(int32(col.Coords().Z)))
	b = append(b, byte(col.Height()))
	b = binary.LittleEndian.AppendUint16(b, uint16(col.Default()))
	b = append(b, byte(len(sections)))

	for _, s := range sections {
		palette := s.Palette()
		b = append(b, byte(s.Y()))
		b = binary.LittleEndian.AppendUint32(b, uint32(len(palette)))
		for _, id := range palette {
			b = binary.LittleEndian.AppendUint16(b, uint16(id))
		}

		var err error
		if b, err = s.Indices().AppendBinary(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// ReadColumn восстанавливает колонну из несжатого представления
func ReadColumn(raw []byte) (*world.Column[block.BlockID], error) {
	r := reader{data: raw}

	if string(r.next(len(columnMagic))) != columnMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrCorruptSnapshot)
	}
	x := int32(r.u32())
	z := int32(r.u32())
	height := int(r.u8())
	def := block.BlockID(r.u16())
	count := int(r.u8())
	if r.err != nil {
		return nil, r.err
	}

	col, err := world.NewColumn(vec.Vec2{X: int(x), Z: int(z)}, height, def)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	for i := 0; i < count; i++ {
		y := int(r.u8())
		n := int(r.u32())
		if r.err != nil {
			return nil, r.err
		}
		if n > r.remaining()/2 {
			return nil, fmt.Errorf("%w: palette of %d entries in section %d", ErrCorruptSnapshot, n, y)
		}
		palette := make([]block.BlockID, n)
		for j := range palette {
			palette[j] = block.BlockID(r.u16())
		}

		indices, used, err := packed.Decode(r.rest())
		if err != nil {
			return nil, fmt.Errorf("%w: section %d: %v", ErrCorruptSnapshot, y, err)
		}
		r.next(used)

		s, err := world.RestoreSection(y, palette, indices)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
		}
		if err := col.SetSection(s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
		}
	}

	if r.err != nil {
		return nil, r.err
	}
	if r.remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorruptSnapshot, r.remaining())
	}
	return col, nil
}

// reader последовательно читает little-endian поля и запоминает первую ошибку
type reader struct {
	data []byte
	off  int
	err  error
}

func (r *reader) next(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n > len(r.data)-r.off {
		r.err = fmt.Errorf("%w: truncated at byte %d", ErrCorruptSnapshot, r.off)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) u8() uint8 {
	if b := r.next(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *reader) u16() uint16 {
	if b := r.next(2); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (r *reader) u32() uint32 {
	if b := r.next(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (r *reader) rest() []byte {
	return r.data[r.off:]
}

func (r *reader) remaining() int {
	return len(r.data) - r.off
}
