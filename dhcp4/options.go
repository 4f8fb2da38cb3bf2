package dhcp4

import "encoding/binary"

// OptionCode is a DHCP option tag.
type OptionCode byte

// Option codes understood by the server.
const (
	OptionPad                  OptionCode = 0
	OptionSubnetMask           OptionCode = 1
	OptionRouter               OptionCode = 3
	OptionDomainNameServer     OptionCode = 6
	OptionHostName             OptionCode = 12
	OptionRequestedIPAddress   OptionCode = 50
	OptionIPAddressLeaseTime   OptionCode = 51
	OptionMessageType          OptionCode = 53
	OptionServerIdentifier     OptionCode = 54
	OptionParameterRequestList OptionCode = 55
	OptionMaximumMessageSize   OptionCode = 57
	OptionVendorClassID        OptionCode = 60
	OptionClientIdentifier     OptionCode = 61
	OptionEnd                  OptionCode = 255
)

const optionsAreaSize = 308

// FindOption scans a TLV options area for the given code and returns its
// value. The scan stops at the End tag or at the end of the area, whichever
// comes first. Each entry advances by 2+length; Pad advances by one byte.
func FindOption(opts []byte, code OptionCode) (value []byte, ok bool) {
	for i := 0; i < len(opts) && OptionCode(opts[i]) != OptionEnd; {
		if OptionCode(opts[i]) == OptionPad {
			i++
			continue
		}
		if i+1 >= len(opts) {
			return nil, false // truncated entry
		}
		size := int(opts[i+1])
		if i+2+size > len(opts) {
			return nil, false
		}
		if OptionCode(opts[i]) == code {
			return opts[i+2 : i+2+size], true
		}
		i += 2 + size
	}
	return nil, false
}

// OptionWriter appends TLV entries to a fixed size options area. Every write
// verifies the remaining capacity first and fails with ErrBufferOverflow
// rather than writing past the buffer.
type OptionWriter struct {
	buf []byte
	n   int
}

// NewOptionWriter returns a writer appending to buf starting at offset zero.
func NewOptionWriter(buf []byte) *OptionWriter {
	return &OptionWriter{buf: buf}
}

// Len returns the number of bytes written so far.
func (w *OptionWriter) Len() int { return w.n }

func (w *OptionWriter) ensure(n int) error {
	if w.n+n > len(w.buf) {
		return ErrBufferOverflow
	}
	return nil
}

// WriteUint8 appends a single byte option.
func (w *OptionWriter) WriteUint8(code OptionCode, value byte) error {
	if err := w.ensure(3); err != nil {
		return err
	}
	w.buf[w.n] = byte(code)
	w.buf[w.n+1] = 1
	w.buf[w.n+2] = value
	w.n += 3
	return nil
}

// WriteUint32 appends a four byte option in network byte order.
func (w *OptionWriter) WriteUint32(code OptionCode, value uint32) error {
	if err := w.ensure(6); err != nil {
		return err
	}
	w.buf[w.n] = byte(code)
	w.buf[w.n+1] = 4
	binary.BigEndian.PutUint32(w.buf[w.n+2:], value)
	w.n += 6
	return nil
}

// WriteBytes appends a raw value option.
func (w *OptionWriter) WriteBytes(code OptionCode, value []byte) error {
	if err := w.ensure(2 + len(value)); err != nil {
		return err
	}
	w.buf[w.n] = byte(code)
	w.buf[w.n+1] = byte(len(value))
	copy(w.buf[w.n+2:], value)
	w.n += 2 + len(value)
	return nil
}

// WriteEnd terminates the options area.
func (w *OptionWriter) WriteEnd() error {
	if err := w.ensure(1); err != nil {
		return err
	}
	w.buf[w.n] = byte(OptionEnd)
	w.n++
	return nil
}
