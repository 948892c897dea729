// Package eeprom drives a 24C16-class serial EEPROM over a two-wire bus.
//
// The device exposes 2048 bytes behind eight consecutive bus addresses. The
// three high bits of the 11-bit memory address select the block and are
// folded into the bus address; the low eight bits travel as the first data
// byte of a transaction. Values are stored as big-endian 16-bit words in
// two-byte slots.
package eeprom

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

const (
	// BaseAddress is the 7-bit bus address of block 0.
	BaseAddress = 0x50
	// Size is the total capacity of the device in bytes.
	Size = 2048
	// SlotSize is the width of one stored word.
	SlotSize = 2
	// Slots is the number of two-byte slots on the device.
	Slots = Size / SlotSize
	// CounterOffset is the byte offset of the reserved top slot.
	CounterOffset = Size - SlotSize
	// WriteCycle is the minimum internal write time of the device. The
	// device does not acknowledge its address until the cycle completes.
	WriteCycle = 5 * time.Millisecond

	// Unreadable is returned by Read when the bus transaction failed.
	Unreadable uint16 = 0xFFFF
)

var (
	// ErrNack is returned when the device does not acknowledge its address.
	ErrNack = errors.New("eeprom: address not acknowledged")
	// ErrOffset is returned for odd or out of range slot offsets.
	ErrOffset = errors.New("eeprom: invalid slot offset")
)

// Bus is the subset of a two-wire bus the driver needs. Each call is one
// complete bus transaction addressed to a 7-bit device address.
type Bus interface {
	WriteBytes(addr byte, value []byte) error
	ReadBytes(addr byte, num int) ([]byte, error)
}

// Device is a 24C16 on a Bus.
type Device struct {
	bus   Bus
	base  byte
	sleep func(time.Duration)
}

// New creates a Device on bus. A nil sleep uses time.Sleep.
func New(bus Bus, sleep func(time.Duration)) *Device {
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Device{bus: bus, base: BaseAddress, sleep: sleep}
}

// SlotOffset returns the byte offset of slot i.
func SlotOffset(i int) uint16 {
	return uint16(i * SlotSize)
}

// WithBase moves the device to a strapped base address. The three low bits
// of base must be clear.
func (d *Device) WithBase(base byte) *Device {
	d.base = base &^ 0x07
	return d
}

// split returns the block-selected bus address and the in-block offset byte.
func (d *Device) split(offset uint16) (addr byte, low byte) {
	return d.base | byte(offset>>8)&0x07, byte(offset)
}

func checkOffset(offset uint16) error {
	if offset%SlotSize != 0 || offset > CounterOffset {
		return fmt.Errorf("%w: %#x", ErrOffset, offset)
	}
	return nil
}

// Write stores value at the slot starting at offset and waits out the
// device write cycle before returning. The transaction is not retried.
func (d *Device) Write(value uint16, offset uint16) error {
	if err := checkOffset(offset); err != nil {
		return err
	}

	addr, low := d.split(offset)
	err := d.bus.WriteBytes(addr, []byte{low, byte(value >> 8), byte(value)})
	d.sleep(WriteCycle)
	if err != nil {
		return fmt.Errorf("failed to write slot %#x: %w", offset, err)
	}
	return nil
}

// Read returns the word stored at offset. It positions the device address
// pointer with a dummy write and then reads two bytes. On failure the
// returned value is Unreadable and carries no meaning.
func (d *Device) Read(offset uint16) (uint16, error) {
	if err := checkOffset(offset); err != nil {
		return Unreadable, err
	}

	addr, low := d.split(offset)
	if err := d.bus.WriteBytes(addr, []byte{low}); err != nil {
		return Unreadable, fmt.Errorf("failed to select slot %#x: %w", offset, err)
	}

	data, err := d.bus.ReadBytes(addr, SlotSize)
	if err != nil {
		return Unreadable, fmt.Errorf("failed to read slot %#x: %w", offset, err)
	}
	if len(data) < SlotSize {
		return Unreadable, fmt.Errorf("failed to read slot %#x: short read of %d bytes", offset, len(data))
	}

	return binary.BigEndian.Uint16(data), nil
}
