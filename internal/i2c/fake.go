package i2c

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
)

// Write records a single register write made against a FakeBus.
type Write struct {
	Addr Addr
	Reg  Reg
	Data []byte
}

type regKey struct {
	addr Addr
	reg  Reg
}

// FakeBus is an in-memory Bus holding scripted register contents.
// Reads of registers that were never set fail like an absent device.
type FakeBus struct {
	mu sync.Mutex

	id   uint8
	regs map[regKey][]byte

	// Absent makes Exists report false.
	Absent bool

	// ReadError, if set, is returned by every read.
	ReadError error

	// WriteError, if set, is returned by every write.
	WriteError error

	// Writes contains every write in order, including failed ones.
	Writes []Write

	// OnWrite, if set, is called after a successful write.
	OnWrite func(addr Addr, reg Reg, data []byte)

	failing map[regKey]error
}

// NewFakeBus creates an empty FakeBus with the given bus number.
func NewFakeBus(id uint8) *FakeBus {
	return &FakeBus{
		id:      id,
		regs:    make(map[regKey][]byte),
		failing: make(map[regKey]error),
	}
}

// ID returns the bus number.
func (f *FakeBus) ID() uint8 {
	return f.id
}

// Exists reports !Absent.
func (f *FakeBus) Exists() bool {
	return !f.Absent
}

// Set stores raw register bytes.
func (f *FakeBus) Set(addr Addr, reg Reg, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regs[regKey{addr, reg}] = append([]byte(nil), data...)
}

// SetU16 stores a word in the given byte order.
func (f *FakeBus) SetU16(addr Addr, reg Reg, order binary.ByteOrder, value uint16) {
	var buf [2]byte
	order.PutUint16(buf[:], value)
	f.Set(addr, reg, buf[:])
}

// Fail makes reads of a single register return err.
func (f *FakeBus) Fail(addr Addr, reg Reg, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[regKey{addr, reg}] = err
}

// ReadReg copies the stored register bytes into buf.
func (f *FakeBus) ReadReg(addr Addr, reg Reg, buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ReadError != nil {
		return f.ReadError
	}
	k := regKey{addr, reg}
	if err, ok := f.failing[k]; ok {
		return err
	}
	data, ok := f.regs[k]
	if !ok {
		return fmt.Errorf("no device at %s/%s", addr, reg)
	}
	if len(data) < len(buf) {
		return errors.New("short read")
	}
	copy(buf, data)
	return nil
}

// WriteReg records the write and stores the data in the register.
func (f *FakeBus) WriteReg(addr Addr, reg Reg, data []byte) error {
	f.mu.Lock()
	cp := append([]byte(nil), data...)
	f.Writes = append(f.Writes, Write{Addr: addr, Reg: reg, Data: cp})
	if f.WriteError != nil {
		f.mu.Unlock()
		return f.WriteError
	}
	f.regs[regKey{addr, reg}] = cp
	hook := f.OnWrite
	f.mu.Unlock()

	if hook != nil {
		hook(addr, reg, cp)
	}
	return nil
}

// WritesTo returns the writes made to a single register, oldest first.
func (f *FakeBus) WritesTo(addr Addr, reg Reg) []Write {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []Write
	for _, w := range f.Writes {
		if w.Addr == addr && w.Reg == reg {
			out = append(out, w)
		}
	}
	return out
}

// Reset forgets recorded writes and injected errors. Register contents are kept.
func (f *FakeBus) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Writes = nil
	f.ReadError = nil
	f.WriteError = nil
	f.failing = make(map[regKey]error)
}
