package i2c

import (
	"encoding/binary"
	"fmt"
	"log"
)

// Device reads and writes 16-bit registers on a single bus address with a
// fixed byte order. It logs every failed transaction.
type Device struct {
	bus   Bus
	addr  Addr
	order binary.ByteOrder
	name  string
}

// LittleEndian returns a Device whose registers are little-endian words.
func LittleEndian(bus Bus, addr Addr, name string) Device {
	return Device{bus: bus, addr: addr, order: binary.LittleEndian, name: name}
}

// BigEndian returns a Device whose registers are big-endian words.
func BigEndian(bus Bus, addr Addr, name string) Device {
	return Device{bus: bus, addr: addr, order: binary.BigEndian, name: name}
}

// Addr returns the device address.
func (d Device) Addr() Addr {
	return d.addr
}

// Bus returns the bus the device sits on.
func (d Device) Bus() Bus {
	return d.bus
}

func (d Device) String() string {
	return fmt.Sprintf("i2c-%d/%s", d.bus.ID(), d.name)
}

// ReadU16 reads a word from reg. desc names the quantity for log output.
// Transport errors are returned unchanged.
func (d Device) ReadU16(reg Reg, desc string) (uint16, error) {
	var buf [2]byte
	if err := d.bus.ReadReg(d.addr, reg, buf[:]); err != nil {
		log.Printf("%s: could not read %s (addr %s, reg %s): %v", d, desc, d.addr, reg, err)
		return 0, err
	}
	v := d.order.Uint16(buf[:])
	tracef("%s: read <%d> from %s (addr %s, reg %s)", d, v, desc, d.addr, reg)
	return v, nil
}

// WriteU16 writes a word to reg.
func (d Device) WriteU16(reg Reg, desc string, value uint16) error {
	var buf [2]byte
	d.order.PutUint16(buf[:], value)
	if err := d.bus.WriteReg(d.addr, reg, buf[:]); err != nil {
		log.Printf("%s: failed to set %s to <%d> (addr %s, reg %s): %v", d, desc, value, d.addr, reg, err)
		return err
	}
	tracef("%s: set %s to <%d> (addr %s, reg %s)", d, desc, value, d.addr, reg)
	return nil
}
