package messages

import (
	"fmt"
	"strings"
)

// ID identifies a message kind. Many events share one ID.
type ID uint32

// MakeID packs a project, class and command number into an ID.
func MakeID(project, class uint8, command uint16) ID {
	return ID(uint32(project)<<24 | uint32(class)<<16 | uint32(command))
}

// Project returns the project (feature) number of the message.
func (id ID) Project() uint8 { return uint8(id >> 24) }

// Class returns the class number of the message.
func (id ID) Class() uint8 { return uint8(id >> 16) }

// Command returns the command number of the message.
func (id ID) Command() uint16 { return uint16(id) }

func (id ID) String() string {
	return fmt.Sprintf("0x%08x", uint32(id))
}

// Message is the identity of a message kind as seen by the event context.
type Message interface {
	ID() ID
	FullName() string
}

var _ Message = Descriptor{}

// Descriptor is an immutable Message.
type Descriptor struct {
	id      ID
	feature string
	class   string
	name    string
}

// New creates a descriptor. Feature and class may be empty for messages that
// are not grouped.
func New(id ID, feature, class, name string) Descriptor {
	return Descriptor{id: id, feature: feature, class: class, name: name}
}

// Parse creates a descriptor from a dotted full name such as
// "ardrone3.Piloting.TakeOff", "common.Connected" or a bare "Connected".
func Parse(id ID, fullName string) (Descriptor, error) {
	parts := strings.Split(fullName, ".")
	for _, p := range parts {
		if p == "" {
			return Descriptor{}, fmt.Errorf("invalid message name %q", fullName)
		}
	}
	switch len(parts) {
	case 1:
		return New(id, "", "", parts[0]), nil
	case 2:
		return New(id, parts[0], "", parts[1]), nil
	case 3:
		return New(id, parts[0], parts[1], parts[2]), nil
	default:
		return Descriptor{}, fmt.Errorf("invalid message name %q", fullName)
	}
}

func (d Descriptor) ID() ID { return d.id }

func (d Descriptor) Feature() string { return d.feature }

func (d Descriptor) Class() string { return d.class }

func (d Descriptor) Name() string { return d.name }

// FullName joins feature, class and name with dots, skipping empty parts.
func (d Descriptor) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range [...]string{d.feature, d.class, d.name} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ".")
}

func (d Descriptor) String() string {
	return d.FullName()
}
