package messages

import (
	"errors"
	"fmt"
	"hash/fnv"
	"slices"
	"strings"

	"github.com/casualjim/evctx/internal/registry"
	"github.com/fogfish/opts"
)

// ErrUnknownMessage is returned by a strict Registry when asked to resolve a
// message name it has never seen.
var ErrUnknownMessage = errors.New("unknown message")

// Registry is a catalogue of message kinds indexed by full name and by ID.
// It is safe for concurrent use.
type Registry struct {
	byName registry.Registry[string, Message]
	byID   registry.Registry[ID, Message]
	auto   bool
}

// AutoRegister makes Resolve create descriptors for names it does not know.
var AutoRegister = opts.ForName[Registry, bool]("auto")

// Preload registers the given messages when the registry is created.
func Preload(msgs ...Message) opts.Option[Registry] {
	return opts.Type[Registry](func(r *Registry) error {
		for _, m := range msgs {
			if err := r.Register(m); err != nil {
				return err
			}
		}
		return nil
	})
}

// NewRegistry creates an empty registry. It panics if an option fails, which
// only happens when Preload is handed conflicting messages.
func NewRegistry(options ...opts.Option[Registry]) *Registry {
	r := &Registry{
		byName: registry.New[string, Message](),
		byID:   registry.New[ID, Message](),
	}
	if err := opts.Apply(r, options); err != nil {
		panic(err)
	}
	return r
}

// Register adds m to the catalogue. Registering the same message twice is a
// no-op; registering a different message under a known name or ID fails.
func (r *Registry) Register(m Message) error {
	name := m.FullName()
	if existing, ok := r.byName.Get(name); ok && existing.ID() != m.ID() {
		return fmt.Errorf("message %s already registered with id %s", name, existing.ID())
	}
	if existing, ok := r.byID.Get(m.ID()); ok && existing.FullName() != name {
		return fmt.Errorf("message id %s already registered as %s", m.ID(), existing.FullName())
	}
	r.byName.Add(name, m)
	r.byID.Add(m.ID(), m)
	return nil
}

// ByName looks a message up by its full name.
func (r *Registry) ByName(name string) (Message, bool) {
	return r.byName.Get(name)
}

// ByID looks a message up by its ID.
func (r *Registry) ByID(id ID) (Message, bool) {
	return r.byID.Get(id)
}

// Len returns the number of registered messages.
func (r *Registry) Len() int {
	return r.byName.Len()
}

// Names returns the registered full names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, r.byName.Len())
	r.byName.Each(func(name string, _ Message) bool {
		names = append(names, name)
		return true
	})
	slices.Sort(names)
	return names
}

// Resolve returns the message registered under name. An auto-registering
// registry creates a Descriptor with the given id when the name is unknown,
// a zero id being replaced by a hash of the name; a strict one returns
// ErrUnknownMessage. Resolving a known name with a non-zero id that disagrees
// with the catalogue fails, and so does auto-registering a name under an id
// already held by another message.
func (r *Registry) Resolve(name string, id ID) (Message, error) {
	name = strings.TrimSpace(name)
	if m, ok := r.byName.Get(name); ok {
		if id != 0 && m.ID() != id {
			return nil, fmt.Errorf("message %s: id %s does not match registered id %s", name, id, m.ID())
		}
		return m, nil
	}
	if !r.auto {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessage, name)
	}

	if id == 0 {
		id = nameID(name)
	}
	d, err := Parse(id, name)
	if err != nil {
		return nil, err
	}
	if existing, ok := r.byID.Get(id); ok && existing.FullName() != name {
		return nil, fmt.Errorf("message %s: id %s already registered as %s", name, id, existing.FullName())
	}
	m, _ := r.byName.GetOrAdd(name, func() Message { return d })
	if owner, _ := r.byID.GetOrAdd(m.ID(), func() Message { return m }); owner.FullName() != m.FullName() {
		r.byName.Del(name)
		return nil, fmt.Errorf("message %s: id %s already registered as %s", name, m.ID(), owner.FullName())
	}
	return m, nil
}

func nameID(name string) ID {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return ID(h.Sum32())
}
