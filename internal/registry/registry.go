package registry

import "github.com/alphadose/haxmap"

// Key is the set of key types a Registry can be indexed by: message names and
// packed message IDs.
type Key interface {
	~string | ~uint32
}

type Registry[K Key, T any] interface {
	Get(key K) (T, bool)
	Add(key K, value T)
	GetOrAdd(key K, value func() T) (T, bool)
	Del(key K)
	Len() int
	Each(fn func(K, T) bool)
}

type registry[K Key, T any] struct {
	values *haxmap.Map[K, T]
}

func New[K Key, T any]() Registry[K, T] {
	return &registry[K, T]{
		values: haxmap.New[K, T](),
	}
}

func (r *registry[K, T]) Get(key K) (T, bool) {
	return r.values.Get(key)
}

func (r *registry[K, T]) Add(key K, value T) {
	r.values.Set(key, value)
}

// GetOrAdd returns the stored value for key, computing and storing it when
// absent. The boolean reports whether the value was already present.
func (r *registry[K, T]) GetOrAdd(key K, valueFn func() T) (T, bool) {
	return r.values.GetOrCompute(key, valueFn)
}

func (r *registry[K, T]) Del(key K) {
	r.values.Del(key)
}

func (r *registry[K, T]) Len() int {
	return int(r.values.Len())
}

// Each visits every entry until fn returns false. Order is unspecified.
func (r *registry[K, T]) Each(fn func(K, T) bool) {
	r.values.ForEach(fn)
}
