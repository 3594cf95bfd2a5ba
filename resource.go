package ecs

// GetResource fetches the singleton resource of type T from the world,
// reporting ErrResourceMissing if it was never inserted (spec.md §4.1
// "get_resource<T>()").
func GetResource[T any](w *World) (T, error) {
	var zero T
	value, ok := w.resources.Get(ResourceKeyOf[T]())
	if !ok {
		return zero, ErrResourceMissing
	}
	typed, ok := value.(T)
	if !ok {
		return zero, ErrResourceMissing
	}
	return typed, nil
}

// InsertResource installs value as the singleton resource of type T,
// replacing any prior value (spec.md §4.1 "insert_resource<T>(value)").
func InsertResource[T any](w *World, value T) {
	w.resources.Set(ResourceKeyOf[T](), value)
}

// RemoveResource drops the singleton resource of type T, if present
// (spec.md §4.1 "remove_resource<T>()").
func RemoveResource[T any](w *World) {
	w.resources.Delete(ResourceKeyOf[T]())
}

// HasResource reports whether a resource of type T is currently present.
func HasResource[T any](w *World) bool {
	_, ok := w.resources.Get(ResourceKeyOf[T]())
	return ok
}
