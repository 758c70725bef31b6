package ptr

func Ptr[T any](v T) *T {
	return &v
}

func PtrGet[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}

	return *v
}

// Clone возвращает указатель на копию значения, nil остается nil
func Clone[T any](v *T) *T {
	if v == nil {
		return nil
	}

	value := *v
	return &value
}
