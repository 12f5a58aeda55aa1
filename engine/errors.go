package engine

// Returned when input text does not conform to the grammar of the format being parsed
type ParseErr struct {
	Message string
	Wrapped error
}

func (pe ParseErr) Error() string {
	return pe.Message
}

func (pe ParseErr) Unwrap() error {
	return pe.Wrapped
}

// Returned when a graph cannot be written in the requested format
type SerializeErr struct {
	Message string
	Wrapped error
}

func (se SerializeErr) Error() string {
	return se.Message
}

func (se SerializeErr) Unwrap() error {
	return se.Wrapped
}
