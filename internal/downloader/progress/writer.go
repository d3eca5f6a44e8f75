package progress

import "io"

// Writer wraps an io.Writer and reports the running byte count to an
// Observer after every successful write.
type Writer struct {
	Writer   io.Writer
	Name     string
	Total    int64
	Observer Observer

	written int64
}

// NewWriter starts counting from offset, the number of bytes already on disk.
func NewWriter(w io.Writer, name string, offset, total int64, o Observer) *Writer {
	return &Writer{
		Writer:   w,
		Name:     name,
		Total:    total,
		Observer: o,
		written:  offset,
	}
}

func (pw *Writer) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	if n > 0 {
		pw.written += int64(n)
	}

	if err != nil {
		return n, err
	}

	pw.Observer.OnProgress(pw.Name, pw.written, pw.Total)

	return n, nil
}

// Written returns the number of bytes of the file written so far, including the offset.
func (pw *Writer) Written() int64 {
	return pw.written
}

// Reset rewinds the counter to zero and reports the reset.
func (pw *Writer) Reset() {
	pw.written = 0
	pw.Observer.OnProgress(pw.Name, 0, pw.Total)
}
