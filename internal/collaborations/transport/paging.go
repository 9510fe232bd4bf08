package transport

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Page is a normalized page request.
type Page struct {
	Number int
	Size   int
}

// NewPage clamps the requested page into range.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return Page{Number: number, Size: size}
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// TotalPages returns how many pages total items span.
func (p Page) TotalPages(total int) int {
	if total == 0 {
		return 0
	}
	return (total + p.Size - 1) / p.Size
}
