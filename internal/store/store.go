package store

import (
	"errors"
	"math"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Store persists the application entities through gorm.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Page selects a window of a list. A zero Page disables pagination.
type Page struct {
	Number int // 1-based
	Size   int
}

// maxPageNumber keeps (Number-1)*Size from overflowing for any valid size.
const maxPageNumber = math.MaxInt / MaxPageSize

// NewPage clamps user supplied values to sane bounds.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if number > maxPageNumber {
		number = maxPageNumber
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

func (p Page) apply(q *gorm.DB) *gorm.DB {
	if p.Size <= 0 {
		return q
	}
	return q.Offset(p.Offset()).Limit(p.Size)
}

// Offset is the number of rows skipped before the page starts.
func (p Page) Offset() int {
	if p.Size <= 0 || p.Number <= 1 {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Size
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
