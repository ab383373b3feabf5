// Package paginator holds the shared offset-pagination policy used by the
// thread feed, user search and community search.
package paginator

import (
	"fmt"

	"github.com/mnuddindev/threadly/pkg/utils"
)

// Page describes one requested page. Number is 1-based.
type Page struct {
	Number int
	Size   int
}

// NewPage validates and builds a Page.
func NewPage(number, size int) (Page, error) {
	p := Page{Number: number, Size: size}
	if err := p.Validate(); err != nil {
		return Page{}, err
	}
	return p, nil
}

// Validate rejects malformed pagination parameters.
func (p Page) Validate() error {
	if p.Number < 1 {
		return utils.NewError(utils.ErrBadRequest.Code, fmt.Sprintf("page number must be >= 1, got %d", p.Number))
	}
	if p.Size <= 0 {
		return utils.NewError(utils.ErrBadRequest.Code, fmt.Sprintf("page size must be > 0, got %d", p.Size))
	}
	return nil
}

// Offset returns the number of rows to skip before this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Limit returns the number of rows to fetch. Exactly Size; the caller never
// over-fetches to detect a next page, HasNext uses the count query instead.
func (p Page) Limit() int {
	return p.Size
}

// HasNext reports whether more results exist beyond this page. total must
// come from a count query sharing the exact filter of the page fetch, or
// the signal becomes inconsistent.
func (p Page) HasNext(total int64, returned int) bool {
	return total > int64(p.Offset()+returned)
}
