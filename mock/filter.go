package mock

import "github.com/fwojciec/shopcrawl"

var _ shopcrawl.URLFilter = (*URLFilter)(nil)

// URLFilter is a mock implementation of shopcrawl.URLFilter.
type URLFilter struct {
	AddFn        func(url string)
	TestFn       func(url string) bool
	TestAndAddFn func(url string) bool
}

func (f *URLFilter) Add(url string) {
	f.AddFn(url)
}

func (f *URLFilter) Test(url string) bool {
	return f.TestFn(url)
}

func (f *URLFilter) TestAndAdd(url string) bool {
	return f.TestAndAddFn(url)
}
