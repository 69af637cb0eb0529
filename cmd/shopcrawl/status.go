package main

import (
	"fmt"

	"github.com/fwojciec/shopcrawl"
)

// Run executes the status command.
func (c *StatusCmd) Run(deps *Dependencies) error {
	total, err := deps.Domains.CountDomains(deps.Ctx, shopcrawl.DomainFilter{})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", shopcrawl.ErrorMessage(err))
		return err
	}

	counts := make([]int, len(shopcrawl.Statuses))
	for i, st := range shopcrawl.Statuses {
		n, err := deps.Domains.CountDomains(deps.Ctx, shopcrawl.DomainFilter{Statuses: []shopcrawl.Status{st}})
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", shopcrawl.ErrorMessage(err))
			return err
		}
		counts[i] = n
	}

	products, err := deps.Products.CountProducts(deps.Ctx, shopcrawl.ProductFilter{})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", shopcrawl.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Domains:  %d\n", total)
	for i, st := range shopcrawl.Statuses {
		fmt.Fprintf(deps.Stdout, "  %-12s %d\n", st, counts[i])
	}
	fmt.Fprintf(deps.Stdout, "Products: %d\n", products)
	return nil
}
