package main

import (
	"fmt"
	"strings"

	"github.com/fwojciec/shopcrawl"
)

// Run executes the products command.
func (c *ProductsCmd) Run(deps *Dependencies) error {
	domain, err := findDomain(deps, c.Domain)
	if err != nil {
		return err
	}

	products, err := deps.Products.FindProducts(deps.Ctx, shopcrawl.ProductFilter{
		DomainID: &domain.ID,
		Limit:    c.Limit,
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", shopcrawl.ErrorMessage(err))
		return err
	}

	if len(products) == 0 {
		fmt.Fprintf(deps.Stdout, "No products found for %s.\n", domain.URL)
		return nil
	}

	for _, p := range products {
		fmt.Fprintln(deps.Stdout, p.URL)
	}
	return nil
}

// findDomain resolves a domain by ID, falling back to its URL.
func findDomain(deps *Dependencies, ref string) (*shopcrawl.Domain, error) {
	domain, err := deps.Domains.FindDomainByID(deps.Ctx, ref)
	if shopcrawl.ErrorCode(err) == shopcrawl.ENOTFOUND {
		domain, err = deps.Domains.FindDomainByURL(deps.Ctx, strings.TrimSuffix(ref, "/"))
	}
	if shopcrawl.ErrorCode(err) == shopcrawl.ENOTFOUND {
		fmt.Fprintf(deps.Stderr, "error: domain %q not found. Use 'shopcrawl domains' to see registered domains.\n", ref)
		return nil, err
	}
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", shopcrawl.ErrorMessage(err))
		return nil, err
	}
	return domain, nil
}
