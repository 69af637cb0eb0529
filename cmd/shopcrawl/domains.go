package main

import (
	"fmt"
	"strings"

	"github.com/fwojciec/shopcrawl"
)

// Run executes the domains command.
func (c *DomainsCmd) Run(deps *Dependencies) error {
	var filter shopcrawl.DomainFilter
	for _, s := range c.Status {
		st := shopcrawl.Status(strings.ToUpper(s))
		if !st.Valid() {
			fmt.Fprintf(deps.Stderr, "error: unknown status %q\n", s)
			return shopcrawl.Errorf(shopcrawl.EINVALID, "unknown status %q", s)
		}
		filter.Statuses = append(filter.Statuses, st)
	}

	domains, err := deps.Domains.FindDomains(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", shopcrawl.ErrorMessage(err))
		return err
	}

	if len(domains) == 0 {
		fmt.Fprintln(deps.Stdout, "No domains found. Use 'shopcrawl seed' to add one.")
		return nil
	}

	for _, d := range domains {
		last := "never"
		if d.LastCrawledAt != nil {
			last = d.LastCrawledAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(deps.Stdout, "%s  %-11s  %-16s  %s\n", d.ID, d.Status, last, d.URL)
	}

	return nil
}
