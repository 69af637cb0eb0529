package main

import (
	"fmt"
	"time"

	"github.com/fwojciec/shopcrawl"
)

// Run executes the recrawl command.
func (c *RecrawlCmd) Run(deps *Dependencies) error {
	domain, err := findDomain(deps, c.Domain)
	if err != nil {
		return err
	}

	if domain.Status == shopcrawl.StatusPending {
		fmt.Fprintf(deps.Stdout, "%s is already pending\n", domain.URL)
		return nil
	}

	if domain.Status == shopcrawl.StatusInProgress && c.Force {
		// A crawl that died with the process leaves its domain IN_PROGRESS.
		domain.Status = shopcrawl.StatusPending
	} else if err := domain.Transition(shopcrawl.StatusPending, time.Now()); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s is %s; use --force to reset it\n", domain.URL, domain.Status)
		return err
	}

	if err := deps.Domains.UpdateDomain(deps.Ctx, domain); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", shopcrawl.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "%s will be crawled on the next pass\n", domain.URL)
	return nil
}
