package main

import (
	"fmt"
	"strings"

	"github.com/fwojciec/shopcrawl"
)

// DefaultShops are registered by "seed --defaults".
var DefaultShops = []string{
	"https://www.virgio.com",
	"https://www.tatacliq.com",
	"https://nykaafashion.com",
	"https://www.westside.com",
}

// Run executes the seed command. Domains that are already registered are
// left untouched.
func (c *SeedCmd) Run(deps *Dependencies) error {
	urls := c.URLs
	if c.Defaults {
		urls = append(urls, DefaultShops...)
	}
	if len(urls) == 0 {
		fmt.Fprintln(deps.Stderr, "error: no URLs given. Pass shop URLs or --defaults.")
		return shopcrawl.Errorf(shopcrawl.EINVALID, "no URLs given")
	}

	for _, raw := range urls {
		url := strings.TrimSuffix(strings.TrimSpace(raw), "/")

		exists, err := deps.Domains.ExistsByURL(deps.Ctx, url)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", shopcrawl.ErrorMessage(err))
			return err
		}
		if exists {
			fmt.Fprintf(deps.Stdout, "Already registered %s\n", url)
			continue
		}

		domain := &shopcrawl.Domain{URL: url, Status: shopcrawl.StatusPending}
		if err := deps.Domains.CreateDomain(deps.Ctx, domain); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", shopcrawl.ErrorMessage(err))
			return err
		}
		fmt.Fprintf(deps.Stdout, "Registered %s (%s)\n", url, domain.ID)
	}

	return nil
}
