package crawl

import "fmt"

// TruncateURL shortens a URL for display, keeping the end which is more
// informative for product paths.
func TruncateURL(url string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if maxLen < 4 {
		return url[:min(len(url), maxLen)]
	}
	if len(url) <= maxLen {
		return url
	}
	return "..." + url[len(url)-maxLen+3:]
}

// FormatPass summarizes a pass result on one line.
func FormatPass(r *PassResult) string {
	return fmt.Sprintf("%d domains: %d completed, %d failed, %d new products",
		r.Domains, r.Completed, r.Failed, r.Products)
}

// FormatEvent renders a progress event as a single log line.
func FormatEvent(e ProgressEvent) string {
	var url string
	if e.Domain != nil {
		url = e.Domain.URL
	}
	switch e.Type {
	case ProgressDomainStarted:
		return fmt.Sprintf("crawling %s", url)
	case ProgressProductFound:
		return fmt.Sprintf("  product %s", TruncateURL(e.URL, 72))
	case ProgressDomainCompleted:
		return fmt.Sprintf("completed %s (%d products, %d pages)", url, e.Products, e.Pages)
	case ProgressDomainFailed:
		return fmt.Sprintf("failed %s: %v", url, e.Error)
	}
	return e.Type.String()
}
