package goquery_test

import (
	"testing"

	"github.com/fwojciec/shopcrawl/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractor_ExtractLinks(t *testing.T) {
	t.Parallel()

	t.Run("partitions product and navigation links", func(t *testing.T) {
		t.Parallel()

		html := `<html>
	<body>
		<a href="/product/123">Product 1</a>
		<a href="/item/456">Product 2</a>
		<a href="/about">About Us</a>
		<a href="https://www.example.com/product/789">External Product</a>
	</body>
</html>`

		links, err := goquery.NewExtractor().ExtractLinks(html, "https://www.example.com")

		require.NoError(t, err)
		assert.ElementsMatch(t, []string{
			"https://www.example.com/product/123",
			"https://www.example.com/item/456",
			"https://www.example.com/product/789",
		}, links.Products)
		assert.Equal(t, []string{"https://www.example.com/about"}, links.Navigation)
	})

	t.Run("drops links outside the domain", func(t *testing.T) {
		t.Parallel()

		html := `<a href="https://other.test/product/1">x</a>
<a href="https://shop.test.evil.example/product/2">y</a>
<a href="//cdn.example.com/p/3">z</a>
<a href="/category/shoes">shoes</a>`

		links, err := goquery.NewExtractor().ExtractLinks(html, "https://shop.test")

		require.NoError(t, err)
		assert.Empty(t, links.Products)
		assert.Equal(t, []string{"https://shop.test/category/shoes"}, links.Navigation)
	})

	t.Run("deduplicates within the page", func(t *testing.T) {
		t.Parallel()

		html := `<a href="/product/1">a</a><a href="https://shop.test/product/1">b</a>
<a href="/sale">c</a><a href="sale">d</a>`

		links, err := goquery.NewExtractor().ExtractLinks(html, "https://shop.test")

		require.NoError(t, err)
		assert.Equal(t, []string{"https://shop.test/product/1"}, links.Products)
		assert.Equal(t, []string{"https://shop.test/sale"}, links.Navigation)
	})

	t.Run("skips non-HTTP and fragment hrefs", func(t *testing.T) {
		t.Parallel()

		html := `<a href="mailto:shop@shop.test">mail</a>
<a href="javascript:void(0)">js</a>
<a href="#top">top</a>
<a href="">empty</a>
<a>no href</a>`

		links, err := goquery.NewExtractor().ExtractLinks(html, "https://shop.test")

		require.NoError(t, err)
		assert.Empty(t, links.Products)
		assert.Empty(t, links.Navigation)
	})

	t.Run("tolerates malformed markup", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><div><a href="/item/9">unclosed <p><a href="/faq"<<<</div>`

		links, err := goquery.NewExtractor().ExtractLinks(html, "https://shop.test")

		require.NoError(t, err)
		assert.Equal(t, []string{"https://shop.test/item/9"}, links.Products)
	})

	t.Run("returns EINVALID for relative base URL", func(t *testing.T) {
		t.Parallel()

		_, err := goquery.NewExtractor().ExtractLinks(`<a href="/x">x</a>`, "shop.test")

		require.Error(t, err)
	})
}

func TestExtractor_ExtractProducts(t *testing.T) {
	t.Parallel()

	t.Run("returns only in-domain product links without duplicates", func(t *testing.T) {
		t.Parallel()

		html := `<a href="/product/123">a</a>
<a href="/item/456">b</a>
<a href="/about">c</a>
<a href="https://www.example.com/product/789">d</a>
<a href="/product/123">again</a>
<a href="https://other.test/product/1">elsewhere</a>`

		products := goquery.NewExtractor().ExtractProducts(html, "https://www.example.com")

		assert.Equal(t, []string{
			"https://www.example.com/product/123",
			"https://www.example.com/item/456",
			"https://www.example.com/product/789",
		}, products)
	})

	t.Run("returns nothing for invalid base URL", func(t *testing.T) {
		t.Parallel()

		products := goquery.NewExtractor().ExtractProducts(`<a href="/p/1">x</a>`, "not a url")

		assert.Empty(t, products)
	})
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	t.Run("resolves root-relative href against scheme and host", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "https://www.example.com/product/123",
			goquery.Normalize("https://www.example.com", "/product/123"))
	})

	t.Run("root-relative href drops base path", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "https://www.example.com/product/123",
			goquery.Normalize("https://www.example.com/", "/product/123"))
	})

	t.Run("leaves absolute href unchanged", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "https://www.example.com/product/789",
			goquery.Normalize("https://www.example.com", "https://www.example.com/product/789"))
	})

	t.Run("joins relative href with a slash", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "https://www.example.com/item/456",
			goquery.Normalize("https://www.example.com", "item/456"))
		assert.Equal(t, "https://www.example.com/item/456",
			goquery.Normalize("https://www.example.com/", "item/456"))
	})

	t.Run("keeps base scheme for protocol-relative href", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "https://cdn.example.com/img.png",
			goquery.Normalize("https://www.example.com", "//cdn.example.com/img.png"))
	})
}
