package extract

import (
	"strings"
	"testing"
)

const articleHTML = `<!doctype html>
<html><head>
<title>Fallback Title</title>
<meta property="og:title" content="Council Approves Budget">
<meta property="og:description" content="The city council approved the budget.">
<meta property="og:image" content="/images/hero.jpg">
<meta name="twitter:image" content="https://cdn.example.com/card.png">
<script type="application/ld+json">
{"@context":"https://schema.org","@type":"NewsArticle","headline":"Budget passes",
 "image":[{"@type":"ImageObject","url":"https://cdn.example.com/ld.jpg"}]}
</script>
</head><body>
<nav>Home News Sports</nav>
<article>
<h1>Council Approves Budget</h1>
<p>The city council voted seven to two on Tuesday to approve a budget of 4.2 billion dollars for the coming fiscal year, the largest in the city's history.</p>
<p>The plan increases spending on public transit by twelve percent and adds funding for two hundred new teachers across the district.</p>
<p>Opponents argued the budget relies on optimistic revenue projections that may not hold if the regional economy slows next year.</p>
<img src="inline.webp" alt="">
<img srcset="small.jpg 320w, large.jpg 1024w">
</article>
<footer>Copyright</footer>
</body></html>`

func TestParseHTML_Article(t *testing.T) {
	page, err := ParseHTML([]byte(articleHTML), "https://news.example.com/2024/budget", 200)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if page.Title != "Council Approves Budget" {
		t.Errorf("Expected og:title, got %q", page.Title)
	}
	if page.Description != "The city council approved the budget." {
		t.Errorf("Unexpected description: %q", page.Description)
	}
	if !strings.Contains(page.BodyText, "seven to two") {
		t.Errorf("Expected article body text, got %q", page.BodyText)
	}
	if page.JSONLDText != "Budget passes" {
		t.Errorf("Expected JSON-LD headline, got %q", page.JSONLDText)
	}

	want := []string{
		"https://news.example.com/images/hero.jpg",
		"https://cdn.example.com/card.png",
		"https://cdn.example.com/ld.jpg",
		"https://news.example.com/2024/inline.webp",
		"https://news.example.com/2024/large.jpg",
	}
	for _, w := range want {
		found := false
		for _, img := range page.Images {
			if img == w {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected image %s in %v", w, page.Images)
		}
	}

	if got := page.SelectText(200); got != page.BodyText {
		t.Errorf("Expected body text to be selected")
	}
}

func TestParseHTML_BlockedPageFallsBack(t *testing.T) {
	html := `<html><head>
<meta name="description" content="A short description of the post.">
<script type="application/ld+json">[{"@type":"SocialMediaPosting","articleBody":"The mayor announced a new park."}]</script>
</head><body><p>Please enable JavaScript to view this page.</p></body></html>`

	page, err := ParseHTML([]byte(html), "https://example.com/p/1", 200)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got := page.SelectText(200); got != "The mayor announced a new park." {
		t.Errorf("Expected JSON-LD text, got %q", got)
	}

	page.JSONLDText = ""
	if got := page.SelectText(200); got != "A short description of the post." {
		t.Errorf("Expected meta description, got %q", got)
	}
}

func TestParseHTML_JSONLDGraph(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
{"@graph":[{"@type":"WebPage","mainEntityOfPage":{"name":"Graph Page"}},{"@type":"Article","thumbnailUrl":"https://cdn.example.com/t.jpg"}]}
</script><script type="application/ld+json">{not json}</script></head><body></body></html>`

	page, err := ParseHTML([]byte(html), "https://example.com/", 200)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if page.JSONLDText != "Graph Page" {
		t.Errorf("Expected graph text, got %q", page.JSONLDText)
	}
	if len(page.Images) != 1 || page.Images[0] != "https://cdn.example.com/t.jpg" {
		t.Errorf("Expected graph thumbnail, got %v", page.Images)
	}
}

func TestVisibleTextSkipsScripts(t *testing.T) {
	html := `<html><body><script>var x = "hidden";</script><style>p{}</style><p>shown</p></body></html>`
	page, err := ParseHTML([]byte(html), "https://example.com/", 200)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if strings.Contains(page.BodyText, "hidden") {
		t.Errorf("Expected script content skipped, got %q", page.BodyText)
	}
	if !strings.Contains(page.BodyText, "shown") {
		t.Errorf("Expected visible text, got %q", page.BodyText)
	}
}

func TestLastSrcsetCandidate(t *testing.T) {
	if got := lastSrcsetCandidate("a.jpg 1x, b.jpg 2x"); got != "b.jpg" {
		t.Errorf("Expected b.jpg, got %q", got)
	}
	if got := lastSrcsetCandidate(""); got != "" {
		t.Errorf("Expected empty, got %q", got)
	}
}
