package sources

import (
	"strings"

	"golang.org/x/net/html"
)

// find returns the first element node under root matching the predicate,
// depth-first.
func find(root *html.Node, match func(*html.Node) bool) *html.Node {
	if root.Type == html.ElementNode && match(root) {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if n := find(c, match); n != nil {
			return n
		}
	}
	return nil
}

// findAll returns every element node under root matching the predicate, in
// document order. Matched nodes are not descended into, so nested matches
// of the same shape are not double-counted.
func findAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

// hasClasses reports whether the node's class attribute contains every one
// of the given class names.
func hasClasses(n *html.Node, classes ...string) bool {
	have := strings.Fields(attr(n, "class"))
	set := make(map[string]bool, len(have))
	for _, c := range have {
		set[c] = true
	}
	for _, want := range classes {
		if !set[want] {
			return false
		}
	}
	return true
}

// attr returns the value of the named attribute, or "".
func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// textContent concatenates all text nodes under n.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
