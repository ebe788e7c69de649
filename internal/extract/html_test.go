package extract

import (
	"strings"
	"testing"
)

func TestExtractHTMLStripsChrome(t *testing.T) {
	in := `<html><head><title>Doc</title><style>p{color:red}</style></head>
<body>
<script>console.log("tracking")</script>
<!-- comment -->
<h1>Title</h1>
<p>First paragraph.</p>
<p>Second &amp; third.</p>
</body></html>`

	got, err := extractHTML([]byte(in))
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"Title", "First paragraph.", "Second & third."} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	for _, banned := range []string{"tracking", "color:red", "comment", "<p>"} {
		if strings.Contains(got, banned) {
			t.Errorf("output contains %q:\n%s", banned, got)
		}
	}
}

func TestExtractHTMLPreservesPreBlocks(t *testing.T) {
	in := `<p>Example:</p>
<pre><code class="language-python">def f(x):
    return x * 2</code></pre>
<p>Done.</p>`

	got, err := extractHTML([]byte(in))
	if err != nil {
		t.Fatal(err)
	}

	want := "```python\ndef f(x):\n    return x * 2\n```"
	if !strings.Contains(got, want) {
		t.Errorf("fenced block missing:\n got %q\nwant substring %q", got, want)
	}
}

func TestExtractHTMLPreservesIndentation(t *testing.T) {
	// Whitespace inside pre must survive the collapse passes.
	in := `<pre>if a:
        b()</pre>`

	got, err := extractHTML([]byte(in))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "        b()") {
		t.Errorf("indentation lost:\n%s", got)
	}
}

func TestExtractHTMLInlineCode(t *testing.T) {
	in := `<p>Run <code>go test</code> locally.</p>`

	got, err := extractHTML([]byte(in))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "`go test`") {
		t.Errorf("inline code not backticked:\n%s", got)
	}
}

func TestExtractHTMLUnescapesEntities(t *testing.T) {
	in := `<pre>a &lt; b &amp;&amp; c &gt; d</pre>`

	got, err := extractHTML([]byte(in))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "a < b && c > d") {
		t.Errorf("entities not unescaped:\n%s", got)
	}
}
