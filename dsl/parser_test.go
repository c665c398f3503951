package dsl_test

import (
	"strings"
	"testing"

	"github.com/ByLCY/quire/dsl"
)

const sampleTemplate = `
template Report v1 {
  meta {
    title: "Quarterly"
    keywords: [
      "finance"
      "internal"
    ]
  }

  resources {
    font Body {
      src: "embed:goregular"
    }
    font BodyBold {
      src: "embed:gobold"
      style: "bold"
    }

    color Accent = #0F62FE

    style h1 extends body {
      font: BodyBold
      size: 20pt
      color: Accent
    }
  }

  page A4 portrait margin 18mm {
    toc {
      title: "Contents"
    }
    footer {
      text: "Page ${page}"
      size: 9pt
    }
  }
}
`

func TestParseTemplate(t *testing.T) {
	tpl, err := dsl.ParseString(sampleTemplate)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if tpl.Name != "Report" {
		t.Fatalf("expected template name Report, got %s", tpl.Name)
	}
	if tpl.Version != "v1" {
		t.Fatalf("expected version v1, got %s", tpl.Version)
	}
	if len(tpl.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(tpl.Sections))
	}

	meta := tpl.Meta()
	if meta == nil {
		t.Fatalf("meta section missing")
	}
	assigns := meta.Block.Assignments()
	if assigns["title"] != "Quarterly" {
		t.Fatalf("expected title Quarterly, got %q", assigns["title"])
	}
	keywords := meta.Block.Statements[1].Assignment
	if keywords == nil || len(dsl.ValueStrings(keywords.Value)) != 2 {
		t.Fatalf("expected 2 keywords, got %+v", keywords)
	}

	res := tpl.Resources()
	if len(res) != 1 {
		t.Fatalf("expected 1 resources section, got %d", len(res))
	}
	var style, color *dsl.Command
	for _, st := range res[0].Block.Statements {
		if st.Command == nil {
			continue
		}
		switch st.Command.Name {
		case "style":
			style = st.Command
		case "color":
			color = st.Command
		}
	}
	if color == nil || len(color.Args) != 3 || color.Args[2].Value != "#0F62FE" {
		t.Fatalf("six-digit color should lex as one token: %+v", color)
	}
	if style == nil {
		t.Fatalf("style command missing")
	}
	if len(style.Args) != 3 || style.Args[1].Value != "extends" || style.Args[2].Value != "body" {
		t.Fatalf("unexpected style args: %+v", style.Args)
	}
	props := style.Block.Assignments()
	if props["font"] != "BodyBold" || props["size"] != "20pt" || props["color"] != "Accent" {
		t.Fatalf("unexpected style props: %+v", props)
	}

	page := tpl.Page()
	if page == nil {
		t.Fatalf("page section missing")
	}
	if page.Spec.Size != "A4" {
		t.Fatalf("expected page size A4, got %s", page.Spec.Size)
	}
	if len(page.Spec.Params) != 3 || page.Spec.Params[2].Value != "18mm" {
		t.Fatalf("unexpected page params: %+v", page.Spec.Params)
	}
	footer := page.Command("footer")
	if footer == nil {
		t.Fatalf("footer command missing")
	}
	if got := footer.Block.Assignments()["text"]; !strings.Contains(got, "${page}") {
		t.Fatalf("expected footer template to keep placeholder, got %q", got)
	}
	if page.Command("cover") != nil {
		t.Fatalf("cover command should be absent")
	}
}

func TestParseTemplateRejectsUnknownRoot(t *testing.T) {
	if _, err := dsl.ParseString(`doc X v1 { }`); err == nil {
		t.Fatalf("expected error for non-template root")
	}
}
