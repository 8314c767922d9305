package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

const stylesheet = `body{font-family:system-ui,sans-serif;margin:0;background:#f8fafc;color:#0f172a}
header,main,footer{max-width:72rem;margin:0 auto;padding:1rem}
header a{color:inherit;text-decoration:none}
form.filters{display:flex;gap:.5rem;margin-bottom:1rem}
.grid{display:grid;grid-template-columns:repeat(auto-fill,minmax(14rem,1fr));gap:1rem}
.card{background:#fff;border-radius:.75rem;box-shadow:0 1px 3px rgba(0,0,0,.1);padding:1rem}
.card h2{font-size:1.1rem;text-transform:capitalize;margin:0;display:flex;justify-content:space-between}
.card h2 a{color:inherit;text-decoration:none}
.number{color:#64748b;font-size:.85rem;font-weight:normal}
.badge{display:inline-block;border-radius:9999px;padding:.15rem .5rem;color:#fff;font-size:.75rem;margin-right:.25rem;text-transform:capitalize}
.card img{display:block;margin:.5rem auto;width:6rem;height:6rem;object-fit:contain}
.measure{display:flex;justify-content:space-between;font-size:.85rem}
.stat{display:flex;align-items:center;gap:.5rem;font-size:.75rem}
.stat .label{width:6.5rem;color:#64748b;text-transform:capitalize}
.stat .bar{flex:1;height:.4rem;border-radius:9999px;background:#e2e8f0}
.stat .fill{height:.4rem;border-radius:9999px;background:#0f172a}
.pager{display:flex;justify-content:space-between;margin-top:1rem}
footer{color:#64748b;font-size:.8rem}`

// Layout wraps page content in the shared document shell.
func Layout(title string, content templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		out := &writer{w: w}
		out.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		out.text(title)
		out.raw(`</title><style>`)
		out.raw(stylesheet)
		out.raw(`</style></head><body><header><h1><a href="/">Pokédex</a></h1></header><main>`)
		if out.err != nil {
			return out.err
		}
		if err := content.Render(ctx, w); err != nil {
			return err
		}
		out.raw(`</main><footer><p>`)
		out.text(DefaultFooterNote)
		out.raw(`</p></footer></body></html>`)
		return out.err
	})
}

// HomePage renders the searchable card grid.
func HomePage(data HomePageData) templ.Component {
	return Layout(data.Title, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out := &writer{w: w}

		out.raw(`<form class="filters" method="get" action="/"><input type="search" name="search" placeholder="Search Pokémon..." value="`)
		out.text(data.Search)
		out.raw(`"><select name="type"><option value="">All types</option>`)
		for _, name := range data.TypeOptions {
			out.raw(`<option value="`)
			out.text(name)
			out.raw(`"`)
			if name == data.Type {
				out.raw(` selected`)
			}
			out.raw(`>`)
			out.text(name)
			out.raw(`</option>`)
		}
		out.raw(`</select><button type="submit">Filter</button></form>`)

		if len(data.Cards) == 0 {
			out.raw(`<p class="empty">`)
			out.text(data.EmptyNotice)
			out.raw(`</p>`)
		} else {
			out.raw(`<div class="grid">`)
			for _, card := range data.Cards {
				writeCard(out, card)
			}
			out.raw(`</div>`)
		}

		out.raw(`<nav class="pager">`)
		if data.PrevURL != "" {
			out.raw(`<a rel="prev" href="`)
			out.text(string(templ.URL(data.PrevURL)))
			out.raw(`">Previous</a>`)
		} else {
			out.raw(`<span></span>`)
		}
		out.printf(`<span class="page">Page %d</span>`, data.Page)
		if data.NextURL != "" {
			out.raw(`<a rel="next" href="`)
			out.text(string(templ.URL(data.NextURL)))
			out.raw(`">Next</a>`)
		} else {
			out.raw(`<span></span>`)
		}
		out.raw(`</nav>`)

		return out.err
	}))
}

// DetailPage renders a single Pokémon card.
func DetailPage(data DetailPageData) templ.Component {
	return Layout(data.Title, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out := &writer{w: w}
		out.raw(`<div class="grid">`)
		writeCard(out, data.Card)
		out.raw(`</div><p><a href="/">Back to all Pokémon</a></p>`)
		return out.err
	}))
}

// ErrorPage renders an error view with the shared layout.
func ErrorPage(data ErrorPageData) templ.Component {
	return Layout(data.Title, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out := &writer{w: w}
		out.raw(`<section class="error"><h2>`)
		out.text(data.StatusLabel)
		out.raw(`</h2><p>`)
		out.text(data.Message)
		out.raw(`</p><p><a href="/">Back to all Pokémon</a></p></section>`)
		return out.err
	}))
}

func writeCard(out *writer, card CardView) {
	out.printf(`<article class="card" data-id="%d"><h2><a href="`, card.ID)
	out.text(string(templ.URL(card.DetailURL)))
	out.raw(`">`)
	out.text(card.Name)
	out.raw(`</a><span class="number">`)
	out.text(card.Number)
	out.raw(`</span></h2><div class="types">`)
	for _, typeName := range card.Types {
		out.raw(`<span class="badge" style="background:`)
		out.text(TypeColor(typeName))
		out.raw(`">`)
		out.text(typeName)
		out.raw(`</span>`)
	}
	out.raw(`</div><img loading="lazy" src="`)
	out.text(string(templ.URL(card.Image)))
	out.raw(`" alt="`)
	out.text(card.Name)
	out.raw(`">`)
	out.printf(`<div class="measure"><span>Height:</span><span>%d cm</span></div>`, card.HeightCM)
	out.printf(`<div class="measure"><span>Weight:</span><span>%d kg</span></div>`, card.WeightKG)
	out.raw(`<div class="stats">`)
	for _, stat := range card.Stats {
		out.raw(`<div class="stat"><span class="label">`)
		out.text(stat.Label)
		out.printf(`:</span><div class="bar"><div class="fill" style="width:%d%%"></div></div><span class="value">%d</span></div>`, stat.Percent, stat.Value)
	}
	out.raw(`</div></article>`)
}
