// Package catalog loads and queries the static retro game list.
//
// The catalog file is a columnar TSV: the first line holds manufacturer
// names, the second line the console for each column, and every following
// line one game title per column. Empty cells are skipped.
package catalog

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// Game is one catalog entry. The title string is canonical: media
// directories and cache keys are derived from it.
type Game struct {
	Title        string `json:"title"`
	Manufacturer string `json:"manufacturer"`
	Console      string `json:"console"`
}

// Manufacturer aggregates a manufacturer's platforms and game count.
type Manufacturer struct {
	Name       string   `json:"name"`
	Platforms  []string `json:"platforms"`
	TotalGames int      `json:"total_games"`
}

// Catalog is an immutable, in-memory game list.
type Catalog struct {
	games []Game
}

// Load reads the catalog from a columnar TSV file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(string(data))
}

// Parse builds a catalog from columnar TSV content.
func Parse(content string) (*Catalog, error) {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	if len(lines) < 3 {
		return nil, fmt.Errorf("catalog needs a manufacturer line, a console line and at least one game row")
	}

	manufacturers := strings.Split(strings.TrimRight(lines[0], "\n"), "\t")
	consoles := strings.Split(strings.TrimRight(lines[1], "\n"), "\t")

	var games []Game
	for _, line := range lines[2:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		titles := strings.Split(line, "\t")
		for i, title := range titles {
			title = strings.TrimSpace(title)
			if title == "" || i >= len(consoles) {
				continue
			}
			mfr := "Unknown"
			if i < len(manufacturers) && strings.TrimSpace(manufacturers[i]) != "" {
				mfr = strings.TrimSpace(manufacturers[i])
			}
			games = append(games, Game{
				Title:        title,
				Manufacturer: mfr,
				Console:      strings.TrimSpace(consoles[i]),
			})
		}
	}

	return &Catalog{games: games}, nil
}

// Games returns all games in catalog order.
func (c *Catalog) Games() []Game {
	out := make([]Game, len(c.games))
	copy(out, c.games)
	return out
}

// Len returns the number of games.
func (c *Catalog) Len() int {
	return len(c.games)
}

// Find returns the game with the exact title, preferring a console match
// when one is given.
func (c *Catalog) Find(title, console string) (Game, bool) {
	var fallback Game
	var found bool
	for _, g := range c.games {
		if g.Title != title {
			continue
		}
		if console == "" || strings.EqualFold(g.Console, console) {
			return g, true
		}
		if !found {
			fallback = g
			found = true
		}
	}
	return fallback, found
}

// Search returns games whose title contains q, case-insensitively.
// An empty query returns the full list.
func (c *Catalog) Search(q string) []Game {
	if q == "" {
		return c.Games()
	}
	q = strings.ToLower(q)
	var out []Game
	for _, g := range c.games {
		if strings.Contains(strings.ToLower(g.Title), q) {
			out = append(out, g)
		}
	}
	return out
}

// Consoles returns the sorted set of console names.
func (c *Catalog) Consoles() []string {
	seen := make(map[string]struct{})
	for _, g := range c.games {
		seen[g.Console] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ByConsole returns games for the given console, case-insensitively.
func (c *Catalog) ByConsole(console string) []Game {
	var out []Game
	for _, g := range c.games {
		if strings.EqualFold(g.Console, console) {
			out = append(out, g)
		}
	}
	return out
}

// ByManufacturer returns games for the given manufacturer, case-insensitively.
func (c *Catalog) ByManufacturer(name string) []Game {
	var out []Game
	for _, g := range c.games {
		if strings.EqualFold(g.Manufacturer, name) {
			out = append(out, g)
		}
	}
	return out
}

// Manufacturers returns manufacturer aggregates sorted by game count
// descending.
func (c *Catalog) Manufacturers() []Manufacturer {
	type agg struct {
		platforms map[string]struct{}
		total     int
	}
	byName := make(map[string]*agg)
	var order []string

	for _, g := range c.games {
		a, ok := byName[g.Manufacturer]
		if !ok {
			a = &agg{platforms: make(map[string]struct{})}
			byName[g.Manufacturer] = a
			order = append(order, g.Manufacturer)
		}
		a.platforms[g.Console] = struct{}{}
		a.total++
	}

	out := make([]Manufacturer, 0, len(order))
	for _, name := range order {
		a := byName[name]
		platforms := make([]string, 0, len(a.platforms))
		for p := range a.platforms {
			platforms = append(platforms, p)
		}
		sort.Strings(platforms)
		out = append(out, Manufacturer{Name: name, Platforms: platforms, TotalGames: a.total})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalGames > out[j].TotalGames
	})
	return out
}

// ManufacturerDetail returns the aggregate and games for one manufacturer.
func (c *Catalog) ManufacturerDetail(name string) (Manufacturer, []Game, bool) {
	games := c.ByManufacturer(name)
	if len(games) == 0 {
		return Manufacturer{}, nil, false
	}

	platforms := make(map[string]struct{})
	for _, g := range games {
		platforms[g.Console] = struct{}{}
	}
	sorted := make([]string, 0, len(platforms))
	for p := range platforms {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	return Manufacturer{
		Name:       games[0].Manufacturer,
		Platforms:  sorted,
		TotalGames: len(games),
	}, games, true
}

// ManufacturerPlatform returns the games for one manufacturer on one
// platform, sorted by title.
func (c *Catalog) ManufacturerPlatform(name, platform string) []Game {
	var out []Game
	for _, g := range c.games {
		if strings.EqualFold(g.Manufacturer, name) && strings.EqualFold(g.Console, platform) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Title) < strings.ToLower(out[j].Title)
	})
	return out
}
