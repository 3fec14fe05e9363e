// Package grounding checks generated answers against the analysis they were
// generated from. Checks are textual, pure and never touch the network.
package grounding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/frosttechequities/FPL-chips-optimizer/internal/analysis"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/catalog"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/logger"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/money"
)

type Kind string

const (
	UnknownPlayer    Kind = "unknown-player"
	StaleGameweek    Kind = "stale-gameweek"
	StaleSeason      Kind = "stale-season"
	CurrencyEncoding Kind = "currency-encoding"
	CurrencyMissing  Kind = "currency-missing"
)

// LastGameweek is the final gameweek of a Premier League season.
const LastGameweek = 38

type Violation struct {
	Kind   Kind   `json:"kind"`
	Detail string `json:"detail"`
}

type Verdict struct {
	Accepted   bool        `json:"accepted"`
	Violations []Violation `json:"violations"`
}

// Window is the range of gameweeks and the season an answer may refer to.
// A zero From/To or an empty Season disables that check.
type Window struct {
	From   int    `json:"from"`
	To     int    `json:"to"`
	Season string `json:"season"`
}

// WindowAround spans lookback gameweeks before current to horizon after it.
func WindowAround(current, lookback, horizon int, season string) Window {
	w := Window{From: current - lookback, To: current + horizon, Season: season}
	if w.From < 1 {
		w.From = 1
	}
	if w.To > LastGameweek {
		w.To = LastGameweek
	}
	return w
}

func (w Window) Contains(gw int) bool {
	if w.From == 0 && w.To == 0 {
		return true
	}
	return gw >= w.From && gw <= w.To
}

var (
	// gameweekRegex matches "GW5", "gameweeks 5-7" and "GWs 5 to 7"; the
	// second group is the end of a range.
	gameweekRegex = regexp.MustCompile(`(?i)\b(?:game\s?weeks?|gws?)\s*(\d{1,2})(?:\s*(?:-|–|to|through|until)\s*(?:gw\s*)?(\d{1,2}))?\b`)
	seasonRegex   = regexp.MustCompile(`\b(20\d{2})\s*[/-]\s*(\d{2})\b`)
	// figureRegex matches an amount in millions, e.g. 12.3m.
	figureRegex      = regexp.MustCompile(`\d{1,3}\.\d\s?m\b`)
	wrongSymbolRegex = regexp.MustCompile(`[$€]\s*\d{1,3}(?:\.\d)?\s?m\b`)
	replacementRegex = regexp.MustCompile(`\x{FFFD}\s*\d|\d\s*\x{FFFD}`)
	moneyQuestion    = regexp.MustCompile(`(?i)\b(?:price[sd]?|budget|costs?|bank|value|afford(?:able)?|money|funds|itb|spend|sell(?:ing)?)\b`)
)

// mojibake lists the byte sequences a mis-decoded "£" or "€" turns into.
var mojibake = []string{"Ã‚Â£", "Â£", "â‚¬", "Ã‚"}

// Validator is built per request from the catalog in effect for it.
type Validator struct {
	// names maps every detectable name to the element ids carrying it.
	names map[string][]int
	order []string
	// folded marks full names, stored lower-cased and matched without case.
	folded map[string]bool
	window Window
}

func NewValidator(cat *catalog.Catalog, w Window) *Validator {
	v := &Validator{names: make(map[string][]int), folded: make(map[string]bool), window: w}
	if cat == nil {
		return v
	}
	add := func(name string, id int) {
		if _, ok := v.names[name]; !ok {
			v.order = append(v.order, name)
		}
		v.names[name] = append(v.names[name], id)
	}
	for _, p := range cat.Players() {
		// Web names keep their case: "Wood" is a player, "wood" is not.
		name := norm.NFC.String(strings.TrimSpace(p.Name))
		if utf8.RuneCountInString(name) >= 3 {
			add(name, p.ID)
		}
		full := norm.NFC.String(strings.TrimSpace(p.FullName()))
		if strings.Contains(full, " ") {
			full = strings.ToLower(full)
			v.folded[full] = true
			add(full, p.ID)
		}
	}
	return v
}

// Validate accepts an answer only when it names no player outside res,
// refers to no gameweek or season outside the window, and renders money
// correctly. question is used only to tell whether money was asked about.
func (v *Validator) Validate(answer, question string, res *analysis.Result) Verdict {
	text := norm.NFC.String(answer)
	violations := make([]Violation, 0)
	violations = append(violations, v.checkPlayers(text, res)...)
	violations = append(violations, v.checkGameweeks(text)...)
	violations = append(violations, v.checkSeasons(text)...)
	violations = append(violations, checkEncoding(text)...)
	if moneyQuestion.MatchString(norm.NFC.String(question)) {
		violations = append(violations, checkCurrencyPresent(text)...)
	}
	for _, vi := range violations {
		logger.Warnf("[grounding] %s: %s", vi.Kind, vi.Detail)
	}
	return Verdict{Accepted: len(violations) == 0, Violations: violations}
}

func (v *Validator) checkPlayers(text string, res *analysis.Result) []Violation {
	allowed := res.IDs()
	lower := strings.ToLower(text)
	out := make([]Violation, 0)
	for _, name := range v.order {
		hay := text
		if v.folded[name] {
			hay = lower
		}
		if !containsWord(hay, name) {
			continue
		}
		ok := false
		for _, id := range v.names[name] {
			if allowed[id] {
				ok = true
				break
			}
		}
		if !ok {
			out = append(out, Violation{Kind: UnknownPlayer, Detail: fmt.Sprintf("%q is not in the squad or the recommendations", name)})
		}
	}
	return out
}

func (v *Validator) checkGameweeks(text string) []Violation {
	out := make([]Violation, 0)
	seen := make(map[int]bool)
	for _, m := range gameweekRegex.FindAllStringSubmatch(text, -1) {
		// The window is contiguous, so a range leaves it iff one of its ends does.
		for _, g := range m[1:] {
			gw, err := strconv.Atoi(g)
			if err != nil || seen[gw] || v.window.Contains(gw) {
				continue
			}
			seen[gw] = true
			out = append(out, Violation{
				Kind:   StaleGameweek,
				Detail: fmt.Sprintf("gameweek %d is outside %d-%d", gw, v.window.From, v.window.To),
			})
		}
	}
	return out
}

func (v *Validator) checkSeasons(text string) []Violation {
	if v.window.Season == "" {
		return nil
	}
	out := make([]Violation, 0)
	for _, m := range seasonRegex.FindAllStringSubmatch(text, -1) {
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		// Dates such as 2025-10-18 share the shape; a season spans two years.
		if (start+1)%100 != end {
			continue
		}
		season := m[1] + "/" + m[2]
		if season != v.window.Season {
			out = append(out, Violation{
				Kind:   StaleSeason,
				Detail: fmt.Sprintf("season %s is not %s", season, v.window.Season),
			})
		}
	}
	return out
}

func checkEncoding(text string) []Violation {
	out := make([]Violation, 0)
	for _, bad := range mojibake {
		if strings.Contains(text, bad) {
			out = append(out, Violation{Kind: CurrencyEncoding, Detail: fmt.Sprintf("mis-encoded currency %q", bad)})
			break
		}
	}
	if replacementRegex.MatchString(text) {
		out = append(out, Violation{Kind: CurrencyEncoding, Detail: "replacement character next to an amount"})
	}
	if m := wrongSymbolRegex.FindString(text); m != "" {
		out = append(out, Violation{Kind: CurrencyEncoding, Detail: fmt.Sprintf("amount %q must use %s", m, money.Symbol)})
	}
	return out
}

func checkCurrencyPresent(text string) []Violation {
	out := make([]Violation, 0)
	quoted := false
	for _, loc := range figureRegex.FindAllStringIndex(text, -1) {
		before := strings.TrimRightFunc(text[:loc[0]], unicode.IsSpace)
		if strings.HasSuffix(before, money.Symbol) {
			quoted = true
			continue
		}
		if strings.HasSuffix(before, "$") || strings.HasSuffix(before, "€") {
			continue
		}
		out = append(out, Violation{
			Kind:   CurrencyMissing,
			Detail: fmt.Sprintf("amount %q is missing %s", text[loc[0]:loc[1]], money.Symbol),
		})
	}
	if !quoted && len(out) == 0 && !strings.Contains(text, money.Symbol) {
		out = append(out, Violation{Kind: CurrencyMissing, Detail: "money was asked about but no " + money.Symbol + " amount was quoted"})
	}
	return out
}

// containsWord reports whether word occurs in text with no letter or digit
// directly on either side.
func containsWord(text, word string) bool {
	for start := 0; start <= len(text)-len(word); {
		i := strings.Index(text[start:], word)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(word)
		if !wordRune(lastRune(text[:i])) && !wordRune(firstRune(text[end:])) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		start = i + size
	}
	return false
}

func wordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func lastRune(s string) rune {
	if s == "" {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}

func firstRune(s string) rune {
	if s == "" {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r
}
